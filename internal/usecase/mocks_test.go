package usecase

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/rocketscienceinc/reversi-backend/internal/entity"
	"github.com/rocketscienceinc/reversi-backend/internal/reversi"
)

type mockPlayerService struct {
	mock.Mock
}

func (that *mockPlayerService) CreatePlayer(ctx context.Context, name string) (*entity.Player, error) {
	args := that.Called(ctx, name)
	player, _ := args.Get(0).(*entity.Player)
	return player, args.Error(1)
}

func (that *mockPlayerService) GetPlayerByID(ctx context.Context, id string) (*entity.Player, error) {
	args := that.Called(ctx, id)
	player, _ := args.Get(0).(*entity.Player)
	return player, args.Error(1)
}

type mockAuthService struct {
	mock.Mock
}

func (that *mockAuthService) GenerateToken(playerID string) (string, error) {
	args := that.Called(playerID)
	return args.String(0), args.Error(1)
}

func (that *mockAuthService) ParseToken(tokenString string) (string, error) {
	args := that.Called(tokenString)
	return args.String(0), args.Error(1)
}

type mockGamePlayService struct {
	mock.Mock
}

func (that *mockGamePlayService) game(args mock.Arguments) (*entity.Game, error) {
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGamePlayService) GetOrCreateGame(ctx context.Context, player *entity.Player, gameType string) (*entity.Game, error) {
	return that.game(that.Called(ctx, player, gameType))
}

func (that *mockGamePlayService) JoinGameByID(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	return that.game(that.Called(ctx, gameID, playerID))
}

func (that *mockGamePlayService) GetGame(ctx context.Context, gameID string) (*entity.Game, error) {
	return that.game(that.Called(ctx, gameID))
}

func (that *mockGamePlayService) MakeTurn(ctx context.Context, playerID string, at reversi.Coord) (*entity.Game, error) {
	return that.game(that.Called(ctx, playerID, at))
}

func (that *mockGamePlayService) LegalMoves(ctx context.Context, playerID string) ([]reversi.Coord, error) {
	args := that.Called(ctx, playerID)
	moves, _ := args.Get(0).([]reversi.Coord)
	return moves, args.Error(1)
}

func (that *mockGamePlayService) ExpireTurn(ctx context.Context, gameID string, ply int) (*entity.Game, error) {
	return that.game(that.Called(ctx, gameID, ply))
}

func (that *mockGamePlayService) ExportGame(ctx context.Context, playerID string, w io.Writer) (*entity.Game, error) {
	return that.game(that.Called(ctx, playerID, w))
}

func (that *mockGamePlayService) ImportGame(ctx context.Context, playerID string, r io.Reader) (*entity.Game, error) {
	return that.game(that.Called(ctx, playerID, r))
}

func (that *mockGamePlayService) LeaveGame(ctx context.Context, playerID string) (*entity.Game, error) {
	return that.game(that.Called(ctx, playerID))
}

func (that *mockGamePlayService) Leaderboard(ctx context.Context, limit int) ([]entity.LeaderboardEntry, error) {
	args := that.Called(ctx, limit)
	entries, _ := args.Get(0).([]entity.LeaderboardEntry)
	return entries, args.Error(1)
}

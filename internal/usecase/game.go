package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/rocketscienceinc/reversi-backend/internal/apperror"
	"github.com/rocketscienceinc/reversi-backend/internal/entity"
	"github.com/rocketscienceinc/reversi-backend/internal/reversi"
)

const DefaultLeaderboardLimit = 10

type GameUseCase interface {
	RegisterPlayer(ctx context.Context, name string) (*entity.Player, string, error)
	Authenticate(token string) (string, error)
	GetOrCreatePlayer(ctx context.Context, playerID string) (*entity.Player, error)

	GetOrCreateGame(ctx context.Context, playerID, gameType string) (*entity.Game, error)
	JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	GetGame(ctx context.Context, playerID, gameID string) (*entity.Game, error)
	GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error)

	MakeTurn(ctx context.Context, playerID, gameID string, at reversi.Coord) (*entity.Game, error)
	LegalMoves(ctx context.Context, playerID, gameID string) ([]reversi.Coord, error)
	ExpireTurn(ctx context.Context, gameID string, ply int) (*entity.Game, error)

	ExportGame(ctx context.Context, playerID, gameID string, w io.Writer) (*entity.Game, error)
	ImportGame(ctx context.Context, playerID, gameID string, r io.Reader) (*entity.Game, error)
	LeaveGame(ctx context.Context, playerID, gameID string) (*entity.Game, error)

	Leaderboard(ctx context.Context, limit int) ([]entity.LeaderboardEntry, error)
}

type playerService interface {
	CreatePlayer(ctx context.Context, name string) (*entity.Player, error)
	GetPlayerByID(ctx context.Context, id string) (*entity.Player, error)
}

type authService interface {
	GenerateToken(playerID string) (string, error)
	ParseToken(tokenString string) (string, error)
}

type gamePlayService interface {
	GetOrCreateGame(ctx context.Context, player *entity.Player, gameType string) (*entity.Game, error)
	JoinGameByID(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	GetGame(ctx context.Context, gameID string) (*entity.Game, error)

	MakeTurn(ctx context.Context, playerID string, at reversi.Coord) (*entity.Game, error)
	LegalMoves(ctx context.Context, playerID string) ([]reversi.Coord, error)
	ExpireTurn(ctx context.Context, gameID string, ply int) (*entity.Game, error)

	ExportGame(ctx context.Context, playerID string, w io.Writer) (*entity.Game, error)
	ImportGame(ctx context.Context, playerID string, r io.Reader) (*entity.Game, error)

	LeaveGame(ctx context.Context, playerID string) (*entity.Game, error)
	Leaderboard(ctx context.Context, limit int) ([]entity.LeaderboardEntry, error)
}

type gameUseCase struct {
	playerService   playerService
	authService     authService
	gamePlayService gamePlayService
}

func NewGameUseCase(playerService playerService, authService authService, gamePlayService gamePlayService) GameUseCase {
	return &gameUseCase{
		playerService:   playerService,
		authService:     authService,
		gamePlayService: gamePlayService,
	}
}

// RegisterPlayer creates a player and issues its bearer token.
func (that *gameUseCase) RegisterPlayer(ctx context.Context, name string) (*entity.Player, string, error) {
	player, err := that.playerService.CreatePlayer(ctx, name)
	if err != nil {
		return nil, "", fmt.Errorf("could not create player: %w", err)
	}

	token, err := that.authService.GenerateToken(player.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return player, token, nil
}

func (that *gameUseCase) Authenticate(token string) (string, error) {
	playerID, err := that.authService.ParseToken(token)
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	return playerID, nil
}

func (that *gameUseCase) GetOrCreatePlayer(ctx context.Context, playerID string) (*entity.Player, error) {
	if playerID == "" {
		player, err := that.playerService.CreatePlayer(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("could not create player: %w", err)
		}

		return player, nil
	}

	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	return player, nil
}

func (that *gameUseCase) GetOrCreateGame(ctx context.Context, playerID, gameType string) (*entity.Game, error) {
	switch gameType {
	case entity.PublicType, entity.PrivateType, entity.WithBotType:
	default:
		return nil, fmt.Errorf("%w: %q", entity.ErrUnknownGameType, gameType)
	}

	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	game, err := that.gamePlayService.GetOrCreateGame(ctx, player, gameType)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create game: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	game, err := that.gamePlayService.JoinGameByID(ctx, gameID, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to join game: %w", err)
	}

	return game, nil
}

// GetGame returns the game, live or archived, if the player took part in it.
func (that *gameUseCase) GetGame(ctx context.Context, playerID, gameID string) (*entity.Game, error) {
	game, err := that.gamePlayService.GetGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	if game.PlayerByID(playerID) == nil {
		return nil, apperror.ErrNotInGame
	}

	return game, nil
}

func (that *gameUseCase) GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error) {
	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	if player.GameID == "" {
		return nil, apperror.ErrNoActiveGames
	}

	game, err := that.gamePlayService.GetGame(ctx, player.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

// MakeTurn plays the move. When the move ends the game the final state comes back together with
// apperror.ErrGameFinished.
func (that *gameUseCase) MakeTurn(ctx context.Context, playerID, gameID string, at reversi.Coord) (*entity.Game, error) {
	if err := that.confirmCurrentGame(ctx, playerID, gameID); err != nil {
		return nil, err
	}

	game, err := that.gamePlayService.MakeTurn(ctx, playerID, at)
	if err != nil {
		return nil, fmt.Errorf("failed to make turn: %w", err)
	}

	if game.IsFinished() {
		return game, apperror.ErrGameFinished
	}

	return game, nil
}

func (that *gameUseCase) LegalMoves(ctx context.Context, playerID, gameID string) ([]reversi.Coord, error) {
	if err := that.confirmCurrentGame(ctx, playerID, gameID); err != nil {
		return nil, err
	}

	moves, err := that.gamePlayService.LegalMoves(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get legal moves: %w", err)
	}

	return moves, nil
}

func (that *gameUseCase) ExpireTurn(ctx context.Context, gameID string, ply int) (*entity.Game, error) {
	game, err := that.gamePlayService.ExpireTurn(ctx, gameID, ply)
	if err != nil {
		return nil, fmt.Errorf("failed to expire turn: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) ExportGame(ctx context.Context, playerID, gameID string, w io.Writer) (*entity.Game, error) {
	if err := that.confirmCurrentGame(ctx, playerID, gameID); err != nil {
		return nil, err
	}

	game, err := that.gamePlayService.ExportGame(ctx, playerID, w)
	if err != nil {
		return nil, fmt.Errorf("failed to export game: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) ImportGame(ctx context.Context, playerID, gameID string, r io.Reader) (*entity.Game, error) {
	if err := that.confirmCurrentGame(ctx, playerID, gameID); err != nil {
		return nil, err
	}

	game, err := that.gamePlayService.ImportGame(ctx, playerID, r)
	if err != nil {
		return nil, fmt.Errorf("failed to import game: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) LeaveGame(ctx context.Context, playerID, gameID string) (*entity.Game, error) {
	if err := that.confirmCurrentGame(ctx, playerID, gameID); err != nil {
		return nil, err
	}

	game, err := that.gamePlayService.LeaveGame(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to leave game: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) Leaderboard(ctx context.Context, limit int) ([]entity.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	entries, err := that.gamePlayService.Leaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}

	return entries, nil
}

// confirmCurrentGame checks that gameID is the game the player is seated in right now.
func (that *gameUseCase) confirmCurrentGame(ctx context.Context, playerID, gameID string) error {
	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to get player: %w", err)
	}

	if player.GameID == "" {
		return apperror.ErrNoActiveGames
	}

	if player.GameID != gameID {
		return fmt.Errorf("%w: game id %s", apperror.ErrNotInGame, gameID)
	}

	return nil
}

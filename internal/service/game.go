package service

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/reversi-backend/internal/apperror"
	"github.com/rocketscienceinc/reversi-backend/internal/entity"
	"github.com/rocketscienceinc/reversi-backend/internal/pkg"
)

type GameService interface {
	CreateGame(ctx context.Context, creator *entity.Player, gameType string) (*entity.Game, error)
	StartGame(ctx context.Context, game *entity.Game, joiner *entity.Player) error
	UpdateGame(ctx context.Context, game *entity.Game) error
	DeleteGame(ctx context.Context, gameID string) error

	GetGameByID(ctx context.Context, id string) (*entity.Game, error)
	GetWaitingPublicGame(ctx context.Context) (*entity.Game, error)
}

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error

	GetByID(ctx context.Context, id string) (*entity.Game, error)
	GetWaitingPublicGame(ctx context.Context) (*entity.Game, error)

	DeleteByID(ctx context.Context, id string) error
}

type gameService struct {
	gameRepo gameRepo
}

func NewGameService(gameRepo gameRepo) GameService {
	return &gameService{
		gameRepo: gameRepo,
	}
}

// CreateGame stores a waiting game on the starting position with the creator seated as white.
// The creator's seat is written to the passed player; storing the player is up to the caller.
func (that *gameService) CreateGame(ctx context.Context, creator *entity.Player, gameType string) (*entity.Game, error) {
	switch gameType {
	case entity.PublicType, entity.PrivateType, entity.WithBotType:
	default:
		return nil, fmt.Errorf("%w: %q", entity.ErrUnknownGameType, gameType)
	}

	gameID, err := pkg.GenerateGameID()
	if err != nil {
		return nil, fmt.Errorf("error generating game ID: %w", err)
	}

	game := entity.NewGame(gameID, gameType)

	creator.GameID = game.ID
	creator.Mark = entity.PlayerWhite
	game.Players = []*entity.Player{creator}

	if err = that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game in storage: %w", err)
	}

	return game, nil
}

// StartGame gives the joiner the free colour and sets the game running. Storing the joiner is up
// to the caller.
func (that *gameService) StartGame(ctx context.Context, game *entity.Game, joiner *entity.Player) error {
	if game.IsFull() {
		return fmt.Errorf("%w: game id %s", apperror.ErrGameIsFull, game.ID)
	}

	if !game.IsWaiting() {
		return fmt.Errorf("%w: game id %s", apperror.ErrGameFinished, game.ID)
	}

	joiner.GameID = game.ID
	joiner.Mark = freeMark(game)

	game.Players = append(game.Players, joiner)
	game.Status = entity.StatusOngoing

	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return fmt.Errorf("failed to start game in storage: %w", err)
	}

	return nil
}

func (that *gameService) GetGameByID(ctx context.Context, id string) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve game from storage: %w", err)
	}
	return game, nil
}

func (that *gameService) GetWaitingPublicGame(ctx context.Context) (*entity.Game, error) {
	game, err := that.gameRepo.GetWaitingPublicGame(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve waiting public game from storage: %w", err)
	}
	return game, nil
}

func (that *gameService) UpdateGame(ctx context.Context, game *entity.Game) error {
	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	return nil
}

func (that *gameService) DeleteGame(ctx context.Context, gameID string) error {
	if err := that.gameRepo.DeleteByID(ctx, gameID); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	return nil
}

func freeMark(game *entity.Game) string {
	if game.PlayerByMark(entity.PlayerWhite) == nil {
		return entity.PlayerWhite
	}
	return entity.PlayerBlack
}

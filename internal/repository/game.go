package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/reversi-backend/internal/apperror"
	"github.com/rocketscienceinc/reversi-backend/internal/entity"
)

const waitingPublicGamesKey = "games:public:waiting"

var ErrGameNotFound = fmt.Errorf("game %w", apperror.ErrNotFound)

type GameRepository interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	GetWaitingPublicGame(ctx context.Context) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

type dbGame struct {
	client *redis.Client
}

func NewGameRepository(client *redis.Client) GameRepository {
	return &dbGame{
		client: client,
	}
}

func (that *dbGame) CreateOrUpdate(ctx context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	pipe := that.client.TxPipeline()
	pipe.Set(ctx, gameKey(game.ID), gameJSON, 0)

	if game.IsPublic() && game.IsWaiting() {
		pipe.SAdd(ctx, waitingPublicGamesKey, game.ID)
	} else {
		pipe.SRem(ctx, waitingPublicGamesKey, game.ID)
	}

	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	response, err := that.client.Get(ctx, gameKey(id)).Result()

	if errors.Is(err, redis.Nil) {
		return nil, ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	var existingGame entity.Game
	if err = json.Unmarshal([]byte(response), &existingGame); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &existingGame, nil
}

// GetWaitingPublicGame returns any public game that still waits for its second player.
func (that *dbGame) GetWaitingPublicGame(ctx context.Context) (*entity.Game, error) {
	ids, err := that.client.SMembers(ctx, waitingPublicGamesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get waiting public games: %w", err)
	}

	for _, id := range ids {
		game, err := that.GetByID(ctx, id)
		if errors.Is(err, ErrGameNotFound) {
			that.client.SRem(ctx, waitingPublicGamesKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}

		if game.IsWaiting() {
			return game, nil
		}
	}

	return nil, apperror.ErrNoActiveGames
}

func (that *dbGame) DeleteByID(ctx context.Context, id string) error {
	pipe := that.client.TxPipeline()
	deleted := pipe.Del(ctx, gameKey(id))
	pipe.SRem(ctx, waitingPublicGamesKey, id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete game by ID: %w", err)
	}

	if deleted.Val() == 0 {
		return ErrGameNotFound
	}

	return nil
}

func gameKey(id string) string {
	return "game:" + id
}

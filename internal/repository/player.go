package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/reversi-backend/internal/apperror"
	"github.com/rocketscienceinc/reversi-backend/internal/entity"
)

var (
	ErrPlayerNotFound = fmt.Errorf("player %w", apperror.ErrNotFound)
	ErrBotNotStored   = errors.New("bot players are not stored")
)

type PlayerRepository interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

// dbPlayer keeps players as JSON under player:<id>. With a non-zero ttl a player record lives
// that long after its last write or read, so abandoned sessions drop out of Redis.
type dbPlayer struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPlayerRepository(client *redis.Client, ttl time.Duration) PlayerRepository {
	return &dbPlayer{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbPlayer) CreateOrUpdate(ctx context.Context, player *entity.Player) error {
	if player.IsBot() {
		return fmt.Errorf("%w: %s", ErrBotNotStored, player.ID)
	}

	playerJSON, err := json.Marshal(player)
	if err != nil {
		return fmt.Errorf("failed to marshal player: %w", err)
	}

	if err = that.client.Set(ctx, playerKey(player.ID), playerJSON, that.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set player: %w", err)
	}

	return nil
}

func (that *dbPlayer) GetByID(ctx context.Context, id string) (*entity.Player, error) {
	var cmd *redis.StringCmd
	if that.ttl > 0 {
		cmd = that.client.GetEx(ctx, playerKey(id), that.ttl)
	} else {
		cmd = that.client.Get(ctx, playerKey(id))
	}

	response, err := cmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player by ID: %w", err)
	}

	var existingPlayer entity.Player
	if err = json.Unmarshal(response, &existingPlayer); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player: %w", err)
	}

	return &existingPlayer, nil
}

func playerKey(id string) string {
	return "player:" + id
}

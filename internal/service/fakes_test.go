package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/rocketscienceinc/reversi-backend/internal/apperror"
	"github.com/rocketscienceinc/reversi-backend/internal/entity"
	"github.com/rocketscienceinc/reversi-backend/internal/event"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

type memoryPlayers struct {
	mu      sync.Mutex
	players map[string]entity.Player
}

func newMemoryPlayers() *memoryPlayers {
	return &memoryPlayers{players: make(map[string]entity.Player)}
}

func (that *memoryPlayers) CreateOrUpdate(_ context.Context, player *entity.Player) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.players[player.ID] = *player
	return nil
}

func (that *memoryPlayers) GetByID(_ context.Context, id string) (*entity.Player, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player, ok := that.players[id]
	if !ok {
		return nil, fmt.Errorf("player %w", apperror.ErrNotFound)
	}
	return &player, nil
}

// memoryGames stores games as JSON, so every read returns a fresh copy.
type memoryGames struct {
	mu    sync.Mutex
	games map[string][]byte
}

func newMemoryGames() *memoryGames {
	return &memoryGames{games: make(map[string][]byte)}
}

func (that *memoryGames) CreateOrUpdate(_ context.Context, game *entity.Game) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	data, err := json.Marshal(game)
	if err != nil {
		return err
	}
	that.games[game.ID] = data
	return nil
}

func (that *memoryGames) GetByID(_ context.Context, id string) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.get(id)
}

func (that *memoryGames) get(id string) (*entity.Game, error) {
	data, ok := that.games[id]
	if !ok {
		return nil, fmt.Errorf("game %w", apperror.ErrNotFound)
	}

	var game entity.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

func (that *memoryGames) GetWaitingPublicGame(_ context.Context) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for id := range that.games {
		game, err := that.get(id)
		if err != nil {
			return nil, err
		}
		if game.IsPublic() && game.IsWaiting() {
			return game, nil
		}
	}
	return nil, apperror.ErrNoActiveGames
}

func (that *memoryGames) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.games[id]; !ok {
		return fmt.Errorf("game %w", apperror.ErrNotFound)
	}
	delete(that.games, id)
	return nil
}

func (that *memoryGames) has(id string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, ok := that.games[id]
	return ok
}

type memoryArchive struct {
	mu          sync.Mutex
	games       map[string]*entity.ArchivedGame
	leaderboard []entity.LeaderboardEntry
}

func newMemoryArchive() *memoryArchive {
	return &memoryArchive{games: make(map[string]*entity.ArchivedGame)}
}

func (that *memoryArchive) Save(_ context.Context, game *entity.ArchivedGame) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.games[game.ID] = game
	return nil
}

func (that *memoryArchive) GetByID(_ context.Context, id string) (*entity.ArchivedGame, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, ok := that.games[id]
	if !ok {
		return nil, fmt.Errorf("archived game %w", apperror.ErrNotFound)
	}
	return game, nil
}

func (that *memoryArchive) Leaderboard(_ context.Context, limit int) ([]entity.LeaderboardEntry, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if limit < len(that.leaderboard) {
		return that.leaderboard[:limit], nil
	}
	return that.leaderboard, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.GameEvent
}

func (that *recordingPublisher) Publish(_ context.Context, gameEvent event.GameEvent) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.events = append(that.events, gameEvent)
	return nil
}

func (that *recordingPublisher) names() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	names := make([]string, 0, len(that.events))
	for _, gameEvent := range that.events {
		names = append(names, gameEvent.Event)
	}
	return names
}

func (that *recordingPublisher) last() event.GameEvent {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.events[len(that.events)-1]
}

type countingClock struct {
	mu      sync.Mutex
	started map[string]int
	running map[string]bool
	plies   map[string]int
}

func newCountingClock() *countingClock {
	return &countingClock{
		started: make(map[string]int),
		running: make(map[string]bool),
		plies:   make(map[string]int),
	}
}

func (that *countingClock) Start(gameID string, ply int) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.started[gameID]++
	that.running[gameID] = true
	that.plies[gameID] = ply
}

func (that *countingClock) Stop(gameID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.running[gameID] = false
}

func (that *countingClock) starts(gameID string) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.started[gameID]
}

// ply returns the ply of the latest deadline started for the game.
func (that *countingClock) ply(gameID string) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.plies[gameID]
}

func (that *countingClock) isRunning(gameID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.running[gameID]
}

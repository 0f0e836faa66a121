package service

import (
	"log/slog"
	"sync"
	"time"
)

// TurnClock runs one deadline per game. Start restarts the deadline after every ply; a deadline
// superseded by a later Start or Stop never fires its callback. The callback gets the ply the
// deadline was started for, so a deadline that fires while that ply is being played can be told
// apart from the next one.
type TurnClock struct {
	logger  *slog.Logger
	timeout time.Duration

	mu       sync.Mutex
	timers   map[string]*turnTimer
	sequence uint64
	onExpire func(gameID string, ply int)
}

type turnTimer struct {
	timer      *time.Timer
	generation uint64
	ply        int
}

// NewTurnClock returns a clock with the given per-turn timeout. A zero timeout disables it.
func NewTurnClock(logger *slog.Logger, timeout time.Duration) *TurnClock {
	return &TurnClock{
		logger:  logger.With("component", "turn-clock"),
		timeout: timeout,
		timers:  make(map[string]*turnTimer),
	}
}

// OnExpire sets the callback run when a game's deadline passes.
func (that *TurnClock) OnExpire(fn func(gameID string, ply int)) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.onExpire = fn
}

func (that *TurnClock) Enabled() bool {
	return that.timeout > 0
}

func (that *TurnClock) Timeout() time.Duration {
	return that.timeout
}

func (that *TurnClock) Start(gameID string, ply int) {
	if !that.Enabled() {
		return
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if current, ok := that.timers[gameID]; ok {
		current.timer.Stop()
	}

	that.sequence++
	generation := that.sequence

	that.timers[gameID] = &turnTimer{
		generation: generation,
		ply:        ply,
		timer: time.AfterFunc(that.timeout, func() {
			that.expire(gameID, generation)
		}),
	}
}

func (that *TurnClock) Stop(gameID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if current, ok := that.timers[gameID]; ok {
		current.timer.Stop()
		delete(that.timers, gameID)
	}
}

// Running reports whether the game has a pending deadline.
func (that *TurnClock) Running(gameID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, ok := that.timers[gameID]
	return ok
}

func (that *TurnClock) expire(gameID string, generation uint64) {
	that.mu.Lock()
	current, ok := that.timers[gameID]
	if !ok || current.generation != generation {
		that.mu.Unlock()
		return
	}
	delete(that.timers, gameID)
	onExpire := that.onExpire
	that.mu.Unlock()

	that.logger.Info("turn expired", "gameID", gameID, "ply", current.ply)

	if onExpire != nil {
		onExpire(gameID, current.ply)
	}
}

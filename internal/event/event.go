package event

import (
	"context"
	"time"
)

const (
	GameStarted = "game_started"
	TurnMade    = "turn_made"
	TurnExpired = "turn_expired"
	GameOver    = "game_over"
)

type GameEvent struct {
	Event     string    `json:"event"`
	GameID    string    `json:"game_id"`
	Turn      string    `json:"turn,omitempty"`
	Winner    string    `json:"winner,omitempty"`
	White     int       `json:"white"`
	Black     int       `json:"black"`
	Timestamp time.Time `json:"timestamp"`
}

// NopPublisher drops every event. It is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(_ context.Context, _ GameEvent) error {
	return nil
}

func (NopPublisher) Close() error {
	return nil
}

package pkg

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const saveFileLayout = "2006-01-02_15-04-05"

// GenerateGameID - generates a unique identifier for the game.
func GenerateGameID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate uuid: %w", err)
	}

	return id.String(), nil
}

// GenerateNewSessionID - generates a new unique player session id.
func GenerateNewSessionID() string {
	return uuid.NewString()
}

// SaveFileName - name offered to clients downloading a saved game.
func SaveFileName(at time.Time) string {
	return "REVERSI_GAME_SAVE_" + at.Format(saveFileLayout)
}

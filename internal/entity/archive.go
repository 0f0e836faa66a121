package entity

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// ArchivedGame is the permanent record of a finished game.
type ArchivedGame struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Winner     string    `json:"winner"`
	WhiteID    string    `json:"white_id"`
	BlackID    string    `json:"black_id"`
	Score      Score     `json:"score"`
	SaveData   string    `json:"-"`
	FinishedAt time.Time `json:"finished_at"`
}

type LeaderboardEntry struct {
	PlayerID string `json:"player_id"`
	Wins     int    `json:"wins"`
	Games    int    `json:"games"`
}

func NewArchivedGame(game *Game, finishedAt time.Time) (*ArchivedGame, error) {
	var save bytes.Buffer
	if err := game.SaveData(&save); err != nil {
		return nil, fmt.Errorf("failed to save game data: %w", err)
	}

	archived := &ArchivedGame{
		ID:         game.ID,
		Type:       game.Type,
		Winner:     game.Winner,
		Score:      game.Score,
		SaveData:   save.String(),
		FinishedAt: finishedAt.UTC(),
	}

	if white := game.PlayerByMark(PlayerWhite); white != nil {
		archived.WhiteID = white.ID
	}
	if black := game.PlayerByMark(PlayerBlack); black != nil {
		archived.BlackID = black.ID
	}

	return archived, nil
}

// Game rebuilds the final position of the archived game.
func (that *ArchivedGame) Game() (*Game, error) {
	game := &Game{
		ID:   that.ID,
		Type: that.Type,
	}

	if err := game.LoadSaveData(strings.NewReader(that.SaveData)); err != nil {
		return nil, fmt.Errorf("failed to load archived game: %w", err)
	}

	// forfeits end with moves still available
	game.Finish(that.Winner)

	if that.WhiteID != "" {
		game.Players = append(game.Players, &Player{ID: that.WhiteID, Mark: PlayerWhite})
	}
	if that.BlackID != "" {
		game.Players = append(game.Players, &Player{ID: that.BlackID, Mark: PlayerBlack})
	}

	return game, nil
}

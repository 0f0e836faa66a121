package entity

import "strings"

const botPrefix = "bot:"

type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Mark   string `json:"mark,omitempty"`
	GameID string `json:"game_id,omitempty"`
}

func NewBotPlayer(gameID, mark string) *Player {
	return &Player{
		ID:     botPrefix + gameID,
		Name:   "Bot",
		Mark:   mark,
		GameID: gameID,
	}
}

func (that *Player) IsBot() bool {
	return strings.HasPrefix(that.ID, botPrefix)
}

// Leave detaches the player from its game.
func (that *Player) Leave() {
	that.GameID = ""
	that.Mark = ""
}

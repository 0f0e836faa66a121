package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/reversi-backend/internal/entity"
	"github.com/rocketscienceinc/reversi-backend/internal/reversi"
)

const (
	actionConnect   = "connect"
	actionGameNew   = "game:new"
	actionGameJoin  = "game:join"
	actionGameTurn  = "game:turn"
	actionGameMoves = "game:moves"
	actionGameLeave = "game:leave"

	// actionGameExpired is pushed by the server when a turn clock runs out.
	actionGameExpired = "game:expired"
	actionError       = "error"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	Token  string          `json:"token,omitempty"`
	Player *entity.Player  `json:"player,omitempty"`
	Game   *entity.Game    `json:"game,omitempty"`
	Cell   *reversi.Coord  `json:"cell,omitempty"`
	Moves  []reversi.Coord `json:"moves,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// maskGameDetails returns a copy of the game without player ids, which double as credentials.
func maskGameDetails(game *entity.Game) *entity.Game {
	masked := *game
	masked.Players = make([]*entity.Player, 0, len(game.Players))

	for _, player := range game.Players {
		masked.Players = append(masked.Players, &entity.Player{
			Name: player.Name,
			Mark: player.Mark,
		})
	}

	return &masked
}

package entity

import (
	"errors"
	"fmt"
	"io"
	"math/rand"

	"github.com/rocketscienceinc/reversi-backend/internal/apperror"
	"github.com/rocketscienceinc/reversi-backend/internal/reversi"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
	StatusWaiting  = "waiting"

	PlayerTie = "-"
)

const (
	PublicType  = "public"
	PrivateType = "private"
	WithBotType = "bot"
)

var (
	PlayerWhite = reversi.White.String()
	PlayerBlack = reversi.Black.String()
)

var (
	ErrUnknownGameStatus = errors.New("unknown game status")
	ErrUnknownGameType   = errors.New("unknown game type")
)

type Score struct {
	White int `json:"white"`
	Black int `json:"black"`
}

type Game struct {
	ID         string          `json:"id"`
	Board      reversi.Grid    `json:"board"`
	Winner     string          `json:"winner"`
	Status     string          `json:"status"`
	Turn       string          `json:"player_turn"`
	Players    []*Player       `json:"players,omitempty"`
	Type       string          `json:"type,omitempty"`
	LegalMoves []reversi.Coord `json:"legal_moves"`
	LastMove   *reversi.Coord  `json:"last_move,omitempty"`
	LastFlips  []reversi.Coord `json:"last_flips,omitempty"`
	Score      Score           `json:"score"`
	// Ply counts the positions the game has gone through. A turn deadline is bound to one ply.
	Ply int `json:"ply"`
}

func NewGame(id, gameType string) *Game {
	game := &Game{
		ID:     id,
		Status: StatusWaiting,
		Type:   gameType,
	}
	game.sync(reversi.New())

	return game
}

// Engine rebuilds the rules engine from the stored board and turn.
func (that *Game) Engine() (*reversi.Engine, error) {
	turn, err := reversi.ParsePlayer(that.Turn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse turn: %w", err)
	}

	engine, err := reversi.Restore(that.Board, turn)
	if err != nil {
		return nil, fmt.Errorf("failed to restore engine: %w", err)
	}

	return engine, nil
}

// MakeTurn places the disc of playerMark at the given cell.
func (that *Game) MakeTurn(playerMark string, at reversi.Coord) error {
	if err := that.ConfirmOngoingState(); err != nil {
		return err
	}

	player, err := reversi.ParsePlayer(playerMark)
	if err != nil {
		return fmt.Errorf("failed to parse mark: %w", err)
	}

	engine, err := that.Engine()
	if err != nil {
		return err
	}

	if engine.Turn() != player {
		return apperror.ErrNotYourTurn
	}

	flipped, err := engine.SubmitMove(player, at)
	if errors.Is(err, reversi.ErrIllegalMove) || errors.Is(err, reversi.ErrOutOfBounds) {
		return fmt.Errorf("%w: %w", apperror.ErrIllegalMove, err)
	}
	if err != nil {
		return fmt.Errorf("failed to submit move: %w", err)
	}

	that.LastMove = &at
	that.LastFlips = flipped
	that.Ply++
	that.sync(engine)

	return nil
}

// ForcePass ends the current turn without a placement.
func (that *Game) ForcePass() error {
	if err := that.ConfirmOngoingState(); err != nil {
		return err
	}

	engine, err := that.Engine()
	if err != nil {
		return err
	}

	if _, err = engine.ForcePass(); err != nil {
		return fmt.Errorf("failed to pass: %w", err)
	}

	that.LastMove = nil
	that.LastFlips = nil
	that.Ply++
	that.sync(engine)

	return nil
}

// MovesFor returns the legal moves of playerMark on the current board.
func (that *Game) MovesFor(playerMark string) ([]reversi.Coord, error) {
	player, err := reversi.ParsePlayer(playerMark)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mark: %w", err)
	}

	if that.IsFinished() {
		return []reversi.Coord{}, nil
	}

	return reversi.LegalMoves(&that.Board, player), nil
}

func (that *Game) SaveData(w io.Writer) error {
	turn, err := reversi.ParsePlayer(that.Turn)
	if err != nil {
		return fmt.Errorf("failed to parse turn: %w", err)
	}

	if err = reversi.EncodeSave(w, that.Board, turn); err != nil {
		return fmt.Errorf("failed to encode save: %w", err)
	}

	return nil
}

// LoadSaveData replaces the board and turn with a saved position. The game is finished when
// neither side can move in it.
func (that *Game) LoadSaveData(r io.Reader) error {
	grid, turn, err := reversi.DecodeSave(r)
	if err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrMalformedSave, err)
	}

	engine, err := reversi.Restore(grid, turn)
	if err != nil {
		return fmt.Errorf("failed to restore engine: %w", err)
	}

	that.LastMove = nil
	that.LastFlips = nil
	that.Ply++
	that.sync(engine)

	return nil
}

// Finish ends the game early in favour of winnerMark.
func (that *Game) Finish(winnerMark string) {
	that.Winner = winnerMark
	that.Status = StatusFinished
	that.LegalMoves = []reversi.Coord{}
}

func (that *Game) sync(engine *reversi.Engine) {
	that.Board = engine.Grid()
	that.Turn = engine.Turn().String()
	that.Score = Score{
		White: engine.DiscCount(reversi.White),
		Black: engine.DiscCount(reversi.Black),
	}

	if !engine.IsGameOver() {
		that.LegalMoves = engine.LegalMoves(engine.Turn())
		return
	}

	winner, ok := engine.Winner()
	if ok {
		that.Finish(winner.String())
		return
	}

	that.Finish(PlayerTie)
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) ConfirmOngoingState() error {
	switch {
	case that.IsWaiting():
		return apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return apperror.ErrGameFinished
	case that.IsOngoing():
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameStatus, that.Status)
	}
}

func (that *Game) IsPublic() bool {
	return that.Type == PublicType
}

func (that *Game) IsWithBot() bool {
	return that.Type == WithBotType
}

func (that *Game) IsFull() bool {
	return len(that.Players) >= 2
}

func (that *Game) GetRandomMarks() (string, string) {
	if rand.Intn(2) == 0 { //nolint: gosec // it's ok
		return PlayerWhite, PlayerBlack
	}
	return PlayerBlack, PlayerWhite
}

func (that *Game) PlayerByMark(mark string) *Player {
	for _, player := range that.Players {
		if player.Mark == mark {
			return player
		}
	}

	return nil
}

func (that *Game) PlayerByID(id string) *Player {
	for _, player := range that.Players {
		if player.ID == id {
			return player
		}
	}

	return nil
}

// Opponent returns the other seated player.
func (that *Game) Opponent(playerID string) *Player {
	for _, player := range that.Players {
		if player.ID != playerID {
			return player
		}
	}

	return nil
}

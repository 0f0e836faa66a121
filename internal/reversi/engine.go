package reversi

import (
	"fmt"
)

// Status is the state of the turn machine.
type Status int

const (
	AwaitingMove Status = iota
	GameOver
)

func (s Status) String() string {
	if s == GameOver {
		return "game_over"
	}
	return "awaiting_move"
}

// TurnState is the externally visible state of the turn machine.
type TurnState struct {
	Status Status
	Turn   Player
}

// Engine runs one game: it validates placements, applies captures, hands the move to the next
// player and detects the end of the game. It is not safe for concurrent use; callers that share
// an Engine hold one exclusive lock for the duration of each mutating call.
type Engine struct {
	grid Grid
	turn Player
	over bool
}

// New starts a game from the initial position with White to move.
func New() *Engine {
	return &Engine{
		grid: NewGrid(),
		turn: White,
	}
}

// Restore rebuilds an engine from persisted state. Legal moves are recomputed and the pass rule
// is applied, so a position where the turn holder is stuck hands the move over, and a position
// where neither side can move is over.
func Restore(grid Grid, turn Player) (*Engine, error) {
	if !turn.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPlayer, turn)
	}

	e := &Engine{grid: grid, turn: turn}
	e.settle(turn)

	return e, nil
}

// Grid returns a copy of the board.
func (that *Engine) Grid() Grid {
	return that.grid
}

func (that *Engine) Turn() Player {
	return that.turn
}

func (that *Engine) State() TurnState {
	if that.over {
		return TurnState{Status: GameOver, Turn: that.turn}
	}
	return TurnState{Status: AwaitingMove, Turn: that.turn}
}

func (that *Engine) IsGameOver() bool {
	return that.over
}

// LegalMoves returns p's legal destinations on the current board.
func (that *Engine) LegalMoves(p Player) []Coord {
	return LegalMoves(&that.grid, p)
}

func (that *Engine) DiscCount(p Player) int {
	return that.grid.Count(p)
}

// Winner reports the player with strictly more discs once the game is over. It returns false
// while the game is running and on a tie.
func (that *Engine) Winner() (Player, bool) {
	if !that.over {
		return 0, false
	}

	white, black := that.grid.Count(White), that.grid.Count(Black)
	switch {
	case white > black:
		return White, true
	case black > white:
		return Black, true
	default:
		return 0, false
	}
}

// SubmitMove plays p's disc at the given cell. On success it returns the flipped cells. A
// rejected move leaves the board and the turn unchanged.
func (that *Engine) SubmitMove(p Player, at Coord) ([]Coord, error) {
	if !at.InBounds() {
		return nil, fmt.Errorf("%w: %s", ErrOutOfBounds, at)
	}

	if that.over {
		return nil, ErrGameOver
	}

	if p != that.turn {
		return nil, fmt.Errorf("%w: %s is not the turn holder", ErrIllegalMove, p)
	}

	if !IsLegalMove(&that.grid, p, at) {
		return nil, fmt.Errorf("%w: %s at %s", ErrIllegalMove, p, at)
	}

	flipped := ApplyPlacement(&that.grid, p, at)
	that.settle(p.Opponent())

	return flipped, nil
}

// ForcePass ends the current turn without a placement, as a turn clock does on expiry. The move
// goes to the opponent, or stays with the current player when the opponent has no legal move.
// It returns the new turn holder.
func (that *Engine) ForcePass() (Player, error) {
	if that.over {
		return that.turn, ErrGameOver
	}

	that.settle(that.turn.Opponent())

	return that.turn, nil
}

// settle hands the move to candidate if it can play, otherwise back to its opponent, otherwise
// ends the game. The turn is left untouched when the game ends.
func (that *Engine) settle(candidate Player) {
	switch {
	case HasLegalMove(&that.grid, candidate):
		that.turn = candidate
		that.over = false
	case HasLegalMove(&that.grid, candidate.Opponent()):
		that.turn = candidate.Opponent()
		that.over = false
	default:
		that.over = true
	}
}

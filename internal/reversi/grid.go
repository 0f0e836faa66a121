package reversi

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Size is the number of rows and columns of the board.
const Size = 8

var (
	ErrOutOfBounds       = errors.New("coordinate is out of bounds")
	ErrInvalidCell       = errors.New("invalid cell state")
	ErrInvalidPlayer     = errors.New("invalid player")
	ErrIllegalMove       = errors.New("illegal move")
	ErrGameOver          = errors.New("game is over")
	ErrMalformedSaveData = errors.New("malformed save data")
)

// Player is one of the two sides. The numeric value is the disc state used in save files.
type Player int8

const (
	White Player = 0
	Black Player = 1
)

func (p Player) Valid() bool {
	return p == White || p == Black
}

func (p Player) Opponent() Player {
	if p == White {
		return Black
	}
	return White
}

func (p Player) String() string {
	switch p {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return fmt.Sprintf("player(%d)", int8(p))
	}
}

// Name is the display name shown in score summaries.
func (p Player) Name() string {
	if p == White {
		return "A"
	}
	return "B"
}

// ParsePlayer accepts "white"/"black" as well as the save-file states "0"/"1".
func ParsePlayer(s string) (Player, error) {
	switch s {
	case "white", "0":
		return White, nil
	case "black", "1":
		return Black, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidPlayer, s)
	}
}

// Cell is the state of a single square: Empty or owned by a player. The zero value is Empty.
type Cell uint8

const (
	Empty Cell = iota
	whiteDisc
	blackDisc
)

func OwnedBy(p Player) Cell {
	if p == White {
		return whiteDisc
	}
	return blackDisc
}

// CellFromState converts a persisted state (-1 empty, 0 white, 1 black) to a Cell.
func CellFromState(state int) (Cell, error) {
	switch state {
	case -1:
		return Empty, nil
	case int(White):
		return whiteDisc, nil
	case int(Black):
		return blackDisc, nil
	default:
		return Empty, fmt.Errorf("%w: %d", ErrInvalidCell, state)
	}
}

// State is the persisted form of the cell: -1 empty, otherwise the owner's value.
func (c Cell) State() int {
	return int(c) - 1
}

func (c Cell) Valid() bool {
	return c <= blackDisc
}

func (c Cell) IsEmpty() bool {
	return c == Empty
}

// Owner returns the owning player, false for an empty cell.
func (c Cell) Owner() (Player, bool) {
	switch c {
	case whiteDisc:
		return White, true
	case blackDisc:
		return Black, true
	default:
		return 0, false
	}
}

// Coord addresses a square, 0-indexed and row-major.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Coord) InBounds() bool {
	return c.Row >= 0 && c.Row < Size && c.Col >= 0 && c.Col < Size
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Grid is the 8x8 board. It is a value type: copies are independent and two grids
// compare equal with == when every cell matches.
type Grid struct {
	cells [Size][Size]Cell
}

// EmptyGrid returns a grid with all 64 cells empty. It is the zero Grid.
func EmptyGrid() Grid {
	return Grid{}
}

// NewGrid returns the four-disc starting position.
func NewGrid() Grid {
	g := EmptyGrid()
	g.cells[3][3] = OwnedBy(White)
	g.cells[4][4] = OwnedBy(White)
	g.cells[3][4] = OwnedBy(Black)
	g.cells[4][3] = OwnedBy(Black)
	return g
}

func (that *Grid) Get(c Coord) (Cell, error) {
	if !c.InBounds() {
		return Empty, fmt.Errorf("%w: %s", ErrOutOfBounds, c)
	}
	return that.cells[c.Row][c.Col], nil
}

func (that *Grid) Set(c Coord, cell Cell) error {
	if !c.InBounds() {
		return fmt.Errorf("%w: %s", ErrOutOfBounds, c)
	}
	if !cell.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidCell, cell.State())
	}
	that.cells[c.Row][c.Col] = cell
	return nil
}

// at reads a cell the caller has already bounds-checked.
func (that *Grid) at(c Coord) Cell {
	return that.cells[c.Row][c.Col]
}

// CellsOwnedBy lists the player's discs in row-major order.
func (that *Grid) CellsOwnedBy(p Player) []Coord {
	var owned []Coord
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if that.cells[row][col] == OwnedBy(p) {
				owned = append(owned, Coord{Row: row, Col: col})
			}
		}
	}
	return owned
}

func (that *Grid) Count(p Player) int {
	count := 0
	for row := range that.cells {
		for col := range that.cells[row] {
			if that.cells[row][col] == OwnedBy(p) {
				count++
			}
		}
	}
	return count
}

func (that *Grid) EmptyCount() int {
	return Size*Size - that.Count(White) - that.Count(Black)
}

func (that Grid) MarshalJSON() ([]byte, error) {
	var states [Size][Size]int8
	for row := range that.cells {
		for col := range that.cells[row] {
			states[row][col] = int8(that.cells[row][col].State())
		}
	}
	return json.Marshal(states)
}

func (that *Grid) UnmarshalJSON(data []byte) error {
	var states [][]int
	if err := json.Unmarshal(data, &states); err != nil {
		return fmt.Errorf("failed to unmarshal grid: %w", err)
	}

	if len(states) != Size {
		return fmt.Errorf("%w: grid has %d rows", ErrInvalidCell, len(states))
	}

	for row := range states {
		if len(states[row]) != Size {
			return fmt.Errorf("%w: row %d has %d cells", ErrInvalidCell, row, len(states[row]))
		}
		for col := range states[row] {
			cell, err := CellFromState(states[row][col])
			if err != nil {
				return fmt.Errorf("%w at (%d,%d)", err, row, col)
			}
			that.cells[row][col] = cell
		}
	}

	return nil
}

package reversi

// Direction is a unit step along one of the eight compass rays.
type Direction struct {
	DRow int
	DCol int
}

// Directions lists the eight rays clockwise starting from north.
var Directions = [8]Direction{
	{DRow: -1, DCol: 0},
	{DRow: -1, DCol: 1},
	{DRow: 0, DCol: 1},
	{DRow: 1, DCol: 1},
	{DRow: 1, DCol: 0},
	{DRow: 1, DCol: -1},
	{DRow: 0, DCol: -1},
	{DRow: -1, DCol: -1},
}

func (c Coord) step(d Direction) Coord {
	return Coord{Row: c.Row + d.DRow, Col: c.Col + d.DCol}
}

// walk visits origin+k*d for k = 1, 2, ... while the cell is on the board and step returns true.
func (that *Grid) walk(origin Coord, d Direction, step func(at Coord, cell Cell) bool) {
	for at := origin.step(d); at.InBounds(); at = at.step(d) {
		if !step(at, that.at(at)) {
			return
		}
	}
}

// discoverMove walks from one of p's discs and reports the empty cell that closes a run of
// at least one opponent disc. An adjacent empty cell, an own disc or the board edge yields
// nothing.
func (that *Grid) discoverMove(origin Coord, p Player, d Direction) (Coord, bool) {
	var (
		target  Coord
		found   bool
		crossed int
	)

	that.walk(origin, d, func(at Coord, cell Cell) bool {
		switch cell {
		case OwnedBy(p.Opponent()):
			crossed++
			return true
		case Empty:
			if crossed > 0 {
				target, found = at, true
			}
		}
		return false
	})

	return target, found
}

// captureRun walks from a freshly placed disc and returns the opponent run that is bracketed by
// another of p's discs. A run ending at an empty cell or the board edge is discarded.
func (that *Grid) captureRun(origin Coord, p Player, d Direction) []Coord {
	var (
		run       []Coord
		bracketed bool
	)

	that.walk(origin, d, func(at Coord, cell Cell) bool {
		switch cell {
		case OwnedBy(p.Opponent()):
			run = append(run, at)
			return true
		case OwnedBy(p):
			bracketed = true
		}
		return false
	})

	if !bracketed {
		return nil
	}

	return run
}

package reversi

// ApplyPlacement places p's disc at an empty, legal cell and flips every bracketed opponent
// run. It trusts the caller to have validated the move against LegalMoves. The flipped cells
// are returned grouped by direction, nearest first.
func ApplyPlacement(grid *Grid, p Player, at Coord) []Coord {
	grid.cells[at.Row][at.Col] = OwnedBy(p)

	var flipped []Coord
	for _, d := range Directions {
		for _, c := range grid.captureRun(at, p, d) {
			grid.cells[c.Row][c.Col] = OwnedBy(p)
			flipped = append(flipped, c)
		}
	}

	return flipped
}

package reversi

// LegalMoves returns every empty cell where p may place a disc, deduplicated and in row-major
// order. The set is recomputed from scratch on every call.
func LegalMoves(grid *Grid, p Player) []Coord {
	var legal [Size][Size]bool

	for _, origin := range grid.CellsOwnedBy(p) {
		for _, d := range Directions {
			if target, ok := grid.discoverMove(origin, p, d); ok {
				legal[target.Row][target.Col] = true
			}
		}
	}

	var moves []Coord
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if legal[row][col] {
				moves = append(moves, Coord{Row: row, Col: col})
			}
		}
	}

	return moves
}

func HasLegalMove(grid *Grid, p Player) bool {
	for _, origin := range grid.CellsOwnedBy(p) {
		for _, d := range Directions {
			if _, ok := grid.discoverMove(origin, p, d); ok {
				return true
			}
		}
	}
	return false
}

// IsLegalMove reports whether at is in LegalMoves(grid, p).
func IsLegalMove(grid *Grid, p Player, at Coord) bool {
	for _, move := range LegalMoves(grid, p) {
		if move == at {
			return true
		}
	}
	return false
}

package reversi

import "math/rand"

// RandomMove picks one of p's legal moves uniformly at random. It returns false when p has no
// legal move. The move still has to be played through Engine.SubmitMove.
func RandomMove(e *Engine, p Player, rnd *rand.Rand) (Coord, bool) {
	moves := e.LegalMoves(p)
	if len(moves) == 0 {
		return Coord{}, false
	}

	if rnd == nil {
		return moves[rand.Intn(len(moves))], true //nolint: gosec // it's ok
	}

	return moves[rnd.Intn(len(moves))], true
}

package eval

import "math/rand"

// Random adds a small amount of noise to an evaluation, in centipawns, in
// the range [-limit/2, limit/2) for an even limit. The zero value always
// returns zero. eval.NewMaterialPST takes the noise limit as a parameter;
// the engine passes 0, so no style slider adds noise. Grounded in the teacher's
// pkg/eval/random.go, adapted from Pawns (float32) to the integer
// centipawn Score.
type Random struct {
	rand  *rand.Rand
	limit int
}

// NewRandom returns a Random that adds up to limit centipawns of noise,
// seeded deterministically so a given seed always reproduces the same game.
func NewRandom(limit int, seed int64) Random {
	return Random{
		limit: limit,
		rand:  rand.New(rand.NewSource(seed)),
	}
}

// Evaluate returns the next noise sample. Stateful: repeated calls draw
// from the underlying PRNG stream, so callers that need reproducibility
// across a search must call it the same number of times along any replayed
// path.
func (n Random) Evaluate() Score {
	if n.limit <= 0 {
		return 0
	}
	return Score(n.rand.Intn(n.limit) - n.limit/2)
}

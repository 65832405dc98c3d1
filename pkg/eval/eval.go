// Package eval implements the static position evaluator: a pure,
// deterministic function from position to centipawn score plus a game-phase
// estimate, per spec §4.E. Grounded in the teacher's pkg/eval (Material,
// NominalValue, FindCapture, FindPins, Random), generalized from the
// teacher's float32-pawns Score to an int16 centipawn Score with the
// mate-distance encoding search needs, and from the teacher's
// material-only Evaluate to material+PST+pin-threats+style-noise.
package eval

import "github.com/kestrelchess/kestrel/pkg/board"

// Evaluator is a static position evaluator.
type Evaluator interface {
	// Evaluate returns the position score, from the side-to-move's
	// perspective, in centipawns.
	Evaluate(pos *board.Position) Score
	// Phase returns the position's game-phase estimate, in [0,256].
	Phase(pos *board.Position) int
}

// MaterialPST is the default evaluator: material balance plus
// piece-square-table positional terms, tapered by game phase, with a pin
// penalty and the style package's Aggression/Positional sliders (§4.E)
// weighting the positional and threat terms relative to raw material.
// Replaces the teacher's bare Material{} evaluator, which scored material
// alone.
type MaterialPST struct {
	// Aggression and Positional are style sliders in [-100,100] scaling
	// the threat and positional terms respectively; 0 reproduces the
	// teacher's unweighted blend.
	Aggression int
	Positional int

	noise Random
}

// NewMaterialPST constructs an evaluator with the given style weights and
// random-noise limit (0 disables noise).
func NewMaterialPST(aggression, positional, noiseLimit int, seed int64) *MaterialPST {
	return &MaterialPST{
		Aggression: aggression,
		Positional: positional,
		noise:      NewRandom(noiseLimit, seed),
	}
}

func (e *MaterialPST) Phase(pos *board.Position) int {
	return Phase(pos)
}

// Evaluate returns the side-to-move's score: material and PST terms summed
// over both colors (added for the side to move, subtracted for the
// opponent), a pin-threat term, and style-weighted noise, cropped into
// Score's representable range.
func (e *MaterialPST) Evaluate(pos *board.Position) Score {
	turn := pos.Turn()
	phase := Phase(pos)

	material := 0
	positional := 0
	for _, c := range [2]board.Color{board.White, board.Black} {
		sign := 1
		if c != turn {
			sign = -1
		}
		for p := board.Pawn; p <= board.King; p++ {
			bb := pos.Pieces(c, p)
			material += sign * bb.PopCount() * NominalValue(p)
			for _, sq := range bb.Squares() {
				positional += sign * PSTValue(c, p, sq, phase)
			}
		}
	}

	threats := e.pinPenalty(pos, turn)

	total := material
	total += scaleByStyle(positional, e.Positional)
	total += scaleByStyle(threats, e.Aggression)
	total += int(e.noise.Evaluate())

	return Crop(Score(total))
}

// scaleByStyle applies a style slider in [-100,100] to a term: 0 leaves the
// term unchanged, -100 zeroes it out, +100 doubles it.
func scaleByStyle(term, slider int) int {
	return term * (100 + slider) / 100
}

// pinPenalty scores the net effect of king pins on the board: a pin
// against the side to move is a detriment (negative), a pin against the
// opponent is an asset (positive), each worth a flat amount regardless of
// the pinned piece's value -- a simple proxy for the mobility the pin
// takes away, not a full SEE-grade threat evaluation.
func (e *MaterialPST) pinPenalty(pos *board.Position, turn board.Color) int {
	const perPin = 15
	score := 0
	for _, c := range [2]board.Color{board.White, board.Black} {
		sign := 1
		if c != turn {
			sign = -1
		}
		score -= sign * perPin * len(FindPins(pos, c, board.King))
	}
	return score
}

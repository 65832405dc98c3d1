package movegen

import "github.com/kestrelchess/kestrel/pkg/board"

// Perft walks the move tree to the given depth and counts leaf nodes,
// the standard way of validating a move generator and its apply/undo pair
// against known node counts. Grounded on the reference engine's perft.c.
func Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	var nodes uint64
	for _, m := range GenerateAll(pos) {
		u := pos.Apply(m)
		if !pos.IsChecked(oppositeOf(pos)) {
			nodes += Perft(pos, depth-1)
		}
		pos.Undo(m, u)
	}
	return nodes
}

// oppositeOf returns the color that just moved (pos.Turn() has already
// flipped to the other side by the time Apply returns).
func oppositeOf(pos *board.Position) board.Color {
	return pos.Turn().Opponent()
}

// Divide reports the perft node count contributed by each legal move at the
// root, keyed by coordinate notation -- useful for isolating a divergence
// against a reference implementation one move at a time.
func Divide(pos *board.Position, depth int) map[string]uint64 {
	out := make(map[string]uint64)
	for _, m := range GenerateAll(pos) {
		u := pos.Apply(m)
		if !pos.IsChecked(oppositeOf(pos)) {
			var nodes uint64
			if depth <= 1 {
				nodes = 1
			} else {
				nodes = Perft(pos, depth-1)
			}
			out[m.String()] = nodes
		}
		pos.Undo(m, u)
	}
	return out
}

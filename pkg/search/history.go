package search

import (
	"github.com/kestrelchess/kestrel/pkg/board"
	"github.com/kestrelchess/kestrel/pkg/eval"
)

// historyMax bounds every history-style table's magnitude; updates apply
// gravity toward it so a table never grows without bound across a long
// search, per §4.H's "history gravity" cutoff rule.
const historyMax = 16384

func clampHistory(v int32) int32 {
	switch {
	case v > historyMax:
		return historyMax
	case v < -historyMax:
		return -historyMax
	default:
		return v
	}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// quietHistory scores a quiet move by (color, from, to), independent of
// context -- the plain butterfly history table.
type quietHistory [board.NumColors][64][64]int32

func (h *quietHistory) get(c board.Color, m board.Move) int {
	return int(h[c][m.From()][m.To()])
}

// add applies §4.H's history-gravity update: new = old + delta - old*|delta|/HIST_MAX.
func (h *quietHistory) add(c board.Color, m board.Move, delta int) {
	v := &h[c][m.From()][m.To()]
	d := int32(delta)
	*v = clampHistory(*v + d - (*v)*abs32(d)/historyMax)
}

// pieceToKey packs a (piece, square) pair the way continuation-history
// tables index on both the previous and the current move, per §4.H's
// countermove-history/follow-up-history.
func pieceToKey(p board.Piece, sq board.Square) int {
	return int(p)*64 + int(sq)
}

const pieceToKeys = int(board.NumPieces) * 64

// continuationHistory scores a move by the (piece, to) of the move made one
// (or two) plies earlier against the (piece, to) of the candidate move --
// countermove-history and follow-up-history share this shape, differing
// only in which earlier ply feeds it.
type continuationHistory [pieceToKeys][pieceToKeys]int32

func (h *continuationHistory) get(prevPiece board.Piece, prevTo board.Square, piece board.Piece, to board.Square) int {
	return int(h[pieceToKey(prevPiece, prevTo)][pieceToKey(piece, to)])
}

func (h *continuationHistory) add(prevPiece board.Piece, prevTo board.Square, piece board.Piece, to board.Square, delta int) {
	v := &h[pieceToKey(prevPiece, prevTo)][pieceToKey(piece, to)]
	d := int32(delta)
	*v = clampHistory(*v + d - (*v)*abs32(d)/historyMax)
}

// captureHistory scores a capture by (attacker piece, to, victim piece),
// updated symmetrically to quietHistory on cutoffs per §4.H.
type captureHistory [board.NumPieces][64][board.NumPieces]int32

func (h *captureHistory) get(attacker board.Piece, to board.Square, victim board.Piece) int {
	return int(h[attacker][to][victim])
}

func (h *captureHistory) add(attacker board.Piece, to board.Square, victim board.Piece, delta int) {
	v := &h[attacker][to][victim]
	d := int32(delta)
	*v = clampHistory(*v + d - (*v)*abs32(d)/historyMax)
}

// counterMoveTable records, per (color, previous move's from/to), the
// quiet reply that most recently caused a beta cutoff there -- §4.H's
// counter-move table, consulted by the picker's killer/counter stage.
type counterMoveTable [board.NumColors][64][64]board.Move

func (c *counterMoveTable) get(side board.Color, prev board.Move) board.Move {
	if prev == board.NoMove {
		return board.NoMove
	}
	return c[side][prev.From()][prev.To()]
}

func (c *counterMoveTable) set(side board.Color, prev, reply board.Move) {
	if prev == board.NoMove {
		return
	}
	c[side][prev.From()][prev.To()] = reply
}

// killerTable holds two killer-move slots per ply, per §4.H's "cutoffs and
// learning": a beta cutoff promotes its move into slot 0, pushing the
// previous slot-0 move (if different) into slot 1.
type killerTable [eval.MaxPly][2]board.Move

func (k *killerTable) get(ply int) [2]board.Move {
	return k[ply]
}

func (k *killerTable) add(ply int, m board.Move) {
	if k[ply][0] == m {
		return
	}
	k[ply][1] = k[ply][0]
	k[ply][0] = m
}

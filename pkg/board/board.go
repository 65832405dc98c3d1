// Package board contains the chess board representation and utilities:
// bitboards, squares, pieces, the packed move encoding, zobrist hashing and
// the mutable position and its game-level wrapper.
package board

import "fmt"

const (
	repetition3Limit   = 3
	repetition5Limit   = 5
	noprogressPlyLimit = 100
)

type undoFrame struct {
	move Move
	undo UndoRecord
	hash ZobristHash
}

// Board wraps a mutable Position with the history needed to correctly
// determine game results: repetition counts, the 50-move rule and
// insufficient material. Not thread-safe; one Board per game/search root.
type Board struct {
	pos *Position

	turn      Color
	fullmoves int
	result    Result

	repetitions map[ZobristHash]int
	history     []undoFrame
}

// NewBoard wraps pos (already fully constructed, e.g. via fen.Decode) in a
// Board that tracks game history from this point forward.
func NewBoard(pos *Position) *Board {
	b := &Board{
		pos:         pos,
		turn:        pos.Turn(),
		fullmoves:   pos.FullMoveNumber(),
		repetitions: map[ZobristHash]int{pos.Hash(): 1},
	}
	return b
}

func (b *Board) Position() *Position {
	return b.pos
}

func (b *Board) Turn() Color {
	return b.turn
}

func (b *Board) NoProgress() int {
	return b.pos.HalfMoveClock()
}

func (b *Board) FullMoves() int {
	return b.fullmoves
}

func (b *Board) Result() Result {
	return b.result
}

// PushMove applies a pseudo-legal move and returns true iff it was legal
// (did not leave the mover's own king in check). Updates game-result
// tracking (repetition, 50-move, insufficient material).
func (b *Board) PushMove(m Move) bool {
	if b.result.Reason == Checkmate || b.result.Reason == Stalemate {
		return false
	}

	mover := b.pos.Turn()
	u := b.pos.Apply(m)
	if b.pos.IsChecked(mover) {
		b.pos.Undo(m, u)
		return false
	}

	b.history = append(b.history, undoFrame{move: m, undo: u, hash: b.pos.Hash()})
	b.turn = b.pos.Turn()
	b.fullmoves = b.pos.FullMoveNumber()
	b.repetitions[b.pos.Hash()]++

	b.result = Result{} // not terminal, a legal move was made

	if b.repetitions[b.pos.Hash()] >= repetition3Limit {
		actual := b.identicalPositionCount()
		switch {
		case actual >= repetition5Limit:
			b.result = Result{Outcome: Draw, Reason: Repetition5}
		case actual >= repetition3Limit:
			b.result = Result{Outcome: Draw, Reason: Repetition3}
		}
	}

	if b.pos.HalfMoveClock() >= noprogressPlyLimit {
		b.result = Result{Outcome: Draw, Reason: NoProgress}
	}

	if m.IsCapture() || (m.IsPromotion() && (m.Promotion() == Bishop || m.Promotion() == Knight)) {
		if b.pos.HasInsufficientMaterial() {
			b.result = Result{Outcome: Draw, Reason: InsufficientMaterial}
		}
	}

	return true
}

// PopMove undoes the last move pushed. Returns false if there is no move to
// undo.
func (b *Board) PopMove() (Move, bool) {
	if len(b.history) == 0 {
		return NoMove, false
	}

	last := b.history[len(b.history)-1]
	b.history = b.history[:len(b.history)-1]

	b.repetitions[b.pos.Hash()]--
	b.pos.Undo(last.move, last.undo)
	b.turn = b.pos.Turn()
	b.fullmoves = b.pos.FullMoveNumber()
	b.result = Result{}

	return last.move, true
}

// PushNullMove makes a null move (flips the side to move, clears
// en-passant) for search's null-move pruning, §4.H. Unlike PushMove, a null
// move is never checked for legality, never counted toward repetition, and
// never appears in LastMove/HasCastled -- it exists only to let the search
// ask "how good is this position if I simply pass", then be undone.
func (b *Board) PushNullMove() {
	u := b.pos.ApplyNull()
	b.history = append(b.history, undoFrame{move: NoMove, undo: u, hash: b.pos.Hash()})
	b.turn = b.pos.Turn()
	b.fullmoves = b.pos.FullMoveNumber()
	b.result = Result{}
}

// PopNullMove undoes the last null move pushed.
func (b *Board) PopNullMove() {
	last := b.history[len(b.history)-1]
	b.history = b.history[:len(b.history)-1]
	b.pos.UndoNull(last.undo)
	b.turn = b.pos.Turn()
	b.fullmoves = b.pos.FullMoveNumber()
	b.result = Result{}
}

// IsRepeated returns true iff the current position's hash occurred at least
// once earlier in this board's history -- the "upcoming repetition" signal
// search uses to steer away from a draw, distinct from the stricter
// game-adjudicating 3-fold/5-fold counts tracked by PushMove.
func (b *Board) IsRepeated() bool {
	return b.repetitions[b.pos.Hash()] >= 2
}

// AdjudicateNoLegalMoves adjudicates the position assuming no legal moves
// exist, as either checkmate or stalemate.
func (b *Board) AdjudicateNoLegalMoves() Result {
	result := Result{Outcome: Draw, Reason: Stalemate}
	if b.pos.IsChecked(b.turn) {
		result = Result{Outcome: Loss(b.turn), Reason: Checkmate}
	}
	b.Adjudicate(result)
	return result
}

// Adjudicate sets the result as given, e.g. from a tablebase probe.
func (b *Board) Adjudicate(result Result) {
	b.result = result
}

func (b *Board) identicalPositionCount() int {
	hash := b.pos.Hash()
	count := 1
	for i := len(b.history) - 1; i >= 0; i-- {
		if b.history[i].hash == hash {
			count++
		}
	}
	return count
}

// LastMove returns the last move pushed, if any.
func (b *Board) LastMove() (Move, bool) {
	if len(b.history) == 0 {
		return NoMove, false
	}
	m := b.history[len(b.history)-1].move
	return m, m != NoMove
}

// HasCastled returns true iff the color has castled earlier in this history.
func (b *Board) HasCastled(c Color) bool {
	turn := b.turn
	for i := len(b.history) - 1; i >= 0; i-- {
		turn = turn.Opponent()
		if turn == c && b.history[i].move != NoMove && b.history[i].move.IsCastle() {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of b, including its move/repetition
// history, so that further PushMove/PopMove calls on either board never
// affect the other. Used to hand each worker in the pool (§4.I) its own
// root position copy before a parallel search.
func (b *Board) Clone() *Board {
	repetitions := make(map[ZobristHash]int, len(b.repetitions))
	for k, v := range b.repetitions {
		repetitions[k] = v
	}
	history := make([]undoFrame, len(b.history))
	copy(history, b.history)

	return &Board{
		pos:         b.pos.Clone(),
		turn:        b.turn,
		fullmoves:   b.fullmoves,
		result:      b.result,
		repetitions: repetitions,
		history:     history,
	}
}

func (b *Board) String() string {
	return fmt.Sprintf("board{turn=%v, hash=%x (seen %v), noprogress=%v, fullmoves=%v, result=%v}",
		b.turn, b.pos.Hash(), b.repetitions[b.pos.Hash()], b.pos.HalfMoveClock(), b.fullmoves, b.result)
}

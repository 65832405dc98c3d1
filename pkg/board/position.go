package board

import "fmt"

// Placement is a single piece placement, used to build a Position from a
// parsed description (such as FEN).
type Placement struct {
	Square Square
	Color  Color
	Piece  Piece
}

// UndoRecord captures everything Apply mutates that Undo must restore: the
// previous castling mask, en-passant state, half-move clock and both
// hashes, plus the piece identities needed to put the board back exactly as
// it was. Created by Apply, consumed by Undo; the two must be strictly
// paired.
type UndoRecord struct {
	MovingPiece   Piece // the piece as it stood on From before the move (pre-promotion)
	CapturedPiece Piece // NoPiece if the move was not a capture

	PrevCastling      Castling
	PrevEnPassant     Square
	PrevHasEnPassant  bool
	PrevHalfMoveClock int
	PrevHash          ZobristHash
	PrevPawnHash      ZobristHash
}

// Position is the mutable board representation: piece bitmaps, occupancy,
// side to move, castling rights (with recorded rook origin squares),
// en-passant target, half-move clock, full-move number and both zobrist
// hashes. Mutated only by Apply/Undo, which must be strictly paired;
// occupancy is always kept as the union of the piece bitmaps.
type Position struct {
	zt *ZobristTable

	pieces         [NumColors][NumPieces]Bitboard
	colorOccupancy [NumColors]Bitboard
	occupancy      Bitboard

	squarePiece [NumSquares]Piece
	squareColor [NumSquares]Color

	turn     Color
	castling Castling
	// castleRook records, per castling right (indexed by CastlingRightIndex),
	// the square the rook started the game on. Fixed at construction time and
	// never mutated by Apply/Undo -- only the castling mask's bits change.
	castleRook [4]Square

	enpassant    Square
	hasEnPassant bool

	halfMoveClock  int
	fullMoveNumber int

	hash     ZobristHash
	pawnHash ZobristHash
}

// NewPosition builds a position from an explicit piece placement and
// metadata, as produced by a FEN decoder. castleRook holds the rook origin
// square for each right in CastlingRights order; entries for rights not set
// in castling are ignored.
func NewPosition(zt *ZobristTable, placements []Placement, turn Color, castling Castling, castleRook [4]Square, enpassant Square, hasEnPassant bool, halfMoveClock, fullMoveNumber int) (*Position, error) {
	p := &Position{
		zt:             zt,
		turn:           turn,
		castling:       castling,
		castleRook:     castleRook,
		enpassant:      enpassant,
		hasEnPassant:   hasEnPassant,
		halfMoveClock:  halfMoveClock,
		fullMoveNumber: fullMoveNumber,
	}

	seen := ZeroBitboard
	for _, pl := range placements {
		if !pl.Square.IsValid() || !pl.Piece.IsValid() || !pl.Color.IsValid() {
			return nil, fmt.Errorf("invalid placement: %+v", pl)
		}
		if seen.Has(pl.Square) {
			return nil, fmt.Errorf("duplicate piece on square %v", pl.Square)
		}
		seen = seen.Set(pl.Square)
		p.placePieceNoHash(pl.Color, pl.Piece, pl.Square)
	}
	for _, c := range []Color{White, Black} {
		if p.pieces[c][King].PopCount() != 1 {
			return nil, fmt.Errorf("position must have exactly one %v king", c)
		}
	}

	p.hash = zt.hash(p)
	p.pawnHash = zt.pawnHash(p)
	return p, nil
}

func (p *Position) placePieceNoHash(c Color, piece Piece, sq Square) {
	p.pieces[c][piece] = p.pieces[c][piece].Set(sq)
	p.colorOccupancy[c] = p.colorOccupancy[c].Set(sq)
	p.occupancy = p.occupancy.Set(sq)
	p.squarePiece[sq] = piece
	p.squareColor[sq] = c
}

func (p *Position) removePieceNoHash(c Color, piece Piece, sq Square) {
	p.pieces[c][piece] = p.pieces[c][piece].Clear(sq)
	p.colorOccupancy[c] = p.colorOccupancy[c].Clear(sq)
	p.occupancy = p.occupancy.Clear(sq)
	p.squarePiece[sq] = NoPiece
}

func (p *Position) placePiece(c Color, piece Piece, sq Square) {
	p.placePieceNoHash(c, piece, sq)
	p.hash ^= p.zt.PieceKey(c, piece, sq)
	if piece == Pawn {
		p.pawnHash ^= p.zt.PieceKey(c, piece, sq)
	}
}

func (p *Position) removePiece(c Color, piece Piece, sq Square) {
	p.hash ^= p.zt.PieceKey(c, piece, sq)
	if piece == Pawn {
		p.pawnHash ^= p.zt.PieceKey(c, piece, sq)
	}
	p.removePieceNoHash(c, piece, sq)
}

// PieceAt returns the piece on sq, if any.
func (p *Position) PieceAt(sq Square) (Color, Piece, bool) {
	piece := p.squarePiece[sq]
	if piece == NoPiece {
		return ZeroColor, NoPiece, false
	}
	return p.squareColor[sq], piece, true
}

func (p *Position) Turn() Color {
	return p.turn
}

func (p *Position) Castling() Castling {
	return p.castling
}

// CastleRookSquare returns the recorded rook origin square for a single
// castling right. Rights that were never held by this game report the zero
// square; callers should only consult this for a right reported allowed.
func (p *Position) CastleRookSquare(right Castling) Square {
	return p.castleRook[CastlingRightIndex(right)]
}

func (p *Position) EnPassant() (Square, bool) {
	return p.enpassant, p.hasEnPassant
}

func (p *Position) HalfMoveClock() int {
	return p.halfMoveClock
}

func (p *Position) FullMoveNumber() int {
	return p.fullMoveNumber
}

func (p *Position) Hash() ZobristHash {
	return p.hash
}

func (p *Position) PawnHash() ZobristHash {
	return p.pawnHash
}

func (p *Position) Occupancy() Bitboard {
	return p.occupancy
}

func (p *Position) ColorOccupancy(c Color) Bitboard {
	return p.colorOccupancy[c]
}

func (p *Position) Pieces(c Color, piece Piece) Bitboard {
	return p.pieces[c][piece]
}

// IsSquareAttacked returns true iff sq is attacked by any piece of color by.
func (p *Position) IsSquareAttacked(sq Square, by Color) bool {
	if PawnCaptureboard(by.Opponent(), BitMask(sq))&p.pieces[by][Pawn] != 0 {
		return true
	}
	if KnightAttackboard(sq)&p.pieces[by][Knight] != 0 {
		return true
	}
	if KingAttackboard(sq)&p.pieces[by][King] != 0 {
		return true
	}
	bishopsQueens := p.pieces[by][Bishop] | p.pieces[by][Queen]
	if BishopAttackboard(p.occupancy, sq)&bishopsQueens != 0 {
		return true
	}
	rooksQueens := p.pieces[by][Rook] | p.pieces[by][Queen]
	if RookAttackboard(p.occupancy, sq)&rooksQueens != 0 {
		return true
	}
	return false
}

// IsChecked returns whether c's king is attacked.
func (p *Position) IsChecked(c Color) bool {
	kings := p.pieces[c][King]
	if kings.Empty() {
		return false
	}
	return p.IsSquareAttacked(kings.Lsb(), c.Opponent())
}

// HasInsufficientMaterial reports whether neither side has mating material
// (K vs K, K+N vs K, K+B vs K, or K+B vs K+B with same-colored bishops).
func (p *Position) HasInsufficientMaterial() bool {
	for _, c := range []Color{White, Black} {
		if p.pieces[c][Pawn] != 0 || p.pieces[c][Rook] != 0 || p.pieces[c][Queen] != 0 {
			return false
		}
	}
	minor := func(c Color) int {
		return p.pieces[c][Knight].PopCount() + p.pieces[c][Bishop].PopCount()
	}
	wm, bm := minor(White), minor(Black)
	if wm == 0 && bm == 0 {
		return true
	}
	if wm+bm == 1 {
		return true // lone minor vs bare king
	}
	if wm == 1 && bm == 1 && p.pieces[White][Knight] == 0 && p.pieces[Black][Knight] == 0 {
		wsq := p.pieces[White][Bishop].Lsb()
		bsq := p.pieces[Black][Bishop].Lsb()
		return squareColorClass(wsq) == squareColorClass(bsq)
	}
	return false
}

func squareColorClass(s Square) int {
	return (int(s.File()) + int(s.Rank())) & 1
}

// castleKingAndRookDestinations returns the king and rook destination
// squares for a castle move, given the king origin and the recorded rook
// origin ("to" in the packed move encoding).
func castleKingAndRookDestinations(kingFrom, rookFrom Square) (kingTo, rookTo Square) {
	rank := kingFrom.Rank()
	if rookFrom.File() > kingFrom.File() {
		return NewSquare(FileG, rank), NewSquare(FileF, rank)
	}
	return NewSquare(FileC, rank), NewSquare(FileD, rank)
}

// enPassantCaptureSquare returns the square of the pawn captured en passant,
// given the capturing pawn's origin and destination.
func enPassantCaptureSquare(from, to Square) Square {
	return NewSquare(to.File(), from.Rank())
}

// Apply mutates the position by making m, which must be pseudo-legal for
// the side to move, and returns an UndoRecord that Undo consumes to restore
// the position exactly. Hash and pawn hash are updated incrementally.
func (p *Position) Apply(m Move) UndoRecord {
	turn := p.turn
	from, to := m.From(), m.To()
	_, movingPiece, _ := p.PieceAt(from)

	u := UndoRecord{
		MovingPiece:       movingPiece,
		CapturedPiece:     NoPiece,
		PrevCastling:      p.castling,
		PrevEnPassant:     p.enpassant,
		PrevHasEnPassant:  p.hasEnPassant,
		PrevHalfMoveClock: p.halfMoveClock,
		PrevHash:          p.hash,
		PrevPawnHash:      p.pawnHash,
	}

	if p.hasEnPassant {
		p.hash ^= p.zt.EnPassantFileKey(p.enpassant.File())
		p.hasEnPassant = false
	}

	p.removePiece(turn, movingPiece, from)

	if m.Flag() == Capture || m.Flag() == EnPassant {
		captureSquare := to
		if m.Flag() == EnPassant {
			captureSquare = enPassantCaptureSquare(from, to)
		}
		if _, capPiece, ok := p.PieceAt(captureSquare); ok {
			u.CapturedPiece = capPiece
			p.removePiece(turn.Opponent(), capPiece, captureSquare)
		}
	}

	revoke := p.castlingRevocation(from, to, movingPiece, m)

	if m.IsCastle() {
		rookFrom := to
		kingTo, rookTo := castleKingAndRookDestinations(from, rookFrom)
		p.removePiece(turn, Rook, rookFrom)
		p.placePiece(turn, King, kingTo)
		p.placePiece(turn, Rook, rookTo)
	} else {
		placedPiece := movingPiece
		if m.IsPromotion() {
			placedPiece = m.Promotion()
		}
		p.placePiece(turn, placedPiece, to)
	}

	if newCastling := p.castling &^ revoke; newCastling != p.castling {
		p.hash ^= p.zt.CastleKey(p.castling)
		p.castling = newCastling
		p.hash ^= p.zt.CastleKey(p.castling)
	}

	if movingPiece == Pawn || u.CapturedPiece != NoPiece {
		p.halfMoveClock = 0
	} else {
		p.halfMoveClock++
	}

	if movingPiece == Pawn {
		fromRank, toRank := int(from.Rank()), int(to.Rank())
		delta := toRank - fromRank
		if delta == 2 || delta == -2 {
			ep := NewSquare(from.File(), Rank((fromRank+toRank)/2))
			p.enpassant = ep
			p.hasEnPassant = true
			p.hash ^= p.zt.EnPassantFileKey(ep.File())
		}
	}

	p.hash ^= p.zt.TurnKey(p.turn)
	p.turn = p.turn.Opponent()
	p.hash ^= p.zt.TurnKey(p.turn)

	if p.turn == White {
		p.fullMoveNumber++
	}

	return u
}

// ApplyNull makes a null move: flips the side to move and clears any
// en-passant target, leaving every other piece of state unchanged. Used
// only by search's null-move pruning (§4.H) -- never pseudo-legal, never
// part of move generation.
func (p *Position) ApplyNull() UndoRecord {
	u := UndoRecord{
		PrevCastling:      p.castling,
		PrevEnPassant:     p.enpassant,
		PrevHasEnPassant:  p.hasEnPassant,
		PrevHalfMoveClock: p.halfMoveClock,
		PrevHash:          p.hash,
		PrevPawnHash:      p.pawnHash,
	}

	if p.hasEnPassant {
		p.hash ^= p.zt.EnPassantFileKey(p.enpassant.File())
		p.hasEnPassant = false
	}

	p.hash ^= p.zt.TurnKey(p.turn)
	p.turn = p.turn.Opponent()
	p.hash ^= p.zt.TurnKey(p.turn)

	if p.turn == White {
		p.fullMoveNumber++
	}
	return u
}

// UndoNull reverses ApplyNull.
func (p *Position) UndoNull(u UndoRecord) {
	p.turn = p.turn.Opponent()
	if p.turn == Black {
		p.fullMoveNumber--
	}
	p.hash = u.PrevHash
	p.pawnHash = u.PrevPawnHash
	p.enpassant = u.PrevEnPassant
	p.hasEnPassant = u.PrevHasEnPassant
	p.halfMoveClock = u.PrevHalfMoveClock
}

// castlingRevocation returns the subset of the current castling rights that
// m revokes: the mover's own rights when the king or a rook on its origin
// square moves, and the opponent's right when a rook is captured on its
// origin square.
func (p *Position) castlingRevocation(from, to Square, movingPiece Piece, m Move) Castling {
	var revoke Castling
	turn := p.turn

	if movingPiece == King {
		if turn == White {
			revoke |= WhiteKingSideCastle | WhiteQueenSideCastle
		} else {
			revoke |= BlackKingSideCastle | BlackQueenSideCastle
		}
	}
	for _, right := range CastlingRights {
		if !p.castling.IsAllowed(right) {
			continue
		}
		idx := CastlingRightIndex(right)
		if from == p.castleRook[idx] {
			revoke |= right
		}
		if m.Flag() == Capture && to == p.castleRook[idx] {
			revoke |= right
		}
	}
	return revoke
}

// Undo restores the position to exactly the state before Apply(m) produced
// u. m and u must be the matching pair from that Apply call.
func (p *Position) Undo(m Move, u UndoRecord) {
	p.turn = p.turn.Opponent()
	if p.turn == Black {
		p.fullMoveNumber--
	}
	turn := p.turn
	from, to := m.From(), m.To()

	if m.IsCastle() {
		rookFrom := to
		kingTo, rookTo := castleKingAndRookDestinations(from, rookFrom)
		p.removePieceNoHash(turn, Rook, rookTo)
		p.removePieceNoHash(turn, King, kingTo)
		p.placePieceNoHash(turn, Rook, rookFrom)
		p.placePieceNoHash(turn, King, from)
	} else {
		placedPiece := u.MovingPiece
		if m.IsPromotion() {
			placedPiece = m.Promotion()
		}
		p.removePieceNoHash(turn, placedPiece, to)
		p.placePieceNoHash(turn, u.MovingPiece, from)

		if u.CapturedPiece != NoPiece {
			captureSquare := to
			if m.Flag() == EnPassant {
				captureSquare = enPassantCaptureSquare(from, to)
			}
			p.placePieceNoHash(turn.Opponent(), u.CapturedPiece, captureSquare)
		}
	}

	p.castling = u.PrevCastling
	p.enpassant = u.PrevEnPassant
	p.hasEnPassant = u.PrevHasEnPassant
	p.halfMoveClock = u.PrevHalfMoveClock
	p.hash = u.PrevHash
	p.pawnHash = u.PrevPawnHash
}

// Clone returns an independent copy of p. Every field is either a fixed-size
// array or a value type, so a struct copy is a full deep copy; the zobrist
// table pointer is shared since it's read-only after construction. Used by
// the worker pool (§4.I) to give each worker its own root position.
func (p *Position) Clone() *Position {
	c := *p
	return &c
}

func (p *Position) String() string {
	var bb Bitboard
	for sq := ZeroSquare; sq < NumSquares; sq++ {
		if p.squarePiece[sq] != NoPiece {
			bb = bb.Set(sq)
		}
	}
	return fmt.Sprintf("position{turn=%v, castling=%v, ep=%v, halfmove=%v, fullmove=%v, hash=%x}\n%v",
		p.turn, p.castling, epString(p), p.halfMoveClock, p.fullMoveNumber, p.hash, bb)
}

func epString(p *Position) string {
	if sq, ok := p.EnPassant(); ok {
		return sq.String()
	}
	return "-"
}

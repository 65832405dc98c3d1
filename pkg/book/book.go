// Package book implements the in-memory opening book collaborator: a fixed
// set of named lines, indexed by position so the engine can play a known
// reply without searching. Polyglot-format book files are explicitly out of
// scope (spec "Polyglot book and Syzygy files ... Outside core scope"); this
// package only ever holds lines supplied directly as move lists, matching
// original_source's own book being a short hardcoded opening repertoire
// rather than a file format reader.
//
// Grounded in the teacher's pkg/engine/book.go, generalized to this module's
// mutate-in-place board.Board (PushMove/PopMove) instead of the teacher's
// apply-and-return-new-position Position.Move, and to movegen.GenerateLegal
// instead of the teacher's unimplemented Position.PseudoLegalMoves stub.
package book

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kestrelchess/kestrel/pkg/board"
	"github.com/kestrelchess/kestrel/pkg/board/fen"
	"github.com/kestrelchess/kestrel/pkg/eval"
	"github.com/kestrelchess/kestrel/pkg/movegen"
)

// Book is the opening book collaborator. Find returns the candidate replies
// -- potentially empty -- for a position given as a FEN string. Once Find
// returns an empty list for a game, the caller should not consult the book
// again for the rest of that game.
type Book interface {
	Find(ctx context.Context, position string) ([]board.Move, error)
}

// Line is one named opening sequence in long algebraic notation, e.g.
// {"e2e4", "d7d5", "d2d4"}.
type Line []string

func (l Line) String() string {
	return strings.Join(l, " ")
}

// None is the empty book: Find always returns no moves.
var None Book = &book{moves: map[string][]board.Move{}}

// New builds a Book from a set of opening lines, validating that every move
// in every line is legal from the position it's played in. A table built from
// board.DefaultZobristSeed is used throughout since the book only ever keys
// on FEN text, never on a Zobrist hash.
func New(lines []Line) (Book, error) {
	zt := board.NewZobristTable(board.DefaultZobristSeed)

	m := map[string]map[board.Move]bool{}
	for _, line := range lines {
		key := fen.Initial
		for _, str := range line {
			want, err := board.ParseMove(str)
			if err != nil {
				return nil, fmt.Errorf("invalid line %q: %w", line, err)
			}

			pos, err := fen.Decode(zt, key)
			if err != nil {
				return nil, fmt.Errorf("invalid line %q: %w", line, err)
			}

			found := false
			for _, candidate := range movegen.GenerateLegal(pos) {
				if !candidate.Equals(want) {
					continue
				}
				found = true

				b := board.NewBoard(pos)
				if !b.PushMove(candidate) {
					return nil, fmt.Errorf("invalid line %q: move %v not legal", line, want)
				}

				if m[fenKey(key)] == nil {
					m[fenKey(key)] = map[board.Move]bool{}
				}
				m[fenKey(key)][candidate] = true

				key = fen.Encode(b.Position())
				break
			}
			if !found {
				return nil, fmt.Errorf("invalid line %q: move %v not found", line, want)
			}
		}
	}

	dedup := make(map[string][]board.Move, len(m))
	for k, set := range m {
		list := make([]board.Move, 0, len(set))
		for move := range set {
			list = append(list, move)
		}
		sort.Slice(list, func(i, j int) bool {
			if wi, wj := moveWeight(list[i]), moveWeight(list[j]); wi != wj {
				return wi > wj
			}
			return list[i] < list[j]
		})
		dedup[k] = list
	}
	return &book{moves: dedup}, nil
}

type book struct {
	moves map[string][]board.Move // cropped FEN -> candidate replies
}

func (b *book) Find(_ context.Context, position string) ([]board.Move, error) {
	return b.moves[fenKey(position)], nil
}

// fenKey drops the halfmove clock and fullmove number, since a book line
// cares about placement/turn/castling/en-passant only.
func fenKey(position string) string {
	parts := strings.Split(position, " ")
	if len(parts) < 4 {
		return position
	}
	return strings.Join(parts[:4], " ")
}

// moveWeight orders book replies deterministically: promotions by promoted
// piece value first (there's no position context left at this point to rank
// captures by MVV-LVA), then by the move's packed encoding.
func moveWeight(m board.Move) int {
	w := 0
	if m.IsPromotion() {
		w += eval.NominalValue(m.Promotion()) * 100
	}
	return w
}

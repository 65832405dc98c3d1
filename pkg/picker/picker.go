// Package picker implements the staged move picker, §4.G: a generator
// that yields one legal move at a time, stage by stage (TT move, good
// captures, killers/counter, quiets, bad captures), so search can cut off
// after the first few stages without paying for movegen/sort work on
// stages it never reaches. Grounded in the teacher's
// pkg/search/movelist.go (the MVV-LVA heap-ordered move list) and
// selection.go (caller-supplied scoring/selection predicates threaded
// through search), generalized from a single flat priority queue into the
// full multi-stage sequence §4.G specifies, using pkg/see for the
// good/bad capture split this repo's teacher never had (its own move
// ordering is MVV-LVA only, no SEE).
package picker

import (
	"sort"

	"github.com/kestrelchess/kestrel/pkg/board"
	"github.com/kestrelchess/kestrel/pkg/eval"
	"github.com/kestrelchess/kestrel/pkg/movegen"
	"github.com/kestrelchess/kestrel/pkg/see"
)

// QuietScorer scores a quiet move for ordering; quiets are emitted highest
// score first. The search package's scorer is history + countermove-
// history/3 + follow-up-history/3; it adds no bonus for a move landing on
// the opponent's previous destination square. The picker has no opinion on how that's computed -- it owns staging and
// dedup, not history-table storage, which belongs to the search package
// that outlives any one picker.
type QuietScorer func(m board.Move) int

// NoQuietHistory is a QuietScorer that scores every quiet move equally,
// falling back to generation order; used by tests and any caller that
// hasn't wired up history tables yet.
func NoQuietHistory(board.Move) int { return 0 }

type stage int

const (
	stageTT stage = iota
	stageGenCaptures
	stageGoodCaptures
	stageKillers
	stageGenQuiets
	stageQuiets
	stageBadCaptures
	stageDone
)

type scoredMove struct {
	move  board.Move
	score int
}

// Picker yields moves for pos in §4.G's staged order via repeated Next
// calls.
type Picker struct {
	pos *board.Position

	ttMove  board.Move
	killers [2]board.Move
	counter board.Move

	quiescence bool
	quietScore QuietScorer

	stage stage

	goodCaptures []scoredMove
	badCaptures  []scoredMove
	quiets       []scoredMove

	goodIdx   int
	killerIdx int
	quietIdx  int
	badIdx    int

	emitted map[board.Move]bool
}

// New returns a full-search picker: all eight stages.
func New(pos *board.Position, ttMove board.Move, killers [2]board.Move, counter board.Move, quietScore QuietScorer) *Picker {
	if quietScore == nil {
		quietScore = NoQuietHistory
	}
	return &Picker{
		pos:        pos,
		ttMove:     ttMove,
		killers:    killers,
		counter:    counter,
		quietScore: quietScore,
		emitted:    make(map[board.Move]bool, 8),
	}
}

// NewQuiescence returns a picker that emits only the TT move and good
// captures, then stops -- the quiescence variant §4.G describes.
func NewQuiescence(pos *board.Position, ttMove board.Move) *Picker {
	return &Picker{
		pos:        pos,
		ttMove:     ttMove,
		quiescence: true,
		quietScore: NoQuietHistory,
		emitted:    make(map[board.Move]bool, 4),
	}
}

// Next returns the next move in stage order, and false once exhausted.
// Every returned move is legal in pos and is returned at most once.
func (p *Picker) Next() (board.Move, bool) {
	for {
		switch p.stage {
		case stageTT:
			p.stage = stageGenCaptures
			if p.ttMove != board.NoMove && !p.emitted[p.ttMove] && movegen.IsLegal(p.pos, p.ttMove) {
				p.emitted[p.ttMove] = true
				return p.ttMove, true
			}

		case stageGenCaptures:
			p.generateCaptures()
			p.stage = stageGoodCaptures

		case stageGoodCaptures:
			if p.goodIdx < len(p.goodCaptures) {
				m := p.goodCaptures[p.goodIdx].move
				p.goodIdx++
				if p.emitted[m] {
					continue
				}
				p.emitted[m] = true
				return m, true
			}
			if p.quiescence {
				p.stage = stageDone
			} else {
				p.stage = stageKillers
			}

		case stageKillers:
			if m, ok := p.nextKiller(); ok {
				return m, true
			}
			p.stage = stageGenQuiets

		case stageGenQuiets:
			p.generateQuiets()
			p.stage = stageQuiets

		case stageQuiets:
			if p.quietIdx < len(p.quiets) {
				m := p.quiets[p.quietIdx].move
				p.quietIdx++
				if p.emitted[m] {
					continue
				}
				p.emitted[m] = true
				return m, true
			}
			p.stage = stageBadCaptures

		case stageBadCaptures:
			if p.badIdx < len(p.badCaptures) {
				m := p.badCaptures[p.badIdx].move
				p.badIdx++
				if p.emitted[m] {
					continue
				}
				p.emitted[m] = true
				return m, true
			}
			p.stage = stageDone

		case stageDone:
			return board.NoMove, false
		}
	}
}

// nextKiller advances through killer1, killer2, counter-move, each
// emitted at most once, skipping illegal or already-emitted candidates.
func (p *Picker) nextKiller() (board.Move, bool) {
	candidates := [3]board.Move{p.killers[0], p.killers[1], p.counter}
	for p.killerIdx < len(candidates) {
		m := candidates[p.killerIdx]
		p.killerIdx++
		if m == board.NoMove || p.emitted[m] {
			continue
		}
		if !movegen.IsLegal(p.pos, m) {
			continue
		}
		p.emitted[m] = true
		return m, true
	}
	return board.NoMove, false
}

// generateCaptures enumerates all captures and splits them into good
// (see(m) >= 0) and bad, each scored and sorted descending, per §4.G
// stages 2/3/7. Good captures score victim*10 - attacker + see; bad
// captures sort by raw SEE alone ("least negative first" is the same
// descending order, since closer-to-zero is numerically larger).
func (p *Picker) generateCaptures() {
	for _, m := range movegen.GenerateCaptures(p.pos) {
		if !movegen.IsLegal(p.pos, m) {
			continue
		}
		s := see.Evaluate(p.pos, m)
		if s >= 0 {
			p.goodCaptures = append(p.goodCaptures, scoredMove{m, captureScore(p.pos, m, s)})
		} else {
			p.badCaptures = append(p.badCaptures, scoredMove{m, s})
		}
	}
	sort.SliceStable(p.goodCaptures, func(i, j int) bool {
		return p.goodCaptures[i].score > p.goodCaptures[j].score
	})
	sort.SliceStable(p.badCaptures, func(i, j int) bool {
		return p.badCaptures[i].score > p.badCaptures[j].score
	})
}

func captureScore(pos *board.Position, m board.Move, s int) int {
	_, attacker, _ := pos.PieceAt(m.From())
	victim := board.Pawn
	if !m.IsEnPassant() {
		if _, v, ok := pos.PieceAt(m.To()); ok {
			victim = v
		}
	}
	return eval.NominalValue(victim)*10 - eval.NominalValue(attacker) + s
}

// generateQuiets enumerates all legal non-captures not already emitted
// (TT move, killers, counter-move), scores them via quietScore, and sorts
// descending, per §4.G stage 5.
func (p *Picker) generateQuiets() {
	for _, m := range movegen.GenerateLegal(p.pos) {
		if m.IsCapture() || p.emitted[m] {
			continue
		}
		p.quiets = append(p.quiets, scoredMove{m, p.quietScore(m)})
	}
	sort.SliceStable(p.quiets, func(i, j int) bool {
		return p.quiets[i].score > p.quiets[j].score
	})
}

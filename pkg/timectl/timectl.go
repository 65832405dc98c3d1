// Package timectl implements the time manager, §4.K: given a clock budget
// and the position/score the last completed iteration saw, it computes how
// long the next search should run.
//
// Grounded in the teacher's pkg/search/searchctl/timectrl.go (TimeControl,
// the soft/hard-limit split Options.TimeControl feeds into
// EnforceTimeControl) for the overall "one type holding clock state, one
// function turning it into limits" shape, generalized per §4.K's richer
// formula (phase- and score-scaling, emergency/sudden-death modes); and in
// hailam-chessplay's internal/engine/timeman.go (other_examples/) for the
// UCI-limits-in/allocation-out API split (TimeManager.Init/OptimumTime/
// MaximumTime/ShouldStop) this package's Limits/Allocation/Compute mirror.
package timectl

import (
	"time"

	"github.com/kestrelchess/kestrel/pkg/eval"
)

// Phase buckets a position for the §4.K movestogo-estimate and
// phase-scaling tables, derived from eval.Evaluator.Phase's [0,256] scale
// (256 = opening, 0 = bare endgame).
type Phase int

const (
	Opening Phase = iota
	Middlegame
	Endgame
)

// PhaseFromScore buckets a raw [0,256] phase estimate (eval.Evaluator.Phase)
// into the three bands §4.K's movestogo estimate and scaling tables key on.
func PhaseFromScore(p int) Phase {
	switch {
	case p >= 171: // >= 2/3 of full material
		return Opening
	case p >= 85: // >= 1/3 of full material
		return Middlegame
	default:
		return Endgame
	}
}

// movestogoEstimate and phaseScale are the per-phase constants §4.K names.
var movestogoEstimate = map[Phase]int{Opening: 35, Middlegame: 25, Endgame: 15}
var phaseScale = map[Phase]int{Opening: 80, Middlegame: 100, Endgame: 120} // x100

// Limits is the clock state for one side to move, as UCI's go command
// reports it.
type Limits struct {
	Remaining time.Duration
	Increment time.Duration
	MovesToGo int // 0 means unknown (sudden death unless Increment > 0 too)

	MoveTime time.Duration // fixed time per move; overrides everything if > 0
	Infinite bool          // search until told to stop; overrides everything
}

// Allocation is the time budget for one search, per §4.K.
type Allocation struct {
	Allocated time.Duration // the budget the search aims to use
	Optimal   time.Duration // equal to Allocated
	Max       time.Duration // hard ceiling; the search must not run past this
	Panic     time.Duration // soft deadline (80% of Max): don't start a new deep iteration past this
}

const (
	minAllocation     = 50 * time.Millisecond
	emergencyAbsolute = 30 * time.Second
	emergencyFactor   = 30 // remaining < emergencyFactor * increment
	suddenDeathDiv    = 40
)

// Compute returns the time budget for the next search, per §4.K. phase is
// the position's [0,256] phase estimate (eval.Evaluator.Phase(pos)) and
// lastScore is the previous iteration's score from the side-to-move's own
// perspective (zero if this is the first move of the game/search).
func Compute(limits Limits, phase int, lastScore eval.Score) Allocation {
	if limits.MoveTime > 0 {
		return Allocation{Allocated: limits.MoveTime, Optimal: limits.MoveTime, Max: limits.MoveTime, Panic: limits.MoveTime}
	}
	if limits.Infinite {
		const unbounded = time.Hour
		return Allocation{Allocated: unbounded, Optimal: unbounded, Max: unbounded, Panic: unbounded}
	}

	remaining := limits.Remaining
	inc := limits.Increment

	var optimal time.Duration
	switch {
	case limits.MovesToGo == 0 && inc == 0:
		// Sudden death: no increment, no known horizon.
		optimal = remaining / suddenDeathDiv

	default:
		estimate := movestogoEstimate[PhaseFromScore(phase)]
		if limits.MovesToGo > 0 {
			estimate = limits.MovesToGo
		}
		base := remaining/time.Duration(estimate+3) + inc*3/4
		optimal = base * time.Duration(phaseScale[PhaseFromScore(phase)]) / 100
		optimal = scaleByScore(optimal, lastScore)
	}

	// Emergency mode: clock nearly exhausted relative to the increment (or
	// in absolute terms) caps whatever the formula above produced.
	if remaining < emergencyAbsolute || (inc > 0 && remaining < emergencyFactor*inc) {
		if e := remaining/10 + inc/2; e < optimal {
			optimal = e
		}
	}

	if half := remaining / 2; optimal > half {
		optimal = half
	}
	if optimal < minAllocation {
		optimal = minAllocation
	}

	max := optimal * 3
	if ceiling := remaining - minAllocation; max > ceiling {
		max = ceiling
	}
	if max < optimal {
		max = optimal
	}
	if max < minAllocation {
		max = minAllocation
	}

	return Allocation{
		Allocated: optimal,
		Optimal:   optimal,
		Max:       max,
		Panic:     max * 80 / 100,
	}
}

// scaleByScore applies §4.K's score scaling: a position we're clearly
// winning needs less time (any reasonable move holds the advantage), a
// position we're clearly losing needs more (only a few moves might save
// it). The effect is mild between 100 and 300 centipawns and pronounced
// beyond that; inside [-100, 100] the budget is left alone.
func scaleByScore(base time.Duration, score eval.Score) time.Duration {
	abs := score
	if abs < 0 {
		abs = -abs
	}

	var numer, denom int64
	switch {
	case abs > 300:
		numer, denom = 85, 100
	case abs > 100:
		numer, denom = 93, 100
	default:
		return base
	}
	if score < 0 {
		// Losing: invert the ratio to spend more, not less.
		numer, denom = denom*2-numer, denom
	}
	return base * time.Duration(numer) / time.Duration(denom)
}

// Deadline converts an Allocation into a wall-clock deadline for
// search.Thread.SetDeadline, anchored at start.
func (a Allocation) Deadline(start time.Time) time.Time {
	return start.Add(a.Max)
}

// SoftDeadline is when the search should stop starting new, deeper
// iterations even though it could still run until Deadline.
func (a Allocation) SoftDeadline(start time.Time) time.Time {
	return start.Add(a.Panic)
}

// Package style holds the five personality sliders §6's Options list
// (Aggression, Positional, RiskTaking, DrawAcceptance, TimePressure),
// mapped onto the search/eval/time-management knobs that already exist
// rather than new search machinery: Aggression/Positional feed
// eval.NewMaterialPST directly, DrawAcceptance becomes search.Options'
// Contempt, RiskTaking widens the root aspiration window
// (search.Options.AspirationWidth), and TimePressure scales the time
// manager's allocation (pkg/timectl). Not grounded in the teacher, which
// has no style concept at all; named and ranged per SPEC_FULL.md's
// supplemented-features section.
package style

// Sliders are five independent [-100,100] knobs, all defaulting to 0 (no
// bias, reproducing the teacher's unweighted behavior).
type Sliders struct {
	Aggression     int
	Positional     int
	RiskTaking     int
	DrawAcceptance int
	TimePressure   int
}

// Clamp bounds every slider to [-100,100].
func (s Sliders) Clamp() Sliders {
	return Sliders{
		Aggression:     clamp(s.Aggression),
		Positional:     clamp(s.Positional),
		RiskTaking:     clamp(s.RiskTaking),
		DrawAcceptance: clamp(s.DrawAcceptance),
		TimePressure:   clamp(s.TimePressure),
	}
}

func clamp(v int) int {
	switch {
	case v < -100:
		return -100
	case v > 100:
		return 100
	default:
		return v
	}
}

// AspirationWidth maps RiskTaking onto search.Options.AspirationWidth: 0
// reproduces the search package's own default (aspirationBaseWindow, 25cp);
// +100 doubles it to accept looser cutoffs before a re-search, -100 halves
// it for a tighter, more re-search-prone window.
func (s Sliders) AspirationWidth() int {
	const base = 25
	if s.RiskTaking < 0 {
		return base * (200 + s.RiskTaking) / 200
	}
	return base * (100 + s.RiskTaking) / 100
}

// TimeScale maps TimePressure onto a percentage multiplier for the time
// manager's allocation: 0 leaves it alone, +100 spends half as long per
// move (plays faster under pressure), -100 spends twice as long.
func (s Sliders) TimeScale() (numer, denom int) {
	switch {
	case s.TimePressure >= 0:
		return 100, 100 + s.TimePressure
	default:
		return 100 - s.TimePressure, 100
	}
}

package domain

import "time"

// Phase is one of the six ordered stages of a table's 55-minute structure.
// The stored Session.CurrentPhase is only a cache of the last value observed
// by the sweep; PhaseAt is the canonical source of truth.
type Phase string

const (
	PhaseSetup  Phase = "setup"
	PhaseWork1  Phase = "work_1"
	PhaseBreak  Phase = "break"
	PhaseWork2  Phase = "work_2"
	PhaseSocial Phase = "social"
	PhaseEnded  Phase = "ended"
)

// SessionDuration is the total wall-clock length of one table.
const SessionDuration = 55 * time.Minute

// phaseBoundaries holds the cumulative minute offsets at which each phase
// ends: SETUP(3) WORK_1(25) BREAK(2) WORK_2(20) SOCIAL(5).
var phaseBoundaries = []struct {
	endMinute int
	phase     Phase
}{
	{3, PhaseSetup},
	{28, PhaseWork1},
	{30, PhaseBreak},
	{50, PhaseWork2},
	{55, PhaseSocial},
}

// phaseOrder maps each phase to its position for monotonicity checks.
var phaseOrder = map[Phase]int{
	PhaseSetup:  0,
	PhaseWork1:  1,
	PhaseBreak:  2,
	PhaseWork2:  3,
	PhaseSocial: 4,
	PhaseEnded:  5,
}

// PhaseAt maps a session start time and a wall-clock instant to the phase
// the session is in at that instant. Before start the session sits in SETUP
// so early joiners can trickle in. Pure function, no storage access.
func PhaseAt(startTime, now time.Time) Phase {
	if now.Before(startTime) {
		return PhaseSetup
	}
	elapsed := now.Sub(startTime)
	for _, b := range phaseBoundaries {
		if elapsed < time.Duration(b.endMinute)*time.Minute {
			return b.phase
		}
	}
	return PhaseEnded
}

// Order returns the position of p in the phase sequence. Unknown values
// sort after ENDED so they are never treated as a regression.
func (p Phase) Order() int {
	if o, ok := phaseOrder[p]; ok {
		return o
	}
	return len(phaseOrder)
}

// Terminal reports whether p is the absorbing ENDED state.
func (p Phase) Terminal() bool {
	return p == PhaseEnded
}

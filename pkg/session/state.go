// Package session owns the state that survives between frames: the last
// reported emotion and when it was reported. It decides, once per frame,
// whether the pipeline's outcome earns a spoken reaction.
//
// The debounce is a single global slot. People are not tracked across
// frames, so any person's eligible emotion can take the slot.
package session

import "time"

// Phase is the externally visible state of the debounce.
type Phase int

const (
	// Idle means no emotion is remembered as last reported.
	Idle Phase = iota
	// Suppressed means an emotion was reported within the cooldown window.
	Suppressed
	// Cooled means the last reported emotion is still remembered but the
	// cooldown has passed. Only a different emotion can be reported.
	Cooled
)

// String returns the lowercase phase name.
func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Suppressed:
		return "suppressed"
	case Cooled:
		return "cooled"
	default:
		return "unknown"
	}
}

// State is the cross-frame debounce memory. The zero value is Idle with the
// report time far in the past.
type State struct {
	// LastEmotion is the last reported label, or "" for none.
	LastEmotion string

	// LastReport is when LastEmotion was reported. Never decreases.
	LastReport time.Time

	// Rearmed lets the next report skip the cooldown. Set by a presence
	// reset under ResetLabelAndTimer; cleared by the next report.
	Rearmed bool
}

// Phase looks at the label slot only: Idle when no emotion is remembered,
// Suppressed otherwise. Use PhaseAt when the cooldown matters.
func (s State) Phase() Phase {
	if s.LastEmotion == "" {
		return Idle
	}
	return Suppressed
}

// PhaseAt is Phase with the cooldown applied at now.
func (s State) PhaseAt(now time.Time, cooldown time.Duration) Phase {
	switch {
	case s.LastEmotion == "":
		return Idle
	case s.CooledDown(now, cooldown):
		return Cooled
	default:
		return Suppressed
	}
}

// CooledDown reports whether the cooldown gate is open at now.
func (s State) CooledDown(now time.Time, cooldown time.Duration) bool {
	if s.Rearmed {
		return !now.Before(s.LastReport)
	}
	return now.Sub(s.LastReport) > cooldown
}

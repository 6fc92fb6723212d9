package session

import (
	"time"

	"github.com/teslashibe/go-emotive/pkg/pipeline"
)

// Report is the reaction a frame earned.
type Report struct {
	// Index is the position of the winning result in the outcome.
	Index int

	Label string
	Score float64
	Time  time.Time

	// Phrase is filled in once the reactor has spoken.
	Phrase string
}

// Decision is the result of one transition.
type Decision struct {
	// State is the state after this frame.
	State State

	// Report is nil unless this frame dispatches a reaction.
	Report *Report

	// Reset is true when presence loss cleared a remembered emotion.
	Reset bool

	// Passed counts later eligible results that lost to Report.
	Passed int

	// Quit is set by Machine.Tick when the display asked to stop.
	Quit bool
}

// Decide applies one frame's outcome to state. It is pure: the caller
// commits Decision.State and performs the reaction.
func Decide(state State, cfg Config, out pipeline.Outcome, now time.Time) Decision {
	if !out.PersonDetected {
		next := state
		next.LastEmotion = ""
		if cfg.ResetPolicy == ResetLabelAndTimer {
			next.Rearmed = true
		}
		return Decision{State: next, Reset: state.LastEmotion != ""}
	}

	d := Decision{State: state}
	if !state.CooledDown(now, cfg.Cooldown) {
		return d
	}

	for i, r := range out.Results {
		if !r.OK() || r.Emotion.Score < cfg.EmotionThreshold || r.Emotion.Dominant == state.LastEmotion {
			continue
		}
		if d.Report != nil {
			d.Passed++
			continue
		}
		d.Report = &Report{
			Index: i,
			Label: r.Emotion.Dominant,
			Score: r.Emotion.Score,
			Time:  now,
		}
		d.State = State{LastEmotion: r.Emotion.Dominant, LastReport: now}
	}
	return d
}

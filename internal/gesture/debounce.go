package gesture

import (
	"strings"

	"github.com/ayusman/posesurf/internal/detector"
)

// State is the debounce latch record for one play session.
//
// A latch marks a gesture that already fired and has not been released.
// Armed is true exactly when no latch is set: a new action may fire only
// from the armed state, and only a neutral pose re-arms.
type State struct {
	LeftLatched  bool `json:"left_latched"`
	RightLatched bool `json:"right_latched"`
	BothLatched  bool `json:"both_latched"`
	HeadLatched  bool `json:"head_latched"`
	Armed        bool `json:"armed"`
}

// NewState returns the initial armed state.
func NewState() State {
	return State{Armed: true}
}

// Valid reports whether the armed flag agrees with the latches.
func (s State) Valid() bool {
	latched := s.LeftLatched || s.RightLatched || s.BothLatched || s.HeadLatched
	return s.Armed != latched
}

// String describes s, e.g. "armed" or "disarmed (left latched)".
func (s State) String() string {
	if s.Armed {
		return "armed"
	}

	var latched []string
	if s.BothLatched {
		latched = append(latched, Jump.String())
	}
	if s.HeadLatched {
		latched = append(latched, Slide.String())
	}
	if s.LeftLatched {
		latched = append(latched, Left.String())
	}
	if s.RightLatched {
		latched = append(latched, Right.String())
	}
	if len(latched) == 0 {
		return "disarmed"
	}
	return "disarmed (" + strings.Join(latched, ", ") + " latched)"
}

// Step applies one frame's predicates to s and returns the next state and the
// action to dispatch, if any. Rules are checked in priority order and at most
// one action fires per frame:
//
//  1. a neutral pose clears every latch and re-arms, firing nothing
//  2. a disarmed state fires nothing
//  3. otherwise the first of jump, slide, left, right whose gesture is
//     present and whose latch is clear fires, latches and disarms
func Step(s State, p Predicates) (State, Action, bool) {
	if p.Neutral {
		return NewState(), 0, false
	}

	if !s.Armed {
		return s, 0, false
	}

	switch {
	case p.LeftRaised && p.RightRaised && !s.BothLatched:
		s.BothLatched = true
		s.Armed = false
		return s, Jump, true

	case p.HeadLowered && !s.HeadLatched:
		s.HeadLatched = true
		s.Armed = false
		return s, Slide, true

	case p.LeftRaised && !p.RightRaised && !s.LeftLatched:
		s.LeftLatched = true
		s.Armed = false
		return s, Left, true

	case p.RightRaised && !p.LeftRaised && !s.RightLatched:
		s.RightLatched = true
		s.Armed = false
		return s, Right, true
	}

	return s, 0, false
}

// Debouncer owns a State across frames for callers that process one pose at
// a time. It is not safe for concurrent use.
type Debouncer struct {
	state State
}

// NewDebouncer returns a Debouncer in the armed state.
func NewDebouncer() *Debouncer {
	return &Debouncer{state: NewState()}
}

// Observe feeds one frame's pose through Classify and Step.
// A nil pose (no detection) leaves the state untouched.
func (d *Debouncer) Observe(pose *detector.PoseLandmarks) (Action, bool) {
	if pose == nil {
		return 0, false
	}

	return d.Update(Classify(pose))
}

// Update applies already classified predicates through Step.
func (d *Debouncer) Update(p Predicates) (Action, bool) {
	next, action, fired := Step(d.state, p)
	d.state = next
	return action, fired
}

// State returns a copy of the current state.
func (d *Debouncer) State() State {
	return d.state
}

// Reset returns the debouncer to the armed state.
func (d *Debouncer) Reset() {
	d.state = NewState()
}

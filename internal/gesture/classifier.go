// Package gesture turns body poses into discrete game actions.
//
// Classify reduces a pose to boolean predicates and Step runs the debounce
// state machine over them. Both are pure: the caller owns the State value
// and performs any side effects with the returned Action.
package gesture

import "github.com/ayusman/posesurf/internal/detector"

// HeadLineY is the vertical frame midline. A nose below it counts as ducking.
const HeadLineY = 0.5

// Predicates are the per-frame gesture signals derived from one pose.
type Predicates struct {
	LeftRaised  bool `json:"left_raised"`
	RightRaised bool `json:"right_raised"`
	HeadLowered bool `json:"head_lowered"`
	Neutral     bool `json:"neutral"`
}

// Classify computes the gesture predicates for a detected pose.
// Smaller Y is higher in the frame, so a wrist above its shoulder is a raise.
// A nil pose yields zero Predicates; callers should skip Step in that case.
func Classify(pose *detector.PoseLandmarks) Predicates {
	if pose == nil {
		return Predicates{}
	}

	p := &pose.Points
	left := p[detector.LeftWrist].Y < p[detector.LeftShoulder].Y
	right := p[detector.RightWrist].Y < p[detector.RightShoulder].Y
	noseY := p[detector.Nose].Y

	return Predicates{
		LeftRaised:  left,
		RightRaised: right,
		HeadLowered: noseY > HeadLineY,
		Neutral:     !left && !right && noseY <= HeadLineY,
	}
}

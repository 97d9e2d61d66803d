package app

import (
	"github.com/ayusman/posesurf/internal/detector"
	"github.com/ayusman/posesurf/internal/gesture"
)

// ReplayEvent is an action that fired while replaying a pose script.
type ReplayEvent struct {
	Frame  int            `json:"frame"`
	Action gesture.Action `json:"action"`
}

// Replay runs a recorded pose sequence through the debounce state machine
// from the armed state and returns the actions that would fire. Frames are
// numbered from 1; a nil pose is a frame without a detection.
func Replay(poses []*detector.PoseLandmarks) ([]ReplayEvent, gesture.State) {
	var events []ReplayEvent
	d := gesture.NewDebouncer()

	for i, pose := range poses {
		if action, fired := d.Observe(pose); fired {
			events = append(events, ReplayEvent{Frame: i + 1, Action: action})
		}
	}

	return events, d.State()
}

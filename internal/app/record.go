package app

import (
	"bufio"
	"fmt"
	"io"
	"log"

	"github.com/ayusman/posesurf/internal/detector"
)

// PoseRecorder is an Observer that writes one pose script line per frame, in
// the format read by detector.ReadScript. Frames that did not step the state
// machine (paused, gated or without a detection) are written as no pose, so
// replaying the script fires what the live session fired.
//
// It is not safe for concurrent use; sessions call observers from Run only.
type PoseRecorder struct {
	w      *bufio.Writer
	frames int
	err    error
}

// NewPoseRecorder creates a recorder writing to w. Call Flush when the session
// has ended.
func NewPoseRecorder(w io.Writer) *PoseRecorder {
	return &PoseRecorder{w: bufio.NewWriter(w)}
}

// Observe implements Observer.
func (r *PoseRecorder) Observe(snap Snapshot) {
	if r.err != nil {
		return
	}

	var pose *detector.PoseLandmarks
	if snap.Detected && !snap.Gated && !snap.Paused {
		pose = snap.Pose
	}

	line, err := detector.EncodePose(pose)
	if err == nil {
		line = append(line, '\n')
		_, err = r.w.Write(line)
	}
	if err != nil {
		r.err = fmt.Errorf("record frame %d: %w", snap.Frame, err)
		log.Printf("Pose recording stopped: %v", r.err)
		return
	}
	r.frames++
}

// Frames returns the number of frames written.
func (r *PoseRecorder) Frames() int {
	return r.frames
}

// Flush writes buffered lines and returns the first error met while recording.
func (r *PoseRecorder) Flush() error {
	if r.err != nil {
		return r.err
	}
	return r.w.Flush()
}

// Package app runs a play session: it owns the camera, pose detector and
// dispatcher, turns each frame into at most one game action, and publishes
// what it saw to the presentation layer.
package app

import (
	"errors"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/posesurf/internal/capture"
	"github.com/ayusman/posesurf/internal/detector"
	"github.com/ayusman/posesurf/internal/dispatch"
	"github.com/ayusman/posesurf/internal/gesture"
	"github.com/ayusman/posesurf/internal/store"
)

var (
	// ErrStopped is returned by Run when a renderer asked to quit.
	ErrStopped = errors.New("session stopped by user")
	// ErrLandmarkSource wraps camera and pose detector failures.
	ErrLandmarkSource = errors.New("landmark source failed")
	// ErrDispatch wraps dispatcher failures.
	ErrDispatch = errors.New("dispatch failed")
)

// DefaultWarmup is how long the session waits after opening the target
// before it starts reading gestures.
const DefaultWarmup = 10 * time.Second

// Snapshot is the presentation view of one processed frame.
type Snapshot struct {
	Frame      int                     `json:"frame"`
	Time       time.Time               `json:"time"`
	Detected   bool                    `json:"detected"`
	Paused     bool                    `json:"paused"`
	Gated      bool                    `json:"gated"`
	Pose       *detector.PoseLandmarks `json:"-"`
	Predicates gesture.Predicates      `json:"predicates"`
	State      gesture.State           `json:"state"`
	Action     gesture.Action          `json:"action,omitempty"`
	Fired      bool                    `json:"fired"`
	LastAction gesture.Action          `json:"last_action,omitempty"`
}

// Renderer draws a frame and its snapshot. Returning true asks the session
// to stop. Renderers must not keep frame past the call.
type Renderer interface {
	Render(frame *gocv.Mat, snap Snapshot) (quit bool)
	Close() error
}

// Observer receives a copy of every snapshot.
type Observer interface {
	Observe(snap Snapshot)
}

// Config holds the collaborators and options of a session.
// The session takes ownership of Camera, Detector, Dispatcher and Renderers
// and closes them when Run returns.
type Config struct {
	Camera     capture.Camera
	Detector   detector.Detector
	Dispatcher dispatch.Dispatcher

	// Store records the session and its fired actions. Optional.
	Store *store.Store
	// Target and DispatcherKind describe the session in the history.
	Target         string
	DispatcherKind string

	// Warmup is waited once the dispatcher is open.
	Warmup time.Duration
	// MotionThreshold is the changed-pixel percentage below which a frame
	// skips pose detection. Zero disables the gate.
	MotionThreshold float64
	// Verbose logs the predicates of every frame.
	Verbose bool

	Renderers []Renderer
	Observers []Observer
}

// DefaultConfig returns a config with the default warm-up and no gate.
func DefaultConfig() Config {
	return Config{
		Warmup: DefaultWarmup,
	}
}

// Session is one play run. Run drives it; the other methods are safe to call
// from other goroutines.
type Session struct {
	config Config
	motion *capture.MotionGate

	// Owned by the Run goroutine.
	debounce   *gesture.Debouncer
	lastPose   *detector.PoseLandmarks
	lastAction gesture.Action

	mu        sync.RWMutex
	enabled   bool
	frames    int
	sessionID string
}

// New creates a session. It validates cfg but acquires nothing.
func New(config Config) (*Session, error) {
	if config.Camera == nil {
		return nil, errors.New("session needs a camera")
	}
	if config.Detector == nil {
		return nil, errors.New("session needs a pose detector")
	}
	if config.Dispatcher == nil {
		return nil, errors.New("session needs a dispatcher")
	}

	s := &Session{
		config:   config,
		debounce: gesture.NewDebouncer(),
		enabled:  true,
	}
	if config.MotionThreshold > 0 {
		s.motion = capture.NewMotionGate(config.MotionThreshold)
	}

	return s, nil
}

// SetEnabled pauses or resumes gesture processing. Paused frames are shown
// but treated as frames without a pose.
func (s *Session) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// IsEnabled returns whether gesture processing is running.
func (s *Session) IsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// Frames returns how many frames have been read.
func (s *Session) Frames() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frames
}

// ID returns the history record ID, or "" when no store is configured.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

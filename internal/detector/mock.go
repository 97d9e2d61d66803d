package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It plays back a scripted sequence of poses, one per Detect call.
type MockDetector struct {
	mu     sync.Mutex
	poses  []*PoseLandmarks
	index  int
	loop   bool
	err    error
	calls  int
	closed bool
}

// NewMockDetector creates a new MockDetector that detects nothing.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPose makes every Detect call return the given pose.
func (m *MockDetector) SetPose(pose *PoseLandmarks) {
	m.SetSequence([]*PoseLandmarks{pose}, true)
}

// SetSequence sets the poses returned by successive Detect calls.
// Once the sequence is exhausted Detect returns nil unless loop is set.
func (m *MockDetector) SetSequence(poses []*PoseLandmarks, loop bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.poses = poses
	m.index = 0
	m.loop = loop
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the next scripted pose or the configured error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*PoseLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.poses) == 0 {
		return nil, nil
	}
	if m.index >= len(m.poses) {
		if !m.loop {
			return nil, nil
		}
		m.index = 0
	}

	pose := m.poses[m.index]
	m.index++
	return pose, nil
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close has been called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Preset geometry for the scripted poses, in normalized frame coordinates.
const (
	ShoulderY    = 0.4
	WristDownY   = 0.5
	WristUpY     = 0.2
	NoseUprightY = 0.3
	NoseDuckedY  = 0.6
)

// PoseWith returns a standing pose with both shoulders at ShoulderY and the
// given nose and wrist heights. Other landmarks are placed plausibly.
func PoseWith(noseY, leftWristY, rightWristY float64) *PoseLandmarks {
	pose := &PoseLandmarks{Score: 0.95}

	// The subject's left side appears on the right of an unmirrored frame.
	pose.Points[Nose] = Point3D{X: 0.5, Y: noseY, Visibility: 0.99}
	pose.Points[LeftEye] = Point3D{X: 0.52, Y: noseY - 0.03, Visibility: 0.99}
	pose.Points[RightEye] = Point3D{X: 0.48, Y: noseY - 0.03, Visibility: 0.99}
	pose.Points[LeftShoulder] = Point3D{X: 0.62, Y: ShoulderY, Visibility: 0.98}
	pose.Points[RightShoulder] = Point3D{X: 0.38, Y: ShoulderY, Visibility: 0.98}
	pose.Points[LeftElbow] = Point3D{X: 0.68, Y: (ShoulderY + leftWristY) / 2, Visibility: 0.95}
	pose.Points[RightElbow] = Point3D{X: 0.32, Y: (ShoulderY + rightWristY) / 2, Visibility: 0.95}
	pose.Points[LeftWrist] = Point3D{X: 0.7, Y: leftWristY, Visibility: 0.9}
	pose.Points[RightWrist] = Point3D{X: 0.3, Y: rightWristY, Visibility: 0.9}
	pose.Points[LeftHip] = Point3D{X: 0.58, Y: 0.75, Visibility: 0.9}
	pose.Points[RightHip] = Point3D{X: 0.42, Y: 0.75, Visibility: 0.9}

	return pose
}

// NeutralPose returns a relaxed pose: hands down, head up.
func NeutralPose() *PoseLandmarks {
	return PoseWith(NoseUprightY, WristDownY, WristDownY)
}

// LeftRaisedPose returns a pose with only the left wrist above its shoulder.
func LeftRaisedPose() *PoseLandmarks {
	return PoseWith(NoseUprightY, WristUpY, WristDownY)
}

// RightRaisedPose returns a pose with only the right wrist above its shoulder.
func RightRaisedPose() *PoseLandmarks {
	return PoseWith(NoseUprightY, WristDownY, WristUpY)
}

// BothRaisedPose returns a pose with both wrists above the shoulders.
func BothRaisedPose() *PoseLandmarks {
	return PoseWith(NoseUprightY, WristUpY, WristUpY)
}

// DuckedPose returns a pose with the nose below the frame midline and hands down.
func DuckedPose() *PoseLandmarks {
	return PoseWith(NoseDuckedY, WristDownY, WristDownY)
}

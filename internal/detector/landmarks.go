// Package detector provides body pose detection interfaces and types.
package detector

// Pose landmark indices following the MediaPipe Pose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

// landmarkNames maps the MediaPipe landmark names to their indices.
var landmarkNames = map[string]int{
	"nose":             Nose,
	"left_eye_inner":   LeftEyeInner,
	"left_eye":         LeftEye,
	"left_eye_outer":   LeftEyeOuter,
	"right_eye_inner":  RightEyeInner,
	"right_eye":        RightEye,
	"right_eye_outer":  RightEyeOuter,
	"left_ear":         LeftEar,
	"right_ear":        RightEar,
	"mouth_left":       MouthLeft,
	"mouth_right":      MouthRight,
	"left_shoulder":    LeftShoulder,
	"right_shoulder":   RightShoulder,
	"left_elbow":       LeftElbow,
	"right_elbow":      RightElbow,
	"left_wrist":       LeftWrist,
	"right_wrist":      RightWrist,
	"left_pinky":       LeftPinky,
	"right_pinky":      RightPinky,
	"left_index":       LeftIndex,
	"right_index":      RightIndex,
	"left_thumb":       LeftThumb,
	"right_thumb":      RightThumb,
	"left_hip":         LeftHip,
	"right_hip":        RightHip,
	"left_knee":        LeftKnee,
	"right_knee":       RightKnee,
	"left_ankle":       LeftAnkle,
	"right_ankle":      RightAnkle,
	"left_heel":        LeftHeel,
	"right_heel":       RightHeel,
	"left_foot_index":  LeftFootIndex,
	"right_foot_index": RightFootIndex,
}

// LandmarkIndex returns the index of a named landmark such as "left_wrist".
func LandmarkIndex(name string) (int, bool) {
	i, ok := landmarkNames[name]
	return i, ok
}

// Point3D is a landmark position. X and Y are normalized to the frame size
// (0,0 is the top-left corner, Y grows downward). Z is relative depth.
type Point3D struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility,omitempty"`
}

// PoseLandmarks is one detected body pose.
// A nil *PoseLandmarks means no pose was detected in the frame.
type PoseLandmarks struct {
	Points [NumLandmarks]Point3D `json:"points"`
	Score  float64               `json:"score"`
}

// Mirrored returns a copy with X flipped, for drawing on a mirrored view.
func (p *PoseLandmarks) Mirrored() *PoseLandmarks {
	if p == nil {
		return nil
	}

	m := *p
	for i := range m.Points {
		m.Points[i].X = 1 - m.Points[i].X
	}
	return &m
}

package detector

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// poseMessage is one line of output from the sidecar, and one line of a
// recorded pose script. A null pose means no pose was detected.
type poseMessage struct {
	Pose  *jsonPose `json:"pose"`
	Error string    `json:"error,omitempty"`
}

// jsonPose carries landmarks either as the full ordered list the sidecar
// produces, or as a sparse map keyed by landmark name for hand-written scripts.
type jsonPose struct {
	Points    []jsonPoint          `json:"points,omitempty"`
	Keypoints map[string]jsonPoint `json:"keypoints,omitempty"`
	Score     float64              `json:"score"`
}

type jsonPoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

func (p jsonPoint) toPoint3D() Point3D {
	return Point3D{X: p.X, Y: p.Y, Z: p.Z, Visibility: p.Visibility}
}

func (j *jsonPose) toPoseLandmarks() (*PoseLandmarks, error) {
	if j == nil {
		return nil, nil
	}

	pose := &PoseLandmarks{Score: j.Score}

	for i := 0; i < NumLandmarks && i < len(j.Points); i++ {
		pose.Points[i] = j.Points[i].toPoint3D()
	}

	for name, p := range j.Keypoints {
		idx, ok := LandmarkIndex(name)
		if !ok {
			return nil, fmt.Errorf("unknown landmark %q", name)
		}
		pose.Points[idx] = p.toPoint3D()
	}

	return pose, nil
}

// DecodePose parses one JSON pose message.
// Returns nil, nil when the message reports no pose.
func DecodePose(line []byte) (*PoseLandmarks, error) {
	var msg poseMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, fmt.Errorf("parse pose: %w", err)
	}
	if msg.Error != "" {
		return nil, fmt.Errorf("pose service: %s", msg.Error)
	}
	return msg.Pose.toPoseLandmarks()
}

// EncodePose renders a pose as a single-line JSON message. A nil pose
// encodes as {"pose":null}.
func EncodePose(pose *PoseLandmarks) ([]byte, error) {
	msg := poseMessage{}
	if pose != nil {
		msg.Pose = &jsonPose{Score: pose.Score, Points: make([]jsonPoint, NumLandmarks)}
		for i, p := range pose.Points {
			msg.Pose.Points[i] = jsonPoint{X: p.X, Y: p.Y, Z: p.Z, Visibility: p.Visibility}
		}
	}
	return json.Marshal(msg)
}

// ReadScript reads a recorded pose script: one pose message per line.
// Blank lines and lines starting with '#' are ignored. Entries are nil for
// frames in which no pose was detected.
func ReadScript(r io.Reader) ([]*PoseLandmarks, error) {
	var poses []*PoseLandmarks

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		pose, err := DecodePose(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		poses = append(poses, pose)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	return poses, nil
}

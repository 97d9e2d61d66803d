// Package display shows the live camera view with the session status drawn
// on top, so the player can see whether the controller is armed.
package display

import (
	"image"
	"image/color"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/posesurf/internal/app"
	"github.com/ayusman/posesurf/internal/detector"
	"github.com/ayusman/posesurf/internal/gesture"
)

// Keys that close the window.
const (
	KeyQuit   = 'q'
	KeyEscape = 27
)

var (
	colorArmed    = color.RGBA{0, 255, 0, 0}
	colorDisarmed = color.RGBA{255, 0, 0, 0}
	colorPaused   = color.RGBA{255, 200, 0, 0}
	colorText     = color.RGBA{255, 255, 255, 0}
	colorJoint    = color.RGBA{0, 200, 255, 0}
	colorBone     = color.RGBA{200, 200, 200, 0}
)

// bones are the landmark pairs drawn as the upper-body skeleton.
var bones = [][2]int{
	{detector.LeftShoulder, detector.RightShoulder},
	{detector.LeftShoulder, detector.LeftElbow},
	{detector.LeftElbow, detector.LeftWrist},
	{detector.RightShoulder, detector.RightElbow},
	{detector.RightElbow, detector.RightWrist},
	{detector.LeftShoulder, detector.LeftHip},
	{detector.RightShoulder, detector.RightHip},
	{detector.LeftHip, detector.RightHip},
}

// joints are the landmarks the classifier reads.
var joints = []int{
	detector.Nose,
	detector.LeftShoulder,
	detector.RightShoulder,
	detector.LeftWrist,
	detector.RightWrist,
}

// Config controls the live view.
type Config struct {
	Title     string
	Mirror    bool
	Keypoints bool
}

// DefaultConfig returns a mirrored view with keypoints drawn.
func DefaultConfig() Config {
	return Config{
		Title:     "posesurf",
		Mirror:    true,
		Keypoints: true,
	}
}

// Window is an OpenCV window renderer. It is created on the first Render so
// that it lives on the goroutine that drives the session.
type Window struct {
	config Config

	mu     sync.Mutex
	window *gocv.Window
}

// NewWindow creates a window renderer.
func NewWindow(config Config) *Window {
	if config.Title == "" {
		config.Title = DefaultConfig().Title
	}
	return &Window{config: config}
}

// Render shows the annotated frame and reports whether q or Esc was pressed.
func (w *Window) Render(frame *gocv.Mat, snap app.Snapshot) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.window == nil {
		w.window = gocv.NewWindow(w.config.Title)
	}

	img := Annotate(frame, snap, w.config)
	defer img.Close()

	w.window.IMShow(img)
	key := w.window.WaitKey(1)
	return key == KeyQuit || key == KeyEscape
}

// Close destroys the window.
func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.window == nil {
		return nil
	}
	err := w.window.Close()
	w.window = nil
	return err
}

// Annotate returns a copy of frame, mirrored if configured, with the status
// line, the last action and the pose keypoints drawn on it. The caller owns
// the returned Mat.
func Annotate(frame *gocv.Mat, snap app.Snapshot, config Config) gocv.Mat {
	out := gocv.NewMat()
	if config.Mirror {
		gocv.Flip(*frame, &out, 1)
	} else {
		frame.CopyTo(&out)
	}

	pose := snap.Pose
	if config.Mirror {
		pose = pose.Mirrored()
	}
	if config.Keypoints && pose != nil {
		drawPose(&out, pose)
	}

	text, c := StatusText(snap)
	gocv.PutText(&out, text, image.Pt(10, 30), gocv.FontHersheySimplex, 0.9, c, 2)
	gocv.PutText(&out, LastActionText(snap.LastAction), image.Pt(10, 60), gocv.FontHersheySimplex, 0.7, colorText, 2)

	return out
}

// StatusText returns the status line and its colour: green when a new
// gesture can fire, red while waiting for a neutral pose.
func StatusText(snap app.Snapshot) (string, color.RGBA) {
	switch {
	case snap.Paused:
		return "Paused", colorPaused
	case snap.State.Armed:
		return "Armed: Yes", colorArmed
	default:
		return "Armed: No", colorDisarmed
	}
}

// LastActionText returns the label for the most recent action.
func LastActionText(a gesture.Action) string {
	if !a.Valid() {
		return "Last: none"
	}
	return "Last: " + a.String()
}

func drawPose(img *gocv.Mat, pose *detector.PoseLandmarks) {
	size := img.Size()
	if len(size) < 2 {
		return
	}
	h, w := size[0], size[1]

	toPixel := func(i int) image.Point {
		p := pose.Points[i]
		return image.Pt(int(p.X*float64(w)), int(p.Y*float64(h)))
	}

	for _, b := range bones {
		gocv.Line(img, toPixel(b[0]), toPixel(b[1]), colorBone, 2)
	}
	for _, j := range joints {
		gocv.Circle(img, toPixel(j), 6, colorJoint, -1)
	}
}

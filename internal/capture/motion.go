package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Motion gate constants
const (
	// BlurKernel is the Gaussian blur kernel size applied before differencing.
	BlurKernel = 21
	// PixelDiffThreshold is the per-pixel intensity change that counts as motion.
	PixelDiffThreshold = 25
)

// MotionGate decides whether a frame differs enough from the last frame it let
// through to be worth running pose inference on. The reference frame only
// moves when the gate opens, so slow motion spread over many frames adds up
// until it crosses the threshold.
type MotionGate struct {
	threshold   float64
	refGray     gocv.Mat
	initialized bool
	lastChange  float64
	mu          sync.Mutex
}

// NewMotionGate creates a gate that opens when more than threshold percent
// of pixels changed since the previous frame.
func NewMotionGate(threshold float64) *MotionGate {
	return &MotionGate{
		threshold: threshold,
		refGray:   gocv.NewMat(),
	}
}

// Changed reports whether frame moved past the threshold relative to the
// reference frame, and makes frame the new reference when it did. The first
// frame after construction or Reset always passes.
func (g *MotionGate) Changed(frame *gocv.Mat) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(BlurKernel, BlurKernel), 0, 0, gocv.BorderDefault)

	if !g.initialized {
		blurred.CopyTo(&g.refGray)
		g.initialized = true
		g.lastChange = 100
		return true
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, g.refGray, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, PixelDiffThreshold, 255, gocv.ThresholdBinary)

	total := mask.Rows() * mask.Cols()
	if total == 0 {
		return false
	}
	g.lastChange = float64(gocv.CountNonZero(mask)) / float64(total) * 100.0

	if g.lastChange <= g.threshold {
		return false
	}

	blurred.CopyTo(&g.refGray)
	return true
}

// LastChange returns the changed-pixel percentage of the last frame seen.
func (g *MotionGate) LastChange() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastChange
}

// Reset forgets the reference frame so the next one passes unconditionally.
func (g *MotionGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.release()
}

// Close releases the stored frame. The gate may be reused after Close.
func (g *MotionGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.release()
}

func (g *MotionGate) release() {
	if !g.refGray.Empty() {
		g.refGray.Close()
		g.refGray = gocv.NewMat()
	}
	g.initialized = false
	g.lastChange = 0
}

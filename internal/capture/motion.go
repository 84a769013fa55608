package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

const (
	// analysisWidth is the width frames are shrunk to before differencing.
	analysisWidth = 160
	blurKernel    = 7
	// pixelDelta is the grey-level change that marks a pixel as moved.
	pixelDelta = 25
)

// MotionDetector reports whether consecutive frames differ enough to count
// as movement in front of the camera. Frames are shrunk, greyed and blurred
// before differencing, so sensor noise and small lighting drift are ignored.
type MotionDetector struct {
	mu        sync.Mutex
	threshold float64
	baseline  gocv.Mat
	hasBase   bool
}

// NewMotionDetector returns a detector that reports motion once more than
// threshold percent of the analysed pixels change.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		baseline:  gocv.NewMat(),
	}
}

// Detect compares frame with the previous one and reports whether the share
// of changed pixels exceeds the threshold, along with that share in percent.
// The first frame after construction, Reset or Close only sets the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	if frame == nil || frame.Empty() {
		return false, 0
	}

	small := shrink(*frame)
	defer small.Close()

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hasBase || m.baseline.Rows() != small.Rows() || m.baseline.Cols() != small.Cols() {
		m.replaceBaseline(small)
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(small, m.baseline, &diff)
	gocv.Threshold(diff, &diff, pixelDelta, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100
	m.replaceBaseline(small)

	return changed > m.threshold, changed
}

// shrink returns a blurred greyscale copy of frame at most analysisWidth wide.
func shrink(frame gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	if frame.Channels() > 1 {
		gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	if gray.Cols() > analysisWidth {
		h := gray.Rows() * analysisWidth / gray.Cols()
		if h < 1 {
			h = 1
		}
		gocv.Resize(gray, &gray, image.Pt(analysisWidth, h), 0, 0, gocv.InterpolationArea)
	}

	gocv.GaussianBlur(gray, &gray, image.Pt(blurKernel, blurKernel), 0, 0, gocv.BorderDefault)
	return gray
}

func (m *MotionDetector) replaceBaseline(small gocv.Mat) {
	small.CopyTo(&m.baseline)
	m.hasBase = true
}

// Reset forgets the baseline so the next frame starts a new comparison.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropBaseline()
}

// Close releases the baseline. The detector stays usable; the next Detect
// starts over.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropBaseline()
}

func (m *MotionDetector) dropBaseline() {
	if !m.baseline.Empty() {
		m.baseline.Close()
		m.baseline = gocv.NewMat()
	}
	m.hasBase = false
}

// SetThreshold changes the percentage of changed pixels that counts as
// motion. Non-positive values are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}

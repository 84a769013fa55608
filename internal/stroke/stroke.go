// Package stroke smooths the fingertip path of a pen stroke.
package stroke

import (
	"fmt"
	"image/color"

	"github.com/ayusman/aircanvas/internal/geom"
)

// DefaultWindow is the number of recent raw points averaged per output point.
const DefaultWindow = 5

// Stroke is one pen-down to pen-up run.
type Stroke struct {
	Color color.RGBA
	Width float64

	raw      []geom.Point // recent clamped input, at most the smoother window
	smoothed []geom.Point
	sealed   bool
}

// New returns an empty open stroke.
func New(c color.RGBA, width float64) *Stroke {
	return &Stroke{Color: c, Width: width}
}

// Points returns the smoothed points appended so far.
func (s *Stroke) Points() []geom.Point {
	return s.smoothed
}

// Preview returns a copy of the smoothed points for live rendering.
func (s *Stroke) Preview() []geom.Point {
	out := make([]geom.Point, len(s.smoothed))
	copy(out, s.smoothed)
	return out
}

// Len returns the number of smoothed points.
func (s *Stroke) Len() int {
	return len(s.smoothed)
}

// Last returns the most recent smoothed point.
func (s *Stroke) Last() (geom.Point, bool) {
	if len(s.smoothed) == 0 {
		return geom.Point{}, false
	}
	return s.smoothed[len(s.smoothed)-1], true
}

// Seal closes the stroke; later appends are rejected.
func (s *Stroke) Seal() {
	s.sealed = true
	s.raw = nil
}

// Sealed reports whether the stroke is closed.
func (s *Stroke) Sealed() bool {
	return s.sealed
}

// Smoother applies weighted recency averaging to stroke points.
type Smoother struct {
	window        int
	width, height int
	weights       [][]float64 // weights[n] for n points
}

// NewSmoother returns a smoother averaging the last window points inside a
// width x height raster.
func NewSmoother(window, width, height int) (*Smoother, error) {
	if window < 1 {
		return nil, fmt.Errorf("smoothing window must be at least 1, got %d", window)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("canvas size must be positive, got %dx%d", width, height)
	}
	sm := &Smoother{window: window, width: width, height: height}
	sm.weights = make([][]float64, window+1)
	for n := 1; n <= window; n++ {
		sm.weights[n] = Weights(n)
	}
	return sm, nil
}

// Append clamps p into the raster, adds it to the stroke and returns the
// smoothed point that was recorded. It returns false, leaving the stroke
// untouched, when the stroke is sealed.
func (sm *Smoother) Append(s *Stroke, p geom.Point) (geom.Point, bool) {
	if s.sealed {
		return geom.Point{}, false
	}

	s.raw = append(s.raw, p.Clamp(sm.width, sm.height))
	if len(s.raw) > sm.window {
		s.raw = s.raw[len(s.raw)-sm.window:]
	}

	out := s.raw[len(s.raw)-1]
	if n := len(s.raw); n >= 2 {
		w := sm.weights[n]
		out = geom.Point{}
		for i, q := range s.raw {
			out.X += q.X * w[i]
			out.Y += q.Y * w[i]
		}
	}
	s.smoothed = append(s.smoothed, out)
	return out, true
}

// Weights returns n weights spaced linearly from 0.5 (oldest) to 1.0
// (newest), normalized to sum to 1. A single point gets weight 1.
func Weights(n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{1}
	}
	w := make([]float64, n)
	sum := 0.0
	for i := range w {
		w[i] = 0.5 + 0.5*float64(i)/float64(n-1)
		sum += w[i]
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

// Package tracking smooths per-frame hand landmarks and tracks how reliably a
// hand is being detected.
package tracking

import (
	"fmt"
	"math"

	"github.com/ayusman/aircanvas/internal/detector"
	"github.com/ayusman/aircanvas/internal/geom"
)

// Config holds the stabilizer parameters.
type Config struct {
	// Alpha is the EMA weight of the newest frame, in (0, 1].
	Alpha float64
	// Window is the number of recent ticks used for the detection rate.
	Window int
	// StableThreshold is the detection rate at or above which tracking is
	// reported as stable.
	StableThreshold float64
	// ScaleX and ScaleY map detector coordinates into pixel space. Use 1 when
	// the detector already reports pixels.
	ScaleX float64
	ScaleY float64
}

// DefaultConfig returns the stabilizer defaults: alpha 0.3 over a 5 tick
// window, stable at 80% detections, no scaling.
func DefaultConfig() Config {
	return Config{
		Alpha:           0.3,
		Window:          5,
		StableThreshold: 0.8,
		ScaleX:          1,
		ScaleY:          1,
	}
}

// Validate reports the first invalid parameter.
func (c Config) Validate() error {
	if err := validateAlpha(c.Alpha); err != nil {
		return err
	}
	if c.Window <= 0 {
		return fmt.Errorf("tracking window must be positive, got %d", c.Window)
	}
	if !(c.StableThreshold >= 0 && c.StableThreshold <= 1) {
		return fmt.Errorf("stable threshold must be in [0, 1], got %g", c.StableThreshold)
	}
	return validateScale(c.ScaleX, c.ScaleY)
}

func validateScale(sx, sy float64) error {
	if !positive(sx) || !positive(sy) {
		return fmt.Errorf("scale must be positive and finite, got %gx%g", sx, sy)
	}
	return nil
}

// positive is false for NaN and +Inf as well as for x <= 0.
func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 1)
}

func validateAlpha(alpha float64) error {
	if !(alpha > 0 && alpha <= 1) {
		return fmt.Errorf("smoothing alpha must be in (0, 1], got %g", alpha)
	}
	return nil
}

// State is the stabilized view of one tick.
type State struct {
	// Landmarks are the smoothed points in pixel space. When Detected is
	// false they hold the last smoothed values.
	Landmarks [detector.NumLandmarks]detector.Point3D
	// HasLandmarks is false until the first detection.
	HasLandmarks bool
	// Detected reports whether this tick carried a hand.
	Detected bool
	// Confidence is the detector score for this tick, 0 without a hand.
	Confidence float64
	Handedness string
	// DetectionRate is the share of detections over the recent window.
	DetectionRate float64
	Stable        bool
}

// Point returns landmark i projected onto the image plane.
func (s State) Point(i int) geom.Point {
	return s.Landmarks[i].XY()
}

// Stats summarises detection quality since the last reset.
type Stats struct {
	TotalTicks  int     `json:"total_ticks"`
	Detections  int     `json:"detections"`
	Misses      int     `json:"misses"`
	SuccessRate float64 `json:"success_rate"` // percent
	Stable      bool    `json:"stable"`
	Confidence  float64 `json:"confidence"`
}

// Stabilizer applies exponential smoothing to landmarks and keeps a sliding
// window of detection outcomes. It is not safe for concurrent use.
type Stabilizer struct {
	cfg Config

	smoothed    [detector.NumLandmarks]detector.Point3D
	hasSmoothed bool
	handedness  string
	window      []bool // ring buffer of the last cfg.Window outcomes
	next        int
	filled      int
	totalTicks  int
	detections  int
	lastConf    float64
	lastStable  bool
}

// New creates a Stabilizer after validating cfg.
func New(cfg Config) (*Stabilizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Stabilizer{
		cfg:    cfg,
		window: make([]bool, cfg.Window),
	}, nil
}

// Alpha returns the current smoothing factor.
func (s *Stabilizer) Alpha() float64 {
	return s.cfg.Alpha
}

// SetAlpha changes the smoothing factor. Values outside (0, 1] are rejected
// and leave the stabilizer unchanged.
func (s *Stabilizer) SetAlpha(alpha float64) error {
	if err := validateAlpha(alpha); err != nil {
		return err
	}
	s.cfg.Alpha = alpha
	return nil
}

// SetScale updates the normalized-to-pixel transform.
func (s *Stabilizer) SetScale(sx, sy float64) error {
	if err := validateScale(sx, sy); err != nil {
		return err
	}
	s.cfg.ScaleX, s.cfg.ScaleY = sx, sy
	return nil
}

// Update consumes one tick. A nil hand means nothing was detected; the last
// smoothed landmarks are held and reported with Detected false.
func (s *Stabilizer) Update(hand *detector.HandLandmarks) State {
	s.totalTicks++

	if hand == nil {
		s.push(false)
		s.lastConf = 0
		return s.state(false)
	}

	// A window drained of detections means the hand was lost; start over
	// instead of blending towards a stale position.
	reinit := !s.hasSmoothed || s.windowSum() == 0

	raw := hand
	if s.cfg.ScaleX != 1 || s.cfg.ScaleY != 1 {
		raw = hand.Scaled(s.cfg.ScaleX, s.cfg.ScaleY)
	}

	if reinit {
		s.smoothed = raw.Points
		s.hasSmoothed = true
	} else {
		a := s.cfg.Alpha
		for i := range s.smoothed {
			p, r := s.smoothed[i], raw.Points[i]
			s.smoothed[i] = detector.Point3D{
				X: p.X*(1-a) + r.X*a,
				Y: p.Y*(1-a) + r.Y*a,
				Z: p.Z*(1-a) + r.Z*a,
			}
		}
	}

	s.handedness = hand.Handedness
	s.detections++
	s.lastConf = hand.Score
	s.push(true)
	return s.state(true)
}

// DetectionRate returns detections / ticks over the recent window.
func (s *Stabilizer) DetectionRate() float64 {
	if s.filled == 0 {
		return 0
	}
	return float64(s.windowSum()) / float64(s.filled)
}

// Stats returns cumulative counters.
func (s *Stabilizer) Stats() Stats {
	st := Stats{
		TotalTicks: s.totalTicks,
		Detections: s.detections,
		Misses:     s.totalTicks - s.detections,
		Stable:     s.lastStable,
		Confidence: s.lastConf,
	}
	if s.totalTicks > 0 {
		st.SuccessRate = float64(s.detections) / float64(s.totalTicks) * 100
	}
	return st
}

// ResetStats clears the cumulative counters. The smoothing state and the
// detection window are kept.
func (s *Stabilizer) ResetStats() {
	s.totalTicks = 0
	s.detections = 0
}

// Reset forgets everything, as if the stabilizer were new.
func (s *Stabilizer) Reset() {
	s.smoothed = [detector.NumLandmarks]detector.Point3D{}
	s.hasSmoothed = false
	s.handedness = ""
	for i := range s.window {
		s.window[i] = false
	}
	s.next, s.filled = 0, 0
	s.totalTicks, s.detections = 0, 0
	s.lastConf, s.lastStable = 0, false
}

func (s *Stabilizer) push(detected bool) {
	s.window[s.next] = detected
	s.next = (s.next + 1) % len(s.window)
	if s.filled < len(s.window) {
		s.filled++
	}
}

func (s *Stabilizer) windowSum() int {
	n := 0
	for i := 0; i < s.filled; i++ {
		if s.window[i] {
			n++
		}
	}
	return n
}

func (s *Stabilizer) state(detected bool) State {
	rate := s.DetectionRate()
	s.lastStable = rate >= s.cfg.StableThreshold
	st := State{
		Landmarks:     s.smoothed,
		HasLandmarks:  s.hasSmoothed,
		Detected:      detected,
		DetectionRate: rate,
		Stable:        s.lastStable,
		Handedness:    s.handedness,
	}
	if detected {
		st.Confidence = s.lastConf
	}
	return st
}

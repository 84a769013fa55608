package gesture

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ayusman/aircanvas/internal/detector"
	"github.com/ayusman/aircanvas/internal/geom"
	"github.com/ayusman/aircanvas/internal/tracking"
)

// Config holds the classifier thresholds, in pixels.
type Config struct {
	// Separation is how far a fingertip must sit beyond its PIP joint along
	// the hand axis to count as extended.
	Separation float64
	// ThumbSeparation is the lateral distance for the thumb.
	ThumbSeparation float64
	// PinchThreshold is the thumb-index distance below which a pinch is read.
	PinchThreshold float64
	// Cooldowns is the minimum interval between firings of each discrete
	// gesture. A missing entry means no cooldown.
	Cooldowns map[Gesture]time.Duration
	Brush     BrushSizer
}

// DefaultCooldown is applied to every discrete gesture by DefaultConfig.
const DefaultCooldown = 500 * time.Millisecond

// DefaultConfig returns the classifier defaults.
func DefaultConfig() Config {
	return Config{
		Separation:      10,
		ThumbSeparation: 4,
		PinchThreshold:  35,
		Cooldowns: map[Gesture]time.Duration{
			Clear:     DefaultCooldown,
			NextColor: DefaultCooldown,
			Undo:      DefaultCooldown,
		},
		Brush: DefaultBrushSizer(),
	}
}

// Validate reports the first invalid parameter.
func (c Config) Validate() error {
	if !positive(c.Separation) {
		return fmt.Errorf("finger separation must be positive and finite, got %g", c.Separation)
	}
	if !positive(c.ThumbSeparation) {
		return fmt.Errorf("thumb separation must be positive and finite, got %g", c.ThumbSeparation)
	}
	if !positive(c.PinchThreshold) {
		return fmt.Errorf("pinch threshold must be positive and finite, got %g", c.PinchThreshold)
	}
	for g, d := range c.Cooldowns {
		if !g.Discrete() {
			return fmt.Errorf("cooldown set for continuous gesture %s", g)
		}
		if d < 0 {
			return fmt.Errorf("cooldown for %s must not be negative, got %s", g, d)
		}
	}
	if err := c.Brush.Validate(); err != nil {
		return err
	}
	return nil
}

// Event is the classifier output for one frame.
type Event struct {
	// Gesture is the effective gesture after cooldown.
	Gesture Gesture `json:"gesture"`
	// Raw is the pattern matched before cooldown was applied.
	Raw Gesture `json:"raw"`
	// Cursor is the index fingertip.
	Cursor        geom.Point  `json:"cursor"`
	PinchDistance float64     `json:"pinch_distance"`
	BrushWidth    float64     `json:"brush_width"`
	Fingers       FingerState `json:"fingers"`
	// Suppressed is set when a discrete gesture was held back by its cooldown.
	Suppressed bool `json:"suppressed"`
	Detected   bool `json:"detected"`
}

// Classifier maps stabilized hand states to gesture events. It is not safe
// for concurrent use.
type Classifier struct {
	cfg       Config
	rules     []Rule
	lastFired map[Gesture]time.Time
	logger    *slog.Logger
}

// NewClassifier validates cfg and returns a classifier using rules, or
// DefaultRules when rules is nil.
func NewClassifier(cfg Config, rules []Rule, logger *slog.Logger) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rules == nil {
		rules = DefaultRules()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Classifier{
		cfg:       cfg,
		rules:     rules,
		lastFired: make(map[Gesture]time.Time),
		logger:    logger,
	}, nil
}

// Config returns the classifier configuration.
func (c *Classifier) Config() Config {
	return c.cfg
}

// Classify produces exactly one event for st. A state without a detection
// never fires, even when it carries held landmarks.
func (c *Classifier) Classify(st tracking.State, now time.Time) Event {
	ev := Event{Gesture: None, Raw: None, BrushWidth: c.cfg.Brush.Min, Detected: st.Detected}
	if !st.HasLandmarks {
		return ev
	}

	ev.Cursor = st.Point(detector.IndexTip)
	ev.PinchDistance = PinchDistance(st)
	ev.BrushWidth = c.cfg.Brush.Width(ev.PinchDistance)
	if !st.Detected {
		return ev
	}

	ev.Fingers = ReadFingers(st, c.cfg.Separation, c.cfg.ThumbSeparation)
	ev.Raw = Evaluate(c.rules, Features{
		Fingers:        ev.Fingers,
		PinchDistance:  ev.PinchDistance,
		PinchThreshold: c.cfg.PinchThreshold,
	})
	ev.Gesture = ev.Raw

	if ev.Raw.Discrete() {
		if last, ok := c.lastFired[ev.Raw]; ok && now.Sub(last) < c.cfg.Cooldowns[ev.Raw] {
			ev.Gesture = None
			ev.Suppressed = true
			return ev
		}
		c.lastFired[ev.Raw] = now
		c.logger.Debug("gesture fired", "gesture", ev.Raw, "fingers", ev.Fingers.String())
	}
	return ev
}

// Reset forgets all cooldown timers.
func (c *Classifier) Reset() {
	clear(c.lastFired)
}

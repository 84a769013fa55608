package detector

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks in
	// normalized [0,1] image coordinates.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Mode selects the detector's speed/accuracy trade-off. It only changes the
// confidence presets handed to the detector; downstream code never looks at it.
type Mode string

const (
	// ModeFast favours frame rate over accuracy.
	ModeFast Mode = "fast"
	// ModeAccurate raises the confidence thresholds.
	ModeAccurate Mode = "accurate"
)

// Config holds configuration options for hand detection.
type Config struct {
	// Mode is the detector preset (default: fast).
	Mode Mode

	// MaxHands is the maximum number of hands to detect (default: 1).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinPresenceConf is the minimum hand presence confidence threshold (0.0-1.0).
	MinPresenceConf float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return ConfigForMode(ModeFast)
}

// ConfigForMode returns the confidence preset for a detector mode.
func ConfigForMode(mode Mode) Config {
	conf := 0.5
	if mode == ModeAccurate {
		conf = 0.7
	} else {
		mode = ModeFast
	}
	return Config{
		Mode:            mode,
		MaxHands:        1,
		MinConfidence:   conf,
		MinPresenceConf: conf,
		MinTrackingConf: conf,
	}
}

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFast, ModeAccurate:
		return Mode(s), nil
	case "":
		return ModeFast, nil
	}
	return "", fmt.Errorf("unknown detector mode %q (want %q or %q)", s, ModeFast, ModeAccurate)
}

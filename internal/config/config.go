// Package config loads runtime settings from the environment, an optional
// .env file and values persisted in the settings table.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ayusman/aircanvas/internal/canvas"
	"github.com/ayusman/aircanvas/internal/detector"
	"github.com/ayusman/aircanvas/internal/gesture"
	"github.com/ayusman/aircanvas/internal/tracking"
)

// EnvPrefix is prepended to every setting name to form its variable name.
const EnvPrefix = "AIRCANVAS_"

// Config is the complete application configuration.
type Config struct {
	Addr      string
	DataDir   string
	StaticDir string
	LogLevel  string
	Tray      bool

	CameraID        int
	Width           int
	Height          int
	Mirror          bool
	IdleFPS         int
	ActiveFPS       int
	IdleTimeout     time.Duration
	MotionThreshold float64
	DetectorMode    detector.Mode

	SmoothingAlpha  float64
	TrackingWindow  int
	StableThreshold float64

	FingerSeparation  float64
	ThumbSeparation   float64
	PinchThreshold    float64
	ClearCooldown     time.Duration
	NextColorCooldown time.Duration
	UndoCooldown      time.Duration
	BrushMin          float64
	BrushMax          float64
	BrushDivisor      float64

	StrokeWindow     int
	BrushSize        float64
	EraserSize       float64
	UndoDepth        int
	UIBandHeight     int
	MaxMissingFrames int
	DynamicBrush     bool
}

// Default returns the built-in configuration.
func Default() Config {
	tc := tracking.DefaultConfig()
	gc := gesture.DefaultConfig()
	cc := canvas.DefaultConfig(640, 480)

	dataDir := ".aircanvas"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".aircanvas")
	}

	return Config{
		Addr:     ":8080",
		DataDir:  dataDir,
		LogLevel: "info",

		CameraID:        0,
		Width:           cc.Width,
		Height:          cc.Height,
		Mirror:          true,
		IdleFPS:         5,
		ActiveFPS:       30,
		IdleTimeout:     2 * time.Second,
		MotionThreshold: 1.0,
		DetectorMode:    detector.ModeFast,

		SmoothingAlpha:  tc.Alpha,
		TrackingWindow:  tc.Window,
		StableThreshold: tc.StableThreshold,

		FingerSeparation:  gc.Separation,
		ThumbSeparation:   gc.ThumbSeparation,
		PinchThreshold:    gc.PinchThreshold,
		ClearCooldown:     gc.Cooldowns[gesture.Clear],
		NextColorCooldown: gc.Cooldowns[gesture.NextColor],
		UndoCooldown:      gc.Cooldowns[gesture.Undo],
		BrushMin:          gc.Brush.Min,
		BrushMax:          gc.Brush.Max,
		BrushDivisor:      gc.Brush.Divisor,

		StrokeWindow:     cc.SmoothingWindow,
		BrushSize:        cc.BrushSize,
		EraserSize:       cc.EraserSize,
		UndoDepth:        cc.UndoDepth,
		UIBandHeight:     cc.UIBandHeight,
		MaxMissingFrames: 5,
		DynamicBrush:     true,
	}
}

// Load reads the given .env files (".env" when none are named; missing files
// are ignored), then overlays AIRCANVAS_* variables on the defaults. The
// result is validated.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	cfg := Default()
	for _, s := range settings {
		v, ok := os.LookupEnv(EnvPrefix + strings.ToUpper(s.name))
		if !ok || v == "" {
			continue
		}
		if err := s.set(&cfg, v); err != nil {
			return Config{}, fmt.Errorf("%s%s: %w", EnvPrefix, strings.ToUpper(s.name), err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplySettings overlays persisted name/value pairs, e.g. "brush_size"="12".
// Unknown names and malformed values are errors; cfg is left unchanged on
// error.
func (c *Config) ApplySettings(values map[string]string) error {
	next := *c
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := next.Set(name, values[name]); err != nil {
			return err
		}
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Set assigns one setting by name without validating the whole config.
func (c *Config) Set(name, value string) error {
	for _, s := range settings {
		if s.name == name {
			if err := s.set(c, value); err != nil {
				return fmt.Errorf("setting %s: %w", name, err)
			}
			return nil
		}
	}
	return fmt.Errorf("unknown setting %q", name)
}

// Names lists the recognised setting names.
func Names() []string {
	out := make([]string, len(settings))
	for i, s := range settings {
		out[i] = s.name
	}
	return out
}

// Validate returns the first configuration error.
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("http address must not be empty")
	}
	if c.DataDir == "" {
		return errors.New("data directory must not be empty")
	}
	if c.CameraID < 0 {
		return fmt.Errorf("camera id must not be negative, got %d", c.CameraID)
	}
	if c.IdleFPS <= 0 || c.ActiveFPS <= 0 {
		return fmt.Errorf("frame rates must be positive, got idle %d active %d", c.IdleFPS, c.ActiveFPS)
	}
	if c.IdleFPS > c.ActiveFPS {
		return fmt.Errorf("idle fps %d exceeds active fps %d", c.IdleFPS, c.ActiveFPS)
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("idle timeout must be positive, got %s", c.IdleTimeout)
	}
	if !(c.MotionThreshold >= 0) || math.IsInf(c.MotionThreshold, 1) {
		return fmt.Errorf("motion threshold must be a finite non-negative number, got %g", c.MotionThreshold)
	}
	if _, err := detector.ParseMode(string(c.DetectorMode)); err != nil {
		return err
	}
	if c.MaxMissingFrames < 0 {
		return fmt.Errorf("max missing frames must not be negative, got %d", c.MaxMissingFrames)
	}
	if err := c.Tracking().Validate(); err != nil {
		return err
	}
	if err := c.Gesture().Validate(); err != nil {
		return err
	}
	return c.Canvas().Validate()
}

// Tracking returns the stabilizer configuration. Detector output is
// normalized, so the scale maps it onto the frame size.
func (c Config) Tracking() tracking.Config {
	return tracking.Config{
		Alpha:           c.SmoothingAlpha,
		Window:          c.TrackingWindow,
		StableThreshold: c.StableThreshold,
		ScaleX:          float64(c.Width),
		ScaleY:          float64(c.Height),
	}
}

// Gesture returns the classifier configuration.
func (c Config) Gesture() gesture.Config {
	return gesture.Config{
		Separation:      c.FingerSeparation,
		ThumbSeparation: c.ThumbSeparation,
		PinchThreshold:  c.PinchThreshold,
		Cooldowns: map[gesture.Gesture]time.Duration{
			gesture.Clear:     c.ClearCooldown,
			gesture.NextColor: c.NextColorCooldown,
			gesture.Undo:      c.UndoCooldown,
		},
		Brush: gesture.BrushSizer{Min: c.BrushMin, Max: c.BrushMax, Divisor: c.BrushDivisor},
	}
}

// Canvas returns the canvas configuration.
func (c Config) Canvas() canvas.Config {
	return canvas.Config{
		Width:           c.Width,
		Height:          c.Height,
		UndoDepth:       c.UndoDepth,
		SmoothingWindow: c.StrokeWindow,
		BrushSize:       c.BrushSize,
		EraserSize:      c.EraserSize,
		UIBandHeight:    c.UIBandHeight,
	}
}

// Detector returns the detector preset for the configured mode.
func (c Config) Detector() detector.Config {
	return detector.ConfigForMode(c.DetectorMode)
}

// DatabasePath is the SQLite file inside the data directory.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "aircanvas.db")
}

// DrawingsDir is where saved drawings are written.
func (c Config) DrawingsDir() string {
	return filepath.Join(c.DataDir, "drawings")
}

type setting struct {
	name string
	set  func(c *Config, v string) error
}

var settings = []setting{
	{"addr", stringVar(func(c *Config) *string { return &c.Addr })},
	{"data_dir", stringVar(func(c *Config) *string { return &c.DataDir })},
	{"static_dir", stringVar(func(c *Config) *string { return &c.StaticDir })},
	{"log_level", stringVar(func(c *Config) *string { return &c.LogLevel })},
	{"tray", boolVar(func(c *Config) *bool { return &c.Tray })},
	{"camera", intVar(func(c *Config) *int { return &c.CameraID })},
	{"width", intVar(func(c *Config) *int { return &c.Width })},
	{"height", intVar(func(c *Config) *int { return &c.Height })},
	{"mirror", boolVar(func(c *Config) *bool { return &c.Mirror })},
	{"idle_fps", intVar(func(c *Config) *int { return &c.IdleFPS })},
	{"active_fps", intVar(func(c *Config) *int { return &c.ActiveFPS })},
	{"idle_timeout", durationVar(func(c *Config) *time.Duration { return &c.IdleTimeout })},
	{"motion_threshold", floatVar(func(c *Config) *float64 { return &c.MotionThreshold })},
	{"detector_mode", func(c *Config, v string) error {
		m, err := detector.ParseMode(v)
		if err != nil {
			return err
		}
		c.DetectorMode = m
		return nil
	}},
	{"smoothing_alpha", floatVar(func(c *Config) *float64 { return &c.SmoothingAlpha })},
	{"tracking_window", intVar(func(c *Config) *int { return &c.TrackingWindow })},
	{"stable_threshold", floatVar(func(c *Config) *float64 { return &c.StableThreshold })},
	{"finger_separation", floatVar(func(c *Config) *float64 { return &c.FingerSeparation })},
	{"thumb_separation", floatVar(func(c *Config) *float64 { return &c.ThumbSeparation })},
	{"pinch_threshold", floatVar(func(c *Config) *float64 { return &c.PinchThreshold })},
	{"clear_cooldown", durationVar(func(c *Config) *time.Duration { return &c.ClearCooldown })},
	{"next_color_cooldown", durationVar(func(c *Config) *time.Duration { return &c.NextColorCooldown })},
	{"undo_cooldown", durationVar(func(c *Config) *time.Duration { return &c.UndoCooldown })},
	{"brush_min", floatVar(func(c *Config) *float64 { return &c.BrushMin })},
	{"brush_max", floatVar(func(c *Config) *float64 { return &c.BrushMax })},
	{"brush_divisor", floatVar(func(c *Config) *float64 { return &c.BrushDivisor })},
	{"stroke_window", intVar(func(c *Config) *int { return &c.StrokeWindow })},
	{"brush_size", floatVar(func(c *Config) *float64 { return &c.BrushSize })},
	{"eraser_size", floatVar(func(c *Config) *float64 { return &c.EraserSize })},
	{"undo_depth", intVar(func(c *Config) *int { return &c.UndoDepth })},
	{"ui_band", intVar(func(c *Config) *int { return &c.UIBandHeight })},
	{"max_missing_frames", intVar(func(c *Config) *int { return &c.MaxMissingFrames })},
	{"dynamic_brush", boolVar(func(c *Config) *bool { return &c.DynamicBrush })},
}

func stringVar(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func intVar(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid integer %q", v)
		}
		*field(c) = n
		return nil
	}
}

func floatVar(field func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("invalid number %q", v)
		}
		*field(c) = f
		return nil
	}
}

func boolVar(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid boolean %q", v)
		}
		*field(c) = b
		return nil
	}
}

// durationVar accepts Go durations ("750ms") or bare milliseconds ("750").
func durationVar(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		v = strings.TrimSpace(v)
		if ms, err := strconv.Atoi(v); err == nil {
			*field(c) = time.Duration(ms) * time.Millisecond
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q", v)
		}
		*field(c) = d
		return nil
	}
}

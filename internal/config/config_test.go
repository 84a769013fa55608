package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/aircanvas/internal/detector"
	"github.com/ayusman/aircanvas/internal/gesture"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	if cfg.SmoothingAlpha != 0.3 || cfg.TrackingWindow != 5 || cfg.StableThreshold != 0.8 {
		t.Errorf("tracking defaults = %g/%d/%g", cfg.SmoothingAlpha, cfg.TrackingWindow, cfg.StableThreshold)
	}
	if cfg.UndoDepth != 20 || cfg.UIBandHeight != 100 || cfg.MaxMissingFrames != 5 {
		t.Errorf("canvas defaults = %d/%d/%d", cfg.UndoDepth, cfg.UIBandHeight, cfg.MaxMissingFrames)
	}
	if !cfg.DynamicBrush || !cfg.Mirror {
		t.Error("dynamic brush and mirror should default on")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("AIRCANVAS_ADDR", ":9090")
	t.Setenv("AIRCANVAS_SMOOTHING_ALPHA", "0.5")
	t.Setenv("AIRCANVAS_UNDO_COOLDOWN", "750ms")
	t.Setenv("AIRCANVAS_CLEAR_COOLDOWN", "1000")
	t.Setenv("AIRCANVAS_MIRROR", "false")
	t.Setenv("AIRCANVAS_DETECTOR_MODE", "accurate")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Addr != ":9090" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.SmoothingAlpha != 0.5 {
		t.Errorf("SmoothingAlpha = %g", cfg.SmoothingAlpha)
	}
	if cfg.UndoCooldown != 750*time.Millisecond || cfg.ClearCooldown != time.Second {
		t.Errorf("cooldowns = %s/%s", cfg.UndoCooldown, cfg.ClearCooldown)
	}
	if cfg.Mirror {
		t.Error("Mirror should be false")
	}
	if cfg.Detector().MinConfidence != 0.7 {
		t.Errorf("accurate mode confidence = %g", cfg.Detector().MinConfidence)
	}
	if cfg.Gesture().Cooldowns[gesture.Undo] != 750*time.Millisecond {
		t.Error("gesture config should carry the undo cooldown")
	}
}

func TestLoad_EnvFile(t *testing.T) {
	const key = "AIRCANVAS_BRUSH_SIZE"
	t.Setenv(key, "")
	os.Unsetenv(key)

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte(key+"=12\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.BrushSize != 12 {
		t.Errorf("BrushSize = %g, want 12", cfg.BrushSize)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	tests := []struct {
		key, value string
		wantInErr  string
	}{
		{"AIRCANVAS_SMOOTHING_ALPHA", "abc", "AIRCANVAS_SMOOTHING_ALPHA"},
		{"AIRCANVAS_SMOOTHING_ALPHA", "1.5", "alpha"},
		{"AIRCANVAS_UNDO_DEPTH", "0", "undo depth"},
		{"AIRCANVAS_DETECTOR_MODE", "turbo", "detector mode"},
		{"AIRCANVAS_IDLE_FPS", "60", "idle fps"},
		{"AIRCANVAS_BRUSH_SIZE", "80", "brush size"},
		{"AIRCANVAS_TRAY", "perhaps", "AIRCANVAS_TRAY"},
		{"AIRCANVAS_STABLE_THRESHOLD", "NaN", "AIRCANVAS_STABLE_THRESHOLD"},
		{"AIRCANVAS_PINCH_THRESHOLD", "nan", "AIRCANVAS_PINCH_THRESHOLD"},
		{"AIRCANVAS_FINGER_SEPARATION", "+Inf", "AIRCANVAS_FINGER_SEPARATION"},
		{"AIRCANVAS_BRUSH_MIN", "-Inf", "AIRCANVAS_BRUSH_MIN"},
		{"AIRCANVAS_MOTION_THRESHOLD", "Inf", "AIRCANVAS_MOTION_THRESHOLD"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantInErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantInErr)
			}
		})
	}
}

func TestApplySettings(t *testing.T) {
	t.Run("applies known settings", func(t *testing.T) {
		cfg := Default()
		err := cfg.ApplySettings(map[string]string{
			"brush_size":    "20",
			"dynamic_brush": "false",
			"camera":        "2",
		})
		if err != nil {
			t.Fatalf("ApplySettings() error: %v", err)
		}
		if cfg.BrushSize != 20 || cfg.DynamicBrush || cfg.CameraID != 2 {
			t.Errorf("settings not applied: %+v", cfg)
		}
	})

	t.Run("errors leave config unchanged", func(t *testing.T) {
		cases := []map[string]string{
			{"brush_size": "20", "no_such_setting": "1"},
			{"brush_size": "twenty"},
			{"eraser_size": "5"},
			{"brush_size": "NaN"},
			{"stable_threshold": "NaN"},
			{"pinch_threshold": "Inf"},
		}
		for _, values := range cases {
			cfg := Default()
			if err := cfg.ApplySettings(values); err == nil {
				t.Errorf("ApplySettings(%v) should fail", values)
			}
			if cfg.BrushSize != Default().BrushSize || cfg.EraserSize != Default().EraserSize {
				t.Errorf("ApplySettings(%v) modified config on error", values)
			}
		}
	})
}

func TestComponentConfigs(t *testing.T) {
	cfg := Default()
	cfg.Width, cfg.Height = 1280, 720

	tc := cfg.Tracking()
	if tc.ScaleX != 1280 || tc.ScaleY != 720 {
		t.Errorf("tracking scale = %gx%g", tc.ScaleX, tc.ScaleY)
	}
	cc := cfg.Canvas()
	if cc.Width != 1280 || cc.Height != 720 || cc.UndoDepth != 20 {
		t.Errorf("canvas config = %+v", cc)
	}
	if cfg.Detector().Mode != detector.ModeFast {
		t.Errorf("detector mode = %s", cfg.Detector().Mode)
	}
	if filepath.Base(cfg.DatabasePath()) != "aircanvas.db" {
		t.Errorf("DatabasePath() = %s", cfg.DatabasePath())
	}
}

func TestNames(t *testing.T) {
	seen := map[string]bool{}
	for _, n := range Names() {
		if seen[n] {
			t.Errorf("duplicate setting %q", n)
		}
		seen[n] = true
		cfg := Default()
		if err := cfg.Set(n, "not-a-valid-value-for-numbers"); err != nil && strings.Contains(err.Error(), "unknown setting") {
			t.Errorf("Names() lists %q but Set does not know it", n)
		}
	}
	for _, want := range []string{"smoothing_alpha", "undo_depth", "ui_band", "pinch_threshold"} {
		if !seen[want] {
			t.Errorf("missing setting %q", want)
		}
	}
}

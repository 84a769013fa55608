package gesture

import (
	"math"
	"testing"
	"time"

	"github.com/ayusman/aircanvas/internal/detector"
	"github.com/ayusman/aircanvas/internal/tracking"
)

// stateOf places a normalized fixture on a 640x480 frame.
func stateOf(h detector.HandLandmarks) tracking.State {
	return tracking.State{
		Landmarks:    h.Scaled(640, 480).Points,
		HasLandmarks: true,
		Detected:     true,
		Confidence:   h.Score,
		Handedness:   h.Handedness,
	}
}

// transformed applies f to every landmark of st.
func transformed(st tracking.State, f func(x, y float64) (float64, float64)) tracking.State {
	for i := range st.Landmarks {
		st.Landmarks[i].X, st.Landmarks[i].Y = f(st.Landmarks[i].X, st.Landmarks[i].Y)
	}
	return st
}

func newClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("NewClassifier() error: %v", err)
	}
	return c
}

var fixtures = []struct {
	name    string
	hand    func() detector.HandLandmarks
	fingers FingerState
	want    Gesture
}{
	{"pointing", detector.PointingLandmarks, Fingers(Index), Draw},
	{"pinch", detector.PinchLandmarks, 0, Erase},
	{"open palm", detector.OpenPalmLandmarks, AllFingers, Clear},
	{"three fingers", detector.ThreeFingerLandmarks, Fingers(Index, Middle, Ring), NextColor},
	{"thumb and pinky", detector.ThumbPinkyLandmarks, Fingers(Thumb, Pinky), Undo},
	{"fist", detector.FistLandmarks, 0, None},
}

func TestReadFingers(t *testing.T) {
	for _, tt := range fixtures {
		t.Run(tt.name, func(t *testing.T) {
			got := ReadFingers(stateOf(tt.hand()), 10, 4)
			if got != tt.fingers {
				t.Errorf("ReadFingers() = %s, want %s", got, tt.fingers)
			}
		})
	}
}

func TestReadFingers_OrientationInvariant(t *testing.T) {
	wrist := func(st tracking.State) (float64, float64) {
		p := st.Point(detector.Wrist)
		return p.X, p.Y
	}

	for _, tt := range fixtures {
		st := stateOf(tt.hand())
		cx, cy := wrist(st)

		t.Run(tt.name+"/tilted", func(t *testing.T) {
			sin, cos := math.Sincos(35 * math.Pi / 180)
			tilted := transformed(st, func(x, y float64) (float64, float64) {
				dx, dy := x-cx, y-cy
				return cx + dx*cos - dy*sin, cy + dx*sin + dy*cos
			})
			if got := ReadFingers(tilted, 10, 4); got != tt.fingers {
				t.Errorf("ReadFingers() = %s, want %s", got, tt.fingers)
			}
		})

		t.Run(tt.name+"/mirrored", func(t *testing.T) {
			mirrored := transformed(st, func(x, y float64) (float64, float64) {
				return 2*cx - x, y
			})
			if got := ReadFingers(mirrored, 10, 4); got != tt.fingers {
				t.Errorf("ReadFingers() = %s, want %s", got, tt.fingers)
			}
		})
	}
}

func TestFingerState(t *testing.T) {
	s := Fingers(Thumb, Pinky)
	if !s.Up(Thumb) || !s.Up(Pinky) || s.Up(Index) {
		t.Errorf("unexpected state %s", s)
	}
	if s.Count() != 2 {
		t.Errorf("Count() = %d, want 2", s.Count())
	}
	if s.String() != "10001" {
		t.Errorf("String() = %q, want 10001", s.String())
	}
	b, err := s.MarshalJSON()
	if err != nil || string(b) != `["thumb","pinky"]` {
		t.Errorf("MarshalJSON() = %s, %v", b, err)
	}
	if AllFingers.Count() != 5 {
		t.Errorf("AllFingers.Count() = %d", AllFingers.Count())
	}
}

func TestClassify_Fixtures(t *testing.T) {
	for _, tt := range fixtures {
		t.Run(tt.name, func(t *testing.T) {
			c := newClassifier(t)
			ev := c.Classify(stateOf(tt.hand()), time.Unix(0, 0))
			if ev.Gesture != tt.want || ev.Raw != tt.want {
				t.Errorf("gesture = %s (raw %s), want %s", ev.Gesture, ev.Raw, tt.want)
			}
			if !ev.Detected {
				t.Error("Detected should be true")
			}
		})
	}
}

func TestClassify_CursorAndBrush(t *testing.T) {
	c := newClassifier(t)
	st := stateOf(detector.PinchLandmarks())

	ev := c.Classify(st, time.Unix(0, 0))

	if ev.Cursor != st.Point(detector.IndexTip) {
		t.Errorf("Cursor = %+v, want index tip", ev.Cursor)
	}
	if math.Abs(ev.PinchDistance-8) > 1e-6 {
		t.Errorf("PinchDistance = %f, want 8", ev.PinchDistance)
	}
	if ev.BrushWidth != 4 {
		t.Errorf("BrushWidth = %f, want the minimum 4", ev.BrushWidth)
	}
}

func TestEvaluate_RuleOrder(t *testing.T) {
	rules := DefaultRules()
	tests := []struct {
		name string
		f    Features
		want Gesture
	}{
		{"draw beats pinch", Features{Fingers: Fingers(Index), PinchDistance: 5, PinchThreshold: 35}, Draw},
		{"pinch beats palm", Features{Fingers: AllFingers, PinchDistance: 5, PinchThreshold: 35}, Erase},
		{"palm without pinch", Features{Fingers: AllFingers, PinchDistance: 100, PinchThreshold: 35}, Clear},
		{"pinch at threshold is not a pinch", Features{PinchDistance: 35, PinchThreshold: 35}, None},
		{"three fingers with thumb", Features{Fingers: Fingers(Thumb, Index, Middle, Ring), PinchDistance: 100, PinchThreshold: 35}, None},
		{"two fingers", Features{Fingers: Fingers(Index, Middle), PinchDistance: 100, PinchThreshold: 35}, None},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(rules, tt.f); got != tt.want {
				t.Errorf("Evaluate() = %s, want %s", got, tt.want)
			}
		})
	}

	if rules[0].Gesture != Draw || rules[1].Gesture != Erase || rules[len(rules)-1].Gesture != Undo {
		t.Error("default rule order changed")
	}
}

func TestClassify_CooldownCollapsesRepeats(t *testing.T) {
	c := newClassifier(t)
	palm := stateOf(detector.OpenPalmLandmarks())
	start := time.Unix(100, 0)

	fired := 0
	for _, offset := range []time.Duration{0, 200 * time.Millisecond, 400 * time.Millisecond} {
		ev := c.Classify(palm, start.Add(offset))
		if ev.Gesture == Clear {
			fired++
		} else if !ev.Suppressed || ev.Raw != Clear || ev.Gesture != None {
			t.Errorf("at %s: expected suppressed CLEAR, got %+v", offset, ev)
		}
	}
	if fired != 1 {
		t.Fatalf("CLEAR fired %d times, want 1", fired)
	}

	// Suppressed frames do not extend the window: 500ms after the first
	// firing the gesture is available again.
	if ev := c.Classify(palm, start.Add(500*time.Millisecond)); ev.Gesture != Clear {
		t.Errorf("expected CLEAR to refire at the cooldown boundary, got %s", ev.Gesture)
	}
}

func TestClassify_CooldownsAreIndependent(t *testing.T) {
	c := newClassifier(t)
	now := time.Unix(0, 0)

	if ev := c.Classify(stateOf(detector.OpenPalmLandmarks()), now); ev.Gesture != Clear {
		t.Fatalf("got %s, want CLEAR", ev.Gesture)
	}
	if ev := c.Classify(stateOf(detector.ThumbPinkyLandmarks()), now.Add(10*time.Millisecond)); ev.Gesture != Undo {
		t.Errorf("UNDO should not be blocked by CLEAR's cooldown, got %s", ev.Gesture)
	}
	if ev := c.Classify(stateOf(detector.ThreeFingerLandmarks()), now.Add(20*time.Millisecond)); ev.Gesture != NextColor {
		t.Errorf("NEXT_COLOR should not be blocked, got %s", ev.Gesture)
	}
}

func TestClassify_ContinuousGesturesNeverCooledDown(t *testing.T) {
	c := newClassifier(t)
	point := stateOf(detector.PointingLandmarks())
	now := time.Unix(0, 0)

	for i := 0; i < 10; i++ {
		ev := c.Classify(point, now.Add(time.Duration(i)*time.Millisecond))
		if ev.Gesture != Draw || ev.Suppressed {
			t.Fatalf("frame %d: got %+v", i, ev)
		}
	}
}

func TestClassify_NoDetection(t *testing.T) {
	c := newClassifier(t)

	t.Run("never seen a hand", func(t *testing.T) {
		ev := c.Classify(tracking.State{}, time.Unix(0, 0))
		if ev.Gesture != None || ev.Raw != None || ev.Detected {
			t.Errorf("got %+v", ev)
		}
		if ev.BrushWidth != DefaultBrushSizer().Min {
			t.Errorf("BrushWidth = %f, want minimum", ev.BrushWidth)
		}
	})

	t.Run("held landmarks do not fire", func(t *testing.T) {
		held := stateOf(detector.OpenPalmLandmarks())
		held.Detected = false
		ev := c.Classify(held, time.Unix(0, 0))
		if ev.Gesture != None || ev.Raw != None {
			t.Errorf("got %s/%s, want NONE", ev.Gesture, ev.Raw)
		}
		if ev.Cursor != held.Point(detector.IndexTip) {
			t.Error("cursor should report the held index tip")
		}
	})
}

func TestClassify_Reset(t *testing.T) {
	c := newClassifier(t)
	palm := stateOf(detector.OpenPalmLandmarks())
	now := time.Unix(0, 0)

	c.Classify(palm, now)
	c.Reset()
	if ev := c.Classify(palm, now.Add(time.Millisecond)); ev.Gesture != Clear {
		t.Errorf("after Reset got %s, want CLEAR", ev.Gesture)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero separation", func(c *Config) { c.Separation = 0 }},
		{"negative thumb separation", func(c *Config) { c.ThumbSeparation = -1 }},
		{"zero pinch threshold", func(c *Config) { c.PinchThreshold = 0 }},
		{"negative cooldown", func(c *Config) { c.Cooldowns[Clear] = -time.Second }},
		{"cooldown on draw", func(c *Config) { c.Cooldowns[Draw] = time.Second }},
		{"brush min above max", func(c *Config) { c.Brush.Min = 50 }},
		{"NaN separation", func(c *Config) { c.Separation = math.NaN() }},
		{"infinite separation", func(c *Config) { c.Separation = math.Inf(1) }},
		{"NaN thumb separation", func(c *Config) { c.ThumbSeparation = math.NaN() }},
		{"NaN pinch threshold", func(c *Config) { c.PinchThreshold = math.NaN() }},
		{"infinite pinch threshold", func(c *Config) { c.PinchThreshold = math.Inf(1) }},
		{"NaN brush min", func(c *Config) { c.Brush.Min = math.NaN() }},
		{"NaN brush max", func(c *Config) { c.Brush.Max = math.NaN() }},
		{"infinite brush max", func(c *Config) { c.Brush.Max = math.Inf(1) }},
		{"NaN brush divisor", func(c *Config) { c.Brush.Divisor = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := NewClassifier(cfg, nil, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBrushSizer(t *testing.T) {
	b := DefaultBrushSizer()

	tests := []struct {
		pinch float64
		want  float64
	}{
		{0, 4},
		{12, 4},
		{30, 10},
		{120, 40},
		{500, 40},
	}
	for _, tt := range tests {
		if got := b.Width(tt.pinch); got != tt.want {
			t.Errorf("Width(%f) = %f, want %f", tt.pinch, got, tt.want)
		}
	}

	prev := b.Width(0)
	for d := 0.0; d <= 200; d += 0.5 {
		w := b.Width(d)
		if w < prev {
			t.Fatalf("Width is not monotonic at %f", d)
		}
		prev = w
	}
}

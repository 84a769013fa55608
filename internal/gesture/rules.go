package gesture

// Gesture is a classified hand pose.
type Gesture string

const (
	None      Gesture = "NONE"
	Draw      Gesture = "DRAW"
	Erase     Gesture = "ERASE"
	Clear     Gesture = "CLEAR"
	NextColor Gesture = "NEXT_COLOR"
	Undo      Gesture = "UNDO"
)

// Discrete reports whether g is a one-shot gesture subject to cooldown.
// DRAW and ERASE are continuous and act on every frame.
func (g Gesture) Discrete() bool {
	switch g {
	case Clear, NextColor, Undo:
		return true
	}
	return false
}

// Features are the measurements rules match against.
type Features struct {
	Fingers        FingerState
	PinchDistance  float64
	PinchThreshold float64
}

// Rule maps a finger configuration to a gesture.
type Rule struct {
	Name    string
	Gesture Gesture
	Match   func(Features) bool
}

// exactly matches when the extended fingers are precisely up.
func exactly(up ...Finger) func(Features) bool {
	want := Fingers(up...)
	return func(f Features) bool { return f.Fingers == want }
}

// DefaultRules returns the gesture table in priority order. The first
// matching rule wins; a hand matching none is NONE.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "index only", Gesture: Draw, Match: exactly(Index)},
		{Name: "pinch", Gesture: Erase, Match: func(f Features) bool {
			return f.PinchDistance < f.PinchThreshold
		}},
		{Name: "open palm", Gesture: Clear, Match: exactly(Thumb, Index, Middle, Ring, Pinky)},
		{Name: "three fingers", Gesture: NextColor, Match: exactly(Index, Middle, Ring)},
		{Name: "thumb and pinky", Gesture: Undo, Match: exactly(Thumb, Pinky)},
	}
}

// Evaluate walks rules in order and returns the first matching gesture.
func Evaluate(rules []Rule, f Features) Gesture {
	for _, r := range rules {
		if r.Match(f) {
			return r.Gesture
		}
	}
	return None
}

// Package gesture turns stabilized hand landmarks into discrete drawing
// gestures.
package gesture

import (
	"encoding/json"
	"strings"

	"github.com/ayusman/aircanvas/internal/detector"
	"github.com/ayusman/aircanvas/internal/geom"
	"github.com/ayusman/aircanvas/internal/tracking"
)

// Finger identifies one digit of the hand.
type Finger uint8

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
)

var fingerNames = [...]string{"thumb", "index", "middle", "ring", "pinky"}

func (f Finger) String() string {
	if int(f) < len(fingerNames) {
		return fingerNames[f]
	}
	return "unknown"
}

// FingerState is a bit set of extended fingers.
type FingerState uint8

// AllFingers has every finger extended.
const AllFingers FingerState = 1<<5 - 1

// Fingers returns the state with exactly the given fingers extended.
func Fingers(up ...Finger) FingerState {
	var s FingerState
	for _, f := range up {
		s |= 1 << f
	}
	return s
}

// Up reports whether f is extended.
func (s FingerState) Up(f Finger) bool {
	return s&(1<<f) != 0
}

// Count returns the number of extended fingers.
func (s FingerState) Count() int {
	n := 0
	for f := Thumb; f <= Pinky; f++ {
		if s.Up(f) {
			n++
		}
	}
	return n
}

// String renders the state thumb first, e.g. "01000" for a pointing hand.
func (s FingerState) String() string {
	var b strings.Builder
	for f := Thumb; f <= Pinky; f++ {
		if s.Up(f) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// MarshalJSON encodes the state as the list of extended finger names.
func (s FingerState) MarshalJSON() ([]byte, error) {
	up := make([]string, 0, 5)
	for f := Thumb; f <= Pinky; f++ {
		if s.Up(f) {
			up = append(up, f.String())
		}
	}
	return json.Marshal(up)
}

// fingerJoints lists the PIP and tip landmark of each non-thumb finger.
var fingerJoints = [...]struct {
	finger   Finger
	pip, tip int
}{
	{Index, detector.IndexPIP, detector.IndexTip},
	{Middle, detector.MiddlePIP, detector.MiddleTip},
	{Ring, detector.RingPIP, detector.RingTip},
	{Pinky, detector.PinkyPIP, detector.PinkyTip},
}

// ReadFingers decides which fingers are extended.
//
// Non-thumb fingers are measured along the principal hand axis (wrist to
// middle MCP) so a tilted hand reads the same as an upright one. The thumb is
// measured along the lateral axis across the knuckles, oriented towards the
// index side, which makes the test independent of handedness and mirroring.
func ReadFingers(st tracking.State, separation, thumbSeparation float64) FingerState {
	wrist := st.Point(detector.Wrist)
	axis := st.Point(detector.MiddleMCP).Sub(wrist).Unit()

	var s FingerState
	for _, j := range fingerJoints {
		if st.Point(j.tip).Sub(st.Point(j.pip)).Dot(axis) > separation {
			s |= 1 << j.finger
		}
	}

	across := st.Point(detector.IndexMCP).Sub(st.Point(detector.PinkyMCP))
	along := across.Dot(axis)
	lateral := geom.Pt(across.X-along*axis.X, across.Y-along*axis.Y).Unit()
	if st.Point(detector.ThumbTip).Sub(st.Point(detector.ThumbIP)).Dot(lateral) > thumbSeparation {
		s |= 1 << Thumb
	}
	return s
}

// PinchDistance is the pixel distance between the thumb and index tips.
func PinchDistance(st tracking.State) float64 {
	return st.Point(detector.ThumbTip).Dist(st.Point(detector.IndexTip))
}

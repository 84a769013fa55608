// Package detector provides hand detection interfaces and landmark types.
package detector

import "github.com/ayusman/aircanvas/internal/geom"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Handedness tags reported by the detector.
const (
	Left  = "Left"
	Right = "Right"
)

// Point3D represents a 3D point in space with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// XY drops the depth component.
func (p Point3D) XY() geom.Point {
	return geom.Point{X: p.X, Y: p.Y}
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe for a
// single hand in a single frame.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Scaled returns a copy with x and y multiplied by sx and sy. It converts
// normalized [0,1] detector output to pixel space.
func (h *HandLandmarks) Scaled(sx, sy float64) *HandLandmarks {
	if h == nil {
		return nil
	}

	scaled := &HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}
	for i := 0; i < NumLandmarks; i++ {
		scaled.Points[i] = Point3D{
			X: h.Points[i].X * sx,
			Y: h.Points[i].Y * sy,
			Z: h.Points[i].Z,
		}
	}
	return scaled
}

// BestHand returns the hand with the highest detection score, or nil when
// hands is empty. Only one hand drives the canvas.
func BestHand(hands []HandLandmarks) *HandLandmarks {
	if len(hands) == 0 {
		return nil
	}

	best := 0
	for i := 1; i < len(hands); i++ {
		if hands[i].Score > hands[best].Score {
			best = i
		}
	}
	h := hands[best]
	return &h
}

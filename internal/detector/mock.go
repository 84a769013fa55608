package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls reports how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Fixture geometry: an upright right hand seen through a mirrored camera,
// wrist at the bottom, thumb on the +x side. Coordinates are normalized.
var fixtureMCP = [5]Point3D{
	{X: 0.61, Y: 0.72}, // thumb MCP
	{X: 0.55, Y: 0.62}, // index
	{X: 0.50, Y: 0.60}, // middle
	{X: 0.45, Y: 0.62}, // ring
	{X: 0.40, Y: 0.65}, // pinky
}

// handFixture builds landmarks with the given fingers extended, in the order
// thumb, index, middle, ring, pinky.
func handFixture(thumb, index, middle, ring, pinky bool) HandLandmarks {
	h := HandLandmarks{Handedness: Right, Score: 0.95}

	h.Points[Wrist] = Point3D{X: 0.50, Y: 0.80}
	h.Points[ThumbCMC] = Point3D{X: 0.56, Y: 0.76}
	h.Points[ThumbMCP] = fixtureMCP[0]
	h.Points[ThumbIP] = Point3D{X: 0.65, Y: 0.68}
	if thumb {
		h.Points[ThumbTip] = Point3D{X: 0.70, Y: 0.64}
	} else {
		h.Points[ThumbTip] = Point3D{X: 0.60, Y: 0.74}
	}

	setFinger(&h, IndexMCP, fixtureMCP[1], index)
	setFinger(&h, MiddleMCP, fixtureMCP[2], middle)
	setFinger(&h, RingMCP, fixtureMCP[3], ring)
	setFinger(&h, PinkyMCP, fixtureMCP[4], pinky)
	return h
}

// setFinger fills the MCP, PIP, DIP and tip landmarks starting at mcpIndex.
func setFinger(h *HandLandmarks, mcpIndex int, mcp Point3D, extended bool) {
	h.Points[mcpIndex] = mcp
	if extended {
		h.Points[mcpIndex+1] = Point3D{X: mcp.X, Y: mcp.Y - 0.08}
		h.Points[mcpIndex+2] = Point3D{X: mcp.X, Y: mcp.Y - 0.14}
		h.Points[mcpIndex+3] = Point3D{X: mcp.X, Y: mcp.Y - 0.19}
		return
	}
	h.Points[mcpIndex+1] = Point3D{X: mcp.X, Y: mcp.Y - 0.04, Z: -0.03}
	h.Points[mcpIndex+2] = Point3D{X: mcp.X - 0.01, Y: mcp.Y - 0.01, Z: -0.04}
	h.Points[mcpIndex+3] = Point3D{X: mcp.X - 0.01, Y: mcp.Y + 0.02, Z: -0.02}
}

// PointingLandmarks returns a hand with only the index finger extended.
func PointingLandmarks() HandLandmarks {
	return handFixture(false, true, false, false, false)
}

// OpenPalmLandmarks returns a hand with all five fingers extended.
func OpenPalmLandmarks() HandLandmarks {
	return handFixture(true, true, true, true, true)
}

// ThreeFingerLandmarks returns a hand with index, middle and ring extended.
func ThreeFingerLandmarks() HandLandmarks {
	return handFixture(false, true, true, true, false)
}

// ThumbPinkyLandmarks returns a hand with only thumb and pinky extended.
func ThumbPinkyLandmarks() HandLandmarks {
	return handFixture(true, false, false, false, true)
}

// FistLandmarks returns a closed hand with the thumb tucked away from the
// index tip.
func FistLandmarks() HandLandmarks {
	return handFixture(false, false, false, false, false)
}

// PinchLandmarks returns a hand whose thumb tip and bent index tip touch.
func PinchLandmarks() HandLandmarks {
	h := handFixture(false, false, false, false, false)
	h.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.55}
	h.Points[IndexDIP] = Point3D{X: 0.60, Y: 0.54}
	h.Points[IndexTip] = Point3D{X: 0.62, Y: 0.56}
	h.Points[ThumbTip] = Point3D{X: 0.63, Y: 0.57}
	return h
}

// Translated returns a copy of h moved by dx, dy.
func Translated(h HandLandmarks, dx, dy float64) HandLandmarks {
	for i := range h.Points {
		h.Points[i].X += dx
		h.Points[i].Y += dy
	}
	return h
}

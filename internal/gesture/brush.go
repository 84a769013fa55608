package gesture

import (
	"fmt"
	"math"
)

// BrushSizer derives a brush width from the pinch distance: a wider pinch
// gives a thicker line.
type BrushSizer struct {
	Min     float64
	Max     float64
	Divisor float64
}

// DefaultBrushSizer maps pinch/3 into [4, 40].
func DefaultBrushSizer() BrushSizer {
	return BrushSizer{Min: 4, Max: 40, Divisor: 3}
}

// Validate reports an unusable range.
func (b BrushSizer) Validate() error {
	if !positive(b.Min) {
		return fmt.Errorf("brush min must be positive and finite, got %g", b.Min)
	}
	if !positive(b.Max) {
		return fmt.Errorf("brush max must be positive and finite, got %g", b.Max)
	}
	if b.Min > b.Max {
		return fmt.Errorf("brush min %g exceeds max %g", b.Min, b.Max)
	}
	if !positive(b.Divisor) {
		return fmt.Errorf("brush divisor must be positive and finite, got %g", b.Divisor)
	}
	return nil
}

// positive is false for NaN and +Inf as well as for x <= 0.
func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 1)
}

// Width returns clamp(pinch/Divisor, Min, Max).
func (b BrushSizer) Width(pinch float64) float64 {
	return math.Max(b.Min, math.Min(b.Max, pinch/b.Divisor))
}

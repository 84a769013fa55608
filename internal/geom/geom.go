// Package geom provides the small 2D point type shared by the tracking,
// gesture, stroke and canvas packages.
package geom

import (
	"image"
	"math"
)

// Point is a position in canvas pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Dot returns the dot product of p and q.
func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Len returns the Euclidean length of p.
func (p Point) Len() float64 {
	return math.Hypot(p.X, p.Y)
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Unit returns p scaled to length 1. The zero vector is returned unchanged.
func (p Point) Unit() Point {
	l := p.Len()
	if l < 1e-10 {
		return p
	}
	return Point{X: p.X / l, Y: p.Y / l}
}

// Clamp limits p to the rectangle [0, w-1] x [0, h-1]. A NaN coordinate
// becomes 0.
func (p Point) Clamp(w, h int) Point {
	return Point{X: clampAxis(p.X, w), Y: clampAxis(p.Y, h)}
}

func clampAxis(v float64, n int) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(float64(n-1), v))
}

// Bounds returns the integer rectangle covering the segment a-b widened by pad
// on every side.
func Bounds(a, b Point, pad float64) image.Rectangle {
	return image.Rect(
		int(math.Floor(math.Min(a.X, b.X)-pad)),
		int(math.Floor(math.Min(a.Y, b.Y)-pad)),
		int(math.Ceil(math.Max(a.X, b.X)+pad))+1,
		int(math.Ceil(math.Max(a.Y, b.Y)+pad))+1,
	)
}

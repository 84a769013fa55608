package canvas

import (
	"fmt"
	"image/color"
)

// NamedColor is a palette entry.
type NamedColor struct {
	Name string     `json:"name"`
	RGBA color.RGBA `json:"rgba"`
}

// Palette is the drawing palette in cycling order.
var Palette = []NamedColor{
	{"BLUE", color.RGBA{R: 0, G: 0, B: 255, A: 255}},
	{"GREEN", color.RGBA{R: 0, G: 255, B: 0, A: 255}},
	{"RED", color.RGBA{R: 255, G: 0, B: 0, A: 255}},
	{"YELLOW", color.RGBA{R: 255, G: 255, B: 0, A: 255}},
	{"PURPLE", color.RGBA{R: 255, G: 0, B: 255, A: 255}},
	{"ORANGE", color.RGBA{R: 255, G: 165, B: 0, A: 255}},
	{"CYAN", color.RGBA{R: 0, G: 255, B: 255, A: 255}},
	{"WHITE", color.RGBA{R: 255, G: 255, B: 255, A: 255}},
}

// Background is the color of an empty canvas and of the eraser.
var Background = color.RGBA{A: 255}

// Tool selects what a DRAW gesture does.
type Tool int

const (
	Pen Tool = iota
	Eraser
)

func (t Tool) String() string {
	switch t {
	case Pen:
		return "pen"
	case Eraser:
		return "eraser"
	}
	return fmt.Sprintf("Tool(%d)", int(t))
}

// MarshalText encodes the tool by name.
func (t Tool) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ParseTool converts "pen" or "eraser" into a Tool.
func ParseTool(s string) (Tool, error) {
	switch s {
	case "pen":
		return Pen, nil
	case "eraser":
		return Eraser, nil
	}
	return Pen, fmt.Errorf("unknown tool %q", s)
}

package app

import (
	"image"
	"image/color"
	"sync"
	"time"

	"golang.org/x/image/draw"

	"github.com/ayusman/aircanvas/internal/canvas"
	"github.com/ayusman/aircanvas/internal/geom"
	"github.com/ayusman/aircanvas/internal/gesture"
)

// Toolbar layout in pixels.
const (
	toolbarMargin = 15
	toolbarTop    = 15
	// the band keeps this much clear space under the buttons
	toolbarGap = 10
)

// DefaultToolbarDebounce keeps one hover from pressing a button on
// consecutive frames.
const DefaultToolbarDebounce = 500 * time.Millisecond

// UIHandler is the on-screen control layer. Hover receives DRAW gestures
// that land in the toolbar band and returns the command to run, or a zero
// Command for none; debouncing is the handler's job. Leave is called when
// the hand moves away, and Draw paints the controls over a rendered frame.
type UIHandler interface {
	Hover(g gesture.Gesture, p geom.Point, now time.Time) Command
	Leave()
	Draw(dst draw.Image, colorIndex int, tool canvas.Tool)
}

// Button is one toolbar entry.
type Button struct {
	Label   string          `json:"label"`
	Rect    image.Rectangle `json:"rect"`
	Color   color.RGBA      `json:"color"`
	Command Command         `json:"command"`
}

// Toolbar is the button row across the top band: one button per palette
// color followed by eraser, clear and undo.
type Toolbar struct {
	mu        sync.Mutex
	buttons   []Button
	debounce  time.Duration
	lastPress time.Time
	hover     int
}

// NewToolbar lays out buttons for a frame of the given width and a band of
// the given height. A band too short for buttons yields an empty toolbar.
func NewToolbar(width, band int, debounce time.Duration) *Toolbar {
	t := &Toolbar{debounce: debounce, hover: -1}

	type entry struct {
		label string
		col   color.RGBA
		cmd   Command
	}
	var entries []entry
	for i, c := range canvas.Palette {
		entries = append(entries, entry{c.Name, c.RGBA, Command{Action: ActionColor, Index: i}})
	}
	entries = append(entries,
		entry{"ERASER", color.RGBA{R: 80, G: 80, B: 80, A: 255}, Command{Action: ActionEraser}},
		entry{"CLEAR", color.RGBA{R: 0, G: 0, B: 180, A: 255}, Command{Action: ActionClear}},
		entry{"UNDO", color.RGBA{R: 180, G: 120, B: 0, A: 255}, Command{Action: ActionUndo}},
	)

	n := len(entries)
	w := (width - toolbarMargin*(n+1)) / n
	h := band - toolbarGap - 2*toolbarTop
	if w <= 0 || h <= 0 {
		return t
	}

	x := toolbarMargin
	for _, e := range entries {
		t.buttons = append(t.buttons, Button{
			Label:   e.label,
			Rect:    image.Rect(x, toolbarTop, x+w, toolbarTop+h),
			Color:   e.col,
			Command: e.cmd,
		})
		x += w + toolbarMargin
	}
	return t
}

// Buttons returns a copy of the layout.
func (t *Toolbar) Buttons() []Button {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Button(nil), t.buttons...)
}

// Hover presses the button under p when g is DRAW and the debounce interval
// since the last press has passed.
func (t *Toolbar) Hover(g gesture.Gesture, p geom.Point, now time.Time) Command {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.hover = t.hit(p)
	if g != gesture.Draw || t.hover < 0 {
		return Command{}
	}
	if !t.lastPress.IsZero() && now.Sub(t.lastPress) < t.debounce {
		return Command{}
	}
	t.lastPress = now
	return t.buttons[t.hover].Command
}

// Leave clears the hover highlight.
func (t *Toolbar) Leave() {
	t.mu.Lock()
	t.hover = -1
	t.mu.Unlock()
}

func (t *Toolbar) hit(p geom.Point) int {
	pt := image.Pt(int(p.X), int(p.Y))
	for i, b := range t.buttons {
		if pt.In(b.Rect) {
			return i
		}
	}
	return -1
}

// Draw paints the toolbar onto dst. The selected color (or the eraser) gets
// a white outline and the hovered button a gray one.
func (t *Toolbar) Draw(dst draw.Image, colorIndex int, tool canvas.Tool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, b := range t.buttons {
		draw.Draw(dst, b.Rect, image.NewUniform(b.Color), image.Point{}, draw.Src)

		selected := false
		switch b.Command.Action {
		case ActionColor:
			selected = tool == canvas.Pen && b.Command.Index == colorIndex
		case ActionEraser:
			selected = tool == canvas.Eraser
		}
		switch {
		case selected:
			outline(dst, b.Rect, 3, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		case i == t.hover:
			outline(dst, b.Rect, 2, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
}

func outline(dst draw.Image, r image.Rectangle, width int, c color.RGBA) {
	src := image.NewUniform(c)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width), src, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y), src, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y), src, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y), src, image.Point{}, draw.Src)
}

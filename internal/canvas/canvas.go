// Package canvas holds the drawing raster, the active stroke, tool and
// brush state, and a bounded undo history.
package canvas

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gg"

	"github.com/ayusman/aircanvas/internal/geom"
	"github.com/ayusman/aircanvas/internal/stroke"
)

// Size limits accepted by SetBrushSize and SetEraserSize.
const (
	MinBrushSize  = 1
	MaxBrushSize  = 50
	MinEraserSize = 10
	MaxEraserSize = 100
)

// Config describes a canvas.
type Config struct {
	Width  int
	Height int
	// UndoDepth is the number of undo steps kept.
	UndoDepth int
	// SmoothingWindow is the number of raw points averaged per stroke point.
	SmoothingWindow int
	BrushSize       float64
	EraserSize      float64
	// UIBandHeight is the height of the strip at the top of the frame that
	// belongs to the toolbar, margin included. Points inside it never draw.
	UIBandHeight int
}

// DefaultConfig returns the defaults for a width x height canvas.
func DefaultConfig(width, height int) Config {
	return Config{
		Width:           width,
		Height:          height,
		UndoDepth:       20,
		SmoothingWindow: stroke.DefaultWindow,
		BrushSize:       8,
		EraserSize:      50,
		UIBandHeight:    100,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("canvas size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.UndoDepth < 1 {
		return fmt.Errorf("undo depth must be at least 1, got %d", c.UndoDepth)
	}
	if c.SmoothingWindow < 1 {
		return fmt.Errorf("smoothing window must be at least 1, got %d", c.SmoothingWindow)
	}
	if err := checkRange("brush size", c.BrushSize, MinBrushSize, MaxBrushSize); err != nil {
		return err
	}
	if err := checkRange("eraser size", c.EraserSize, MinEraserSize, MaxEraserSize); err != nil {
		return err
	}
	if c.UIBandHeight < 0 || c.UIBandHeight >= c.Height {
		return fmt.Errorf("UI band height must be in [0, %d), got %d", c.Height, c.UIBandHeight)
	}
	return nil
}

func checkRange(name string, v, lo, hi float64) error {
	if !(v >= lo && v <= hi) {
		return fmt.Errorf("%s must be in [%g, %g], got %g", name, lo, hi, v)
	}
	return nil
}

// Canvas is the drawing surface. It is not safe for concurrent use; callers
// serialize access.
type Canvas struct {
	cfg Config

	pm *gg.Pixmap
	dc *gg.Context

	smoother *stroke.Smoother
	active   *stroke.Stroke

	erasing    bool // an erase run is in progress
	eraseNoop  bool // the run started on an empty canvas
	lastErase  geom.Point
	colorIndex int
	tool       Tool
	brushSize  float64
	eraserSize float64

	undo  *history
	dirty image.Rectangle

	// scratch surface for Render
	overlay   *gg.Pixmap
	overlayDC *gg.Context
}

// New allocates an empty canvas.
func New(cfg Config) (*Canvas, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sm, err := stroke.NewSmoother(cfg.SmoothingWindow, cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}

	pm := gg.NewPixmap(cfg.Width, cfg.Height)
	pm.Clear(gg.FromColor(Background))
	dc := gg.NewContext(cfg.Width, cfg.Height, gg.WithPixmap(pm))
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)

	return &Canvas{
		cfg:        cfg,
		pm:         pm,
		dc:         dc,
		smoother:   sm,
		brushSize:  cfg.BrushSize,
		eraserSize: cfg.EraserSize,
		undo:       newHistory(cfg.UndoDepth),
	}, nil
}

// Close releases the drawing contexts.
func (c *Canvas) Close() error {
	if c.overlayDC != nil {
		_ = c.overlayDC.Close()
	}
	return c.dc.Close()
}

// Width returns the raster width.
func (c *Canvas) Width() int { return c.cfg.Width }

// Height returns the raster height.
func (c *Canvas) Height() int { return c.cfg.Height }

// Bounds returns the raster rectangle.
func (c *Canvas) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.cfg.Width, c.cfg.Height)
}

// Color returns the selected palette entry.
func (c *Canvas) Color() NamedColor { return Palette[c.colorIndex] }

// ColorIndex returns the selected palette index.
func (c *Canvas) ColorIndex() int { return c.colorIndex }

// Tool returns the selected tool.
func (c *Canvas) Tool() Tool { return c.tool }

// BrushSize returns the pen width.
func (c *Canvas) BrushSize() float64 { return c.brushSize }

// EraserSize returns the eraser width.
func (c *Canvas) EraserSize() float64 { return c.eraserSize }

// UndoDepth returns the number of snapshots on the undo stack.
func (c *Canvas) UndoDepth() int { return c.undo.len() }

// Stroking reports whether a pen stroke is open.
func (c *Canvas) Stroking() bool { return c.active != nil }

// Erasing reports whether an erase run is in progress.
func (c *Canvas) Erasing() bool { return c.erasing }

// Preview returns the smoothed points of the open stroke, or nil.
func (c *Canvas) Preview() []geom.Point {
	if c.active == nil {
		return nil
	}
	return c.active.Preview()
}

// IsInDrawZone reports whether p may draw: inside the raster and below the
// UI band.
func (c *Canvas) IsInDrawZone(p geom.Point) bool {
	return p.Y >= float64(c.cfg.UIBandHeight) &&
		p.X >= 0 && p.X < float64(c.cfg.Width) && p.Y < float64(c.cfg.Height)
}

// CycleColor advances to the next palette color and selects the pen.
func (c *Canvas) CycleColor() NamedColor {
	c.EndStroke()
	c.colorIndex = (c.colorIndex + 1) % len(Palette)
	c.tool = Pen
	return Palette[c.colorIndex]
}

// SelectColor picks a palette entry by index and selects the pen.
func (c *Canvas) SelectColor(i int) error {
	if i < 0 || i >= len(Palette) {
		return fmt.Errorf("color index %d out of range [0, %d)", i, len(Palette))
	}
	c.EndStroke()
	c.colorIndex = i
	c.tool = Pen
	return nil
}

// SetTool switches between pen and eraser, closing any open stroke.
func (c *Canvas) SetTool(t Tool) error {
	if t != Pen && t != Eraser {
		return fmt.Errorf("unknown tool %d", int(t))
	}
	if t != c.tool {
		c.EndStroke()
	}
	c.tool = t
	return nil
}

// SetBrushSize sets the pen width for strokes begun afterwards.
func (c *Canvas) SetBrushSize(size float64) error {
	if err := checkRange("brush size", size, MinBrushSize, MaxBrushSize); err != nil {
		return err
	}
	c.brushSize = size
	return nil
}

// SetEraserSize sets the eraser width.
func (c *Canvas) SetEraserSize(size float64) error {
	if err := checkRange("eraser size", size, MinEraserSize, MaxEraserSize); err != nil {
		return err
	}
	c.eraserSize = size
	return nil
}

// BeginStroke opens a pen stroke. An open stroke or erase run is ended
// first. A non-positive or non-finite width uses the current brush size.
func (c *Canvas) BeginStroke(col color.RGBA, width float64) {
	c.EndStroke()
	if !usableWidth(width) {
		width = c.brushSize
	}
	c.active = stroke.New(col, width)
}

// ExtendStroke appends p to the open stroke and returns the smoothed point.
// It returns false when no stroke is open.
func (c *Canvas) ExtendStroke(p geom.Point) (geom.Point, bool) {
	if c.active == nil {
		return geom.Point{}, false
	}
	prev, hadPrev := c.active.Last()
	sp, ok := c.smoother.Append(c.active, p)
	if !ok {
		return geom.Point{}, false
	}
	if !hadPrev {
		prev = sp
	}
	c.markDirty(geom.Bounds(prev, sp, c.active.Width/2+2))
	return sp, true
}

// EndStroke commits the open pen stroke to the raster and ends any erase
// run. It reports whether a stroke was committed. A stroke without points
// leaves the raster and undo stack untouched.
func (c *Canvas) EndStroke() bool {
	c.erasing = false
	c.eraseNoop = false

	s := c.active
	if s == nil {
		return false
	}
	c.active = nil
	s.Seal()
	if s.Len() == 0 {
		return false
	}

	c.pushSnapshot()
	c.rasterize(s.Points(), s.Color, s.Width)
	return true
}

// AbandonStroke discards the open stroke without drawing it.
func (c *Canvas) AbandonStroke() {
	if c.active != nil {
		c.active.Seal()
		c.markDirty(strokeBounds(c.active.Points(), c.active.Width))
		c.active = nil
	}
	c.erasing = false
	c.eraseNoop = false
}

// Erase paints the background color along the erase run at p. The first call
// of a run pushes one undo snapshot. Erasing an empty canvas does nothing.
func (c *Canvas) Erase(p geom.Point, width float64) {
	if c.active != nil {
		c.EndStroke()
	}
	if !usableWidth(width) {
		width = c.eraserSize
	}
	p = p.Clamp(c.cfg.Width, c.cfg.Height)

	if !c.erasing {
		c.erasing = true
		c.eraseNoop = c.IsEmpty()
		c.lastErase = p
		if c.eraseNoop {
			return
		}
		c.pushSnapshot()
		c.rasterize([]geom.Point{p}, Background, width)
		return
	}
	if c.eraseNoop {
		return
	}
	c.rasterize([]geom.Point{c.lastErase, p}, Background, width)
	c.lastErase = p
}

// Clear wipes the raster. It is one undo step unless the canvas was already
// empty.
func (c *Canvas) Clear() {
	c.AbandonStroke()
	if c.IsEmpty() {
		return
	}
	c.pushSnapshot()
	c.pm.Clear(gg.FromColor(Background))
	c.markDirty(c.Bounds())
}

// Undo restores the most recent snapshot. It returns false when there is
// nothing to undo.
func (c *Canvas) Undo() bool {
	c.AbandonStroke()
	snap, ok := c.undo.pop()
	if !ok {
		return false
	}
	c.restore(snap)
	return true
}

// IsEmpty reports whether every pixel is the background color.
func (c *Canvas) IsEmpty() bool {
	data := c.pm.Data()
	for i := 0; i < len(data); i += 4 {
		if data[i] != Background.R || data[i+1] != Background.G || data[i+2] != Background.B {
			return false
		}
	}
	return true
}

// ContentBounds returns the bounding box of non-background pixels. It
// returns false on an empty canvas.
func (c *Canvas) ContentBounds() (image.Rectangle, bool) {
	data := c.pm.Data()
	w, h := c.cfg.Width, c.cfg.Height
	box := image.Rectangle{}
	found := false
	for y := 0; y < h; y++ {
		row := data[y*w*4 : (y+1)*w*4]
		for x := 0; x < w; x++ {
			i := x * 4
			if row[i] == Background.R && row[i+1] == Background.G && row[i+2] == Background.B {
				continue
			}
			px := image.Rect(x, y, x+1, y+1)
			if !found {
				box, found = px, true
			} else {
				box = box.Union(px)
			}
		}
	}
	return box, found
}

// Dirty returns the region changed since the last FrameDrawn.
func (c *Canvas) Dirty() image.Rectangle {
	return c.dirty
}

// FrameDrawn resets the dirty region.
func (c *Canvas) FrameDrawn() {
	c.dirty = image.Rectangle{}
}

// View returns the live raster without copying. It must not be retained
// across calls that mutate the canvas.
func (c *Canvas) View() image.Image {
	return c.pm
}

// Image returns a copy of the raster.
func (c *Canvas) Image() *image.RGBA {
	return c.pm.ToImage()
}

// Pixels returns a copy of the raw RGBA bytes.
func (c *Canvas) Pixels() []byte {
	out := make([]byte, len(c.pm.Data()))
	copy(out, c.pm.Data())
	return out
}

// pushSnapshot records the current raster, or the blank marker when empty.
func (c *Canvas) pushSnapshot() {
	if c.IsEmpty() {
		c.undo.push([]byte{})
		return
	}
	c.undo.push(c.Pixels())
}

func (c *Canvas) restore(snap []byte) {
	if len(snap) == 0 {
		c.pm.Clear(gg.FromColor(Background))
	} else {
		copy(c.pm.Data(), snap)
	}
	c.markDirty(c.Bounds())
}

// rasterize draws a polyline with round caps and joins. A single point
// becomes a dot.
func (c *Canvas) rasterize(pts []geom.Point, col color.RGBA, width float64) {
	if len(pts) == 0 {
		return
	}
	c.dc.SetColor(col)
	if len(pts) == 1 {
		c.dc.DrawCircle(pts[0].X, pts[0].Y, width/2)
		_ = c.dc.Fill()
	} else {
		c.dc.SetLineWidth(width)
		c.dc.MoveTo(pts[0].X, pts[0].Y)
		for _, p := range pts[1:] {
			c.dc.LineTo(p.X, p.Y)
		}
		_ = c.dc.Stroke()
	}

	r := strokeBounds(pts, width).Intersect(c.Bounds())
	c.forceOpaque(r)
	c.markDirty(r)
}

// forceOpaque resets alpha inside r so that the raster stays fully opaque
// after anti-aliased compositing.
func (c *Canvas) forceOpaque(r image.Rectangle) {
	data := c.pm.Data()
	w := c.cfg.Width
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			data[(y*w+x)*4+3] = 255
		}
	}
}

func (c *Canvas) markDirty(r image.Rectangle) {
	r = r.Intersect(c.Bounds())
	if r.Empty() {
		return
	}
	c.dirty = c.dirty.Union(r)
}

// strokeBounds covers every point of a polyline drawn with the given width.
func strokeBounds(pts []geom.Point, width float64) image.Rectangle {
	var r image.Rectangle
	for i, p := range pts {
		b := geom.Bounds(p, p, width/2+2)
		if i == 0 {
			r = b
			continue
		}
		r = r.Union(b)
	}
	return r
}

func usableWidth(w float64) bool {
	return w > 0 && !math.IsInf(w, 1)
}

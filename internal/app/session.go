package app

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/aircanvas/internal/canvas"
	"github.com/ayusman/aircanvas/internal/config"
	"github.com/ayusman/aircanvas/internal/detector"
	"github.com/ayusman/aircanvas/internal/geom"
	"github.com/ayusman/aircanvas/internal/gesture"
	"github.com/ayusman/aircanvas/internal/tracking"
)

// ErrSessionClosed is returned by commands issued after Shutdown.
var ErrSessionClosed = errors.New("session is closed")

// ErrUnknownAction is returned by Apply for an action it does not know.
var ErrUnknownAction = errors.New("unknown action")

// Action names a canvas command issued from a UI.
type Action string

const (
	ActionClear      Action = "clear"
	ActionUndo       Action = "undo"
	ActionNextColor  Action = "next_color"
	ActionPen        Action = "pen"
	ActionEraser     Action = "eraser"
	ActionColor      Action = "color"
	ActionBrushSize  Action = "brush_size"
	ActionEraserSize Action = "eraser_size"
)

// Command is a UI request. Index is used by ActionColor and Size by the
// size actions.
type Command struct {
	Action Action  `json:"action"`
	Index  int     `json:"index,omitempty"`
	Size   float64 `json:"size,omitempty"`
}

// FrameOutput is what one tick produced, plus the canvas state after it.
type FrameOutput struct {
	Event      gesture.Event     `json:"event"`
	HasCursor  bool              `json:"has_cursor"`
	InDrawZone bool              `json:"in_draw_zone"`
	Tool       canvas.Tool       `json:"tool"`
	Color      canvas.NamedColor `json:"color"`
	BrushSize  float64           `json:"brush_size"`
	EraserSize float64           `json:"eraser_size"`
	Stroking   bool              `json:"stroking"`
	UndoDepth  int               `json:"undo_depth"`
	Dirty      image.Rectangle   `json:"dirty"`
	FPS        float64           `json:"fps"`
	Tracking   tracking.Stats    `json:"tracking"`
	Time       time.Time         `json:"time"`
}

// Session runs stabilize, classify and canvas update for each frame. Every
// entry point takes the session lock, so ticks and UI commands never
// interleave.
type Session struct {
	mu sync.Mutex

	cfg        config.Config
	stabilizer *tracking.Stabilizer
	classifier *gesture.Classifier
	canvas     *canvas.Canvas
	ui         UIHandler
	stats      *Stats
	logger     *slog.Logger

	missing   int
	lastEvent gesture.Event
	cursor    *geom.Point
	lastTick  time.Time
	closed    bool
}

// NewSession builds the pipeline stages from cfg.
func NewSession(cfg config.Config, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stab, err := tracking.New(cfg.Tracking())
	if err != nil {
		return nil, fmt.Errorf("stabilizer: %w", err)
	}
	cls, err := gesture.NewClassifier(cfg.Gesture(), nil, logger)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	cv, err := canvas.New(cfg.Canvas())
	if err != nil {
		return nil, fmt.Errorf("canvas: %w", err)
	}

	return &Session{
		cfg:        cfg,
		stabilizer: stab,
		classifier: cls,
		canvas:     cv,
		stats:      &Stats{},
		logger:     logger,
		lastEvent:  gesture.Event{Gesture: gesture.None, Raw: gesture.None},
	}, nil
}

// SetUIHandler installs the handler for DRAW gestures in the toolbar band.
// nil removes it.
func (s *Session) SetUIHandler(h UIHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ui = h
}

// Stats returns the session counters.
func (s *Session) Stats() *Stats {
	return s.stats
}

// Tick advances the session by one frame. hand is the detector output in
// normalized coordinates, or nil when no hand was found.
func (s *Session) Tick(hand *detector.HandLandmarks, now time.Time) FrameOutput {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.output()
	}

	st := s.stabilizer.Update(hand)
	ev := s.classifier.Classify(st, now)
	s.stats.Frame(now)
	if ev.Detected {
		s.stats.Detection()
	}

	s.route(ev, st.HasLandmarks, now)

	s.lastEvent = ev
	s.lastTick = now
	s.cursor = nil
	if st.HasLandmarks {
		c := ev.Cursor
		s.cursor = &c
	}

	out := s.output()
	s.canvas.FrameDrawn()
	return out
}

func (s *Session) route(ev gesture.Event, hasLandmarks bool, now time.Time) {
	cv := s.canvas

	if !ev.Detected {
		s.missing++
		if s.missing > s.cfg.MaxMissingFrames {
			s.endStroke()
		}
		return
	}
	s.missing = 0

	if s.cfg.DynamicBrush && hasLandmarks {
		// widths outside the canvas range keep the previous size
		_ = cv.SetBrushSize(ev.BrushWidth)
	}

	if ev.Gesture.Discrete() {
		s.stats.Gesture()
		s.logger.Info("gesture", "gesture", ev.Gesture, "x", ev.Cursor.X, "y", ev.Cursor.Y)
	}

	inZone := cv.IsInDrawZone(ev.Cursor)
	if s.ui != nil && (inZone || ev.Gesture != gesture.Draw) {
		s.ui.Leave()
	}

	switch ev.Gesture {
	case gesture.Draw:
		if !inZone {
			s.endStroke()
			if s.ui != nil {
				if cmd := s.ui.Hover(ev.Raw, ev.Cursor, now); cmd.Action != "" {
					if err := s.apply(cmd); err != nil {
						s.logger.Warn("toolbar command failed", "action", cmd.Action, "err", err)
					}
				}
			}
			return
		}
		if cv.Tool() == canvas.Eraser {
			cv.Erase(ev.Cursor, cv.EraserSize())
			return
		}
		if !cv.Stroking() {
			cv.BeginStroke(cv.Color().RGBA, 0)
		}
		cv.ExtendStroke(ev.Cursor)

	case gesture.Erase:
		if !inZone {
			s.endStroke()
			return
		}
		if cv.Stroking() {
			s.endStroke()
		}
		cv.Erase(ev.Cursor, cv.EraserSize())

	case gesture.Clear:
		cv.Clear()

	case gesture.Undo:
		cv.Undo()

	case gesture.NextColor:
		s.endStroke()
		c := cv.CycleColor()
		s.logger.Debug("color changed", "color", c.Name)

	default:
		s.endStroke()
	}
}

// endStroke commits an open pen stroke and ends an erase run.
func (s *Session) endStroke() {
	if s.canvas.EndStroke() {
		s.stats.Stroke()
		s.logger.Debug("stroke committed", "undo_depth", s.canvas.UndoDepth())
	}
}

func (s *Session) output() FrameOutput {
	cv := s.canvas
	return FrameOutput{
		Event:      s.lastEvent,
		HasCursor:  s.cursor != nil,
		InDrawZone: s.cursor != nil && cv.IsInDrawZone(*s.cursor),
		Tool:       cv.Tool(),
		Color:      cv.Color(),
		BrushSize:  cv.BrushSize(),
		EraserSize: cv.EraserSize(),
		Stroking:   cv.Stroking(),
		UndoDepth:  cv.UndoDepth(),
		Dirty:      cv.Dirty(),
		FPS:        s.stats.FPS(),
		Tracking:   s.stabilizer.Stats(),
		Time:       s.lastTick,
	}
}

// State returns the latest event together with the current canvas state.
func (s *Session) State() FrameOutput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.output()
}

// Apply runs a UI command.
func (s *Session) Apply(cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return s.apply(cmd)
}

func (s *Session) apply(cmd Command) error {
	cv := s.canvas
	switch cmd.Action {
	case ActionClear:
		cv.Clear()
	case ActionUndo:
		cv.Undo()
	case ActionNextColor:
		s.endStroke()
		cv.CycleColor()
	case ActionPen:
		s.endStroke()
		return cv.SetTool(canvas.Pen)
	case ActionEraser:
		s.endStroke()
		return cv.SetTool(canvas.Eraser)
	case ActionColor:
		s.endStroke()
		return cv.SelectColor(cmd.Index)
	case ActionBrushSize:
		return cv.SetBrushSize(cmd.Size)
	case ActionEraserSize:
		return cv.SetEraserSize(cmd.Size)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
	}
	s.logger.Debug("command", "action", cmd.Action)
	return nil
}

// Clear wipes the canvas.
func (s *Session) Clear() error {
	return s.Apply(Command{Action: ActionClear})
}

// Undo restores the previous canvas. It reports whether anything was undone.
func (s *Session) Undo() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrSessionClosed
	}
	return s.canvas.Undo(), nil
}

// CycleColor advances the palette and returns the new color.
func (s *Session) CycleColor() (canvas.NamedColor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return canvas.NamedColor{}, ErrSessionClosed
	}
	s.endStroke()
	return s.canvas.CycleColor(), nil
}

// SelectColor picks a palette entry by index.
func (s *Session) SelectColor(i int) error {
	return s.Apply(Command{Action: ActionColor, Index: i})
}

// SetTool switches between pen and eraser.
func (s *Session) SetTool(t canvas.Tool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.endStroke()
	return s.canvas.SetTool(t)
}

// Save writes the committed raster to path.
func (s *Session) Save(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if err := s.canvas.Save(path); err != nil {
		s.logger.Warn("save failed", "path", path, "err", err)
		return err
	}
	s.logger.Info("canvas saved", "path", path)
	return nil
}

// Load replaces the raster with the image at path.
func (s *Session) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if err := s.canvas.Load(path); err != nil {
		s.logger.Warn("load failed", "path", path, "err", err)
		return err
	}
	s.logger.Info("canvas loaded", "path", path)
	return nil
}

// Encode writes the committed raster to w in format f.
func (s *Session) Encode(w io.Writer, f canvas.Format) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return s.canvas.Encode(w, f)
}

// Render returns the raster with the open stroke, the cursor ring and the
// toolbar drawn on top.
func (s *Session) Render() (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	img := s.canvas.Render(s.cursor)
	if s.ui != nil {
		s.ui.Draw(img, s.canvas.ColorIndex(), s.canvas.Tool())
	}
	return img, nil
}

// Snapshot returns a copy of the committed raster.
func (s *Session) Snapshot() (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	return s.canvas.Image(), nil
}

// Size returns the canvas dimensions.
func (s *Session) Size() (width, height int) {
	return s.cfg.Width, s.cfg.Height
}

// Stroking reports whether a pen stroke is open.
func (s *Session) Stroking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.canvas.Stroking()
}

// Shutdown commits any open stroke and releases the canvas. Later commands
// return ErrSessionClosed and Tick becomes a no-op.
func (s *Session) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.endStroke()
	s.closed = true
	return s.canvas.Close()
}

package app

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats counts pipeline activity. Counters are safe for concurrent use.
type Stats struct {
	frames     atomic.Int64
	detections atomic.Int64
	gestures   atomic.Int64
	strokes    atomic.Int64

	mu           sync.Mutex
	windowStart  time.Time
	windowFrames int
	fps          float64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Frames     int64   `json:"frames"`
	Detections int64   `json:"detections"`
	Gestures   int64   `json:"gestures"`
	Strokes    int64   `json:"strokes"`
	FPS        float64 `json:"fps"`
}

// Frame records a processed frame. The frame rate is recomputed once a
// second of frames has accumulated.
func (s *Stats) Frame(now time.Time) {
	s.frames.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.windowStart.IsZero() {
		s.windowStart = now
	}
	s.windowFrames++
	if elapsed := now.Sub(s.windowStart); elapsed >= time.Second {
		s.fps = float64(s.windowFrames) / elapsed.Seconds()
		s.windowStart = now
		s.windowFrames = 0
	}
}

func (s *Stats) Detection() { s.detections.Add(1) }

func (s *Stats) Gesture() { s.gestures.Add(1) }

func (s *Stats) Stroke() { s.strokes.Add(1) }

// FPS returns the frame rate measured over the last full window.
func (s *Stats) FPS() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fps
}

// Snapshot copies all counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Frames:     s.frames.Load(),
		Detections: s.detections.Load(),
		Gestures:   s.gestures.Load(),
		Strokes:    s.strokes.Load(),
		FPS:        s.FPS(),
	}
}

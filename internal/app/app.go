// Package app wires the camera, hand detector and drawing session into the
// running Air Canvas pipeline.
package app

import (
	"fmt"
	"log/slog"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/aircanvas/internal/capture"
	"github.com/ayusman/aircanvas/internal/config"
	"github.com/ayusman/aircanvas/internal/detector"
)

// subscriberBuffer is the channel depth handed to each subscriber. A
// subscriber that falls further behind misses frames.
const subscriberBuffer = 8

// App owns the capture and processing goroutines.
type App struct {
	cfg    config.Config
	logger *slog.Logger

	camera   capture.Camera
	motion   *capture.MotionDetector
	gate     *capture.Gate
	detector detector.Detector
	session  *Session
	frames   *Mailbox[*gocv.Mat]

	enabled bool
	mu      sync.RWMutex
	stopCh  chan struct{}
	wg      sync.WaitGroup

	subMu   sync.Mutex
	subs    map[int]chan FrameOutput
	nextSub int
}

// New creates an App for cfg. The MediaPipe detector is used when its
// service can be found; otherwise a mock detector that never sees a hand
// keeps the pipeline running.
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	session, err := NewSession(cfg, logger)
	if err != nil {
		return nil, err
	}
	session.SetUIHandler(NewToolbar(cfg.Width, cfg.UIBandHeight, DefaultToolbarDebounce))

	a := &App{
		cfg:     cfg,
		logger:  logger,
		camera:  capture.NewCamera(cfg.CameraID, cfg.Width, cfg.Height),
		motion:  capture.NewMotionDetector(cfg.MotionThreshold),
		gate:    capture.NewGate(cfg.IdleFPS, cfg.ActiveFPS, cfg.IdleTimeout),
		session: session,
		enabled: true,
		subs:    make(map[int]chan FrameOutput),
	}

	if mp, err := detector.NewMediaPipeDetector(cfg.Detector(), logger); err == nil {
		a.detector = mp
		logger.Info("using MediaPipe hand detection", "mode", cfg.DetectorMode)
	} else {
		logger.Warn("MediaPipe not available, using mock detector", "err", err)
		a.detector = detector.NewMockDetector()
	}

	return a, nil
}

// Session returns the drawing session.
func (a *App) Session() *Session {
	return a.session
}

// SetEnabled pauses or resumes frame capture. The canvas stays available
// while paused.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.enabled != enabled {
		a.logger.Info("detection toggled", "enabled", enabled)
	}
	a.enabled = enabled
}

// IsEnabled returns whether frames are being processed.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector replaces the hand detector and closes the previous one.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	old := a.detector
	a.detector = d
	a.mu.Unlock()

	if old != nil && old != d {
		if err := old.Close(); err != nil {
			a.logger.Warn("close detector", "err", err)
		}
	}
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// SetCamera replaces the camera. It must be called before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// Camera returns the camera.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// Running reports whether the pipeline goroutines are active.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// Start opens the camera and launches the pipeline. Starting a running App
// does nothing.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}
	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(a.gate.FPS())

	a.stopCh = make(chan struct{})
	a.frames = NewMailbox(func(m *gocv.Mat) { m.Close() })

	a.wg.Add(2)
	go a.captureLoop(a.stopCh, a.frames)
	go a.processLoop(a.stopCh, a.frames)

	w, h := a.camera.Size()
	a.logger.Info("pipeline started", "camera", a.cfg.CameraID, "frame", fmt.Sprintf("%dx%d", w, h), "fps", a.gate.FPS())
	return nil
}

// Stop halts the pipeline and closes the camera. The session keeps its
// canvas, so Start may be called again.
func (a *App) Stop() {
	a.mu.Lock()
	stop, frames := a.stopCh, a.frames
	a.stopCh = nil
	a.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	a.wg.Wait()
	frames.Close()
	a.motion.Reset()

	if err := a.Camera().Close(); err != nil {
		a.logger.Warn("close camera", "err", err)
	}
	a.logger.Info("pipeline stopped", "dropped_frames", frames.Dropped())
}

// Close stops the pipeline and releases every resource.
func (a *App) Close() error {
	a.Stop()
	a.motion.Close()

	if d := a.Detector(); d != nil {
		if err := d.Close(); err != nil {
			a.logger.Warn("close detector", "err", err)
		}
	}

	a.subMu.Lock()
	for id, ch := range a.subs {
		close(ch)
		delete(a.subs, id)
	}
	a.subMu.Unlock()

	return a.session.Shutdown()
}

// Subscribe returns a channel receiving every frame output and a function
// that cancels the subscription.
func (a *App) Subscribe() (<-chan FrameOutput, func()) {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	id := a.nextSub
	a.nextSub++
	ch := make(chan FrameOutput, subscriberBuffer)
	a.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.subMu.Lock()
			defer a.subMu.Unlock()
			if c, ok := a.subs[id]; ok {
				close(c)
				delete(a.subs, id)
			}
		})
	}
}

func (a *App) publish(out FrameOutput) {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	for _, ch := range a.subs {
		select {
		case ch <- out:
		default:
		}
	}
}

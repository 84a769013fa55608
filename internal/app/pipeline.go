package app

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/aircanvas/internal/capture"
	"github.com/ayusman/aircanvas/internal/detector"
)

// captureLoop reads frames at the gate's rate and posts them to frames.
//
// The gate starts idle. Motion switches it to the active rate at once; after
// IdleTimeout without motion it drops back. Every frame is forwarded either
// way, so a hand that stops moving mid-stroke is still tracked. Resuming after
// a pause starts in active mode.
func (a *App) captureLoop(stop <-chan struct{}, frames *Mailbox[*gocv.Mat]) {
	defer a.wg.Done()

	camera := a.Camera()
	ticker := time.NewTicker(a.gate.Interval())
	defer ticker.Stop()

	paused := false
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		if !a.IsEnabled() {
			paused = true
			continue
		}
		if paused {
			paused = false
			a.gate.Wake(time.Now())
			camera.SetFPS(a.gate.FPS())
			ticker.Reset(a.gate.Interval())
		}

		frame, err := camera.ReadFrame()
		if err != nil {
			a.logger.Debug("read frame", "err", err)
			continue
		}
		if a.cfg.Mirror {
			capture.Mirror(frame)
		}

		motion, level := a.motion.Detect(frame)
		if fps, changed := a.gate.Observe(motion, time.Now()); changed {
			camera.SetFPS(fps)
			ticker.Reset(a.gate.Interval())
			a.logger.Info("capture mode changed", "active", a.gate.Active(), "fps", fps, "motion", level)
		}

		frames.Put(frame)
	}
}

// processLoop runs detection and the session tick for each frame.
func (a *App) processLoop(stop <-chan struct{}, frames *Mailbox[*gocv.Mat]) {
	defer a.wg.Done()

	for {
		frame, ok := frames.Take(stop)
		if !ok {
			return
		}
		a.processFrame(frame, time.Now())
		frame.Close()
	}
}

// processFrame detects hands in frame, ticks the session with the most
// confident one and publishes the result. A detector error counts as a frame
// without a hand.
func (a *App) processFrame(frame *gocv.Mat, now time.Time) FrameOutput {
	var hand *detector.HandLandmarks
	if d := a.Detector(); d != nil {
		hands, err := d.Detect(frame)
		if err != nil {
			a.logger.Warn("detect hands", "err", err)
		}
		hand = detector.BestHand(hands)
	}

	out := a.session.Tick(hand, now)
	a.publish(out)
	return out
}

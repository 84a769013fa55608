package capture

import "time"

// Gate switches between an idle and an active frame rate. Motion raises the
// rate immediately; the rate drops back after Timeout without motion.
type Gate struct {
	IdleFPS   int
	ActiveFPS int
	Timeout   time.Duration

	active     bool
	lastMotion time.Time
}

// NewGate returns a gate that starts idle.
func NewGate(idleFPS, activeFPS int, timeout time.Duration) *Gate {
	return &Gate{IdleFPS: idleFPS, ActiveFPS: activeFPS, Timeout: timeout}
}

// Observe records whether the latest frame showed motion. It returns the
// frame rate to use and whether the mode changed.
func (g *Gate) Observe(motion bool, now time.Time) (fps int, changed bool) {
	switch {
	case motion:
		g.lastMotion = now
		if !g.active {
			g.active = true
			changed = true
		}
	case g.active && now.Sub(g.lastMotion) > g.Timeout:
		g.active = false
		changed = true
	}
	return g.FPS(), changed
}

// Active reports whether the gate is in active mode.
func (g *Gate) Active() bool {
	return g.active
}

// FPS returns the frame rate for the current mode.
func (g *Gate) FPS() int {
	if g.active {
		return g.ActiveFPS
	}
	return g.IdleFPS
}

// Interval returns the time between frames for the current mode.
func (g *Gate) Interval() time.Duration {
	return time.Second / time.Duration(g.FPS())
}

// Wake forces active mode, as if motion had just been seen.
func (g *Gate) Wake(now time.Time) {
	g.active = true
	g.lastMotion = now
}

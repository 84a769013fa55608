package canvas

// history is a bounded undo stack of raster snapshots. A zero-length
// snapshot is the blank marker: restoring it yields an empty canvas.
type history struct {
	depth   int
	entries [][]byte
}

func newHistory(depth int) *history {
	return &history{depth: depth, entries: make([][]byte, 0, depth)}
}

// push appends a snapshot, evicting the oldest entry when full.
func (h *history) push(snap []byte) {
	if len(h.entries) == h.depth {
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:len(h.entries)-1]
	}
	h.entries = append(h.entries, snap)
}

// pop removes and returns the newest snapshot.
func (h *history) pop() ([]byte, bool) {
	if len(h.entries) == 0 {
		return nil, false
	}
	n := len(h.entries) - 1
	snap := h.entries[n]
	h.entries[n] = nil
	h.entries = h.entries[:n]
	return snap, true
}

func (h *history) len() int {
	return len(h.entries)
}

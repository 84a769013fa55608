package app

import "sync"

// Mailbox is a single-slot queue where the newest item wins. A Put over an
// unread item hands the stale one to the drop function, so a slow consumer
// always sees the latest frame and never a backlog.
type Mailbox[T any] struct {
	mu      sync.Mutex
	item    T
	full    bool
	closed  bool
	dropped int
	drop    func(T)
	ready   chan struct{}
}

// NewMailbox returns an empty mailbox. drop may be nil.
func NewMailbox[T any](drop func(T)) *Mailbox[T] {
	return &Mailbox[T]{
		drop:  drop,
		ready: make(chan struct{}, 1),
	}
}

// Put stores v, replacing any unread item. It returns false when the mailbox
// is closed, in which case v is dropped.
func (m *Mailbox[T]) Put(v T) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.release(v)
		return false
	}
	stale, hadStale := m.item, m.full
	m.item = v
	m.full = true
	if hadStale {
		m.dropped++
	}
	m.mu.Unlock()

	if hadStale {
		m.release(stale)
	}
	m.signal()
	return true
}

// Take blocks until an item is available, the mailbox is closed or done is
// closed. ok is false in the last two cases.
func (m *Mailbox[T]) Take(done <-chan struct{}) (v T, ok bool) {
	for {
		m.mu.Lock()
		if m.full {
			v = m.item
			var zero T
			m.item = zero
			m.full = false
			m.mu.Unlock()
			return v, true
		}
		closed := m.closed
		m.mu.Unlock()
		if closed {
			return v, false
		}

		select {
		case <-m.ready:
		case <-done:
			return v, false
		}
	}
}

// Dropped returns how many unread items were replaced.
func (m *Mailbox[T]) Dropped() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}

// Close drops any unread item and wakes a blocked Take.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	stale, hadStale := m.item, m.full
	var zero T
	m.item = zero
	m.full = false
	m.mu.Unlock()

	if hadStale {
		m.release(stale)
	}
	m.signal()
}

func (m *Mailbox[T]) release(v T) {
	if m.drop != nil {
		m.drop(v)
	}
}

func (m *Mailbox[T]) signal() {
	select {
	case m.ready <- struct{}{}:
	default:
	}
}

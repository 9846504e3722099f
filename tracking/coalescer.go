package tracking

import (
	"sync"
	"time"
)

// EmitFunc receives the payload a slot carries when its window closes.
type EmitFunc func(deviceID, userID string, payload LocationPayload)

type slot struct {
	userID  string
	payload LocationPayload
	timer   *time.Timer
}

// Coalescer bounds live-update emission to at most one per device per
// window. The first enqueue for a quiet device opens a slot and starts its
// timer; later enqueues within the window overwrite the slot's payload and
// never touch the timer, so worst-case staleness is one window regardless of
// burst rate. When the timer fires the freshest payload is emitted exactly
// once and the slot is removed.
type Coalescer struct {
	mu     sync.Mutex
	window time.Duration
	slots  map[string]*slot
	emit   EmitFunc
	closed bool
}

// NewCoalescer builds a coalescer emitting through emit after each window.
func NewCoalescer(window time.Duration, emit EmitFunc) *Coalescer {
	return &Coalescer{
		window: window,
		slots:  make(map[string]*slot),
		emit:   emit,
	}
}

// Enqueue records the newest payload for a device. Last write wins within
// the window; payloads are replaced whole, never merged.
func (c *Coalescer) Enqueue(deviceID, userID string, payload LocationPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if s, ok := c.slots[deviceID]; ok {
		s.payload = payload
		s.userID = userID
		return
	}
	s := &slot{userID: userID, payload: payload}
	s.timer = time.AfterFunc(c.window, func() { c.flush(deviceID) })
	c.slots[deviceID] = s
}

func (c *Coalescer) flush(deviceID string) {
	c.mu.Lock()
	s, ok := c.slots[deviceID]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.slots, deviceID)
	userID, payload := s.userID, s.payload
	c.mu.Unlock()

	c.emit(deviceID, userID, payload)
}

// Pending reports whether a slot is open for the device.
func (c *Coalescer) Pending(deviceID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.slots[deviceID]
	return ok
}

// Stop cancels all outstanding timers and rejects further enqueues. Payloads
// still waiting in slots are discarded.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, s := range c.slots {
		s.timer.Stop()
		delete(c.slots, id)
	}
}

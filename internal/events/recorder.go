package events

import "sync"

// Recorder keeps the most recent settled-trade events in a ring buffer
// for the status API.
type Recorder struct {
	mu     sync.Mutex
	buf    []Event
	next   int
	filled bool
}

// NewRecorder creates a recorder holding up to capacity events and
// subscribes it to the bus's trade settlements.
func NewRecorder(bus *Bus, capacity int) *Recorder {
	if capacity <= 0 {
		capacity = 100
	}
	r := &Recorder{buf: make([]Event, capacity)}
	bus.Subscribe(EventTradeSettled, r.record)
	return r
}

func (r *Recorder) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf[r.next] = e
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.filled = true
	}
}

// Recent returns the recorded events, oldest first.
func (r *Recorder) Recent() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.filled {
		out := make([]Event, r.next)
		copy(out, r.buf[:r.next])
		return out
	}
	out := make([]Event, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	out = append(out, r.buf[:r.next]...)
	return out
}

package market

import (
	"sync"
)

// DefaultWindowSize is the candle history kept per symbol when the
// configured size is zero.
const DefaultWindowSize = 200

// Store holds the latest snapshot and a bounded candle window per symbol.
// Writes come from a single feed goroutine; reads come from the scheduler
// workers. Readers always observe a fully-built snapshot because entries
// are replaced wholesale under the lock, never mutated.
type Store struct {
	mu         sync.RWMutex
	snapshots  map[string]*Snapshot
	windows    map[string][]Candle
	windowSize int
}

// NewStore creates a store keeping up to windowSize candles per symbol.
func NewStore(windowSize int) *Store {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &Store{
		snapshots:  make(map[string]*Snapshot),
		windows:    make(map[string][]Candle),
		windowSize: windowSize,
	}
}

// Write replaces the stored snapshot for the symbol.
func (s *Store) Write(snap *Snapshot) {
	if snap == nil || snap.Symbol == "" {
		return
	}
	s.mu.Lock()
	s.snapshots[snap.Symbol] = snap
	s.mu.Unlock()
}

// Read returns the latest snapshot for the symbol, or false if none
// has been received yet.
func (s *Store) Read(symbol string) (*Snapshot, bool) {
	s.mu.RLock()
	snap, ok := s.snapshots[symbol]
	s.mu.RUnlock()
	return snap, ok
}

// UpdateCandle merges a streamed bar into the symbol's window. A bar
// with a new open time is appended, evicting the oldest entry once the
// window is full; a repeated open time replaces the newest bar in
// place, so in-progress updates never grow the window.
func (s *Store) UpdateCandle(symbol string, c Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.windows[symbol]
	if len(w) == 0 || !w[len(w)-1].OpenTime.Equal(c.OpenTime) {
		w = append(w, c)
		if len(w) > s.windowSize {
			w = w[len(w)-s.windowSize:]
		}
	} else {
		w[len(w)-1] = c
	}
	s.windows[symbol] = w
}

// Window returns a copy of the symbol's candle window, oldest first.
func (s *Store) Window(symbol string) []Candle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w := s.windows[symbol]
	out := make([]Candle, len(w))
	copy(out, w)
	return out
}

// WindowLen returns the number of candles held for the symbol.
func (s *Store) WindowLen(symbol string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.windows[symbol])
}

// Symbols returns every symbol with at least one snapshot.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.snapshots))
	for sym := range s.snapshots {
		out = append(out, sym)
	}
	return out
}

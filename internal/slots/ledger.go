// Package slots bounds concurrent trade exposure. A slot is one open
// trade on a (mode, symbol, side) combination; the ledger enforces the
// per-mode cap atomically so two concurrent reservations can never both
// take the last slot.
package slots

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"bitget-trading-bot/internal/logging"
	"bitget-trading-bot/internal/signal"
)

// Key identifies one slot bucket.
type Key struct {
	Mode   string
	Symbol string
	Side   signal.Side
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Mode, k.Symbol, k.Side)
}

// Ledger tracks reserved slots against per-mode caps. The zero cap for
// an unknown mode refuses every reservation.
type Ledger struct {
	mu   sync.Mutex
	caps map[string]int // per mode, applied to each (symbol, side) bucket
	used map[Key]int

	// strict makes Release panic on a counter underflow instead of
	// clamping. On in tests and dry runs, off in live trading.
	strict bool
	log    zerolog.Logger
}

// NewLedger creates a ledger with the given per-mode caps.
func NewLedger(caps map[string]int, strict bool) *Ledger {
	copied := make(map[string]int, len(caps))
	for mode, cap := range caps {
		copied[mode] = cap
	}
	return &Ledger{
		caps:   copied,
		used:   make(map[Key]int),
		strict: strict,
		log:    logging.Component("slots"),
	}
}

// TryReserve claims one slot for the bucket. The cap check and the
// increment happen under one lock; callers own the slot until Release.
func (l *Ledger) TryReserve(mode, symbol string, side signal.Side) bool {
	key := Key{Mode: mode, Symbol: symbol, Side: side}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.used[key] >= l.caps[mode] {
		return false
	}
	l.used[key]++
	return true
}

// Release returns one slot to the bucket. Releasing a bucket with no
// reservation is a programming error: strict mode panics, otherwise it
// is logged and the counter stays at zero.
func (l *Ledger) Release(mode, symbol string, side signal.Side) {
	key := Key{Mode: mode, Symbol: symbol, Side: side}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.used[key] <= 0 {
		if l.strict {
			panic(fmt.Sprintf("slots: double release of %s", key))
		}
		l.log.Error().Str("slot", key.String()).Msg("release without reservation")
		return
	}
	l.used[key]--
	if l.used[key] == 0 {
		delete(l.used, key)
	}
}

// Used returns the reservation count for one bucket.
func (l *Ledger) Used(mode, symbol string, side signal.Side) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.used[Key{Mode: mode, Symbol: symbol, Side: side}]
}

// Snapshot returns all non-empty buckets keyed mode/symbol/side, for
// the status API.
func (l *Ledger) Snapshot() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]int, len(l.used))
	for key, n := range l.used {
		out[key.String()] = n
	}
	return out
}

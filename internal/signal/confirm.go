package signal

import "sync"

// Confirmer gates book-spike intents behind persistence: a spike must
// repeat in the same direction on N consecutive evaluations before it
// passes through. Other intent kinds pass immediately, and any
// non-spike result resets the streak. Used by the sniper mode, where a
// single-snapshot spike is too noisy to act on.
type Confirmer struct {
	mu       sync.Mutex
	required int
	streaks  map[string]spikeStreak
}

type spikeStreak struct {
	side  Side
	count int
}

// NewConfirmer creates a confirmer requiring the given number of
// consecutive spike observations. Values below 2 pass everything
// through unchanged.
func NewConfirmer(required int) *Confirmer {
	return &Confirmer{
		required: required,
		streaks:  make(map[string]spikeStreak),
	}
}

// Filter applies persistence gating to one evaluation result for the
// given symbol. It returns the intent once confirmed, nil while the
// streak is still building.
func (c *Confirmer) Filter(symbol string, intent *Intent) *Intent {
	if c == nil || c.required < 2 {
		return intent
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if intent == nil || intent.Reason != ReasonBookSpike {
		delete(c.streaks, symbol)
		return intent
	}

	streak := c.streaks[symbol]
	if streak.side != intent.Side {
		streak = spikeStreak{side: intent.Side}
	}
	streak.count++
	if streak.count >= c.required {
		delete(c.streaks, symbol)
		return intent
	}
	c.streaks[symbol] = streak
	return nil
}

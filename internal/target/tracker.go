// Package target tracks per-mode daily profit goals. Each mode chases
// a target that compounds day over day until the mode has accumulated
// enough capital, then the target flattens back to its base and stays
// there.
package target

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"bitget-trading-bot/internal/logging"
)

// ModeConfig sets one mode's goal progression.
type ModeConfig struct {
	BaseTarget    float64 `json:"base_target"`    // day-one profit goal in quote currency
	Multiplier    float64 `json:"multiplier"`     // daily growth factor while compounding
	SwitchBalance float64 `json:"switch_balance"` // accumulated profit that ends compounding
}

// Status is a read-only view of one mode for the status API.
type Status struct {
	DayIndex    int     `json:"day_index"`
	Target      float64 `json:"target"`
	DailyProfit float64 `json:"daily_profit"`
	Accumulated float64 `json:"accumulated"`
	GoalMet     bool    `json:"goal_met"`
	Flattened   bool    `json:"flattened"`
}

type modeState struct {
	cfg         ModeConfig
	dayIndex    int
	dailyProfit float64
	accumulated float64
	flattened   bool
}

// Tracker holds the goal state for every mode.
type Tracker struct {
	mu    sync.Mutex
	modes map[string]*modeState
	day   time.Time // start of the last observed calendar day, UTC
	log   zerolog.Logger
}

// NewTracker creates a tracker starting at day one for every mode.
func NewTracker(modes map[string]ModeConfig, now time.Time) *Tracker {
	t := &Tracker{
		modes: make(map[string]*modeState, len(modes)),
		day:   startOfDay(now),
		log:   logging.Component("target"),
	}
	for name, cfg := range modes {
		t.modes[name] = &modeState{cfg: cfg, dayIndex: 1}
	}
	return t
}

// AddProfit books settled profit (or loss) against a mode's daily and
// accumulated totals. Crossing the switch balance latches the target
// flat; it never compounds again.
func (t *Tracker) AddProfit(mode string, amount float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.modes[mode]
	if !ok {
		return
	}
	state.dailyProfit += amount
	state.accumulated += amount
	if !state.flattened && state.accumulated >= state.cfg.SwitchBalance {
		state.flattened = true
		t.log.Info().Str("mode", mode).
			Float64("accumulated", state.accumulated).
			Msg("switch balance reached, target flattened")
	}
}

// CurrentTarget returns the mode's profit goal for the current day.
func (t *Tracker) CurrentTarget(mode string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.modes[mode]
	if !ok {
		return 0
	}
	return targetFor(state)
}

// IsDayGoalMet reports whether the mode's accumulated profit has
// reached the current day's target. The basis is accumulated, not
// daily: rollover resets the daily counter but earlier gains keep
// counting until the compounding target outgrows them. Meeting the
// goal does not stop trading; the coordinator tightens admission
// instead.
func (t *Tracker) IsDayGoalMet(mode string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.modes[mode]
	if !ok {
		return false
	}
	return state.accumulated >= targetFor(state)
}

// RolloverIfNewDay advances every mode exactly once per calendar-day
// change, however often it is called. Returns true when a rollover
// happened.
func (t *Tracker) RolloverIfNewDay(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	day := startOfDay(now)
	if !day.After(t.day) {
		return false
	}
	t.day = day

	for name, state := range t.modes {
		state.dayIndex++
		state.dailyProfit = 0
		t.log.Info().Str("mode", name).
			Int("day", state.dayIndex).
			Float64("target", targetFor(state)).
			Msg("day rollover")
	}
	return true
}

// Snapshot returns every mode's status.
func (t *Tracker) Snapshot() map[string]Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]Status, len(t.modes))
	for name, state := range t.modes {
		target := targetFor(state)
		out[name] = Status{
			DayIndex:    state.dayIndex,
			Target:      target,
			DailyProfit: state.dailyProfit,
			Accumulated: state.accumulated,
			GoalMet:     state.accumulated >= target,
			Flattened:   state.flattened,
		}
	}
	return out
}

func targetFor(s *modeState) float64 {
	if s.flattened {
		return s.cfg.BaseTarget
	}
	return s.cfg.BaseTarget * math.Pow(s.cfg.Multiplier, float64(s.dayIndex-1))
}

func startOfDay(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

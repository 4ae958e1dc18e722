// Package scheduler runs the evaluation loops. Each trading mode gets
// its own goroutine walking its instrument universe on a fixed cadence;
// a failure on one symbol never stops the others.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"bitget-trading-bot/internal/events"
	"bitget-trading-bot/internal/executor"
	"bitget-trading-bot/internal/logging"
	"bitget-trading-bot/internal/market"
	"bitget-trading-bot/internal/signal"
	"bitget-trading-bot/internal/target"
)

// Mode describes one trading mode's universe and cadence.
type Mode struct {
	Name        string
	Symbols     []string
	Leverage    int
	Signal      signal.Config
	SymbolDelay time.Duration // pause between symbols within a cycle
	CycleDelay  time.Duration // pause between full cycles
	StaleAfter  time.Duration // snapshots older than this are not evaluated
	ATRPeriod   int
}

// Scheduler drives every mode loop against the shared store, tracker
// and coordinator.
type Scheduler struct {
	store   *market.Store
	coord   *executor.Coordinator
	tracker *target.Tracker
	bus     *events.Bus
	modes   []Mode
	log     zerolog.Logger

	engines    map[string]*signal.Engine
	confirmers map[string]*signal.Confirmer
}

// New creates a scheduler with one engine and spike confirmer per mode.
func New(store *market.Store, coord *executor.Coordinator, tracker *target.Tracker, bus *events.Bus, modes []Mode) *Scheduler {
	s := &Scheduler{
		store:      store,
		coord:      coord,
		tracker:    tracker,
		bus:        bus,
		modes:      modes,
		log:        logging.Component("scheduler"),
		engines:    make(map[string]*signal.Engine, len(modes)),
		confirmers: make(map[string]*signal.Confirmer, len(modes)),
	}
	for i := range modes {
		m := &s.modes[i]
		if m.SymbolDelay <= 0 {
			m.SymbolDelay = 2 * time.Second
		}
		if m.CycleDelay <= 0 {
			m.CycleDelay = 10 * time.Second
		}
		if m.StaleAfter <= 0 {
			m.StaleAfter = 30 * time.Second
		}
		if m.ATRPeriod <= 0 {
			m.ATRPeriod = 14
		}
		s.engines[m.Name] = signal.NewEngine(m.Signal)
		s.confirmers[m.Name] = signal.NewConfirmer(m.Signal.SpikeConfirmation)
	}
	return s
}

// Run starts every mode loop and blocks until all of them have drained
// after cancellation. In-flight executions finish; no new cycle starts
// once ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := range s.modes {
		wg.Add(1)
		go func(m *Mode) {
			defer wg.Done()
			s.runMode(ctx, m)
		}(&s.modes[i])
	}
	wg.Wait()
}

func (s *Scheduler) runMode(ctx context.Context, m *Mode) {
	log := s.log.With().Str("mode", m.Name).Logger()
	log.Info().Int("symbols", len(m.Symbols)).Int("leverage", m.Leverage).Msg("mode loop started")

	for {
		if ctx.Err() != nil {
			log.Info().Msg("mode loop stopped")
			return
		}

		s.checkRollover()

		if err := s.coord.RefreshBalance(); err != nil {
			log.Warn().Err(err).Msg("balance refresh failed, using last known equity")
		}

		for _, symbol := range m.Symbols {
			if ctx.Err() != nil {
				return
			}
			s.evaluateSymbol(ctx, m, symbol)
			if !sleep(ctx, m.SymbolDelay) {
				return
			}
		}

		if !sleep(ctx, m.CycleDelay) {
			return
		}
	}
}

// checkRollover advances the calendar day. Every mode loop calls this
// each cycle but the tracker rolls over at most once per day; the loop
// that wins resets the daily risk counters and announces it.
func (s *Scheduler) checkRollover() {
	if !s.tracker.RolloverIfNewDay(time.Now()) {
		return
	}
	s.coord.ResetDay()
	for _, st := range s.tracker.Snapshot() {
		s.bus.PublishDayRollover(st.DayIndex)
		break
	}
	s.log.Info().Msg("new trading day")
}

// evaluateSymbol runs one symbol through signal evaluation and, when an
// intent survives, execution. Panics are contained here so a bad
// symbol cannot take down the mode loop.
func (s *Scheduler) evaluateSymbol(ctx context.Context, m *Mode, symbol string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("mode", m.Name).Str("symbol", symbol).
				Interface("panic", r).Msg("symbol evaluation panicked")
			s.bus.PublishError("scheduler", fmt.Sprintf("%s/%s: %v", m.Name, symbol, r))
		}
	}()

	snapshot, ok := s.store.Read(symbol)
	if !ok {
		return // no data yet this cycle
	}
	if age := time.Since(snapshot.Timestamp); age > m.StaleAfter {
		// The feed stopped updating this symbol; frozen data must not
		// keep producing intents while the connection recovers.
		s.log.Debug().Str("mode", m.Name).Str("symbol", symbol).
			Dur("age", age).Msg("snapshot stale, skipping")
		return
	}
	window := s.store.Window(symbol)

	intent := s.engines[m.Name].Evaluate(symbol, window, snapshot)
	intent = s.confirmers[m.Name].Filter(symbol, intent)
	if intent == nil {
		return
	}

	volatility := 0.0
	if snapshot.LastPrice > 0 {
		volatility = signal.ATR(window, m.ATRPeriod) / snapshot.LastPrice
	}

	outcome := s.coord.Execute(ctx, m.Name, intent, snapshot.LastPrice, volatility, m.Leverage)
	s.log.Debug().Str("mode", m.Name).Str("symbol", symbol).
		Str("outcome", string(outcome)).Msg("evaluation complete")
}

// sleep waits for d or cancellation, reporting whether the caller
// should continue.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// Package risk decides whether a trade intent may proceed and how
// large the position may be. Refusals are normal admission outcomes,
// not errors.
package risk

import "time"

// Config holds the risk limits. Fractions are of equity unless noted.
type Config struct {
	MaxDailyLossFraction float64       `json:"max_daily_loss_fraction"` // of starting equity
	MaxDailyTrades       int           `json:"max_daily_trades"`
	LossCooldown         time.Duration `json:"loss_cooldown"`
	MaxVolatility        float64       `json:"max_volatility"` // ATR as a fraction of price
	MaxDrawdown          float64       `json:"max_drawdown"`   // from peak equity
	MaxRiskPerTrade      float64       `json:"max_risk_per_trade"`
	MaxExposureFraction  float64       `json:"max_exposure_fraction"`
}

// DefaultConfig returns conservative baseline limits.
func DefaultConfig() Config {
	return Config{
		MaxDailyLossFraction: 0.05,
		MaxDailyTrades:       30,
		LossCooldown:         5 * time.Minute,
		MaxVolatility:        0.03,
		MaxDrawdown:          0.20,
		MaxRiskPerTrade:      0.01,
		MaxExposureFraction:  0.30,
	}
}

// State is the mutable risk bookkeeping. It is owned and mutated by
// the execution coordinator only; the gate reads it.
type State struct {
	StartingEquity float64   `json:"starting_equity"`
	Equity         float64   `json:"equity"`
	PeakEquity     float64   `json:"peak_equity"`
	DailyLoss      float64   `json:"daily_loss"` // realized losses today, positive
	DailyTrades    int       `json:"daily_trades"`
	LastLossAt     time.Time `json:"last_loss_at"`
}

// NewState seeds the bookkeeping from the starting equity.
func NewState(equity float64) *State {
	return &State{StartingEquity: equity, Equity: equity, PeakEquity: equity}
}

// ObserveEquity records a fresh balance reading and advances the peak.
func (s *State) ObserveEquity(equity float64) {
	s.Equity = equity
	if equity > s.PeakEquity {
		s.PeakEquity = equity
	}
}

// RecordOutcome books one settled trade.
func (s *State) RecordOutcome(pnl float64, now time.Time) {
	s.DailyTrades++
	if pnl < 0 {
		s.DailyLoss += -pnl
		s.LastLossAt = now
	}
	s.ObserveEquity(s.Equity + pnl)
}

// ResetDay clears the daily counters at rollover.
func (s *State) ResetDay() {
	s.DailyLoss = 0
	s.DailyTrades = 0
	s.LastLossAt = time.Time{}
}

// Gate evaluates admission against the configured limits.
type Gate struct {
	cfg Config
}

// NewGate creates a gate with the given limits.
func NewGate(cfg Config) *Gate {
	return &Gate{cfg: cfg}
}

// Allow runs every check and returns the first refusal reason, or
// ("", true)-style admission. volatility is the current ATR of the
// instrument as a fraction of its price.
func (g *Gate) Allow(state *State, volatility float64, now time.Time) (bool, string) {
	if state.StartingEquity > 0 &&
		state.DailyLoss >= state.StartingEquity*g.cfg.MaxDailyLossFraction {
		return false, "daily loss limit reached"
	}
	if state.DailyTrades >= g.cfg.MaxDailyTrades {
		return false, "daily trade cap reached"
	}
	if !state.LastLossAt.IsZero() && now.Sub(state.LastLossAt) < g.cfg.LossCooldown {
		return false, "cooling down after loss"
	}
	if volatility > g.cfg.MaxVolatility {
		return false, "volatility above ceiling"
	}
	if state.PeakEquity > 0 {
		drawdown := (state.PeakEquity - state.Equity) / state.PeakEquity
		if drawdown >= g.cfg.MaxDrawdown {
			return false, "drawdown limit reached"
		}
	}
	return true, ""
}

// SizePosition returns the position size in base units:
// min(riskBudget/stopDistance, equity*maxExposure/price) with
// riskBudget = equity*maxRiskPerTrade. stopDistance and price are in
// quote currency. Returns 0 on degenerate inputs.
func (g *Gate) SizePosition(equity, price, stopDistance float64) float64 {
	if equity <= 0 || price <= 0 || stopDistance <= 0 {
		return 0
	}
	byRisk := equity * g.cfg.MaxRiskPerTrade / stopDistance
	byExposure := equity * g.cfg.MaxExposureFraction / price
	if byRisk < byExposure {
		return byRisk
	}
	return byExposure
}

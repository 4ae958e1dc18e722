// Package signal turns candle windows and order book snapshots into
// trade intents. Evaluation is pure: same inputs, same answer, no
// hidden state, so every detector is unit-testable in isolation.
package signal

import "bitget-trading-bot/internal/market"

// Side is the direction of a proposed trade.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Reason tags which detector produced an intent.
type Reason string

const (
	ReasonTrendBreakout  Reason = "trend_breakout"
	ReasonTrendBreakdown Reason = "trend_breakdown"
	ReasonBookSpike      Reason = "book_spike"
	ReasonSidewaysScalp  Reason = "sideways_scalp"
	ReasonWickReversal   Reason = "wick_reversal"
	ReasonLevelRetest    Reason = "level_retest"
)

// Intent is a proposed trade. It carries no side effects; admission,
// sizing and execution belong to the coordinator.
type Intent struct {
	Symbol       string  `json:"symbol"`
	Side         Side    `json:"side"`
	Reason       Reason  `json:"reason"`
	StopFraction float64 `json:"stop_fraction"`   // stop distance as a fraction of entry price
	TakeFraction float64 `json:"target_fraction"` // take-profit distance as a fraction of entry price
}

// Perfect reports whether the intent came from a trend break, the only
// class admitted after a mode's daily goal is already met.
func (i *Intent) Perfect() bool {
	return i.Reason == ReasonTrendBreakout || i.Reason == ReasonTrendBreakdown
}

// Config holds detector thresholds. All values come from configuration;
// the engine has no built-in numbers.
type Config struct {
	TrendLookback     int     `json:"trend_lookback"`      // K closes per half of the trend comparison
	BandLookback      int     `json:"band_lookback"`       // candles used for the support/resistance band
	SpikeRatio        float64 `json:"spike_ratio"`         // one-side book mass multiple that counts as a spike
	SpikeDepth        int     `json:"spike_depth"`         // top-of-book levels summed per side
	SidewaysThreshold float64 `json:"sideways_threshold"`  // max range/avg-high fraction for a sideways market
	WickBodyRatio     float64 `json:"wick_body_ratio"`     // wick length multiple of body for a reversal
	RetestBand        float64 `json:"retest_band"`         // price proximity fraction for a level retest
	StopFraction      float64 `json:"stop_fraction"`       // default stop distance attached to intents
	TakeFraction      float64 `json:"target_fraction"`     // default take-profit distance attached to intents
	SpikeConfirmation int     `json:"spike_confirmations"` // consecutive snapshots a spike must persist
}

// DefaultConfig returns the baseline thresholds for the "normal" mode.
func DefaultConfig() Config {
	return Config{
		TrendLookback:     5,
		BandLookback:      30,
		SpikeRatio:        1.5,
		SpikeDepth:        5,
		SidewaysThreshold: 0.005,
		WickBodyRatio:     2.0,
		RetestBand:        0.002,
		StopFraction:      0.01,
		TakeFraction:      0.01,
		SpikeConfirmation: 1,
	}
}

// Engine runs the detector chain.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine with the given thresholds.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Evaluate runs the fixed priority chain over the window and book and
// returns the first matching intent, or nil when no detector fires.
// The chain order is part of the contract: trend break, book spike,
// sideways scalp, wick reversal, level retest.
func (e *Engine) Evaluate(symbol string, window []market.Candle, book *market.Snapshot) *Intent {
	if intent := e.trendBreak(symbol, window); intent != nil {
		return intent
	}
	if intent := e.bookSpike(symbol, book); intent != nil {
		return intent
	}
	if intent := e.sidewaysScalp(symbol, window, book); intent != nil {
		return intent
	}
	if intent := e.wickReversal(symbol, window); intent != nil {
		return intent
	}
	return e.levelRetest(symbol, window, book)
}

// trendBreak fires when the minimum of the most recent K closes clears
// the maximum of the prior K closes (breakout), or the inverse
// (breakdown), confirmed against the support/resistance band.
func (e *Engine) trendBreak(symbol string, window []market.Candle) *Intent {
	k := e.cfg.TrendLookback
	if k <= 0 || len(window) < 2*k {
		return nil
	}

	prior := window[len(window)-2*k : len(window)-k]
	recent := window[len(window)-k:]

	priorMax, priorMin := prior[0].Close, prior[0].Close
	for _, c := range prior[1:] {
		if c.Close > priorMax {
			priorMax = c.Close
		}
		if c.Close < priorMin {
			priorMin = c.Close
		}
	}
	recentMin, recentMax := recent[0].Close, recent[0].Close
	for _, c := range recent[1:] {
		if c.Close < recentMin {
			recentMin = c.Close
		}
		if c.Close > recentMax {
			recentMax = c.Close
		}
	}

	support, resistance := Band(window, e.cfg.BandLookback)
	last := window[len(window)-1].Close

	if recentMin > priorMax && last >= resistance {
		return e.intent(symbol, SideLong, ReasonTrendBreakout)
	}
	if recentMax < priorMin && last <= support {
		return e.intent(symbol, SideShort, ReasonTrendBreakdown)
	}
	return nil
}

// bookSpike fires when one side of the top of book carries at least
// SpikeRatio times the mass of the other. The heavier side sets the
// direction.
func (e *Engine) bookSpike(symbol string, book *market.Snapshot) *Intent {
	if book == nil {
		return nil
	}
	bids := book.BidSize(e.cfg.SpikeDepth)
	asks := book.AskSize(e.cfg.SpikeDepth)
	if bids <= 0 || asks <= 0 {
		return nil
	}
	if bids >= e.cfg.SpikeRatio*asks {
		return e.intent(symbol, SideLong, ReasonBookSpike)
	}
	if asks >= e.cfg.SpikeRatio*bids {
		return e.intent(symbol, SideShort, ReasonBookSpike)
	}
	return nil
}

// sidewaysScalp fires in a tight range: recent high-low spread as a
// fraction of the average high stays under the threshold. Price below
// the band midpoint goes long, above goes short.
func (e *Engine) sidewaysScalp(symbol string, window []market.Candle, book *market.Snapshot) *Intent {
	n := e.cfg.BandLookback
	if n <= 0 || len(window) < n || book == nil || book.LastPrice <= 0 {
		return nil
	}
	recent := window[len(window)-n:]

	high, low, highSum := recent[0].High, recent[0].Low, 0.0
	for _, c := range recent {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
		highSum += c.High
	}
	avgHigh := highSum / float64(n)
	if avgHigh <= 0 || (high-low)/avgHigh >= e.cfg.SidewaysThreshold {
		return nil
	}

	mid := (high + low) / 2
	switch {
	case book.LastPrice < mid:
		return e.intent(symbol, SideLong, ReasonSidewaysScalp)
	case book.LastPrice > mid:
		return e.intent(symbol, SideShort, ReasonSidewaysScalp)
	default:
		return nil
	}
}

// wickReversal fires when the latest candle's wick on one side exceeds
// WickBodyRatio times its body, signalling rejection of that extreme.
func (e *Engine) wickReversal(symbol string, window []market.Candle) *Intent {
	if len(window) == 0 {
		return nil
	}
	last := window[len(window)-1]
	body := last.Body()
	if body <= 0 {
		return nil
	}
	lower := last.LowerWick()
	upper := last.UpperWick()

	if lower >= e.cfg.WickBodyRatio*body && lower > upper {
		return e.intent(symbol, SideLong, ReasonWickReversal)
	}
	if upper >= e.cfg.WickBodyRatio*body && upper > lower {
		return e.intent(symbol, SideShort, ReasonWickReversal)
	}
	return nil
}

// levelRetest fires when price sits within RetestBand of the band's
// support (long) or resistance (short).
func (e *Engine) levelRetest(symbol string, window []market.Candle, book *market.Snapshot) *Intent {
	if book == nil || book.LastPrice <= 0 || len(window) < e.cfg.BandLookback {
		return nil
	}
	support, resistance := Band(window, e.cfg.BandLookback)
	if support <= 0 || resistance <= 0 {
		return nil
	}

	price := book.LastPrice
	if abs(price-support)/price <= e.cfg.RetestBand {
		return e.intent(symbol, SideLong, ReasonLevelRetest)
	}
	if abs(price-resistance)/price <= e.cfg.RetestBand {
		return e.intent(symbol, SideShort, ReasonLevelRetest)
	}
	return nil
}

func (e *Engine) intent(symbol string, side Side, reason Reason) *Intent {
	return &Intent{
		Symbol:       symbol,
		Side:         side,
		Reason:       reason,
		StopFraction: e.cfg.StopFraction,
		TakeFraction: e.cfg.TakeFraction,
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

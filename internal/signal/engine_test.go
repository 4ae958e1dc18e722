package signal

import (
	"testing"
	"time"

	"bitget-trading-bot/internal/market"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.TrendLookback = 5
	cfg.BandLookback = 10
	return cfg
}

func bar(open, high, low, close float64) market.Candle {
	return market.Candle{Open: open, High: high, Low: low, Close: close, Volume: 1}
}

// flatWindow builds n identical candles.
func flatWindow(n int, high, low float64) []market.Candle {
	mid := (high + low) / 2
	window := make([]market.Candle, n)
	for i := range window {
		window[i] = bar(mid, high, low, mid)
		window[i].OpenTime = time.UnixMilli(int64(i) * 60000)
	}
	return window
}

func bookWith(price, bidSize, askSize float64) *market.Snapshot {
	return &market.Snapshot{
		Symbol:    "BTCUSDT_UMCBL",
		LastPrice: price,
		Bids:      []market.PriceLevel{{Price: price - 1, Size: bidSize}},
		Asks:      []market.PriceLevel{{Price: price + 1, Size: askSize}},
	}
}

func TestBookSpikeDirections(t *testing.T) {
	e := NewEngine(testConfig())

	cases := []struct {
		name     string
		bids     float64
		asks     float64
		wantSide Side
		wantNone bool
	}{
		{"bid spike goes long", 100, 40, SideLong, false},
		{"ask spike goes short", 100, 160, SideShort, false},
		{"balanced book no intent", 100, 90, "", true},
		{"just under threshold no intent", 149, 100, "", true},
		{"exactly at threshold fires", 150, 100, SideLong, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			intent := e.Evaluate("BTCUSDT_UMCBL", nil, bookWith(100, tc.bids, tc.asks))
			if tc.wantNone {
				if intent != nil {
					t.Fatalf("expected no intent, got %+v", intent)
				}
				return
			}
			if intent == nil {
				t.Fatal("expected an intent")
			}
			if intent.Side != tc.wantSide || intent.Reason != ReasonBookSpike {
				t.Errorf("got side=%s reason=%s, want side=%s reason=%s",
					intent.Side, intent.Reason, tc.wantSide, ReasonBookSpike)
			}
		})
	}
}

func TestTrendBreakout(t *testing.T) {
	e := NewEngine(testConfig())

	// Prior 5 closes 100..104, recent 5 closes 110..114. The recent
	// minimum clears the prior maximum and the last close sits at the
	// band resistance.
	window := make([]market.Candle, 0, 10)
	for i := 0; i < 5; i++ {
		c := 100 + float64(i)
		window = append(window, bar(c, c, c-0.5, c))
	}
	for i := 0; i < 5; i++ {
		c := 110 + float64(i)
		window = append(window, bar(c, c, c-0.5, c))
	}

	intent := e.Evaluate("ETHUSDT_UMCBL", window, bookWith(114, 10, 10))
	if intent == nil {
		t.Fatal("expected breakout intent")
	}
	if intent.Side != SideLong || intent.Reason != ReasonTrendBreakout {
		t.Errorf("got %+v, want long trend_breakout", intent)
	}
}

func TestTrendBreakdown(t *testing.T) {
	e := NewEngine(testConfig())

	window := make([]market.Candle, 0, 10)
	for i := 0; i < 5; i++ {
		c := 114 - float64(i)
		window = append(window, bar(c, c+0.5, c, c))
	}
	for i := 0; i < 5; i++ {
		c := 104 - float64(i)
		window = append(window, bar(c, c+0.5, c, c))
	}

	intent := e.Evaluate("ETHUSDT_UMCBL", window, bookWith(100, 10, 10))
	if intent == nil {
		t.Fatal("expected breakdown intent")
	}
	if intent.Side != SideShort || intent.Reason != ReasonTrendBreakdown {
		t.Errorf("got %+v, want short trend_breakdown", intent)
	}
}

func TestTrendBeatsSpikeInPriority(t *testing.T) {
	e := NewEngine(testConfig())

	window := make([]market.Candle, 0, 10)
	for i := 0; i < 5; i++ {
		c := 100 + float64(i)
		window = append(window, bar(c, c, c-0.5, c))
	}
	for i := 0; i < 5; i++ {
		c := 110 + float64(i)
		window = append(window, bar(c, c, c-0.5, c))
	}

	// The book alone would be a short spike; the trend break wins.
	intent := e.Evaluate("ETHUSDT_UMCBL", window, bookWith(114, 10, 100))
	if intent == nil || intent.Reason != ReasonTrendBreakout {
		t.Errorf("expected trend_breakout to take priority, got %+v", intent)
	}
}

func TestSidewaysScalp(t *testing.T) {
	e := NewEngine(testConfig())
	window := flatWindow(10, 100.2, 100.0) // range 0.2%, under 0.5% threshold

	long := e.Evaluate("X", window, bookWith(100.05, 10, 10))
	if long == nil || long.Side != SideLong || long.Reason != ReasonSidewaysScalp {
		t.Errorf("below midpoint: got %+v, want long sideways_scalp", long)
	}

	short := e.Evaluate("X", window, bookWith(100.15, 10, 10))
	if short == nil || short.Side != SideShort || short.Reason != ReasonSidewaysScalp {
		t.Errorf("above midpoint: got %+v, want short sideways_scalp", short)
	}

	wide := flatWindow(10, 110, 100) // 10% range, not sideways
	if intent := e.Evaluate("X", wide, bookWith(104, 10, 10)); intent != nil && intent.Reason == ReasonSidewaysScalp {
		t.Errorf("wide range should not scalp, got %+v", intent)
	}
}

func TestWickReversal(t *testing.T) {
	e := NewEngine(testConfig())

	// Long lower wick: open 100, close 101, low 97. Book is nil so no
	// book-dependent detector can fire first.
	long := e.Evaluate("X", []market.Candle{bar(100, 101.2, 97, 101)}, nil)
	if long == nil || long.Side != SideLong || long.Reason != ReasonWickReversal {
		t.Errorf("lower wick: got %+v, want long wick_reversal", long)
	}

	short := e.Evaluate("X", []market.Candle{bar(101, 105, 100.8, 100)}, nil)
	if short == nil || short.Side != SideShort || short.Reason != ReasonWickReversal {
		t.Errorf("upper wick: got %+v, want short wick_reversal", short)
	}

	// Small wicks, no reversal.
	if intent := e.Evaluate("X", []market.Candle{bar(100, 101.1, 99.9, 101)}, nil); intent != nil {
		t.Errorf("expected no intent for plain candle, got %+v", intent)
	}

	// Doji: zero body never divides, never fires.
	if intent := e.Evaluate("X", []market.Candle{bar(100, 102, 98, 100)}, nil); intent != nil {
		t.Errorf("expected no intent for doji, got %+v", intent)
	}
}

func TestLevelRetest(t *testing.T) {
	e := NewEngine(testConfig())

	// Range 100..110 with oscillating closes so neither trend nor
	// sideways fires, and a plain last candle so the wick detector
	// stays quiet.
	window := make([]market.Candle, 0, 10)
	for i := 0; i < 9; i++ {
		if i%2 == 0 {
			window = append(window, bar(103, 110, 100, 106))
		} else {
			window = append(window, bar(106, 110, 100, 103))
		}
	}
	window = append(window, bar(104, 105.1, 103.9, 105))

	long := e.Evaluate("X", window, bookWith(100.1, 10, 10))
	if long == nil || long.Side != SideLong || long.Reason != ReasonLevelRetest {
		t.Errorf("support retest: got %+v, want long level_retest", long)
	}

	short := e.Evaluate("X", window, bookWith(109.9, 10, 10))
	if short == nil || short.Side != SideShort || short.Reason != ReasonLevelRetest {
		t.Errorf("resistance retest: got %+v, want short level_retest", short)
	}

	// Mid-range price is nowhere near a level.
	if intent := e.Evaluate("X", window, bookWith(105, 10, 10)); intent != nil {
		t.Errorf("expected no intent mid-range, got %+v", intent)
	}
}

func TestNoIntentOnEmptyInputs(t *testing.T) {
	e := NewEngine(testConfig())
	if intent := e.Evaluate("X", nil, nil); intent != nil {
		t.Errorf("expected nil on empty inputs, got %+v", intent)
	}
}

func TestIntentCarriesConfiguredDistances(t *testing.T) {
	cfg := testConfig()
	cfg.StopFraction = 0.02
	cfg.TakeFraction = 0.015
	e := NewEngine(cfg)

	intent := e.Evaluate("X", nil, bookWith(100, 100, 40))
	if intent == nil {
		t.Fatal("expected spike intent")
	}
	if intent.StopFraction != 0.02 || intent.TakeFraction != 0.015 {
		t.Errorf("distances not taken from config: %+v", intent)
	}
}

func TestPerfectReasons(t *testing.T) {
	perfect := []Reason{ReasonTrendBreakout, ReasonTrendBreakdown}
	for _, r := range perfect {
		if !(&Intent{Reason: r}).Perfect() {
			t.Errorf("%s should be perfect", r)
		}
	}
	for _, r := range []Reason{ReasonBookSpike, ReasonSidewaysScalp, ReasonWickReversal, ReasonLevelRetest} {
		if (&Intent{Reason: r}).Perfect() {
			t.Errorf("%s should not be perfect", r)
		}
	}
}

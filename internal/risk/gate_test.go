package risk

import (
	"strings"
	"testing"
	"time"
)

func testGate() *Gate {
	return NewGate(Config{
		MaxDailyLossFraction: 0.05,
		MaxDailyTrades:       10,
		LossCooldown:         5 * time.Minute,
		MaxVolatility:        0.03,
		MaxDrawdown:          0.20,
		MaxRiskPerTrade:      0.01,
		MaxExposureFraction:  0.30,
	})
}

func TestAllowCleanState(t *testing.T) {
	g := testGate()
	ok, reason := g.Allow(NewState(1000), 0.01, time.Now())
	if !ok {
		t.Errorf("clean state refused: %s", reason)
	}
}

func TestDailyLossRefusal(t *testing.T) {
	g := testGate()
	s := NewState(1000)
	s.DailyLoss = 50 // exactly 5% of starting equity

	ok, reason := g.Allow(s, 0.01, time.Now())
	if ok || !strings.Contains(reason, "daily loss") {
		t.Errorf("got ok=%v reason=%q", ok, reason)
	}
}

func TestTradeCapRefusal(t *testing.T) {
	g := testGate()
	s := NewState(1000)
	s.DailyTrades = 10

	ok, reason := g.Allow(s, 0.01, time.Now())
	if ok || !strings.Contains(reason, "trade cap") {
		t.Errorf("got ok=%v reason=%q", ok, reason)
	}
}

func TestLossCooldown(t *testing.T) {
	g := testGate()
	now := time.Now()

	s := NewState(1000)
	s.LastLossAt = now.Add(-time.Minute)
	if ok, _ := g.Allow(s, 0.01, now); ok {
		t.Error("trade within cooldown should be refused")
	}

	s.LastLossAt = now.Add(-10 * time.Minute)
	if ok, reason := g.Allow(s, 0.01, now); !ok {
		t.Errorf("cooldown elapsed, refused: %s", reason)
	}
}

func TestVolatilityCeiling(t *testing.T) {
	g := testGate()
	s := NewState(1000)

	if ok, _ := g.Allow(s, 0.05, time.Now()); ok {
		t.Error("volatility above ceiling should be refused")
	}
	if ok, reason := g.Allow(s, 0.03, time.Now()); !ok {
		t.Errorf("volatility at ceiling refused: %s", reason)
	}
}

func TestDrawdownLimit(t *testing.T) {
	g := testGate()
	s := NewState(1000)
	s.ObserveEquity(1200)
	s.Equity = 950 // 20.8% off the 1200 peak

	ok, reason := g.Allow(s, 0.01, time.Now())
	if ok || !strings.Contains(reason, "drawdown") {
		t.Errorf("got ok=%v reason=%q", ok, reason)
	}

	s.Equity = 1000 // 16.7% off peak
	if ok, reason := g.Allow(s, 0.01, time.Now()); !ok {
		t.Errorf("drawdown inside limit refused: %s", reason)
	}
}

func TestSizePosition(t *testing.T) {
	g := testGate()

	// Risk budget 1000*0.01=10, stop distance 0.5 -> 20 units by risk.
	// Exposure 1000*0.30/100=3 units. Exposure binds.
	if got := g.SizePosition(1000, 100, 0.5); got != 3 {
		t.Errorf("size = %v, want 3 (exposure bound)", got)
	}

	// Wide stop: 10/10=1 unit by risk. Risk binds.
	if got := g.SizePosition(1000, 100, 10); got != 1 {
		t.Errorf("size = %v, want 1 (risk bound)", got)
	}

	for _, bad := range [][3]float64{{0, 100, 1}, {1000, 0, 1}, {1000, 100, 0}} {
		if got := g.SizePosition(bad[0], bad[1], bad[2]); got != 0 {
			t.Errorf("SizePosition(%v) = %v, want 0", bad, got)
		}
	}
}

func TestRecordOutcome(t *testing.T) {
	now := time.Now()
	s := NewState(1000)

	s.RecordOutcome(25, now)
	if s.DailyTrades != 1 || s.DailyLoss != 0 || !s.LastLossAt.IsZero() {
		t.Errorf("winning trade bookkeeping wrong: %+v", s)
	}
	if s.Equity != 1025 || s.PeakEquity != 1025 {
		t.Errorf("equity not advanced: %+v", s)
	}

	s.RecordOutcome(-40, now)
	if s.DailyLoss != 40 || s.LastLossAt != now {
		t.Errorf("losing trade bookkeeping wrong: %+v", s)
	}
	if s.Equity != 985 || s.PeakEquity != 1025 {
		t.Errorf("peak should survive a loss: %+v", s)
	}
}

func TestResetDay(t *testing.T) {
	s := NewState(1000)
	s.RecordOutcome(-40, time.Now())
	s.ResetDay()

	if s.DailyLoss != 0 || s.DailyTrades != 0 || !s.LastLossAt.IsZero() {
		t.Errorf("daily counters survived rollover: %+v", s)
	}
	if s.Equity != 960 {
		t.Errorf("equity should survive rollover: %+v", s)
	}
}

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bitget-trading-bot/internal/events"
	"bitget-trading-bot/internal/feed"
	"bitget-trading-bot/internal/risk"
	"bitget-trading-bot/internal/signal"
	"bitget-trading-bot/internal/slots"
	"bitget-trading-bot/internal/target"
)

type stubSource struct {
	stats feed.Stats
	state risk.State
}

func (s *stubSource) FeedStats() feed.Stats { return s.stats }
func (s *stubSource) RiskState() risk.State { return s.state }

func testServer(connected bool) (*Server, *slots.Ledger) {
	bus := events.NewBus()
	recorder := events.NewRecorder(bus, 10)
	ledger := slots.NewLedger(map[string]int{"normal": 3}, true)
	tracker := target.NewTracker(map[string]target.ModeConfig{
		"normal": {BaseTarget: 30, Multiplier: 3, SwitchBalance: 3000},
	}, time.Now())

	source := &stubSource{
		stats: feed.Stats{Connected: connected, Messages: 42},
		state: risk.State{Equity: 1000, PeakEquity: 1200, DailyTrades: 3},
	}
	return NewServer(ServerConfig{}, source, tracker, ledger, recorder), ledger
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealthReflectsFeedState(t *testing.T) {
	s, _ := testServer(true)
	if w := get(t, s, "/healthz"); w.Code != http.StatusOK {
		t.Errorf("healthy feed: status %d, want 200", w.Code)
	}

	s, _ = testServer(false)
	if w := get(t, s, "/healthz"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("disconnected feed: status %d, want 503", w.Code)
	}
}

func TestStatusAggregates(t *testing.T) {
	s, ledger := testServer(true)
	ledger.TryReserve("normal", "BTCUSDT_UMCBL", signal.SideLong)

	w := get(t, s, "/api/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}

	var body BotStatus
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body.Feed.Messages != 42 {
		t.Errorf("feed stats missing: %+v", body.Feed)
	}
	if body.Risk.Equity != 1000 {
		t.Errorf("risk state missing: %+v", body.Risk)
	}
	if body.Slots["normal/BTCUSDT_UMCBL/long"] != 1 {
		t.Errorf("slots missing: %v", body.Slots)
	}
	if body.Targets["normal"].Target != 30 {
		t.Errorf("targets missing: %v", body.Targets)
	}
}

func TestTradesEndpoint(t *testing.T) {
	s, _ := testServer(true)

	w := get(t, s, "/api/trades")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var body struct {
		Trades []events.Event `json:"trades"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(body.Trades) != 0 {
		t.Errorf("expected empty history, got %d", len(body.Trades))
	}
}

func TestReadOnlySurface(t *testing.T) {
	s, _ := testServer(true)

	req := httptest.NewRequest(http.MethodPost, "/api/status", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound && w.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST should not be served, got %d", w.Code)
	}
}

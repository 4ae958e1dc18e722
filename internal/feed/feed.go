// Package feed maintains the streaming market-data connection to Bitget
// and writes canonical snapshots into the market store.
package feed

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"bitget-trading-bot/internal/logging"
	"bitget-trading-bot/internal/market"
	"bitget-trading-bot/internal/retry"
)

// DefaultURL is the Bitget mix public stream endpoint.
const DefaultURL = "wss://ws.bitget.com/mix/v1/stream"

const (
	pingInterval     = 20 * time.Second
	readDeadline     = 60 * time.Second
	reconnectInitial = time.Second
	reconnectMax     = 30 * time.Second
)

// Config holds feed settings.
type Config struct {
	URL      string   `json:"url"`
	InstType string   `json:"inst_type"` // e.g. "USDT-FUTURES"
	Symbols  []string `json:"symbols"`
}

// Stats is a point-in-time view of feed health for the status API.
type Stats struct {
	Connected   bool      `json:"connected"`
	Reconnects  int64     `json:"reconnects"`
	Messages    int64     `json:"messages"`
	Discarded   int64     `json:"discarded"`
	LastMessage time.Time `json:"last_message"`
}

// Feed owns one websocket connection. It subscribes to ticker, books and
// candle1m per symbol, merges inbound fragments into per-symbol
// snapshots and pushes them into the store. On any transport error it
// reconnects with capped jittered backoff and resubscribes; only context
// cancellation stops it.
type Feed struct {
	cfg   Config
	store *market.Store
	log   zerolog.Logger

	mu         sync.Mutex
	connected  bool
	reconnects int64
	messages   int64
	discarded  int64
	lastMsg    time.Time

	// building holds the current mutable snapshot per symbol; a copy is
	// written to the store so readers never see partial merges.
	building map[string]*market.Snapshot
}

// New creates a feed writing into store.
func New(cfg Config, store *market.Store) *Feed {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.InstType == "" {
		cfg.InstType = "USDT-FUTURES"
	}
	return &Feed{
		cfg:      cfg,
		store:    store,
		log:      logging.Component("feed"),
		building: make(map[string]*market.Snapshot),
	}
}

// Run connects and consumes the stream until ctx is cancelled. It never
// returns on transport errors; those trigger reconnects.
func (f *Feed) Run(ctx context.Context) error {
	backoffSchedule := retry.Reconnect(reconnectInitial, reconnectMax)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := f.connect(ctx)
		if err != nil {
			delay := backoffSchedule.NextBackOff()
			f.log.Warn().Err(err).Dur("retry_in", delay).Msg("connection failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			continue
		}

		backoffSchedule.Reset()
		f.setConnected(true)
		f.log.Info().Int("symbols", len(f.cfg.Symbols)).Msg("connected and subscribed")

		err = f.readLoop(ctx, conn)
		conn.Close()
		f.setConnected(false)

		if ctx.Err() != nil {
			return ctx.Err()
		}

		f.mu.Lock()
		f.reconnects++
		f.mu.Unlock()

		delay := backoffSchedule.NextBackOff()
		f.log.Warn().Err(err).Dur("retry_in", delay).Msg("connection lost, reconnecting")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// connect dials the stream and sends one subscription per
// (channel, symbol) pair. Subscriptions are resent on every reconnect.
func (f *Feed) connect(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.cfg.URL, nil)
	if err != nil {
		return nil, err
	}

	channels := []string{ChannelTicker, ChannelBooks, ChannelCandle}
	for _, symbol := range f.cfg.Symbols {
		for _, channel := range channels {
			sub := subscribeRequest{
				Op: "subscribe",
				Args: []subscribeArg{{
					InstType: f.cfg.InstType,
					Channel:  channel,
					InstID:   symbol,
				}},
			}
			if err := conn.WriteJSON(sub); err != nil {
				conn.Close()
				return nil, err
			}
		}
	}

	return conn, nil
}

// readLoop consumes frames until a transport error or cancellation.
func (f *Feed) readLoop(ctx context.Context, conn *websocket.Conn) error {
	// Bitget closes idle connections; send an application-level ping and
	// require traffic within the read deadline.
	pingDone := make(chan struct{})
	defer close(pingDone)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pingDone:
				return
			case <-ctx.Done():
				conn.Close()
				return
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		if string(raw) == "pong" {
			continue
		}

		f.mu.Lock()
		f.messages++
		f.lastMsg = time.Now()
		f.mu.Unlock()

		update, err := parseMessage(raw)
		if err != nil {
			// Best-effort feed: malformed frames are dropped, correctness
			// is eventual rather than message-exact.
			f.mu.Lock()
			f.discarded++
			f.mu.Unlock()
			continue
		}
		f.apply(update)
	}
}

// apply merges a normalized update into the symbol's snapshot and
// publishes the result.
func (f *Feed) apply(u *Update) {
	switch u.Channel {
	case ChannelCandle:
		f.store.UpdateCandle(u.Symbol, *u.Candle)
		return
	case ChannelTicker, ChannelBooks:
	default:
		return
	}

	f.mu.Lock()
	cur := f.building[u.Symbol]
	if cur == nil {
		cur = &market.Snapshot{Symbol: u.Symbol}
		f.building[u.Symbol] = cur
	}
	if u.Ticker != nil {
		cur.LastPrice = u.Ticker.Last
	}
	if u.Book != nil {
		cur.Bids = u.Book.Bids
		cur.Asks = u.Book.Asks
	}
	cur.Timestamp = time.Now()

	// Publish a copy; the building snapshot keeps being merged into.
	published := *cur
	f.mu.Unlock()

	f.store.Write(&published)
}

func (f *Feed) setConnected(v bool) {
	f.mu.Lock()
	f.connected = v
	f.mu.Unlock()
}

// GetStats returns feed health counters.
func (f *Feed) GetStats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Stats{
		Connected:   f.connected,
		Reconnects:  f.reconnects,
		Messages:    f.messages,
		Discarded:   f.discarded,
		LastMessage: f.lastMsg,
	}
}

package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"bitget-trading-bot/internal/market"
)

// Channel tags on inbound stream messages.
const (
	ChannelTicker  = "ticker"
	ChannelBooks   = "books"
	ChannelCandle  = "candle1m"
	defaultBookCap = 15
)

var errNotData = errors.New("feed: not a data message")

// Update is one inbound message normalized at the ingestion boundary.
// Exactly one of Ticker, Book, Candle is set, selected by Channel.
// Downstream code never sees wire-format shapes.
type Update struct {
	Channel string
	Symbol  string
	Ticker  *TickerUpdate
	Book    *BookUpdate
	Candle  *market.Candle
}

// TickerUpdate carries the last traded price.
type TickerUpdate struct {
	Last float64
}

// BookUpdate carries depth levels, best first.
type BookUpdate struct {
	Bids []market.PriceLevel
	Asks []market.PriceLevel
}

// subscribeRequest is the stream subscription envelope:
// {op:"subscribe", args:[{instType, channel, instId}]}.
type subscribeRequest struct {
	Op   string         `json:"op"`
	Args []subscribeArg `json:"args"`
}

type subscribeArg struct {
	InstType string `json:"instType"`
	Channel  string `json:"channel"`
	InstID   string `json:"instId"`
}

// rawMessage is the inbound envelope. Event messages (subscribe acks,
// pongs, errors) have no data and are skipped.
type rawMessage struct {
	Event string `json:"event"`
	Arg   struct {
		Channel string `json:"channel"`
		InstID  string `json:"instId"`
	} `json:"arg"`
	Data json.RawMessage `json:"data"`
}

// parseMessage normalizes one inbound frame. Returns errNotData for
// acks/pongs and an error for malformed payloads; the feed discards
// both silently.
func parseMessage(raw []byte) (*Update, error) {
	var msg rawMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("feed: unparseable frame: %w", err)
	}
	if msg.Event != "" || msg.Arg.Channel == "" || len(msg.Data) == 0 {
		return nil, errNotData
	}
	if msg.Arg.InstID == "" {
		return nil, fmt.Errorf("feed: %s message without instId", msg.Arg.Channel)
	}

	update := &Update{Channel: msg.Arg.Channel, Symbol: msg.Arg.InstID}

	switch msg.Arg.Channel {
	case ChannelTicker:
		t, err := parseTicker(msg.Data)
		if err != nil {
			return nil, err
		}
		update.Ticker = t
	case ChannelBooks:
		b, err := parseBook(msg.Data)
		if err != nil {
			return nil, err
		}
		update.Book = b
	case ChannelCandle:
		c, err := parseCandle(msg.Data)
		if err != nil {
			return nil, err
		}
		update.Candle = c
	default:
		return nil, fmt.Errorf("feed: unknown channel %q", msg.Arg.Channel)
	}

	return update, nil
}

func parseTicker(data json.RawMessage) (*TickerUpdate, error) {
	var payload []struct {
		Last string `json:"last"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || len(payload) == 0 {
		return nil, fmt.Errorf("feed: bad ticker payload")
	}
	last, err := strconv.ParseFloat(payload[0].Last, 64)
	if err != nil {
		return nil, fmt.Errorf("feed: ticker last %q: %w", payload[0].Last, err)
	}
	return &TickerUpdate{Last: last}, nil
}

func parseBook(data json.RawMessage) (*BookUpdate, error) {
	var payload []struct {
		Bids [][]string `json:"bids"`
		Asks [][]string `json:"asks"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || len(payload) == 0 {
		return nil, fmt.Errorf("feed: bad books payload")
	}
	return &BookUpdate{
		Bids: parsePriceLevels(payload[0].Bids),
		Asks: parsePriceLevels(payload[0].Asks),
	}, nil
}

// parseCandle decodes the OHLCV 6-tuple [ts, open, high, low, close, volume].
func parseCandle(data json.RawMessage) (*market.Candle, error) {
	var payload [][]string
	if err := json.Unmarshal(data, &payload); err != nil || len(payload) == 0 {
		return nil, fmt.Errorf("feed: bad candle payload")
	}
	row := payload[0]
	if len(row) < 6 {
		return nil, fmt.Errorf("feed: candle tuple has %d fields", len(row))
	}

	ts, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("feed: candle timestamp %q: %w", row[0], err)
	}
	vals := make([]float64, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(row[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("feed: candle field %d %q: %w", i+1, row[i+1], err)
		}
		vals[i] = v
	}

	return &market.Candle{
		OpenTime: time.UnixMilli(ts).UTC(),
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
	}, nil
}

func parsePriceLevels(raw [][]string) []market.PriceLevel {
	levels := make([]market.PriceLevel, 0, len(raw))
	for _, l := range raw {
		if len(l) < 2 {
			continue
		}
		price, err1 := strconv.ParseFloat(l[0], 64)
		size, err2 := strconv.ParseFloat(l[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		levels = append(levels, market.PriceLevel{Price: price, Size: size})
		if len(levels) >= defaultBookCap {
			break
		}
	}
	return levels
}

package market

import "time"

// PriceLevel is a single order book level as [price, size].
type PriceLevel struct {
	Price float64
	Size  float64
}

// Snapshot is the canonical view of one instrument's market state.
// It is immutable once constructed; the feed builds a new Snapshot
// off-store and swaps it in, never mutates one in place.
type Snapshot struct {
	Symbol    string
	Timestamp time.Time
	LastPrice float64
	Bids      []PriceLevel // best first
	Asks      []PriceLevel // best first
}

// BidSize returns the aggregate size of the top n bid levels.
func (s *Snapshot) BidSize(n int) float64 {
	return levelSum(s.Bids, n)
}

// AskSize returns the aggregate size of the top n ask levels.
func (s *Snapshot) AskSize(n int) float64 {
	return levelSum(s.Asks, n)
}

func levelSum(levels []PriceLevel, n int) float64 {
	if n > len(levels) {
		n = len(levels)
	}
	total := 0.0
	for _, l := range levels[:n] {
		total += l.Size
	}
	return total
}

// Candle is a single OHLCV bar.
type Candle struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Body returns the absolute open-close distance.
func (c Candle) Body() float64 {
	d := c.Close - c.Open
	if d < 0 {
		return -d
	}
	return d
}

// UpperWick returns the distance from the body top to the high.
func (c Candle) UpperWick() float64 {
	top := c.Open
	if c.Close > top {
		top = c.Close
	}
	return c.High - top
}

// LowerWick returns the distance from the body bottom to the low.
func (c Candle) LowerWick() float64 {
	bottom := c.Open
	if c.Close < bottom {
		bottom = c.Close
	}
	return bottom - c.Low
}

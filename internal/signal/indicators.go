package signal

import "bitget-trading-bot/internal/market"

// Band computes the support/resistance band over the last lookback
// candles: support is the lowest low, resistance the highest high.
func Band(window []market.Candle, lookback int) (support, resistance float64) {
	if len(window) == 0 || lookback <= 0 {
		return 0, 0
	}
	if lookback > len(window) {
		lookback = len(window)
	}
	recent := window[len(window)-lookback:]

	support, resistance = recent[0].Low, recent[0].High
	for _, c := range recent[1:] {
		if c.Low < support {
			support = c.Low
		}
		if c.High > resistance {
			resistance = c.High
		}
	}
	return support, resistance
}

// ATR computes the average true range over the last period candles.
// True range for a bar is the largest of high-low, |high-prevClose|
// and |low-prevClose|. Returns 0 when the window is too short.
func ATR(window []market.Candle, period int) float64 {
	if period <= 0 || len(window) < period+1 {
		return 0
	}
	recent := window[len(window)-period-1:]

	sum := 0.0
	for i := 1; i < len(recent); i++ {
		tr := recent[i].High - recent[i].Low
		if d := abs(recent[i].High - recent[i-1].Close); d > tr {
			tr = d
		}
		if d := abs(recent[i].Low - recent[i-1].Close); d > tr {
			tr = d
		}
		sum += tr
	}
	return sum / float64(period)
}

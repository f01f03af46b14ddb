package ohlcv

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one open-high-low-close-volume bar.
type Candle struct {
	Date   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume uint64
}

// row is the on-disk shape; fields are parsed after decoding so malformed
// numbers report the offending line.
type row struct {
	Date   string `csv:"date"`
	Open   string `csv:"open"`
	High   string `csv:"high"`
	Low    string `csv:"low"`
	Close  string `csv:"close"`
	Volume string `csv:"volume"`
}

// Closes returns the closing prices in order.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close.InexactFloat64()
	}
	return out
}

// LogReturns computes ln(close_i / close_{i-1}).
func LogReturns(candles []Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}
	returns := make([]float64, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close.InexactFloat64()
		curr := candles[i].Close.InexactFloat64()
		returns[i-1] = math.Log(curr / prev)
	}
	return returns
}

// Tail returns the last n candles, or all of them when there are fewer.
func Tail(candles []Candle, n int) []Candle {
	if n >= len(candles) {
		return candles
	}
	return candles[len(candles)-n:]
}

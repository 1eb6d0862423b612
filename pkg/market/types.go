package market

import "time"

// OptionType distinguishes calls from puts.
type OptionType string

const (
	Call OptionType = "CALL"
	Put  OptionType = "PUT"
)

// Candle is one OHLC bar. Series are ordered oldest to newest with no
// duplicate timestamps.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Closes extracts the close series from a candle slice.
func Closes(candles []Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}

// OptionQuote is a raw option chain row as delivered by the provider.
// Derived fields (DTE, estimated delta) are computed downstream, never here.
type OptionQuote struct {
	Underlying string
	Symbol     string
	Type       OptionType
	Strike     float64
	Expiration time.Time
	LastPrice  float64
	Trades     int
}

package market

import "context"

// Provider exposes exchange-agnostic market data for one data source.
// Every method is a fresh remote lookup; nothing is cached across calls.
type Provider interface {
	// Candles returns the ordered OHLC history for a ticker. The window and
	// interval strings use provider-native notation (e.g. "3mo", "1d").
	Candles(ctx context.Context, ticker, window, interval string) ([]Candle, error)
	// CurrentPrice returns the latest traded price, possibly intraday.
	CurrentPrice(ctx context.Context, ticker string) (float64, error)
	// OptionChain returns the raw, unfiltered option chain for an underlying.
	OptionChain(ctx context.Context, ticker string) ([]OptionQuote, error)
	// Quotes returns current prices for a batch of tickers. Tickers the
	// provider cannot resolve are absent from the result map.
	Quotes(ctx context.Context, tickers []string) (map[string]float64, error)
}

package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hiloscan/pkg/hilo"
	"hiloscan/pkg/market"
	"hiloscan/pkg/options"
)

var testNow = time.Date(2026, time.March, 2, 18, 0, 0, 0, time.UTC)

type fakeProvider struct {
	candles    map[string][]market.Candle
	prices     map[string]float64
	chains     map[string][]market.OptionQuote
	quotes     map[string]float64
	candlesErr error
	priceErr   error
	chainErr   error
	quotesErr  error
}

func (f *fakeProvider) Candles(ctx context.Context, ticker, window, interval string) ([]market.Candle, error) {
	if f.candlesErr != nil {
		return nil, f.candlesErr
	}
	return f.candles[ticker], nil
}

func (f *fakeProvider) CurrentPrice(ctx context.Context, ticker string) (float64, error) {
	if f.priceErr != nil {
		return 0, f.priceErr
	}
	return f.prices[ticker], nil
}

func (f *fakeProvider) OptionChain(ctx context.Context, ticker string) ([]market.OptionQuote, error) {
	if f.chainErr != nil {
		return nil, f.chainErr
	}
	return f.chains[ticker], nil
}

func (f *fakeProvider) Quotes(ctx context.Context, tickers []string) (map[string]float64, error) {
	if f.quotesErr != nil {
		return nil, f.quotesErr
	}
	return f.quotes, nil
}

type fakeStore struct {
	saved   []Signal
	options []*options.Contract
	nextID  int64
	isNew   bool
	err     error
}

func (f *fakeStore) SaveSignal(ctx context.Context, sig *Signal, option *options.Contract) (int64, bool, error) {
	if f.err != nil {
		return 0, false, f.err
	}
	f.saved = append(f.saved, *sig)
	f.options = append(f.options, option)
	f.nextID++
	return f.nextID, f.isNew, nil
}

type fakeBook struct {
	positions []Position
	err       error
}

func (f *fakeBook) OpenPositions(ctx context.Context, ticker string) ([]Position, error) {
	return f.positions, f.err
}

type fakeNotifier struct {
	signals   []Notification
	digests   [][]AssetResult
	signalErr error
}

func (f *fakeNotifier) SendSignal(ctx context.Context, n Notification) error {
	if f.signalErr != nil {
		return f.signalErr
	}
	f.signals = append(f.signals, n)
	return nil
}

func (f *fakeNotifier) SendDigest(ctx context.Context, results []AssetResult) error {
	f.digests = append(f.digests, results)
	return nil
}

// downtrend builds ten candles trending down so the replayed trend is Down
// with the average high as reference level.
func downtrend() []market.Candle {
	closes := []float64{30, 29, 28, 27, 26, 25, 24, 23, 22, 21}
	candles := make([]market.Candle, len(closes))
	for i, c := range closes {
		candles[i] = market.Candle{
			Timestamp: testNow.AddDate(0, 0, i-len(closes)),
			Open:      c,
			High:      c + 0.5,
			Low:       c - 0.5,
			Close:     c,
		}
	}
	return candles
}

// inBandCall is a call whose estimated delta lands inside the selection band
// for a spot of 40 (strike/spot ratio 1.05, 45 DTE ⇒ delta ≈ 0.40).
func inBandCall() market.OptionQuote {
	return market.OptionQuote{
		Underlying: "PETR4",
		Symbol:     "PETRC42",
		Type:       market.Call,
		Strike:     42,
		Expiration: testNow.AddDate(0, 0, 45),
		LastPrice:  1.10,
		Trades:     120,
	}
}

func defaultConfig() Config {
	return Config{
		TrendPeriod:         10,
		ProfitTargetPercent: 50,
		Enabled:             true,
		CandleWindow:        "3mo",
		CandleInterval:      "1d",
	}
}

func newTestScanner(t *testing.T, provider *fakeProvider, store *fakeStore, book *fakeBook, notifier *fakeNotifier) *Scanner {
	t.Helper()
	s, err := New(defaultConfig(), provider, store, book, notifier, WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	return s
}

func TestAnalyzeAssetFlipPersistsAndNotifies(t *testing.T) {
	provider := &fakeProvider{
		candles: map[string][]market.Candle{"PETR4": downtrend()},
		prices:  map[string]float64{"PETR4": 40},
		chains:  map[string][]market.OptionQuote{"PETR4": {inBandCall()}},
	}
	store := &fakeStore{isNew: true}
	notifier := &fakeNotifier{}
	s := newTestScanner(t, provider, store, &fakeBook{}, notifier)

	result, err := s.AnalyzeAsset(context.Background(), "PETR4", false)
	require.NoError(t, err)
	require.True(t, result.Flipped)
	require.Equal(t, Buy, result.Direction)
	require.Equal(t, hilo.Up, result.Trend)
	require.NotNil(t, result.Option)
	require.Equal(t, "PETRC42", result.Option.Symbol)

	require.Len(t, store.saved, 1)
	require.Equal(t, "PETR4", store.saved[0].Ticker)
	require.Equal(t, Buy, store.saved[0].Direction)
	require.True(t, result.NewSignal)

	require.Len(t, notifier.signals, 1)
	require.Equal(t, "PETRC42", notifier.signals[0].Option.Symbol)
	require.True(t, result.Notified)
}

func TestAnalyzeAssetDuplicateSignalStaysQuiet(t *testing.T) {
	provider := &fakeProvider{
		candles: map[string][]market.Candle{"PETR4": downtrend()},
		prices:  map[string]float64{"PETR4": 40},
		chains:  map[string][]market.OptionQuote{"PETR4": {inBandCall()}},
	}
	store := &fakeStore{isNew: false}
	notifier := &fakeNotifier{}
	s := newTestScanner(t, provider, store, &fakeBook{}, notifier)

	result, err := s.AnalyzeAsset(context.Background(), "PETR4", false)
	require.NoError(t, err)
	require.True(t, result.Flipped)
	require.False(t, result.NewSignal)
	require.Empty(t, notifier.signals)
	require.False(t, result.Notified)
}

func TestAnalyzeAssetForcedNotifiesOnDuplicate(t *testing.T) {
	provider := &fakeProvider{
		candles: map[string][]market.Candle{"PETR4": downtrend()},
		prices:  map[string]float64{"PETR4": 40},
		chains:  map[string][]market.OptionQuote{"PETR4": {inBandCall()}},
	}
	store := &fakeStore{isNew: false}
	notifier := &fakeNotifier{}
	s := newTestScanner(t, provider, store, &fakeBook{}, notifier)

	result, err := s.AnalyzeAsset(context.Background(), "PETR4", true)
	require.NoError(t, err)
	require.Len(t, notifier.signals, 1)
	require.True(t, result.Notified)
}

func TestAnalyzeAssetInversionExitWithoutContract(t *testing.T) {
	// Fresh UP flip against an open put, no qualifying call in the chain:
	// exactly one inversion alert, delivered with the placeholder payload.
	provider := &fakeProvider{
		candles: map[string][]market.Candle{"PETR4": downtrend()},
		prices:  map[string]float64{"PETR4": 40},
		chains:  map[string][]market.OptionQuote{"PETR4": nil},
	}
	store := &fakeStore{isNew: true}
	book := &fakeBook{positions: []Position{{
		ContractSymbol: "PETRO38",
		Underlying:     "PETR4",
		Type:           options.Put,
		EntryPrice:     0.90,
		Quantity:       100,
	}}}
	notifier := &fakeNotifier{}
	s := newTestScanner(t, provider, store, book, notifier)

	result, err := s.AnalyzeAsset(context.Background(), "PETR4", false)
	require.NoError(t, err)
	require.True(t, result.Flipped)
	require.Nil(t, result.Option)

	require.Len(t, result.ExitAlerts, 1)
	require.Equal(t, ExitInversion, result.ExitAlerts[0].Kind)
	require.Equal(t, "PETRO38", result.ExitAlerts[0].ContractSymbol)

	require.Len(t, notifier.signals, 1)
	require.Equal(t, PlaceholderSymbol, notifier.signals[0].Option.Symbol)
	require.Contains(t, notifier.signals[0].ExitAlert, "PETRO38")
}

func TestAnalyzeAssetProfitTarget(t *testing.T) {
	// Steady downtrend with a live price inside the trend: no flip, but the
	// open position's gain crosses the 50% target.
	provider := &fakeProvider{
		candles: map[string][]market.Candle{"PETR4": downtrend()},
		prices:  map[string]float64{"PETR4": 20},
		quotes:  map[string]float64{"PETRO38": 1.51},
	}
	store := &fakeStore{}
	book := &fakeBook{positions: []Position{{
		ContractSymbol: "PETRO38",
		Underlying:     "PETR4",
		Type:           options.Put,
		EntryPrice:     1.00,
		Quantity:       100,
	}}}
	notifier := &fakeNotifier{}
	s := newTestScanner(t, provider, store, book, notifier)

	result, err := s.AnalyzeAsset(context.Background(), "PETR4", false)
	require.NoError(t, err)
	require.False(t, result.Flipped)
	require.Len(t, result.ExitAlerts, 1)
	require.Equal(t, ExitProfitTarget, result.ExitAlerts[0].Kind)
	require.Empty(t, store.saved)
	require.Len(t, notifier.signals, 1)
}

func TestAnalyzeAssetProfitBelowTargetStaysQuiet(t *testing.T) {
	provider := &fakeProvider{
		candles: map[string][]market.Candle{"PETR4": downtrend()},
		prices:  map[string]float64{"PETR4": 20},
		quotes:  map[string]float64{"PETRO38": 1.49},
	}
	book := &fakeBook{positions: []Position{{
		ContractSymbol: "PETRO38",
		Underlying:     "PETR4",
		Type:           options.Put,
		EntryPrice:     1.00,
		Quantity:       100,
	}}}
	notifier := &fakeNotifier{}
	s := newTestScanner(t, provider, &fakeStore{}, book, notifier)

	result, err := s.AnalyzeAsset(context.Background(), "PETR4", false)
	require.NoError(t, err)
	require.Empty(t, result.ExitAlerts)
	require.Empty(t, notifier.signals)
}

func TestAnalyzeAssetShortHistoryNoSignal(t *testing.T) {
	provider := &fakeProvider{
		candles: map[string][]market.Candle{"PETR4": downtrend()[:4]},
		prices:  map[string]float64{"PETR4": 40},
	}
	notifier := &fakeNotifier{}
	s := newTestScanner(t, provider, &fakeStore{}, &fakeBook{}, notifier)

	result, err := s.AnalyzeAsset(context.Background(), "PETR4", false)
	require.NoError(t, err)
	require.Equal(t, hilo.Undefined, result.Trend)
	require.False(t, result.Flipped)
	require.Empty(t, notifier.signals)
}

func TestAnalyzeAssetDataUnavailable(t *testing.T) {
	provider := &fakeProvider{candlesErr: errors.New("upstream down")}
	s := newTestScanner(t, provider, &fakeStore{}, &fakeBook{}, &fakeNotifier{})

	_, err := s.AnalyzeAsset(context.Background(), "PETR4", false)
	require.Error(t, err)
}

func TestRunIsolatesFailuresAndSendsDigest(t *testing.T) {
	provider := &fakeProvider{
		candles: map[string][]market.Candle{
			"PETR4": downtrend(),
			"VALE3": downtrend(),
			// BOVA11 intentionally absent: empty history fails its cycle.
		},
		prices: map[string]float64{"PETR4": 20, "VALE3": 20},
	}
	notifier := &fakeNotifier{}
	s := newTestScanner(t, provider, &fakeStore{isNew: true}, &fakeBook{}, notifier)

	batch := s.Run(context.Background(), []string{"PETR4", "BOVA11", "VALE3"}, false)
	require.Len(t, batch.Results, 2)
	require.Len(t, batch.Failures, 1)
	require.ErrorIs(t, batch.Failures["BOVA11"], ErrNoData)

	require.Len(t, notifier.digests, 1)
	require.True(t, batch.DigestSent)
}

func TestRunSingleAssetSkipsDigest(t *testing.T) {
	provider := &fakeProvider{
		candles: map[string][]market.Candle{"PETR4": downtrend()},
		prices:  map[string]float64{"PETR4": 20},
	}
	notifier := &fakeNotifier{}
	s := newTestScanner(t, provider, &fakeStore{}, &fakeBook{}, notifier)

	batch := s.Run(context.Background(), []string{"PETR4"}, false)
	require.Len(t, batch.Results, 1)
	require.Empty(t, notifier.digests)
	require.False(t, batch.DigestSent)
}

func TestAnalyzeAssetPersistFailureStillReturnsResult(t *testing.T) {
	provider := &fakeProvider{
		candles: map[string][]market.Candle{"PETR4": downtrend()},
		prices:  map[string]float64{"PETR4": 40},
	}
	store := &fakeStore{err: errors.New("db down")}
	notifier := &fakeNotifier{}
	s := newTestScanner(t, provider, store, &fakeBook{}, notifier)

	result, err := s.AnalyzeAsset(context.Background(), "PETR4", false)
	require.NoError(t, err)
	require.True(t, result.Flipped)
	require.False(t, result.NewSignal)
	// A failed insert must not produce a flip notification.
	require.Empty(t, notifier.signals)
}

func TestSortResults(t *testing.T) {
	results := []AssetResult{{Ticker: "VALE3"}, {Ticker: "BOVA11"}, {Ticker: "PETR4"}}
	SortResults(results)
	require.Equal(t, "BOVA11", results[0].Ticker)
	require.Equal(t, "PETR4", results[1].Ticker)
	require.Equal(t, "VALE3", results[2].Ticker)
}

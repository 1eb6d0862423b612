// Package scan runs the per-asset evaluation cycle: trend detection over
// fresh candle history, option selection on a flip, portfolio exit checks,
// idempotent signal persistence and the notification decision.
package scan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"hiloscan/pkg/hilo"
	"hiloscan/pkg/journal"
	"hiloscan/pkg/market"
	"hiloscan/pkg/options"
)

// ErrNoData reports that the market provider returned nothing usable for an
// asset. The asset's cycle is skipped; the batch continues.
var ErrNoData = errors.New("scan: no market data")

// Scanner evaluates assets one at a time. It keeps no state across cycles:
// every evaluation re-derives the trend from the full candle history.
type Scanner struct {
	cfg      Config
	provider market.Provider
	store    SignalStore
	book     PositionBook
	notifier Notifier
	journal  *journal.Writer
	nowFn    func() time.Time
}

// Option customises a Scanner.
type Option func(*Scanner)

// WithJournal enables per-cycle audit records.
func WithJournal(w *journal.Writer) Option {
	return func(s *Scanner) { s.journal = w }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// New wires a Scanner. The provider, store, book and notifier collaborators
// are required.
func New(cfg Config, provider market.Provider, store SignalStore, book PositionBook, notifier Notifier, opts ...Option) (*Scanner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, errors.New("scan: market provider is required")
	}
	if store == nil {
		return nil, errors.New("scan: signal store is required")
	}
	if book == nil {
		return nil, errors.New("scan: position book is required")
	}
	if notifier == nil {
		return nil, errors.New("scan: notifier is required")
	}
	s := &Scanner{
		cfg:      cfg,
		provider: provider,
		store:    store,
		book:     book,
		notifier: notifier,
		nowFn:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// BatchResult aggregates one full run.
type BatchResult struct {
	Results  []AssetResult
	Failures map[string]error
	// DigestSent reports whether the consolidated end-of-run digest went out.
	DigestSent bool
}

// Run evaluates every ticker sequentially. A single asset's failure is
// recorded and never aborts the remaining assets. The consolidated digest is
// sent only when more than one asset was evaluated.
func (s *Scanner) Run(ctx context.Context, tickers []string, force bool) *BatchResult {
	batch := &BatchResult{Failures: make(map[string]error)}
	for _, ticker := range tickers {
		result, err := s.analyzeSafe(ctx, ticker, force)
		if err != nil {
			logx.WithContext(ctx).Errorf("scan %s: %v", ticker, err)
			batch.Failures[ticker] = err
			continue
		}
		batch.Results = append(batch.Results, *result)
	}

	if len(batch.Results) > 1 {
		if err := s.notifier.SendDigest(ctx, batch.Results); err != nil {
			logx.WithContext(ctx).Errorf("scan: send digest: %v", err)
		} else {
			batch.DigestSent = true
		}
	}
	return batch
}

// analyzeSafe isolates a panic inside one asset's cycle at the per-asset
// boundary.
func (s *Scanner) analyzeSafe(ctx context.Context, ticker string, force bool) (result *AssetResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("scan %s: panic: %v", ticker, r)
		}
	}()
	return s.AnalyzeAsset(ctx, ticker, force)
}

// AnalyzeAsset runs one full evaluation cycle for one asset. Returning an
// error means the asset's data was unavailable; persistence or notification
// failures are logged and do not fail the cycle.
func (s *Scanner) AnalyzeAsset(ctx context.Context, ticker string, force bool) (*AssetResult, error) {
	logger := logx.WithContext(ctx)

	candles, err := s.provider.Candles(ctx, ticker, s.cfg.CandleWindow, s.cfg.CandleInterval)
	if err != nil {
		return nil, fmt.Errorf("fetch candles for %s: %w", ticker, err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: empty candle history for %s", ErrNoData, ticker)
	}

	livePrice, err := s.provider.CurrentPrice(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("fetch current price for %s: %w", ticker, err)
	}
	if livePrice <= 0 {
		return nil, fmt.Errorf("%w: missing current price for %s", ErrNoData, ticker)
	}

	eval := hilo.Evaluate(candles, s.cfg.TrendPeriod, livePrice, hilo.Options{FoldLive: s.cfg.FoldLive})
	last := candles[len(candles)-1]

	result := &AssetResult{
		Ticker:    ticker,
		Date:      last.Timestamp,
		Close:     livePrice,
		Level:     eval.Level,
		Trend:     eval.Effective,
		Flipped:   eval.Flipped,
		NearLevel: eval.NearLevel,
	}
	if eval.Historical == hilo.Undefined {
		// Not enough history for a trend; nothing to signal.
		result.Trend = hilo.Undefined
		result.Flipped = false
		logger.Infof("scan %s: insufficient history for period %d", ticker, s.cfg.TrendPeriod)
		return result, nil
	}
	if eval.NearLevel {
		logger.Infof("scan %s: price %.2f within 0.5%% of level %.2f", ticker, livePrice, eval.Level)
	}

	if result.Flipped {
		result.Direction = Sell
		if eval.Effective == hilo.Up {
			result.Direction = Buy
		}
		result.Option = s.suggestOption(ctx, ticker, livePrice, eval.Effective)
	}

	result.ExitAlerts = s.exitAlerts(ctx, ticker, result)

	s.persistAndNotify(ctx, result, force)

	s.writeJournal(result, nil)
	return result, nil
}

// suggestOption fetches the chain and runs the selector. Chain fetch errors
// degrade to "no suggestion" so an exit alert can still be produced.
func (s *Scanner) suggestOption(ctx context.Context, ticker string, livePrice float64, dir hilo.Trend) *options.Contract {
	chain, err := s.provider.OptionChain(ctx, ticker)
	if err != nil {
		logx.WithContext(ctx).Errorf("scan %s: fetch option chain: %v", ticker, err)
		return nil
	}
	contract, ok := options.Select(chain, livePrice, dir, s.nowFn())
	if !ok {
		logx.WithContext(ctx).Infof("scan %s: no qualifying contract", ticker)
		return nil
	}
	return contract
}

// exitAlerts derives portfolio-management alerts from the trader's open
// positions: forced inversion exits when a fresh flip contradicts a held
// position, and profit-target exits when a position reached the configured
// gain.
func (s *Scanner) exitAlerts(ctx context.Context, ticker string, result *AssetResult) []ExitAlert {
	logger := logx.WithContext(ctx)

	positions, err := s.book.OpenPositions(ctx, ticker)
	if err != nil {
		logger.Errorf("scan %s: fetch open positions: %v", ticker, err)
		return nil
	}
	if len(positions) == 0 {
		return nil
	}

	var alerts []ExitAlert

	if result.Flipped {
		for _, pos := range positions {
			contradicts := (result.Direction == Buy && pos.Type == options.Put) ||
				(result.Direction == Sell && pos.Type == options.Call)
			if !contradicts {
				continue
			}
			alerts = append(alerts, ExitAlert{
				Kind:           ExitInversion,
				ContractSymbol: pos.ContractSymbol,
				Detail: fmt.Sprintf("exit now (trend inversion): %s %s",
					strings.ToLower(string(pos.Type)), pos.ContractSymbol),
			})
		}
	}

	symbols := make([]string, 0, len(positions))
	for _, pos := range positions {
		symbols = append(symbols, pos.ContractSymbol)
	}
	quotes, err := s.provider.Quotes(ctx, symbols)
	if err != nil {
		logger.Errorf("scan %s: fetch position quotes: %v", ticker, err)
		quotes = nil
	}
	for _, pos := range positions {
		current := quotes[pos.ContractSymbol]
		if current <= 0 || pos.EntryPrice <= 0 {
			continue
		}
		profitPct := (current - pos.EntryPrice) / pos.EntryPrice * 100
		if profitPct < s.cfg.ProfitTargetPercent {
			continue
		}
		logger.Infof("scan %s: %s hit %.1f%% (target %.1f%%)",
			ticker, pos.ContractSymbol, profitPct, s.cfg.ProfitTargetPercent)
		alerts = append(alerts, ExitAlert{
			Kind:           ExitProfitTarget,
			ContractSymbol: pos.ContractSymbol,
			Detail: fmt.Sprintf("profit target hit (%.1f%%): %s at %.2f",
				profitPct, pos.ContractSymbol, current),
		})
	}
	return alerts
}

// persistAndNotify records a flip signal (deduplicated by ticker and date)
// and decides whether a notification goes out: only for newly created
// signals, forced runs, or cycles carrying exit alerts. Duplicates alone
// never re-trigger a flip notification.
func (s *Scanner) persistAndNotify(ctx context.Context, result *AssetResult, force bool) {
	logger := logx.WithContext(ctx)

	if !result.Flipped && len(result.ExitAlerts) == 0 && !force {
		return
	}

	if result.Flipped {
		sig := &Signal{
			Ticker:         result.Ticker,
			Date:           result.Date,
			Direction:      result.Direction,
			PriceAtSignal:  result.Close,
			ReferenceLevel: result.Level,
		}
		id, isNew, err := s.store.SaveSignal(ctx, sig, result.Option)
		if err != nil {
			logger.Errorf("scan %s: persist signal: %v", result.Ticker, err)
		} else {
			result.SignalID = id
			result.NewSignal = isNew
			if !isNew {
				logger.Infof("scan %s: signal already recorded for %s",
					result.Ticker, result.Date.Format("2006-01-02"))
			}
		}
	}

	shouldNotify := result.NewSignal || force || len(result.ExitAlerts) > 0
	if !shouldNotify {
		return
	}

	payload := result.Option
	if payload == nil {
		if len(result.ExitAlerts) == 0 && !force {
			return
		}
		payload = PlaceholderContract(result.Ticker)
	}

	headline := "PORTFOLIO MONITOR"
	if result.Flipped {
		headline = fmt.Sprintf("FLIP TO %s", result.Trend)
	}

	notification := Notification{
		Ticker:    result.Ticker,
		Headline:  headline,
		Option:    payload,
		ExitAlert: renderExitAlerts(result.ExitAlerts),
	}
	if err := s.notifier.SendSignal(ctx, notification); err != nil {
		logger.Errorf("scan %s: send notification: %v", result.Ticker, err)
		return
	}
	result.Notified = true
}

func renderExitAlerts(alerts []ExitAlert) string {
	if len(alerts) == 0 {
		return ""
	}
	lines := make([]string, len(alerts))
	for i, alert := range alerts {
		lines[i] = alert.Detail
	}
	return strings.Join(lines, "\n")
}

func (s *Scanner) writeJournal(result *AssetResult, cycleErr error) {
	if s.journal == nil || result == nil {
		return
	}
	rec := &journal.CycleRecord{
		Timestamp: s.nowFn(),
		Ticker:    result.Ticker,
		Close:     result.Close,
		Level:     result.Level,
		Trend:     result.Trend.String(),
		Flipped:   result.Flipped,
		Direction: string(result.Direction),
		SignalID:  result.SignalID,
		NewSignal: result.NewSignal,
		Notified:  result.Notified,
		Success:   cycleErr == nil,
	}
	if result.Option != nil {
		rec.OptionSymbol = result.Option.Symbol
	}
	for _, alert := range result.ExitAlerts {
		rec.ExitAlerts = append(rec.ExitAlerts, alert.Detail)
	}
	if cycleErr != nil {
		rec.ErrorMessage = cycleErr.Error()
	}
	if _, err := s.journal.WriteCycle(rec); err != nil {
		logx.Errorf("scan %s: write journal: %v", result.Ticker, err)
	}
}

// SortResults orders batch results alphabetically by ticker, the order used
// in the digest.
func SortResults(results []AssetResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Ticker < results[j].Ticker
	})
}

package brapi

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"hiloscan/pkg/market"
)

const defaultProviderTimeout = 8 * time.Second

// Expiration window used when picking which option grade to fetch. Standard
// monthly expirations are preferred over weeklies inside the window.
const (
	idealExpirationMinDays = 35
	idealExpirationMaxDays = 75
)

// Provider exposes Brapi quotes and opcoes.net chains behind the generic
// market.Provider contract.
type Provider struct {
	client  *Client
	timeout time.Duration
	now     func() time.Time
}

type providerConfig struct {
	timeout      time.Duration
	clientConfig []Option
}

// ProviderOption customises the Brapi provider.
type ProviderOption func(*providerConfig)

// WithTimeout overrides the default per-call timeout.
func WithTimeout(timeout time.Duration) ProviderOption {
	return func(cfg *providerConfig) {
		if timeout > 0 {
			cfg.timeout = timeout
		}
	}
}

// WithClientOptions passes options to the underlying Brapi client.
func WithClientOptions(options ...Option) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.clientConfig = append(cfg.clientConfig, options...)
	}
}

// NewProvider constructs a Brapi market provider.
func NewProvider(opts ...ProviderOption) *Provider {
	cfg := &providerConfig{
		timeout: defaultProviderTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Provider{
		client:  NewClient(cfg.clientConfig...),
		timeout: cfg.timeout,
		now:     time.Now,
	}
}

func init() {
	market.RegisterProvider("brapi", func(name string, cfg *market.ProviderConfig) (market.Provider, error) {
		opts := []ProviderOption{}
		clientOptions := []Option{}
		if cfg.Timeout > 0 {
			opts = append(opts, WithTimeout(cfg.Timeout))
			clientOptions = append(clientOptions, WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
		}
		if cfg.BaseURL != "" {
			clientOptions = append(clientOptions, WithBaseURL(cfg.BaseURL))
		}
		if cfg.ChainURL != "" {
			clientOptions = append(clientOptions, WithChainURL(cfg.ChainURL))
		}
		if cfg.Token != "" {
			clientOptions = append(clientOptions, WithToken(cfg.Token))
		}
		if cfg.MaxRetries > 0 {
			clientOptions = append(clientOptions, WithMaxRetries(cfg.MaxRetries))
		}
		if len(clientOptions) > 0 {
			opts = append(opts, WithClientOptions(clientOptions...))
		}
		return NewProvider(opts...), nil
	})
}

func (p *Provider) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.timeout)
}

// Candles implements market.Provider.
func (p *Provider) Candles(ctx context.Context, ticker, window, interval string) ([]market.Candle, error) {
	callCtx, cancel := p.callCtx(ctx)
	defer cancel()

	history, err := p.client.History(callCtx, ticker, window, interval)
	if err != nil {
		return nil, err
	}
	candles := make([]market.Candle, 0, len(history))
	for _, bar := range history {
		if bar.Close <= 0 {
			continue
		}
		candles = append(candles, market.Candle{
			Timestamp: time.Unix(bar.Date, 0).UTC(),
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    bar.Volume,
		})
	}
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
	return candles, nil
}

// CurrentPrice implements market.Provider.
func (p *Provider) CurrentPrice(ctx context.Context, ticker string) (float64, error) {
	prices, err := p.Quotes(ctx, []string{ticker})
	if err != nil {
		return 0, err
	}
	price, ok := prices[ticker]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoResults, ticker)
	}
	return price, nil
}

// Quotes implements market.Provider.
func (p *Provider) Quotes(ctx context.Context, tickers []string) (map[string]float64, error) {
	callCtx, cancel := p.callCtx(ctx)
	defer cancel()
	return p.client.Quotes(callCtx, tickers)
}

// OptionChain implements market.Provider. It lists the available expirations,
// picks the one closest to the ideal window and fetches only that grade.
func (p *Provider) OptionChain(ctx context.Context, ticker string) ([]market.OptionQuote, error) {
	callCtx, cancel := p.callCtx(ctx)
	defer cancel()

	expirations, err := p.client.Expirations(callCtx, ticker)
	if err != nil {
		return nil, err
	}
	target, ok := selectExpiration(expirations, p.now())
	if !ok {
		return nil, nil
	}
	return p.client.ChainForExpiration(callCtx, ticker, target)
}

// selectExpiration picks the expiration to fetch: the first standard monthly
// inside the ideal window, then any weekly inside it, then the second nearest
// future expiration overall.
func selectExpiration(expirations []Expiration, now time.Time) (Expiration, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	future := make([]Expiration, 0, len(expirations))
	for _, exp := range expirations {
		if exp.Date.After(today) {
			future = append(future, exp)
		}
	}
	if len(future) == 0 {
		return Expiration{}, false
	}
	sort.Slice(future, func(i, j int) bool {
		return future[i].Date.Before(future[j].Date)
	})

	var weeklyInWindow *Expiration
	for i, exp := range future {
		dte := int(exp.Date.Sub(today).Hours() / 24)
		if dte < idealExpirationMinDays || dte > idealExpirationMaxDays {
			continue
		}
		if !exp.Weekly {
			return exp, true
		}
		if weeklyInWindow == nil {
			weeklyInWindow = &future[i]
		}
	}
	if weeklyInWindow != nil {
		return *weeklyInWindow, true
	}
	if len(future) > 1 {
		return future[1], true
	}
	return future[0], true
}

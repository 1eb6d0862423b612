package brapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hiloscan/pkg/market"
)

const (
	defaultBaseURL  = "https://brapi.dev/api"
	defaultChainURL = "https://opcoes.net.br/listaopcoes/completa"

	defaultHTTPTimeout      = 10 * time.Second
	defaultMaxRetries       = 3
	defaultRetryBackoffBase = 150 * time.Millisecond

	// The chain endpoint rejects requests that do not look like the site's
	// own XHR traffic.
	chainUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// ErrNoResults indicates the quote endpoint returned an empty result set for
// the requested ticker.
var ErrNoResults = errors.New("brapi: no results for ticker")

// Client wraps the Brapi quote API plus the opcoes.net chain endpoint.
type Client struct {
	baseURL    string
	chainURL   string
	token      string
	httpClient *http.Client
	maxRetries int
}

// Option configures a new Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the default quote endpoint URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithChainURL overrides the default option chain endpoint URL.
func WithChainURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.chainURL = url
		}
	}
}

// WithToken sets the Brapi API token sent on every quote call.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithMaxRetries adjusts the retry budget.
func WithMaxRetries(max int) Option {
	return func(c *Client) {
		if max >= 0 {
			c.maxRetries = max
		}
	}
}

// NewClient constructs a Brapi API client.
func NewClient(opts ...Option) *Client {
	httpClient := &http.Client{Timeout: defaultHTTPTimeout}
	client := &Client{
		baseURL:    defaultBaseURL,
		chainURL:   defaultChainURL,
		httpClient: httpClient,
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = httpClient
	}
	return client
}

// doGet issues a GET with retries and decodes the JSON response into result.
func (c *Client) doGet(ctx context.Context, rawURL string, query url.Values, header http.Header, result interface{}) error {
	target := rawURL
	if len(query) > 0 {
		target = rawURL + "?" + query.Encode()
	}
	var lastErr error
	backoff := defaultRetryBackoffBase
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return fmt.Errorf("brapi: build request: %w", err)
		}
		for key, values := range header {
			for _, value := range values {
				httpReq.Header.Add(key, value)
			}
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("brapi: read response: %w", readErr)
			} else if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				lastErr = fmt.Errorf("brapi: http status %d: %s", resp.StatusCode, string(body))
			} else {
				if result != nil {
					if err := json.Unmarshal(body, result); err != nil {
						return fmt.Errorf("brapi: decode response: %w", err)
					}
				}
				return nil
			}
		}

		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
			continue
		}
	}
	if lastErr != nil {
		return lastErr
	}
	return fmt.Errorf("brapi: request failed without error detail")
}

// quote fetches /api/quote/{tickers} with the given extra query parameters.
func (c *Client) quote(ctx context.Context, tickers []string, extra url.Values) (*quoteResponse, error) {
	if len(tickers) == 0 {
		return &quoteResponse{}, nil
	}
	query := url.Values{}
	if c.token != "" {
		query.Set("token", c.token)
	}
	for key, values := range extra {
		for _, value := range values {
			query.Set(key, value)
		}
	}
	target := c.baseURL + "/quote/" + url.PathEscape(strings.Join(tickers, ","))
	var payload quoteResponse
	if err := c.doGet(ctx, target, query, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// History returns the raw candle history for one ticker.
func (c *Client) History(ctx context.Context, ticker, window, interval string) ([]historicalPrice, error) {
	extra := url.Values{}
	extra.Set("range", window)
	extra.Set("interval", interval)
	extra.Set("fundamental", "false")
	payload, err := c.quote(ctx, []string{ticker}, extra)
	if err != nil {
		return nil, err
	}
	if len(payload.Results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoResults, ticker)
	}
	return payload.Results[0].HistoricalDataPrice, nil
}

// Quotes returns the current price per ticker. Tickers without a price are
// left out of the map rather than reported as errors.
func (c *Client) Quotes(ctx context.Context, tickers []string) (map[string]float64, error) {
	payload, err := c.quote(ctx, tickers, nil)
	if err != nil {
		return nil, err
	}
	prices := make(map[string]float64, len(payload.Results))
	for _, result := range payload.Results {
		if result.Symbol == "" || result.RegularMarketPrice <= 0 {
			continue
		}
		prices[result.Symbol] = result.RegularMarketPrice
	}
	return prices, nil
}

func (c *Client) chainHeader() http.Header {
	header := http.Header{}
	header.Set("User-Agent", chainUserAgent)
	header.Set("X-Requested-With", "XMLHttpRequest")
	return header
}

// Expirations lists the available option expirations for an underlying.
func (c *Client) Expirations(ctx context.Context, ticker string) ([]Expiration, error) {
	query := url.Values{}
	query.Set("idAcao", ticker)
	query.Set("listarVencimentos", "true")
	query.Set("cotacoes", "true")

	var payload chainResponse
	if err := c.doGet(ctx, c.chainURL, query, c.chainHeader(), &payload); err != nil {
		return nil, err
	}
	expirations := make([]Expiration, 0, len(payload.Data.Vencimentos))
	for _, entry := range payload.Data.Vencimentos {
		if exp, ok := entry.parse(); ok {
			expirations = append(expirations, exp)
		}
	}
	return expirations, nil
}

// ChainForExpiration fetches the option grade for one expiration date.
func (c *Client) ChainForExpiration(ctx context.Context, ticker string, expiration Expiration) ([]market.OptionQuote, error) {
	query := url.Values{}
	query.Set("idAcao", ticker)
	query.Set("listarVencimentos", "false")
	query.Set("cotacoes", "true")
	query.Set("vencimentos", expiration.Raw)

	var payload chainResponse
	if err := c.doGet(ctx, c.chainURL, query, c.chainHeader(), &payload); err != nil {
		return nil, err
	}
	quotes := make([]market.OptionQuote, 0, len(payload.Data.CotacoesOpcoes))
	for _, row := range payload.Data.CotacoesOpcoes {
		if quote, ok := parseChainRow(row, ticker, expiration.Date); ok {
			quotes = append(quotes, quote)
		}
	}
	return quotes, nil
}

package brapi

import (
	"strconv"
	"strings"
	"time"

	"hiloscan/pkg/market"
)

// quoteResponse is the envelope returned by /api/quote/{tickers}.
type quoteResponse struct {
	Results []quoteResult `json:"results"`
}

type quoteResult struct {
	Symbol              string            `json:"symbol"`
	RegularMarketPrice  float64           `json:"regularMarketPrice"`
	LongName            string            `json:"longName"`
	ShortName           string            `json:"shortName"`
	HistoricalDataPrice []historicalPrice `json:"historicalDataPrice"`
}

type historicalPrice struct {
	Date   int64   `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// chainResponse is the envelope returned by the opcoes.net list endpoint.
// Option rows arrive as positional arrays, not keyed objects.
type chainResponse struct {
	Data chainData `json:"data"`
}

type chainData struct {
	Vencimentos    []expirationEntry `json:"vencimentos"`
	CotacoesOpcoes [][]any           `json:"cotacoesOpcoes"`
}

type expirationEntry struct {
	Value          string `json:"value"`
	DataAttributes struct {
		W string `json:"w"`
	} `json:"dataAttributes"`
}

// Expiration is one available option expiration for an underlying.
type Expiration struct {
	Raw    string
	Date   time.Time
	Weekly bool
}

const expirationLayout = "2006-01-02"

func (e expirationEntry) parse() (Expiration, bool) {
	date, err := time.Parse(expirationLayout, strings.TrimSpace(e.Value))
	if err != nil {
		return Expiration{}, false
	}
	return Expiration{
		Raw:    e.Value,
		Date:   date,
		Weekly: e.DataAttributes.W != "",
	}, true
}

// Positional layout of a cotacoesOpcoes row.
const (
	rowSymbol    = 0
	rowType      = 2
	rowStrike    = 5
	rowLastPrice = 8
	rowTrades    = 9
)

// parseChainRow maps one positional row onto an OptionQuote. Rows with an
// unknown option type or no strike are dropped.
func parseChainRow(row []any, underlying string, expiration time.Time) (market.OptionQuote, bool) {
	symbol, ok := stringAt(row, rowSymbol)
	if !ok {
		return market.OptionQuote{}, false
	}
	// Row symbols carry the expiration as a suffix: "PETRA100_2026-01-16".
	if idx := strings.IndexByte(symbol, '_'); idx >= 0 {
		symbol = symbol[:idx]
	}

	var typ market.OptionType
	switch raw, _ := stringAt(row, rowType); strings.ToUpper(strings.TrimSpace(raw)) {
	case "CALL":
		typ = market.Call
	case "PUT":
		typ = market.Put
	default:
		return market.OptionQuote{}, false
	}

	strike, ok := floatAt(row, rowStrike)
	if !ok || strike <= 0 {
		return market.OptionQuote{}, false
	}
	lastPrice, _ := floatAt(row, rowLastPrice)
	trades, _ := floatAt(row, rowTrades)

	return market.OptionQuote{
		Underlying: underlying,
		Symbol:     symbol,
		Type:       typ,
		Strike:     strike,
		Expiration: expiration,
		LastPrice:  lastPrice,
		Trades:     int(trades),
	}, true
}

func stringAt(row []any, idx int) (string, bool) {
	if idx >= len(row) {
		return "", false
	}
	s, ok := row[idx].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func floatAt(row []any, idx int) (float64, bool) {
	if idx >= len(row) {
		return 0, false
	}
	switch v := row[idx].(type) {
	case float64:
		return v, true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

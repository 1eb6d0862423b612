// Package options selects a tradeable option contract for a fresh trend
// signal. Selection is a strict, ordered filter pipeline; an empty survivor
// set at any stage is a normal "no suggestion" outcome, not an error.
package options

import (
	"math"
	"sort"
	"time"

	"hiloscan/pkg/hilo"
	"hiloscan/pkg/market"
)

// Type aliases the chain row option type.
type Type = market.OptionType

// Put and Call re-export the chain row constants for callers of this package.
const (
	Call = market.Call
	Put  = market.Put
)

// Expiration window in calendar days. Wide enough to include the standard
// monthly cycle while excluding too-short and too-long tenors.
const (
	minDTE = 25
	maxDTE = 80
)

// Delta band and target center for the matching direction. No relaxed
// fallback exists: precision is preferred over recall.
const (
	deltaBandLow  = 0.39
	deltaBandHigh = 0.53
	deltaTarget   = 0.40
)

// Contract is a fully derived option candidate. DTE and Delta are computed
// by the selector, never taken from the chain source.
type Contract struct {
	Underlying string
	Symbol     string
	Type       Type
	Strike     float64
	Expiration time.Time
	DTE        int
	LastPrice  float64
	Trades     int
	Delta      float64
}

// DaysToExpiration counts calendar days between now and the expiration date,
// both truncated to midnight.
func DaysToExpiration(expiration, now time.Time) int {
	midnight := func(t time.Time) time.Time {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	}
	return int(midnight(expiration).Sub(midnight(now)).Hours() / 24)
}

// TargetDistance reports how far a contract's delta sits from the target
// center for its type.
func TargetDistance(c *Contract) float64 {
	target := deltaTarget
	if c.Type == Put {
		target = -deltaTarget
	}
	return math.Abs(c.Delta - target)
}

// Select returns the single best contract for the signal direction, or
// (nil, false) when no contract qualifies. The pipeline filters by
// expiration window, option type, estimated delta band and liquidity, then
// ranks by distance to the target delta with liquidity as the tie-break.
func Select(chain []market.OptionQuote, spot float64, dir hilo.Trend, now time.Time) (*Contract, bool) {
	if len(chain) == 0 || dir == hilo.Undefined {
		return nil, false
	}

	wantType := Call
	target := deltaTarget
	bandLow, bandHigh := deltaBandLow, deltaBandHigh
	if dir == hilo.Down {
		wantType = Put
		target = -deltaTarget
		bandLow, bandHigh = -deltaBandHigh, -deltaBandLow
	}

	candidates := make([]Contract, 0, len(chain))
	for _, quote := range chain {
		dte := DaysToExpiration(quote.Expiration, now)
		if dte < minDTE || dte > maxDTE {
			continue
		}
		if quote.Type != wantType {
			continue
		}
		delta := EstimateDelta(spot, quote.Strike, dte, quote.Type)
		if delta < bandLow || delta > bandHigh {
			continue
		}
		if quote.Trades <= 0 {
			continue
		}
		candidates = append(candidates, Contract{
			Underlying: quote.Underlying,
			Symbol:     quote.Symbol,
			Type:       quote.Type,
			Strike:     quote.Strike,
			Expiration: quote.Expiration,
			DTE:        dte,
			LastPrice:  quote.LastPrice,
			Trades:     quote.Trades,
			Delta:      delta,
		})
	}
	if len(candidates) == 0 {
		return nil, false
	}

	// Total order: closest to the target delta first, then the more liquid
	// contract on equal distance.
	sort.SliceStable(candidates, func(i, j int) bool {
		di := math.Abs(candidates[i].Delta - target)
		dj := math.Abs(candidates[j].Delta - target)
		if di != dj {
			return di < dj
		}
		return candidates[i].Trades > candidates[j].Trades
	})

	best := candidates[0]
	return &best, true
}

package options

import "math"

// Fixed pricing inputs for the delta estimate. These are deliberately coarse:
// the estimate is only a selection filter, not a pricing engine.
const (
	riskFreeRate = 0.1125
	volatility   = 0.32
)

// EstimateDelta approximates an option's delta with the Black-Scholes d1
// term: d1 = (ln(S/K) + (r + σ²/2)·T) / (σ·√T), N(d1) for calls and
// N(d1)−1 for puts. Contracts with no time left or non-positive prices get
// a zero delta, which the band filter excludes downstream.
func EstimateDelta(spot, strike float64, days int, typ Type) float64 {
	if days <= 0 || spot <= 0 || strike <= 0 {
		return 0
	}
	t := float64(days) / 365.0
	d1 := (math.Log(spot/strike) + (riskFreeRate+0.5*volatility*volatility)*t) / (volatility * math.Sqrt(t))
	nd1 := 0.5 * (1 + math.Erf(d1/math.Sqrt2))
	if typ == Put {
		return nd1 - 1
	}
	return nd1
}

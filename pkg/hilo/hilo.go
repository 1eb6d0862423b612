// Package hilo implements the HiLo Activator trend indicator: a trailing
// stop level derived from rolling high/low averages that defines the current
// trend direction.
package hilo

import (
	"math"

	"hiloscan/pkg/market"
)

// DefaultPeriod is the rolling window used when none is configured.
const DefaultPeriod = 10

// proximityBand flags live prices sitting within 0.5% of the activator level.
const proximityBand = 0.005

// Trend is the direction the activator currently points.
type Trend int

const (
	Undefined Trend = 0
	Up        Trend = 1
	Down      Trend = -1
)

// String implements fmt.Stringer.
func (t Trend) String() string {
	switch t {
	case Up:
		return "UP"
	case Down:
		return "DOWN"
	default:
		return "UNDEFINED"
	}
}

// Point is the activator state at one candle: the trend in force and the
// reference (stop) level that must be crossed to flip it.
type Point struct {
	Trend Trend
	Level float64
}

// Options tunes an evaluation.
type Options struct {
	// FoldLive folds the live price into the rolling averages as a
	// provisional candle before the final comparison. Off by default: the
	// averages are then computed from fully closed candles only.
	FoldLive bool
}

// Evaluation is the outcome of comparing the replayed historical trend with
// a live price.
type Evaluation struct {
	// Historical is the trend in force at the last fully closed candle.
	Historical Trend
	// Effective is the trend implied by the live price against Level.
	Effective Trend
	// Level is the reference level the live price was compared against.
	Level float64
	// Flipped reports a genuine direction change between the historical
	// state and the live price.
	Flipped bool
	// NearLevel warns that the live price sits within 0.5% of Level.
	// Informational only; it neither suppresses nor forces a signal.
	NearLevel bool
}

// SMA computes the rolling simple average over the supplied values. Indexes
// before the first full window hold NaN.
func SMA(values []float64, period int) []float64 {
	result := make([]float64, len(values))
	for i := range result {
		result[i] = math.NaN()
	}
	if period <= 0 || len(values) < period {
		return result
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			result[i] = sum / float64(period)
		}
	}
	return result
}

// Compute replays the activator over the whole candle series. The walk is
// path-dependent: the state at candle i depends on the state carried from
// candle i-1, not on price alone. Points before the warmup index are
// Undefined with a NaN level.
//
// The walk is seeded with a Down trend and the average high as level. From
// there a Down trend flips Up when the close crosses above the average high
// (the level then tracks the average low), and an Up trend flips Down when
// the close crosses below the average low (the level then tracks the average
// high). Ties never flip.
func Compute(candles []market.Candle, period int) []Point {
	points := make([]Point, len(candles))
	for i := range points {
		points[i] = Point{Trend: Undefined, Level: math.NaN()}
	}
	if period < 2 || len(candles) < period {
		return points
	}

	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
	}
	avgHigh := SMA(highs, period)
	avgLow := SMA(lows, period)

	trend := Down
	level := avgHigh[period-1]

	for i := period - 1; i < len(candles); i++ {
		close := candles[i].Close
		switch trend {
		case Down:
			if close > avgHigh[i] {
				trend = Up
				level = avgLow[i]
			} else {
				level = avgHigh[i]
			}
		case Up:
			if close < avgLow[i] {
				trend = Down
				level = avgHigh[i]
			} else {
				level = avgLow[i]
			}
		}
		points[i] = Point{Trend: trend, Level: level}
	}
	return points
}

// Latest returns the activator state at the last candle. ok is false when
// the series is too short to compute a trend.
func Latest(candles []market.Candle, period int) (Point, bool) {
	points := Compute(candles, period)
	if len(points) == 0 {
		return Point{Trend: Undefined, Level: math.NaN()}, false
	}
	last := points[len(points)-1]
	return last, last.Trend != Undefined
}

// Evaluate replays the closed-candle history and then re-derives an
// effective trend for the live price, which may belong to a candle that has
// not closed yet. A signal fires only when the two disagree.
func Evaluate(candles []market.Candle, period int, livePrice float64, opts Options) Evaluation {
	series := candles
	if opts.FoldLive {
		provisional := market.Candle{
			Open:  livePrice,
			High:  livePrice,
			Low:   livePrice,
			Close: livePrice,
		}
		series = append(append([]market.Candle(nil), candles...), provisional)
	}

	last, ok := Latest(series, period)
	if !ok {
		return Evaluation{Historical: Undefined, Effective: Undefined, Level: math.NaN()}
	}

	// The historical trend still comes from closed candles only, even when
	// the averages folded the live price in. Without a full window of closed
	// candles the provisional one must not complete it.
	historical := last.Trend
	if opts.FoldLive {
		prev, prevOK := Latest(candles, period)
		if !prevOK {
			return Evaluation{Historical: Undefined, Effective: Undefined, Level: math.NaN()}
		}
		historical = prev.Trend
	}

	effective := Down
	if livePrice > last.Level {
		effective = Up
	}

	near := false
	if last.Level > 0 {
		near = math.Abs(livePrice-last.Level)/last.Level <= proximityBand
	}

	return Evaluation{
		Historical: historical,
		Effective:  effective,
		Level:      last.Level,
		Flipped:    historical != effective,
		NearLevel:  near,
	}
}

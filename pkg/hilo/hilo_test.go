package hilo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"hiloscan/pkg/market"
)

// flat builds candles where high/low hug the close by a fixed band.
func flat(closes []float64, band float64) []market.Candle {
	candles := make([]market.Candle, len(closes))
	for i, c := range closes {
		candles[i] = market.Candle{
			Open:  c,
			High:  c + band,
			Low:   c - band,
			Close: c,
		}
	}
	return candles
}

func TestSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	result := SMA(values, 3)
	require.Len(t, result, len(values))
	require.True(t, math.IsNaN(result[0]))
	require.True(t, math.IsNaN(result[1]))
	require.InDelta(t, 2.0, result[2], 1e-9)
	require.InDelta(t, 3.0, result[3], 1e-9)
	require.InDelta(t, 4.0, result[4], 1e-9)
}

func TestSMAShortSeries(t *testing.T) {
	result := SMA([]float64{1, 2}, 5)
	require.Len(t, result, 2)
	require.True(t, math.IsNaN(result[0]))
	require.True(t, math.IsNaN(result[1]))
}

func TestComputeShortSeriesUndefined(t *testing.T) {
	candles := flat([]float64{10, 11, 12}, 0.5)
	points := Compute(candles, 10)
	require.Len(t, points, len(candles))
	for _, p := range points {
		require.Equal(t, Undefined, p.Trend)
		require.True(t, math.IsNaN(p.Level))
	}

	_, ok := Latest(candles, 10)
	require.False(t, ok)
}

func TestComputeSeedsDown(t *testing.T) {
	// Ten identical candles: the close never crosses the average high, so
	// the seeded Down trend survives and the level tracks the average high.
	candles := flat([]float64{20, 20, 20, 20, 20, 20, 20, 20, 20, 20}, 1)
	points := Compute(candles, 10)
	last := points[len(points)-1]
	require.Equal(t, Down, last.Trend)
	require.InDelta(t, 21.0, last.Level, 1e-9)
}

func TestComputeFlipsUpThenTracksLow(t *testing.T) {
	// Downtrend for ten candles, then one candle closing well above the
	// rolling average high flips the trend up.
	closes := []float64{30, 29, 28, 27, 26, 25, 24, 23, 22, 21, 40}
	candles := flat(closes, 0.5)
	points := Compute(candles, 10)

	require.Equal(t, Down, points[9].Trend)
	last := points[len(points)-1]
	require.Equal(t, Up, last.Trend)
	// After the flip the level is the average low of the current window.
	lows := make([]float64, len(candles))
	for i, c := range candles {
		lows[i] = c.Low
	}
	wantLevel := SMA(lows, 10)[len(candles)-1]
	require.InDelta(t, wantLevel, last.Level, 1e-9)
}

func TestComputeTieDoesNotFlip(t *testing.T) {
	// Close exactly equal to the average high must not flip a Down trend.
	closes := []float64{20, 20, 20, 20, 20, 20, 20, 20, 20, 21}
	candles := flat(closes, 0)
	// avg high over the window = 20.1; force the last close onto it.
	candles[len(candles)-1].Close = 20.1
	candles[len(candles)-1].High = 21
	points := Compute(candles, 10)
	require.Equal(t, Down, points[len(points)-1].Trend)
}

func TestComputeIsPathDependent(t *testing.T) {
	// Two series share the same final candle but arrive with opposite
	// trends, so the same close yields different states.
	rising := flat([]float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 30, 20}, 0.5)
	falling := flat([]float64{30, 29, 28, 27, 26, 25, 24, 23, 22, 21, 20}, 0.5)
	rising[len(rising)-1] = falling[len(falling)-1]

	upPoints := Compute(rising, 10)
	downPoints := Compute(falling, 10)
	require.Equal(t, Up, upPoints[len(upPoints)-1].Trend)
	require.Equal(t, Down, downPoints[len(downPoints)-1].Trend)
}

func TestEvaluateFlipToUp(t *testing.T) {
	// Historical downtrend; live price above the reference level.
	closes := []float64{30, 29, 28, 27, 26, 25, 24, 23, 22, 21}
	candles := flat(closes, 0.5)
	eval := Evaluate(candles, 10, 40, Options{})
	require.Equal(t, Down, eval.Historical)
	require.Equal(t, Up, eval.Effective)
	require.True(t, eval.Flipped)
	require.False(t, eval.NearLevel)
}

func TestEvaluateNoFlipWhileTrendHolds(t *testing.T) {
	closes := []float64{30, 29, 28, 27, 26, 25, 24, 23, 22, 21}
	candles := flat(closes, 0.5)
	eval := Evaluate(candles, 10, 20, Options{})
	require.Equal(t, Down, eval.Historical)
	require.Equal(t, Down, eval.Effective)
	require.False(t, eval.Flipped)
}

func TestEvaluateShortHistoryUndefined(t *testing.T) {
	candles := flat([]float64{10, 11}, 0.5)
	eval := Evaluate(candles, 10, 12, Options{})
	require.Equal(t, Undefined, eval.Historical)
	require.Equal(t, Undefined, eval.Effective)
	require.False(t, eval.Flipped)
}

func TestEvaluateProximityWarning(t *testing.T) {
	closes := []float64{30, 29, 28, 27, 26, 25, 24, 23, 22, 21}
	candles := flat(closes, 0.5)
	level := Compute(candles, 10)[len(candles)-1].Level

	onEdge := Evaluate(candles, 10, level*1.004, Options{})
	require.True(t, onEdge.NearLevel)
	require.True(t, onEdge.Flipped)

	farAway := Evaluate(candles, 10, level*1.2, Options{})
	require.False(t, farAway.NearLevel)
}

func TestEvaluateFoldLive(t *testing.T) {
	closes := []float64{30, 29, 28, 27, 26, 25, 24, 23, 22, 21}
	candles := flat(closes, 0.5)

	folded := Evaluate(candles, 10, 40, Options{FoldLive: true})
	require.Equal(t, Down, folded.Historical)
	// Folding the live candle shifts the rolling window forward one slot.
	plain := Evaluate(candles, 10, 40, Options{})
	require.NotEqual(t, plain.Level, folded.Level)
	require.True(t, folded.Flipped)
}

func TestEvaluateFoldLiveShortHistoryUndefined(t *testing.T) {
	// Nine closed candles and period ten: the provisional live candle must
	// not complete the window, so no trend and no flip.
	closes := []float64{30, 29, 28, 27, 26, 25, 24, 23, 22}
	candles := flat(closes, 0.5)

	eval := Evaluate(candles, 10, 40, Options{FoldLive: true})
	require.Equal(t, Undefined, eval.Historical)
	require.Equal(t, Undefined, eval.Effective)
	require.False(t, eval.Flipped)
	require.True(t, math.IsNaN(eval.Level))
}

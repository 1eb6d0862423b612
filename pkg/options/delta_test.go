package options

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEstimateDeltaCall(t *testing.T) {
	// spot 100, strike 105, 45 days: d1 ≈ -0.2546, N(d1) ≈ 0.3995.
	delta := EstimateDelta(100, 105, 45, Call)
	require.InDelta(t, 0.3995, delta, 1e-3)

	// At the money with time left, a call delta sits above 0.5.
	require.Greater(t, EstimateDelta(100, 100, 45, Call), 0.5)

	// Deep in the money approaches 1.
	require.Greater(t, EstimateDelta(100, 50, 45, Call), 0.99)
}

func TestEstimateDeltaPut(t *testing.T) {
	call := EstimateDelta(100, 102, 45, Call)
	put := EstimateDelta(100, 102, 45, Put)
	require.InDelta(t, call-1, put, 1e-12)
	require.Less(t, put, 0.0)
	require.Greater(t, put, -1.0)
}

func TestEstimateDeltaDegenerateInputs(t *testing.T) {
	require.Zero(t, EstimateDelta(100, 105, 0, Call))
	require.Zero(t, EstimateDelta(100, 105, -3, Call))
	require.Zero(t, EstimateDelta(0, 105, 45, Call))
	require.Zero(t, EstimateDelta(100, 0, 45, Put))
}

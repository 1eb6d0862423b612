package notify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"hiloscan/pkg/hilo"
	"hiloscan/pkg/options"
	"hiloscan/pkg/scan"
)

func TestFormatSignalWithContract(t *testing.T) {
	text := FormatSignal(scan.Notification{
		Ticker:   "PETR4",
		Headline: "FLIP TO UP",
		Option: &options.Contract{
			Symbol:    "PETRC42",
			Strike:    42,
			DTE:       45,
			LastPrice: 1.1,
			Trades:    120,
		},
	}, testNow)

	require.Contains(t, text, "FLIP TO UP: PETR4")
	require.Contains(t, text, "PETRC42")
	require.Contains(t, text, "BUY (CALL)")
	require.Contains(t, text, "02/03/2026")
	require.NotContains(t, text, "PORTFOLIO MANAGEMENT")
}

func TestFormatSignalDownDirection(t *testing.T) {
	text := FormatSignal(scan.Notification{
		Ticker:   "VALE3",
		Headline: "FLIP TO DOWN",
		Option:   &options.Contract{Symbol: "VALEO55", Strike: 55, DTE: 30, Trades: 10},
	}, testNow)
	require.Contains(t, text, "SELL (PUT)")
}

func TestFormatSignalPlaceholderSkipsContractBlock(t *testing.T) {
	text := FormatSignal(scan.Notification{
		Ticker:    "PETR4",
		Headline:  "PORTFOLIO MONITOR",
		Option:    scan.PlaceholderContract("PETR4"),
		ExitAlert: "profit target hit (51.0%): PETRO38 at 1.51",
	}, testNow)

	require.Contains(t, text, "PORTFOLIO MANAGEMENT")
	require.Contains(t, text, "PETRO38")
	require.NotContains(t, text, "Suggestion")
}

func TestFormatDigestSortsAndCounts(t *testing.T) {
	results := []scan.AssetResult{
		{Ticker: "VALE3", Close: 60.10, Trend: hilo.Down},
		{Ticker: "PETR4", Close: 34.50, Trend: hilo.Up, Flipped: true},
		{Ticker: "BOVA11", Close: 120.00, Trend: hilo.Up},
	}
	text := FormatDigest(results, testNow)

	require.Contains(t, text, "Assets monitored: 3")
	require.Contains(t, text, "BUY (new)")
	require.Contains(t, text, "downtrend continues")
	// Alphabetical order.
	require.Less(t, strings.Index(text, "BOVA11"), strings.Index(text, "PETR4"))
	require.Less(t, strings.Index(text, "PETR4"), strings.Index(text, "VALE3"))
}

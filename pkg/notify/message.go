package notify

import (
	"fmt"
	"strings"
	"time"

	"hiloscan/pkg/hilo"
	"hiloscan/pkg/scan"
)

// FormatSignal renders one asset's notification as a WhatsApp message.
func FormatSignal(n scan.Notification, now time.Time) string {
	var b strings.Builder

	if n.ExitAlert != "" {
		b.WriteString("🚨 *PORTFOLIO MANAGEMENT*\n")
		b.WriteString(n.ExitAlert)
		b.WriteString("\n\n")
	}

	emoji := "🚀"
	direction := "BUY (CALL)"
	if strings.Contains(n.Headline, "DOWN") {
		emoji = "🔻"
		direction = "SELL (PUT)"
	}

	fmt.Fprintf(&b, "*%s %s: %s*\n", emoji, n.Headline, n.Ticker)
	fmt.Fprintf(&b, "📅 %s\n", now.Format("02/01/2006"))

	if n.Option != nil && n.Option.Symbol != scan.PlaceholderSymbol {
		opt := n.Option
		b.WriteString("\n")
		fmt.Fprintf(&b, "💎 *Suggestion:* %s\n", opt.Symbol)
		fmt.Fprintf(&b, "💰 *Premium:* %.2f\n", opt.LastPrice)
		fmt.Fprintf(&b, "🎯 *Strike:* %.2f (%s)\n", opt.Strike, direction)
		fmt.Fprintf(&b, "📅 *Expiry:* %d days\n", opt.DTE)
		fmt.Fprintf(&b, "🌊 *Liquidity:* %d trades\n", opt.Trades)
	}

	b.WriteString("\n_Check the chart before trading._")
	return b.String()
}

// FormatDigest renders the consolidated end-of-run report: every asset's
// close price and trend status, new flips highlighted, sorted by ticker.
func FormatDigest(results []scan.AssetResult, now time.Time) string {
	sorted := make([]scan.AssetResult, len(results))
	copy(sorted, results)
	scan.SortResults(sorted)

	var b strings.Builder
	b.WriteString("📊 *CLOSING REPORT* 📊\n")
	fmt.Fprintf(&b, "📅 %s\n\n", now.Format("02/01/2006"))

	for _, r := range sorted {
		fmt.Fprintf(&b, "*%s* (%.2f): %s\n", r.Ticker, r.Close, statusLine(r))
	}

	fmt.Fprintf(&b, "\n_Assets monitored: %d_", len(sorted))
	return b.String()
}

func statusLine(r scan.AssetResult) string {
	switch r.Trend {
	case hilo.Up:
		if r.Flipped {
			return "🚀 *BUY (new)*"
		}
		return "🟢 uptrend continues"
	case hilo.Down:
		if r.Flipped {
			return "🔻 *SELL (new)*"
		}
		return "🔴 downtrend continues"
	default:
		return "⚪ insufficient history"
	}
}

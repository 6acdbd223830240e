package notify

import (
	"fmt"
	"strings"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// FormatPrice renders a USD price by magnitude: grouped integer above $1000,
// two decimals above $1, four decimals below.
func FormatPrice(p float64) string {
	switch {
	case p >= 1000:
		return "$" + groupThousands(fmt.Sprintf("%.0f", p))
	case p >= 1:
		return fmt.Sprintf("$%.2f", p)
	default:
		return fmt.Sprintf("$%.4f", p)
	}
}

// groupThousands inserts comma separators into an unsigned integer string.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// directionEmoji marks the primary-leg direction: green for long, red for
// short.
func directionEmoji(s domain.Signal) string {
	if s == domain.SignalPrimaryLong {
		return "🟢"
	}
	return "🔴"
}

// FormatAlertText renders a spread alert as a plain-text title and body for
// channels without their own alert rendering.
func FormatAlertText(alert domain.Alert) (title, message string) {
	title = fmt.Sprintf("%s %s spread %.2f%%", directionEmoji(alert.Signal), alert.Symbol, alert.SpreadPercent)

	var b strings.Builder
	fmt.Fprintf(&b, "%s on %s / %s\n", alert.Signal, alert.PrimaryExchange, alert.SecondaryExchange)
	fmt.Fprintf(&b, "%s: %s -> %s: %s\n",
		alert.PrimaryExchange, FormatPrice(alert.PrimaryPrice),
		alert.SecondaryExchange, FormatPrice(alert.SecondaryPrice),
	)
	fmt.Fprintf(&b, "Quality %d, volume %s", alert.QualityScore, FormatPrice(alert.EffectiveVolume))
	if alert.FundingNote != "" && alert.FundingNote != "OK" {
		fmt.Fprintf(&b, ", funding %s", alert.FundingNote)
	}
	return title, b.String()
}

// formatAlertHTML renders the Telegram HTML body for a spread alert.
func formatAlertHTML(alert domain.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>#%s</b> %s\n", directionEmoji(alert.Signal), alert.Symbol, alert.Signal)
	fmt.Fprintf(&b, "Spread: <b>%.2f%%</b>\n", alert.SpreadPercent)
	fmt.Fprintf(&b, "%s: %s → %s: %s",
		alert.PrimaryExchange, FormatPrice(alert.PrimaryPrice),
		alert.SecondaryExchange, FormatPrice(alert.SecondaryPrice),
	)
	return b.String()
}

// tradeURL deep-links the primary exchange's contract page for the symbol.
func tradeURL(symbol string) string {
	base := strings.TrimSuffix(symbol, "USDT")
	return fmt.Sprintf("https://www.mexc.com/exchange/%s_USDT", base)
}

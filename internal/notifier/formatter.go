package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"CryptoRadar/internal/model"
)

// maxListed caps list replies to keep messages under the Telegram size limit.
const maxListed = 10

// FormatExplosions formats the ranked explosions.
func FormatExplosions(scores []model.ExplosionScore) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔥 <b>Explosions</b> | %s\n\n", time.Now().UTC().Format("2006-01-02 15:04 UTC"))
	if len(scores) == 0 {
		b.WriteString("No explosions right now.")
		return b.String()
	}
	for i, s := range scores {
		if i == maxListed {
			fmt.Fprintf(&b, "\n…and %d more", len(scores)-maxListed)
			break
		}
		fmt.Fprintf(&b, "%d. <b>%s</b> %d/100 %s\n   %+.2f%% | last %s | RSI %.1f\n",
			i+1, html.EscapeString(s.Symbol), s.Score, s.Recommendation,
			s.PriceChangePercent, formatPrice(s.LastPrice), s.RSI)
	}
	return b.String()
}

// FormatExplosionAlert formats newly detected IMMEDIATE_BUY explosions.
func FormatExplosionAlert(scores []model.ExplosionScore) string {
	var b strings.Builder
	b.WriteString("🚨 <b>IMMEDIATE_BUY detected</b>\n\n")
	for _, s := range scores {
		fmt.Fprintf(&b, "<b>%s</b> score %d | %+.2f%% | last %s | quote vol %s\n",
			html.EscapeString(s.Symbol), s.Score, s.PriceChangePercent,
			formatPrice(s.LastPrice), formatVolume(s.QuoteVolume))
	}
	b.WriteString("\nSend /recommend SYMBOL for a trade plan.")
	return b.String()
}

// FormatListings formats the ranked new-listing candidates.
func FormatListings(listings []model.NewListingCandidate) string {
	var b strings.Builder
	b.WriteString("🆕 <b>New listing candidates</b>\n\n")
	if len(listings) == 0 {
		b.WriteString("No candidates match the profile.")
		return b.String()
	}
	for i, l := range listings {
		if i == maxListed {
			fmt.Fprintf(&b, "\n…and %d more", len(listings)-maxListed)
			break
		}
		fmt.Fprintf(&b, "%d. <b>%s</b> score %.0f | %+.2f%% | %d trades | vol %s\n",
			i+1, html.EscapeString(l.Symbol), l.Score, l.PriceChange, l.Trades, formatVolume(l.Volume))
	}
	return b.String()
}

// FormatAnalysis formats an indicator readout.
func FormatAnalysis(a model.Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📈 <b>%s</b> analysis\n\n", html.EscapeString(a.Symbol))
	fmt.Fprintf(&b, "Price: %s\n", formatPrice(a.Price))
	fmt.Fprintf(&b, "RSI(14): %.2f (%s)\n", a.RSI, a.Trend)
	fmt.Fprintf(&b, "MACD: %.4f | signal %.4f | hist %+.4f\n", a.MACD.MACD, a.MACD.Signal, a.MACD.Histogram)
	fmt.Fprintf(&b, "EMA12: %s | EMA26: %s\n", formatPrice(a.EMA12), formatPrice(a.EMA26))
	fmt.Fprintf(&b, "Volatility: %.2f%%\n", a.Volatility)
	return b.String()
}

// FormatTradePlan formats a recommendation with its trade levels.
func FormatTradePlan(p model.TradePlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💡 <b>%s</b> %s (%d/100)\n\n", html.EscapeString(p.Symbol), p.Recommendation, p.Score)
	fmt.Fprintf(&b, "Buy: %s\n", formatPrice(p.BuyPrice))
	fmt.Fprintf(&b, "Target: %s\n", formatPrice(p.SellTarget))
	fmt.Fprintf(&b, "Stop: %s\n", formatPrice(p.StopLoss))
	fmt.Fprintf(&b, "Confidence: %.0f%% | Timeframe: %s\n", p.Confidence, p.Timeframe)
	if p.Recommendation == model.RecommendAvoid {
		b.WriteString("\n⚠️ Score too low, levels are informational only.")
	}
	return b.String()
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	return "🤖 <b>CryptoRadar</b>\n\n" +
		"/explosions - ranked explosion candidates\n" +
		"/listings - new listing candidates\n" +
		"/analysis SYMBOL - indicator readout\n" +
		"/recommend SYMBOL - trade plan\n" +
		"/help - this message"
}

// formatPrice keeps sub-cent prices readable.
func formatPrice(p float64) string {
	switch {
	case p >= 1:
		return fmt.Sprintf("%.4f", p)
	case p >= 0.01:
		return fmt.Sprintf("%.6f", p)
	default:
		return fmt.Sprintf("%.8f", p)
	}
}

func formatVolume(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.2fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.1fK", v/1_000)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

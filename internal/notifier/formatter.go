package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"github.com/almadodi738-lang/tv2tg-alerts/internal/model"
)

// FormatPrice picks a precision that suits the magnitude of v.
func FormatPrice(v float64) string {
	switch a := math.Abs(v); {
	case a >= 1000:
		return fmt.Sprintf("%.2f", v)
	case a >= 10:
		return fmt.Sprintf("%.3f", v)
	default:
		return fmt.Sprintf("%.5f", v)
	}
}

func biasLabel(b model.Bias) string {
	switch b {
	case model.BiasBull:
		return "📈 Bullish"
	case model.BiasBear:
		return "📉 Bearish"
	default:
		return "➖ Neutral"
	}
}

// FormatAlert formats an actionable signal into a Telegram message.
func FormatAlert(sig *model.Signal, tzLabel string, now time.Time) string {
	var b strings.Builder

	arrow := "🟢 BUY"
	if sig.Setup == model.SetupSell {
		arrow = "🔴 SELL"
	}
	b.WriteString(fmt.Sprintf("%s | <b>%s</b>\n", arrow, html.EscapeString(sig.Symbol)))
	b.WriteString(fmt.Sprintf("Bias: %s\n\n", biasLabel(sig.Bias)))

	b.WriteString(fmt.Sprintf("Entry: <b>%s</b>\n", FormatPrice(sig.Entry)))
	b.WriteString(fmt.Sprintf("Stop loss: <b>%s</b>\n", FormatPrice(sig.StopLoss)))
	b.WriteString(fmt.Sprintf("TP1: <b>%s</b> | TP2: <b>%s</b>\n", FormatPrice(sig.TakeProfit1), FormatPrice(sig.TakeProfit2)))
	b.WriteString(fmt.Sprintf("Invalidation (EMA trend): %s\n", FormatPrice(sig.Invalidation)))
	b.WriteString(fmt.Sprintf("Support / Resistance: %s / %s\n\n", FormatPrice(sig.Support), FormatPrice(sig.Resistance)))

	b.WriteString(fmt.Sprintf("Risk: <b>$%.2f</b> | Size: <b>%.4f</b>\n", sig.RiskUSD, sig.PositionSize))
	ind := sig.Indicators
	b.WriteString(fmt.Sprintf("EMA %s / %s / %s | RSI %.1f | ATR %s\n",
		FormatPrice(ind.EMAFast), FormatPrice(ind.EMASlow), FormatPrice(ind.EMATrend), ind.RSI, FormatPrice(ind.ATR)))

	b.WriteString(fmt.Sprintf("⏱ %s (%s)", now.Format("2006-01-02 15:04"), html.EscapeString(tzLabel)))
	return b.String()
}

// FormatEvaluationError formats a per-symbol failure notice.
func FormatEvaluationError(symbol string, err error) string {
	return fmt.Sprintf("⚠️ <b>%s</b> evaluation failed\n%s", html.EscapeString(symbol), html.EscapeString(err.Error()))
}

// FormatStopTrading formats the daily loss limit notice.
func FormatStopTrading(state model.RiskState) string {
	var b strings.Builder
	b.WriteString("⛔ <b>STOP TRADING</b>\n\n")
	b.WriteString(fmt.Sprintf("Daily PnL: <b>%+.2f</b> (%+.2f%%)\n", state.CumulativePnL, state.PnLPct))
	b.WriteString(fmt.Sprintf("Limit: -%.2f%% of %.2f\n", state.LimitPct, state.StartBalance))
	b.WriteString(fmt.Sprintf("Trades: %d (W %d / L %d)\n", state.TradeCount, state.WinCount, state.LossCount))
	b.WriteString("No new positions until the next session.")
	return b.String()
}

// FormatRiskStatus formats the current risk state for display.
func FormatRiskStatus(state model.RiskState) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>Risk status</b> | %s\n\n", state.Date))
	b.WriteString(fmt.Sprintf("Start balance: %.2f\n", state.StartBalance))
	b.WriteString(fmt.Sprintf("Daily PnL: %+.2f (%+.2f%%)\n", state.CumulativePnL, state.PnLPct))
	b.WriteString(fmt.Sprintf("Trades: %d (W %d / L %d)\n", state.TradeCount, state.WinCount, state.LossCount))
	b.WriteString(fmt.Sprintf("Loss limit: -%.2f%%\n", state.LimitPct))
	if state.LimitBreached {
		b.WriteString("Status: ⛔ limit reached")
	} else {
		b.WriteString("Status: ✅ trading allowed")
	}
	return b.String()
}

// FormatDailySummary formats the end-of-session report.
func FormatDailySummary(state model.RiskState) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>Daily summary</b> | %s\n\n", state.Date))
	if state.TradeCount == 0 {
		b.WriteString("No fills reported today.")
		return b.String()
	}
	winRate := float64(state.WinCount) / float64(state.TradeCount) * 100
	b.WriteString(fmt.Sprintf("PnL: <b>%+.2f</b> (%+.2f%%)\n", state.CumulativePnL, state.PnLPct))
	b.WriteString(fmt.Sprintf("Trades: %d | Win rate: %.0f%%\n", state.TradeCount, winRate))
	if state.LimitBreached {
		b.WriteString("\n⛔ Daily loss limit was reached")
	}
	return b.String()
}

// FormatScanResults formats one monitor pass for a chat reply.
func FormatScanResults(results []model.EvalResult) string {
	var b strings.Builder
	b.WriteString("🔎 <b>Scan</b>\n\n")
	for _, r := range results {
		sym := html.EscapeString(r.Symbol)
		switch r.Outcome {
		case model.OutcomeSignal:
			sig := r.Signal
			line := fmt.Sprintf("%s: %s, setup %s, close %s", sym, sig.Bias, sig.Setup, FormatPrice(sig.Close))
			if r.Alerted {
				line += " 🔔"
			} else if r.Throttled {
				line += " (throttled)"
			}
			b.WriteString(line + "\n")
		case model.OutcomeInsufficientHistory:
			b.WriteString(fmt.Sprintf("%s: not enough history\n", sym))
		case model.OutcomeNoData:
			b.WriteString(fmt.Sprintf("%s: no data\n", sym))
		case model.OutcomeComputeFailed:
			b.WriteString(fmt.Sprintf("%s: evaluation error\n", sym))
		default:
			b.WriteString(fmt.Sprintf("%s: fetch failed\n", sym))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return html.EscapeString(s)
}

// FormatWebhookAlert formats a relayed charting-tool alert.
func FormatWebhookAlert(a model.WebhookAlert, tzLabel string) string {
	var arrow string
	switch strings.ToLower(a.Side) {
	case "buy":
		arrow = "🟢 BUY"
	case "sell":
		arrow = "🔴 SELL"
	default:
		arrow = "ℹ️ ALERT"
	}
	symbol := a.Symbol
	if symbol == "" {
		symbol = "N/A"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s | <b>%s</b>\n", arrow, html.EscapeString(symbol)))
	b.WriteString(fmt.Sprintf("Entry: <b>%s</b>\n", orDash(a.Entry)))
	b.WriteString(fmt.Sprintf("Stop loss: <b>%s</b>\n", orDash(a.StopLoss)))
	b.WriteString(fmt.Sprintf("TP1: <b>%s</b> | TP2: <b>%s</b>\n", orDash(a.TakeProfit1), orDash(a.TakeProfit2)))
	b.WriteString(fmt.Sprintf("Risk USD: <b>%s</b>\n", orDash(a.RiskUSD)))
	b.WriteString(fmt.Sprintf("Position units: <b>%s</b>\n", orDash(a.PositionUnits)))
	b.WriteString(fmt.Sprintf("⏱ Time zone: %s", html.EscapeString(tzLabel)))
	return b.String()
}

// FormatTestMessage formats a connectivity test message.
func FormatTestMessage(msg string) string {
	return "🛠️ Test: " + html.EscapeString(msg)
}

// FormatHelp lists the chat commands.
func FormatHelp() string {
	return strings.Join([]string{
		"🤖 <b>Commands</b>",
		"/scan - evaluate all symbols now",
		"/status - daily risk state",
		"/fill &lt;pnl&gt; &lt;symbol&gt; [note] - report a closed trade",
		"/reset - reset today's session",
		"/help - this message",
	}, "\n")
}

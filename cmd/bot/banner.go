package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/almadodi738-lang/tv2tg-alerts/internal/config"
)

func onOff(b bool) string {
	if b {
		return "✅ on"
	}
	return "⚠️ off"
}

// printStartupInfo prints the effective configuration.
func printStartupInfo(cfg *config.Config, source string, telegram bool) {
	symbols := make([]string, 0, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		symbols = append(symbols, fmt.Sprintf("%s (%s)", s.Symbol, s.FetchID))
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("TV2TG ALERTS")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"📊 Symbols", strings.Join(symbols, ", ")},
		{"🏪 Data source", source},
		{"⏰ Interval", fmt.Sprintf("%s x %d bars", cfg.DataSource.Interval, cfg.DataSource.Lookback)},
		{"🔄 Poll / resend", fmt.Sprintf("%v / %v", cfg.Monitor.PollInterval, cfg.Monitor.MinResendInterval)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"💰 Balance", fmt.Sprintf("$%.2f", cfg.Risk.AccountBalance)},
		{"🎯 Risk per trade", fmt.Sprintf("%.2f%%", cfg.Risk.RiskPercent)},
		{"⛔ Daily loss limit", fmt.Sprintf("%.2f%%", cfg.Risk.DailyLossLimitPct)},
		{"🕒 Day boundary", cfg.Location().String()},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"🤖 Telegram", onOff(telegram)},
		{"🌐 HTTP port", cfg.Server.Port},
		{"🔐 Shared secret", onOff(cfg.Server.SharedSecret != "")},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 20, WidthMax: 20, Align: text.AlignLeft},
		{Number: 2, WidthMin: 25, WidthMax: 60, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()
}

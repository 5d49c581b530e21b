package model

// RiskPhase names where the day's session stands.
type RiskPhase string

const (
	PhaseFresh         RiskPhase = "fresh"
	PhaseAccumulating  RiskPhase = "accumulating"
	PhaseLimitBreached RiskPhase = "limit_breached"
)

// RiskState is a point-in-time copy of the daily risk counters.
type RiskState struct {
	Date          string    `json:"date"` // YYYY-MM-DD in the configured day offset
	CumulativePnL float64   `json:"cumulative_pnl"`
	PnLPct        float64   `json:"pnl_pct"`
	WinCount      int       `json:"win_count"`
	LossCount     int       `json:"loss_count"`
	TradeCount    int       `json:"trade_count"`
	StartBalance  float64   `json:"start_balance"`
	LimitPct      float64   `json:"daily_loss_limit_pct"`
	LimitBreached bool      `json:"limit_breached"`
	Phase         RiskPhase `json:"phase"`
}

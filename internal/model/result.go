package model

// Outcome classifies how one symbol's evaluation ended.
type Outcome string

const (
	OutcomeSignal              Outcome = "signal"
	OutcomeNoData              Outcome = "no_data"
	OutcomeInsufficientHistory Outcome = "insufficient_history"
	OutcomeFetchFailed         Outcome = "fetch_failed"
	OutcomeComputeFailed       Outcome = "compute_failed"
)

// EvalResult is the per-symbol result of one monitor pass.
// Signal is set only when Outcome is OutcomeSignal.
type EvalResult struct {
	Symbol    string  `json:"symbol"`
	Outcome   Outcome `json:"outcome"`
	Signal    *Signal `json:"signal,omitempty"`
	Err       error   `json:"-"`
	Error     string  `json:"error,omitempty"`
	Alerted   bool    `json:"alerted"`
	Throttled bool    `json:"throttled"`
}

// WebhookAlert is a trade plan pushed by an external charting tool.
// Fields are kept as display text; missing ones are rendered as a dash.
type WebhookAlert struct {
	Symbol        string
	Side          string
	Entry         string
	StopLoss      string
	TakeProfit1   string
	TakeProfit2   string
	RiskUSD       string
	PositionUnits string
}

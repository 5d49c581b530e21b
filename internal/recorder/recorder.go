package recorder

import (
	"github.com/almadodi738-lang/tv2tg-alerts/internal/model"
)

// AlertEvent records an actionable signal and whether it was delivered.
type AlertEvent struct {
	Signal    *model.Signal
	Delivered bool
}

// FailureEvent records a symbol whose evaluation did not produce a signal.
type FailureEvent struct {
	Symbol  string
	Outcome model.Outcome
	Error   string
}

// FillEvent records a reported trade result and the state it produced.
type FillEvent struct {
	Symbol      string
	PnL         string // decimal text, kept exact
	Note        string
	State       model.RiskState
	StopTrading bool
}

// SessionEvent records a session-level action.
type SessionEvent struct {
	EventType string // "RESET" or "DAILY_SUMMARY"
	State     model.RiskState
}

// Recorder keeps an append-only audit trail. It is never read back to
// restore state.
type Recorder interface {
	RecordAlert(evt *AlertEvent) error
	RecordFailure(evt *FailureEvent) error
	RecordFill(evt *FillEvent) error
	RecordSession(evt *SessionEvent) error
	Close() error
}

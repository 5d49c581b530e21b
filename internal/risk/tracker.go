package risk

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/almadodi738-lang/tv2tg-alerts/internal/model"
)

// ErrInvalidFill is returned for malformed fill reports. The tracker state is
// left untouched when it is returned.
var ErrInvalidFill = errors.New("invalid fill report")

var hundred = decimal.NewFromInt(100)

// maxFillPnL bounds a single report so the running totals stay finite.
var maxFillPnL = decimal.New(1, 12)

// Fill is a realized trade result reported by the user.
type Fill struct {
	PnL    decimal.Decimal
	Symbol string
	Note   string
}

// ParseFill builds a Fill from textual input such as a chat command argument.
func ParseFill(pnl, symbol, note string) (Fill, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(pnl))
	if err != nil {
		return Fill{}, fmt.Errorf("%w: pnl %q is not a number", ErrInvalidFill, pnl)
	}
	return Fill{PnL: d, Symbol: symbol, Note: note}, nil
}

func (f Fill) validate() error {
	if strings.TrimSpace(f.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidFill)
	}
	if f.PnL.Abs().GreaterThan(maxFillPnL) {
		return fmt.Errorf("%w: pnl %s is out of range", ErrInvalidFill, f.PnL.String())
	}
	return nil
}

// Config configures a Tracker.
type Config struct {
	StartBalance      float64
	DailyLossLimitPct float64
	Location          *time.Location // day boundary; nil means UTC
	Now               func() time.Time
}

// Tracker holds the day-scoped PnL counters. All access goes through its
// locked methods; each one first rolls the counters over if the day changed.
type Tracker struct {
	mu sync.Mutex

	startBalance decimal.Decimal
	limitPct     decimal.Decimal
	loc          *time.Location
	now          func() time.Time

	date   string
	pnl    decimal.Decimal
	wins   int
	losses int
	trades int
}

// NewTracker creates a Tracker in the Fresh state for today.
func NewTracker(cfg Config) *Tracker {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	t := &Tracker{
		startBalance: decimal.NewFromFloat(cfg.StartBalance),
		limitPct:     decimal.NewFromFloat(cfg.DailyLossLimitPct),
		loc:          loc,
		now:          now,
	}
	t.date = t.today()
	return t
}

func (t *Tracker) today() string {
	return t.now().In(t.loc).Format("2006-01-02")
}

func (t *Tracker) rolloverLocked() {
	today := t.today()
	if today == t.date {
		return
	}
	log.Printf("[INFO] risk day rollover %s -> %s (pnl=%s trades=%d)", t.date, today, t.pnl.StringFixed(2), t.trades)
	t.date = today
	t.zeroLocked()
}

func (t *Tracker) zeroLocked() {
	t.pnl = decimal.Zero
	t.wins = 0
	t.losses = 0
	t.trades = 0
}

func (t *Tracker) pnlPctLocked() decimal.Decimal {
	if !t.startBalance.IsPositive() {
		return decimal.Zero
	}
	return t.pnl.Div(t.startBalance).Mul(hundred)
}

// breachedLocked is a level check: it holds for every report while the
// cumulative loss is at or beyond the limit.
func (t *Tracker) breachedLocked() bool {
	return t.pnlPctLocked().LessThanOrEqual(t.limitPct.Neg())
}

func (t *Tracker) phaseLocked() model.RiskPhase {
	switch {
	case t.trades == 0:
		return model.PhaseFresh
	case t.breachedLocked():
		return model.PhaseLimitBreached
	default:
		return model.PhaseAccumulating
	}
}

func (t *Tracker) snapshotLocked() model.RiskState {
	return model.RiskState{
		Date:          t.date,
		CumulativePnL: t.pnl.InexactFloat64(),
		PnLPct:        t.pnlPctLocked().Round(4).InexactFloat64(),
		WinCount:      t.wins,
		LossCount:     t.losses,
		TradeCount:    t.trades,
		StartBalance:  t.startBalance.InexactFloat64(),
		LimitPct:      t.limitPct.InexactFloat64(),
		LimitBreached: t.breachedLocked(),
		Phase:         t.phaseLocked(),
	}
}

// ReportFill records a realized fill and reports whether trading should stop
// for the rest of the day.
func (t *Tracker) ReportFill(f Fill) (model.RiskState, bool, error) {
	if err := f.validate(); err != nil {
		return t.Read(), false, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.rolloverLocked()
	t.pnl = t.pnl.Add(f.PnL)
	t.trades++
	if f.PnL.IsNegative() {
		t.losses++
	} else {
		t.wins++
	}
	state := t.snapshotLocked()
	return state, state.LimitBreached, nil
}

// ResetSession zeroes today's counters regardless of the day boundary.
func (t *Tracker) ResetSession() model.RiskState {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.date = t.today()
	t.zeroLocked()
	return t.snapshotLocked()
}

// Read returns the current state after a rollover check.
func (t *Tracker) Read() model.RiskState {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rolloverLocked()
	return t.snapshotLocked()
}

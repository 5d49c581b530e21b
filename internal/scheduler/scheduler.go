package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/almadodi738-lang/tv2tg-alerts/internal/metrics"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/model"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/monitor"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/notifier"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/recorder"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/risk"
)

// Scanner runs one evaluation pass.
type Scanner interface {
	EvaluateAll(ctx context.Context) monitor.Pass
}

// Sender delivers chat messages.
type Sender interface {
	Notify(ctx context.Context, text string) bool
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler owns the cron jobs and is the single entry point for the
// operations exposed over chat and HTTP.
type Scheduler struct {
	Cron     *cron.Cron
	Scanner  Scanner
	Risk     *risk.Tracker
	Notifier Sender
	Recorder recorder.Recorder
	Metrics  *metrics.Metrics
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler. Cron specs are evaluated in loc.
func NewScheduler(ctx context.Context, sc Scanner, tracker *risk.Tracker, n Sender, rec recorder.Recorder, m *metrics.Metrics, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		Scanner:  sc,
		Risk:     tracker,
		Notifier: n,
		Recorder: rec,
		Metrics:  m,
		Ctx:      ctx,
	}
}

// RegisterAll registers the daily summary job.
func (s *Scheduler) RegisterAll(dailySummaryCron string) error {
	if _, err := s.Cron.AddFunc(dailySummaryCron, s.dailySummary); err != nil {
		return fmt.Errorf("register daily summary: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// ScanNow executes an evaluation pass immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) ScanNow(ctx context.Context) monitor.Pass {
	log.Println("[INFO] running manual scan")
	return s.Scanner.EvaluateAll(ctx)
}

// ReportFill applies a fill to the risk tracker. When the daily loss limit is
// reached a stop-trading notice goes out on every qualifying report.
func (s *Scheduler) ReportFill(ctx context.Context, f risk.Fill) (model.RiskState, bool, error) {
	state, stop, err := s.Risk.ReportFill(f)
	if err != nil {
		s.Metrics.IncFill("rejected")
		return state, false, err
	}

	result := "win"
	if f.PnL.IsNegative() {
		result = "loss"
	}
	s.Metrics.IncFill(result)
	s.Metrics.SetRisk(state.CumulativePnL, state.PnLPct, state.LimitBreached)
	log.Printf("[INFO] fill %s %s: day pnl %.2f (%.2f%%), trades %d",
		f.Symbol, f.PnL.String(), state.CumulativePnL, state.PnLPct, state.TradeCount)

	if err := s.Recorder.RecordFill(&recorder.FillEvent{
		Symbol: f.Symbol, PnL: f.PnL.String(), Note: f.Note, State: state, StopTrading: stop,
	}); err != nil {
		log.Printf("[ERROR] record fill: %v", err)
	}

	if stop {
		log.Printf("[WARN] daily loss limit reached: %.2f%%", state.PnLPct)
		if !s.Notifier.Notify(ctx, notifier.FormatStopTrading(state)) {
			s.Metrics.IncNotifyFailure()
		}
	}
	return state, stop, nil
}

// ResetSession zeroes today's counters.
func (s *Scheduler) ResetSession() model.RiskState {
	state := s.Risk.ResetSession()
	s.Metrics.SetRisk(state.CumulativePnL, state.PnLPct, state.LimitBreached)
	log.Println("[INFO] risk session reset")
	s.recordSession("RESET", state)
	return state
}

// Status returns the current risk state.
func (s *Scheduler) Status() model.RiskState {
	state := s.Risk.Read()
	s.Metrics.SetRisk(state.CumulativePnL, state.PnLPct, state.LimitBreached)
	return state
}

func (s *Scheduler) dailySummary() {
	log.Println("[INFO] running daily summary")
	state := s.Status()
	s.trySend(notifier.FormatDailySummary(state))
	s.recordSession("DAILY_SUMMARY", state)
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// "/status@SomeBot" in group chats
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")

	switch name {
	case "/scan":
		pass := s.ScanNow(ctx)
		return notifier.FormatScanResults(pass.Results)
	case "/status":
		return notifier.FormatRiskStatus(s.Status())
	case "/summary":
		return notifier.FormatDailySummary(s.Status())
	case "/reset":
		return "🔄 Session reset\n\n" + notifier.FormatRiskStatus(s.ResetSession())
	case "/fill":
		return s.fillCommand(ctx, fields[1:])
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) fillCommand(ctx context.Context, args []string) string {
	if len(args) < 2 {
		return "Usage: /fill &lt;pnl&gt; &lt;symbol&gt; [note]"
	}
	f, err := risk.ParseFill(args[0], strings.ToUpper(args[1]), strings.Join(args[2:], " "))
	if err == nil {
		_, _, err = s.ReportFill(ctx, f)
	}
	if err != nil {
		if errors.Is(err, risk.ErrInvalidFill) {
			return "❌ " + html.EscapeString(err.Error())
		}
		log.Printf("[ERROR] fill command: %v", err)
		return "❌ fill failed"
	}
	// a breached limit already produced its own notice
	return notifier.FormatRiskStatus(s.Status())
}

func (s *Scheduler) recordSession(eventType string, state model.RiskState) {
	if err := s.Recorder.RecordSession(&recorder.SessionEvent{EventType: eventType, State: state}); err != nil {
		log.Printf("[ERROR] record session event: %v", err)
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.Metrics.IncNotifyFailure()
		log.Printf("[ERROR] send notification: %v", err)
	}
}

package monitor

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/almadodi738-lang/tv2tg-alerts/internal/calculator"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/collector"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/metrics"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/model"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/notifier"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/recorder"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/strategy"
)

// Source produces the latest bars and indicator snapshot for an instrument.
type Source interface {
	Collect(ctx context.Context, inst model.Instrument) ([]model.OHLCV, model.IndicatorSnapshot, error)
}

// Notifier delivers a message and reports whether it got through.
type Notifier interface {
	Notify(ctx context.Context, text string) bool
}

// Config is fixed for the lifetime of a Monitor.
type Config struct {
	Instruments       []model.Instrument
	PollInterval      time.Duration
	MinResendInterval time.Duration
	Params            strategy.Params
	AccountBalance    float64
	RiskPercent       float64
	NotifyErrors      bool           // also send throttled per-symbol failure notices
	Location          *time.Location // for alert timestamps
	TZLabel           string
}

// Pass is the outcome of one evaluation over every instrument.
type Pass struct {
	Started  time.Time
	Duration time.Duration
	Results  []model.EvalResult
}

// Count returns how many symbols ended with outcome o.
func (p Pass) Count(o model.Outcome) int {
	n := 0
	for _, r := range p.Results {
		if r.Outcome == o {
			n++
		}
	}
	return n
}

// Monitor evaluates the configured instruments and dispatches throttled alerts.
type Monitor struct {
	cfg      Config
	source   Source
	notifier Notifier
	recorder recorder.Recorder
	metrics  *metrics.Metrics
	now      func() time.Time

	mu        sync.Mutex
	lastAlert map[string]time.Time
}

// New creates a Monitor. rec and m may be nil.
func New(cfg Config, src Source, n Notifier, rec recorder.Recorder, m *metrics.Metrics) *Monitor {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Monitor{
		cfg:       cfg,
		source:    src,
		notifier:  n,
		recorder:  rec,
		metrics:   m,
		now:       time.Now,
		lastAlert: make(map[string]time.Time),
	}
}

// claim reports whether key may alert at now and, if so, records now as its
// last alert time before anything is dispatched.
func (m *Monitor) claim(key string, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if last, ok := m.lastAlert[key]; ok && now.Sub(last) <= m.cfg.MinResendInterval {
		return false
	}
	m.lastAlert[key] = now
	return true
}

// EvaluateAll runs one pass over every instrument. A failing symbol never
// prevents the others from being evaluated.
func (m *Monitor) EvaluateAll(ctx context.Context) Pass {
	pass := Pass{Started: m.now()}
	for _, inst := range m.cfg.Instruments {
		if ctx.Err() != nil {
			break
		}
		r := m.evaluate(ctx, inst)
		m.metrics.IncEvaluation(r.Symbol, string(r.Outcome))
		pass.Results = append(pass.Results, r)
	}
	pass.Duration = m.now().Sub(pass.Started)
	m.metrics.ObservePass(pass.Duration)

	log.Printf("[INFO] pass done: %d symbols, %d signals, %d alerts sent",
		len(pass.Results), pass.Count(model.OutcomeSignal), countAlerted(pass.Results))
	return pass
}

func countAlerted(rs []model.EvalResult) int {
	n := 0
	for _, r := range rs {
		if r.Alerted {
			n++
		}
	}
	return n
}

func (m *Monitor) evaluate(ctx context.Context, inst model.Instrument) model.EvalResult {
	res := model.EvalResult{Symbol: inst.Symbol}

	start := time.Now()
	bars, snap, err := m.source.Collect(ctx, inst)
	m.metrics.ObserveFetch(inst.Symbol, time.Since(start))
	if err != nil {
		return m.fail(ctx, res, classify(err), err)
	}

	sig, err := strategy.Evaluate(inst.Symbol, snap, bars, m.cfg.Params, strategy.Sizing{
		AccountBalance: m.cfg.AccountBalance,
		RiskPercent:    m.cfg.RiskPercent,
		MinUnit:        inst.MinUnit,
	})
	if err != nil {
		return m.fail(ctx, res, model.OutcomeComputeFailed, err)
	}
	res.Outcome = model.OutcomeSignal
	res.Signal = sig

	if !sig.Actionable() {
		return res
	}
	if !m.claim(inst.Symbol, m.now()) {
		res.Throttled = true
		m.metrics.IncThrottled(inst.Symbol)
		return res
	}

	text := notifier.FormatAlert(sig, m.cfg.TZLabel, m.now().In(m.cfg.Location))
	res.Alerted = m.notifier.Notify(ctx, text)
	if res.Alerted {
		m.metrics.IncAlert(inst.Symbol, string(sig.Setup))
		log.Printf("[INFO] alert sent: %s %s @ %.5f", inst.Symbol, sig.Setup, sig.Entry)
	} else {
		m.metrics.IncNotifyFailure()
		log.Printf("[WARN] alert for %s not delivered", inst.Symbol)
	}
	if err := m.recorder.RecordAlert(&recorder.AlertEvent{Signal: sig, Delivered: res.Alerted}); err != nil {
		log.Printf("[WARN] failed to record alert: %v", err)
	}
	return res
}

func classify(err error) model.Outcome {
	switch {
	case errors.Is(err, calculator.ErrInsufficientData):
		return model.OutcomeInsufficientHistory
	case errors.Is(err, collector.ErrNoData):
		return model.OutcomeNoData
	default:
		return model.OutcomeFetchFailed
	}
}

func (m *Monitor) fail(ctx context.Context, res model.EvalResult, outcome model.Outcome, err error) model.EvalResult {
	res.Outcome = outcome
	res.Err = err
	res.Error = err.Error()

	if outcome == model.OutcomeInsufficientHistory {
		log.Printf("[INFO] %s: %v", res.Symbol, err)
		return res
	}
	log.Printf("[ERROR] %s evaluation failed (%s): %v", res.Symbol, outcome, err)
	if rerr := m.recorder.RecordFailure(&recorder.FailureEvent{Symbol: res.Symbol, Outcome: outcome, Error: err.Error()}); rerr != nil {
		log.Printf("[WARN] failed to record evaluation failure: %v", rerr)
	}
	if m.cfg.NotifyErrors && m.claim("error:"+res.Symbol, m.now()) {
		if !m.notifier.Notify(ctx, notifier.FormatEvaluationError(res.Symbol, err)) {
			m.metrics.IncNotifyFailure()
		}
	}
	return res
}

// Run evaluates on a fixed delay until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) { m.RunAfter(ctx, 0) }

// RunAfter is Run with the first pass delayed by first.
func (m *Monitor) RunAfter(ctx context.Context, first time.Duration) {
	log.Printf("[INFO] monitor started: %d symbols every %v", len(m.cfg.Instruments), m.cfg.PollInterval)
	wait := first
	for {
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				log.Println("[INFO] monitor stopped")
				return
			case <-timer.C:
			}
		}
		if ctx.Err() != nil {
			log.Println("[INFO] monitor stopped")
			return
		}
		m.EvaluateAll(ctx)
		wait = m.cfg.PollInterval
	}
}

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the alert service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	PollPasses      prometheus.Counter
	Evaluations     *prometheus.CounterVec // labels: symbol, outcome
	Alerts          *prometheus.CounterVec // labels: symbol, setup
	AlertsThrottled *prometheus.CounterVec // labels: symbol
	NotifyFailures  prometheus.Counter
	FetchDuration   *prometheus.HistogramVec // labels: symbol
	PassDuration    prometheus.Histogram

	Fills        *prometheus.CounterVec // labels: result=win|loss|rejected
	DailyPnL     prometheus.Gauge
	DailyPnLPct  prometheus.Gauge
	StopTrading  prometheus.Gauge // 1 when the daily loss limit is reached
	WebhookRelay *prometheus.CounterVec // labels: status=sent|failed|rejected
}

// New creates the metrics and registers them with reg. A nil reg uses a
// fresh private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		gatherer: reg,
		PollPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tv2tg_poll_passes_total",
			Help: "Total monitor evaluation passes",
		}),
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tv2tg_evaluations_total",
			Help: "Per-symbol evaluations by outcome",
		}, []string{"symbol", "outcome"}),
		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tv2tg_alerts_total",
			Help: "Alerts dispatched",
		}, []string{"symbol", "setup"}),
		AlertsThrottled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tv2tg_alerts_throttled_total",
			Help: "Actionable signals suppressed by the resend window",
		}, []string{"symbol"}),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tv2tg_notify_failures_total",
			Help: "Notifications that could not be delivered",
		}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tv2tg_fetch_duration_seconds",
			Help:    "Market data fetch latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"symbol"}),
		PassDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tv2tg_pass_duration_seconds",
			Help:    "Duration of a full evaluation pass",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		Fills: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tv2tg_fills_total",
			Help: "Reported trade results",
		}, []string{"result"}),
		DailyPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tv2tg_daily_pnl",
			Help: "Cumulative PnL of the current session",
		}),
		DailyPnLPct: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tv2tg_daily_pnl_percent",
			Help: "Session PnL as a percent of the start balance",
		}),
		StopTrading: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tv2tg_stop_trading",
			Help: "1 when the daily loss limit has been reached",
		}),
		WebhookRelay: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tv2tg_webhook_relays_total",
			Help: "Inbound webhook alerts by status",
		}, []string{"status"}),
	}
	reg.MustRegister(
		m.PollPasses, m.Evaluations, m.Alerts, m.AlertsThrottled, m.NotifyFailures,
		m.FetchDuration, m.PassDuration, m.Fills, m.DailyPnL, m.DailyPnLPct,
		m.StopTrading, m.WebhookRelay,
	)
	return m
}

// Handler serves the registered metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObservePass(d time.Duration) {
	if m == nil {
		return
	}
	m.PollPasses.Inc()
	m.PassDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveFetch(symbol string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(symbol).Observe(d.Seconds())
}

func (m *Metrics) IncEvaluation(symbol, outcome string) {
	if m == nil {
		return
	}
	m.Evaluations.WithLabelValues(symbol, outcome).Inc()
}

func (m *Metrics) IncAlert(symbol, setup string) {
	if m == nil {
		return
	}
	m.Alerts.WithLabelValues(symbol, setup).Inc()
}

func (m *Metrics) IncThrottled(symbol string) {
	if m == nil {
		return
	}
	m.AlertsThrottled.WithLabelValues(symbol).Inc()
}

func (m *Metrics) IncNotifyFailure() {
	if m == nil {
		return
	}
	m.NotifyFailures.Inc()
}

func (m *Metrics) IncFill(result string) {
	if m == nil {
		return
	}
	m.Fills.WithLabelValues(result).Inc()
}

// SetRisk publishes the session PnL and stop state.
func (m *Metrics) SetRisk(pnl, pnlPct float64, stop bool) {
	if m == nil {
		return
	}
	m.DailyPnL.Set(pnl)
	m.DailyPnLPct.Set(pnlPct)
	if stop {
		m.StopTrading.Set(1)
	} else {
		m.StopTrading.Set(0)
	}
}

func (m *Metrics) IncWebhook(status string) {
	if m == nil {
		return
	}
	m.WebhookRelay.WithLabelValues(status).Inc()
}

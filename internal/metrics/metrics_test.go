package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncEvaluation("XAUUSD", "signal")
	m.IncEvaluation("XAUUSD", "signal")
	m.IncEvaluation("EURUSD", "no_data")
	m.IncAlert("XAUUSD", "buy")
	m.IncThrottled("XAUUSD")
	m.IncNotifyFailure()
	m.ObservePass(time.Second)
	m.SetRisk(-6, -3, true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Evaluations.WithLabelValues("XAUUSD", "signal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Evaluations.WithLabelValues("EURUSD", "no_data")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Alerts.WithLabelValues("XAUUSD", "buy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotifyFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PollPasses))
	assert.Equal(t, -6.0, testutil.ToFloat64(m.DailyPnL))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StopTrading))

	m.SetRisk(0, 0, false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.StopTrading))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncEvaluation("X", "signal")
		m.IncAlert("X", "buy")
		m.SetRisk(1, 1, true)
		m.ObserveFetch("X", time.Second)
		m.IncWebhook("sent")
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New(nil)
	m.IncFill("loss")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `tv2tg_fills_total{result="loss"} 1`)
}

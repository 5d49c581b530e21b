package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almadodi738-lang/tv2tg-alerts/internal/calculator"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/model"
)

var gold = model.Instrument{Symbol: "XAUUSD", FetchID: "GC=F", MinUnit: 0.01}

func TestParseInterval(t *testing.T) {
	cases := map[string]time.Duration{
		"1m":  time.Minute,
		"15m": 15 * time.Minute,
		"60m": time.Hour,
		"4h":  4 * time.Hour,
		"1d":  24 * time.Hour,
		"1wk": 7 * 24 * time.Hour,
	}
	for in, want := range cases {
		got, err := ParseInterval(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "m", "0m", "-5m", "5x"} {
		_, err := ParseInterval(bad)
		assert.Error(t, err, bad)
	}
}

func TestYahooRange(t *testing.T) {
	assert.Equal(t, "1mo", yahooRange("15m", 300))
	assert.Equal(t, "2y", yahooRange("1d", 250))
	assert.Equal(t, "1y", yahooRange("bogus", 10))
}

func TestCollect_EmptySeriesIsNoData(t *testing.T) {
	f := &MockFetcher{Bars: map[string][]model.OHLCV{"GC=F": {}}}
	c := NewCollector(f, "15m", 300, time.Second, calculator.DefaultPeriods())

	_, _, err := c.Collect(context.Background(), gold)
	assert.ErrorIs(t, err, ErrNoData)
	assert.NotErrorIs(t, err, ErrFetchFailed)
}

func TestCollect_FetchErrorIsWrapped(t *testing.T) {
	boom := errors.New("connection reset")
	f := &MockFetcher{Errs: map[string]error{"GC=F": boom}}
	c := NewCollector(f, "15m", 300, time.Second, calculator.DefaultPeriods())

	_, _, err := c.Collect(context.Background(), gold)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.ErrorIs(t, err, boom)
}

func TestCollect_ShortSeriesIsInsufficient(t *testing.T) {
	f := &MockFetcher{Price: 2400}
	c := NewCollector(f, "15m", 150, time.Second, calculator.DefaultPeriods())

	bars, _, err := c.Collect(context.Background(), gold)
	assert.ErrorIs(t, err, calculator.ErrInsufficientData)
	assert.Len(t, bars, 150)
}

func TestCollect_SnapshotMatchesWholeSeries(t *testing.T) {
	f := &MockFetcher{Price: 2400}
	c := NewCollector(f, "15m", 300, time.Second, calculator.DefaultPeriods())

	bars, snap, err := c.Collect(context.Background(), gold)
	require.NoError(t, err)
	want, err := calculator.NewEngine(calculator.DefaultPeriods()).Snapshot(bars)
	require.NoError(t, err)
	assert.InDelta(t, want.EMATrend, snap.EMATrend, 1e-9*want.EMATrend)
	assert.InDelta(t, want.RSI, snap.RSI, 1e-9)
	assert.Equal(t, 1, f.Calls("GC=F"))
}

func TestCollect_SortsUnorderedBars(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []model.OHLCV{
		{Time: t0.Add(time.Minute), Close: 2},
		{Time: t0, Close: 1},
	}
	f := &MockFetcher{Bars: map[string][]model.OHLCV{"GC=F": bars}}
	c := NewCollector(f, "1m", 2, time.Second, calculator.DefaultPeriods())

	got, err := c.Fetch(context.Background(), gold)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got[0].Close)
	assert.Equal(t, 2.0, got[1].Close)
	assert.Equal(t, 2.0, bars[0].Close, "caller's slice is left untouched")
}

type slowFetcher struct{}

func (slowFetcher) Name() string { return "slow" }

func (slowFetcher) FetchBars(ctx context.Context, _, _ string, _ int) ([]model.OHLCV, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestCollect_Timeout(t *testing.T) {
	c := NewCollector(slowFetcher{}, "15m", 300, 20*time.Millisecond, calculator.DefaultPeriods())

	_, _, err := c.Collect(context.Background(), gold)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

const yahooBody = `{"chart":{"result":[{"timestamp":[1700000000,1700000900,1700001800],
"indicators":{"quote":[{"open":[1,null,3],"high":[2,null,4],"low":[0.5,null,2.5],"close":[1.5,null,3.5],"volume":[10,null,30]}]}}],"error":null}}`

func TestYahooFetcher_FetchBars(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(yahooBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchBars(context.Background(), "GC=F", "15m", 300)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/GC=F", gotPath)
	assert.Contains(t, gotQuery, "interval=15m")
	require.Len(t, bars, 2, "null bar skipped")
	assert.Equal(t, 1.5, bars[0].Close)
	assert.Equal(t, 3.5, bars[1].Close)
	assert.Equal(t, int64(1700001800), bars[1].Time.Unix())
}

func TestYahooFetcher_SkipsPartialBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"timestamp":[1700000000,1700000900,1700001800,1700002700],
			"indicators":{"quote":[{"open":[10,11,12,13],"high":[11,12,13,14],"low":[9,10,11,12],
			"close":[10.5,null,12.5,0],"volume":[5,6,null,8]}]}}],"error":null}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchBars(context.Background(), "GC=F", "15m", 300)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 10.5, bars[0].Close)
	assert.Equal(t, 12.5, bars[1].Close)
	assert.Zero(t, bars[1].Volume)
}

func TestYahooFetcher_TrimsToLookback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(yahooBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchBars(context.Background(), "GC=F", "15m", 1)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 3.5, bars[0].Close)
}

func TestYahooFetcher_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchBars(context.Background(), "GC=F", "15m", 300)
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestYahooFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	_, err := f.FetchBars(context.Background(), "NOPE", "15m", 300)
	assert.ErrorContains(t, err, "delisted")
}

func TestRESTFetcher_FetchBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/bars", r.URL.Path)
		assert.Equal(t, "EURUSD", r.URL.Query().Get("symbol"))
		assert.Equal(t, "300", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"timestamp":1700000900,"open":1,"high":1,"low":1,"close":2,"volume":0},
{"timestamp":1700000000,"open":1,"high":1,"low":1,"close":1,"volume":0}]`))
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "k", "")
	bars, err := f.FetchBars(context.Background(), "EURUSD", "15m", 300)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 1.0, bars[0].Close)
}

func TestRESTFetcher_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewRESTFetcher(srv.URL, "", "").FetchBars(context.Background(), "EURUSD", "15m", 300)
	assert.ErrorContains(t, err, "status 502")
}

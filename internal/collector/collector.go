package collector

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/almadodi738-lang/tv2tg-alerts/internal/calculator"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/model"
)

// Collector orchestrates data fetching and indicator computation.
// It keeps one incremental indicator engine per symbol.
type Collector struct {
	Fetcher  Fetcher
	Interval string
	Lookback int
	Timeout  time.Duration

	periods calculator.Periods

	mu      sync.Mutex
	engines map[string]*calculator.Engine
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, interval string, lookback int, timeout time.Duration, p calculator.Periods) *Collector {
	return &Collector{
		Fetcher:  fetcher,
		Interval: interval,
		Lookback: lookback,
		Timeout:  timeout,
		periods:  p,
		engines:  make(map[string]*calculator.Engine),
	}
}

func (c *Collector) engine(symbol string) *calculator.Engine {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.engines[symbol]
	if !ok {
		e = calculator.NewEngine(c.periods)
		c.engines[symbol] = e
	}
	return e
}

// Fetch retrieves the latest series for inst within the fetch timeout.
// An empty series yields ErrNoData; source failures are wrapped in ErrFetchFailed.
func (c *Collector) Fetch(ctx context.Context, inst model.Instrument) ([]model.OHLCV, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	bars, err := c.Fetcher.FetchBars(ctx, inst.FetchID, c.Interval, c.Lookback)
	if err != nil {
		return nil, fmt.Errorf("%w: %s via %s: %w", ErrFetchFailed, inst.FetchID, c.Fetcher.Name(), err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", inst.FetchID, ErrNoData)
	}
	if !sort.SliceIsSorted(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) }) {
		sorted := make([]model.OHLCV, len(bars))
		copy(sorted, bars)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })
		bars = sorted
	}
	return bars, nil
}

// Collect fetches market data for inst and computes the indicator snapshot
// for its final bar.
func (c *Collector) Collect(ctx context.Context, inst model.Instrument) ([]model.OHLCV, model.IndicatorSnapshot, error) {
	bars, err := c.Fetch(ctx, inst)
	if err != nil {
		return nil, model.IndicatorSnapshot{}, err
	}
	snap, err := c.engine(inst.Symbol).Snapshot(bars)
	if err != nil {
		return bars, model.IndicatorSnapshot{}, fmt.Errorf("%s: %w", inst.Symbol, err)
	}
	return bars, snap, nil
}

package collector

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/almadodi738-lang/tv2tg-alerts/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Bars and Errs are keyed by fetch ID; ids missing from both get a
// synthetic series around Price.
type MockFetcher struct {
	Price float64
	Bars  map[string][]model.OHLCV
	Errs  map[string]error

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(ctx context.Context, fetchID, interval string, lookback int) ([]model.OHLCV, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[fetchID]++
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.Errs[fetchID]; ok {
		return nil, err
	}
	if bars, ok := m.Bars[fetchID]; ok {
		return bars, nil
	}
	step, err := ParseInterval(interval)
	if err != nil {
		step = 15 * time.Minute
	}
	return generateMockBars(m.Price, lookback, step), nil
}

// Calls reports how many times fetchID was requested.
func (m *MockFetcher) Calls(fetchID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[fetchID]
}

func generateMockBars(basePrice float64, count int, step time.Duration) []model.OHLCV {
	if basePrice <= 0 {
		basePrice = 100
	}
	end := time.Now().UTC().Truncate(step)
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001 + 0.01*math.Sin(float64(i)/7))
		bars[i] = model.OHLCV{
			Time:   end.Add(-time.Duration(count-1-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

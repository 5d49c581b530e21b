package calculator

import (
	"math"
	"time"

	"github.com/almadodi738-lang/tv2tg-alerts/internal/model"
)

var baseTime = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

// waveBars builds a deterministic trending series with oscillation.
func waveBars(n int) []model.OHLCV {
	bars := make([]model.OHLCV, n)
	prev := 100.0
	for i := 0; i < n; i++ {
		c := 100 + 0.05*float64(i) + 3*math.Sin(float64(i)/7)
		hi := math.Max(prev, c) + 0.5 + 0.3*math.Abs(math.Sin(float64(i)))
		lo := math.Min(prev, c) - 0.4
		bars[i] = model.OHLCV{
			Time:  baseTime.Add(time.Duration(i) * 15 * time.Minute),
			Open:  prev,
			High:  hi,
			Low:   lo,
			Close: c,
		}
		prev = c
	}
	return bars
}

func flatBars(n int, price float64) []model.OHLCV {
	bars := make([]model.OHLCV, n)
	for i := range bars {
		bars[i] = model.OHLCV{
			Time: baseTime.Add(time.Duration(i) * time.Hour),
			Open: price, High: price, Low: price, Close: price,
		}
	}
	return bars
}

// Reference implementations computed over whole arrays, independent of the
// incremental types.

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func ewmSeries(xs []float64, alpha float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		if i == 0 {
			out[i] = x
			continue
		}
		out[i] = alpha*x + (1-alpha)*out[i-1]
	}
	return out
}

func refEMA(bars []model.OHLCV, period int) float64 {
	s := ewmSeries(extractCloses(bars), 2.0/float64(period+1))
	return s[len(s)-1]
}

func refRSI(bars []model.OHLCV, period int) float64 {
	closes := extractCloses(bars)
	gains := make([]float64, 0, len(closes)-1)
	losses := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		gains = append(gains, math.Max(d, 0))
		losses = append(losses, math.Max(-d, 0))
	}
	g := ewmSeries(gains, 1.0/float64(period))
	l := ewmSeries(losses, 1.0/float64(period))
	rs := g[len(g)-1] / (l[len(l)-1] + 1e-9)
	return 100 - 100/(1+rs)
}

func refATR(bars []model.OHLCV, period int) float64 {
	trs := make([]float64, len(bars))
	for i, b := range bars {
		if i == 0 {
			trs[i] = b.High - b.Low
			continue
		}
		pc := bars[i-1].Close
		trs[i] = math.Max(b.High-b.Low, math.Max(math.Abs(b.High-pc), math.Abs(b.Low-pc)))
	}
	s := ewmSeries(trs, 1.0/float64(period))
	return s[len(s)-1]
}

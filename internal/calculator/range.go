package calculator

import (
	"errors"
	"math"

	"github.com/almadodi738-lang/tv2tg-alerts/internal/model"
)

// TrailingRange scans the most recent `window` bars and returns the lowest low
// (support) and the highest high (resistance). A window larger than the series
// uses the whole series.
func TrailingRange(bars []model.OHLCV, window int) (support, resistance float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	if window <= 0 {
		return 0, 0, errors.New("window must be positive")
	}
	n := len(bars)
	start := n - window
	if start < 0 {
		start = 0
	}
	support = math.Inf(1)
	resistance = math.Inf(-1)
	for i := start; i < n; i++ {
		if bars[i].Low < support {
			support = bars[i].Low
		}
		if bars[i].High > resistance {
			resistance = bars[i].High
		}
	}
	return support, resistance, nil
}

package calculator

import (
	"math"

	"github.com/almadodi738-lang/tv2tg-alerts/internal/model"
)

// ATR is the average true range smoothed with factor 1/period.
// The first bar's true range is its high-low span.
type ATR struct {
	period    int
	alpha     float64
	count     int
	prevClose float64
	value     float64
}

// NewATR creates an ATR over the given period.
func NewATR(period int) *ATR {
	return &ATR{period: period, alpha: 1.0 / float64(period)}
}

// TrueRange = max(high-low, |high-prevClose|, |low-prevClose|).
func TrueRange(bar model.OHLCV, prevClose float64) float64 {
	hl := bar.High - bar.Low
	hc := math.Abs(bar.High - prevClose)
	lc := math.Abs(bar.Low - prevClose)
	return math.Max(hl, math.Max(hc, lc))
}

func (a *ATR) next(bar model.OHLCV) float64 {
	if a.count == 0 {
		return math.Abs(bar.High - bar.Low)
	}
	tr := TrueRange(bar, a.prevClose)
	return a.value + a.alpha*(tr-a.value)
}

// Update commits a new bar.
func (a *ATR) Update(bar model.OHLCV) {
	a.value = a.next(bar)
	a.prevClose = bar.Close
	a.count++
}

// Peek returns what Value would be after Update(bar), without mutating state.
func (a *ATR) Peek(bar model.OHLCV) float64 { return a.next(bar) }

func (a *ATR) Value() float64 { return a.value }

// Reset clears the ATR state for reuse.
func (a *ATR) Reset() {
	a.count = 0
	a.prevClose = 0
	a.value = 0
}

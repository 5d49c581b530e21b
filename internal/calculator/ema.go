package calculator

import "errors"

// ErrInsufficientData is returned when a series is shorter than the longest
// configured indicator lookback.
var ErrInsufficientData = errors.New("not enough data for indicator calculation")

// EMA is an exponential moving average with smoothing factor 2/(period+1),
// seeded by the first value it sees.
// Update is O(1); no window is stored.
type EMA struct {
	period int
	alpha  float64
	value  float64
	count  int
}

// NewEMA creates an EMA over the given period.
func NewEMA(period int) *EMA {
	return &EMA{
		period: period,
		alpha:  2.0 / float64(period+1),
	}
}

func (e *EMA) next(x float64) float64 {
	if e.count == 0 {
		return x
	}
	return e.value + e.alpha*(x-e.value)
}

// Update commits a new value.
func (e *EMA) Update(x float64) {
	e.value = e.next(x)
	e.count++
}

// Peek returns what Value would be after Update(x), without mutating state.
func (e *EMA) Peek(x float64) float64 { return e.next(x) }

func (e *EMA) Value() float64 { return e.value }
func (e *EMA) Count() int     { return e.count }

// Reset clears the EMA state for reuse.
func (e *EMA) Reset() {
	e.value = 0
	e.count = 0
}

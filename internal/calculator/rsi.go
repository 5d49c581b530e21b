package calculator

// rsiEpsilon keeps the relative strength finite when there are no losses.
// A flat series therefore yields RSI 0 rather than 50.
const rsiEpsilon = 1e-9

// RSI smooths gains and losses of successive closes with factor 1/period,
// seeded by the first delta.
type RSI struct {
	period    int
	alpha     float64
	count     int
	prevClose float64
	avgGain   float64
	avgLoss   float64
}

// NewRSI creates an RSI over the given period (typically 14).
func NewRSI(period int) *RSI {
	return &RSI{period: period, alpha: 1.0 / float64(period)}
}

func (r *RSI) smooth(close float64) (avgGain, avgLoss float64) {
	delta := close - r.prevClose
	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}
	if r.count == 1 {
		return gain, loss
	}
	return r.avgGain + r.alpha*(gain-r.avgGain), r.avgLoss + r.alpha*(loss-r.avgLoss)
}

// Update commits a new close.
func (r *RSI) Update(close float64) {
	if r.count > 0 {
		r.avgGain, r.avgLoss = r.smooth(close)
	}
	r.prevClose = close
	r.count++
}

// Value returns the RSI after the last committed close, 0 before the first delta.
func (r *RSI) Value() float64 {
	if r.count < 2 {
		return 0
	}
	return relativeStrengthIndex(r.avgGain, r.avgLoss)
}

// Peek returns what Value would be after Update(close), without mutating state.
func (r *RSI) Peek(close float64) float64 {
	if r.count == 0 {
		return 0
	}
	g, l := r.smooth(close)
	return relativeStrengthIndex(g, l)
}

// Reset clears the RSI state for reuse.
func (r *RSI) Reset() {
	r.count = 0
	r.prevClose = 0
	r.avgGain = 0
	r.avgLoss = 0
}

func relativeStrengthIndex(avgGain, avgLoss float64) float64 {
	rs := avgGain / (avgLoss + rsiEpsilon)
	return 100.0 - 100.0/(1.0+rs)
}

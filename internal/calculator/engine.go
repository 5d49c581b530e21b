package calculator

import (
	"fmt"
	"sync"
	"time"

	"github.com/almadodi738-lang/tv2tg-alerts/internal/model"
)

// Periods configures the indicator lookbacks.
type Periods struct {
	EMAFast  int `yaml:"ema_fast"`
	EMASlow  int `yaml:"ema_slow"`
	EMATrend int `yaml:"ema_trend"`
	RSI      int `yaml:"rsi"`
	ATR      int `yaml:"atr"`
}

// DefaultPeriods returns EMA 21/50/200, RSI 14 and ATR 14.
func DefaultPeriods() Periods {
	return Periods{EMAFast: 21, EMASlow: 50, EMATrend: 200, RSI: 14, ATR: 14}
}

// Required returns the minimum number of bars every indicator needs.
func (p Periods) Required() int {
	n := p.EMATrend
	for _, v := range []int{p.EMAFast, p.EMASlow, p.RSI + 1, p.ATR + 1} {
		if v > n {
			n = v
		}
	}
	return n
}

// Engine keeps the running indicator state for one symbol.
//
// Every bar except the last of a series is committed; the last bar may still
// be forming, so it is only peeked. State is anchored to the first bar of the
// series: the engine resumes only when a new series starts at the same bar and
// still contains the last committed one, and rebuilds from the new first bar
// otherwise. A snapshot therefore always equals a recompute over the series
// it was given.
type Engine struct {
	mu      sync.Mutex
	periods Periods

	fast  *EMA
	slow  *EMA
	trend *EMA
	rsi   *RSI
	atr   *ATR

	committed int
	origin    time.Time
	lastTime  time.Time
}

// NewEngine creates an Engine with the given periods.
func NewEngine(p Periods) *Engine {
	return &Engine{
		periods: p,
		fast:    NewEMA(p.EMAFast),
		slow:    NewEMA(p.EMASlow),
		trend:   NewEMA(p.EMATrend),
		rsi:     NewRSI(p.RSI),
		atr:     NewATR(p.ATR),
	}
}

func (e *Engine) reset() {
	e.fast.Reset()
	e.slow.Reset()
	e.trend.Reset()
	e.rsi.Reset()
	e.atr.Reset()
	e.committed = 0
	e.origin = time.Time{}
	e.lastTime = time.Time{}
}

func (e *Engine) commit(bar model.OHLCV) {
	if e.committed == 0 {
		e.origin = bar.Time
	}
	e.fast.Update(bar.Close)
	e.slow.Update(bar.Close)
	e.trend.Update(bar.Close)
	e.rsi.Update(bar.Close)
	e.atr.Update(bar)
	e.committed++
	e.lastTime = bar.Time
}

// resumeIndex returns the index of the first uncommitted bar in bars,
// or -1 when the series does not continue the committed history from the
// same first bar.
func (e *Engine) resumeIndex(bars []model.OHLCV) int {
	if e.committed == 0 {
		return 0
	}
	if !bars[0].Time.Equal(e.origin) {
		return -1
	}
	for i := len(bars) - 2; i >= 0; i-- {
		t := bars[i].Time
		if t.Equal(e.lastTime) {
			return i + 1
		}
		if t.Before(e.lastTime) {
			break
		}
	}
	return -1
}

// Snapshot returns the indicator values for the final bar of bars.
// The series must be ascending by time and hold at least Periods.Required bars.
func (e *Engine) Snapshot(bars []model.OHLCV) (model.IndicatorSnapshot, error) {
	if need := e.periods.Required(); len(bars) < need {
		return model.IndicatorSnapshot{}, fmt.Errorf("have %d bars, need %d: %w", len(bars), need, ErrInsufficientData)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	start := e.resumeIndex(bars)
	if start < 0 {
		e.reset()
		start = 0
	}
	for i := start; i < len(bars)-1; i++ {
		e.commit(bars[i])
	}

	last := bars[len(bars)-1]
	return model.IndicatorSnapshot{
		EMAFast:  e.fast.Peek(last.Close),
		EMASlow:  e.slow.Peek(last.Close),
		EMATrend: e.trend.Peek(last.Close),
		RSI:      e.rsi.Peek(last.Close),
		ATR:      e.atr.Peek(last),
		Bars:     e.committed + 1,
	}, nil
}

package strategy

import (
	"errors"
	"fmt"

	"github.com/almadodi738-lang/tv2tg-alerts/internal/calculator"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/model"
)

// Params tunes the signal rules.
type Params struct {
	Periods     calculator.Periods `yaml:"periods"`
	SRWindow    int                `yaml:"sr_window"`     // bars scanned for support/resistance
	BullRSI     float64            `yaml:"bull_rsi"`      // bias is bull above this
	BearRSI     float64            `yaml:"bear_rsi"`      // bias is bear below this
	SetupRSI    float64            `yaml:"setup_rsi"`     // buy needs rsi >= this, sell rsi <= this
	ATRStopMult float64            `yaml:"atr_stop_mult"` // stop distance in ATRs
	MinStopPct  float64            `yaml:"min_stop_pct"`  // stop distance floor as a fraction of price
}

// DefaultParams returns the standard rule set.
func DefaultParams() Params {
	return Params{
		Periods:     calculator.DefaultPeriods(),
		SRWindow:    60,
		BullRSI:     52,
		BearRSI:     48,
		SetupRSI:    50,
		ATRStopMult: 0.8,
		MinStopPct:  0.0005,
	}
}

// Sizing carries the account and instrument inputs for position sizing.
type Sizing struct {
	AccountBalance float64
	RiskPercent    float64
	MinUnit        float64
}

// RiskUSD is the amount risked per trade.
func (s Sizing) RiskUSD() float64 {
	return s.AccountBalance * (s.RiskPercent / 100)
}

// Evaluate derives bias, setup and trade levels for the final bar of bars
// from its indicator snapshot.
func Evaluate(symbol string, snap model.IndicatorSnapshot, bars []model.OHLCV, p Params, sz Sizing) (*model.Signal, error) {
	if len(bars) == 0 {
		return nil, errors.New("no bars to evaluate")
	}
	last := bars[len(bars)-1]

	support, resistance, err := calculator.TrailingRange(bars, p.SRWindow)
	if err != nil {
		return nil, fmt.Errorf("support/resistance: %w", err)
	}

	sig := &model.Signal{
		Symbol:     symbol,
		Bias:       classifyBias(snap, p),
		Setup:      model.SetupNone,
		Support:    support,
		Resistance: resistance,
		Close:      last.Close,
		Indicators: snap,
	}

	setup := decideSetup(sig.Bias, last.Close, snap, p)
	if setup == model.SetupNone {
		return sig, nil
	}

	d := StopDistance(snap.ATR, last.Close, p)
	sig.Setup = setup
	sig.Entry = last.Close
	sig.StopDistance = d
	sig.RiskUSD = sz.RiskUSD()
	sig.PositionSize = PositionSize(sig.RiskUSD, d, sz.MinUnit)
	sig.Invalidation = snap.EMATrend
	if setup == model.SetupBuy {
		sig.StopLoss = sig.Entry - d
		sig.TakeProfit1 = sig.Entry + d
		sig.TakeProfit2 = sig.Entry + 2*d
	} else {
		sig.StopLoss = sig.Entry + d
		sig.TakeProfit1 = sig.Entry - d
		sig.TakeProfit2 = sig.Entry - 2*d
	}
	return sig, nil
}

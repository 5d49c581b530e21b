package strategy

import (
	"math"

	"github.com/almadodi738-lang/tv2tg-alerts/internal/model"
)

func classifyBias(snap model.IndicatorSnapshot, p Params) model.Bias {
	switch {
	case snap.EMAFast > snap.EMASlow && snap.RSI > p.BullRSI:
		return model.BiasBull
	case snap.EMAFast < snap.EMASlow && snap.RSI < p.BearRSI:
		return model.BiasBear
	default:
		return model.BiasNeutral
	}
}

// decideSetup only confirms a direction the bias already points to,
// so a neutral bias never produces a setup.
func decideSetup(bias model.Bias, close float64, snap model.IndicatorSnapshot, p Params) model.Setup {
	switch {
	case bias == model.BiasBull && close > snap.EMAFast && snap.RSI >= p.SetupRSI:
		return model.SetupBuy
	case bias == model.BiasBear && close < snap.EMAFast && snap.RSI <= p.SetupRSI:
		return model.SetupSell
	default:
		return model.SetupNone
	}
}

// StopDistance = max(atr*ATRStopMult, close*MinStopPct).
func StopDistance(atr, close float64, p Params) float64 {
	return math.Max(atr*p.ATRStopMult, close*p.MinStopPct)
}

// PositionSize = max(riskUSD/stopDistance, minUnit). A non-positive stop
// distance falls back to minUnit.
func PositionSize(riskUSD, stopDistance, minUnit float64) float64 {
	if stopDistance <= 0 {
		return minUnit
	}
	return math.Max(riskUSD/stopDistance, minUnit)
}

package model

// Bias is the directional lean derived from trend and momentum.
type Bias string

const (
	BiasBull    Bias = "bull"
	BiasBear    Bias = "bear"
	BiasNeutral Bias = "neutral"
)

// Setup is the actionable trade direction, if any.
type Setup string

const (
	SetupBuy  Setup = "buy"
	SetupSell Setup = "sell"
	SetupNone Setup = "none"
)

// Signal is the output of the strategy engine for one symbol.
// When Setup is SetupNone every trade-level field is zero.
type Signal struct {
	Symbol     string  `json:"symbol"`
	Bias       Bias    `json:"bias"`
	Setup      Setup   `json:"setup"`
	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`

	Entry        float64 `json:"entry"`
	StopLoss     float64 `json:"stop_loss"`
	TakeProfit1  float64 `json:"take_profit_1"`
	TakeProfit2  float64 `json:"take_profit_2"`
	Invalidation float64 `json:"invalidation_level"`
	StopDistance float64 `json:"stop_distance"`
	RiskUSD      float64 `json:"risk_usd"`
	PositionSize float64 `json:"position_size"`

	Close      float64           `json:"close"`
	Indicators IndicatorSnapshot `json:"indicators"`
}

// Actionable reports whether the signal carries a trade plan.
func (s *Signal) Actionable() bool {
	return s != nil && s.Setup != SetupNone && s.Setup != ""
}

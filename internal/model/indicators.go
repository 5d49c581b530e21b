package model

// IndicatorSnapshot holds the indicator values for the final bar of a series.
type IndicatorSnapshot struct {
	EMAFast  float64 `json:"ema_fast"`
	EMASlow  float64 `json:"ema_slow"`
	EMATrend float64 `json:"ema_trend"`
	RSI      float64 `json:"rsi"`
	ATR      float64 `json:"atr"`
	Bars     int     `json:"bars"` // bars the snapshot was computed over
}

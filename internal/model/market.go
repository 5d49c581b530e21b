package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Range returns the high-low span of the bar.
func (b OHLCV) Range() float64 {
	return b.High - b.Low
}

// Instrument binds a display symbol to the identifier the data source expects.
type Instrument struct {
	Symbol  string  `yaml:"symbol" json:"symbol"`
	FetchID string  `yaml:"fetch_id" json:"fetch_id"`
	MinUnit float64 `yaml:"min_unit" json:"min_unit"` // smallest tradable position size
}

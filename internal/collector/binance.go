package collector

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"

	"github.com/almadodi738-lang/tv2tg-alerts/internal/model"
)

// binanceMaxLimit is the largest page the klines endpoint serves.
const binanceMaxLimit = 1000

// BinanceFetcher implements Fetcher with Binance spot klines. fetchID is the
// exchange symbol, e.g. BTCUSDT.
type BinanceFetcher struct {
	client *binance.Client
}

// NewBinanceFetcher creates a fetcher; public market data needs no keys.
func NewBinanceFetcher(apiKey, secretKey string) *BinanceFetcher {
	return &BinanceFetcher{client: binance.NewClient(apiKey, secretKey)}
}

func (f *BinanceFetcher) Name() string { return "binance" }

func (f *BinanceFetcher) FetchBars(ctx context.Context, fetchID, interval string, lookback int) ([]model.OHLCV, error) {
	limit := lookback
	if limit <= 0 || limit > binanceMaxLimit {
		limit = binanceMaxLimit
	}
	klines, err := f.client.NewKlinesService().
		Symbol(fetchID).
		Interval(binanceInterval(interval)).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance klines %s: %w", fetchID, err)
	}

	bars := make([]model.OHLCV, 0, len(klines))
	for _, k := range klines {
		bar, err := translateKline(k)
		if err != nil {
			return nil, fmt.Errorf("binance kline %s: %w", fetchID, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// binanceInterval maps Yahoo-style names onto Binance ones.
func binanceInterval(interval string) string {
	switch interval {
	case "60m":
		return "1h"
	case "1wk":
		return "1w"
	case "1mo":
		return "1M"
	default:
		return interval
	}
}

func translateKline(k *binance.Kline) (model.OHLCV, error) {
	if k == nil {
		return model.OHLCV{}, errors.New("nil kline")
	}
	var (
		vals [5]float64
		err  error
	)
	for i, s := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		if vals[i], err = strconv.ParseFloat(s, 64); err != nil {
			return model.OHLCV{}, fmt.Errorf("parsing %q: %w", s, err)
		}
	}
	return model.OHLCV{
		Time:   time.UnixMilli(k.OpenTime).UTC(),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

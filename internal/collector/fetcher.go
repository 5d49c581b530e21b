package collector

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/almadodi738-lang/tv2tg-alerts/internal/model"
)

var (
	// ErrNoData means the source answered but had no bars for the symbol.
	ErrNoData = errors.New("no price data available")
	// ErrFetchFailed wraps transport, decode and timeout failures.
	ErrFetchFailed = errors.New("fetch failed")
)

// Fetcher defines the interface for fetching market data.
// Bars are returned in ascending time order; an empty result is not an error.
type Fetcher interface {
	FetchBars(ctx context.Context, fetchID, interval string, lookback int) ([]model.OHLCV, error)
	Name() string
}

func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

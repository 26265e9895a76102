package collector

import (
	"context"
	"errors"
	"time"

	"StockForecaster/internal/model"
)

// ErrNoData is returned when the provider knows nothing about a symbol
// or has no bars in the requested range.
var ErrNoData = errors.New("no data returned")

// Fetcher defines the interface for fetching daily market data.
type Fetcher interface {
	// FetchDailyRange returns daily bars in [start, end), oldest first.
	FetchDailyRange(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error)
	Name() string
}

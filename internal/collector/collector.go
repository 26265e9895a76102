package collector

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"StockForecaster/internal/model"
)

// Collector fetches the trailing daily history for a ticker.
type Collector struct {
	Fetcher       Fetcher
	LookbackYears int
	Now           func() time.Time
	Logger        *zap.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, lookbackYears int, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		Fetcher:       fetcher,
		LookbackYears: lookbackYears,
		Now:           time.Now,
		Logger:        logger,
	}
}

// Collect fetches the last LookbackYears of daily bars ending now.
func (c *Collector) Collect(ctx context.Context, symbol string) (*model.PriceSeries, error) {
	end := c.Now()
	start := end.AddDate(-c.LookbackYears, 0, 0)

	bars, err := c.Fetcher.FetchDailyRange(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch daily bars: %w", err)
	}
	c.Logger.Debug("daily bars fetched",
		zap.String("ticker", symbol),
		zap.String("source", c.Fetcher.Name()),
		zap.Int("bars", len(bars)),
	)

	return &model.PriceSeries{
		Symbol:    symbol,
		Source:    c.Fetcher.Name(),
		Start:     start,
		End:       end,
		DailyBars: bars,
		FetchedAt: time.Now(),
	}, nil
}

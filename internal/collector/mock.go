package collector

import (
	"context"
	"time"

	"StockForecaster/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price     float64
	Bars      int // number of generated bars when DailyData is nil
	DailyData []model.OHLCV
	Err       error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyRange(_ context.Context, _ string, _, end time.Time) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.DailyData != nil {
		return m.DailyData, nil
	}
	return generateMockBars(m.Price, m.Bars, end), nil
}

// generateMockBars builds a gently oscillating uptrend ending the day before end.
func generateMockBars(basePrice float64, count int, end time.Time) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	step := 0.5 / float64(count+1) // trend spans +-25% of basePrice
	for i := 0; i < count; i++ {
		wave := float64(i%40-20) * 0.002
		p := basePrice * (1 + float64(i-count/2)*step + wave)
		bars[i] = model.OHLCV{
			Time:   end.AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

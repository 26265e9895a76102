package model

import "time"

// OHLCV represents a single daily candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds the raw daily history for one ticker, oldest bar first.
type PriceSeries struct {
	Symbol    string
	Source    string
	Start     time.Time
	End       time.Time
	DailyBars []OHLCV
	FetchedAt time.Time
}

// Closes returns the closing prices in chronological order.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.DailyBars))
	for i, b := range s.DailyBars {
		closes[i] = b.Close
	}
	return closes
}

// Len returns the number of daily records.
func (s *PriceSeries) Len() int { return len(s.DailyBars) }

package calculator

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
)

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	return stat.Mean(prices[len(prices)-period:], nil), nil
}

// RollingSMA returns the trailing simple moving average at every position.
// out[i] is the mean of prices[i-period+1 : i+1]; positions before period-1
// are undefined and set to NaN.
func RollingSMA(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	out := make([]float64, len(prices))
	for i := range prices {
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		sma, err := CalculateSMA(prices[:i+1], period)
		if err != nil {
			return nil, err
		}
		out[i] = sma
	}
	return out, nil
}

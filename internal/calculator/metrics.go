package calculator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"StockForecaster/internal/model"
)

// MeanSquaredError returns mean((actual-predicted)^2).
func MeanSquaredError(actual, predicted []float64) (float64, error) {
	if err := checkPairs(actual, predicted); err != nil {
		return 0, err
	}
	var sum float64
	for i := range actual {
		d := actual[i] - predicted[i]
		sum += d * d
	}
	return sum / float64(len(actual)), nil
}

// RSquared returns the coefficient of determination of predicted against actual.
// For constant actual values it returns 1 on a perfect fit and 0 otherwise.
func RSquared(actual, predicted []float64) (float64, error) {
	if err := checkPairs(actual, predicted); err != nil {
		return 0, err
	}
	mean := stat.Mean(actual, nil)
	var ssTot, ssRes float64
	for i := range actual {
		d := actual[i] - mean
		ssTot += d * d
		r := actual[i] - predicted[i]
		ssRes += r * r
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return stat.RSquaredFrom(predicted, actual, nil), nil
}

// Evaluate computes MSE, RMSE and R² in one go.
func Evaluate(actual, predicted []float64) (model.Metrics, error) {
	mse, err := MeanSquaredError(actual, predicted)
	if err != nil {
		return model.Metrics{}, err
	}
	r2, err := RSquared(actual, predicted)
	if err != nil {
		return model.Metrics{}, err
	}
	return model.Metrics{MSE: mse, RMSE: math.Sqrt(mse), R2: r2}, nil
}

func checkPairs(actual, predicted []float64) error {
	if len(actual) == 0 {
		return fmt.Errorf("metrics: no samples")
	}
	if len(actual) != len(predicted) {
		return fmt.Errorf("metrics: length mismatch %d vs %d", len(actual), len(predicted))
	}
	return nil
}

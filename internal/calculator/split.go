package calculator

import (
	"fmt"
	"math"
)

// SplitTrainTest partitions values at floor(ratio*len) into a training prefix
// and a testing suffix. Both slices alias values. The product is nudged by a
// tiny epsilon so 2600*0.7 cuts at 1820, not 1819.
func SplitTrainTest(values []float64, ratio float64) (train, test []float64, err error) {
	if ratio <= 0 || ratio >= 1 {
		return nil, nil, fmt.Errorf("split ratio %.2f out of (0,1)", ratio)
	}
	cut := int(math.Floor(float64(len(values))*ratio + 1e-9))
	return values[:cut], values[cut:], nil
}

// WithLookback returns the last lookback training values followed by all
// testing values, in a fresh slice. If train is shorter than lookback, all of
// it is used.
func WithLookback(train, test []float64, lookback int) []float64 {
	if lookback > len(train) {
		lookback = len(train)
	}
	if lookback < 0 {
		lookback = 0
	}
	out := make([]float64, 0, lookback+len(test))
	out = append(out, train[len(train)-lookback:]...)
	return append(out, test...)
}

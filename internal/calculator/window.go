package calculator

import "fmt"

// SlidingWindows builds one labelled sample per position i >= size:
// input = values[i-size:i], target = values[i]. Inputs alias values.
func SlidingWindows(values []float64, size int) (inputs [][]float64, targets []float64, err error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("window size must be positive, got %d", size)
	}
	if len(values) <= size {
		return nil, nil, fmt.Errorf("need more than %d values for windowing, got %d", size, len(values))
	}
	n := len(values) - size
	inputs = make([][]float64, 0, n)
	targets = make([]float64, 0, n)
	for i := size; i < len(values); i++ {
		inputs = append(inputs, values[i-size:i:i])
		targets = append(targets, values[i])
	}
	return inputs, targets, nil
}

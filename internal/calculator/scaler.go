package calculator

import (
	"errors"

	"gonum.org/v1/gonum/floats"
)

// MinMaxScaler maps values linearly from the fitted [Min, Max] onto [Low, High].
// A zero-width fitted range is treated as width 1, so constant input maps to Low.
type MinMaxScaler struct {
	Low, High float64
	Min, Max  float64
	fitted    bool
}

// NewMinMaxScaler returns an unfitted scaler with output range [0,1].
func NewMinMaxScaler() *MinMaxScaler {
	return &MinMaxScaler{Low: 0, High: 1}
}

// Fit records the min and max of values.
func (s *MinMaxScaler) Fit(values []float64) error {
	if len(values) == 0 {
		return errors.New("scaler: cannot fit empty data")
	}
	if s.High <= s.Low {
		return errors.New("scaler: output range must be increasing")
	}
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	s.fitted = true
	return nil
}

// Fitted reports whether Fit has succeeded.
func (s *MinMaxScaler) Fitted() bool { return s.fitted }

func (s *MinMaxScaler) scale() float64 {
	width := s.Max - s.Min
	if width == 0 {
		width = 1
	}
	return (s.High - s.Low) / width
}

// Transform maps values into the output range.
func (s *MinMaxScaler) Transform(values []float64) ([]float64, error) {
	if !s.fitted {
		return nil, errors.New("scaler: not fitted")
	}
	k := s.scale()
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v-s.Min)*k + s.Low
	}
	return out, nil
}

// FitTransform fits on values and transforms them.
func (s *MinMaxScaler) FitTransform(values []float64) ([]float64, error) {
	if err := s.Fit(values); err != nil {
		return nil, err
	}
	return s.Transform(values)
}

// InverseTransform maps scaled values back to the fitted units.
func (s *MinMaxScaler) InverseTransform(values []float64) ([]float64, error) {
	if !s.fitted {
		return nil, errors.New("scaler: not fitted")
	}
	k := s.scale()
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v-s.Low)/k + s.Min
	}
	return out, nil
}

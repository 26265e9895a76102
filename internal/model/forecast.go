package model

import "time"

// ChartSet holds the public URLs of the four rendered charts.
type ChartSet struct {
	Closing    string
	DMA100     string
	DMA200     string
	Prediction string
}

// Metrics are the regression scores of a prediction run.
type Metrics struct {
	MSE  float64
	RMSE float64
	R2   float64
}

// PredictionResult pairs true and predicted prices (original units) by index.
type PredictionResult struct {
	Actual    []float64
	Predicted []float64
	Metrics   Metrics
}

// ForecastResult is the output of one pipeline run.
type ForecastResult struct {
	RunID      string
	Ticker     string
	Records    int // daily records fetched
	TrainSize  int
	TestSize   int
	Samples    int // windowed samples fed to the model
	Charts     ChartSet
	Prediction PredictionResult
	Duration   time.Duration
}

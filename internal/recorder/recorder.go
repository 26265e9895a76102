package recorder

import "time"

// Run statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ForecastRun is one prediction request, successful or not.
type ForecastRun struct {
	RunID     string
	Timestamp time.Time // zero means now
	Ticker    string
	Records   int
	Samples   int
	MSE       float64
	RMSE      float64
	R2        float64
	Status    string // StatusSuccess or StatusError
	ErrorKind string
	ErrorMsg  string
	Duration  time.Duration
}

// Recorder persists forecast history for later analysis.
type Recorder interface {
	RecordRun(run *ForecastRun) error
	Close() error
}

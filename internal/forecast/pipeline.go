package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"StockForecaster/internal/calculator"
	"StockForecaster/internal/collector"
	"StockForecaster/internal/lstm"
	"StockForecaster/internal/model"
	"StockForecaster/internal/recorder"
)

// Pipeline parameters.
const (
	MinRecords = 200 // longest moving average
	WindowSize = 100 // model input timesteps
	TrainRatio = 0.7
	ShortMA    = 100
	LongMA     = 200
)

// Collector fetches the price history of a ticker.
type Collector interface {
	Collect(ctx context.Context, symbol string) (*model.PriceSeries, error)
}

// ChartRenderer draws the four charts and returns their public URLs.
type ChartRenderer interface {
	Closing(ticker string, closes []float64) (string, error)
	MovingAverage100(ticker string, closes, ma100 []float64) (string, error)
	MovingAverage200(ticker string, closes, ma100, ma200 []float64) (string, error)
	Prediction(ticker string, actual, predicted []float64) (string, error)
}

// ModelSource hands out the process-wide pretrained model.
type ModelSource interface {
	Model() (lstm.Predictor, error)
}

// Pipeline turns a ticker into charts and prediction metrics.
type Pipeline struct {
	collector Collector
	charts    ChartRenderer
	models    ModelSource
	recorder  recorder.Recorder
	logger    *zap.Logger
}

// NewPipeline wires a Pipeline. rec and logger may be nil.
func NewPipeline(col Collector, charts ChartRenderer, models ModelSource, rec recorder.Recorder, logger *zap.Logger) *Pipeline {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		collector: col,
		charts:    charts,
		models:    models,
		recorder:  rec,
		logger:    logger,
	}
}

// Run executes the whole pipeline for one ticker. Any failure aborts the run
// and is returned as an *Error.
func (p *Pipeline) Run(ctx context.Context, ticker string) (*model.ForecastResult, error) {
	started := time.Now()
	runID := uuid.NewString()
	log := p.logger.With(zap.String("run_id", runID), zap.String("ticker", ticker))

	res, err := p.run(ctx, ticker, log)
	elapsed := time.Since(started)
	p.record(runID, ticker, res, err, elapsed)

	if err != nil {
		kind := KindOf(err)
		fields := []zap.Field{zap.String("kind", kind.String()), zap.Duration("elapsed", elapsed), zap.Error(err)}
		if kind == KindPipeline || kind == KindModelNotFound {
			log.Error("forecast failed", fields...)
		} else {
			log.Info("forecast rejected", fields...)
		}
		return nil, err
	}

	res.RunID = runID
	res.Duration = elapsed
	log.Info("forecast complete",
		zap.Int("records", res.Records),
		zap.Int("samples", res.Samples),
		zap.Float64("rmse", res.Prediction.Metrics.RMSE),
		zap.Float64("r2", res.Prediction.Metrics.R2),
		zap.Duration("elapsed", elapsed),
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, raw string, log *zap.Logger) (*model.ForecastResult, error) {
	ticker, err := NormalizeTicker(raw)
	if err != nil {
		return nil, err
	}

	// Fetch
	series, err := p.collector.Collect(ctx, ticker)
	if err != nil {
		if errors.Is(err, collector.ErrNoData) {
			return nil, insufficientData(err)
		}
		return nil, pipelineError("fetch", err)
	}
	if series.Len() < MinRecords {
		return nil, insufficientData(fmt.Errorf("%d records, need %d", series.Len(), MinRecords))
	}
	closes := series.Closes()
	log.Debug("history fetched", zap.Int("records", len(closes)), zap.String("source", series.Source))

	// Descriptive charts
	charts, err := p.describe(ticker, closes)
	if err != nil {
		return nil, err
	}

	// Split, scale, window
	train, test, err := calculator.SplitTrainTest(closes, TrainRatio)
	if err != nil {
		return nil, pipelineError("split", err)
	}
	input := calculator.WithLookback(train, test, WindowSize)
	scaler := calculator.NewMinMaxScaler()
	scaled, err := scaler.FitTransform(input)
	if err != nil {
		return nil, pipelineError("scale", err)
	}
	windows, targets, err := calculator.SlidingWindows(scaled, WindowSize)
	if err != nil {
		return nil, pipelineError("window", err)
	}

	// Inference
	predictor, err := p.models.Model()
	if err != nil {
		if errors.Is(err, lstm.ErrModelNotFound) {
			return nil, modelNotFound(err)
		}
		return nil, pipelineError("load model", err)
	}
	predScaled, err := predictor.Predict(windows)
	if err != nil {
		return nil, pipelineError("predict", err)
	}
	if len(predScaled) != len(windows) {
		return nil, pipelineError("predict", fmt.Errorf("model returned %d values for %d windows", len(predScaled), len(windows)))
	}
	for i, v := range predScaled {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, pipelineError("predict", fmt.Errorf("non-finite prediction at sample %d", i))
		}
	}

	// Inverse-scale with the same fitted scaler
	predicted, err := scaler.InverseTransform(predScaled)
	if err != nil {
		return nil, pipelineError("inverse scale", err)
	}
	actual, err := scaler.InverseTransform(targets)
	if err != nil {
		return nil, pipelineError("inverse scale", err)
	}

	charts.Prediction, err = p.charts.Prediction(ticker, actual, predicted)
	if err != nil {
		return nil, pipelineError("render prediction chart", err)
	}

	metrics, err := calculator.Evaluate(actual, predicted)
	if err != nil {
		return nil, pipelineError("metrics", err)
	}

	return &model.ForecastResult{
		Ticker:    ticker,
		Records:   len(closes),
		TrainSize: len(train),
		TestSize:  len(test),
		Samples:   len(windows),
		Charts:    charts,
		Prediction: model.PredictionResult{
			Actual:    actual,
			Predicted: predicted,
			Metrics:   metrics,
		},
	}, nil
}

// describe renders the closing price and moving-average charts.
func (p *Pipeline) describe(ticker string, closes []float64) (model.ChartSet, error) {
	var set model.ChartSet

	ma100, err := calculator.RollingSMA(closes, ShortMA)
	if err != nil {
		return set, pipelineError("moving average", err)
	}
	ma200, err := calculator.RollingSMA(closes, LongMA)
	if err != nil {
		return set, pipelineError("moving average", err)
	}

	if set.Closing, err = p.charts.Closing(ticker, closes); err != nil {
		return set, pipelineError("render closing chart", err)
	}
	if set.DMA100, err = p.charts.MovingAverage100(ticker, closes, ma100); err != nil {
		return set, pipelineError("render 100 DMA chart", err)
	}
	if set.DMA200, err = p.charts.MovingAverage200(ticker, closes, ma100, ma200); err != nil {
		return set, pipelineError("render 200 DMA chart", err)
	}
	return set, nil
}

func (p *Pipeline) record(runID, ticker string, res *model.ForecastResult, runErr error, elapsed time.Duration) {
	run := &recorder.ForecastRun{
		RunID:    runID,
		Ticker:   ticker,
		Status:   recorder.StatusSuccess,
		Duration: elapsed,
	}
	if runErr != nil {
		run.Status = recorder.StatusError
		run.ErrorKind = KindOf(runErr).String()
		run.ErrorMsg = runErr.Error()
	}
	if res != nil {
		run.Records = res.Records
		run.Samples = res.Samples
		run.MSE = res.Prediction.Metrics.MSE
		run.RMSE = res.Prediction.Metrics.RMSE
		run.R2 = res.Prediction.Metrics.R2
	}
	if err := p.recorder.RecordRun(run); err != nil {
		p.logger.Warn("record forecast run failed", zap.String("run_id", runID), zap.Error(err))
	}
}

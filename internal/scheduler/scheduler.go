package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"StockForecaster/internal/notifier"
	"StockForecaster/internal/recorder"
)

// Sweeper removes media files last written before cutoff.
type Sweeper interface {
	Sweep(cutoff time.Time) (int, error)
}

// ModelChecker reports whether the forecasting model can be served.
type ModelChecker interface {
	Ready() error
}

// RunLister reads recorded forecast runs.
type RunLister interface {
	RunsSince(since time.Time) ([]recorder.ForecastRun, error)
	RecentRuns(limit int) ([]recorder.ForecastRun, error)
}

// recentLimit is the number of runs listed by /recent.
const recentLimit = 10

// Sender delivers a digest message.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages the background maintenance tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Media     Sweeper
	Retention time.Duration
	Models    ModelChecker
	ModelPath string
	Logger    *zap.Logger

	// Digest, set by EnableDigest.
	Ctx      context.Context
	Runs     RunLister
	Notifier Sender

	now func() time.Time
}

// NewScheduler creates a new Scheduler. A retention of zero disables the media sweep.
func NewScheduler(media Sweeper, retention time.Duration, models ModelChecker, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Media:     media,
		Retention: retention,
		Models:    models,
		Logger:    logger,
		now:       time.Now,
	}
}

// RegisterAll registers the media sweep and the hourly model probe.
func (s *Scheduler) RegisterAll(sweepCron string) error {
	if s.Retention > 0 && s.Media != nil {
		if _, err := s.Cron.AddFunc(sweepCron, s.sweepTask); err != nil {
			return fmt.Errorf("register sweep task: %w", err)
		}
	} else {
		s.Logger.Info("media sweep disabled")
	}
	if s.Models != nil {
		if _, err := s.Cron.AddFunc("0 0 * * * *", s.modelProbe); err != nil {
			return fmt.Errorf("register model probe: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started", zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

// RunSweepNow executes the media sweep immediately and returns the number of
// removed files.
func (s *Scheduler) RunSweepNow() (int, error) {
	if s.Retention <= 0 || s.Media == nil {
		return 0, nil
	}
	return s.Media.Sweep(s.now().Add(-s.Retention))
}

func (s *Scheduler) sweepTask() {
	n, err := s.RunSweepNow()
	if err != nil {
		s.Logger.Error("media sweep failed", zap.Error(err))
		return
	}
	s.Logger.Info("media sweep done", zap.Int("removed", n), zap.Duration("retention", s.Retention))
}

// EnableDigest registers the daily run digest sent through n.
func (s *Scheduler) EnableDigest(ctx context.Context, digestCron string, runs RunLister, n Sender) error {
	s.Ctx, s.Runs, s.Notifier = ctx, runs, n
	if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	return nil
}

// RunDigestNow builds the digest of the last 24 hours of runs.
func (s *Scheduler) RunDigestNow() (string, error) {
	if s.Runs == nil {
		return "", fmt.Errorf("run history is not recorded")
	}
	since := s.now().Add(-24 * time.Hour)
	runs, err := s.Runs.RunsSince(since)
	if err != nil {
		return "", fmt.Errorf("load runs: %w", err)
	}
	return notifier.FormatRunDigest(runs, since), nil
}

func (s *Scheduler) digestTask() {
	msg, err := s.RunDigestNow()
	if err != nil {
		s.Logger.Error("build digest", zap.Error(err))
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, msg, 3); err != nil {
		s.Logger.Error("send digest", zap.Error(err))
		return
	}
	s.Logger.Info("digest sent")
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/digest":
		msg, err := s.RunDigestNow()
		if err != nil {
			return "Digest unavailable: " + err.Error()
		}
		return msg
	case "/recent":
		if s.Runs == nil {
			return "Recent runs unavailable: run history is not recorded"
		}
		runs, err := s.Runs.RecentRuns(recentLimit)
		if err != nil {
			return "Recent runs unavailable: " + err.Error()
		}
		return notifier.FormatRecentRuns(runs)
	case "/status":
		var err error
		if s.Models != nil {
			err = s.Models.Ready()
		}
		return notifier.FormatStatus(s.ModelPath, err)
	default:
		return "Available commands:\n• /digest\n• /recent\n• /status"
	}
}

func (s *Scheduler) modelProbe() {
	if err := s.Models.Ready(); err != nil {
		s.Logger.Warn("model not ready", zap.Error(err))
	}
}

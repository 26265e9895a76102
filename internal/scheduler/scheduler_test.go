package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"StockForecaster/internal/recorder"
)

type fakeSweeper struct {
	cutoff time.Time
	calls  int
}

func (f *fakeSweeper) Sweep(cutoff time.Time) (int, error) {
	f.cutoff = cutoff
	f.calls++
	return 3, nil
}

type fakeModels struct{ err error }

func (f fakeModels) Ready() error { return f.err }

func TestRunSweepNow_UsesRetention(t *testing.T) {
	sw := &fakeSweeper{}
	s := NewScheduler(sw, 24*time.Hour, nil, nil)
	fixed := time.Date(2024, 5, 10, 3, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	n, err := s.RunSweepNow()
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 3 {
		t.Errorf("removed = %d, want 3", n)
	}
	if want := fixed.Add(-24 * time.Hour); !sw.cutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", sw.cutoff, want)
	}
}

func TestRunSweepNow_DisabledWithoutRetention(t *testing.T) {
	sw := &fakeSweeper{}
	s := NewScheduler(sw, 0, nil, nil)
	if n, err := s.RunSweepNow(); n != 0 || err != nil {
		t.Fatalf("got (%d, %v), want (0, nil)", n, err)
	}
	if sw.calls != 0 {
		t.Error("sweeper should not be called when retention is zero")
	}
}

func TestRegisterAll(t *testing.T) {
	tests := []struct {
		name      string
		retention time.Duration
		models    ModelChecker
		spec      string
		wantJobs  int
		wantErr   bool
	}{
		{"sweep and probe", time.Hour, fakeModels{}, "0 0 3 * * *", 2, false},
		{"probe only", 0, fakeModels{errors.New("missing")}, "0 0 3 * * *", 1, false},
		{"bad cron", time.Hour, nil, "not a cron", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(&fakeSweeper{}, tt.retention, tt.models, nil)
			err := s.RegisterAll(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got := len(s.Cron.Entries()); !tt.wantErr && got != tt.wantJobs {
				t.Errorf("jobs = %d, want %d", got, tt.wantJobs)
			}
		})
	}
}

type fakeRuns struct {
	since time.Time
	limit int
	runs  []recorder.ForecastRun
}

func (f *fakeRuns) RecentRuns(limit int) ([]recorder.ForecastRun, error) {
	f.limit = limit
	return f.runs, nil
}

func (f *fakeRuns) RunsSince(since time.Time) ([]recorder.ForecastRun, error) {
	f.since = since
	return f.runs, nil
}

type fakeSender struct{ texts []string }

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.texts = append(f.texts, text)
	return nil
}

func TestDigest(t *testing.T) {
	runs := &fakeRuns{runs: []recorder.ForecastRun{
		{Ticker: "AAPL", Status: recorder.StatusSuccess, RMSE: 1.5, R2: 0.9, Samples: 100},
	}}
	sender := &fakeSender{}
	s := NewScheduler(nil, 0, nil, nil)
	fixed := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	if err := s.EnableDigest(context.Background(), "0 0 18 * * *", runs, sender); err != nil {
		t.Fatalf("enable digest: %v", err)
	}
	if len(s.Cron.Entries()) != 1 {
		t.Errorf("jobs = %d, want 1", len(s.Cron.Entries()))
	}

	s.digestTask()
	if len(sender.texts) != 1 || !strings.Contains(sender.texts[0], "AAPL") {
		t.Fatalf("sent = %v", sender.texts)
	}
	if want := fixed.Add(-24 * time.Hour); !runs.since.Equal(want) {
		t.Errorf("since = %v, want %v", runs.since, want)
	}
}

func TestHandleCommand(t *testing.T) {
	s := NewScheduler(nil, 0, fakeModels{err: errors.New("model file not found")}, nil)
	s.ModelPath = "model.json"

	if got := s.HandleCommand("/status"); !strings.Contains(got, "not ready") {
		t.Errorf("/status = %q", got)
	}
	if got := s.HandleCommand("/digest"); !strings.Contains(got, "unavailable") {
		t.Errorf("/digest without history = %q", got)
	}
	if got := s.HandleCommand("/recent"); !strings.Contains(got, "unavailable") {
		t.Errorf("/recent without history = %q", got)
	}
	if got := s.HandleCommand("hello"); !strings.Contains(got, "/recent") {
		t.Errorf("help = %q", got)
	}

	runs := &fakeRuns{runs: []recorder.ForecastRun{
		{Ticker: "MSFT", Status: recorder.StatusSuccess, RMSE: 3, R2: 0.8},
	}}
	s.Runs = runs
	if got := s.HandleCommand("/recent"); !strings.Contains(got, "MSFT") {
		t.Errorf("/recent = %q", got)
	}
	if runs.limit != recentLimit {
		t.Errorf("limit = %d, want %d", runs.limit, recentLimit)
	}
}

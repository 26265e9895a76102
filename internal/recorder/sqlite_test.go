package recorder

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteRecorder_RecordAndRead(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rec.Close()

	base := time.Unix(1_700_000_000, 0)
	runs := []*ForecastRun{
		{RunID: "a", Timestamp: base, Ticker: "AAPL", Records: 2515, Samples: 755,
			MSE: 4, RMSE: 2, R2: 0.97, Status: StatusSuccess, Duration: 1500 * time.Millisecond},
		{RunID: "b", Timestamp: base.Add(time.Minute), Ticker: "ZZZZ", Status: StatusError,
			ErrorKind: "insufficient_data", ErrorMsg: "only 12 records"},
	}
	for _, r := range runs {
		if err := rec.RecordRun(r); err != nil {
			t.Fatalf("record %s: %v", r.RunID, err)
		}
	}

	got, err := rec.RecentRuns(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d runs, want 2", len(got))
	}
	if got[0].RunID != "b" || got[0].ErrorKind != "insufficient_data" {
		t.Errorf("newest run = %+v", got[0])
	}
	if got[1].Samples != 755 || got[1].RMSE != 2 || got[1].Duration != 1500*time.Millisecond {
		t.Errorf("oldest run = %+v", got[1])
	}

	since, err := rec.RunsSince(base.Add(30 * time.Second))
	if err != nil {
		t.Fatalf("since: %v", err)
	}
	if len(since) != 1 || since[0].RunID != "b" {
		t.Errorf("runs since = %+v", since)
	}
}

func TestSQLiteRecorder_ReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	rec, err := NewSQLiteRecorder(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := rec.RecordRun(&ForecastRun{RunID: "x", Ticker: "MSFT", Status: StatusSuccess}); err != nil {
		t.Fatalf("record: %v", err)
	}
	rec.Close()

	rec, err = NewSQLiteRecorder(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer rec.Close()
	got, err := rec.RecentRuns(5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 || got[0].Ticker != "MSFT" {
		t.Errorf("runs after reopen = %+v", got)
	}
}

func TestSQLiteRecorder_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "forecasts.db")
	rec, err := NewSQLiteRecorder(path, nil)
	if err != nil {
		t.Fatalf("open in missing dir: %v", err)
	}
	defer rec.Close()
	if err := rec.RecordRun(&ForecastRun{RunID: "r", Ticker: "AAPL", Status: StatusSuccess}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if err := r.RecordRun(&ForecastRun{}); err != nil {
		t.Errorf("noop record: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("noop close: %v", err)
	}
}

package chart

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func newTestRenderer(t *testing.T) (*Renderer, *Store) {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "media"), "/media")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	return NewRenderer(store), store
}

func assertPNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		t.Fatalf("%s is not a PNG", path)
	}
}

func TestFileName(t *testing.T) {
	if got := FileName("AAPL", KindPrediction); got != "AAPL_final_prediction.png" {
		t.Errorf("file name = %q", got)
	}
}

func TestStore_URL(t *testing.T) {
	_, store := newTestRenderer(t)
	if got := store.URL("X_plot.png"); got != "/media/X_plot.png" {
		t.Errorf("url = %q", got)
	}
}

func TestRenderer_AllCharts(t *testing.T) {
	r, store := newTestRenderer(t)

	closes := make([]float64, 250)
	ma100 := make([]float64, 250)
	ma200 := make([]float64, 250)
	for i := range closes {
		closes[i] = 100 + math.Sin(float64(i)/10)*5
		ma100[i], ma200[i] = math.NaN(), math.NaN()
		if i >= 99 {
			ma100[i] = 100
		}
		if i >= 199 {
			ma200[i] = 101
		}
	}

	url, err := r.Closing("TEST", closes)
	if err != nil {
		t.Fatalf("closing: %v", err)
	}
	if url != "/media/TEST_plot.png" {
		t.Errorf("url = %q", url)
	}
	if _, err := r.MovingAverage100("TEST", closes, ma100); err != nil {
		t.Fatalf("dma100: %v", err)
	}
	if _, err := r.MovingAverage200("TEST", closes, ma100, ma200); err != nil {
		t.Fatalf("dma200: %v", err)
	}
	if _, err := r.Prediction("TEST", closes[:50], closes[1:51]); err != nil {
		t.Fatalf("prediction: %v", err)
	}

	for _, kind := range []string{KindPlot, KindDMA100, KindDMA200, KindPrediction} {
		assertPNG(t, store.Path(FileName("TEST", kind)))
	}

	// No temp files left behind.
	entries, _ := os.ReadDir(store.Root)
	if len(entries) != 4 {
		t.Errorf("expected 4 files in media root, got %d", len(entries))
	}
}

func TestRenderer_OverwritesByName(t *testing.T) {
	r, store := newTestRenderer(t)
	if _, err := r.Closing("DUP", []float64{1, 2, 3}); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := r.Closing("DUP", []float64{3, 2, 1, 0}); err != nil {
		t.Fatalf("second: %v", err)
	}
	assertPNG(t, store.Path(FileName("DUP", KindPlot)))
}

func TestRenderer_NoData(t *testing.T) {
	r, _ := newTestRenderer(t)
	if _, err := r.Closing("NAN", []float64{math.NaN(), math.NaN()}); err == nil {
		t.Fatal("expected error for chart without points")
	}
}

func TestStore_Sweep(t *testing.T) {
	_, store := newTestRenderer(t)
	old := store.Path("OLD_plot.png")
	fresh := store.Path("NEW_plot.png")
	keep := store.Path("notes.txt")
	for _, p := range []string{old, fresh, keep} {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if err := os.Chtimes(keep, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	n, err := store.Sweep(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Errorf("removed %d files, want 1", n)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("old chart should be gone")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh chart should remain")
	}
	if _, err := os.Stat(keep); err != nil {
		t.Error("non-png file should remain")
	}
}

package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"StockForecaster/internal/recorder"
)

// maxDigestLines caps the per-ticker section of a digest.
const maxDigestLines = 20

// FormatRunDigest summarises the forecast runs recorded since the given time.
func FormatRunDigest(runs []recorder.ForecastRun, since time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>StockForecaster digest</b> | since %s\n\n", since.Format("2006-01-02 15:04")))

	if len(runs) == 0 {
		b.WriteString("No forecast runs.")
		return b.String()
	}

	var ok []recorder.ForecastRun
	failed := map[string]int{}
	for _, r := range runs {
		if r.Status == recorder.StatusSuccess {
			ok = append(ok, r)
			continue
		}
		failed[r.ErrorKind]++
	}
	b.WriteString(fmt.Sprintf("Runs: %d (ok %d, failed %d)\n", len(runs), len(ok), len(runs)-len(ok)))

	if len(ok) > 0 {
		b.WriteString("\n<b>Successful:</b>\n")
		for i, r := range ok {
			if i == maxDigestLines {
				b.WriteString(fmt.Sprintf("  … and %d more\n", len(ok)-maxDigestLines))
				break
			}
			b.WriteString(fmt.Sprintf("  %s: RMSE %.2f | R² %.3f | %d samples\n",
				html.EscapeString(r.Ticker), r.RMSE, r.R2, r.Samples))
		}
	}

	if len(failed) > 0 {
		kinds := make([]string, 0, len(failed))
		for k := range failed {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		b.WriteString("\n<b>Failed:</b>\n")
		for _, k := range kinds {
			b.WriteString(fmt.Sprintf("  %s: %d\n", html.EscapeString(k), failed[k]))
		}
	}
	return b.String()
}

// FormatRecentRuns lists runs newest first, one line each.
func FormatRecentRuns(runs []recorder.ForecastRun) string {
	if len(runs) == 0 {
		return "No forecast runs."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🕑 <b>Last %d runs</b>\n\n", len(runs)))
	for _, r := range runs {
		ts := r.Timestamp.Format("01-02 15:04")
		if r.Status == recorder.StatusSuccess {
			b.WriteString(fmt.Sprintf("%s %s: RMSE %.2f | R² %.3f\n", ts, html.EscapeString(r.Ticker), r.RMSE, r.R2))
			continue
		}
		b.WriteString(fmt.Sprintf("%s %s: ❌ %s\n", ts, html.EscapeString(r.Ticker), html.EscapeString(r.ErrorKind)))
	}
	return b.String()
}

// FormatStatus reports model readiness for the /status command.
func FormatStatus(modelPath string, modelErr error) string {
	if modelErr != nil {
		return fmt.Sprintf("⚠️ Model not ready: %s\n%s", html.EscapeString(modelPath), html.EscapeString(modelErr.Error()))
	}
	return fmt.Sprintf("✅ Model ready: %s", html.EscapeString(modelPath))
}

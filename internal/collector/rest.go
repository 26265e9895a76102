package collector

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"StockForecaster/internal/model"
)

// RESTFetcher implements Fetcher against a generic daily-bars REST API:
//
//	GET {base}/api/v1/bars/daily?symbol=AAPL&from=<unix>&to=<unix>
//
// answering with a JSON array of bars.
type RESTFetcher struct {
	client *resty.Client
}

// NewRESTFetcher creates a new fetcher with optional API key and proxy.
func NewRESTFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration) *RESTFetcher {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &RESTFetcher{client: client}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bars API.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

func (f *RESTFetcher) FetchDailyRange(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	var rows []restBar
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"from":   strconv.FormatInt(start.Unix(), 10),
			"to":     strconv.FormatInt(end.Unix(), 10),
		}).
		SetResult(&rows).
		Get("/api/v1/bars/daily")
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, fmt.Errorf("fetch bars %s: %w", symbol, ErrNoData)
	case resp.StatusCode() != http.StatusOK:
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode(), resp.String())
	}

	bars := make([]model.OHLCV, len(rows))
	for i, r := range rows {
		bars[i] = model.OHLCV{
			Time:   time.Unix(r.Timestamp, 0).UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		}
	}
	// Ensure chronological order
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

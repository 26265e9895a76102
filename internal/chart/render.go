package chart

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Canvas size of every chart.
const (
	Width  = 12 * vg.Inch
	Height = 5 * vg.Inch
)

// Chart kinds; files are named {ticker}_{kind}.png.
const (
	KindPlot       = "plot"
	KindDMA100     = "100_dma"
	KindDMA200     = "200_dma"
	KindPrediction = "final_prediction"
)

var (
	colorPrice = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	colorRed   = color.RGBA{R: 0xff, A: 0xff}
	colorGreen = color.RGBA{G: 0x80, A: 0xff}
	colorBlue  = color.RGBA{B: 0xff, A: 0xff}
)

// FileName returns the media file name of a chart.
func FileName(ticker, kind string) string {
	return ticker + "_" + kind + ".png"
}

// Series is one labelled line. NaN values are left out of the line.
type Series struct {
	Label  string
	Values []float64
	Color  color.Color
}

// Renderer draws line charts into a Store.
type Renderer struct {
	store *Store
}

// NewRenderer creates a Renderer writing into store.
func NewRenderer(store *Store) *Renderer {
	return &Renderer{store: store}
}

// Render draws the series against their index and saves the chart as name.
// It returns the chart's public URL.
func (r *Renderer) Render(name, title string, series ...Series) (string, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Days"
	p.Y.Label.Text = "Price"
	p.Legend.Top = true
	p.Legend.Left = true

	drawn := 0
	for _, s := range series {
		xys := points(s.Values)
		if len(xys) == 0 {
			continue
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return "", fmt.Errorf("%s line: %w", s.Label, err)
		}
		line.Color = s.Color
		line.Width = vg.Points(1.2)
		p.Add(line)
		p.Legend.Add(s.Label, line)
		drawn++
	}
	if drawn == 0 {
		return "", errors.New("chart has no data points")
	}

	wt, err := p.WriterTo(Width, Height, "png")
	if err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	err = r.store.WriteFile(name, func(f *os.File) error {
		_, err := wt.WriteTo(f)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	return r.store.URL(name), nil
}

// Closing renders the raw closing price chart.
func (r *Renderer) Closing(ticker string, closes []float64) (string, error) {
	return r.Render(FileName(ticker, KindPlot), "Closing Price of "+ticker,
		Series{Label: "Closing Price", Values: closes, Color: colorPrice},
	)
}

// MovingAverage100 renders closes with the 100-day SMA overlay.
func (r *Renderer) MovingAverage100(ticker string, closes, ma100 []float64) (string, error) {
	return r.Render(FileName(ticker, KindDMA100), "100-Day Moving Average of "+ticker,
		Series{Label: "Closing Price", Values: closes, Color: colorPrice},
		Series{Label: "100 DMA", Values: ma100, Color: colorRed},
	)
}

// MovingAverage200 renders closes with both the 100-day and 200-day SMA overlays.
func (r *Renderer) MovingAverage200(ticker string, closes, ma100, ma200 []float64) (string, error) {
	return r.Render(FileName(ticker, KindDMA200), "200-Day Moving Average of "+ticker,
		Series{Label: "Closing Price", Values: closes, Color: colorPrice},
		Series{Label: "100 DMA", Values: ma100, Color: colorRed},
		Series{Label: "200 DMA", Values: ma200, Color: colorGreen},
	)
}

// Prediction renders true against predicted prices.
func (r *Renderer) Prediction(ticker string, actual, predicted []float64) (string, error) {
	return r.Render(FileName(ticker, KindPrediction), "Final Prediction for "+ticker,
		Series{Label: "Original Price", Values: actual, Color: colorBlue},
		Series{Label: "Predicted Price", Values: predicted, Color: colorRed},
	)
}

func points(values []float64) plotter.XYs {
	xys := make(plotter.XYs, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(i), Y: v})
	}
	return xys
}

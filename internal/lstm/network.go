package lstm

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Predictor maps a batch of input windows to one scaled value per window.
type Predictor interface {
	Predict(windows [][]float64) ([]float64, error)
}

// Network is an inference-only stack of sequential layers.
type Network struct {
	Name     string
	Steps    int // expected timesteps per window, 0 = any
	Features int
	layers   []layer
}

type layer interface {
	forward(x *mat.Dense) *mat.Dense
}

// Build validates the artifact shapes and assembles the network.
func Build(a *Artifact) (*Network, error) {
	if a.Format != "" && a.Format != Format {
		return nil, fmt.Errorf("unsupported model format %q", a.Format)
	}
	if len(a.Layers) == 0 {
		return nil, fmt.Errorf("model has no layers")
	}

	n := &Network{Name: a.Name, Features: 1}
	if len(a.InputShape) == 2 {
		n.Steps, n.Features = a.InputShape[0], a.InputShape[1]
	}
	if n.Features <= 0 || n.Steps < 0 {
		return nil, fmt.Errorf("invalid input shape %v", a.InputShape)
	}

	dim, sequence := n.Features, true
	for i, spec := range a.Layers {
		var (
			l   layer
			err error
		)
		switch strings.ToLower(spec.Type) {
		case "lstm":
			if !sequence {
				return nil, fmt.Errorf("layer %d: lstm needs sequence input", i)
			}
			l, err = newLSTMLayer(spec, dim)
			dim, sequence = spec.Units, spec.ReturnSequences
		case "dense":
			l, err = newDenseLayer(spec, dim)
			dim = spec.Units
		case "dropout":
			continue // identity at inference
		default:
			err = fmt.Errorf("unsupported layer type %q", spec.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		n.layers = append(n.layers, l)
	}
	if sequence || dim != 1 {
		return nil, fmt.Errorf("model must reduce each window to a single value, ends with %d features (sequence=%v)", dim, sequence)
	}
	return n, nil
}

// PredictOne runs the network over a single window.
func (n *Network) PredictOne(window []float64) (float64, error) {
	if len(window) == 0 || len(window)%n.Features != 0 {
		return 0, fmt.Errorf("window of %d values does not fit %d features", len(window), n.Features)
	}
	steps := len(window) / n.Features
	if n.Steps > 0 && steps != n.Steps {
		return 0, fmt.Errorf("window has %d timesteps, model expects %d", steps, n.Steps)
	}

	x := mat.NewDense(steps, n.Features, append([]float64(nil), window...))
	for _, l := range n.layers {
		x = l.forward(x)
	}
	return x.At(0, 0), nil
}

// Predict runs the network over every window in order.
func (n *Network) Predict(windows [][]float64) ([]float64, error) {
	out := make([]float64, len(windows))
	for i, w := range windows {
		v, err := n.PredictOne(w)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

type lstmLayer struct {
	units           int
	returnSequences bool
	kernelT         mat.Matrix // (4u × in)
	recurrentT      mat.Matrix // (4u × u)
	bias            *mat.VecDense
}

func newLSTMLayer(spec LayerSpec, in int) (*lstmLayer, error) {
	u := spec.Units
	if u <= 0 {
		return nil, fmt.Errorf("lstm units must be positive")
	}
	if spec.Activation != "" && spec.Activation != "tanh" {
		return nil, fmt.Errorf("lstm activation %q not supported", spec.Activation)
	}
	kernel, err := denseFrom(spec.Kernel, in, 4*u, "kernel")
	if err != nil {
		return nil, err
	}
	recurrent, err := denseFrom(spec.RecurrentKernel, u, 4*u, "recurrent_kernel")
	if err != nil {
		return nil, err
	}
	bias := make([]float64, 4*u)
	if spec.Bias != nil {
		if len(spec.Bias) != 4*u {
			return nil, fmt.Errorf("bias has %d values, want %d", len(spec.Bias), 4*u)
		}
		copy(bias, spec.Bias)
	}
	return &lstmLayer{
		units:           u,
		returnSequences: spec.ReturnSequences,
		kernelT:         kernel.T(),
		recurrentT:      recurrent.T(),
		bias:            mat.NewVecDense(4*u, bias),
	}, nil
}

func (l *lstmLayer) forward(x *mat.Dense) *mat.Dense {
	steps, _ := x.Dims()
	u := l.units
	h := mat.NewVecDense(u, nil)
	c := make([]float64, u)
	z := mat.NewVecDense(4*u, nil)
	rec := mat.NewVecDense(4*u, nil)

	var seq *mat.Dense
	if l.returnSequences {
		seq = mat.NewDense(steps, u, nil)
	}
	hd := h.RawVector().Data
	for t := 0; t < steps; t++ {
		z.MulVec(l.kernelT, x.RowView(t))
		rec.MulVec(l.recurrentT, h)
		z.AddVec(z, rec)
		z.AddVec(z, l.bias)

		zd := z.RawVector().Data
		for j := 0; j < u; j++ {
			in := sigmoid(zd[j])
			forget := sigmoid(zd[u+j])
			cand := math.Tanh(zd[2*u+j])
			out := sigmoid(zd[3*u+j])
			c[j] = forget*c[j] + in*cand
			hd[j] = out * math.Tanh(c[j])
		}
		if seq != nil {
			seq.SetRow(t, hd)
		}
	}
	if seq != nil {
		return seq
	}
	return mat.NewDense(1, u, append([]float64(nil), hd...))
}

type denseLayer struct {
	units  int
	kernel *mat.Dense // (in × units)
	bias   []float64
	act    func(float64) float64
}

func newDenseLayer(spec LayerSpec, in int) (*denseLayer, error) {
	if spec.Units <= 0 {
		return nil, fmt.Errorf("dense units must be positive")
	}
	kernel, err := denseFrom(spec.Kernel, in, spec.Units, "kernel")
	if err != nil {
		return nil, err
	}
	bias := make([]float64, spec.Units)
	if spec.Bias != nil {
		if len(spec.Bias) != spec.Units {
			return nil, fmt.Errorf("bias has %d values, want %d", len(spec.Bias), spec.Units)
		}
		copy(bias, spec.Bias)
	}
	act, err := activation(spec.Activation)
	if err != nil {
		return nil, err
	}
	return &denseLayer{units: spec.Units, kernel: kernel, bias: bias, act: act}, nil
}

func (l *denseLayer) forward(x *mat.Dense) *mat.Dense {
	rows, _ := x.Dims()
	out := mat.NewDense(rows, l.units, nil)
	out.Mul(x, l.kernel)
	for r := 0; r < rows; r++ {
		row := out.RawRowView(r)
		for j := range row {
			row[j] = l.act(row[j] + l.bias[j])
		}
	}
	return out
}

func denseFrom(rows [][]float64, r, c int, name string) (*mat.Dense, error) {
	if len(rows) != r {
		return nil, fmt.Errorf("%s has %d rows, want %d", name, len(rows), r)
	}
	data := make([]float64, 0, r*c)
	for i, row := range rows {
		if len(row) != c {
			return nil, fmt.Errorf("%s row %d has %d columns, want %d", name, i, len(row), c)
		}
		data = append(data, row...)
	}
	return mat.NewDense(r, c, data), nil
}

func activation(name string) (func(float64) float64, error) {
	switch strings.ToLower(name) {
	case "", "linear":
		return func(v float64) float64 { return v }, nil
	case "relu":
		return func(v float64) float64 { return math.Max(0, v) }, nil
	case "tanh":
		return math.Tanh, nil
	case "sigmoid":
		return sigmoid, nil
	default:
		return nil, fmt.Errorf("activation %q not supported", name)
	}
}

func sigmoid(v float64) float64 { return 1 / (1 + math.Exp(-v)) }

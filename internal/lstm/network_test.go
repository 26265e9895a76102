package lstm

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// smallArtifact is a 2-unit LSTM followed by a dense head, input [4,1].
func smallArtifact() *Artifact {
	return &Artifact{
		Format:     Format,
		Name:       "tiny",
		InputShape: []int{4, 1},
		Layers: []LayerSpec{
			{
				Type:  "lstm",
				Units: 2,
				Kernel: [][]float64{
					{0.5, -0.3, 0.8, 0.1, 0.2, 0.4, -0.6, 0.9},
				},
				RecurrentKernel: [][]float64{
					{0.1, 0.2, -0.1, 0.3, 0.05, -0.2, 0.4, 0.1},
					{-0.3, 0.1, 0.2, -0.1, 0.3, 0.2, -0.2, 0.05},
				},
				Bias: []float64{0.01, 0.02, 1, 1, -0.1, 0.1, 0, 0},
			},
			{Type: "dropout"},
			{Type: "dense", Units: 1, Kernel: [][]float64{{0.7}, {-0.4}}, Bias: []float64{0.05}},
		},
	}
}

// referenceLSTM evaluates smallArtifact with plain scalar loops.
func referenceLSTM(a *Artifact, window []float64) float64 {
	l := a.Layers[0]
	u := l.Units
	h := make([]float64, u)
	c := make([]float64, u)
	sig := func(v float64) float64 { return 1 / (1 + math.Exp(-v)) }
	for _, x := range window {
		z := make([]float64, 4*u)
		for k := 0; k < 4*u; k++ {
			z[k] = l.Kernel[0][k]*x + l.Bias[k]
			for m := 0; m < u; m++ {
				z[k] += h[m] * l.RecurrentKernel[m][k]
			}
		}
		next := make([]float64, u)
		for j := 0; j < u; j++ {
			c[j] = sig(z[u+j])*c[j] + sig(z[j])*math.Tanh(z[2*u+j])
			next[j] = sig(z[3*u+j]) * math.Tanh(c[j])
		}
		h = next
	}
	d := a.Layers[2]
	out := d.Bias[0]
	for m := 0; m < u; m++ {
		out += h[m] * d.Kernel[m][0]
	}
	return out
}

func TestNetwork_MatchesReference(t *testing.T) {
	a := smallArtifact()
	net, err := Build(a)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	windows := [][]float64{
		{0.1, 0.2, 0.3, 0.4},
		{1, 0.5, 0.25, 0},
		{0, 0, 0, 0},
	}
	got, err := net.Predict(windows)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	for i, w := range windows {
		want := referenceLSTM(a, w)
		if math.Abs(got[i]-want) > 1e-12 {
			t.Errorf("window %d: got %v, want %v", i, got[i], want)
		}
	}
}

func TestNetwork_Deterministic(t *testing.T) {
	net, err := Build(smallArtifact())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	w := [][]float64{{0.3, 0.1, 0.9, 0.4}}
	a, _ := net.Predict(w)
	b, _ := net.Predict(w)
	if a[0] != b[0] {
		t.Errorf("repeated predictions differ: %v vs %v", a[0], b[0])
	}
}

func TestNetwork_StackedSequences(t *testing.T) {
	a := smallArtifact()
	first := a.Layers[0]
	first.ReturnSequences = true
	second := LayerSpec{
		Type:            "lstm",
		Units:           1,
		Kernel:          [][]float64{{0.1, 0.2, 0.3, 0.4}, {0.4, 0.3, 0.2, 0.1}},
		RecurrentKernel: [][]float64{{0.1, 0.1, 0.1, 0.1}},
	}
	a.Layers = []LayerSpec{first, second, {Type: "dense", Units: 1, Kernel: [][]float64{{2}}, Activation: "relu"}}

	net, err := Build(a)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	v, err := net.PredictOne([]float64{0.2, 0.4, 0.6, 0.8})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if v < 0 || math.IsNaN(v) {
		t.Errorf("relu head produced %v", v)
	}
}

func TestBuild_RejectsBadShapes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *Artifact)
		want   string
	}{
		{"wrong format", func(a *Artifact) { a.Format = "onnx" }, "unsupported model format"},
		{"no layers", func(a *Artifact) { a.Layers = nil }, "no layers"},
		{"kernel cols", func(a *Artifact) { a.Layers[0].Kernel[0] = a.Layers[0].Kernel[0][:7] }, "columns"},
		{"recurrent rows", func(a *Artifact) { a.Layers[0].RecurrentKernel = a.Layers[0].RecurrentKernel[:1] }, "recurrent_kernel"},
		{"bias length", func(a *Artifact) { a.Layers[2].Bias = []float64{1, 2} }, "bias"},
		{"activation", func(a *Artifact) { a.Layers[2].Activation = "softplus" }, "activation"},
		{"layer type", func(a *Artifact) { a.Layers[1].Type = "conv1d" }, "unsupported layer type"},
		{"sequence output", func(a *Artifact) { a.Layers[0].ReturnSequences = true }, "single value"},
		{"wide output", func(a *Artifact) {
			a.Layers[2].Units = 2
			a.Layers[2].Kernel = [][]float64{{1, 1}, {1, 1}}
			a.Layers[2].Bias = nil
		}, "single value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := smallArtifact()
			tt.mutate(a)
			_, err := Build(a)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestPredict_WrongWindowLength(t *testing.T) {
	net, err := Build(smallArtifact())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := net.Predict([][]float64{{1, 2, 3}}); err == nil {
		t.Fatal("expected timestep mismatch error")
	}
}

func TestLoad_RoundTripAndMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")

	if _, err := Load(path); !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, smallArtifact()); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	net, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if net.Name != "tiny" || net.Steps != 4 {
		t.Errorf("unexpected network: name=%q steps=%d", net.Name, net.Steps)
	}

	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil || errors.Is(err, ErrModelNotFound) {
		t.Fatalf("corrupt artifact should fail without ErrModelNotFound, got %v", err)
	}
}

func TestSource_LoadsOnceAndRecovers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	src := NewSource(path, nil)

	if err := src.Ready(); !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound before file exists, got %v", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, smallArtifact()); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	first, err := src.Model()
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	// Removing the file must not matter once loaded.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	second, err := src.Model()
	if err != nil {
		t.Fatalf("cached model: %v", err)
	}
	if first != second {
		t.Error("expected the cached network to be reused")
	}
}

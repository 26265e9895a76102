package lstm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Format is the only artifact format understood by Load.
const Format = "keras-sequential-json"

// ErrModelNotFound is returned when the model artifact does not exist.
var ErrModelNotFound = errors.New("model file not found")

// Artifact is the JSON export of a Keras Sequential model. Weight matrices
// keep the Keras layout: kernel is (inputs × units), LSTM kernels are
// (inputs × 4·units) with gates ordered input, forget, cell, output.
type Artifact struct {
	Format     string      `json:"format"`
	Name       string      `json:"name,omitempty"`
	InputShape []int       `json:"input_shape"` // [timesteps, features]
	Layers     []LayerSpec `json:"layers"`
}

// LayerSpec describes one layer of the exported model.
type LayerSpec struct {
	Type            string      `json:"type"` // lstm, dense, dropout
	Units           int         `json:"units,omitempty"`
	Activation      string      `json:"activation,omitempty"`
	ReturnSequences bool        `json:"return_sequences,omitempty"`
	Kernel          [][]float64 `json:"kernel,omitempty"`
	RecurrentKernel [][]float64 `json:"recurrent_kernel,omitempty"`
	Bias            []float64   `json:"bias,omitempty"`
}

// Load reads and builds the network stored at path.
func Load(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	net, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	return net, nil
}

// Decode parses an artifact from r and builds the network.
func Decode(r io.Reader) (*Network, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return Build(&a)
}

// Encode writes the artifact as JSON.
func Encode(w io.Writer, a *Artifact) error {
	enc := json.NewEncoder(w)
	return enc.Encode(a)
}

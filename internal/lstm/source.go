package lstm

import (
	"sync"

	"go.uber.org/zap"
)

// Source loads the model artifact once per process and hands out the cached
// network. While the artifact is missing every call re-checks the path, so
// dropping the file in place later needs no restart.
type Source struct {
	path   string
	logger *zap.Logger

	mu  sync.Mutex
	net *Network
}

// NewSource creates a Source for the artifact at path.
func NewSource(path string, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{path: path, logger: logger}
}

// Path returns the artifact location.
func (s *Source) Path() string { return s.path }

// Model returns the loaded network, loading it on first use.
func (s *Source) Model() (Predictor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.net != nil {
		return s.net, nil
	}
	net, err := Load(s.path)
	if err != nil {
		return nil, err
	}
	s.net = net
	s.logger.Info("model loaded",
		zap.String("path", s.path),
		zap.String("name", net.Name),
		zap.Int("layers", len(net.layers)),
		zap.Int("timesteps", net.Steps),
	)
	return net, nil
}

// Ready reports whether the model can be served.
func (s *Source) Ready() error {
	_, err := s.Model()
	return err
}

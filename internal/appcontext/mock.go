package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/argmap"
	"github.com/agentstation/argmap/pkg/constants"
)

// Mock provides a mock implementation of Interface for testing.
// A nil function field yields a zero or default value.
type Mock struct {
	ClientFunc       func() (argmap.Client, error)
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	Threshold        float64
	PageSize         int
}

var _ Interface = (*Mock)(nil)

// Client returns a client using the mock function or nil.
func (m *Mock) Client() (argmap.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc()
	}
	return nil, nil
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the mocked format, "table" by default.
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// SimilarityThreshold returns Threshold or the package default.
func (m *Mock) SimilarityThreshold() float64 {
	if m.Threshold == 0 {
		return constants.DefaultSimilarityThreshold
	}
	return m.Threshold
}

// ReviewPageSize returns PageSize or the package default.
func (m *Mock) ReviewPageSize() int {
	if m.PageSize == 0 {
		return constants.ReviewPageSize
	}
	return m.PageSize
}

// Version returns a fixed test version.
func (m *Mock) Version() string {
	return "test"
}

package forecast

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a pipeline failure for the caller.
type Kind int

const (
	// KindPipeline is any fetch, compute or render failure not covered below.
	KindPipeline Kind = iota
	// KindValidation is a malformed request.
	KindValidation
	// KindInsufficientData means the ticker has too little history.
	KindInsufficientData
	// KindModelNotFound means the model artifact is absent.
	KindModelNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInsufficientData:
		return "insufficient_data"
	case KindModelNotFound:
		return "model_not_found"
	default:
		return "pipeline"
	}
}

// Messages surfaced for the named failure kinds.
const (
	MsgInsufficientData = "Not enough historical data for this ticker."
	MsgModelNotFound    = "ML model file not found."
)

// Error is the typed failure returned by Pipeline.Run.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Public returns the message safe to hand back to API clients.
func (e *Error) Public() string {
	switch e.Kind {
	case KindPipeline:
		return "Server error: " + e.Error()
	default:
		return e.Msg
	}
}

// KindOf returns the Kind of err, KindPipeline for untyped errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindPipeline
}

// ValidationError builds a KindValidation error.
func ValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func insufficientData(err error) *Error {
	return &Error{Kind: KindInsufficientData, Msg: MsgInsufficientData, Err: err}
}

func modelNotFound(err error) *Error {
	return &Error{Kind: KindModelNotFound, Msg: MsgModelNotFound, Err: err}
}

func pipelineError(stage string, err error) *Error {
	return &Error{Kind: KindPipeline, Err: fmt.Errorf("%s: %w", stage, err)}
}

// NormalizeTicker trims the ticker and rejects values that are blank or could
// escape the media directory once used as a file name.
func NormalizeTicker(raw string) (string, error) {
	ticker := strings.TrimSpace(raw)
	if ticker == "" {
		return "", ValidationError("ticker: this field may not be blank.")
	}
	if strings.ContainsAny(ticker, `/\`) || strings.Contains(ticker, "..") {
		return "", ValidationError("ticker: %q is not a valid symbol.", ticker)
	}
	return ticker, nil
}

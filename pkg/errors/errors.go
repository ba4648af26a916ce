package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyCorpus     = errors.New("empty corpus")
	ErrMisaligned      = errors.New("corpora are not line-aligned")
	ErrScorerProtocol  = errors.New("unexpected scorer output")
	ErrScorerFailed    = errors.New("scorer process failed")
	ErrTimeout         = errors.New("operation timed out")
	ErrSinkUnavailable = errors.New("result sink unavailable")
	ErrInternal        = errors.New("internal error")
)

// Process exit codes returned by the command-line tools.
const (
	ExitOK       = 0
	ExitInternal = 1
	ExitInput    = 2
	ExitScorer   = 3
	ExitTimeout  = 4
	ExitSink     = 5
)

type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCodeFor(sentinel),
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCodeFor(sentinel),
	}
}

// ExitCode maps an error chain to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.ExitCode != 0 {
		return appErr.ExitCode
	}
	return exitCodeFor(err)
}

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrEmptyCorpus), errors.Is(err, ErrMisaligned):
		return ExitInput
	case errors.Is(err, ErrScorerProtocol), errors.Is(err, ErrScorerFailed):
		return ExitScorer
	case errors.Is(err, ErrTimeout):
		return ExitTimeout
	case errors.Is(err, ErrSinkUnavailable):
		return ExitSink
	default:
		return ExitInternal
	}
}

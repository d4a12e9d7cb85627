package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCredential = errors.New("missing service credential")
	ErrInvalidSettings   = errors.New("invalid settings")
	ErrInvalidImage      = errors.New("invalid image")
	ErrProviderFailure   = errors.New("provider failure")
	ErrEmptyResult       = errors.New("empty result")
	ErrFetchFailed       = errors.New("asset fetch failed")
	ErrTimedOut          = errors.New("generation timed out")
	ErrCanceled          = errors.New("generation canceled")
	ErrNotFound          = errors.New("not found")
)

// ErrorKind classifies a GenerationError.
type ErrorKind string

const (
	KindConfig       ErrorKind = "config"
	KindInvalidInput ErrorKind = "invalid_input"
	KindRemote       ErrorKind = "remote"
	KindEmptyResult  ErrorKind = "empty_result"
	KindFetch        ErrorKind = "fetch"
	KindTimeout      ErrorKind = "timeout"
	KindCanceled     ErrorKind = "canceled"
)

var kindSentinels = map[ErrorKind]error{
	KindConfig:       ErrMissingCredential,
	KindInvalidInput: ErrInvalidSettings,
	KindRemote:       ErrProviderFailure,
	KindEmptyResult:  ErrEmptyResult,
	KindFetch:        ErrFetchFailed,
	KindTimeout:      ErrTimedOut,
	KindCanceled:     ErrCanceled,
}

// GenerationError is the single error type surfaced by the generation
// workflow. Message is safe to show to the end user.
type GenerationError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewGenerationError builds a GenerationError with a formatted message.
func NewGenerationError(kind ErrorKind, err error, format string, args ...any) *GenerationError {
	return &GenerationError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *GenerationError) Error() string {
	return e.Message
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error associated with the error kind, so callers
// can test errors.Is(err, ErrEmptyResult) without a type assertion.
func (e *GenerationError) Is(target error) bool {
	if sentinel, ok := kindSentinels[e.Kind]; ok && sentinel == target {
		return true
	}
	return false
}

// KindOf returns the kind of a GenerationError anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind, true
	}
	return "", false
}

package tabextract

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrEmptyPrompt is returned when a rendered prompt is blank.
	ErrEmptyPrompt = errors.New("prompt is empty")
	// ErrNoInvoker is returned by a Client built without an Invoker.
	ErrNoInvoker = errors.New("invoker not configured")
	// ErrEmptyResponse is returned when the model answers with no text.
	ErrEmptyResponse = errors.New("model returned no text")
)

// TransientError marks a failure that may succeed on a later attempt:
// rate limiting, timeouts, dropped connections, upstream 5xx.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// FatalError marks a failure that retrying cannot fix: bad credentials or a
// malformed request.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return e.Err.Error() }

func (e *FatalError) Unwrap() error { return e.Err }

// Transient wraps err as a TransientError. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// Transientf formats a new TransientError.
func Transientf(format string, args ...any) error {
	return &TransientError{Err: fmt.Errorf(format, args...)}
}

// Fatal wraps err as a FatalError. A nil err stays nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// Fatalf formats a new FatalError.
func Fatalf(format string, args ...any) error {
	return &FatalError{Err: fmt.Errorf(format, args...)}
}

// IsFatal reports whether err is, or wraps, a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// IsRetryable reports whether the retry policy may try again after err.
// Fatal errors and cancellation are final; everything else, including
// unclassified errors, is retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsFatal(err) {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	return !errors.Is(err, context.Canceled)
}

// ClassifyStatus maps an HTTP status from a model or search API to an error
// class. Codes that are neither transient nor fatal return err unchanged.
func ClassifyStatus(code int, err error) error {
	switch {
	case code == 408 || code == 409 || code == 425 || code == 429 || code >= 500:
		return Transient(err)
	case code == 400 || code == 401 || code == 403 || code == 404 || code == 405 || code == 413 || code == 422:
		return Fatal(err)
	default:
		return err
	}
}

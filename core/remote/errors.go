package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrNotFound is returned when an object addressed by id does not exist.
var ErrNotFound = errors.New("object not found")

// ValidationError reports a payload the system of record rejected.
// It is never retried and never aborts sibling items.
type ValidationError struct {
	Kind    Kind
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s.%s: %s", e.Kind, e.Field, e.Message)
}

// TransportError reports a failed call (connection, timeout, server side).
// Status is the HTTP-style status code, 0 when no response was received.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransient returns true for errors that are worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Status == 0 || te.Status >= 500 || te.Status == http.StatusTooManyRequests
	}
	var ne net.Error
	return errors.As(err, &ne)
}

// IsValidation reports whether err is a payload rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

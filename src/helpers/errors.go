package helpers

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup has to report absence as an error.
var ErrNotFound = errors.New("not found")

// -----------------------------------------------------------------------------
// Base Error Type
// -----------------------------------------------------------------------------

type QuoteError struct {
	Message string
	Cause   error
}

func (e *QuoteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *QuoteError) Unwrap() error {
	return e.Cause
}

// Infrastructure errors, distinguishable with errors.As
type ConfigurationError struct{ QuoteError }
type NetworkError struct{ QuoteError }
type DatabaseError struct{ QuoteError }

// -----------------------------------------------------------------------------
// Quote Protocol Errors
// -----------------------------------------------------------------------------

// TickerNotFoundError reports a stored ticker that the market data source does not know.
type TickerNotFoundError struct {
	Ticker string
}

func (e *TickerNotFoundError) Error() string {
	return fmt.Sprintf("ticker not found: %s", e.Ticker)
}

func (e *TickerNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// -----------------------------------------------------------------------------

// InvalidArgumentError reports malformed or unknown input.
type InvalidArgumentError struct {
	Argument string
	Reason   string
}

func (e *InvalidArgumentError) Error() string {
	if e.Argument == "" {
		return fmt.Sprintf("invalid argument: %s", e.Reason)
	}
	return fmt.Sprintf("invalid argument %q: %s", e.Argument, e.Reason)
}

// -----------------------------------------------------------------------------

// PersistenceError reports a write whose affected-row count did not match,
// or a statement the database rejected.
type PersistenceError struct {
	Op       string
	Ticker   string
	Expected int64
	Actual   int64
	Cause    error
}

func (e *PersistenceError) Error() string {
	target := e.Op
	if e.Ticker != "" {
		target = fmt.Sprintf("%s %s", e.Op, e.Ticker)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s failed: %v", target, e.Cause)
	}
	return fmt.Sprintf("%s affected %d rows, expected %d", target, e.Actual, e.Expected)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// -----------------------------------------------------------------------------

// HTTPStatusError is returned by the network layer for non-2xx responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Retryable reports whether the request is worth repeating.
func (e *HTTPStatusError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func NewInvalidArgument(argument, reason string) error {
	return &InvalidArgumentError{Argument: argument, Reason: reason}
}

func NewConfigurationError(message string, cause error) error {
	return &ConfigurationError{QuoteError{Message: message, Cause: cause}}
}

func NewNetworkError(message string, cause error) error {
	return &NetworkError{QuoteError{Message: message, Cause: cause}}
}

func NewDatabaseError(message string, cause error) error {
	return &DatabaseError{QuoteError{Message: message, Cause: cause}}
}

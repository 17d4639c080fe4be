package provider

import (
	"context"
	"errors"
	"net"
)

// ProviderError is the single error kind returned by FetchTickerData.
type ProviderError struct {
	Op      string // Operation that failed (e.g., "fetch quotes")
	Message string // Human-readable message for display
	Err     error  // Underlying cause, may be nil
}

func (e *ProviderError) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return e.Op + ": " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// displayMessager is implemented by errors that carry their own display message.
type displayMessager interface {
	DisplayMessage() string
}

// wrapError converts any source failure into a *ProviderError.
func wrapError(op string, err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	return &ProviderError{Op: op, Message: describe(err), Err: err}
}

func describe(err error) string {
	var dm displayMessager
	if errors.As(err, &dm) {
		return dm.DisplayMessage()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "request cancelled"
	}
	return err.Error()
}

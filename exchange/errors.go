package exchange

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidResponse terminates a request after the retry budget is
	// exhausted. Callers must not retry further.
	ErrInvalidResponse = errors.New("invalid exchange response")

	// ErrWrongContentType marks a non-JSON reply. Treated as a transient
	// fault, the exchanges occasionally serve HTML error pages.
	ErrWrongContentType = errors.New("unexpected response content type")

	// ErrNoOrders is the liqui "no orders" condition: a well-formed empty
	// result, not a fault. Never retried.
	ErrNoOrders = errors.New("exchange reports no orders")

	// ErrUnsupportedExchange is returned for an unknown exchange id.
	ErrUnsupportedExchange = errors.New("unsupported exchange")
)

// APIError is an application-level error reported by the exchange in an
// otherwise valid payload. Exchanges report spurious transient errors
// indistinguishably from real ones, so these are retried like transport
// faults.
type APIError struct {
	Exchange string
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error: %s", e.Exchange, e.Message)
}

// StateError means the raw order fields could not be classified into any
// canonical State. Retrying cannot change already-returned data, so this
// is fatal for the order it concerns.
type StateError struct {
	Exchange string
	OrderID  string
	Details  string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s order %s: cannot classify state: %s", e.Exchange, e.OrderID, e.Details)
}

// AmbiguousPairError means a pair-resolution lookup returned more than one
// match; picking one arbitrarily would mislabel the order.
type AmbiguousPairError struct {
	Pair    string
	Matches []string
}

func (e *AmbiguousPairError) Error() string {
	return fmt.Sprintf("pair %s resolves to %d candidates: %s",
		e.Pair, len(e.Matches), strings.Join(e.Matches, ","))
}

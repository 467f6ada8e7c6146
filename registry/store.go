// Package registry is the durable side of reconciliation: which users
// subscribe to which exchanges, with which credentials, and which order
// ids have already been surfaced.
package registry

import (
	"context"
	"errors"
)

var (
	ErrAlreadySubscribed = errors.New("already subscribed")
	ErrNotSubscribed     = errors.New("not subscribed")
)

// OrderRef addresses one tracked order id. (UID, ExchangeID, OrderID) is
// the registry's primary key; writes at that granularity are atomic.
type OrderRef struct {
	UID        int64
	ExchangeID int
	OrderID    string
}

// Store is the narrow query interface the engine and the bot consume.
type Store interface {
	// SubscribedUserIDs lists every user with at least one subscription.
	SubscribedUserIDs(ctx context.Context) ([]int64, error)

	// Credentials returns the stored api key/secret for (uid, exchange);
	// ok is false when the user has no subscription there.
	Credentials(ctx context.Context, uid int64, exchangeID int) (apiKey, secret string, ok bool, err error)

	// TrackedOrderIDs returns the already-surfaced order id set for
	// (uid, exchange).
	TrackedOrderIDs(ctx context.Context, uid int64, exchangeID int) (map[string]struct{}, error)

	// AddTrackedOrderIDs records newly discovered ids. Idempotent:
	// duplicates are ignored, never doubled.
	AddTrackedOrderIDs(ctx context.Context, refs []OrderRef) error

	// IsSubscribed reports whether (uid, exchange) has a subscription.
	IsSubscribed(ctx context.Context, uid int64, exchangeID int) (bool, error)

	// Subscribe stores credentials for (uid, exchange). Fails with
	// ErrAlreadySubscribed instead of silently replacing keys.
	Subscribe(ctx context.Context, uid int64, exchangeID int, apiKey, secret string) error

	// Unsubscribe removes the subscription; ErrNotSubscribed if absent.
	Unsubscribe(ctx context.Context, uid int64, exchangeID int) error

	// UserSubscriptions lists the exchange names a user subscribes to.
	UserSubscriptions(ctx context.Context, uid int64) ([]string, error)
}

// Package checker implements the reconciliation engine: per user, per
// exchange, diff the locally tracked order ids against the exchange's
// reported history and notify once per newly discovered order.
package checker

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"order-notifier-go/exchange"
	"order-notifier-go/metrics"
	"order-notifier-go/notify"
	"order-notifier-go/registry"
)

// Checker drives one reconciliation cycle at a time.
type Checker struct {
	store    registry.Store
	notifier *notify.Notifier
	deps     exchange.Deps
	log      *zap.Logger

	// newAdapter is swapped for a stub in tests.
	newAdapter func(id int, apiKey, secret string, deps exchange.Deps) (exchange.Api, error)
}

func New(store registry.Store, notifier *notify.Notifier, deps exchange.Deps, log *zap.Logger) *Checker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Checker{
		store:      store,
		notifier:   notifier,
		deps:       deps,
		log:        log,
		newAdapter: exchange.New,
	}
}

// Check runs one full cycle over all users and exchanges. A failing
// (user, exchange) pair is logged and counted; it never halts the rest
// of the cycle.
func (c *Checker) Check(ctx context.Context) error {
	started := time.Now()
	cycleID := uuid.NewString()
	log := c.log.With(zap.String("cycle_id", cycleID))

	uids, err := c.store.SubscribedUserIDs(ctx)
	if err != nil {
		return err
	}
	for _, uid := range uids {
		for _, info := range exchange.Supported() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := c.checkPair(ctx, log, cycleID, uid, info); err != nil {
				metrics.PairFailures.WithLabelValues(info.Name).Inc()
				log.Error("reconciliation failed for pair",
					zap.Int64("uid", uid),
					zap.String("exchange", info.Name),
					zap.Error(err))
			}
		}
	}

	metrics.CyclesTotal.Inc()
	metrics.CycleDuration.Observe(time.Since(started).Seconds())
	log.Info("reconciliation cycle done",
		zap.Int("users", len(uids)),
		zap.Duration("took", time.Since(started)))
	return nil
}

func (c *Checker) checkPair(ctx context.Context, log *zap.Logger, cycleID string, uid int64, info exchange.Info) error {
	apiKey, secret, ok, err := c.store.Credentials(ctx, uid, info.ID)
	if err != nil {
		return err
	}
	if !ok {
		return nil // user not subscribed on this exchange
	}

	api, err := c.newAdapter(info.ID, apiKey, secret, c.deps)
	if err != nil {
		return err
	}

	local, err := c.store.TrackedOrderIDs(ctx, uid, info.ID)
	if err != nil {
		return err
	}
	remote, err := api.OrderHistory(ctx)
	if err != nil {
		return err
	}

	newIDs := diff(remote, local)
	if len(newIDs) == 0 {
		log.Debug("no new orders",
			zap.Int64("uid", uid),
			zap.String("exchange", info.Name))
		return nil
	}

	// Persist before fetching details: a crash past this point may send
	// a duplicate on restart, but never loses a discovered id.
	refs := make([]registry.OrderRef, 0, len(newIDs))
	for _, id := range newIDs {
		refs = append(refs, registry.OrderRef{UID: uid, ExchangeID: info.ID, OrderID: id})
	}
	if err := c.store.AddTrackedOrderIDs(ctx, refs); err != nil {
		return err
	}

	for _, id := range newIDs {
		c.notifyOrder(ctx, log, cycleID, uid, info, api, id)
	}
	return nil
}

// notifyOrder handles a single discovered id. Failures stay inside: one
// broken order must not abort the remaining ids of the pair.
func (c *Checker) notifyOrder(ctx context.Context, log *zap.Logger, cycleID string, uid int64, info exchange.Info, api exchange.Api, orderID string) {
	order, err := api.OrderInfo(ctx, orderID)
	if err != nil {
		log.Error("order detail fetch failed",
			zap.Int64("uid", uid),
			zap.String("exchange", info.Name),
			zap.String("order_id", orderID),
			zap.Error(err))
		return
	}
	log.Info("new order discovered",
		zap.Int64("uid", uid),
		zap.String("exchange", info.Name),
		zap.String("order_id", orderID),
		zap.String("pair", order.Pair),
		zap.String("state", order.State.Label()))
	metrics.OrdersNotified.WithLabelValues(info.Name).Inc()
	c.notifier.Deliver(ctx, notify.Event{
		UserID:     uid,
		Exchange:   info.Name,
		ExchangeID: info.ID,
		OrderID:    orderID,
		Pair:       order.Pair,
		State:      order.State.String(),
		Text:       api.FormatOrder(order),
		CycleID:    cycleID,
		At:         time.Now().UTC(),
	})
}

// diff returns remote − local in deterministic order.
func diff(remote exchange.IDSet, local map[string]struct{}) []string {
	var out []string
	for id := range remote {
		if _, seen := local[id]; !seen {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-notifier-go/exchange"
	"order-notifier-go/registry"
)

// stubApi answers the subscribe-time history backfill.
type stubApi struct {
	info       exchange.Info
	history    exchange.IDSet
	historyErr error
}

func (s *stubApi) Info() exchange.Info { return s.info }

func (s *stubApi) OrderHistory(context.Context) (exchange.IDSet, error) {
	return s.history, s.historyErr
}

func (s *stubApi) OrderInfo(context.Context, string) (exchange.Order, error) {
	return exchange.Order{}, nil
}

func (s *stubApi) TickerURL(string) string             { return s.info.URL }
func (s *stubApi) FormatOrder(o exchange.Order) string { return o.OrderID }

const (
	validLiquiKey    = "A1B2C3D4-A1B2C3D4-A1B2C3D4-A1B2C3D4-A1B2C3D4"
	validLiquiSecret = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
)

func newTestBot(store registry.Store, stub *stubApi) *Bot {
	b := New(nil, store, exchange.Deps{}, nil)
	b.newAdapter = func(id int, _, _ string, _ exchange.Deps) (exchange.Api, error) {
		return stub, nil
	}
	return b
}

func TestHandleSubBackfillsAndSubscribes(t *testing.T) {
	ctx := context.Background()
	store := registry.NewMemoryStore()
	stub := &stubApi{info: exchange.LiquiInfo, history: exchange.IDSet{"111": {}, "222": {}}}
	b := newTestBot(store, stub)

	reply := b.handleSub(ctx, 42, "liqui "+validLiquiKey+" "+validLiquiSecret)
	assert.Equal(t, `You are subscribed to "liqui".`, reply)

	ok, err := store.IsSubscribed(ctx, 42, exchange.LiquiInfo.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// the existing history is pre-tracked so the first cycle stays silent
	tracked, err := store.TrackedOrderIDs(ctx, 42, exchange.LiquiInfo.ID)
	require.NoError(t, err)
	assert.Len(t, tracked, 2)
}

func TestHandleSubRejectsMalformedInput(t *testing.T) {
	ctx := context.Background()
	b := newTestBot(registry.NewMemoryStore(), &stubApi{info: exchange.LiquiInfo})

	assert.Contains(t, b.handleSub(ctx, 42, "liqui onlykey"), "Please specify exchange name with keys")
	assert.Equal(t, "Unsupported exchange.", b.handleSub(ctx, 42, "mtgox key secret"))
	// key format checked before any network call
	assert.Equal(t, "Invalid format.", b.handleSub(ctx, 42, "liqui badkey "+validLiquiSecret))
}

func TestHandleSubDuplicateRejected(t *testing.T) {
	ctx := context.Background()
	store := registry.NewMemoryStore()
	b := newTestBot(store, &stubApi{info: exchange.LiquiInfo, history: exchange.IDSet{}})

	require.Equal(t, `You are subscribed to "liqui".`,
		b.handleSub(ctx, 42, "liqui "+validLiquiKey+" "+validLiquiSecret))
	assert.Equal(t, `You are already subscribed to "liqui".`,
		b.handleSub(ctx, 42, "liqui "+validLiquiKey+" "+validLiquiSecret))
}

func TestHandleSubUnreachableExchange(t *testing.T) {
	ctx := context.Background()
	store := registry.NewMemoryStore()
	stub := &stubApi{info: exchange.LiquiInfo, historyErr: &exchange.APIError{Exchange: "liqui", Message: "invalid key"}}
	b := newTestBot(store, stub)

	reply := b.handleSub(ctx, 42, "liqui "+validLiquiKey+" "+validLiquiSecret)
	assert.Contains(t, reply, `Could not reach "liqui"`)

	// failed backfill must not leave a half-open subscription behind
	ok, err := store.IsSubscribed(ctx, 42, exchange.LiquiInfo.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandleUnsub(t *testing.T) {
	ctx := context.Background()
	store := registry.NewMemoryStore()
	b := newTestBot(store, &stubApi{info: exchange.LiquiInfo, history: exchange.IDSet{}})

	assert.Equal(t, `You are not subscribed to "liqui".`, b.handleUnsub(ctx, 42, "liqui"))
	assert.Contains(t, b.handleUnsub(ctx, 42, ""), "Please specify exchange name")
	assert.Equal(t, "Unsupported exchange.", b.handleUnsub(ctx, 42, "mtgox"))

	require.NoError(t, store.Subscribe(ctx, 42, exchange.LiquiInfo.ID, "k", "s"))
	assert.Equal(t, `You are unsubscribed from "liqui".`, b.handleUnsub(ctx, 42, "liqui"))
}

func TestHandleSubs(t *testing.T) {
	ctx := context.Background()
	store := registry.NewMemoryStore()
	b := newTestBot(store, &stubApi{info: exchange.LiquiInfo})

	assert.Equal(t, "You have no active subscriptions.", b.handleSubs(ctx, 42))

	require.NoError(t, store.Subscribe(ctx, 42, exchange.LiquiInfo.ID, "k", "s"))
	require.NoError(t, store.Subscribe(ctx, 42, exchange.KrakenInfo.ID, "k", "s"))
	reply := b.handleSubs(ctx, 42)
	assert.Contains(t, reply, "liqui")
	assert.Contains(t, reply, "kraken")
}

func TestHelpTextListsExchanges(t *testing.T) {
	b := newTestBot(registry.NewMemoryStore(), &stubApi{info: exchange.LiquiInfo})
	help := b.helpText()
	for _, info := range exchange.Supported() {
		assert.Contains(t, help, info.Name)
		assert.Contains(t, help, info.URL)
	}
	assert.Contains(t, help, "/sub")
	assert.Contains(t, help, "/unsub")
}

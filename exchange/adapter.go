package exchange

import (
	"context"
	"fmt"
	"regexp"
)

// Info carries the static, credential-free metadata of one exchange. The
// front end uses it to validate and label subscriptions without ever
// constructing an adapter.
type Info struct {
	ID            int
	Name          string
	URL           string
	KeyPattern    *regexp.Regexp
	SecretPattern *regexp.Regexp
}

// CheckKeys validates credential format only. No network call happens
// here; a mismatch is rejected before the request layer is ever reached.
func (i Info) CheckKeys(apiKey, secret string) bool {
	return i.KeyPattern.MatchString(apiKey) && i.SecretPattern.MatchString(secret)
}

// IDSet is a set of exchange-native order ids.
type IDSet map[string]struct{}

// Api is the per-exchange adapter contract. One implementation per
// exchange, each instance bound to a single user's credentials.
type Api interface {
	// Info returns the adapter's static metadata.
	Info() Info

	// OrderHistory returns every order id the exchange reports for the
	// authenticated account: the full known id universe as of now. How
	// that universe is assembled (closed orders, active plus historical
	// calls) is an adapter detail.
	OrderHistory(ctx context.Context) (IDSet, error)

	// OrderInfo fetches full detail for one id and maps it into the
	// canonical model, normalizing the pair to BASE-QUOTE.
	OrderInfo(ctx context.Context, orderID string) (Order, error)

	// TickerURL builds a display deep link for a pair. Pure string
	// construction, no failure path.
	TickerURL(pair string) string

	// FormatOrder renders the user-facing notification text.
	FormatOrder(o Order) string
}

// Deps are the shared collaborators an adapter needs beyond credentials.
type Deps struct {
	Client *Client
	Pairs  PairCache
}

// Supported lists all exchange infos in front-end display order.
func Supported() []Info {
	return []Info{LiquiInfo, BittrexInfo, KrakenInfo}
}

// ByName looks an exchange up by its display name.
func ByName(name string) (Info, bool) {
	for _, info := range Supported() {
		if info.Name == name {
			return info, true
		}
	}
	return Info{}, false
}

// ByID looks an exchange up by its numeric id.
func ByID(id int) (Info, bool) {
	for _, info := range Supported() {
		if info.ID == id {
			return info, true
		}
	}
	return Info{}, false
}

// New constructs the adapter for exchange id, bound to one user's
// credentials.
func New(id int, apiKey, secret string, deps Deps) (Api, error) {
	switch id {
	case LiquiInfo.ID:
		return NewLiqui(apiKey, secret, deps), nil
	case BittrexInfo.ID:
		return NewBittrex(apiKey, secret, deps), nil
	case KrakenInfo.ID:
		return NewKraken(apiKey, secret, deps)
	}
	return nil, fmt.Errorf("%w: id %d", ErrUnsupportedExchange, id)
}

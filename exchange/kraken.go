package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// KrakenInfo — public constants exposed to the front end.
var KrakenInfo = Info{
	ID:            3,
	Name:          "kraken",
	URL:           "https://www.kraken.com/",
	KeyPattern:    regexp.MustCompile(`^[a-zA-Z0-9/+]{56}$`),
	SecretPattern: regexp.MustCompile(`^[a-zA-Z0-9/+]{86}==$`),
}

const krakenBaseURL = "https://api.kraken.com"

// Kraken signs POST requests with HMAC-SHA512 over
// urlpath ‖ SHA256(nonce ‖ url-encoded-body), keyed by the base64-decoded
// secret; the signature goes base64-encoded into API-Sign.
type Kraken struct {
	apiKey  string
	secret  []byte // decoded
	baseURL string
	deps    Deps
}

func NewKraken(apiKey, secret string, deps Deps) (*Kraken, error) {
	decoded, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("kraken secret is not valid base64: %w", err)
	}
	return &Kraken{apiKey: apiKey, secret: decoded, baseURL: krakenBaseURL, deps: deps}, nil
}

func (k *Kraken) Info() Info { return KrakenInfo }

type krakenEnvelope struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

func krakenCheck(raw json.RawMessage) error {
	var env krakenEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrWrongContentType, err)
	}
	if len(env.Error) > 0 {
		return &APIError{Exchange: KrakenInfo.Name, Message: strings.Join(env.Error, "\n")}
	}
	return nil
}

func (k *Kraken) privateCall(urlpath string, params map[string]string) Call {
	return Call{
		Method: http.MethodPost,
		Prepare: func() (string, map[string]string, string) {
			values := url.Values{}
			for key, v := range params {
				values.Set(key, v)
			}
			nonce := strconv.FormatInt(timeNowMillis(), 10)
			values.Set("nonce", nonce)
			body := values.Encode()

			digest := sha256.Sum256([]byte(nonce + body))
			mac := hmac.New(sha512.New, k.secret)
			mac.Write([]byte(urlpath))
			mac.Write(digest[:])

			headers := map[string]string{
				"API-Key":      k.apiKey,
				"API-Sign":     base64.StdEncoding.EncodeToString(mac.Sum(nil)),
				"Content-Type": "application/x-www-form-urlencoded",
			}
			return k.baseURL + urlpath, headers, body
		},
		Check: krakenCheck,
	}
}

func (k *Kraken) private(ctx context.Context, urlpath string, params map[string]string, out any) error {
	raw, err := k.deps.Client.Do(ctx, k.privateCall(urlpath, params))
	if err != nil {
		return err
	}
	var env krakenEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrWrongContentType, err)
	}
	return json.Unmarshal(env.Result, out)
}

// OrderHistory returns the closed-order id set: kraken's ClosedOrders is
// the authoritative record of every order that has left the book.
func (k *Kraken) OrderHistory(ctx context.Context) (IDSet, error) {
	var result struct {
		Closed map[string]json.RawMessage `json:"closed"`
	}
	if err := k.private(ctx, "/0/private/ClosedOrders", nil, &result); err != nil {
		return nil, err
	}
	ids := IDSet{}
	for id := range result.Closed {
		ids[id] = struct{}{}
	}
	return ids, nil
}

type krakenOrder struct {
	Status  string          `json:"status"`
	Vol     decimal.Decimal `json:"vol"`
	VolExec decimal.Decimal `json:"vol_exec"`
	Descr   struct {
		Type  string          `json:"type"`
		Pair  string          `json:"pair"`
		Price decimal.Decimal `json:"price"`
	} `json:"descr"`
}

func (k *Kraken) OrderInfo(ctx context.Context, orderID string) (Order, error) {
	var result map[string]krakenOrder
	if err := k.private(ctx, "/0/private/QueryOrders", map[string]string{"txid": orderID}, &result); err != nil {
		return Order{}, err
	}
	raw, ok := result[orderID]
	if !ok {
		return Order{}, &APIError{Exchange: KrakenInfo.Name, Message: "order " + orderID + " missing from QueryOrders result"}
	}
	state, err := k.orderState(orderID, raw)
	if err != nil {
		return Order{}, err
	}
	side, err := ParseSide(raw.Descr.Type)
	if err != nil {
		return Order{}, &StateError{Exchange: KrakenInfo.Name, OrderID: orderID, Details: err.Error()}
	}
	pair, err := k.resolvePair(ctx, raw.Descr.Pair)
	if err != nil {
		return Order{}, err
	}
	return Order{
		ExchangeID: KrakenInfo.ID,
		OrderID:    orderID,
		Side:       side,
		Pair:       pair,
		Price:      raw.Descr.Price,
		Amount:     raw.Vol,
		State:      state,
	}, nil
}

// orderState maps kraken's documented statuses. "pending" is the
// pre-book state and still counts as active; anything undocumented is a
// classification error, never a silent ACTIVE.
func (k *Kraken) orderState(orderID string, o krakenOrder) (State, error) {
	if o.Status == "canceled" && o.VolExec.IsPositive() {
		return StateCanceledPartiallyFilled, nil
	}
	switch o.Status {
	case "pending", "open":
		return StateActive, nil
	case "closed":
		return StateExecuted, nil
	case "canceled":
		return StateCanceled, nil
	case "expired":
		return StateExpired, nil
	}
	return 0, &StateError{
		Exchange: KrakenInfo.Name, OrderID: orderID,
		Details: fmt.Sprintf("status %q", o.Status),
	}
}

// resolvePair normalizes a native pair code ("XXBTZEUR") to BASE-QUOTE
// via the public AssetPairs endpoint. More than one match means the code
// is ambiguous and the order fails rather than guessing.
func (k *Kraken) resolvePair(ctx context.Context, native string) (string, error) {
	if k.deps.Pairs != nil {
		if pair, ok := k.deps.Pairs.GetPair(ctx, native); ok {
			return pair, nil
		}
	}
	lookup := k.baseURL + "/0/public/AssetPairs?pair=" + url.QueryEscape(native)
	raw, err := k.deps.Client.Do(ctx, Call{
		Method: http.MethodGet,
		Prepare: func() (string, map[string]string, string) {
			return lookup, nil, ""
		},
		Check: krakenCheck,
	})
	if err != nil {
		return "", err
	}
	var env krakenEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrongContentType, err)
	}
	var result map[string]struct {
		Base  string `json:"base"`
		Quote string `json:"quote"`
	}
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrongContentType, err)
	}
	if len(result) == 0 {
		return "", &APIError{Exchange: KrakenInfo.Name, Message: "pair " + native + " not found"}
	}
	if len(result) > 1 {
		matches := make([]string, 0, len(result))
		for name := range result {
			matches = append(matches, name)
		}
		return "", &AmbiguousPairError{Pair: native, Matches: matches}
	}
	var pair string
	for _, info := range result {
		pair = strings.ToUpper(info.Base) + "-" + strings.ToUpper(info.Quote)
	}
	if k.deps.Pairs != nil {
		k.deps.Pairs.PutPair(ctx, native, pair)
	}
	return pair, nil
}

// TickerURL: kraken has no per-pair chart deep link, the generic charts
// page is the closest thing.
func (k *Kraken) TickerURL(string) string {
	return "https://www.kraken.com/charts"
}

func (k *Kraken) FormatOrder(o Order) string {
	return formatOrder(KrakenInfo.Name, k.TickerURL(o.Pair), o)
}

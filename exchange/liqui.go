package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// LiquiInfo — public constants exposed to the front end.
var LiquiInfo = Info{
	ID:            1,
	Name:          "liqui",
	URL:           "https://liqui.io/",
	KeyPattern:    regexp.MustCompile(`^\w{8}-\w{8}-\w{8}-\w{8}-\w{8}$`), // A1B2C3D4-A1B2C3D4-A1B2C3D4-A1B2C3D4-A1B2C3D4
	SecretPattern: regexp.MustCompile(`^\w{64}$`),
}

const liquiTapiURL = "https://api.liqui.io/tapi"

// Liqui signs the urlencoded POST body (millisecond nonce included) with
// HMAC-SHA512 over the raw secret; hex signature in the Sign header, api
// key in the Key header.
type Liqui struct {
	apiKey  string
	secret  string
	tapiURL string
	deps    Deps
}

func NewLiqui(apiKey, secret string, deps Deps) *Liqui {
	return &Liqui{apiKey: apiKey, secret: secret, tapiURL: liquiTapiURL, deps: deps}
}

func (l *Liqui) Info() Info { return LiquiInfo }

type liquiEnvelope struct {
	Success int             `json:"success"`
	Error   string          `json:"error"`
	Return  json.RawMessage `json:"return"`
}

func (l *Liqui) tapiCall(method string, params map[string]string) Call {
	return Call{
		Method: http.MethodPost,
		Prepare: func() (string, map[string]string, string) {
			values := url.Values{}
			for k, v := range params {
				values.Set(k, v)
			}
			values.Set("method", method)
			values.Set("nonce", strconv.FormatInt(timeNowMillis(), 10))
			body := values.Encode()
			mac := hmac.New(sha512.New, []byte(l.secret))
			mac.Write([]byte(body))
			headers := map[string]string{
				"Key":          l.apiKey,
				"Sign":         hex.EncodeToString(mac.Sum(nil)),
				"Content-Type": "application/x-www-form-urlencoded",
			}
			return l.tapiURL, headers, body
		},
		Check: func(raw json.RawMessage) error {
			var env liquiEnvelope
			if err := json.Unmarshal(raw, &env); err != nil {
				return fmt.Errorf("%w: %v", ErrWrongContentType, err)
			}
			if env.Error != "" {
				// "no orders" is a well-formed empty result, not a fault.
				if env.Error == "no orders" {
					return ErrNoOrders
				}
				return &APIError{Exchange: LiquiInfo.Name, Message: env.Error}
			}
			return nil
		},
	}
}

func (l *Liqui) tapi(ctx context.Context, method string, params map[string]string, out any) error {
	raw, err := l.deps.Client.Do(ctx, l.tapiCall(method, params))
	if err != nil {
		return err
	}
	var env liquiEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrWrongContentType, err)
	}
	return json.Unmarshal(env.Return, out)
}

type liquiOrder struct {
	Pair        string          `json:"pair"`
	Type        string          `json:"type"`
	StartAmount decimal.Decimal `json:"start_amount"`
	Amount      decimal.Decimal `json:"amount"`
	Rate        decimal.Decimal `json:"rate"`
	Status      int             `json:"status"`
}

type liquiTrade struct {
	OrderID int64 `json:"order_id"`
}

// OrderHistory unions active order ids with the order ids behind the
// account's trade history; liqui has no single endpoint covering both.
func (l *Liqui) OrderHistory(ctx context.Context) (IDSet, error) {
	ids := IDSet{}

	var active map[string]liquiOrder
	if err := l.tapi(ctx, "ActiveOrders", map[string]string{"pair": ""}, &active); err != nil {
		if !errors.Is(err, ErrNoOrders) {
			return nil, err
		}
	}
	for id := range active {
		ids[id] = struct{}{}
	}

	var trades map[string]liquiTrade
	if err := l.tapi(ctx, "TradeHistory", nil, &trades); err != nil {
		if !errors.Is(err, ErrNoOrders) {
			return nil, err
		}
	}
	for _, t := range trades {
		ids[strconv.FormatInt(t.OrderID, 10)] = struct{}{}
	}
	return ids, nil
}

func (l *Liqui) OrderInfo(ctx context.Context, orderID string) (Order, error) {
	var result map[string]liquiOrder
	if err := l.tapi(ctx, "OrderInfo", map[string]string{"order_id": orderID}, &result); err != nil {
		return Order{}, err
	}
	raw, ok := result[orderID]
	if !ok {
		return Order{}, &APIError{Exchange: LiquiInfo.Name, Message: "order " + orderID + " missing from OrderInfo result"}
	}
	state, err := l.orderState(orderID, raw.Status)
	if err != nil {
		return Order{}, err
	}
	side, err := ParseSide(raw.Type)
	if err != nil {
		return Order{}, &StateError{Exchange: LiquiInfo.Name, OrderID: orderID, Details: err.Error()}
	}
	return Order{
		ExchangeID: LiquiInfo.ID,
		OrderID:    orderID,
		Side:       side,
		Pair:       liquiPair(raw.Pair),
		Price:      raw.Rate,
		Amount:     raw.StartAmount, // size at placement; "amount" is what remains
		State:      state,
	}, nil
}

// orderState maps liqui's documented numeric statuses: 0 active,
// 1 executed, 2 canceled, 3 canceled with partial fill.
func (l *Liqui) orderState(orderID string, status int) (State, error) {
	switch status {
	case 0:
		return StateActive, nil
	case 1:
		return StateExecuted, nil
	case 2:
		return StateCanceled, nil
	case 3:
		return StateCanceledPartiallyFilled, nil
	}
	return 0, &StateError{
		Exchange: LiquiInfo.Name, OrderID: orderID,
		Details: fmt.Sprintf("status %d", status),
	}
}

// liquiPair turns "eth_btc" into "ETH-BTC".
func liquiPair(native string) string {
	parts := strings.Split(native, "_")
	for i, p := range parts {
		parts[i] = strings.ToUpper(p)
	}
	return strings.Join(parts, "-")
}

func (l *Liqui) TickerURL(pair string) string {
	return "https://liqui.io/#/exchange/" + strings.ReplaceAll(pair, "-", "_")
}

func (l *Liqui) FormatOrder(o Order) string {
	return formatOrder(LiquiInfo.Name, l.TickerURL(o.Pair), o)
}

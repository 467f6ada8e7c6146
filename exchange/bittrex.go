package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// BittrexInfo — public constants exposed to the front end.
var BittrexInfo = Info{
	ID:            2,
	Name:          "bittrex",
	URL:           "https://bittrex.com/",
	KeyPattern:    regexp.MustCompile(`^\w{32}$`), // a1s2d3f4g5h6j7k8l9a1s2d3f4g5h6j7
	SecretPattern: regexp.MustCompile(`^\w{32}$`),
}

const bittrexBaseURL = "https://bittrex.com/api/v1.1"

// Bittrex signs the fully assembled query string (public api key plus a
// millisecond nonce included) with HMAC-SHA512 over the raw secret; the
// hex signature travels in the apisign header of a GET.
type Bittrex struct {
	apiKey  string
	secret  string
	baseURL string
	deps    Deps
}

func NewBittrex(apiKey, secret string, deps Deps) *Bittrex {
	return &Bittrex{apiKey: apiKey, secret: secret, baseURL: bittrexBaseURL, deps: deps}
}

func (b *Bittrex) Info() Info { return BittrexInfo }

type bittrexEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func (b *Bittrex) signedCall(path string, params map[string]string) Call {
	return Call{
		Method: http.MethodGet,
		Prepare: func() (string, map[string]string, string) {
			values := url.Values{}
			for k, v := range params {
				values.Set(k, v)
			}
			values.Set("apikey", b.apiKey)
			values.Set("nonce", strconv.FormatInt(timeNowMillis(), 10))
			full := b.baseURL + path + "?" + values.Encode()
			mac := hmac.New(sha512.New, []byte(b.secret))
			mac.Write([]byte(full))
			headers := map[string]string{"apisign": hex.EncodeToString(mac.Sum(nil))}
			return full, headers, ""
		},
		Check: func(raw json.RawMessage) error {
			var env bittrexEnvelope
			if err := json.Unmarshal(raw, &env); err != nil {
				return fmt.Errorf("%w: %v", ErrWrongContentType, err)
			}
			if !env.Success {
				return &APIError{Exchange: BittrexInfo.Name, Message: env.Message}
			}
			return nil
		},
	}
}

func (b *Bittrex) result(ctx context.Context, path string, params map[string]string, out any) error {
	raw, err := b.deps.Client.Do(ctx, b.signedCall(path, params))
	if err != nil {
		return err
	}
	var env bittrexEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrWrongContentType, err)
	}
	return json.Unmarshal(env.Result, out)
}

type bittrexOrder struct {
	OrderUUID         string          `json:"OrderUuid"`
	Exchange          string          `json:"Exchange"`
	Type              string          `json:"Type"`
	OrderType         string          `json:"OrderType"`
	Limit             decimal.Decimal `json:"Limit"`
	Quantity          decimal.Decimal `json:"Quantity"`
	QuantityRemaining decimal.Decimal `json:"QuantityRemaining"`
	Closed            *string         `json:"Closed"`
	IsOpen            bool            `json:"IsOpen"`
	CancelInitiated   bool            `json:"CancelInitiated"`
}

// OrderHistory unions open and historical order ids: bittrex has no
// single endpoint covering the whole id universe.
func (b *Bittrex) OrderHistory(ctx context.Context) (IDSet, error) {
	ids := IDSet{}
	for _, path := range []string{"/market/getopenorders", "/account/getorderhistory"} {
		var orders []bittrexOrder
		if err := b.result(ctx, path, nil, &orders); err != nil {
			return nil, err
		}
		for _, o := range orders {
			ids[o.OrderUUID] = struct{}{}
		}
	}
	return ids, nil
}

func (b *Bittrex) OrderInfo(ctx context.Context, orderID string) (Order, error) {
	var raw bittrexOrder
	if err := b.result(ctx, "/account/getorder", map[string]string{"uuid": orderID}, &raw); err != nil {
		return Order{}, err
	}
	state, err := b.orderState(orderID, raw)
	if err != nil {
		return Order{}, err
	}
	side, err := bittrexSide(raw.Type)
	if err != nil {
		return Order{}, &StateError{Exchange: BittrexInfo.Name, OrderID: orderID, Details: err.Error()}
	}
	return Order{
		ExchangeID: BittrexInfo.ID,
		OrderID:    orderID,
		Side:       side,
		Pair:       strings.ToUpper(raw.Exchange),
		Price:      raw.Limit,
		Amount:     raw.Quantity,
		State:      state,
	}, nil
}

// orderState classifies the Closed/IsOpen/QuantityRemaining combination.
// bittrex reports the same order through several flags that can disagree;
// any contradiction is surfaced instead of guessed around.
func (b *Bittrex) orderState(orderID string, o bittrexOrder) (State, error) {
	if o.QuantityRemaining.IsNegative() || o.QuantityRemaining.GreaterThan(o.Quantity) {
		return 0, &StateError{
			Exchange: BittrexInfo.Name, OrderID: orderID,
			Details: fmt.Sprintf("remaining %s outside [0, %s]", o.QuantityRemaining, o.Quantity),
		}
	}
	if o.Closed == nil {
		if !o.IsOpen {
			return 0, &StateError{
				Exchange: BittrexInfo.Name, OrderID: orderID,
				Details: "not open but close timestamp missing",
			}
		}
		return StateActive, nil
	}
	if o.IsOpen {
		return 0, &StateError{
			Exchange: BittrexInfo.Name, OrderID: orderID,
			Details: "open flag set but close timestamp present",
		}
	}
	switch {
	case o.QuantityRemaining.IsZero():
		return StateExecuted, nil
	case o.QuantityRemaining.Equal(o.Quantity):
		return StateCanceled, nil
	default:
		return StateCanceledPartiallyFilled, nil
	}
}

func bittrexSide(orderType string) (Side, error) {
	switch {
	case strings.HasSuffix(orderType, "_SELL"):
		return SideSell, nil
	case strings.HasSuffix(orderType, "_BUY"):
		return SideBuy, nil
	}
	return "", fmt.Errorf("unknown bittrex order type %q", orderType)
}

func (b *Bittrex) TickerURL(pair string) string {
	return "https://bittrex.com/Market/Index?MarketName=" + pair
}

func (b *Bittrex) FormatOrder(o Order) string {
	return formatOrder(BittrexInfo.Name, b.TickerURL(o.Pair), o)
}

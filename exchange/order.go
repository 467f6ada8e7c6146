package exchange

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Side 订单方向
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide maps an exchange-native side string onto Side.
func ParseSide(s string) (Side, error) {
	switch s {
	case "buy":
		return SideBuy, nil
	case "sell":
		return SideSell, nil
	}
	return "", fmt.Errorf("unknown order side %q", s)
}

// State is the canonical order lifecycle state. Every value except
// StateActive is terminal: an order observed in a terminal state never
// returns to active.
type State uint8

const (
	StateActive State = iota
	StateExecuted
	StateCanceled
	StateCanceledPartiallyFilled
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "ACTIVE"
	case StateExecuted:
		return "EXECUTED"
	case StateCanceled:
		return "CANCELED"
	case StateCanceledPartiallyFilled:
		return "CANCELED_PARTIALLY_FILLED"
	case StateExpired:
		return "EXPIRED"
	}
	return "UNKNOWN"
}

// Terminal reports whether the state closes the order lifecycle.
func (s State) Terminal() bool {
	return s != StateActive
}

// stateLabels 展示用状态文案，终态带标记
var stateLabels = map[State]string{
	StateActive:                  "active",
	StateExecuted:                "✅ executed",
	StateCanceled:                "❌ canceled",
	StateCanceledPartiallyFilled: "❌ canceled, partially filled",
	StateExpired:                 "⌛ expired",
}

// Label returns the human-readable display text for the state.
func (s State) Label() string {
	if l, ok := stateLabels[s]; ok {
		return l
	}
	return s.String()
}

// Order is the normalized, exchange-agnostic view of one trade order.
// Constructed fresh on every fetch and never mutated afterwards.
type Order struct {
	ExchangeID int
	OrderID    string
	Side       Side
	Pair       string // BASE-QUOTE, uppercase
	Price      decimal.Decimal
	Amount     decimal.Decimal // size at placement, not remaining
	State      State
}

package exchange

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseSide(t *testing.T) {
	if s, err := ParseSide("buy"); err != nil || s != SideBuy {
		t.Fatalf("got %q %v", s, err)
	}
	if s, err := ParseSide("sell"); err != nil || s != SideSell {
		t.Fatalf("got %q %v", s, err)
	}
	if _, err := ParseSide("hold"); err == nil {
		t.Fatal("unknown side must fail")
	}
}

func TestStateTerminal(t *testing.T) {
	if StateActive.Terminal() {
		t.Fatal("active is not terminal")
	}
	for _, s := range []State{StateExecuted, StateCanceled, StateCanceledPartiallyFilled, StateExpired} {
		if !s.Terminal() {
			t.Fatalf("%s must be terminal", s)
		}
	}
}

func TestStateLabels(t *testing.T) {
	cases := map[State]string{
		StateActive:                  "active",
		StateExecuted:                "✅ executed",
		StateCanceled:                "❌ canceled",
		StateCanceledPartiallyFilled: "❌ canceled, partially filled",
		StateExpired:                 "⌛ expired",
	}
	for state, want := range cases {
		if got := state.Label(); got != want {
			t.Errorf("%s: want %q, got %q", state, want, got)
		}
	}
	if State(99).Label() != "UNKNOWN" {
		t.Errorf("out-of-range state must fall back to String()")
	}
}

func TestFormatOrder(t *testing.T) {
	o := Order{
		Pair:   "ETH-BTC",
		Price:  decimal.RequireFromString("0.05"),
		Amount: decimal.RequireFromString("5"),
		State:  StateExecuted,
	}
	got := formatOrder("liqui", "https://liqui.io/#/exchange/ETH_BTC", o)

	for _, want := range []string{
		"*Exchange:* liqui",
		"*Pair:* [ETH-BTC](https://liqui.io/#/exchange/ETH_BTC)",
		"*Price:* 0.05000000",
		"*Amount:* 5.00000000",
		"*State:* ✅ executed",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

package exchange

import "fmt"

// formatOrder renders the shared Markdown notification body. Price and
// amount are fixed to 8 decimals at display time only; the stored values
// keep exchange-native precision.
func formatOrder(name, tickerURL string, o Order) string {
	return fmt.Sprintf(
		"*Exchange:* %s\n"+
			"*Pair:* [%s](%s)\n"+
			"*Price:* %s\n"+
			"*Amount:* %s\n"+
			"*State:* %s",
		name,
		o.Pair, tickerURL,
		o.Price.StringFixed(8),
		o.Amount.StringFixed(8),
		o.State.Label(),
	)
}

package transform

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Grouping is pinned to English so output never depends on the host locale.
var currencyPrinter = message.NewPrinter(language.English)

// FormatCurrency renders an amount as whole dollars with comma grouping,
// e.g. 1234567 -> "$1,234,567". Zero and non-finite values render "$0".
// Halves round to even.
func FormatCurrency(amount float64) string {
	if amount == 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "$0"
	}
	return "$" + currencyPrinter.Sprintf("%d", int64(math.RoundToEven(amount)))
}

// FormatCurrencyPtr is FormatCurrency for an optional amount; nil renders "$0".
func FormatCurrencyPtr(amount *float64) string {
	if amount == nil {
		return "$0"
	}
	return FormatCurrency(*amount)
}

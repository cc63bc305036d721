package pricing

import (
	"github.com/shopspring/decimal"
)

const (
	moneyPlaces = 2
	unitPlaces  = 4
)

var one = decimal.NewFromInt(1)

// RoundMoney rounds to cents, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// FormatMoney renders an amount as "$48.00" or "-$2.40".
func FormatMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(moneyPlaces)
	}
	return "$" + d.StringFixed(moneyPlaces)
}

// FormatUnitPrice renders a per-piece price with four decimal places.
func FormatUnitPrice(d decimal.Decimal) string {
	return "$" + d.StringFixed(unitPlaces)
}

// formatRate renders a per-unit rate with at least cents, keeping any
// sub-cent digits: 0.01 is "$0.01", 0.0125 is "$0.0125".
func formatRate(d decimal.Decimal) string {
	if d.Round(moneyPlaces).Equal(d) {
		return "$" + d.StringFixed(moneyPlaces)
	}
	return "$" + d.String()
}

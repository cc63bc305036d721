package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Aggregate totals a cost trace and its priced add-ons. Positive add-on
// amounts sum into AddOnsCost, negative ones into DiscountAmount, which is
// always reported as a non-negative figure.
func Aggregate(trace CostTrace, lines []AddOnLine, quantity int64) (Result, error) {
	if quantity <= 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}

	subtotal := RoundMoney(trace.Subtotal)
	addOnsCost := decimal.Zero
	discount := decimal.Zero
	for _, line := range lines {
		switch {
		case line.Amount.IsPositive():
			addOnsCost = addOnsCost.Add(line.Amount)
		case line.Amount.IsNegative():
			discount = discount.Sub(line.Amount)
		}
	}

	total := subtotal.Add(addOnsCost).Sub(discount)
	if !total.IsPositive() {
		return Result{}, fmt.Errorf("%w: subtotal %s, add-ons %s, discount %s", ErrNegativeTotal,
			FormatMoney(subtotal), FormatMoney(addOnsCost), FormatMoney(discount))
	}

	if lines == nil {
		lines = []AddOnLine{}
	}

	return Result{
		Quantity:       quantity,
		Cost:           trace,
		AddOns:         lines,
		Subtotal:       subtotal,
		AddOnsCost:     addOnsCost,
		DiscountAmount: discount,
		TotalPrice:     total,
		UnitPrice:      total.DivRound(decimal.NewFromInt(quantity), unitPlaces),
	}, nil
}

package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ResolvedRate is the effective price per square inch for a paper stock
// together with the markup of the stock that was actually requested.
type ResolvedRate struct {
	PaperStockID       int64
	PricePerSquareInch decimal.Decimal
	MarkupMultiplier   decimal.Decimal
}

// Resolve looks up a paper stock and applies its substitution rule. The price
// comes from the substitute when one is set; the markup never does.
func Resolve(catalog Catalog, paperStockID int64) (ResolvedRate, error) {
	requested, ok := catalog.PaperStock(paperStockID)
	if !ok {
		return ResolvedRate{}, fmt.Errorf("%w: %d", ErrUnknownPaperStock, paperStockID)
	}

	price := requested.PricePerSquareInch
	if requested.SubstituteOf != nil {
		// One level only: the substitute's own substitution is not followed.
		substitute, ok := catalog.PaperStock(*requested.SubstituteOf)
		if !ok {
			return ResolvedRate{}, fmt.Errorf("%w: %d (substitute of %d)", ErrUnknownPaperStock, *requested.SubstituteOf, paperStockID)
		}
		price = substitute.PricePerSquareInch
	}

	return ResolvedRate{
		PaperStockID:       requested.ID,
		PricePerSquareInch: price,
		MarkupMultiplier:   requested.MarkupMultiplier,
	}, nil
}

// CostInput carries everything ComputeCost needs. DoubleSidedMultiplier is
// the configured multiplier for double-sided printing, zero when unset.
type CostInput struct {
	Rate                  ResolvedRate
	TurnaroundMultiplier  decimal.Decimal
	DoubleSidedMultiplier decimal.Decimal
	Width                 decimal.Decimal
	Height                decimal.Decimal
	Quantity              int64
	Sides                 Sides
}

// ComputeCost applies area, base cost, markup and turnaround in that order.
// No rounding happens here; every value in the trace is exact.
func ComputeCost(in CostInput) (CostTrace, error) {
	if !in.Width.IsPositive() || !in.Height.IsPositive() {
		return CostTrace{}, fmt.Errorf("%w: %s x %s", ErrInvalidDimensions, in.Width, in.Height)
	}
	if in.Quantity <= 0 {
		return CostTrace{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, in.Quantity)
	}

	sidesMultiplier, err := sidesMultiplierFor(in.Sides, in.DoubleSidedMultiplier)
	if err != nil {
		return CostTrace{}, err
	}

	squareInches := in.Width.Mul(in.Height)
	baseCost := in.Rate.PricePerSquareInch.
		Mul(sidesMultiplier).
		Mul(squareInches).
		Mul(decimal.NewFromInt(in.Quantity))
	// Markup before turnaround: same-day options carry 1.0 so the marked-up
	// cost is not marked up a second time.
	markedUp := baseCost.Mul(in.Rate.MarkupMultiplier)
	subtotal := markedUp.Mul(in.TurnaroundMultiplier)

	return CostTrace{
		SquareInches:         squareInches,
		PricePerSquareInch:   in.Rate.PricePerSquareInch,
		SidesMultiplier:      sidesMultiplier,
		BaseCost:             baseCost,
		MarkupMultiplier:     in.Rate.MarkupMultiplier,
		MarkedUpCost:         markedUp,
		TurnaroundMultiplier: in.TurnaroundMultiplier,
		Subtotal:             subtotal,
	}, nil
}

func sidesMultiplierFor(sides Sides, doubleSided decimal.Decimal) (decimal.Decimal, error) {
	switch sides {
	case SidesSingle:
		return one, nil
	case SidesDouble:
		if !doubleSided.IsPositive() {
			return decimal.Decimal{}, fmt.Errorf("%w: no double-sided multiplier configured", ErrMissingSidesMultiplier)
		}
		return doubleSided, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("%w: sides %q", ErrMissingSidesMultiplier, sides)
	}
}

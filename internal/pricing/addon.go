package pricing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// PricingModel is the stored pricing model name of an add-on.
type PricingModel string

const (
	ModelFlat       PricingModel = "FLAT"
	ModelPerUnit    PricingModel = "PER_UNIT"
	ModelPercentage PricingModel = "PERCENTAGE"
	ModelCustom     PricingModel = "CUSTOM"
)

// AddOnPricing is one of Flat, PerUnit, Percentage, CustomFormula or
// CustomSidesTier.
type AddOnPricing interface {
	model() PricingModel
}

// Flat charges Price once per order.
type Flat struct {
	Price decimal.Decimal
}

// PerUnit charges UnitPrice for every piece.
type PerUnit struct {
	UnitPrice decimal.Decimal
}

// Percentage charges Percent of the marked-up cost. A negative Percent is a
// discount.
type Percentage struct {
	Percent decimal.Decimal
}

// CustomFormula charges a setup fee plus a per-piece surcharge.
type CustomFormula struct {
	Base      decimal.Decimal
	UnitPrice decimal.Decimal
}

// CustomSidesTier charges one of two flat prices depending on the sides
// chosen for the add-on itself.
type CustomSidesTier struct {
	OneSide  decimal.Decimal
	TwoSides decimal.Decimal
}

func (Flat) model() PricingModel            { return ModelFlat }
func (PerUnit) model() PricingModel         { return ModelPerUnit }
func (Percentage) model() PricingModel      { return ModelPercentage }
func (CustomFormula) model() PricingModel   { return ModelCustom }
func (CustomSidesTier) model() PricingModel { return ModelCustom }

// SidesTierPrices are the two tier prices of a sides-tiered CUSTOM add-on.
type SidesTierPrices struct {
	OneSide  decimal.Decimal
	TwoSides decimal.Decimal
}

// NewAddOnPricing builds the pricing variant for a stored add-on record.
// A CUSTOM record with tier prices becomes CustomSidesTier, otherwise
// CustomFormula.
func NewAddOnPricing(model PricingModel, basePrice, perUnitPrice, percentage decimal.Decimal, tiers *SidesTierPrices) (AddOnPricing, error) {
	switch model {
	case ModelFlat:
		return Flat{Price: basePrice}, nil
	case ModelPerUnit:
		return PerUnit{UnitPrice: perUnitPrice}, nil
	case ModelPercentage:
		return Percentage{Percent: percentage}, nil
	case ModelCustom:
		if tiers != nil {
			return CustomSidesTier{OneSide: tiers.OneSide, TwoSides: tiers.TwoSides}, nil
		}
		return CustomFormula{Base: basePrice, UnitPrice: perUnitPrice}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedPricingModel, model)
	}
}

// PriceAddOn prices one selected add-on. Percentages are taken against the
// marked-up cost, before turnaround.
func PriceAddOn(def AddOnDefinition, selected SelectedAddOn, quantity int64, markedUpCost decimal.Decimal) (AddOnLine, error) {
	qty := decimal.NewFromInt(quantity)

	var (
		amount decimal.Decimal
		detail string
	)
	switch p := def.Pricing.(type) {
	case Flat:
		amount = p.Price
		detail = "flat " + FormatMoney(p.Price)
	case PerUnit:
		amount = p.UnitPrice.Mul(qty)
		detail = fmt.Sprintf("%d × %s", quantity, formatRate(p.UnitPrice))
	case Percentage:
		amount = markedUpCost.Mul(p.Percent).Shift(-2)
		detail = fmt.Sprintf("%s%% of %s", p.Percent.String(), FormatMoney(RoundMoney(markedUpCost)))
	case CustomFormula:
		amount = p.Base.Add(p.UnitPrice.Mul(qty))
		detail = fmt.Sprintf("%s setup + %d × %s", FormatMoney(p.Base), quantity, formatRate(p.UnitPrice))
	case CustomSidesTier:
		switch selected.Sides {
		case SidesSingle:
			amount = p.OneSide
			detail = "one side"
		case SidesDouble:
			amount = p.TwoSides
			detail = "two sides"
		default:
			return AddOnLine{}, fmt.Errorf("%w: add-on %d needs a sides selection, got %q", ErrMissingSubOption, def.ID, selected.Sides)
		}
	default:
		return AddOnLine{}, fmt.Errorf("%w: add-on %d has model %q", ErrUnsupportedPricingModel, def.ID, def.Model)
	}

	amount = RoundMoney(amount)
	return AddOnLine{
		AddOnID:     def.ID,
		Name:        def.Name,
		Amount:      amount,
		Description: describe(def.Name, selected.Options, detail, amount),
	}, nil
}

func describe(name string, options map[string]string, detail string, amount decimal.Decimal) string {
	var b strings.Builder
	b.WriteString(name)
	if len(options) > 0 {
		keys := make([]string, 0, len(options))
		for k := range options {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+options[k])
		}
		b.WriteString(" [" + strings.Join(parts, ", ") + "]")
	}
	b.WriteString(" (" + detail + "): " + FormatMoney(amount))
	return b.String()
}

package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Sides is the number of printed faces, either on the order itself or on a
// sides-tiered add-on selection.
type Sides string

const (
	SidesSingle Sides = "single"
	SidesDouble Sides = "double"
)

// TurnaroundCategory groups turnaround options by production speed.
type TurnaroundCategory string

const (
	CategorySameDay  TurnaroundCategory = "same-day"
	CategoryNextDay  TurnaroundCategory = "next-day"
	CategoryStandard TurnaroundCategory = "standard"
	CategoryEconomy  TurnaroundCategory = "economy"
)

// PaperStockRate is the catalog entry for a purchasable paper stock.
type PaperStockRate struct {
	ID                 int64
	Name               string
	PricePerSquareInch decimal.Decimal
	// SubstituteOf points at the stock whose price per square inch is used
	// instead of this one. Markup is never taken from the substitute.
	SubstituteOf     *int64
	MarkupMultiplier decimal.Decimal
}

// TurnaroundOption is a selectable production speed.
type TurnaroundOption struct {
	ID             int64
	Name           string
	Category       TurnaroundCategory
	ProductionDays int
	Multiplier     decimal.Decimal
}

// AddOnDefinition is a selectable extra. Pricing is nil when the stored
// pricing model is not one the engine knows.
type AddOnDefinition struct {
	ID              int64
	Name            string
	Model           PricingModel
	Pricing         AddOnPricing
	SubOptionSchema []SubOptionField
}

// SubOptionField describes a parameter an order supplies with an add-on.
type SubOptionField struct {
	Name    string   `json:"name" yaml:"name"`
	Label   string   `json:"label,omitempty" yaml:"label,omitempty"`
	Choices []string `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// SelectedAddOn is one add-on chosen on a request. Sides selects the tier of
// a sides-tiered add-on and is independent from Request.Sides. Options are
// descriptive values already validated by the catalog layer.
type SelectedAddOn struct {
	AddOnID int64             `json:"add_on_id"`
	Sides   Sides             `json:"sides,omitempty"`
	Options map[string]string `json:"options,omitempty"`
}

// Request is the fully resolved input of a price calculation.
type Request struct {
	PaperStockID int64           `json:"paper_stock_id"`
	TurnaroundID int64           `json:"turnaround_id"`
	Quantity     int64           `json:"quantity"`
	Width        decimal.Decimal `json:"width"`
	Height       decimal.Decimal `json:"height"`
	Sides        Sides           `json:"sides"`
	AddOns       []SelectedAddOn `json:"add_ons,omitempty"`
}

// Catalog is the read-only rate data the engine prices against. Callers pass
// a snapshot that does not change for the duration of a call.
type Catalog interface {
	PaperStock(id int64) (PaperStockRate, bool)
	Turnaround(id int64) (TurnaroundOption, bool)
	AddOn(id int64) (AddOnDefinition, bool)
	// DoubleSidedMultiplier reports false when no multiplier is configured.
	DoubleSidedMultiplier() (decimal.Decimal, bool)
}

// CostTrace holds every exact intermediate value of the cost formula.
type CostTrace struct {
	SquareInches         decimal.Decimal `json:"square_inches"`
	PricePerSquareInch   decimal.Decimal `json:"price_per_square_inch"`
	SidesMultiplier      decimal.Decimal `json:"sides_multiplier"`
	BaseCost             decimal.Decimal `json:"base_cost"`
	MarkupMultiplier     decimal.Decimal `json:"markup_multiplier"`
	MarkedUpCost         decimal.Decimal `json:"marked_up_cost"`
	TurnaroundMultiplier decimal.Decimal `json:"turnaround_multiplier"`
	Subtotal             decimal.Decimal `json:"subtotal"`
}

// AddOnLine is the priced result of one selected add-on. Amount is signed
// and rounded to cents; negative amounts are discounts.
type AddOnLine struct {
	AddOnID     int64           `json:"add_on_id"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// Result is the itemized outcome of a calculation. Money fields are rounded
// to cents so invoice lines always add up to TotalPrice.
type Result struct {
	Quantity       int64           `json:"quantity"`
	Cost           CostTrace       `json:"cost"`
	AddOns         []AddOnLine     `json:"add_ons"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	AddOnsCost     decimal.Decimal `json:"add_ons_cost"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
}

// Calculate prices a request against a catalog snapshot. It either returns a
// fully populated result or fails with one of the package errors.
func Calculate(catalog Catalog, req Request) (Result, error) {
	if err := validateRequest(req); err != nil {
		return Result{}, err
	}

	rate, err := Resolve(catalog, req.PaperStockID)
	if err != nil {
		return Result{}, err
	}

	turnaround, ok := catalog.Turnaround(req.TurnaroundID)
	if !ok {
		return Result{}, fmt.Errorf("%w: %d", ErrUnknownTurnaroundOption, req.TurnaroundID)
	}

	doubleSided, _ := catalog.DoubleSidedMultiplier()
	trace, err := ComputeCost(CostInput{
		Rate:                  rate,
		TurnaroundMultiplier:  turnaround.Multiplier,
		DoubleSidedMultiplier: doubleSided,
		Width:                 req.Width,
		Height:                req.Height,
		Quantity:              req.Quantity,
		Sides:                 req.Sides,
	})
	if err != nil {
		return Result{}, err
	}

	lines := make([]AddOnLine, 0, len(req.AddOns))
	for _, selected := range req.AddOns {
		def, ok := catalog.AddOn(selected.AddOnID)
		if !ok {
			return Result{}, fmt.Errorf("%w: %d", ErrUnknownAddOn, selected.AddOnID)
		}
		line, err := PriceAddOn(def, selected, req.Quantity, trace.MarkedUpCost)
		if err != nil {
			return Result{}, err
		}
		lines = append(lines, line)
	}

	return Aggregate(trace, lines, req.Quantity)
}

func validateRequest(req Request) error {
	if !req.Width.IsPositive() || !req.Height.IsPositive() {
		return fmt.Errorf("%w: %s x %s", ErrInvalidDimensions, req.Width, req.Height)
	}
	if req.Quantity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, req.Quantity)
	}
	return nil
}

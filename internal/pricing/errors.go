package pricing

import "errors"

// Invalid selections: a referenced catalog id does not exist.
var (
	ErrUnknownPaperStock       = errors.New("unknown paper stock")
	ErrUnknownTurnaroundOption = errors.New("unknown turnaround option")
	ErrUnknownAddOn            = errors.New("unknown add-on")
)

// Malformed requests, rejected before any calculation.
var (
	ErrInvalidDimensions = errors.New("invalid dimensions")
	ErrInvalidQuantity   = errors.New("invalid quantity")
)

// Catalog inconsistencies the customer cannot have caused.
var (
	ErrMissingSidesMultiplier  = errors.New("missing sides multiplier")
	ErrUnsupportedPricingModel = errors.New("unsupported pricing model")
	ErrMissingSubOption        = errors.New("missing sub-option")
	ErrNegativeTotal           = errors.New("total price is not positive")
)

// IsInvalidSelection reports whether err is caller-correctable: an unknown id
// or a malformed request.
func IsInvalidSelection(err error) bool {
	return errors.Is(err, ErrUnknownPaperStock) ||
		errors.Is(err, ErrUnknownTurnaroundOption) ||
		errors.Is(err, ErrUnknownAddOn) ||
		errors.Is(err, ErrInvalidDimensions) ||
		errors.Is(err, ErrInvalidQuantity)
}

// IsDataIntegrity reports whether err points at a catalog misconfiguration
// that should alert an operator rather than the customer.
func IsDataIntegrity(err error) bool {
	return errors.Is(err, ErrMissingSidesMultiplier) ||
		errors.Is(err, ErrUnsupportedPricingModel) ||
		errors.Is(err, ErrMissingSubOption) ||
		errors.Is(err, ErrNegativeTotal)
}

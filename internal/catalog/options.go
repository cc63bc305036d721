package catalog

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Simplici0/o.prints/internal/pricing"
)

// ErrInvalidSubOption is returned when a selected add-on carries an option
// its schema does not declare, or a value outside the declared choices.
var ErrInvalidSubOption = errors.New("invalid sub-option")

const sidesOption = "sides"

// NormalizeRequest checks every selected add-on against its sub-option schema
// and returns a copy of req ready for pricing.Calculate. A "sides" option on a
// sides-tiered add-on is moved into SelectedAddOn.Sides. Unknown add-ons are
// passed through so the engine reports them.
func (s *Snapshot) NormalizeRequest(req pricing.Request) (pricing.Request, error) {
	if len(req.AddOns) == 0 {
		return req, nil
	}

	addOns := make([]pricing.SelectedAddOn, 0, len(req.AddOns))
	for _, selected := range req.AddOns {
		normalized, err := s.normalizeSelection(selected)
		if err != nil {
			return pricing.Request{}, err
		}
		addOns = append(addOns, normalized)
	}
	req.AddOns = addOns
	return req, nil
}

func (s *Snapshot) normalizeSelection(selected pricing.SelectedAddOn) (pricing.SelectedAddOn, error) {
	def, ok := s.addOns[selected.AddOnID]
	if !ok {
		return selected, nil
	}

	_, tiered := def.Pricing.(pricing.CustomSidesTier)
	options := make(map[string]string, len(selected.Options))
	for key, value := range selected.Options {
		field, ok := schemaField(def.SubOptionSchema, key)
		if !ok {
			return pricing.SelectedAddOn{}, fmt.Errorf("%w: add-on %d has no option %q", ErrInvalidSubOption, def.ID, key)
		}
		if len(field.Choices) > 0 && !slices.Contains(field.Choices, value) {
			return pricing.SelectedAddOn{}, fmt.Errorf("%w: add-on %d option %q does not allow %q", ErrInvalidSubOption, def.ID, key, value)
		}
		if tiered && key == sidesOption {
			if side := pricing.Sides(value); side != pricing.SidesSingle && side != pricing.SidesDouble {
				return pricing.SelectedAddOn{}, fmt.Errorf("%w: add-on %d option %q must be %q or %q, got %q", ErrInvalidSubOption, def.ID, key, pricing.SidesSingle, pricing.SidesDouble, value)
			}
			if selected.Sides == "" {
				selected.Sides = pricing.Sides(value)
			}
			continue
		}
		options[key] = value
	}

	if len(options) == 0 {
		options = nil
	}
	selected.Options = options
	return selected, nil
}

func schemaField(schema []pricing.SubOptionField, name string) (pricing.SubOptionField, bool) {
	for _, field := range schema {
		if field.Name == name {
			return field, true
		}
	}
	return pricing.SubOptionField{}, false
}

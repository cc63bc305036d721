package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/o.prints/internal/pricing"
)

// ErrInvalidCatalog is returned when catalog data breaks an invariant the
// pricing engine relies on.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Settings holds catalog-wide pricing configuration.
type Settings struct {
	Version  int64
	Currency string
	// DoubleSidedMultiplier is nil when double-sided printing has not been
	// configured.
	DoubleSidedMultiplier *decimal.Decimal
}

// Snapshot is an immutable, versioned view of the catalog. It is safe for
// concurrent use and satisfies pricing.Catalog.
type Snapshot struct {
	settings    Settings
	stocks      map[int64]pricing.PaperStockRate
	turnarounds map[int64]pricing.TurnaroundOption
	addOns      map[int64]pricing.AddOnDefinition
}

var _ pricing.Catalog = (*Snapshot)(nil)

// NewSnapshot validates the given records and builds a snapshot from them.
func NewSnapshot(settings Settings, stocks []pricing.PaperStockRate, turnarounds []pricing.TurnaroundOption, addOns []pricing.AddOnDefinition) (*Snapshot, error) {
	s := &Snapshot{
		settings:    settings,
		stocks:      make(map[int64]pricing.PaperStockRate, len(stocks)),
		turnarounds: make(map[int64]pricing.TurnaroundOption, len(turnarounds)),
		addOns:      make(map[int64]pricing.AddOnDefinition, len(addOns)),
	}

	if m := settings.DoubleSidedMultiplier; m != nil && !m.IsPositive() {
		return nil, fmt.Errorf("%w: double-sided multiplier must be > 0, got %s", ErrInvalidCatalog, m)
	}

	for _, stock := range stocks {
		if _, dup := s.stocks[stock.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate paper stock %d", ErrInvalidCatalog, stock.ID)
		}
		if !stock.PricePerSquareInch.IsPositive() {
			return nil, fmt.Errorf("%w: paper stock %d price per square inch must be > 0", ErrInvalidCatalog, stock.ID)
		}
		if !stock.MarkupMultiplier.IsPositive() {
			return nil, fmt.Errorf("%w: paper stock %d markup must be > 0", ErrInvalidCatalog, stock.ID)
		}
		s.stocks[stock.ID] = stock
	}
	for _, stock := range s.stocks {
		if stock.SubstituteOf == nil {
			continue
		}
		target, ok := s.stocks[*stock.SubstituteOf]
		switch {
		case !ok:
			return nil, fmt.Errorf("%w: paper stock %d substitutes unknown stock %d", ErrInvalidCatalog, stock.ID, *stock.SubstituteOf)
		case target.ID == stock.ID:
			return nil, fmt.Errorf("%w: paper stock %d substitutes itself", ErrInvalidCatalog, stock.ID)
		case target.SubstituteOf != nil:
			return nil, fmt.Errorf("%w: paper stock %d substitutes %d, which is itself a substitute", ErrInvalidCatalog, stock.ID, target.ID)
		}
	}

	for _, t := range turnarounds {
		if _, dup := s.turnarounds[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate turnaround %d", ErrInvalidCatalog, t.ID)
		}
		if !t.Multiplier.IsPositive() {
			return nil, fmt.Errorf("%w: turnaround %d multiplier must be > 0", ErrInvalidCatalog, t.ID)
		}
		if !validCategory(t.Category) {
			return nil, fmt.Errorf("%w: turnaround %d has unknown category %q", ErrInvalidCatalog, t.ID, t.Category)
		}
		if t.ProductionDays < 0 {
			return nil, fmt.Errorf("%w: turnaround %d production days must be >= 0", ErrInvalidCatalog, t.ID)
		}
		s.turnarounds[t.ID] = t
	}

	for _, a := range addOns {
		if _, dup := s.addOns[a.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate add-on %d", ErrInvalidCatalog, a.ID)
		}
		if tier, ok := a.Pricing.(pricing.CustomSidesTier); ok {
			if tier.OneSide.IsNegative() || tier.TwoSides.IsNegative() {
				return nil, fmt.Errorf("%w: add-on %d tier prices must be >= 0", ErrInvalidCatalog, a.ID)
			}
		}
		s.addOns[a.ID] = a
	}

	return s, nil
}

func validCategory(c pricing.TurnaroundCategory) bool {
	switch c {
	case pricing.CategorySameDay, pricing.CategoryNextDay, pricing.CategoryStandard, pricing.CategoryEconomy:
		return true
	}
	return false
}

// Version identifies the catalog state the snapshot was taken from.
func (s *Snapshot) Version() int64 { return s.settings.Version }

// Currency is the ISO code all prices are expressed in.
func (s *Snapshot) Currency() string { return s.settings.Currency }

func (s *Snapshot) PaperStock(id int64) (pricing.PaperStockRate, bool) {
	stock, ok := s.stocks[id]
	return stock, ok
}

func (s *Snapshot) Turnaround(id int64) (pricing.TurnaroundOption, bool) {
	t, ok := s.turnarounds[id]
	return t, ok
}

func (s *Snapshot) AddOn(id int64) (pricing.AddOnDefinition, bool) {
	a, ok := s.addOns[id]
	return a, ok
}

func (s *Snapshot) DoubleSidedMultiplier() (decimal.Decimal, bool) {
	if s.settings.DoubleSidedMultiplier == nil {
		return decimal.Decimal{}, false
	}
	return *s.settings.DoubleSidedMultiplier, true
}

// PaperStocks lists every paper stock ordered by id.
func (s *Snapshot) PaperStocks() []pricing.PaperStockRate {
	out := make([]pricing.PaperStockRate, 0, len(s.stocks))
	for _, stock := range s.stocks {
		out = append(out, stock)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Turnarounds lists every turnaround option ordered by id.
func (s *Snapshot) Turnarounds() []pricing.TurnaroundOption {
	out := make([]pricing.TurnaroundOption, 0, len(s.turnarounds))
	for _, t := range s.turnarounds {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddOns lists every add-on ordered by id.
func (s *Snapshot) AddOns() []pricing.AddOnDefinition {
	out := make([]pricing.AddOnDefinition, 0, len(s.addOns))
	for _, a := range s.addOns {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

package catalog

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Simplici0/o.prints/internal/pricing"
)

// fileCatalog is the YAML layout of a catalog snapshot. Decimals are kept as
// strings so values like 0.0010 are never read through a float.
type fileCatalog struct {
	Version               int64  `yaml:"version"`
	Currency              string `yaml:"currency"`
	DoubleSidedMultiplier string `yaml:"double_sided_multiplier"`
	PaperStocks           []struct {
		ID                 int64  `yaml:"id"`
		Name               string `yaml:"name"`
		PricePerSquareInch string `yaml:"price_per_square_inch"`
		SubstituteOf       *int64 `yaml:"substitute_of"`
		MarkupMultiplier   string `yaml:"markup_multiplier"`
	} `yaml:"paper_stocks"`
	Turnarounds []struct {
		ID             int64  `yaml:"id"`
		Name           string `yaml:"name"`
		Category       string `yaml:"category"`
		ProductionDays int    `yaml:"production_days"`
		Multiplier     string `yaml:"multiplier"`
	} `yaml:"turnarounds"`
	AddOns []struct {
		ID            int64                    `yaml:"id"`
		Name          string                   `yaml:"name"`
		PricingModel  string                   `yaml:"pricing_model"`
		BasePrice     string                   `yaml:"base_price"`
		PerUnitPrice  string                   `yaml:"per_unit_price"`
		Percentage    string                   `yaml:"percentage"`
		PriceOneSide  string                   `yaml:"price_one_side"`
		PriceTwoSides string                   `yaml:"price_two_sides"`
		SubOptions    []pricing.SubOptionField `yaml:"sub_options"`
	} `yaml:"add_ons"`
}

// LoadFile reads a catalog snapshot from a YAML file.
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog snapshot.
func Parse(data []byte) (*Snapshot, error) {
	var fc fileCatalog
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}

	settings := Settings{Version: fc.Version, Currency: fc.Currency}
	if settings.Currency == "" {
		settings.Currency = "USD"
	}
	if fc.DoubleSidedMultiplier != "" {
		m, err := parseDecimal(fc.DoubleSidedMultiplier, "double_sided_multiplier")
		if err != nil {
			return nil, err
		}
		settings.DoubleSidedMultiplier = &m
	}

	stocks := make([]pricing.PaperStockRate, 0, len(fc.PaperStocks))
	for _, ps := range fc.PaperStocks {
		price, err := parseDecimal(ps.PricePerSquareInch, "price_per_square_inch")
		if err != nil {
			return nil, err
		}
		markup, err := parseDecimal(ps.MarkupMultiplier, "markup_multiplier")
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, pricing.PaperStockRate{
			ID:                 ps.ID,
			Name:               ps.Name,
			PricePerSquareInch: price,
			SubstituteOf:       ps.SubstituteOf,
			MarkupMultiplier:   markup,
		})
	}

	turnarounds := make([]pricing.TurnaroundOption, 0, len(fc.Turnarounds))
	for _, t := range fc.Turnarounds {
		m, err := parseDecimal(t.Multiplier, "multiplier")
		if err != nil {
			return nil, err
		}
		turnarounds = append(turnarounds, pricing.TurnaroundOption{
			ID:             t.ID,
			Name:           t.Name,
			Category:       pricing.TurnaroundCategory(t.Category),
			ProductionDays: t.ProductionDays,
			Multiplier:     m,
		})
	}

	addOns := make([]pricing.AddOnDefinition, 0, len(fc.AddOns))
	for _, a := range fc.AddOns {
		rec := addOnRecord{
			ID:     a.ID,
			Name:   a.Name,
			Model:  pricing.PricingModel(a.PricingModel),
			Schema: a.SubOptions,
		}
		var err error
		if rec.BasePrice, err = parseOptionalDecimal(a.BasePrice, "base_price"); err != nil {
			return nil, err
		}
		if rec.PerUnitPrice, err = parseOptionalDecimal(a.PerUnitPrice, "per_unit_price"); err != nil {
			return nil, err
		}
		if rec.Percentage, err = parseOptionalDecimal(a.Percentage, "percentage"); err != nil {
			return nil, err
		}
		if a.PriceOneSide != "" || a.PriceTwoSides != "" {
			oneSide, err := parseDecimal(a.PriceOneSide, "price_one_side")
			if err != nil {
				return nil, err
			}
			twoSides, err := parseDecimal(a.PriceTwoSides, "price_two_sides")
			if err != nil {
				return nil, err
			}
			rec.Tiers = &pricing.SidesTierPrices{OneSide: oneSide, TwoSides: twoSides}
		}
		addOns = append(addOns, rec.definition())
	}

	return NewSnapshot(settings, stocks, turnarounds, addOns)
}

func parseDecimal(raw, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s must be a decimal, got %q", ErrInvalidCatalog, field, raw)
	}
	return d, nil
}

func parseOptionalDecimal(raw, field string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return parseDecimal(raw, field)
}

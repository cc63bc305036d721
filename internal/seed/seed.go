package seed

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Simplici0/o.prints/internal/pricing"
)

const (
	defaultCurrency              = "USD"
	defaultDoubleSidedMultiplier = "1.6"
)

type paperStockSeed struct {
	Name               string
	PricePerSquareInch string
	SubstituteOf       string
	MarkupMultiplier   string
}

type turnaroundSeed struct {
	Name           string
	Category       pricing.TurnaroundCategory
	ProductionDays int
	Multiplier     string
}

type addOnSeed struct {
	Name          string
	Model         pricing.PricingModel
	BasePrice     string
	PerUnitPrice  string
	Percentage    string
	PriceOneSide  string
	PriceTwoSides string
	SubOptions    []pricing.SubOptionField
}

// Substitutes are listed after the stocks they point at.
var defaultPaperStocks = []paperStockSeed{
	{Name: "9pt C2S Cardstock", PricePerSquareInch: "0.0010", MarkupMultiplier: "2.0"},
	{Name: "12pt C2S Cardstock", PricePerSquareInch: "0.0012", SubstituteOf: "9pt C2S Cardstock", MarkupMultiplier: "2.2"},
	{Name: "16pt C2S Cardstock", PricePerSquareInch: "0.0016", MarkupMultiplier: "2.0"},
	{Name: "14pt C2S Cardstock", PricePerSquareInch: "0.0014", SubstituteOf: "16pt C2S Cardstock", MarkupMultiplier: "1.8"},
	{Name: "100lb Gloss Text", PricePerSquareInch: "0.0008", MarkupMultiplier: "2.0"},
}

var defaultTurnarounds = []turnaroundSeed{
	{Name: "Same Day", Category: pricing.CategorySameDay, ProductionDays: 0, Multiplier: "1.0"},
	{Name: "Next Day", Category: pricing.CategoryNextDay, ProductionDays: 1, Multiplier: "1.5"},
	{Name: "Standard", Category: pricing.CategoryStandard, ProductionDays: 3, Multiplier: "1.0"},
	{Name: "Economy", Category: pricing.CategoryEconomy, ProductionDays: 7, Multiplier: "0.9"},
}

var defaultAddOns = []addOnSeed{
	{Name: "Rounded Corners", Model: pricing.ModelFlat, BasePrice: "10.00"},
	{
		Name:         "Perforation",
		Model:        pricing.ModelPerUnit,
		PerUnitPrice: "0.0125",
		SubOptions: []pricing.SubOptionField{
			{Name: "cuts", Label: "Number of cuts", Choices: []string{"1", "2", "3"}},
			{Name: "position", Label: "Cut position", Choices: []string{"horizontal", "vertical"}},
		},
	},
	{Name: "Returning Customer Discount", Model: pricing.ModelPercentage, Percentage: "-5"},
	{Name: "Design Service", Model: pricing.ModelCustom, BasePrice: "15.00", PerUnitPrice: "0.005"},
	{
		Name:          "Spot UV",
		Model:         pricing.ModelCustom,
		PriceOneSide:  "25.00",
		PriceTwoSides: "40.00",
		SubOptions: []pricing.SubOptionField{
			{Name: "sides", Label: "Spot UV sides", Choices: []string{string(pricing.SidesSingle), string(pricing.SidesDouble)}},
		},
	},
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, db *sql.DB) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := ensureSettings(ctx, tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	for _, ps := range defaultPaperStocks {
		if err := ensurePaperStock(ctx, tx, ps, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}
	for _, t := range defaultTurnarounds {
		if err := ensureTurnaround(ctx, tx, t, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}
	for _, a := range defaultAddOns {
		if err := ensureAddOn(ctx, tx, a, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureSettings(ctx context.Context, tx *sql.Tx, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM pricing_settings WHERE id = 1)`).Scan(&exists); err != nil {
		return fmt.Errorf("check pricing settings existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO pricing_settings (id, catalog_version, currency, double_sided_multiplier)
		VALUES (1, 1, ?, ?)
	`, defaultCurrency, defaultDoubleSidedMultiplier); err != nil {
		return fmt.Errorf("insert pricing settings singleton: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensurePaperStock(ctx context.Context, tx *sql.Tx, ps paperStockSeed, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM paper_stocks WHERE name = ? LIMIT 1)`, ps.Name).Scan(&exists); err != nil {
		return fmt.Errorf("check paper stock %q existence: %w", ps.Name, err)
	}
	if exists {
		return nil
	}

	var substituteOf sql.NullInt64
	if ps.SubstituteOf != "" {
		if err := tx.QueryRowContext(ctx, `SELECT id FROM paper_stocks WHERE name = ?`, ps.SubstituteOf).Scan(&substituteOf.Int64); err != nil {
			return fmt.Errorf("find substitute %q for paper stock %q: %w", ps.SubstituteOf, ps.Name, err)
		}
		substituteOf.Valid = true
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO paper_stocks (name, price_per_square_inch, substitute_of, markup_multiplier)
		VALUES (?, ?, ?, ?)
	`, ps.Name, ps.PricePerSquareInch, substituteOf, ps.MarkupMultiplier); err != nil {
		return fmt.Errorf("insert paper stock %q: %w", ps.Name, err)
	}
	stats.Inserts++
	return nil
}

func ensureTurnaround(ctx context.Context, tx *sql.Tx, t turnaroundSeed, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM turnaround_options WHERE name = ? LIMIT 1)`, t.Name).Scan(&exists); err != nil {
		return fmt.Errorf("check turnaround %q existence: %w", t.Name, err)
	}
	if exists {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO turnaround_options (name, category, production_days, multiplier)
		VALUES (?, ?, ?, ?)
	`, t.Name, string(t.Category), t.ProductionDays, t.Multiplier); err != nil {
		return fmt.Errorf("insert turnaround %q: %w", t.Name, err)
	}
	stats.Inserts++
	return nil
}

func ensureAddOn(ctx context.Context, tx *sql.Tx, a addOnSeed, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM add_ons WHERE name = ? LIMIT 1)`, a.Name).Scan(&exists); err != nil {
		return fmt.Errorf("check add-on %q existence: %w", a.Name, err)
	}
	if exists {
		return nil
	}

	schema := a.SubOptions
	if schema == nil {
		schema = []pricing.SubOptionField{}
	}
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("encode sub-option schema of %q: %w", a.Name, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO add_ons (
			name,
			pricing_model,
			base_price,
			per_unit_price,
			percentage,
			price_one_side,
			price_two_sides,
			sub_option_schema
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.Name,
		string(a.Model),
		orZero(a.BasePrice),
		orZero(a.PerUnitPrice),
		orZero(a.Percentage),
		nullable(a.PriceOneSide),
		nullable(a.PriceTwoSides),
		string(schemaJSON),
	); err != nil {
		return fmt.Errorf("insert add-on %q: %w", a.Name, err)
	}
	stats.Inserts++
	return nil
}

func orZero(v string) string {
	if v == "" {
		return "0"
	}
	return v
}

func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

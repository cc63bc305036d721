package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	zlog "github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/o.prints/internal/pricing"
)

// Store reads catalog data from SQLite.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store backed by db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Snapshot reads the whole catalog inside a single transaction, so a quote
// never mixes rates from before and after an admin edit.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin catalog snapshot transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	settings, err := loadSettings(ctx, tx)
	if err != nil {
		return nil, err
	}
	stocks, err := loadPaperStocks(ctx, tx)
	if err != nil {
		return nil, err
	}
	turnarounds, err := loadTurnarounds(ctx, tx)
	if err != nil {
		return nil, err
	}
	addOns, err := loadAddOns(ctx, tx)
	if err != nil {
		return nil, err
	}

	return NewSnapshot(settings, stocks, turnarounds, addOns)
}

func loadSettings(ctx context.Context, tx *sql.Tx) (Settings, error) {
	var (
		settings    Settings
		doubleSided decimal.NullDecimal
	)
	err := tx.QueryRowContext(ctx, `
		SELECT catalog_version, currency, double_sided_multiplier
		FROM pricing_settings
		WHERE id = 1
	`).Scan(&settings.Version, &settings.Currency, &doubleSided)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Settings{}, fmt.Errorf("pricing_settings singleton not found")
		}
		return Settings{}, fmt.Errorf("query pricing_settings: %w", err)
	}
	if doubleSided.Valid {
		settings.DoubleSidedMultiplier = &doubleSided.Decimal
	}
	return settings, nil
}

func loadPaperStocks(ctx context.Context, tx *sql.Tx) ([]pricing.PaperStockRate, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, name, price_per_square_inch, substitute_of, markup_multiplier
		FROM paper_stocks
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query paper stocks: %w", err)
	}
	defer rows.Close()

	stocks := make([]pricing.PaperStockRate, 0)
	for rows.Next() {
		var (
			stock        pricing.PaperStockRate
			substituteOf sql.NullInt64
		)
		if err := rows.Scan(&stock.ID, &stock.Name, &stock.PricePerSquareInch, &substituteOf, &stock.MarkupMultiplier); err != nil {
			return nil, fmt.Errorf("scan paper stock: %w", err)
		}
		if substituteOf.Valid {
			id := substituteOf.Int64
			stock.SubstituteOf = &id
		}
		stocks = append(stocks, stock)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paper stocks: %w", err)
	}
	return stocks, nil
}

func loadTurnarounds(ctx context.Context, tx *sql.Tx) ([]pricing.TurnaroundOption, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, name, category, production_days, multiplier
		FROM turnaround_options
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query turnaround options: %w", err)
	}
	defer rows.Close()

	turnarounds := make([]pricing.TurnaroundOption, 0)
	for rows.Next() {
		var t pricing.TurnaroundOption
		if err := rows.Scan(&t.ID, &t.Name, &t.Category, &t.ProductionDays, &t.Multiplier); err != nil {
			return nil, fmt.Errorf("scan turnaround option: %w", err)
		}
		turnarounds = append(turnarounds, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turnaround options: %w", err)
	}
	return turnarounds, nil
}

func loadAddOns(ctx context.Context, tx *sql.Tx) ([]pricing.AddOnDefinition, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, name, pricing_model, base_price, per_unit_price, percentage,
		       price_one_side, price_two_sides, sub_option_schema
		FROM add_ons
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query add-ons: %w", err)
	}
	defer rows.Close()

	addOns := make([]pricing.AddOnDefinition, 0)
	for rows.Next() {
		var (
			rec        addOnRecord
			oneSide    decimal.NullDecimal
			twoSides   decimal.NullDecimal
			schemaJSON string
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Model, &rec.BasePrice, &rec.PerUnitPrice, &rec.Percentage, &oneSide, &twoSides, &schemaJSON); err != nil {
			return nil, fmt.Errorf("scan add-on: %w", err)
		}
		if oneSide.Valid != twoSides.Valid {
			return nil, fmt.Errorf("%w: add-on %d (%s) has only one of price_one_side and price_two_sides", ErrInvalidCatalog, rec.ID, rec.Name)
		}
		if oneSide.Valid {
			rec.Tiers = &pricing.SidesTierPrices{OneSide: oneSide.Decimal, TwoSides: twoSides.Decimal}
		}
		if schemaJSON != "" {
			if err := json.Unmarshal([]byte(schemaJSON), &rec.Schema); err != nil {
				return nil, fmt.Errorf("decode sub-option schema of add-on %d: %w", rec.ID, err)
			}
		}
		addOns = append(addOns, rec.definition())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate add-ons: %w", err)
	}
	return addOns, nil
}

// addOnRecord is the flat storage shape of an add-on, shared by the SQLite
// and YAML sources.
type addOnRecord struct {
	ID           int64
	Name         string
	Model        pricing.PricingModel
	BasePrice    decimal.Decimal
	PerUnitPrice decimal.Decimal
	Percentage   decimal.Decimal
	Tiers        *pricing.SidesTierPrices
	Schema       []pricing.SubOptionField
}

// definition converts the record to its pricing variant. Records with an
// unknown model keep a nil Pricing so the engine rejects them only when
// they are selected.
func (r addOnRecord) definition() pricing.AddOnDefinition {
	def := pricing.AddOnDefinition{
		ID:              r.ID,
		Name:            r.Name,
		Model:           r.Model,
		SubOptionSchema: r.Schema,
	}
	p, err := pricing.NewAddOnPricing(r.Model, r.BasePrice, r.PerUnitPrice, r.Percentage, r.Tiers)
	if err != nil {
		zlog.Warn().Err(err).Int64("add_on_id", r.ID).Msg("add-on has no usable pricing model")
		return def
	}
	def.Pricing = p
	return def
}

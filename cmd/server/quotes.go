package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/o.prints/internal/pricing"
)

var errQuoteNotFound = errors.New("quote not found")

// quoteTotals is the stored totals_json snapshot.
type quoteTotals struct {
	Quantity       int64           `json:"quantity"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	AddOnsCost     decimal.Decimal `json:"add_ons_cost"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
}

// quoteBreakdown is the stored breakdown_json snapshot.
type quoteBreakdown struct {
	Cost   pricing.CostTrace   `json:"cost"`
	AddOns []pricing.AddOnLine `json:"add_ons"`
}

type quoteListItem struct {
	ID        int64           `json:"id"`
	Reference string          `json:"reference"`
	CreatedAt string          `json:"created_at"`
	Title     string          `json:"title"`
	Total     decimal.Decimal `json:"total"`
}

type quoteDetail struct {
	ID             int64           `json:"id"`
	Reference      string          `json:"reference"`
	CreatedAt      string          `json:"created_at"`
	Title          string          `json:"title"`
	Notes          string          `json:"notes"`
	CatalogVersion int64           `json:"catalog_version"`
	Currency       string          `json:"currency"`
	Request        pricing.Request `json:"request"`
	Totals         quoteTotals     `json:"totals"`
	Breakdown      quoteBreakdown  `json:"breakdown"`
}

func (s *server) handleQuoteCreate(w http.ResponseWriter, r *http.Request) {
	body, err := decodePriceRequest(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	quote, err := s.price(r, body.Request)
	if err != nil {
		s.writePricingError(w, r, err)
		return
	}

	detail, err := s.saveQuote(r.Context(), body.Title, body.Notes, quote)
	if err != nil {
		zlog.Ctx(r.Context()).Error().Err(err).Msg("save quote")
		http.Error(w, "failed to save quote", http.StatusInternalServerError)
		return
	}

	zlog.Ctx(r.Context()).Info().
		Str("reference", detail.Reference).
		Str("total", detail.Totals.TotalPrice.String()).
		Msg("quote saved")
	w.Header().Set("Location", fmt.Sprintf("/quotes/%d", detail.ID))
	writeJSON(w, http.StatusCreated, detail)
}

func (s *server) handleQuotesList(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	quotes, err := s.listQuotes(r.Context(), query)
	if err != nil {
		zlog.Ctx(r.Context()).Error().Err(err).Msg("list quotes")
		http.Error(w, "failed to load quotes", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, quotes)
}

func (s *server) handleQuoteDetail(w http.ResponseWriter, r *http.Request) {
	detail, ok := s.loadQuoteFromURL(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *server) handleQuoteText(w http.ResponseWriter, r *http.Request) {
	detail, ok := s.loadQuoteFromURL(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(renderQuoteText(detail)))
}

func (s *server) loadQuoteFromURL(w http.ResponseWriter, r *http.Request) (quoteDetail, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid quote id", http.StatusBadRequest)
		return quoteDetail{}, false
	}

	detail, err := s.getQuoteDetail(r.Context(), id)
	if err != nil {
		if errors.Is(err, errQuoteNotFound) {
			http.NotFound(w, r)
			return quoteDetail{}, false
		}
		zlog.Ctx(r.Context()).Error().Err(err).Int64("quote_id", id).Msg("load quote")
		http.Error(w, "failed to load quote", http.StatusInternalServerError)
		return quoteDetail{}, false
	}
	return detail, true
}

func (s *server) saveQuote(ctx context.Context, title, notes string, quote pricedQuote) (quoteDetail, error) {
	detail := quoteDetail{
		Reference:      uuid.NewString(),
		Title:          title,
		Notes:          notes,
		CatalogVersion: quote.version,
		Currency:       quote.currency,
		Request:        quote.request,
		Totals: quoteTotals{
			Quantity:       quote.result.Quantity,
			Subtotal:       quote.result.Subtotal,
			AddOnsCost:     quote.result.AddOnsCost,
			DiscountAmount: quote.result.DiscountAmount,
			TotalPrice:     quote.result.TotalPrice,
			UnitPrice:      quote.result.UnitPrice,
		},
		Breakdown: quoteBreakdown{
			Cost:   quote.result.Cost,
			AddOns: quote.result.AddOns,
		},
	}

	requestJSON, err := json.Marshal(detail.Request)
	if err != nil {
		return quoteDetail{}, fmt.Errorf("encode quote request: %w", err)
	}
	totalsJSON, err := json.Marshal(detail.Totals)
	if err != nil {
		return quoteDetail{}, fmt.Errorf("encode quote totals: %w", err)
	}
	breakdownJSON, err := json.Marshal(detail.Breakdown)
	if err != nil {
		return quoteDetail{}, fmt.Errorf("encode quote breakdown: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO quotes (
			reference,
			title,
			notes,
			catalog_version,
			currency,
			request_json,
			totals_json,
			breakdown_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at
	`,
		detail.Reference,
		nullString(title),
		nullString(notes),
		detail.CatalogVersion,
		detail.Currency,
		string(requestJSON),
		string(totalsJSON),
		string(breakdownJSON),
	).Scan(&detail.ID, &detail.CreatedAt)
	if err != nil {
		return quoteDetail{}, fmt.Errorf("insert quote: %w", err)
	}
	return detail, nil
}

func (s *server) listQuotes(ctx context.Context, query string) ([]quoteListItem, error) {
	search := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			id,
			reference,
			created_at,
			COALESCE(title, ''),
			totals_json
		FROM quotes
		WHERE (? = '' OR COALESCE(title, '') LIKE ? OR COALESCE(notes, '') LIKE ?)
		ORDER BY datetime(created_at) DESC, id DESC
	`, query, search, search)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]quoteListItem, 0)
	for rows.Next() {
		var item quoteListItem
		var totalsJSON string
		if err := rows.Scan(&item.ID, &item.Reference, &item.CreatedAt, &item.Title, &totalsJSON); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		item.Total = extractTotalFromJSON(totalsJSON)
		quotes = append(quotes, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}

	return quotes, nil
}

// getQuoteDetail reads the stored snapshot; it never prices the quote again.
func (s *server) getQuoteDetail(ctx context.Context, id int64) (quoteDetail, error) {
	var (
		detail        quoteDetail
		requestJSON   string
		totalsJSON    string
		breakdownJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT
			id,
			reference,
			created_at,
			COALESCE(title, ''),
			COALESCE(notes, ''),
			catalog_version,
			currency,
			request_json,
			totals_json,
			breakdown_json
		FROM quotes
		WHERE id = ?
	`, id).Scan(
		&detail.ID,
		&detail.Reference,
		&detail.CreatedAt,
		&detail.Title,
		&detail.Notes,
		&detail.CatalogVersion,
		&detail.Currency,
		&requestJSON,
		&totalsJSON,
		&breakdownJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quoteDetail{}, fmt.Errorf("%w: %d", errQuoteNotFound, id)
		}
		return quoteDetail{}, fmt.Errorf("query quote %d: %w", id, err)
	}

	if err := json.Unmarshal([]byte(requestJSON), &detail.Request); err != nil {
		return quoteDetail{}, fmt.Errorf("decode request of quote %d: %w", id, err)
	}
	if err := json.Unmarshal([]byte(totalsJSON), &detail.Totals); err != nil {
		return quoteDetail{}, fmt.Errorf("decode totals of quote %d: %w", id, err)
	}
	if err := json.Unmarshal([]byte(breakdownJSON), &detail.Breakdown); err != nil {
		return quoteDetail{}, fmt.Errorf("decode breakdown of quote %d: %w", id, err)
	}
	if detail.Breakdown.AddOns == nil {
		detail.Breakdown.AddOns = []pricing.AddOnLine{}
	}
	return detail, nil
}

func extractTotalFromJSON(totalsJSON string) decimal.Decimal {
	var totals struct {
		TotalPrice decimal.NullDecimal `json:"total_price"`
	}
	if err := json.Unmarshal([]byte(totalsJSON), &totals); err != nil || !totals.TotalPrice.Valid {
		return decimal.Zero
	}
	return totals.TotalPrice.Decimal
}

func renderQuoteText(d quoteDetail) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Quote %s\n", d.Reference)
	fmt.Fprintf(&b, "Date: %s\n", d.CreatedAt)
	if d.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", d.Title)
	}
	if d.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", d.Notes)
	}
	fmt.Fprintf(&b, "Catalog version: %d\n", d.CatalogVersion)

	req := d.Request
	b.WriteString("\nJob:\n")
	fmt.Fprintf(&b, "- Paper stock: #%d\n", req.PaperStockID)
	fmt.Fprintf(&b, "- Size: %s x %s in\n", req.Width.String(), req.Height.String())
	fmt.Fprintf(&b, "- Sides: %s\n", req.Sides)
	fmt.Fprintf(&b, "- Quantity: %d\n", d.Totals.Quantity)
	fmt.Fprintf(&b, "- Turnaround: #%d\n", req.TurnaroundID)

	cost := d.Breakdown.Cost
	b.WriteString("\nPrinting:\n")
	fmt.Fprintf(&b, "- Base cost: %s\n", pricing.FormatMoney(pricing.RoundMoney(cost.BaseCost)))
	fmt.Fprintf(&b, "- Markup x%s: %s\n", cost.MarkupMultiplier.String(), pricing.FormatMoney(pricing.RoundMoney(cost.MarkedUpCost)))
	fmt.Fprintf(&b, "- Turnaround x%s: %s\n", cost.TurnaroundMultiplier.String(), pricing.FormatMoney(d.Totals.Subtotal))

	if len(d.Breakdown.AddOns) > 0 {
		b.WriteString("\nAdd-ons:\n")
		for _, line := range d.Breakdown.AddOns {
			fmt.Fprintf(&b, "- %s\n", line.Description)
		}
	}

	b.WriteString("\nTotals:\n")
	fmt.Fprintf(&b, "Subtotal: %s\n", pricing.FormatMoney(d.Totals.Subtotal))
	fmt.Fprintf(&b, "Add-ons: %s\n", pricing.FormatMoney(d.Totals.AddOnsCost))
	fmt.Fprintf(&b, "Discount: %s\n", pricing.FormatMoney(d.Totals.DiscountAmount.Neg()))
	fmt.Fprintf(&b, "Total: %s %s\n", pricing.FormatMoney(d.Totals.TotalPrice), d.Currency)
	fmt.Fprintf(&b, "Unit price: %s\n", pricing.FormatUnitPrice(d.Totals.UnitPrice))
	b.WriteString("\nShipping not included.\n")

	return b.String()
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

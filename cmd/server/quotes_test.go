package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func TestListQuotesOrdersByDateDescAndReadsTotal(t *testing.T) {
	srv, db := newTestServer(t)

	seedQuote(t, db, "2024-01-01 10:00:00", "Business cards", "first run", `{"total_price":"100.50"}`)
	seedQuote(t, db, "2024-01-03 12:00:00", "Flyers", "third run", `{"total_price":"300"}`)
	seedQuote(t, db, "2024-01-02 11:00:00", "Postcards", "second run", `{"total_price":"200.25"}`)

	quotes, err := srv.listQuotes(context.Background(), "")
	if err != nil {
		t.Fatalf("listQuotes returned error: %v", err)
	}

	if len(quotes) != 3 {
		t.Fatalf("expected 3 quotes, got %d", len(quotes))
	}

	if quotes[0].Title != "Flyers" || quotes[1].Title != "Postcards" || quotes[2].Title != "Business cards" {
		t.Fatalf("quotes are not sorted desc by created_at: %+v", quotes)
	}

	for i, want := range []string{"300", "200.25", "100.50"} {
		if !quotes[i].Total.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("quote %d total = %s, want %s", i, quotes[i].Total, want)
		}
	}
}

func TestListQuotesFilterByTitleAndNotes(t *testing.T) {
	srv, db := newTestServer(t)

	seedQuote(t, db, "2024-01-01 10:00:00", "Menus", "red ink for the cafe", `{"total_price":"80"}`)
	seedQuote(t, db, "2024-01-02 10:00:00", "Stickers", "vip customer", `{"total_price":"120"}`)
	seedQuote(t, db, "2024-01-03 10:00:00", "Cafe loyalty cards", "rush", `{"total_price":"160"}`)

	byTitle, err := srv.listQuotes(context.Background(), "Stick")
	if err != nil {
		t.Fatalf("listQuotes title filter returned error: %v", err)
	}
	if len(byTitle) != 1 || byTitle[0].Title != "Stickers" {
		t.Fatalf("expected 1 quote filtered by title, got %+v", byTitle)
	}

	byNotes, err := srv.listQuotes(context.Background(), "cafe")
	if err != nil {
		t.Fatalf("listQuotes notes filter returned error: %v", err)
	}
	if len(byNotes) != 2 {
		t.Fatalf("expected 2 quotes filtered by notes/title, got %+v", byNotes)
	}
}

func TestListQuotesToleratesBrokenTotals(t *testing.T) {
	srv, db := newTestServer(t)
	seedQuote(t, db, "2024-01-01 10:00:00", "Legacy", "", `not json`)

	quotes, err := srv.listQuotes(context.Background(), "")
	if err != nil {
		t.Fatalf("listQuotes returned error: %v", err)
	}
	if len(quotes) != 1 || !quotes[0].Total.IsZero() {
		t.Fatalf("expected zero total for broken snapshot, got %+v", quotes)
	}
}

func TestCreateQuotePersistsSnapshot(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.routes()

	body := strings.Replace(businessCardOrder, `"sides": "double",`, `"sides": "double", "title": "Cafe cards", "notes": "matte finish",`, 1)
	rr := doRequest(t, h, http.MethodPost, "/quotes", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var created quoteDetail
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ID == 0 || len(created.Reference) != 36 {
		t.Fatalf("unexpected identifiers: id=%d reference=%q", created.ID, created.Reference)
	}
	if rr.Header().Get("Location") != "/quotes/1" {
		t.Fatalf("unexpected location %q", rr.Header().Get("Location"))
	}

	rr = doRequest(t, h, http.MethodGet, "/quotes/1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var stored quoteDetail
	if err := json.Unmarshal(rr.Body.Bytes(), &stored); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if stored.Reference != created.Reference || stored.Title != "Cafe cards" || stored.Currency != "USD" {
		t.Fatalf("unexpected stored quote: %+v", stored)
	}
	if !stored.Totals.TotalPrice.Equal(decimal.RequireFromString("82.96")) || len(stored.Breakdown.AddOns) != 2 {
		t.Fatalf("unexpected stored totals: %+v / %+v", stored.Totals, stored.Breakdown.AddOns)
	}
	if stored.Request.Quantity != 1000 || stored.Request.Sides != "double" {
		t.Fatalf("unexpected stored request: %+v", stored.Request)
	}

	rr = doRequest(t, h, http.MethodGet, "/quotes?q=matte", "")
	var listed []quoteListItem
	if err := json.Unmarshal(rr.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 || !listed[0].Total.Equal(decimal.RequireFromString("82.96")) {
		t.Fatalf("unexpected list: %+v", listed)
	}
}

func TestCreateQuoteRejectsInvalidSelection(t *testing.T) {
	srv, db := newTestServer(t)

	body := strings.Replace(businessCardOrder, `{"add_on_id": 1}`, `{"add_on_id": 404}`, 1)
	rr := doRequest(t, srv.routes(), http.MethodPost, "/quotes", body)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d: %s", rr.Code, rr.Body.String())
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM quotes`).Scan(&count); err != nil {
		t.Fatalf("count quotes: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no stored quote, got %d", count)
	}
}

func TestGetQuoteDetailReadsSnapshotWithoutRecalculation(t *testing.T) {
	srv, db := newTestServer(t)
	seedQuoteDetail(t, db)

	// Catalog edits after the quote was stored must not change it.
	if _, err := db.Exec(`UPDATE paper_stocks SET price_per_square_inch = '0.5' WHERE id = 1`); err != nil {
		t.Fatalf("update paper stock: %v", err)
	}

	detail, err := srv.getQuoteDetail(context.Background(), 1)
	if err != nil {
		t.Fatalf("getQuoteDetail returned error: %v", err)
	}

	if !detail.Breakdown.Cost.BaseCost.Equal(decimal.RequireFromString("123.45")) {
		t.Fatalf("expected snapshot base cost 123.45, got %s", detail.Breakdown.Cost.BaseCost)
	}
	if !detail.Totals.TotalPrice.Equal(decimal.RequireFromString("999.99")) {
		t.Fatalf("expected snapshot total 999.99, got %s", detail.Totals.TotalPrice)
	}
	if detail.Request.PaperStockID != 1 || detail.Totals.Quantity != 250 {
		t.Fatalf("unexpected request detail: %+v", detail.Request)
	}
}

func TestGetQuoteDetailNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doRequest(t, srv.routes(), http.MethodGet, "/quotes/42", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	rr = doRequest(t, srv.routes(), http.MethodGet, "/quotes/abc", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleQuoteTextReturnsPlainText(t *testing.T) {
	srv, db := newTestServer(t)
	seedQuoteDetail(t, db)

	req := httptest.NewRequest(http.MethodGet, "/quotes/1/text", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	srv.handleQuoteText(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("expected text/plain content type, got %q", rr.Header().Get("Content-Type"))
	}

	body := rr.Body.String()
	for _, expected := range []string{
		"Quote 6f1c1d3e-0000-4000-8000-000000000001",
		"Title: Wedding invitations",
		"- Size: 5 x 7 in",
		"- Rounded Corners (flat $10.00): $10.00",
		"Discount: -$5.00",
		"Total: $999.99 USD",
		"Unit price: $4.0000",
		"Shipping not included.",
	} {
		if !strings.Contains(body, expected) {
			t.Fatalf("expected body to contain %q, got: %s", expected, body)
		}
	}
}

func seedQuote(t *testing.T, db *sql.DB, createdAt, title, notes, totalsJSON string) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO quotes (reference, created_at, title, notes, catalog_version, currency, request_json, totals_json, breakdown_json)
		VALUES (lower(hex(randomblob(16))), ?, ?, ?, 1, 'USD', '{}', ?, '{}')
	`, createdAt, title, notes, totalsJSON)
	if err != nil {
		t.Fatalf("failed to seed quote: %v", err)
	}
}

func seedQuoteDetail(t *testing.T, db *sql.DB) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO quotes (
			id, reference, created_at, title, notes, catalog_version, currency, request_json, totals_json, breakdown_json
		) VALUES (
			1,
			'6f1c1d3e-0000-4000-8000-000000000001',
			'2024-02-01 14:00:00',
			'Wedding invitations',
			'Deliver Friday',
			1,
			'USD',
			'{"paper_stock_id":1,"turnaround_id":3,"quantity":250,"width":"5","height":"7","sides":"double"}',
			'{"quantity":250,"subtotal":"994.99","add_ons_cost":"10","discount_amount":"5","total_price":"999.99","unit_price":"4"}',
			'{"cost":{"base_cost":"123.45","markup_multiplier":"2","marked_up_cost":"246.9","turnaround_multiplier":"1"},"add_ons":[{"add_on_id":1,"name":"Rounded Corners","amount":"10","description":"Rounded Corners (flat $10.00): $10.00"}]}'
		)
	`)
	if err != nil {
		t.Fatalf("seed quote: %v", err)
	}
}

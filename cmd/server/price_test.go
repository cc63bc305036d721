package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/o.prints/internal/catalog"
	"github.com/Simplici0/o.prints/internal/pricing"
)

// 9pt, standard turnaround, 4x6 double-sided, rounded corners and the
// returning customer discount.
const businessCardOrder = `{
	"paper_stock_id": 1,
	"turnaround_id": 3,
	"quantity": 1000,
	"width": 4,
	"height": 6,
	"sides": "double",
	"add_ons": [{"add_on_id": 1}, {"add_on_id": 3}]
}`

func TestHandlePrice_ReturnsItemizedResult(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doRequest(t, srv.routes(), http.MethodPost, "/api/price", businessCardOrder)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp priceResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Currency != "USD" || resp.CatalogVersion != 1 {
		t.Fatalf("unexpected catalog info: version=%d currency=%s", resp.CatalogVersion, resp.Currency)
	}
	if !resp.TotalPrice.Equal(decimal.RequireFromString("82.96")) {
		t.Fatalf("total = %s, want 82.96", resp.TotalPrice)
	}
	if !resp.UnitPrice.Equal(decimal.RequireFromString("0.083")) {
		t.Fatalf("unit price = %s, want 0.0830", resp.UnitPrice)
	}
	if len(resp.AddOns) != 2 || resp.AddOns[1].Description != "Returning Customer Discount (-5% of $76.80): -$3.84" {
		t.Fatalf("unexpected add-on lines: %+v", resp.AddOns)
	}
}

func TestHandlePrice_SidesOptionSelectsTier(t *testing.T) {
	srv, _ := newTestServer(t)

	body := strings.Replace(businessCardOrder,
		`[{"add_on_id": 1}, {"add_on_id": 3}]`,
		`[{"add_on_id": 5, "options": {"sides": "single"}}]`, 1)
	rr := doRequest(t, srv.routes(), http.MethodPost, "/api/price", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp priceResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.AddOns) != 1 || !resp.AddOns[0].Amount.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected one-side spot UV tier, got %+v", resp.AddOns)
	}
}

func TestHandlePrice_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{
			name:   "malformed json",
			body:   `{"paper_stock_id": `,
			status: http.StatusBadRequest,
		},
		{
			name:   "missing sides",
			body:   strings.Replace(businessCardOrder, `"sides": "double",`, "", 1),
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown paper stock",
			body:   strings.Replace(businessCardOrder, `"paper_stock_id": 1`, `"paper_stock_id": 999`, 1),
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "zero quantity",
			body:   strings.Replace(businessCardOrder, `"quantity": 1000`, `"quantity": 0`, 1),
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "undeclared sub-option",
			body:   strings.Replace(businessCardOrder, `{"add_on_id": 1}`, `{"add_on_id": 1, "options": {"color": "red"}}`, 1),
			status: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t)
			rr := doRequest(t, srv.routes(), http.MethodPost, "/api/price", tt.body)
			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestHandlePrice_DataIntegrityIsServerError(t *testing.T) {
	srv, database := newTestServer(t)

	if _, err := database.Exec(`INSERT INTO add_ons (id, name, pricing_model) VALUES (50, 'Foil', 'TIERED_VOLUME')`); err != nil {
		t.Fatalf("insert add-on: %v", err)
	}

	body := strings.Replace(businessCardOrder, `{"add_on_id": 1}`, `{"add_on_id": 50}`, 1)
	rr := doRequest(t, srv.routes(), http.MethodPost, "/api/price", body)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d: %s", rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "TIERED_VOLUME") {
		t.Fatalf("catalog internals leaked to the customer: %s", rr.Body.String())
	}
}

func TestPricingErrorsAreCounted(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.routes()

	doRequest(t, h, http.MethodPost, "/api/price", businessCardOrder)
	doRequest(t, h, http.MethodPost, "/api/price", strings.Replace(businessCardOrder, `"turnaround_id": 3`, `"turnaround_id": 77`, 1))

	rr := doRequest(t, h, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, expected := range []string{
		`prints_pricing_calculations_total{outcome="ok"} 1`,
		`prints_pricing_calculations_total{outcome="invalid_selection"} 1`,
		`prints_pricing_total_price_count 1`,
	} {
		if !strings.Contains(body, expected) {
			t.Fatalf("expected metrics to contain %q, got:\n%s", expected, body)
		}
	}
}

func TestHandleCatalog_ListsSeededCatalog(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doRequest(t, srv.routes(), http.MethodGet, "/api/catalog", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp catalogResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.PaperStocks) != 5 || len(resp.Turnarounds) != 4 || len(resp.AddOns) != 5 {
		t.Fatalf("unexpected catalog sizes: %d stocks, %d turnarounds, %d add-ons",
			len(resp.PaperStocks), len(resp.Turnarounds), len(resp.AddOns))
	}
	if resp.DoubleSidedMultiplier == nil || !resp.DoubleSidedMultiplier.Equal(decimal.RequireFromString("1.6")) {
		t.Fatalf("unexpected double-sided multiplier: %v", resp.DoubleSidedMultiplier)
	}
	if resp.AddOns[4].Model != pricing.ModelCustom || len(resp.AddOns[4].SubOptions) != 1 {
		t.Fatalf("unexpected spot UV view: %+v", resp.AddOns[4])
	}
}

func TestFixedCatalogServesFileSnapshot(t *testing.T) {
	srv, _ := newTestServer(t)
	snap, err := catalog.LoadFile("../../internal/catalog/testdata/catalog.yaml")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	srv.catalog = fixedCatalog{snap: snap}

	body := strings.Replace(businessCardOrder, `"turnaround_id": 3`, `"turnaround_id": 1`, 1)
	body = strings.Replace(body, `{"add_on_id": 3}`, `{"add_on_id": 2}`, 1)
	rr := doRequest(t, srv.routes(), http.MethodPost, "/api/price", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp priceResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.CatalogVersion != 7 || !resp.TotalPrice.Equal(decimal.RequireFromString("55.60")) {
		t.Fatalf("unexpected file catalog result: version=%d total=%s", resp.CatalogVersion, resp.TotalPrice)
	}
}

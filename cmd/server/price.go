package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	zlog "github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/o.prints/internal/catalog"
	"github.com/Simplici0/o.prints/internal/pricing"
)

const maxBodyBytes = 1 << 20

// priceRequest is the body of POST /api/price and POST /quotes. Title and
// notes are only stored by the latter.
type priceRequest struct {
	pricing.Request
	Title string `json:"title,omitempty"`
	Notes string `json:"notes,omitempty"`
}

type priceResponse struct {
	CatalogVersion int64  `json:"catalog_version"`
	Currency       string `json:"currency"`
	pricing.Result
}

// pricedQuote is a calculation together with the snapshot it ran against.
type pricedQuote struct {
	request  pricing.Request
	result   pricing.Result
	version  int64
	currency string
}

type catalogResponse struct {
	Version               int64            `json:"version"`
	Currency              string           `json:"currency"`
	DoubleSidedMultiplier *decimal.Decimal `json:"double_sided_multiplier,omitempty"`
	PaperStocks           []paperStockView `json:"paper_stocks"`
	Turnarounds           []turnaroundView `json:"turnarounds"`
	AddOns                []addOnView      `json:"add_ons"`
}

type paperStockView struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SubstituteOf *int64 `json:"substitute_of,omitempty"`
}

type turnaroundView struct {
	ID             int64                      `json:"id"`
	Name           string                     `json:"name"`
	Category       pricing.TurnaroundCategory `json:"category"`
	ProductionDays int                        `json:"production_days"`
}

type addOnView struct {
	ID         int64                    `json:"id"`
	Name       string                   `json:"name"`
	Model      pricing.PricingModel     `json:"pricing_model"`
	SubOptions []pricing.SubOptionField `json:"sub_options"`
}

func (s *server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	snap, err := s.catalog.Snapshot(r.Context())
	if err != nil {
		s.writePricingError(w, r, fmt.Errorf("load catalog snapshot: %w", err))
		return
	}

	resp := catalogResponse{
		Version:     snap.Version(),
		Currency:    snap.Currency(),
		PaperStocks: make([]paperStockView, 0),
		Turnarounds: make([]turnaroundView, 0),
		AddOns:      make([]addOnView, 0),
	}
	if m, ok := snap.DoubleSidedMultiplier(); ok {
		resp.DoubleSidedMultiplier = &m
	}
	for _, stock := range snap.PaperStocks() {
		resp.PaperStocks = append(resp.PaperStocks, paperStockView{ID: stock.ID, Name: stock.Name, SubstituteOf: stock.SubstituteOf})
	}
	for _, t := range snap.Turnarounds() {
		resp.Turnarounds = append(resp.Turnarounds, turnaroundView{ID: t.ID, Name: t.Name, Category: t.Category, ProductionDays: t.ProductionDays})
	}
	for _, a := range snap.AddOns() {
		schema := a.SubOptionSchema
		if schema == nil {
			schema = []pricing.SubOptionField{}
		}
		resp.AddOns = append(resp.AddOns, addOnView{ID: a.ID, Name: a.Name, Model: a.Model, SubOptions: schema})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handlePrice(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, http.StatusOK, priceResponse{
		CatalogVersion: quote.version,
		Currency:       quote.currency,
		Result:         quote.result,
	})
}

// price runs one calculation against a single catalog snapshot.
func (s *server) price(r *http.Request, req pricing.Request) (pricedQuote, error) {
	snap, err := s.catalog.Snapshot(r.Context())
	if err != nil {
		return pricedQuote{}, fmt.Errorf("load catalog snapshot: %w", err)
	}

	req, err = snap.NormalizeRequest(req)
	if err != nil {
		return pricedQuote{}, err
	}

	result, err := pricing.Calculate(snap, req)
	if err != nil {
		return pricedQuote{}, err
	}

	s.metrics.observeTotal(result.TotalPrice)
	return pricedQuote{
		request:  req,
		result:   result,
		version:  snap.Version(),
		currency: snap.Currency(),
	}, nil
}

func decodePriceRequest(w http.ResponseWriter, r *http.Request) (priceRequest, error) {
	var body priceRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		return priceRequest{}, fmt.Errorf("invalid request body: %w", err)
	}

	if !validSides(body.Sides) {
		return priceRequest{}, fmt.Errorf("sides must be %q or %q", pricing.SidesSingle, pricing.SidesDouble)
	}
	for _, selected := range body.AddOns {
		if selected.Sides != "" && !validSides(selected.Sides) {
			return priceRequest{}, fmt.Errorf("add-on %d: sides must be %q or %q", selected.AddOnID, pricing.SidesSingle, pricing.SidesDouble)
		}
	}

	body.Title = strings.TrimSpace(body.Title)
	body.Notes = strings.TrimSpace(body.Notes)
	return body, nil
}

func validSides(s pricing.Sides) bool {
	return s == pricing.SidesSingle || s == pricing.SidesDouble
}

// writePricingError maps calculation failures to HTTP statuses. Customer
// mistakes are 422; catalog misconfiguration is 500 and alerts operators.
func (s *server) writePricingError(w http.ResponseWriter, r *http.Request, err error) {
	logger := zlog.Ctx(r.Context())

	switch {
	case pricing.IsInvalidSelection(err) || errors.Is(err, catalog.ErrInvalidSubOption):
		s.metrics.observe(outcomeInvalidSelection)
		logger.Warn().Err(err).Msg("invalid pricing selection")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case pricing.IsDataIntegrity(err) || errors.Is(err, catalog.ErrInvalidCatalog):
		s.metrics.observe(outcomeDataIntegrity)
		logger.Error().Err(err).Bool("alert", true).Msg("pricing data integrity failure")
		http.Error(w, "pricing is temporarily unavailable for this selection", http.StatusInternalServerError)
	default:
		s.metrics.observe(outcomeInternal)
		logger.Error().Err(err).Msg("pricing failed")
		http.Error(w, "failed to price request", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Error().Err(err).Msg("encode json response")
	}
}

// Package api exposes the transaction engine over HTTP. It owns wire
// decoding, query-parameter parsing and the mapping of engine errors to
// status codes; the engine itself knows nothing about transport.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/pedro-hbl/sales-analytics/pkg/engine"
	"github.com/pedro-hbl/sales-analytics/pkg/engine/models"
)

const (
	defaultPage    = 1
	defaultPerPage = 100
)

// Handler serves the HTTP API over an engine instance
type Handler struct {
	eng engine.Engine
}

// NewHandler creates a handler bound to the given engine
func NewHandler(eng engine.Engine) *Handler {
	return &Handler{eng: eng}
}

// CreateTransaction handles POST /transactions. A missing id is assigned a
// fresh UUID before the record reaches the engine.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx models.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		writeDecodeError(w, err)
		return
	}
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if err := h.eng.Insert(&tx); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// UploadTransactions handles POST /transactions/batch. Duplicate ids are
// skipped and counted rather than failing the upload.
func (h *Handler) UploadTransactions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Transactions []*models.Transaction `json:"transactions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if len(req.Transactions) == 0 {
		writeError(w, fmt.Errorf("%w: no transactions in request", engine.ErrInvalidArgument))
		return
	}
	for _, tx := range req.Transactions {
		if tx != nil && tx.ID == "" {
			tx.ID = uuid.New().String()
		}
	}
	added, skipped, err := h.eng.InsertBatch(req.Transactions)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{
		"added":   added,
		"skipped": skipped,
		"total":   len(h.eng.ListAll()),
	})
}

// GetTransaction handles GET /transactions/{id}
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.eng.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// UpdateTransaction handles PATCH /transactions/{id}
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var patch models.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeDecodeError(w, err)
		return
	}
	tx, err := h.eng.Update(mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// DeleteTransaction handles DELETE /transactions/{id}
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.eng.Delete(mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTransactions handles GET /transactions with page/perPage pagination
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", defaultPage)
	if err != nil {
		writeError(w, err)
		return
	}
	perPage, err := queryInt(r, "perPage", defaultPerPage)
	if err != nil {
		writeError(w, err)
		return
	}
	if page < 1 || perPage < 1 {
		writeJSONError(w, http.StatusBadRequest, "page and perPage must be positive")
		return
	}

	all := h.eng.ListAll()
	start := (page - 1) * perPage
	if start > len(all) {
		start = len(all)
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": all[start:end],
		"count":        len(all),
		"page":         page,
		"perPage":      perPage,
	})
}

// ClearTransactions handles DELETE /transactions
func (h *Handler) ClearTransactions(w http.ResponseWriter, r *http.Request) {
	removed := h.eng.Reset()
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// FilterTransactions handles GET /transactions/filter
func (h *Handler) FilterTransactions(w http.ResponseWriter, r *http.Request) {
	q, err := parseFilterQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	matched, err := h.eng.Filter(q)
	if err != nil {
		writeError(w, err)
		return
	}
	if matched == nil {
		matched = []*models.Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": matched,
		"count":        len(matched),
	})
}

// TotalsPerProduct handles GET /analytics/totals-per-product, returning
// products sorted by total descending.
func (h *Handler) TotalsPerProduct(w http.ResponseWriter, r *http.Request) {
	totals := h.eng.TotalsPerProduct()
	products := make([]models.ProductTotal, 0, len(totals))
	for id, total := range totals {
		products = append(products, models.ProductTotal{ProductID: id, Total: total})
	}
	sort.Slice(products, func(i, j int) bool {
		if !products[i].Total.Equal(products[j].Total) {
			return products[i].Total.GreaterThan(products[j].Total)
		}
		return products[i].ProductID < products[j].ProductID
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

// TopCustomers handles GET /analytics/top-customers?limit=n
func (h *Handler) TopCustomers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		writeError(w, err)
		return
	}
	top, err := h.eng.TopCustomers(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"topCustomers": top})
}

// Summary handles GET /analytics/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.eng.Summary())
}

// parseFilterQuery builds an engine.FilterQuery from request query params.
func parseFilterQuery(r *http.Request) (engine.FilterQuery, error) {
	var q engine.FilterQuery
	params := r.URL.Query()

	if v := params.Get("product"); v != "" {
		q.ProductID = &v
	}
	if v := params.Get("customer"); v != "" {
		q.CustomerID = &v
	}
	if v := params.Get("minAmount"); v != "" {
		d, err := parseAmount(v)
		if err != nil {
			return q, err
		}
		q.MinAmount = &d
	}
	if v := params.Get("maxAmount"); v != "" {
		d, err := parseAmount(v)
		if err != nil {
			return q, err
		}
		q.MaxAmount = &d
	}
	if v := params.Get("from"); v != "" {
		ts, err := engine.ParseTimestamp(v)
		if err != nil {
			return q, err
		}
		q.From = &ts
	}
	if v := params.Get("to"); v != "" {
		ts, err := engine.ParseTimestamp(v)
		if err != nil {
			return q, err
		}
		q.To = &ts
	}
	q.SortBy = engine.SortField(params.Get("sortBy"))
	q.Descending = params.Get("order") == "desc"
	return q, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid amount %q", engine.ErrInvalidArgument, s)
	}
	return d, nil
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", engine.ErrInvalidArgument, key, v)
	}
	return n, nil
}

// writeError maps engine errors onto transport status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrDuplicateID):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrInvalidArgument), errors.Is(err, engine.ErrMalformedTimestamp):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

// writeDecodeError maps body-decoding failures; an unparseable timestamp
// inside the payload surfaces as a malformed-timestamp error.
func writeDecodeError(w http.ResponseWriter, err error) {
	var parseErr *time.ParseError
	if errors.As(err, &parseErr) {
		writeJSONError(w, http.StatusBadRequest, engine.ErrMalformedTimestamp.Error()+": "+parseErr.Error())
		return
	}
	writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires the HTTP surface over the handler. The filter route is
// registered before the {id} routes so "filter" is never captured as an id.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/transactions/filter", h.FilterTransactions).Methods(http.MethodGet)
	r.HandleFunc("/transactions/batch", h.UploadTransactions).Methods(http.MethodPost)

	r.HandleFunc("/transactions", h.CreateTransaction).Methods(http.MethodPost)
	r.HandleFunc("/transactions", h.ListTransactions).Methods(http.MethodGet)
	r.HandleFunc("/transactions", h.ClearTransactions).Methods(http.MethodDelete)

	r.HandleFunc("/transactions/{id}", h.GetTransaction).Methods(http.MethodGet)
	r.HandleFunc("/transactions/{id}", h.UpdateTransaction).Methods(http.MethodPatch)
	r.HandleFunc("/transactions/{id}", h.DeleteTransaction).Methods(http.MethodDelete)

	r.HandleFunc("/analytics/totals-per-product", h.TotalsPerProduct).Methods(http.MethodGet)
	r.HandleFunc("/analytics/top-customers", h.TopCustomers).Methods(http.MethodGet)
	r.HandleFunc("/analytics/summary", h.Summary).Methods(http.MethodGet)

	return r
}

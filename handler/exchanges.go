package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mstgnz/shurjopay/infra/response"
	"github.com/mstgnz/shurjopay/provider"
)

// ExchangeStore is the local audit trail (infra/sqlite)
type ExchangeStore interface {
	Recent(ctx context.Context, limit int) ([]provider.Exchange, error)
	ByOrderID(ctx context.Context, orderID string) ([]provider.Exchange, error)
}

// FailureSearcher finds failed exchanges in the search cluster (infra/opensearch)
type FailureSearcher interface {
	RecentFailures(ctx context.Context, hours int) ([]provider.Exchange, error)
}

// ExchangesHandler exposes recorded gateway exchanges
type ExchangesHandler struct {
	store    ExchangeStore
	failures FailureSearcher
}

// NewExchangesHandler creates a new exchanges handler. failures may be nil.
func NewExchangesHandler(store ExchangeStore, failures FailureSearcher) *ExchangesHandler {
	return &ExchangesHandler{
		store:    store,
		failures: failures,
	}
}

// ListRecent returns the newest exchanges, ?limit= defaults to 50 and is capped at 500
func (h *ExchangesHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	limit := queryInt(r, "limit", 50)
	if limit > 500 {
		limit = 500
	}

	exchanges, err := h.store.Recent(ctx, limit)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to read exchanges", err)
		return
	}

	response.Success(w, http.StatusOK, "Exchanges retrieved", exchanges)
}

// ListByOrder returns every exchange recorded for an order
func (h *ExchangesHandler) ListByOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orderID := chi.URLParam(r, "orderID")
	exchanges, err := h.store.ByOrderID(ctx, orderID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to read exchanges", err)
		return
	}
	if len(exchanges) == 0 {
		response.Error(w, http.StatusNotFound, "No exchanges recorded for order "+orderID, nil)
		return
	}

	response.Success(w, http.StatusOK, "Exchanges retrieved", exchanges)
}

// ListFailures returns failed exchanges from the last ?hours= (default 24)
func (h *ExchangesHandler) ListFailures(w http.ResponseWriter, r *http.Request) {
	if h.failures == nil {
		response.Error(w, http.StatusServiceUnavailable, "Exchange search is not configured", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	exchanges, err := h.failures.RecentFailures(ctx, queryInt(r, "hours", 24))
	if err != nil {
		response.Error(w, http.StatusBadGateway, "Failed to search exchanges", err)
		return
	}

	response.Success(w, http.StatusOK, "Failures retrieved", exchanges)
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

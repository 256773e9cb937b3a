package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opinix/opinix/internal/domain"
	"github.com/opinix/opinix/internal/service"
)

// MarketHandler handles HTTP requests for symbol, orderbook, and mint
// endpoints.
type MarketHandler struct {
	marketSvc *service.MarketService
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(marketSvc *service.MarketService) *MarketHandler {
	return &MarketHandler{marketSvc: marketSvc}
}

// mintRequest is the JSON request body for POST /trade/mint.
type mintRequest struct {
	UserID   string `json:"userId"`
	Symbol   string `json:"stockSymbol"`
	Quantity int64  `json:"quantity"`
}

// CreateSymbol handles POST /symbol/create/{symbol}. No body.
func (h *MarketHandler) CreateSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	if err := h.marketSvc.CreateSymbol(symbol); err != nil {
		mapMarketError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"symbol": symbol})
}

// Orderbook handles GET /orderbook/{symbol}. An empty market returns
// {"yes": {}, "no": {}}.
func (h *MarketHandler) Orderbook(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	depth, err := h.marketSvc.Orderbook(symbol)
	if err != nil {
		mapMarketError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, depth)
}

// Mint handles POST /trade/mint.
func (h *MarketHandler) Mint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.marketSvc.Mint(req.UserID, req.Symbol, req.Quantity); err != nil {
		mapMarketError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"userId":      req.UserID,
		"stockSymbol": req.Symbol,
		"quantity":    req.Quantity,
	})
}

// mapMarketError maps domain errors to HTTP responses for market endpoints.
func mapMarketError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrSymbolAlreadyExists):
		writeError(w, http.StatusConflict, "symbol_already_exists", err.Error())
	case errors.Is(err, domain.ErrSymbolNotFound):
		writeError(w, http.StatusNotFound, "symbol_not_found", err.Error())
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

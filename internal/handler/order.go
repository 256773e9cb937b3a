package handler

import (
	"errors"
	"net/http"

	"github.com/opinix/opinix/internal/domain"
	"github.com/opinix/opinix/internal/service"
)

// OrderHandler handles HTTP requests for order placement.
type OrderHandler struct {
	orderSvc *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc *service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// placeOrderRequest is the JSON request body for POST /order/buy and
// POST /order/sell.
type placeOrderRequest struct {
	UserID   string `json:"userId"`
	Symbol   string `json:"stockSymbol"`
	Quantity int64  `json:"quantity"`
	Price    int64  `json:"price"`
	Outcome  string `json:"stockType"`
}

// orderResponse echoes the fill/rest outcome of a placed order.
type orderResponse struct {
	OrderID           string          `json:"orderId"`
	UserID            string          `json:"userId"`
	Symbol            string          `json:"stockSymbol"`
	Side              string          `json:"side"`
	Outcome           string          `json:"stockType"`
	Price             int64           `json:"price"`
	Quantity          int64           `json:"quantity"`
	FilledQuantity    int64           `json:"filledQuantity"`
	RemainingQuantity int64           `json:"remainingQuantity"`
	Status            string          `json:"status"`
	Trades            []tradeResponse `json:"trades"`
}

// tradeResponse is a single fill in the order response.
type tradeResponse struct {
	TradeID  string `json:"tradeId"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
}

// Buy handles POST /order/buy.
func (h *OrderHandler) Buy(w http.ResponseWriter, r *http.Request) {
	h.place(w, r, domain.SideBuy)
}

// Sell handles POST /order/sell.
func (h *OrderHandler) Sell(w http.ResponseWriter, r *http.Request) {
	h.place(w, r, domain.SideSell)
}

func (h *OrderHandler) place(w http.ResponseWriter, r *http.Request, side domain.Side) {
	var req placeOrderRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	order, err := h.orderSvc.PlaceOrder(service.PlaceOrderRequest{
		UserID:   req.UserID,
		Symbol:   req.Symbol,
		Side:     side,
		Outcome:  domain.Outcome(req.Outcome),
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		mapOrderError(w, err)
		return
	}

	trades := make([]tradeResponse, len(order.Trades))
	for i, t := range order.Trades {
		trades[i] = tradeResponse{
			TradeID:  t.TradeID,
			Price:    t.Price,
			Quantity: t.Quantity,
		}
	}

	writeJSON(w, http.StatusOK, orderResponse{
		OrderID:           order.OrderID,
		UserID:            order.UserID,
		Symbol:            order.Symbol,
		Side:              string(order.Side),
		Outcome:           string(order.Outcome),
		Price:             order.Price,
		Quantity:          order.Quantity,
		FilledQuantity:    order.FilledQuantity,
		RemainingQuantity: order.RemainingQuantity,
		Status:            string(order.Status),
		Trades:            trades,
	})
}

// mapOrderError maps domain errors to HTTP responses for order endpoints.
func mapOrderError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, domain.ErrSymbolNotFound):
		writeError(w, http.StatusNotFound, "symbol_not_found", err.Error())
	case errors.Is(err, domain.ErrInsufficientBalance):
		writeError(w, http.StatusConflict, "insufficient_balance", err.Error())
	case errors.Is(err, domain.ErrInsufficientHoldings):
		writeError(w, http.StatusConflict, "insufficient_holdings", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opinix/opinix/internal/domain"
	"github.com/opinix/opinix/internal/service"
)

// UserHandler handles HTTP requests for user and balance endpoints.
type UserHandler struct {
	userSvc *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userSvc *service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// onrampRequest is the JSON request body for POST /onramp/inr.
type onrampRequest struct {
	UserID string `json:"userId"`
	Amount int64  `json:"amount"`
}

// Create handles POST /user/create/{userId}. The request carries no body.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	if err := h.userSvc.Create(userID); err != nil {
		mapUserError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"userId": userID})
}

// Onramp handles POST /onramp/inr.
func (h *UserHandler) Onramp(w http.ResponseWriter, r *http.Request) {
	var req onrampRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.userSvc.OnrampINR(req.UserID, req.Amount); err != nil {
		mapUserError(w, err)
		return
	}

	balance, err := h.userSvc.BalanceINR(req.UserID)
	if err != nil {
		mapUserError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

// BalanceINR handles GET /balance/inr/{userId}. The response is exactly
// {balance, locked}, balance being the available portion.
func (h *UserHandler) BalanceINR(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	balance, err := h.userSvc.BalanceINR(userID)
	if err != nil {
		mapUserError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, balance)
}

// BalanceStock handles GET /balance/stock/{userId}: a mapping from
// symbol to {yes: {quantity, locked}, no: {quantity, locked}}.
func (h *UserHandler) BalanceStock(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	holdings, err := h.userSvc.BalanceStock(userID)
	if err != nil {
		mapUserError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, holdings)
}

// mapUserError maps domain errors to HTTP responses for user endpoints.
func mapUserError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrUserAlreadyExists):
		writeError(w, http.StatusConflict, "user_already_exists", err.Error())
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

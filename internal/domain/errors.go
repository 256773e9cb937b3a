package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrUserAlreadyExists    = errors.New("user_already_exists")
	ErrUserNotFound         = errors.New("user_not_found")
	ErrSymbolAlreadyExists  = errors.New("symbol_already_exists")
	ErrSymbolNotFound       = errors.New("symbol_not_found")
	ErrInsufficientBalance  = errors.New("insufficient_balance")
	ErrInsufficientHoldings = errors.New("insufficient_holdings")

	// ErrLedgerInconsistency indicates an internal invariant violation,
	// such as a settlement against a reservation that no longer covers it.
	// It is never caused by user input and is not mapped to a 4xx.
	ErrLedgerInconsistency = errors.New("ledger_inconsistency")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

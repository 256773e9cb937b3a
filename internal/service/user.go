package service

import (
	"regexp"

	"github.com/opinix/opinix/internal/domain"
	"github.com/opinix/opinix/internal/ledger"
)

var (
	userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	symbolRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,63}$`)
)

// InrBalance is the response for the INR balance endpoint.
type InrBalance struct {
	Balance int64 `json:"balance"`
	Locked  int64 `json:"locked"`
}

// UserService handles user creation, onramp, and balance queries.
type UserService struct {
	ledger *ledger.Ledger
}

// NewUserService creates a new UserService.
func NewUserService(ledger *ledger.Ledger) *UserService {
	return &UserService{ledger: ledger}
}

// Create validates the user ID and registers the user with zero balances.
func (s *UserService) Create(userID string) error {
	if !userIDRegex.MatchString(userID) {
		return &domain.ValidationError{
			Message: "userId must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	return s.ledger.CreateUser(userID)
}

// OnrampINR credits amount (paise) to the user's available INR.
func (s *UserService) OnrampINR(userID string, amount int64) error {
	if !userIDRegex.MatchString(userID) {
		return &domain.ValidationError{
			Message: "userId must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if amount <= 0 {
		return &domain.ValidationError{
			Message: "amount must be a positive integer",
		}
	}
	return s.ledger.CreditINR(userID, amount)
}

// BalanceINR returns the user's available and locked INR.
func (s *UserService) BalanceINR(userID string) (*InrBalance, error) {
	available, locked, err := s.ledger.BalanceINR(userID)
	if err != nil {
		return nil, err
	}
	return &InrBalance{Balance: available, Locked: locked}, nil
}

// BalanceStock returns the user's per-symbol outcome-token holdings.
func (s *UserService) BalanceStock(userID string) (map[string]domain.Holding, error) {
	return s.ledger.BalanceHoldings(userID)
}

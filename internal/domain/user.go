package domain

import (
	"sync"
	"time"
)

// OutcomeHolding is a user's balance in one outcome token of a market.
type OutcomeHolding struct {
	Quantity int64 `json:"quantity"` // available units
	Locked   int64 `json:"locked"`   // units reserved by resting sell orders
}

// Holding is a user's position in both outcome tokens of a single market.
type Holding struct {
	Yes OutcomeHolding `json:"yes"`
	No  OutcomeHolding `json:"no"`
}

// Balance returns a pointer to the holding's balance for the given outcome.
func (h *Holding) Balance(outcome Outcome) *OutcomeHolding {
	if outcome == OutcomeYes {
		return &h.Yes
	}
	return &h.No
}

// User represents a registered participant. All monetary values are
// integer paise; token quantities are integer units.
type User struct {
	UserID       string
	InrAvailable int64
	InrLocked    int64
	Holdings     map[string]*Holding // symbol → holding
	CreatedAt    time.Time
	Mu           sync.Mutex // per-user lock for balance mutations
}

// Holding returns the user's holding for the given symbol, creating an
// empty one if the user has never touched that market. The caller must
// hold the user's lock.
func (u *User) Holding(symbol string) *Holding {
	h, ok := u.Holdings[symbol]
	if !ok {
		h = &Holding{}
		u.Holdings[symbol] = h
	}
	return h
}

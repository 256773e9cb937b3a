// Package ledger owns every user's cash and token balances and exposes
// the atomic reserve/release/settle operations the matching engine is
// built on. All mutation goes through these operations; balances are
// never touched directly by other packages.
package ledger

import (
	"sync"
	"time"

	"github.com/opinix/opinix/internal/domain"
)

// Ledger is a thread-safe in-memory account store keyed by user ID.
// The outer lock protects the map; each user carries its own lock for
// balance mutations. Settle acquires both parties' locks in sorted
// user-ID order to avoid deadlock between opposite-role pairs.
type Ledger struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{
		users: make(map[string]*domain.User),
	}
}

// CreateUser registers a new user with zero balances. It returns
// domain.ErrUserAlreadyExists if the ID is taken.
func (l *Ledger) CreateUser(userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.users[userID]; exists {
		return domain.ErrUserAlreadyExists
	}
	l.users[userID] = &domain.User{
		UserID:    userID,
		Holdings:  make(map[string]*domain.Holding),
		CreatedAt: time.Now(),
	}
	return nil
}

// get looks up a user. Callers lock the returned user before mutating.
func (l *Ledger) get(userID string) (*domain.User, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	u, ok := l.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// Exists returns true if a user with the given ID is registered.
func (l *Ledger) Exists(userID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.users[userID]
	return ok
}

// CreditINR adds amount (paise) to the user's available INR balance.
// The onramp endpoint is the only caller. Amount must be positive.
func (l *Ledger) CreditINR(userID string, amount int64) error {
	if amount <= 0 {
		return &domain.ValidationError{Message: "amount must be a positive integer"}
	}
	u, err := l.get(userID)
	if err != nil {
		return err
	}

	u.Mu.Lock()
	u.InrAvailable += amount
	u.Mu.Unlock()
	return nil
}

// Mint credits quantity units of BOTH outcome tokens of the symbol to
// the user: a minted unit always produces one yes and one no token
// (the complete-set convention of binary-outcome markets). Symbol
// existence is the caller's concern; the ledger is symbol-agnostic.
func (l *Ledger) Mint(userID, symbol string, quantity int64) error {
	if quantity <= 0 {
		return &domain.ValidationError{Message: "quantity must be a positive integer"}
	}
	u, err := l.get(userID)
	if err != nil {
		return err
	}

	u.Mu.Lock()
	h := u.Holding(symbol)
	h.Yes.Quantity += quantity
	h.No.Quantity += quantity
	u.Mu.Unlock()
	return nil
}

// ReserveINR moves amount from the user's available INR to locked INR,
// backing a not-yet-settled buy order. Amount must be positive: a
// non-positive amount (including an overflowed notional) is rejected
// before any balance is touched. It returns
// domain.ErrInsufficientBalance if available < amount.
func (l *Ledger) ReserveINR(userID string, amount int64) error {
	if amount <= 0 {
		return &domain.ValidationError{Message: "amount must be a positive integer"}
	}
	u, err := l.get(userID)
	if err != nil {
		return err
	}

	u.Mu.Lock()
	defer u.Mu.Unlock()

	if u.InrAvailable < amount {
		return domain.ErrInsufficientBalance
	}
	u.InrAvailable -= amount
	u.InrLocked += amount
	return nil
}

// ReleaseINR is the inverse of ReserveINR.
func (l *Ledger) ReleaseINR(userID string, amount int64) error {
	u, err := l.get(userID)
	if err != nil {
		return err
	}

	u.Mu.Lock()
	defer u.Mu.Unlock()

	if u.InrLocked < amount {
		return domain.ErrLedgerInconsistency
	}
	u.InrLocked -= amount
	u.InrAvailable += amount
	return nil
}

// ReserveHolding moves quantity of the user's outcome tokens from
// available to locked, backing a not-yet-settled sell order. It returns
// domain.ErrInsufficientHoldings if available < quantity. Quantity
// must be positive.
func (l *Ledger) ReserveHolding(userID, symbol string, outcome domain.Outcome, quantity int64) error {
	if quantity <= 0 {
		return &domain.ValidationError{Message: "quantity must be a positive integer"}
	}
	u, err := l.get(userID)
	if err != nil {
		return err
	}

	u.Mu.Lock()
	defer u.Mu.Unlock()

	b := u.Holding(symbol).Balance(outcome)
	if b.Quantity < quantity {
		return domain.ErrInsufficientHoldings
	}
	b.Quantity -= quantity
	b.Locked += quantity
	return nil
}

// ReleaseHolding is the inverse of ReserveHolding.
func (l *Ledger) ReleaseHolding(userID, symbol string, outcome domain.Outcome, quantity int64) error {
	u, err := l.get(userID)
	if err != nil {
		return err
	}

	u.Mu.Lock()
	defer u.Mu.Unlock()

	b := u.Holding(symbol).Balance(outcome)
	if b.Locked < quantity {
		return domain.ErrLedgerInconsistency
	}
	b.Locked -= quantity
	b.Quantity += quantity
	return nil
}

// Settle atomically exchanges cash and tokens between buyer and seller
// for a single fill. tradePrice is the execution price (the resting
// order's price); reservedPrice is the price the buyer's INR was locked
// at. When the buyer's limit improved on the execution price the
// surplus (reservedPrice-tradePrice)*quantity is released back to the
// buyer's available INR in the same critical section, so no reader ever
// observes a dangling lock.
//
// Settle fails with domain.ErrLedgerInconsistency only if upstream
// reservations were violated; that is an internal fault, not a
// user-facing error.
func (l *Ledger) Settle(buyerID, sellerID, symbol string, outcome domain.Outcome, tradePrice, reservedPrice, quantity int64) error {
	buyer, err := l.get(buyerID)
	if err != nil {
		return err
	}
	seller, err := l.get(sellerID)
	if err != nil {
		return err
	}

	l.lockPair(buyer, seller)
	defer l.unlockPair(buyer, seller)

	cost := reservedPrice * quantity
	proceeds := tradePrice * quantity

	sellerBal := seller.Holding(symbol).Balance(outcome)
	if buyer.InrLocked < cost || sellerBal.Locked < quantity {
		return domain.ErrLedgerInconsistency
	}

	buyer.InrLocked -= cost
	buyer.InrAvailable += cost - proceeds // price-improvement refund
	seller.InrAvailable += proceeds

	sellerBal.Locked -= quantity
	buyer.Holding(symbol).Balance(outcome).Quantity += quantity
	return nil
}

// lockPair acquires both users' locks in sorted user-ID order, or a
// single lock on a self-match.
func (l *Ledger) lockPair(a, b *domain.User) {
	switch {
	case a == b:
		a.Mu.Lock()
	case a.UserID < b.UserID:
		a.Mu.Lock()
		b.Mu.Lock()
	default:
		b.Mu.Lock()
		a.Mu.Lock()
	}
}

func (l *Ledger) unlockPair(a, b *domain.User) {
	a.Mu.Unlock()
	if a != b {
		b.Mu.Unlock()
	}
}

// BalanceINR returns the user's available and locked INR.
func (l *Ledger) BalanceINR(userID string) (available, locked int64, err error) {
	u, err := l.get(userID)
	if err != nil {
		return 0, 0, err
	}

	u.Mu.Lock()
	defer u.Mu.Unlock()
	return u.InrAvailable, u.InrLocked, nil
}

// BalanceHoldings returns a copy of the user's per-symbol holdings.
func (l *Ledger) BalanceHoldings(userID string) (map[string]domain.Holding, error) {
	u, err := l.get(userID)
	if err != nil {
		return nil, err
	}

	u.Mu.Lock()
	defer u.Mu.Unlock()

	out := make(map[string]domain.Holding, len(u.Holdings))
	for symbol, h := range u.Holdings {
		out[symbol] = *h
	}
	return out, nil
}

// Reset clears all accounts. Test/operational utility only.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.users = make(map[string]*domain.User)
}

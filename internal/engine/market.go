package engine

import (
	"sync"

	"github.com/opinix/opinix/internal/domain"
)

// Market is one binary-outcome market: a symbol and its two order
// books. The mutex is the per-symbol serialization point — a single
// active mutator per symbol at a time, so no reader ever observes a
// level whose total and queue disagree.
type Market struct {
	Symbol string
	mu     sync.Mutex
	yes    *Book
	no     *Book
}

// NewMarket creates a market with two empty books.
func NewMarket(symbol string) *Market {
	return &Market{
		Symbol: symbol,
		yes:    NewBook(),
		no:     NewBook(),
	}
}

// Book returns the order book for the given outcome. The caller must
// hold the market's lock before touching it.
func (m *Market) Book(outcome domain.Outcome) *Book {
	if outcome == domain.OutcomeYes {
		return m.yes
	}
	return m.no
}

// Lock acquires the per-symbol serialization lock.
func (m *Market) Lock() { m.mu.Lock() }

// Unlock releases the per-symbol serialization lock.
func (m *Market) Unlock() { m.mu.Unlock() }

// Depth returns the market's full depth view. It takes the market lock
// so the view is consistent with any in-flight matching pass.
func (m *Market) Depth() domain.BookDepth {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.BookDepth{
		Yes: m.yes.Depth(),
		No:  m.no.Depth(),
	}
}

// Registry is a thread-safe map of symbol → Market.
type Registry struct {
	mu      sync.RWMutex
	markets map[string]*Market
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		markets: make(map[string]*Market),
	}
}

// Create installs a new market with two empty books. It returns
// domain.ErrSymbolAlreadyExists if the symbol is taken.
func (r *Registry) Create(symbol string) (*Market, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.markets[symbol]; exists {
		return nil, domain.ErrSymbolAlreadyExists
	}
	m := NewMarket(symbol)
	r.markets[symbol] = m
	return m, nil
}

// Get retrieves a market by symbol. It returns domain.ErrSymbolNotFound
// if the symbol is unknown.
func (r *Registry) Get(symbol string) (*Market, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.markets[symbol]
	if !ok {
		return nil, domain.ErrSymbolNotFound
	}
	return m, nil
}

// Exists returns true if the symbol has a market.
func (r *Registry) Exists(symbol string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.markets[symbol]
	return ok
}

// Snapshot builds the global depth view across every market. Each
// market is locked briefly in turn; the snapshot is immutable once
// built and safe to hand to subscribers.
func (r *Registry) Snapshot() domain.Snapshot {
	r.mu.RLock()
	markets := make([]*Market, 0, len(r.markets))
	for _, m := range r.markets {
		markets = append(markets, m)
	}
	r.mu.RUnlock()

	snap := make(domain.Snapshot, len(markets))
	for _, m := range markets {
		snap[m.Symbol] = m.Depth()
	}
	return snap
}

// Reset clears all markets. Test/operational utility only.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markets = make(map[string]*Market)
}

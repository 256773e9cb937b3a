package service

import (
	"github.com/opinix/opinix/internal/domain"
	"github.com/opinix/opinix/internal/engine"
	"github.com/opinix/opinix/internal/ledger"
)

// MarketService handles symbol creation, orderbook queries, and minting.
type MarketService struct {
	registry *engine.Registry
	ledger   *ledger.Ledger
}

// NewMarketService creates a new MarketService.
func NewMarketService(registry *engine.Registry, ledger *ledger.Ledger) *MarketService {
	return &MarketService{
		registry: registry,
		ledger:   ledger,
	}
}

// CreateSymbol validates the symbol and installs a market with two
// empty order books.
func (s *MarketService) CreateSymbol(symbol string) error {
	if !symbolRegex.MatchString(symbol) {
		return &domain.ValidationError{
			Message: "symbol must match ^[A-Za-z][A-Za-z0-9_]{0,63}$",
		}
	}
	_, err := s.registry.Create(symbol)
	return err
}

// Orderbook returns the depth view of a single market.
func (s *MarketService) Orderbook(symbol string) (domain.BookDepth, error) {
	market, err := s.registry.Get(symbol)
	if err != nil {
		return domain.BookDepth{}, err
	}
	return market.Depth(), nil
}

// Mint credits quantity of both outcome tokens of the symbol to the
// user. Minting mutates no order book, so no event is published.
func (s *MarketService) Mint(userID, symbol string, quantity int64) error {
	if quantity <= 0 {
		return &domain.ValidationError{
			Message: "quantity must be a positive integer",
		}
	}
	if !s.registry.Exists(symbol) {
		return domain.ErrSymbolNotFound
	}
	return s.ledger.Mint(userID, symbol, quantity)
}

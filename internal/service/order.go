package service

import (
	"time"

	"github.com/opinix/opinix/internal/domain"
	"github.com/opinix/opinix/internal/engine"
	"github.com/opinix/opinix/internal/feed"
	"github.com/opinix/opinix/internal/metrics"
)

// Price and quantity settle in int64 paise; these caps keep every
// price*quantity notional inside the representable range.
const (
	maxOrderPrice    int64 = 1_000_000_000
	maxOrderQuantity int64 = 1_000_000_000
)

// PlaceOrderRequest represents the input for order placement.
type PlaceOrderRequest struct {
	UserID   string
	Symbol   string
	Side     domain.Side
	Outcome  domain.Outcome
	Price    int64
	Quantity int64
}

// OrderService validates order requests, runs the matching engine, and
// publishes the resulting orderbook snapshot.
type OrderService struct {
	matcher   *engine.Matcher
	publisher *feed.Publisher
}

// NewOrderService creates a new OrderService.
func NewOrderService(matcher *engine.Matcher, publisher *feed.Publisher) *OrderService {
	return &OrderService{
		matcher:   matcher,
		publisher: publisher,
	}
}

// PlaceOrder validates the request, runs the full matching pass, and —
// only after the mutation has committed — publishes exactly one
// orderbook event. A rejected order publishes nothing.
func (s *OrderService) PlaceOrder(req PlaceOrderRequest) (*domain.Order, error) {
	if !userIDRegex.MatchString(req.UserID) {
		return nil, &domain.ValidationError{
			Message: "userId must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if !symbolRegex.MatchString(req.Symbol) {
		return nil, &domain.ValidationError{
			Message: "stockSymbol must match ^[A-Za-z][A-Za-z0-9_]{0,63}$",
		}
	}
	if req.Side != domain.SideBuy && req.Side != domain.SideSell {
		return nil, &domain.ValidationError{
			Message: "side must be 'buy' or 'sell'",
		}
	}
	if req.Outcome != domain.OutcomeYes && req.Outcome != domain.OutcomeNo {
		return nil, &domain.ValidationError{
			Message: "stockType must be 'yes' or 'no'",
		}
	}
	if req.Price <= 0 || req.Price > maxOrderPrice {
		return nil, &domain.ValidationError{
			Message: "price must be a positive integer no greater than 1000000000",
		}
	}
	if req.Quantity <= 0 || req.Quantity > maxOrderQuantity {
		return nil, &domain.ValidationError{
			Message: "quantity must be a positive integer no greater than 1000000000",
		}
	}

	order := &domain.Order{
		UserID:   req.UserID,
		Symbol:   req.Symbol,
		Side:     req.Side,
		Outcome:  req.Outcome,
		Price:    req.Price,
		Quantity: req.Quantity,
	}

	start := time.Now()
	if _, err := s.matcher.PlaceOrder(order); err != nil {
		return nil, err
	}
	metrics.OrdersTotal.WithLabelValues(string(req.Side)).Inc()
	metrics.OrderLatency.WithLabelValues(string(req.Side)).Observe(time.Since(start).Seconds())

	s.publisher.Publish()
	return order, nil
}

package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/opinix/opinix/internal/domain"
	"github.com/opinix/opinix/internal/ledger"
	"github.com/opinix/opinix/internal/metrics"
)

// Matcher implements price-time-priority matching for limit orders.
type Matcher struct {
	registry *Registry
	ledger   *ledger.Ledger
}

// NewMatcher creates a Matcher over the given registry and ledger.
func NewMatcher(registry *Registry, ledger *ledger.Ledger) *Matcher {
	return &Matcher{
		registry: registry,
		ledger:   ledger,
	}
}

// PlaceOrder processes an incoming limit order through the matching
// engine. It reserves collateral up front, runs the match loop against
// the opposing ladder of the same outcome's book, settles each fill at
// the resting order's price, and rests any unfilled remainder at its
// own price level.
//
// The caller must provide an Order with UserID, Symbol, Side, Outcome,
// Price, and Quantity set and already validated. The matcher assigns
// OrderID and CreatedAt and manages all status transitions.
//
// A failed reservation aborts before any book mutation. Settlement
// failures surface as domain.ErrLedgerInconsistency; they indicate a
// violated upstream invariant, never bad user input.
//
// The per-symbol lock is held for the entire matching pass, so orders
// on one symbol match in arrival order while other symbols proceed in
// parallel. Self-matching (the same user on both sides) is permitted
// and settles like any other fill.
func (m *Matcher) PlaceOrder(order *domain.Order) ([]*domain.Trade, error) {
	market, err := m.registry.Get(order.Symbol)
	if err != nil {
		return nil, err
	}

	// Reserve collateral: a buy locks price*quantity INR, a sell locks
	// the tokens being sold. The only failure modes are an unknown user,
	// an insufficient available balance, and a notional too large to
	// represent in paise.
	if order.Side == domain.SideBuy {
		cost := order.Price * order.Quantity
		if order.Quantity != 0 && cost/order.Quantity != order.Price {
			return nil, &domain.ValidationError{
				Message: "price*quantity exceeds the maximum order value",
			}
		}
		if err := m.ledger.ReserveINR(order.UserID, cost); err != nil {
			return nil, err
		}
	} else {
		if err := m.ledger.ReserveHolding(order.UserID, order.Symbol, order.Outcome, order.Quantity); err != nil {
			return nil, err
		}
	}

	market.Lock()
	defer market.Unlock()

	order.OrderID = uuid.New().String()
	order.CreatedAt = time.Now()
	order.RemainingQuantity = order.Quantity
	order.FilledQuantity = 0
	order.Status = domain.OrderStatusPending
	order.Trades = []*domain.Trade{}

	book := market.Book(order.Outcome)
	executedAt := time.Now()
	var trades []*domain.Trade

	for order.RemainingQuantity > 0 {
		// Peek the best opposing level and check price compatibility:
		// a buy consumes the cheapest sells up to its limit, a sell the
		// highest buys down to its limit.
		var level *Level
		var found bool

		if order.Side == domain.SideBuy {
			level, found = book.BestSell()
			if !found || level.Price > order.Price {
				break
			}
		} else {
			level, found = book.BestBuy()
			if !found || level.Price < order.Price {
				break
			}
		}

		// Consume the level's queue oldest-first.
		for order.RemainingQuantity > 0 && len(level.Queue) > 0 {
			entry := level.Queue[0]

			fillQty := order.RemainingQuantity
			if entry.Quantity < fillQty {
				fillQty = entry.Quantity
			}

			// Execution price is always the resting order's price;
			// price improvement favors the resting side.
			trade := &domain.Trade{
				TradeID:    uuid.New().String(),
				Symbol:     order.Symbol,
				Outcome:    order.Outcome,
				Price:      level.Price,
				Quantity:   fillQty,
				ExecutedAt: executedAt,
			}

			// The buyer's reservation price: an incoming buy locked at
			// its own limit, a resting buy locked at the level price.
			if order.Side == domain.SideBuy {
				trade.BuyerID = order.UserID
				trade.SellerID = entry.UserID
				err = m.ledger.Settle(order.UserID, entry.UserID, order.Symbol, order.Outcome,
					level.Price, order.Price, fillQty)
			} else {
				trade.BuyerID = entry.UserID
				trade.SellerID = order.UserID
				err = m.ledger.Settle(entry.UserID, order.UserID, order.Symbol, order.Outcome,
					level.Price, level.Price, fillQty)
			}
			if err != nil {
				return trades, err
			}

			entry.Quantity -= fillQty
			level.Total -= fillQty
			order.RemainingQuantity -= fillQty
			order.FilledQuantity += fillQty

			if entry.Quantity == 0 {
				level.Queue = level.Queue[1:]
			}

			order.Trades = append(order.Trades, trade)
			trades = append(trades, trade)
			metrics.TradesTotal.WithLabelValues(string(order.Outcome)).Inc()
		}

		if level.Total == 0 {
			// The drained level belongs to the opposing side.
			if order.Side == domain.SideBuy {
				book.DropLevel(domain.SideSell, level)
			} else {
				book.DropLevel(domain.SideBuy, level)
			}
		}
	}

	// Rest the remainder; its reservation stays locked against the new
	// contribution.
	if order.RemainingQuantity > 0 {
		book.Rest(order.Side, order.Price, &Entry{
			OrderID:  order.OrderID,
			UserID:   order.UserID,
			Quantity: order.RemainingQuantity,
		})
		if order.FilledQuantity > 0 {
			order.Status = domain.OrderStatusPartiallyFilled
		}
	} else {
		order.Status = domain.OrderStatusFilled
	}

	return trades, nil
}

package engine

import (
	"errors"
	"testing"

	"github.com/opinix/opinix/internal/domain"
	"github.com/opinix/opinix/internal/ledger"
)

// newTestMatcher creates a Matcher with a fresh ledger and registry.
func newTestMatcher(t *testing.T, symbols ...string) (*Matcher, *ledger.Ledger, *Registry) {
	t.Helper()
	l := ledger.New()
	r := NewRegistry()
	for _, s := range symbols {
		if _, err := r.Create(s); err != nil {
			t.Fatalf("create %s: %v", s, err)
		}
	}
	return NewMatcher(r, l), l, r
}

// fundBuyer creates a user with the given INR balance.
func fundBuyer(t *testing.T, l *ledger.Ledger, id string, paise int64) {
	t.Helper()
	if err := l.CreateUser(id); err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
	if err := l.CreditINR(id, paise); err != nil {
		t.Fatalf("credit %s: %v", id, err)
	}
}

// fundSeller creates a user holding minted outcome tokens.
func fundSeller(t *testing.T, l *ledger.Ledger, id, symbol string, qty int64) {
	t.Helper()
	if err := l.CreateUser(id); err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
	if err := l.Mint(id, symbol, qty); err != nil {
		t.Fatalf("mint for %s: %v", id, err)
	}
}

func newOrder(userID, symbol string, side domain.Side, outcome domain.Outcome, price, qty int64) *domain.Order {
	return &domain.Order{
		UserID:   userID,
		Symbol:   symbol,
		Side:     side,
		Outcome:  outcome,
		Price:    price,
		Quantity: qty,
	}
}

func TestPlaceOrder_UnknownSymbol(t *testing.T) {
	m, l, _ := newTestMatcher(t)
	fundBuyer(t, l, "u1", 1000)

	_, err := m.PlaceOrder(newOrder("u1", "NOPE", domain.SideBuy, domain.OutcomeYes, 10, 1))
	if !errors.Is(err, domain.ErrSymbolNotFound) {
		t.Errorf("expected ErrSymbolNotFound, got %v", err)
	}
}

func TestPlaceOrder_BuyRestsOnEmptyBook(t *testing.T) {
	m, l, r := newTestMatcher(t, "SYM")
	fundBuyer(t, l, "u1", 1000*100)

	order := newOrder("u1", "SYM", domain.SideBuy, domain.OutcomeYes, 1000, 100)
	trades, err := m.PlaceOrder(order)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("expected 0 trades, got %d", len(trades))
	}
	if order.Status != domain.OrderStatusPending {
		t.Errorf("expected status pending, got %s", order.Status)
	}
	if order.OrderID == "" {
		t.Error("expected orderId to be assigned")
	}

	// Full reservation is locked against the resting order.
	available, locked, _ := l.BalanceINR("u1")
	if available != 0 || locked != 1000*100 {
		t.Errorf("expected 0/%d, got %d/%d", 1000*100, available, locked)
	}

	// The book shows the level exactly as the spec's depth shape.
	market, _ := r.Get("SYM")
	level := market.Depth().Yes["1000"]
	if level.Total != 100 || level.Orders["u1"] != 100 {
		t.Errorf("expected level {total:100, orders:{u1:100}}, got %+v", level)
	}
}

func TestPlaceOrder_SellRestsOnOtherOutcome(t *testing.T) {
	m, l, r := newTestMatcher(t, "SYM")
	fundSeller(t, l, "u1", "SYM", 200)

	order := newOrder("u1", "SYM", domain.SideSell, domain.OutcomeNo, 1100, 100)
	if _, err := m.PlaceOrder(order); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	market, _ := r.Get("SYM")
	depth := market.Depth()
	if len(depth.Yes) != 0 {
		t.Errorf("yes book must stay empty, got %+v", depth.Yes)
	}
	level := depth.No["1100"]
	if level.Total != 100 || level.Orders["u1"] != 100 {
		t.Errorf("expected no level {100, u1:100}, got %+v", level)
	}

	holdings, _ := l.BalanceHoldings("u1")
	if holdings["SYM"].No.Quantity != 100 || holdings["SYM"].No.Locked != 100 {
		t.Errorf("expected no holding 100/100, got %+v", holdings["SYM"].No)
	}
}

func TestPlaceOrder_FullMatchClearsLevel(t *testing.T) {
	m, l, r := newTestMatcher(t, "SYM")
	fundSeller(t, l, "seller", "SYM", 100)
	fundBuyer(t, l, "buyer", 1000000)

	if _, err := m.PlaceOrder(newOrder("seller", "SYM", domain.SideSell, domain.OutcomeYes, 950, 50)); err != nil {
		t.Fatalf("sell: %v", err)
	}

	buy := newOrder("buyer", "SYM", domain.SideBuy, domain.OutcomeYes, 950, 50)
	trades, err := m.PlaceOrder(buy)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if len(trades) != 1 || trades[0].Quantity != 50 || trades[0].Price != 950 {
		t.Fatalf("expected one 50@950 trade, got %+v", trades)
	}
	if buy.Status != domain.OrderStatusFilled {
		t.Errorf("expected filled, got %s", buy.Status)
	}

	// Level removed from the book.
	market, _ := r.Get("SYM")
	if _, ok := market.Depth().Yes["950"]; ok {
		t.Error("expected level 950 removed after full match")
	}

	// Buyer holds the tokens; seller holds the cash.
	holdings, _ := l.BalanceHoldings("buyer")
	if holdings["SYM"].Yes.Quantity != 50 {
		t.Errorf("expected buyer yes=50, got %d", holdings["SYM"].Yes.Quantity)
	}
	sAvailable, _, _ := l.BalanceINR("seller")
	if sAvailable != 950*50 {
		t.Errorf("expected seller inr %d, got %d", 950*50, sAvailable)
	}
}

func TestPlaceOrder_PartialFillLeavesReducedLevel(t *testing.T) {
	m, l, r := newTestMatcher(t, "SYM")
	fundSeller(t, l, "seller", "SYM", 100)
	fundBuyer(t, l, "buyer", 1000000)

	m.PlaceOrder(newOrder("seller", "SYM", domain.SideSell, domain.OutcomeYes, 800, 100))

	buy := newOrder("buyer", "SYM", domain.SideBuy, domain.OutcomeYes, 800, 40)
	trades, err := m.PlaceOrder(buy)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if len(trades) != 1 || trades[0].Quantity != 40 {
		t.Fatalf("expected one 40-unit trade, got %+v", trades)
	}
	if buy.Status != domain.OrderStatusFilled {
		t.Errorf("expected buy filled, got %s", buy.Status)
	}

	market, _ := r.Get("SYM")
	level := market.Depth().Yes["800"]
	if level.Total != 60 || level.Orders["seller"] != 60 {
		t.Errorf("expected remaining level {60, seller:60}, got %+v", level)
	}

	holdings, _ := l.BalanceHoldings("buyer")
	if holdings["SYM"].Yes.Quantity != 40 {
		t.Errorf("expected buyer yes=40, got %d", holdings["SYM"].Yes.Quantity)
	}
}

func TestPlaceOrder_IncomingRemainderRests(t *testing.T) {
	m, l, r := newTestMatcher(t, "SYM")
	fundSeller(t, l, "seller", "SYM", 30)
	fundBuyer(t, l, "buyer", 1000000)

	m.PlaceOrder(newOrder("seller", "SYM", domain.SideSell, domain.OutcomeYes, 500, 30))

	buy := newOrder("buyer", "SYM", domain.SideBuy, domain.OutcomeYes, 500, 50)
	_, err := m.PlaceOrder(buy)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if buy.Status != domain.OrderStatusPartiallyFilled {
		t.Errorf("expected partially_filled, got %s", buy.Status)
	}
	if buy.FilledQuantity != 30 || buy.RemainingQuantity != 20 {
		t.Errorf("expected 30 filled / 20 remaining, got %d/%d", buy.FilledQuantity, buy.RemainingQuantity)
	}

	// The remainder rests as a buy at its own price.
	market, _ := r.Get("SYM")
	level := market.Depth().Yes["500"]
	if level.Total != 20 || level.Orders["buyer"] != 20 {
		t.Errorf("expected resting remainder {20, buyer:20}, got %+v", level)
	}

	// Remainder's reservation stays locked.
	_, locked, _ := l.BalanceINR("buyer")
	if locked != 500*20 {
		t.Errorf("expected locked %d, got %d", 500*20, locked)
	}
}

func TestPlaceOrder_PriceTimePriority(t *testing.T) {
	m, l, r := newTestMatcher(t, "SYM")
	fundSeller(t, l, "sellerA", "SYM", 100)
	fundSeller(t, l, "sellerB", "SYM", 100)
	fundBuyer(t, l, "buyer", 1000000)

	// Same price, A rests before B.
	m.PlaceOrder(newOrder("sellerA", "SYM", domain.SideSell, domain.OutcomeYes, 700, 60))
	m.PlaceOrder(newOrder("sellerB", "SYM", domain.SideSell, domain.OutcomeYes, 700, 60))

	// Consumes A fully before touching B.
	trades, err := m.PlaceOrder(newOrder("buyer", "SYM", domain.SideBuy, domain.OutcomeYes, 700, 80))
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].SellerID != "sellerA" || trades[0].Quantity != 60 {
		t.Errorf("first fill must drain sellerA's 60, got %s/%d", trades[0].SellerID, trades[0].Quantity)
	}
	if trades[1].SellerID != "sellerB" || trades[1].Quantity != 20 {
		t.Errorf("second fill must take 20 from sellerB, got %s/%d", trades[1].SellerID, trades[1].Quantity)
	}

	market, _ := r.Get("SYM")
	level := market.Depth().Yes["700"]
	if level.Total != 40 || level.Orders["sellerB"] != 40 {
		t.Errorf("expected {40, sellerB:40} left, got %+v", level)
	}
	if _, ok := level.Orders["sellerA"]; ok {
		t.Error("sellerA must be fully drained from the level")
	}
}

func TestPlaceOrder_BuyWalksCheapestSellFirst(t *testing.T) {
	m, l, _ := newTestMatcher(t, "SYM")
	fundSeller(t, l, "seller", "SYM", 100)
	fundBuyer(t, l, "buyer", 1000000)

	m.PlaceOrder(newOrder("seller", "SYM", domain.SideSell, domain.OutcomeYes, 900, 10))
	m.PlaceOrder(newOrder("seller", "SYM", domain.SideSell, domain.OutcomeYes, 800, 10))

	trades, _ := m.PlaceOrder(newOrder("buyer", "SYM", domain.SideBuy, domain.OutcomeYes, 900, 20))
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].Price != 800 || trades[1].Price != 900 {
		t.Errorf("expected cheapest-first fills 800 then 900, got %d then %d",
			trades[0].Price, trades[1].Price)
	}
}

func TestPlaceOrder_PriceImprovementFavorsBuyer(t *testing.T) {
	m, l, _ := newTestMatcher(t, "SYM")
	fundSeller(t, l, "seller", "SYM", 10)
	fundBuyer(t, l, "buyer", 10000)

	// Resting sell at 900; incoming buy limit 1000 trades at 900.
	m.PlaceOrder(newOrder("seller", "SYM", domain.SideSell, domain.OutcomeYes, 900, 5))
	trades, err := m.PlaceOrder(newOrder("buyer", "SYM", domain.SideBuy, domain.OutcomeYes, 1000, 5))
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if trades[0].Price != 900 {
		t.Errorf("expected execution at resting 900, got %d", trades[0].Price)
	}

	// The buyer's surplus reservation was refunded.
	available, locked, _ := l.BalanceINR("buyer")
	if available != 10000-900*5 || locked != 0 {
		t.Errorf("expected buyer %d/0, got %d/%d", 10000-900*5, available, locked)
	}
}

func TestPlaceOrder_SellMatchesHighestBuyAtRestingPrice(t *testing.T) {
	m, l, _ := newTestMatcher(t, "SYM")
	fundBuyer(t, l, "buyer", 100000)
	fundSeller(t, l, "seller", "SYM", 10)

	// Resting buy at 1000; incoming sell limit 900 trades at 1000.
	m.PlaceOrder(newOrder("buyer", "SYM", domain.SideBuy, domain.OutcomeYes, 1000, 5))
	trades, err := m.PlaceOrder(newOrder("seller", "SYM", domain.SideSell, domain.OutcomeYes, 900, 5))
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if len(trades) != 1 || trades[0].Price != 1000 {
		t.Fatalf("expected one fill at resting 1000, got %+v", trades)
	}

	sAvailable, _, _ := l.BalanceINR("seller")
	if sAvailable != 1000*5 {
		t.Errorf("expected seller proceeds %d, got %d", 1000*5, sAvailable)
	}
}

func TestPlaceOrder_NoMatchAcrossOutcomes(t *testing.T) {
	m, l, r := newTestMatcher(t, "SYM")
	fundSeller(t, l, "seller", "SYM", 100)
	fundBuyer(t, l, "buyer", 1000000)

	// A sell on no must not match a buy on yes.
	m.PlaceOrder(newOrder("seller", "SYM", domain.SideSell, domain.OutcomeNo, 500, 10))
	buy := newOrder("buyer", "SYM", domain.SideBuy, domain.OutcomeYes, 500, 10)
	trades, _ := m.PlaceOrder(buy)

	if len(trades) != 0 {
		t.Errorf("expected no cross-outcome trades, got %+v", trades)
	}
	market, _ := r.Get("SYM")
	depth := market.Depth()
	if depth.No["500"].Total != 10 || depth.Yes["500"].Total != 10 {
		t.Errorf("both orders must rest on their own outcome, got %+v", depth)
	}
}

func TestPlaceOrder_InsufficientBalanceNoMutation(t *testing.T) {
	m, l, r := newTestMatcher(t, "SYM")
	fundBuyer(t, l, "buyer", 100)

	_, err := m.PlaceOrder(newOrder("buyer", "SYM", domain.SideBuy, domain.OutcomeYes, 1000, 100))
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// No book mutation, no balance movement.
	market, _ := r.Get("SYM")
	if len(market.Depth().Yes) != 0 {
		t.Error("book must be untouched after rejected order")
	}
	available, locked, _ := l.BalanceINR("buyer")
	if available != 100 || locked != 0 {
		t.Errorf("expected 100/0, got %d/%d", available, locked)
	}
}

func TestPlaceOrder_OverflowingNotionalRejected(t *testing.T) {
	m, l, r := newTestMatcher(t, "SYM")
	fundBuyer(t, l, "buyer", 100)

	// price*quantity wraps negative in int64; the order must be
	// rejected with zero mutation instead of passing the balance check.
	_, err := m.PlaceOrder(newOrder("buyer", "SYM", domain.SideBuy, domain.OutcomeYes,
		3_000_000_000, 4_000_000_000))
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}

	available, locked, _ := l.BalanceINR("buyer")
	if available != 100 || locked != 0 {
		t.Errorf("expected 100/0, got %d/%d", available, locked)
	}
	market, _ := r.Get("SYM")
	if len(market.Depth().Yes) != 0 {
		t.Error("book must be untouched after rejected order")
	}
}

func TestPlaceOrder_InsufficientHoldings(t *testing.T) {
	m, l, _ := newTestMatcher(t, "SYM")
	fundSeller(t, l, "seller", "SYM", 10)

	_, err := m.PlaceOrder(newOrder("seller", "SYM", domain.SideSell, domain.OutcomeYes, 100, 11))
	if !errors.Is(err, domain.ErrInsufficientHoldings) {
		t.Errorf("expected ErrInsufficientHoldings, got %v", err)
	}
}

func TestPlaceOrder_SelfMatchProceeds(t *testing.T) {
	m, l, r := newTestMatcher(t, "SYM")
	if err := l.CreateUser("u1"); err != nil {
		t.Fatal(err)
	}
	l.CreditINR("u1", 10000)
	l.Mint("u1", "SYM", 10)

	m.PlaceOrder(newOrder("u1", "SYM", domain.SideSell, domain.OutcomeYes, 500, 4))
	trades, err := m.PlaceOrder(newOrder("u1", "SYM", domain.SideBuy, domain.OutcomeYes, 500, 4))
	if err != nil {
		t.Fatalf("self-match: %v", err)
	}
	if len(trades) != 1 || trades[0].BuyerID != "u1" || trades[0].SellerID != "u1" {
		t.Fatalf("expected one self trade, got %+v", trades)
	}

	// Everything nets out; the book is clear.
	available, locked, _ := l.BalanceINR("u1")
	if available != 10000 || locked != 0 {
		t.Errorf("expected 10000/0, got %d/%d", available, locked)
	}
	holdings, _ := l.BalanceHoldings("u1")
	if holdings["SYM"].Yes.Quantity != 10 || holdings["SYM"].Yes.Locked != 0 {
		t.Errorf("expected yes 10/0, got %+v", holdings["SYM"].Yes)
	}
	market, _ := r.Get("SYM")
	if len(market.Depth().Yes) != 0 {
		t.Error("expected clear book after self-match")
	}
}

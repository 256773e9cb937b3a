package domain

import "time"

// Side indicates whether an order buys or sells outcome tokens.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Outcome is one of the two complementary token types of a binary market.
type Outcome string

const (
	OutcomeYes Outcome = "yes"
	OutcomeNo  Outcome = "no"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
)

// Order represents a limit order submitted by a user. Orders are
// transient: once matched (and any remainder rested on the book as a
// price-level entry) the Order itself is only echoed back to the caller.
type Order struct {
	OrderID           string
	UserID            string
	Symbol            string
	Side              Side
	Outcome           Outcome
	Price             int64 // paise per unit
	Quantity          int64
	FilledQuantity    int64
	RemainingQuantity int64
	Status            OrderStatus
	CreatedAt         time.Time
	Trades            []*Trade
}

// Trade represents a matched execution between a buy and a sell order.
// Trades drive ledger settlement and the order response; they are not
// retained after the matching pass.
type Trade struct {
	TradeID    string
	BuyerID    string
	SellerID   string
	Symbol     string
	Outcome    Outcome
	Price      int64 // paise per unit, always the resting order's price
	Quantity   int64
	ExecutedAt time.Time
}

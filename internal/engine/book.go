package engine

import (
	"strconv"

	"github.com/google/btree"

	"github.com/opinix/opinix/internal/domain"
)

// Entry is a single resting contribution inside a price level. Entries
// are consumed in queue order (oldest first — strict time priority).
type Entry struct {
	OrderID  string
	UserID   string
	Quantity int64
}

// Level aggregates all resting orders at one price within one outcome's
// book. Invariant: Total always equals the sum of queue quantities; a
// level with zero Total is removed from the ladder.
type Level struct {
	Price int64
	Total int64
	Queue []*Entry
}

// levelLess orders levels by price ascending. Min() of a ladder is the
// cheapest level, Max() the dearest.
func levelLess(a, b *Level) bool {
	return a.Price < b.Price
}

// Book is one outcome side of a market: two price ladders, resting buys
// and resting sells. The owning Market's lock serializes all access.
type Book struct {
	buys  *btree.BTreeG[*Level]
	sells *btree.BTreeG[*Level]
}

// NewBook creates an empty order book.
func NewBook() *Book {
	const degree = 32
	return &Book{
		buys:  btree.NewG[*Level](degree, levelLess),
		sells: btree.NewG[*Level](degree, levelLess),
	}
}

func (b *Book) ladder(side domain.Side) *btree.BTreeG[*Level] {
	if side == domain.SideBuy {
		return b.buys
	}
	return b.sells
}

// BestSell returns the cheapest resting sell level, if any.
func (b *Book) BestSell() (*Level, bool) {
	return b.sells.Min()
}

// BestBuy returns the highest resting buy level, if any.
func (b *Book) BestBuy() (*Level, bool) {
	return b.buys.Max()
}

// Rest appends a contribution to the tail of the side's level at the
// given price, creating the level if absent.
func (b *Book) Rest(side domain.Side, price int64, e *Entry) {
	ladder := b.ladder(side)
	level, ok := ladder.Get(&Level{Price: price})
	if !ok {
		level = &Level{Price: price}
		ladder.ReplaceOrInsert(level)
	}
	level.Queue = append(level.Queue, e)
	level.Total += e.Quantity
}

// DropLevel removes a fully drained level from the side's ladder.
func (b *Book) DropLevel(side domain.Side, level *Level) {
	b.ladder(side).Delete(level)
}

// Depth merges both ladders into the published price-keyed view. The
// books are never crossed, so buy and sell price keys are disjoint.
func (b *Book) Depth() domain.OutcomeDepth {
	depth := make(domain.OutcomeDepth)
	collect := func(level *Level) bool {
		ld := domain.LevelDepth{
			Total:  level.Total,
			Orders: make(map[string]int64, len(level.Queue)),
		}
		for _, e := range level.Queue {
			ld.Orders[e.UserID] += e.Quantity
		}
		depth[strconv.FormatInt(level.Price, 10)] = ld
		return true
	}
	b.buys.Ascend(collect)
	b.sells.Ascend(collect)
	return depth
}

// Len returns the number of resting levels on both ladders.
func (b *Book) Len() int {
	return b.buys.Len() + b.sells.Len()
}

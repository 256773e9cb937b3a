package engine

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/opinix/opinix/internal/domain"
	"github.com/opinix/opinix/internal/ledger"
)

// Conservation: for any sequence of orders, per-user inr and per-user
// token totals change only via onramp and mint, and the book's resting
// quantities are always backed by equal reservations.

func TestProperty_ConservationUnderRandomOrders(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		const symbol = "TEST"
		nUsers := rapid.IntRange(2, 4).Draw(t, "nUsers")
		credited := rapid.Int64Range(10_000, 1_000_000).Draw(t, "credited")
		minted := rapid.Int64Range(100, 10_000).Draw(t, "minted")

		l := ledger.New()
		r := NewRegistry()
		if _, err := r.Create(symbol); err != nil {
			t.Fatalf("create market: %v", err)
		}
		m := NewMatcher(r, l)

		users := make([]string, nUsers)
		for i := range users {
			users[i] = fmt.Sprintf("u%d", i)
			l.CreateUser(users[i])
			l.CreditINR(users[i], credited)
			l.Mint(users[i], symbol, minted)
		}

		nOrders := rapid.IntRange(1, 60).Draw(t, "nOrders")
		for i := 0; i < nOrders; i++ {
			order := &domain.Order{
				UserID:   rapid.SampledFrom(users).Draw(t, "user"),
				Symbol:   symbol,
				Side:     rapid.SampledFrom([]domain.Side{domain.SideBuy, domain.SideSell}).Draw(t, "side"),
				Outcome:  rapid.SampledFrom([]domain.Outcome{domain.OutcomeYes, domain.OutcomeNo}).Draw(t, "outcome"),
				Price:    rapid.Int64Range(1, 100).Draw(t, "price"),
				Quantity: rapid.Int64Range(1, 50).Draw(t, "qty"),
			}
			// Rejections (insufficient balance) are a legal outcome.
			m.PlaceOrder(order)
		}

		// Per-system INR conservation.
		var totalInr int64
		for _, u := range users {
			available, locked, err := l.BalanceINR(u)
			if err != nil {
				t.Fatalf("balance %s: %v", u, err)
			}
			if available < 0 || locked < 0 {
				t.Fatalf("negative inr for %s: %d/%d", u, available, locked)
			}
			totalInr += available + locked
		}
		if totalInr != credited*int64(nUsers) {
			t.Fatalf("inr not conserved: %d != %d", totalInr, credited*int64(nUsers))
		}

		// Per-outcome token conservation.
		var totalYes, totalNo int64
		for _, u := range users {
			holdings, _ := l.BalanceHoldings(u)
			h := holdings[symbol]
			if h.Yes.Quantity < 0 || h.Yes.Locked < 0 || h.No.Quantity < 0 || h.No.Locked < 0 {
				t.Fatalf("negative holding for %s: %+v", u, h)
			}
			totalYes += h.Yes.Quantity + h.Yes.Locked
			totalNo += h.No.Quantity + h.No.Locked
		}
		if totalYes != minted*int64(nUsers) || totalNo != minted*int64(nUsers) {
			t.Fatalf("tokens not conserved: yes=%d no=%d want %d each",
				totalYes, totalNo, minted*int64(nUsers))
		}

		// Each book stays uncrossed and every level total matches its queue.
		market, _ := r.Get(symbol)
		for _, outcome := range []domain.Outcome{domain.OutcomeYes, domain.OutcomeNo} {
			market.Lock()
			book := market.Book(outcome)
			bestBuy, hasBuy := book.BestBuy()
			bestSell, hasSell := book.BestSell()
			if hasBuy && hasSell && bestBuy.Price >= bestSell.Price {
				market.Unlock()
				t.Fatalf("%s book crossed: buy %d >= sell %d", outcome, bestBuy.Price, bestSell.Price)
			}
			market.Unlock()

			depth := market.Depth().Yes
			if outcome == domain.OutcomeNo {
				depth = market.Depth().No
			}
			for price, level := range depth {
				var sum int64
				for _, q := range level.Orders {
					sum += q
				}
				if sum != level.Total {
					t.Fatalf("%s level %s: total %d != contributions %d", outcome, price, level.Total, sum)
				}
			}
		}
	})
}

func TestProperty_RestingQuantityBackedByReservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		const symbol = "TEST"
		price := rapid.Int64Range(1, 1_000).Draw(t, "price")
		qty := rapid.Int64Range(1, 500).Draw(t, "qty")

		l := ledger.New()
		r := NewRegistry()
		r.Create(symbol)
		m := NewMatcher(r, l)

		l.CreateUser("u1")
		l.CreditINR("u1", price*qty)

		order := &domain.Order{
			UserID: "u1", Symbol: symbol,
			Side: domain.SideBuy, Outcome: domain.OutcomeYes,
			Price: price, Quantity: qty,
		}
		if _, err := m.PlaceOrder(order); err != nil {
			t.Fatalf("place: %v", err)
		}

		_, locked, _ := l.BalanceINR("u1")
		if locked != price*qty {
			t.Fatalf("resting buy not fully backed: locked %d != %d", locked, price*qty)
		}
	})
}

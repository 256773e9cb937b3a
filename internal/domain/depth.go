package domain

// LevelDepth is the aggregated view of one price level: the total
// resting quantity and the per-user contributions.
type LevelDepth struct {
	Total  int64            `json:"total"`
	Orders map[string]int64 `json:"orders"` // userID → quantity
}

// OutcomeDepth maps price (formatted as a decimal integer string) to
// the level resting at that price. An empty side serializes as {}.
type OutcomeDepth map[string]LevelDepth

// BookDepth is the full depth of one market: both outcome sides.
type BookDepth struct {
	Yes OutcomeDepth `json:"yes"`
	No  OutcomeDepth `json:"no"`
}

// Snapshot is the global orderbook view broadcast to subscribers:
// symbol → book depth.
type Snapshot map[string]BookDepth

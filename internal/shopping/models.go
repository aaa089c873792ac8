package shopping

import "time"

// Item is one merged grocery line. Cost is nil when no ingredient in the
// merge carried a price.
type Item struct {
	Name string   `json:"name"`
	Unit string   `json:"unit"`
	Qty  float64  `json:"qty"`
	Cost *float64 `json:"cost,omitempty"`
}

// CostOrZero returns the item cost, or 0 when it is unknown.
func (i Item) CostOrZero() float64 {
	if i.Cost == nil {
		return 0
	}
	return *i.Cost
}

// List is the aggregated grocery list for a week plan.
type List struct {
	Items     []Item  `json:"items"`
	TotalCost float64 `json:"totalCost"`
}

// ShoppingList is a grocery list posted by a user and kept in the database.
type ShoppingList struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Items     []Item    `json:"items"`
	TotalCost float64   `json:"total_cost"`
	CreatedAt time.Time `json:"created_at"`
}

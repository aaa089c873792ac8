package shopping

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"smartmeal/internal/catalog"
	"smartmeal/internal/planner"
	"smartmeal/internal/units"
)

type itemKey struct {
	name, unit string
}

// accumulator merges ingredients by (name, unit) and keeps first-seen order
// so the cost sort below is stable across runs.
type accumulator struct {
	order []itemKey
	items map[itemKey]*Item
}

func newAccumulator() *accumulator {
	return &accumulator{items: make(map[itemKey]*Item)}
}

func (a *accumulator) entry(name, unit string) *Item {
	k := itemKey{name: name, unit: unit}
	it, ok := a.items[k]
	if !ok {
		it = &Item{Name: name, Unit: unit}
		a.items[k] = it
		a.order = append(a.order, k)
	}
	return it
}

// addIngredient recomputes the cost from the summed quantity when the
// ingredient is priced. Otherwise the previous cost, possibly nil, stays.
func (a *accumulator) addIngredient(ing catalog.Ingredient) {
	it := a.entry(ing.Name, ing.Unit)
	it.Qty += ing.Qty
	if ing.HasCost() {
		c := it.Qty * *ing.CostPerUnit
		it.Cost = &c
	}
}

func (a *accumulator) addItem(extra Item) {
	it := a.entry(extra.Name, extra.Unit)
	it.Qty += extra.Qty
	if extra.Cost != nil {
		c := it.CostOrZero() + *extra.Cost
		it.Cost = &c
	}
}

func (a *accumulator) list() List {
	out := List{Items: make([]Item, 0, len(a.order))}
	for _, k := range a.order {
		it := *a.items[k]
		out.Items = append(out.Items, it)
		out.TotalCost += it.CostOrZero()
	}
	sort.SliceStable(out.Items, func(i, j int) bool {
		return out.Items[i].CostOrZero() > out.Items[j].CostOrZero()
	})
	return out
}

// Aggregate merges every ingredient of every meal in the plan into one list,
// most expensive first. Extras are manually added items merged under the
// same (name, unit) key; their cost adds to the accumulated cost.
func Aggregate(plan *planner.WeekPlan, extras ...Item) List {
	acc := newAccumulator()
	for _, day := range plan.Days {
		for _, meal := range day.Meals {
			for _, ing := range meal.Ingredients {
				acc.addIngredient(ing)
			}
		}
	}
	for _, e := range extras {
		acc.addItem(e)
	}
	return acc.list()
}

// AggregateNormalized is Aggregate with every quantity converted to its
// canonical unit first, so "1 kg" and "500 g" of rice end up on one line.
// A nil normalizer uses the default alias table.
func AggregateNormalized(plan *planner.WeekPlan, n *units.Normalizer) List {
	if n == nil {
		n = units.NewNormalizer(nil)
	}
	acc := newAccumulator()
	for _, day := range plan.Days {
		for _, meal := range day.Meals {
			for _, ing := range meal.Ingredients {
				conv := n.Normalize(ing.Qty, ing.Unit)
				scaled := catalog.Ingredient{Name: ing.Name, Unit: conv.Unit, Qty: conv.Qty}
				if ing.HasCost() {
					scaled.CostPerUnit = catalog.Price(*ing.CostPerUnit * conv.CostFactor)
				}
				acc.addIngredient(scaled)
			}
		}
	}
	return acc.list()
}

// WithoutPantry drops items the user already owns and recomputes the total.
// Pantry keys are matched case-insensitively against item names.
func WithoutPantry(list List, pantry map[string]bool) List {
	if len(pantry) == 0 {
		return list
	}
	owned := make(map[string]bool, len(pantry))
	for name, have := range pantry {
		if have {
			owned[normalizeName(name)] = true
		}
	}

	out := List{Items: make([]Item, 0, len(list.Items))}
	for _, it := range list.Items {
		if owned[normalizeName(it.Name)] {
			continue
		}
		out.Items = append(out.Items, it)
		out.TotalCost += it.CostOrZero()
	}
	return out
}

// FormatQty prints integers bare and everything else with two decimals,
// dropping a trailing ".00".
func FormatQty(qty float64) string {
	if qty == math.Trunc(qty) {
		return strconv.FormatFloat(qty, 'f', -1, 64)
	}
	return strings.TrimSuffix(strconv.FormatFloat(qty, 'f', 2, 64), ".00")
}

// CheaperAlternatives returns up to n other items of the group that cost
// strictly less than item, cheapest first. An item with no cost counts as
// infinitely expensive.
func CheaperAlternatives(group Group, item Item, n int) []Item {
	costOf := func(it Item) float64 {
		if it.Cost == nil {
			return math.Inf(1)
		}
		return *it.Cost
	}

	var peers []Item
	for _, p := range group.Items {
		if p.Name != item.Name && costOf(p) < costOf(item) {
			peers = append(peers, p)
		}
	}
	sort.SliceStable(peers, func(i, j int) bool {
		return peers[i].CostOrZero() < peers[j].CostOrZero()
	})
	if len(peers) > n {
		peers = peers[:n]
	}
	return peers
}

// BudgetLevel buckets spending against a weekly budget.
type BudgetLevel string

const (
	WithinBudget BudgetLevel = "within"
	NearBudget   BudgetLevel = "near"
	OverBudget   BudgetLevel = "over"
)

// BudgetStatus summarizes a list total against a weekly budget.
type BudgetStatus struct {
	Percent   int         `json:"percent"`
	Remaining float64     `json:"remaining"`
	Level     BudgetLevel `json:"level"`
}

// Budget reports how much of budget total uses. Percent is capped at 150
// and a budget under 1 is treated as 1.
func Budget(total, budget float64) BudgetStatus {
	pct := int(math.Floor(total/math.Max(1, budget)*100 + 0.5))
	if pct > 150 {
		pct = 150
	}
	level := OverBudget
	switch {
	case pct < 80:
		level = WithinBudget
	case pct <= 100:
		level = NearBudget
	}
	return BudgetStatus{Percent: pct, Remaining: budget - total, Level: level}
}

// Package replan swaps meals in a week plan for cheaper ones with similar
// macros until the plan fits a weekly budget.
package replan

import (
	"math"
	"sort"

	"smartmeal/internal/catalog"
	"smartmeal/internal/planner"
	"smartmeal/internal/shopping"
)

const costEpsilon = 1e-9

// Report breaks the swaps of one run down by phase.
type Report struct {
	CostBefore     float64 `json:"costBefore"`
	CostAfter      float64 `json:"costAfter"`
	BudgetSwaps    int     `json:"budgetSwaps"`
	VegetableSwaps int     `json:"vegetableSwaps"`
	ForcedSwaps    int     `json:"forcedSwaps"`
}

// Result is the mutated plan and the number of slots that changed.
type Result struct {
	Plan    *planner.WeekPlan `json:"plan"`
	Changed int               `json:"changed"`
	Report  Report            `json:"report"`
}

// Optimizer replans against a fixed catalog and set of diversity rules.
type Optimizer struct {
	catalog     *catalog.Catalog
	categorizer shopping.Categorizer
	rules       catalog.DiversityRules
}

// NewOptimizer creates an optimizer. A nil categorizer uses the default
// keyword table.
func NewOptimizer(cat *catalog.Catalog, categorizer shopping.Categorizer, rules catalog.DiversityRules) *Optimizer {
	if categorizer == nil {
		categorizer = shopping.DefaultCategorizer
	}
	return &Optimizer{catalog: cat, categorizer: categorizer, rules: rules}
}

// ReplanUnderBudget runs the optimizer with the default categorizer.
func ReplanUnderBudget(plan *planner.WeekPlan, budget float64, cat *catalog.Catalog, rules catalog.DiversityRules) Result {
	return NewOptimizer(cat, nil, rules).ReplanUnderBudget(plan, budget)
}

// ReplanUnderBudget mutates plan in place, in three passes:
//
//  1. most expensive slots first, swap to the cheapest macro-similar meal
//     that respects the repeat cap and keeps a vegetable on the day;
//  2. top up days that have fewer vegetable meals than the rules ask for;
//  3. if still over budget, swap to any cheaper macro-similar meal.
//
// Slots with no acceptable candidate are left alone; this never fails.
func (o *Optimizer) ReplanUnderBudget(plan *planner.WeekPlan, budget float64) Result {
	r := newRun(o, plan)
	r.report.CostBefore = r.total

	r.report.BudgetSwaps = r.budgetPass(budget)
	r.report.VegetableSwaps = r.vegetablePass()
	if r.total > budget {
		r.report.ForcedSwaps = r.forcedPass(budget)
	}

	r.report.CostAfter = r.total
	return Result{
		Plan:    plan,
		Changed: r.report.BudgetSwaps + r.report.VegetableSwaps + r.report.ForcedSwaps,
		Report:  r.report,
	}
}

type slot struct {
	day, meal int
	cost      float64
}

// run holds the mutable state of one optimization.
type run struct {
	o          *Optimizer
	plan       *planner.WeekPlan
	candidates []catalog.Meal
	freq       map[string]int
	vegCache   map[string]bool
	total      float64
	report     Report
}

func newRun(o *Optimizer, plan *planner.WeekPlan) *run {
	r := &run{
		o:          o,
		plan:       plan,
		candidates: planner.FilterMeals(o.catalog.Meals(), planner.Omnivore),
		freq:       make(map[string]int),
		vegCache:   make(map[string]bool),
	}
	for _, d := range plan.Days {
		for _, m := range d.Meals {
			r.freq[m.ID]++
			r.total += catalog.MealCost(m)
		}
	}
	return r
}

// slots flattens the plan, most expensive first. Equal costs keep plan order.
func (r *run) slots() []slot {
	var out []slot
	for d, day := range r.plan.Days {
		for m, meal := range day.Meals {
			out = append(out, slot{day: d, meal: m, cost: catalog.MealCost(meal)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].cost > out[j].cost })
	return out
}

func (r *run) hasVegetable(m catalog.Meal) bool {
	v, ok := r.vegCache[m.ID]
	if !ok {
		v = shopping.HasVegetable(m, r.o.categorizer)
		r.vegCache[m.ID] = v
	}
	return v
}

// othersHaveVegetable reports whether any meal of the day other than the one
// in mealIdx contains a vegetable.
func (r *run) othersHaveVegetable(dayIdx, mealIdx int) bool {
	for i, m := range r.plan.Days[dayIdx].Meals {
		if i != mealIdx && r.hasVegetable(m) {
			return true
		}
	}
	return false
}

func (r *run) underCap(id string) bool {
	limit := r.o.rules.MaxRepeatPerWeek
	return limit <= 0 || r.freq[id] < limit
}

// cheapest returns the lowest-cost meal accepted by keep. Ties go to meals
// carrying a preferred tag, then to catalog order.
func (r *run) cheapest(keep func(catalog.Meal) bool) (catalog.Meal, bool) {
	var (
		best     catalog.Meal
		bestCost float64
		bestPref bool
		found    bool
	)
	for _, c := range r.candidates {
		if !keep(c) {
			continue
		}
		cost := catalog.MealCost(c)
		pref := r.preferred(c)
		switch {
		case !found,
			cost < bestCost-costEpsilon,
			math.Abs(cost-bestCost) <= costEpsilon && pref && !bestPref:
			best, bestCost, bestPref, found = c, cost, pref, true
		}
	}
	return best, found
}

func (r *run) preferred(m catalog.Meal) bool {
	for _, t := range r.o.rules.PreferTags {
		if m.HasTag(t) {
			return true
		}
	}
	return false
}

func (r *run) apply(dayIdx, mealIdx int, next catalog.Meal) {
	prev := r.plan.Days[dayIdx].Meals[mealIdx]
	r.freq[prev.ID]--
	r.freq[next.ID]++
	r.total += catalog.MealCost(next) - catalog.MealCost(prev)
	r.plan.Days[dayIdx].Meals[mealIdx] = next.Clone()
}

func (r *run) budgetPass(budget float64) int {
	changed := 0
	for _, s := range r.slots() {
		if r.total <= budget {
			break
		}
		current := r.plan.Days[s.day].Meals[s.meal]
		needVeg := !r.othersHaveVegetable(s.day, s.meal)

		next, ok := r.cheapest(func(c catalog.Meal) bool {
			return c.ID != current.ID &&
				r.underCap(c.ID) &&
				(!needVeg || r.hasVegetable(c)) &&
				similarMacros(current, c) &&
				catalog.MealCost(c) < s.cost
		})
		if ok {
			r.apply(s.day, s.meal, next)
			changed++
		}
	}
	return changed
}

func (r *run) vegetablePass() int {
	want := r.o.rules.MinVegetablePerDay
	if want <= 0 {
		return 0
	}

	changed := 0
	for d, day := range r.plan.Days {
		have := 0
		for _, m := range day.Meals {
			if r.hasVegetable(m) {
				have++
			}
		}
		for m := 0; m < len(day.Meals) && have < want; m++ {
			current := day.Meals[m]
			if r.hasVegetable(current) {
				continue
			}
			next, ok := r.cheapest(func(c catalog.Meal) bool {
				return c.ID != current.ID && r.hasVegetable(c) && r.underCap(c.ID)
			})
			if !ok {
				continue
			}
			r.apply(d, m, next)
			have++
			changed++
		}
	}
	return changed
}

func (r *run) forcedPass(budget float64) int {
	changed := 0
	for _, s := range r.slots() {
		if r.total <= budget {
			break
		}
		current := r.plan.Days[s.day].Meals[s.meal]
		next, ok := r.cheapest(func(c catalog.Meal) bool {
			return c.ID != current.ID &&
				similarMacros(current, c) &&
				catalog.MealCost(c) < s.cost
		})
		if ok {
			r.apply(s.day, s.meal, next)
			changed++
		}
	}
	return changed
}

// closeEnough reports whether a is within pct of b. Any a is close to a
// zero b.
func closeEnough(a, b, pct float64) bool {
	if b == 0 {
		return true
	}
	return math.Abs(a-b)/b <= pct
}

func similarMacros(base, cand catalog.Meal) bool {
	return closeEnough(cand.Calories, base.Calories, 0.1) &&
		closeEnough(cand.Protein, base.Protein, 0.1) &&
		closeEnough(cand.Carbs, base.Carbs, 0.2) &&
		closeEnough(cand.Fat, base.Fat, 0.2)
}

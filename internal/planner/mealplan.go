package planner

import (
	"fmt"
	"strings"
	"time"

	"smartmeal/internal/catalog"
	"smartmeal/internal/nutrition"
)

// Days are the plan's day labels, Monday first.
var Days = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Slot indexes within a day.
const (
	SlotBreakfast = 0
	SlotLunch     = 1
	SlotDinner    = 2
	SlotsPerDay   = 3
)

// DayPlan holds the three meals of one day.
type DayPlan struct {
	Day   string         `json:"day"`
	Meals []catalog.Meal `json:"meals"`
}

// WeekPlan is seven DayPlans plus the targets they were built for.
// Swap, regenerate and replan mutate a WeekPlan in place; callers that need
// the previous version must Clone it first.
type WeekPlan struct {
	Days      []DayPlan              `json:"days"`
	Targets   nutrition.MacroTargets `json:"targets"`
	WeekStart time.Time              `json:"weekStart,omitzero"`
}

// Validate checks the 7×3 shape.
func (w *WeekPlan) Validate() error {
	if w == nil {
		return fmt.Errorf("plan is nil")
	}
	if len(w.Days) != len(Days) {
		return fmt.Errorf("plan has %d days, want %d", len(w.Days), len(Days))
	}
	for i, d := range w.Days {
		if len(d.Meals) != SlotsPerDay {
			return fmt.Errorf("day %s has %d meals, want %d", d.Day, len(d.Meals), SlotsPerDay)
		}
		if d.Day != Days[i] {
			return fmt.Errorf("day %d is labelled %q, want %q", i, d.Day, Days[i])
		}
	}
	return nil
}

// Clone returns a deep copy.
func (w *WeekPlan) Clone() *WeekPlan {
	out := &WeekPlan{Targets: w.Targets, WeekStart: w.WeekStart, Days: make([]DayPlan, len(w.Days))}
	for i, d := range w.Days {
		meals := make([]catalog.Meal, len(d.Meals))
		for j, m := range d.Meals {
			meals[j] = m.Clone()
		}
		out.Days[i] = DayPlan{Day: d.Day, Meals: meals}
	}
	return out
}

// TotalCost sums the cost of every planned meal.
func (w *WeekPlan) TotalCost() float64 {
	var total float64
	for _, d := range w.Days {
		for _, m := range d.Meals {
			total += catalog.MealCost(m)
		}
	}
	return total
}

// Totals are the summed macros of all meals in a plan.
type Totals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// WeekTotals sums macros across the whole week.
func (w *WeekPlan) WeekTotals() Totals {
	var t Totals
	for _, d := range w.Days {
		for _, m := range d.Meals {
			t.Calories += m.Calories
			t.Protein += m.Protein
			t.Carbs += m.Carbs
			t.Fat += m.Fat
		}
	}
	return t
}

// DayIndex resolves a label such as "Tue" or "tuesday" to its index.
func DayIndex(label string) (int, bool) {
	if len(label) < 3 {
		return 0, false
	}
	prefix := label[:3]
	for i, d := range Days {
		if strings.EqualFold(d, prefix) {
			return i, true
		}
	}
	return 0, false
}

// GetNextMonday returns the next Monday after t, at midnight.
func GetNextMonday(t time.Time) time.Time {
	daysUntil := (8 - int(t.Weekday())) % 7
	if daysUntil == 0 {
		daysUntil = 7
	}
	next := t.AddDate(0, 0, daysUntil)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, next.Location())
}

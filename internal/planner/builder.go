package planner

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"smartmeal/internal/catalog"
)

var (
	// ErrEmptyCatalog is returned when there is no meal at all to place in a slot.
	ErrEmptyCatalog = errors.New("meal catalog is empty")
	// ErrSlotOutOfRange is returned for a day outside 0..6 or a meal outside 0..2.
	ErrSlotOutOfRange = errors.New("meal slot out of range")
	// ErrUnknownMeal is returned when a meal id is not in the catalog.
	ErrUnknownMeal = errors.New("unknown meal")
)

// pools partitions the catalog for one preference.
type pools struct {
	all        []catalog.Meal
	filtered   []catalog.Meal
	breakfasts []catalog.Meal
	mains      []catalog.Meal
}

func newPools(meals []catalog.Meal, pref Preference) pools {
	p := pools{all: meals, filtered: FilterMeals(meals, pref)}
	for _, m := range p.filtered {
		if m.IsBreakfast() {
			p.breakfasts = append(p.breakfasts, m)
		}
		if m.IsMain() {
			p.mains = append(p.mains, m)
		}
	}
	return p
}

// resolveSlot picks the meal for a slot index. Sources are tried in order
// and the first non-empty one wins; the index wraps modulo its length.
// Callers pass (partition, filtered list, whole catalog).
func resolveSlot(idx int, sources ...[]catalog.Meal) (catalog.Meal, error) {
	for _, src := range sources {
		if len(src) > 0 {
			return src[idx%len(src)].Clone(), nil
		}
	}
	return catalog.Meal{}, ErrEmptyCatalog
}

func (p pools) day(label string, b, l, d int) (DayPlan, error) {
	breakfast, err := resolveSlot(b, p.breakfasts, p.filtered, p.all)
	if err != nil {
		return DayPlan{}, err
	}
	lunch, err := resolveSlot(l, p.mains, p.filtered, p.all)
	if err != nil {
		return DayPlan{}, err
	}
	dinner, err := resolveSlot(d, p.mains, p.filtered, p.all)
	if err != nil {
		return DayPlan{}, err
	}
	return DayPlan{Day: label, Meals: []catalog.Meal{breakfast, lunch, dinner}}, nil
}

// BuildWeekPlan assembles seven days round-robin from the meals that suit
// the profile's preference. The result is deterministic for a given catalog.
func BuildWeekPlan(meals []catalog.Meal, profile Profile) (*WeekPlan, error) {
	p := newPools(meals, profile.Preference)
	plan := &WeekPlan{Targets: profile.Targets(), Days: make([]DayPlan, 0, len(Days))}

	for i, label := range Days {
		day, err := p.day(label, i, 2*i, 2*i+1)
		if err != nil {
			return nil, err
		}
		plan.Days = append(plan.Days, day)
	}
	return plan, nil
}

func checkSlot(plan *WeekPlan, dayIdx, mealIdx int) error {
	if dayIdx < 0 || dayIdx >= len(plan.Days) {
		return fmt.Errorf("%w: day %d", ErrSlotOutOfRange, dayIdx)
	}
	if mealIdx < 0 || mealIdx >= len(plan.Days[dayIdx].Meals) {
		return fmt.Errorf("%w: meal %d", ErrSlotOutOfRange, mealIdx)
	}
	return nil
}

// Alternates lists meals of the same meal-time class as current (breakfast
// or main), excluding current, nearest calories first.
func Alternates(meals []catalog.Meal, current catalog.Meal, pref Preference) []catalog.Meal {
	p := newPools(meals, pref)
	pool := p.mains
	if current.IsBreakfast() {
		pool = p.breakfasts
	}

	alts := make([]catalog.Meal, 0, len(pool))
	for _, m := range pool {
		if m.ID != current.ID {
			alts = append(alts, m)
		}
	}
	sort.SliceStable(alts, func(i, j int) bool {
		return math.Abs(alts[i].Calories-current.Calories) < math.Abs(alts[j].Calories-current.Calories)
	})
	return alts
}

// SwapMeal replaces one slot with the nearest-calorie alternative that is
// not already on that day. If every alternative is on the day already the
// closest one is used; with no alternatives the slot is left unchanged.
func SwapMeal(meals []catalog.Meal, plan *WeekPlan, dayIdx, mealIdx int, pref Preference) error {
	if err := checkSlot(plan, dayIdx, mealIdx); err != nil {
		return err
	}
	day := plan.Days[dayIdx]
	current := day.Meals[mealIdx]

	used := make(map[string]bool, len(day.Meals))
	for _, m := range day.Meals {
		used[m.ID] = true
	}

	alts := Alternates(meals, current, pref)
	if len(alts) == 0 {
		return nil
	}
	next := alts[0]
	for _, m := range alts {
		if !used[m.ID] {
			next = m
			break
		}
	}
	day.Meals[mealIdx] = next.Clone()
	return nil
}

// RegenerateDay rebuilds one day with offsets chosen to differ from the
// original build.
func RegenerateDay(meals []catalog.Meal, plan *WeekPlan, dayIdx int, pref Preference) error {
	if err := checkSlot(plan, dayIdx, 0); err != nil {
		return err
	}
	p := newPools(meals, pref)
	day, err := p.day(plan.Days[dayIdx].Day, dayIdx+3, 2*dayIdx+1, 2*dayIdx+2)
	if err != nil {
		return err
	}
	plan.Days[dayIdx] = day
	return nil
}

// SwapMealWith replaces a slot with meal unconditionally.
func SwapMealWith(plan *WeekPlan, dayIdx, mealIdx int, meal catalog.Meal) error {
	if err := checkSlot(plan, dayIdx, mealIdx); err != nil {
		return err
	}
	plan.Days[dayIdx].Meals[mealIdx] = meal.Clone()
	return nil
}

package planner

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"smartmeal/internal/catalog"
	"smartmeal/internal/storage"
)

func testMeals() []catalog.Meal {
	return []catalog.Meal{
		{ID: "b1", Name: "Oats", Calories: 400, Tags: []string{"breakfast", "vegetarian"}},
		{ID: "b2", Name: "Eggs", Calories: 350, Tags: []string{"breakfast"}},
		{ID: "b3", Name: "Parfait", Calories: 300, Tags: []string{"breakfast", "vegan"}},
		{ID: "m1", Name: "Chicken bowl", Calories: 600, Tags: []string{"lunch", "dinner"}},
		{ID: "m2", Name: "Tofu bowl", Calories: 550, Tags: []string{"lunch", "dinner", "vegan"}},
		{ID: "m3", Name: "Beef stew", Calories: 700, Tags: []string{"dinner", "beef"}},
		{ID: "m4", Name: "Lentil soup", Calories: 450, Tags: []string{"lunch", "vegan"}},
	}
}

func testProfile() Profile {
	return Profile{Age: 28, Sex: Male, HeightCm: 175, WeightKg: 72, Activity: Moderate, Goal: Maintain, Preference: Omnivore, BudgetPerWeek: 40}
}

func ids(day DayPlan) [3]string {
	return [3]string{day.Meals[0].ID, day.Meals[1].ID, day.Meals[2].ID}
}

func TestBuildWeekPlan(t *testing.T) {
	plan, err := BuildWeekPlan(testMeals(), testProfile())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := plan.Validate(); err != nil {
		t.Fatalf("Expected a valid plan, got %v", err)
	}

	expected := [][3]string{
		{"b1", "m1", "m2"},
		{"b2", "m3", "m4"},
		{"b3", "m1", "m2"},
		{"b1", "m3", "m4"},
	}
	for i, want := range expected {
		if got := ids(plan.Days[i]); got != want {
			t.Errorf("Day %d: Expected %v, got %v", i, want, got)
		}
	}
	if plan.Days[0].Day != "Mon" || plan.Days[6].Day != "Sun" {
		t.Errorf("Expected Mon..Sun labels, got %s..%s", plan.Days[0].Day, plan.Days[6].Day)
	}
	if plan.Targets.Calories != 2602 {
		t.Errorf("Expected targets for the profile, got %+v", plan.Targets)
	}
}

func TestBuildWeekPlanShapeForEveryPreference(t *testing.T) {
	meals := catalog.Default().Meals()
	for _, pref := range []Preference{Omnivore, Vegetarian, Vegan, LowCarb, HighProtein} {
		t.Run(string(pref), func(t *testing.T) {
			p := testProfile()
			p.Preference = pref
			plan, err := BuildWeekPlan(meals, p)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if len(plan.Days) != 7 {
				t.Fatalf("Expected 7 days, got %d", len(plan.Days))
			}
			for _, d := range plan.Days {
				if len(d.Meals) != 3 {
					t.Errorf("Expected 3 meals on %s, got %d", d.Day, len(d.Meals))
				}
			}
		})
	}
}

func TestBuildWeekPlanFallbacks(t *testing.T) {
	t.Run("NoBreakfastsUsesFilteredList", func(t *testing.T) {
		meals := []catalog.Meal{testMeals()[3], testMeals()[4], testMeals()[6]}
		plan, err := BuildWeekPlan(meals, testProfile())
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if plan.Days[0].Meals[0].ID != "m1" || plan.Days[1].Meals[0].ID != "m2" {
			t.Errorf("Expected breakfasts from the filtered list, got %s, %s", plan.Days[0].Meals[0].ID, plan.Days[1].Meals[0].ID)
		}
	})

	t.Run("EmptyFilterUsesCatalog", func(t *testing.T) {
		meals := []catalog.Meal{testMeals()[1], testMeals()[3]}
		p := testProfile()
		p.Preference = Vegan
		plan, err := BuildWeekPlan(meals, p)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if err := plan.Validate(); err != nil {
			t.Errorf("Expected valid plan, got %v", err)
		}
	})

	t.Run("EmptyCatalog", func(t *testing.T) {
		_, err := BuildWeekPlan(nil, testProfile())
		if !errors.Is(err, ErrEmptyCatalog) {
			t.Errorf("Expected ErrEmptyCatalog, got %v", err)
		}
	})
}

func TestFilterMeals(t *testing.T) {
	meals := catalog.Default().Meals()

	has := func(list []catalog.Meal, id string) bool {
		for _, m := range list {
			if m.ID == id {
				return true
			}
		}
		return false
	}

	t.Run("Omnivore", func(t *testing.T) {
		if got := FilterMeals(meals, Omnivore); len(got) != len(meals) {
			t.Errorf("Expected all %d meals, got %d", len(meals), len(got))
		}
	})

	t.Run("Vegetarian", func(t *testing.T) {
		got := FilterMeals(meals, Vegetarian)
		// pho-bo carries the beef tag; com-ga and the tuna salad match no
		// name pattern and stay.
		for _, id := range []string{"chicken-quinoa", "salmon-salad", "beef-bowl", "shrimp-pasta", "pho-bo"} {
			if has(got, id) {
				t.Errorf("Expected %s to be excluded", id)
			}
		}
		for _, id := range []string{"oat-berry", "tofu-stirfry", "lentil-soup", "com-ga", "tuna-pasta-salad"} {
			if !has(got, id) {
				t.Errorf("Expected %s to be kept", id)
			}
		}
	})

	t.Run("VegetarianNamePattern", func(t *testing.T) {
		named := []catalog.Meal{
			{ID: "tuna", Name: "Tuna Salad"},
			{ID: "com-ga", Name: "Cơm gà"},
			{ID: "banh-bo", Name: "Bánh bò"},
			{ID: "prawn", Name: "Shrimp Tacos"},
			{ID: "wings", Name: "CHICKEN wings"},
		}
		got := FilterMeals(named, Vegetarian)
		if len(got) != 3 {
			t.Fatalf("Expected 3 meals kept, got %d", len(got))
		}
		for _, id := range []string{"tuna", "com-ga", "banh-bo"} {
			if !has(got, id) {
				t.Errorf("Expected %s to be kept", id)
			}
		}
	})

	t.Run("Vegan", func(t *testing.T) {
		for _, m := range FilterMeals(meals, Vegan) {
			if !m.HasTag("vegan") {
				t.Errorf("Expected only vegan meals, got %s", m.ID)
			}
		}
	})

	t.Run("LowCarb", func(t *testing.T) {
		got := FilterMeals(meals, LowCarb)
		if !has(got, "salmon-salad") || !has(got, "egg-avocado-toast") || !has(got, "yogurt-parfait") {
			t.Errorf("Expected low_carb tag or carbs ≤ 35, got %d meals", len(got))
		}
		if has(got, "beef-bowl") {
			t.Error("Expected beef-bowl to be excluded")
		}
	})

	t.Run("HighProtein", func(t *testing.T) {
		got := FilterMeals(meals, HighProtein)
		if !has(got, "beef-bowl") || !has(got, "yogurt-parfait") {
			t.Error("Expected protein ≥ 30 or high_protein tag to be kept")
		}
		if has(got, "oat-berry") {
			t.Error("Expected oat-berry to be excluded")
		}
	})

	t.Run("PreservesOrder", func(t *testing.T) {
		got := FilterMeals(meals, Vegan)
		last := -1
		for _, m := range got {
			for i, c := range meals {
				if c.ID == m.ID {
					if i < last {
						t.Errorf("Expected catalog order, %s is out of place", m.ID)
					}
					last = i
				}
			}
		}
	})
}

func TestSwapMeal(t *testing.T) {
	meals := testMeals()

	t.Run("SkipsMealsUsedThatDay", func(t *testing.T) {
		plan, _ := BuildWeekPlan(meals, testProfile())
		if err := SwapMeal(meals, plan, 0, SlotLunch, Omnivore); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		// m2 is nearest to m1 but already dinner on Monday.
		if got := plan.Days[0].Meals[SlotLunch].ID; got != "m3" {
			t.Errorf("Expected m3, got %s", got)
		}
	})

	t.Run("BreakfastStaysBreakfast", func(t *testing.T) {
		plan, _ := BuildWeekPlan(meals, testProfile())
		SwapMeal(meals, plan, 0, SlotBreakfast, Omnivore)
		if got := plan.Days[0].Meals[SlotBreakfast]; got.ID != "b2" || !got.IsBreakfast() {
			t.Errorf("Expected b2, got %s", got.ID)
		}
	})

	t.Run("FallsBackToClosestWhenAllUsed", func(t *testing.T) {
		small := []catalog.Meal{meals[0], meals[3], meals[4]}
		plan, _ := BuildWeekPlan(small, testProfile())
		SwapMeal(small, plan, 0, SlotLunch, Omnivore)
		if got := plan.Days[0].Meals[SlotLunch].ID; got != "m2" {
			t.Errorf("Expected m2, got %s", got)
		}
	})

	t.Run("UnchangedWithoutAlternatives", func(t *testing.T) {
		small := []catalog.Meal{meals[0], meals[3], meals[4]}
		plan, _ := BuildWeekPlan(small, testProfile())
		SwapMeal(small, plan, 0, SlotBreakfast, Omnivore)
		if got := plan.Days[0].Meals[SlotBreakfast].ID; got != "b1" {
			t.Errorf("Expected b1 unchanged, got %s", got)
		}
	})

	t.Run("NeverRepeatsWithinDay", func(t *testing.T) {
		all := catalog.Default().Meals()
		plan, _ := BuildWeekPlan(all, testProfile())
		for d := range plan.Days {
			for s := 0; s < SlotsPerDay; s++ {
				SwapMeal(all, plan, d, s, Omnivore)
				day := plan.Days[d]
				for o := 0; o < SlotsPerDay; o++ {
					if o != s && day.Meals[o].ID == day.Meals[s].ID {
						t.Errorf("%s: slot %d repeats %s", day.Day, s, day.Meals[s].ID)
					}
				}
			}
		}
	})

	t.Run("OutOfRange", func(t *testing.T) {
		plan, _ := BuildWeekPlan(meals, testProfile())
		if err := SwapMeal(meals, plan, 7, 0, Omnivore); !errors.Is(err, ErrSlotOutOfRange) {
			t.Errorf("Expected ErrSlotOutOfRange, got %v", err)
		}
		if err := SwapMeal(meals, plan, 0, 3, Omnivore); !errors.Is(err, ErrSlotOutOfRange) {
			t.Errorf("Expected ErrSlotOutOfRange, got %v", err)
		}
	})
}

func TestRegenerateDay(t *testing.T) {
	meals := testMeals()
	plan, _ := BuildWeekPlan(meals, testProfile())

	if err := RegenerateDay(meals, plan, 0, Omnivore); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	want := [3]string{"b1", "m2", "m3"}
	if got := ids(plan.Days[0]); got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if plan.Days[0].Day != "Mon" {
		t.Errorf("Expected day label to be kept, got %s", plan.Days[0].Day)
	}
	if got := ids(plan.Days[1]); got != [3]string{"b2", "m3", "m4"} {
		t.Errorf("Expected other days untouched, got %v", got)
	}
}

func TestSwapMealWith(t *testing.T) {
	meals := testMeals()
	plan, _ := BuildWeekPlan(meals, testProfile())

	if err := SwapMealWith(plan, 2, SlotDinner, meals[5]); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := plan.Days[2].Meals[SlotDinner].ID; got != "m3" {
		t.Errorf("Expected m3, got %s", got)
	}
}

func TestClone(t *testing.T) {
	plan, _ := BuildWeekPlan(testMeals(), testProfile())
	cp := plan.Clone()
	cp.Days[0].Meals[0].Name = "changed"
	if plan.Days[0].Meals[0].Name == "changed" {
		t.Error("Expected Clone to deep-copy meals")
	}
}

func TestWeekPlanJSON(t *testing.T) {
	plan, err := BuildWeekPlan(testMeals(), testProfile())
	if err != nil {
		t.Fatalf("Failed to build plan: %v", err)
	}

	t.Run("ZeroWeekStartOmitted", func(t *testing.T) {
		data, err := json.Marshal(plan)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if strings.Contains(string(data), "weekStart") {
			t.Errorf("Expected no weekStart field, got %s", data)
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if len(fields) != 2 || fields["days"] == nil || fields["targets"] == nil {
			t.Errorf("Expected only days and targets, got %s", data)
		}
	})

	t.Run("WeekStartKept", func(t *testing.T) {
		dated := plan.Clone()
		dated.WeekStart = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
		data, err := json.Marshal(dated)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		var back WeekPlan
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if !back.WeekStart.Equal(dated.WeekStart) {
			t.Errorf("Expected week start %v, got %v", dated.WeekStart, back.WeekStart)
		}
	})
}

func TestPlannerPersistsMutations(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	p := NewPlanner(catalog.New(testMeals()), store)

	plan, err := p.BuildWeekPlan(testProfile())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, err := p.SwapMeal(ctx, "u1", plan, 0, SlotLunch, Omnivore); err != nil {
		t.Fatalf("SwapMeal failed: %v", err)
	}
	saved, err := p.Repository().LoadPlan(ctx, "u1")
	if err != nil || saved == nil {
		t.Fatalf("Expected saved plan, got %v, %v", saved, err)
	}
	if saved.Days[0].Meals[SlotLunch].ID != "m3" {
		t.Errorf("Expected persisted swap m3, got %s", saved.Days[0].Meals[SlotLunch].ID)
	}

	if _, err := p.SwapMealWith(ctx, "u1", plan, 1, SlotBreakfast, "b3"); err != nil {
		t.Fatalf("SwapMealWith failed: %v", err)
	}
	if _, err := p.SwapMealWith(ctx, "u1", plan, 1, SlotBreakfast, "nope"); !errors.Is(err, ErrUnknownMeal) {
		t.Errorf("Expected ErrUnknownMeal, got %v", err)
	}

	if _, err := p.RegenerateDay(ctx, "u1", plan, 3, Omnivore); err != nil {
		t.Fatalf("RegenerateDay failed: %v", err)
	}
	saved, _ = p.Repository().LoadPlan(ctx, "u1")
	if saved.Days[1].Meals[SlotBreakfast].ID != "b3" {
		t.Errorf("Expected persisted b3, got %s", saved.Days[1].Meals[SlotBreakfast].ID)
	}
	if got := ids(saved.Days[3]); got != ids(plan.Days[3]) {
		t.Errorf("Expected persisted regenerated day %v, got %v", ids(plan.Days[3]), got)
	}
}

func TestProfileValidate(t *testing.T) {
	if err := testProfile().Validate(); err != nil {
		t.Errorf("Expected valid profile, got %v", err)
	}

	bad := testProfile()
	bad.Activity = "couch"
	if err := bad.Validate(); !errors.Is(err, ErrInvalidProfile) {
		t.Errorf("Expected ErrInvalidProfile, got %v", err)
	}

	bad = testProfile()
	bad.Age = 0
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for age 0")
	}
}

func TestDayIndex(t *testing.T) {
	if i, ok := DayIndex("tuesday"); !ok || i != 1 {
		t.Errorf("Expected 1, got %d (%v)", i, ok)
	}
	if _, ok := DayIndex("xx"); ok {
		t.Error("Expected failure for short label")
	}
}

package shopping

import (
	"context"
	"math"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"smartmeal/internal/catalog"
	"smartmeal/internal/database"
	"smartmeal/internal/planner"
	"smartmeal/internal/units"
)

func ing(name, unit string, qty float64, cpu *float64) catalog.Ingredient {
	return catalog.Ingredient{Name: name, Unit: unit, Qty: qty, CostPerUnit: cpu}
}

func planOf(meals ...catalog.Meal) *planner.WeekPlan {
	return &planner.WeekPlan{Days: []planner.DayPlan{{Day: "Mon", Meals: meals}}}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestAggregate(t *testing.T) {
	t.Run("MergesByNameAndUnit", func(t *testing.T) {
		plan := planOf(
			catalog.Meal{ID: "a", Ingredients: []catalog.Ingredient{ing("Rice", "g", 100, catalog.Price(0.01))}},
			catalog.Meal{ID: "b", Ingredients: []catalog.Ingredient{ing("Rice", "g", 150, catalog.Price(0.01)), ing("Rice", "cup", 1, nil)}},
		)
		list := Aggregate(plan)
		if len(list.Items) != 2 {
			t.Fatalf("Expected 2 items, got %d", len(list.Items))
		}
		rice := list.Items[0]
		if rice.Unit != "g" || rice.Qty != 250 || !near(rice.CostOrZero(), 2.5) {
			t.Errorf("Expected 250 g rice costing 2.5, got %+v", rice)
		}
		if list.Items[1].Cost != nil {
			t.Errorf("Expected no cost for cup of rice, got %v", *list.Items[1].Cost)
		}
		if !near(list.TotalCost, 2.5) {
			t.Errorf("Expected total 2.5, got %v", list.TotalCost)
		}
	})

	t.Run("CarriesForwardCostForUnpricedIngredient", func(t *testing.T) {
		plan := planOf(catalog.Meal{ID: "a", Ingredients: []catalog.Ingredient{
			ing("Eggs", "pcs", 2, catalog.Price(0.5)),
			ing("Eggs", "pcs", 3, nil),
		}})
		list := Aggregate(plan)
		if list.Items[0].Qty != 5 || !near(list.Items[0].CostOrZero(), 1) {
			t.Errorf("Expected qty 5 with carried cost 1, got %+v", list.Items[0])
		}
	})

	t.Run("ZeroPriceIsUnpriced", func(t *testing.T) {
		plan := planOf(catalog.Meal{ID: "a", Ingredients: []catalog.Ingredient{ing("Salt", "g", 1, catalog.Price(0))}})
		if list := Aggregate(plan); list.Items[0].Cost != nil {
			t.Errorf("Expected nil cost, got %v", *list.Items[0].Cost)
		}
	})

	t.Run("SortedByCostDescendingStable", func(t *testing.T) {
		plan := planOf(catalog.Meal{ID: "a", Ingredients: []catalog.Ingredient{
			ing("A", "g", 1, nil),
			ing("B", "g", 1, catalog.Price(2)),
			ing("C", "g", 1, nil),
			ing("D", "g", 1, catalog.Price(5)),
		}})
		list := Aggregate(plan)
		want := []string{"D", "B", "A", "C"}
		for i, name := range want {
			if list.Items[i].Name != name {
				t.Errorf("Position %d: Expected %s, got %s", i, name, list.Items[i].Name)
			}
		}
	})

	t.Run("Extras", func(t *testing.T) {
		plan := planOf(catalog.Meal{ID: "a", Ingredients: []catalog.Ingredient{ing("Milk", "ml", 200, catalog.Price(0.002))}})
		c := 1.5
		list := Aggregate(plan, Item{Name: "Milk", Unit: "ml", Qty: 500, Cost: &c}, Item{Name: "Coffee", Unit: "g", Qty: 250})
		if list.Items[0].Qty != 700 || !near(list.Items[0].CostOrZero(), 1.9) {
			t.Errorf("Expected merged milk 700 ml costing 1.9, got %+v", list.Items[0])
		}
		if len(list.Items) != 2 || list.Items[1].Name != "Coffee" {
			t.Errorf("Expected Coffee appended, got %+v", list.Items)
		}
	})

	t.Run("DefaultCatalogKeysAreUnique", func(t *testing.T) {
		p := planner.Profile{Age: 30, Sex: planner.Female, HeightCm: 165, WeightKg: 60, Activity: planner.Light, Goal: planner.Maintain, Preference: planner.Omnivore}
		plan, err := planner.BuildWeekPlan(catalog.Default().Meals(), p)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		list := Aggregate(plan)
		seen := map[string]bool{}
		sum := 0.0
		for _, it := range list.Items {
			k := it.Name + "|" + it.Unit
			if seen[k] {
				t.Errorf("Expected %s once", k)
			}
			seen[k] = true
			sum += it.CostOrZero()
		}
		if !near(sum, list.TotalCost) || list.TotalCost <= 0 {
			t.Errorf("Expected positive total equal to item sum %v, got %v", sum, list.TotalCost)
		}
	})
}

func TestAggregateIsRepeatable(t *testing.T) {
	profile := planner.Profile{Age: 28, Sex: planner.Male, HeightCm: 175, WeightKg: 72, Activity: planner.Moderate, Goal: planner.Maintain, Preference: planner.Omnivore}
	plan, err := planner.BuildWeekPlan(catalog.Default().Meals(), profile)
	if err != nil {
		t.Fatalf("Failed to build plan: %v", err)
	}
	snapshot := plan.Clone()

	first := Aggregate(plan)
	second := Aggregate(plan)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical lists, got %+v and %+v", first, second)
	}
	if !reflect.DeepEqual(plan, snapshot) {
		t.Error("Expected Aggregate to leave the plan untouched")
	}

	seen := make(map[string]bool)
	for _, it := range first.Items {
		key := it.Name + "|" + it.Unit
		if seen[key] {
			t.Errorf("Expected one line per (name, unit), %s repeated", key)
		}
		seen[key] = true
	}
	if first.TotalCost <= 0 {
		t.Errorf("Expected a positive total, got %v", first.TotalCost)
	}
}

func TestAggregateNormalized(t *testing.T) {
	plan := planOf(catalog.Meal{ID: "a", Ingredients: []catalog.Ingredient{
		ing("Rice", "kg", 1, catalog.Price(3)),
		ing("Rice", "g", 500, catalog.Price(0.003)),
	}})
	list := AggregateNormalized(plan, units.NewNormalizer(nil))
	if len(list.Items) != 1 {
		t.Fatalf("Expected kg and g to merge, got %+v", list.Items)
	}
	if list.Items[0].Unit != "g" || list.Items[0].Qty != 1500 || !near(list.Items[0].CostOrZero(), 4.5) {
		t.Errorf("Expected 1500 g costing 4.5, got %+v", list.Items[0])
	}
}

func TestWithoutPantry(t *testing.T) {
	c1, c2 := 2.0, 3.0
	list := List{Items: []Item{{Name: "Olive oil", Cost: &c1}, {Name: "Rice", Cost: &c2}}, TotalCost: 5}
	got := WithoutPantry(list, map[string]bool{"olive OIL": true, "Rice": false})
	if len(got.Items) != 1 || got.Items[0].Name != "Rice" || got.TotalCost != 3 {
		t.Errorf("Expected only Rice costing 3, got %+v", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want Category
	}{
		{"Chicken breast", Proteins},
		{"Thịt bò", Proteins},
		{"Trứng", Proteins},
		{"Eggs", Proteins},
		{"Brown rice", Carbs},
		{"Bánh phở", Carbs},
		{"Rolled oats", Carbs},
		{"Spinach", Vegetables},
		{"Cà chua", Vegetables},
		{"Hành lá", Vegetables},
		{"Bell pepper", Vegetables},
		{"Eggplant", Vegetables},
		{"Black pepper", Condiments},
		{"Vegetable broth", Condiments},
		{"Nước dùng bò", Condiments},
		{"Nước mắm", Condiments},
		{"Olive oil", Condiments},
		{"Peanut butter", Snacks},
		{"Greek yogurt", Snacks},
		{"Banana", Snacks},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultCategorizer.Classify(tt.name); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}

	t.Run("DecomposedInput", func(t *testing.T) {
		if got := DefaultCategorizer.Classify("Ca\u0300 chua"); got != Vegetables {
			t.Errorf("Expected Vegetables, got %s", got)
		}
	})

	t.Run("Overrides", func(t *testing.T) {
		c := NewCategorizer(map[string]string{"banana": "carbs", "milk": "dessert"})
		if got := c.Classify("Banana"); got != Carbs {
			t.Errorf("Expected Carbs, got %s", got)
		}
		if got := c.Classify("Milk"); got != Snacks {
			t.Errorf("Expected unknown override to be ignored, got %s", got)
		}
	})
}

func TestGroupItems(t *testing.T) {
	items := []Item{{Name: "Spinach"}, {Name: "Chicken"}, {Name: "Tomato"}, {Name: "Rice"}}
	groups := GroupItems(items, DefaultCategorizer)
	if len(groups) != 3 {
		t.Fatalf("Expected 3 groups, got %d", len(groups))
	}
	if groups[0].Category != Vegetables || len(groups[0].Items) != 2 {
		t.Errorf("Expected Vegetables first with 2 items, got %+v", groups[0])
	}
	if groups[1].Category != Proteins || groups[2].Category != Carbs {
		t.Errorf("Expected first-seen order, got %s, %s", groups[1].Category, groups[2].Category)
	}
}

func TestHasVegetable(t *testing.T) {
	veg := catalog.Meal{Ingredients: []catalog.Ingredient{{Name: "Rice"}, {Name: "Broccoli"}}}
	plain := catalog.Meal{Ingredients: []catalog.Ingredient{{Name: "Rice"}, {Name: "Salmon"}}}
	if !HasVegetable(veg, DefaultCategorizer) {
		t.Error("Expected broccoli meal to have a vegetable")
	}
	if HasVegetable(plain, DefaultCategorizer) {
		t.Error("Expected rice and salmon to have no vegetable")
	}
}

func TestFormatQty(t *testing.T) {
	tests := map[float64]string{2: "2", 150: "150", 0.5: "0.50", 1.004: "1", 1.25: "1.25"}
	for in, want := range tests {
		if got := FormatQty(in); got != want {
			t.Errorf("FormatQty(%v): Expected %s, got %s", in, want, got)
		}
	}
}

func TestCheaperAlternatives(t *testing.T) {
	p := func(v float64) *float64 { return &v }
	group := Group{Category: Proteins, Items: []Item{
		{Name: "Salmon", Cost: p(12)},
		{Name: "Chicken", Cost: p(5)},
		{Name: "Tofu", Cost: p(2)},
		{Name: "Eggs", Cost: p(3)},
		{Name: "Lentils"},
	}}

	got := CheaperAlternatives(group, group.Items[0], 2)
	if len(got) != 2 || got[0].Name != "Tofu" || got[1].Name != "Eggs" {
		t.Errorf("Expected Tofu, Eggs; got %+v", got)
	}
	if got := CheaperAlternatives(group, group.Items[2], 3); len(got) != 0 {
		t.Errorf("Expected nothing cheaper than tofu, got %+v", got)
	}
	if got := CheaperAlternatives(group, group.Items[4], 3); len(got) != 3 {
		t.Errorf("Expected 3 priced peers for an unpriced item, got %d", len(got))
	}
}

func TestBudget(t *testing.T) {
	tests := []struct {
		total, budget float64
		pct           int
		level         BudgetLevel
	}{
		{30, 50, 60, WithinBudget},
		{40, 50, 80, NearBudget},
		{50, 50, 100, NearBudget},
		{51, 50, 102, OverBudget},
		{500, 50, 150, OverBudget},
		{0.5, 0, 50, WithinBudget},
	}
	for _, tt := range tests {
		got := Budget(tt.total, tt.budget)
		if got.Percent != tt.pct || got.Level != tt.level {
			t.Errorf("Budget(%v, %v): Expected %d%% %s, got %d%% %s", tt.total, tt.budget, tt.pct, tt.level, got.Percent, got.Level)
		}
	}
	if got := Budget(30, 50); got.Remaining != 20 {
		t.Errorf("Expected remaining 20, got %v", got.Remaining)
	}
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create db: %v", err)
	}
	defer db.SQL.Close()
	repo := NewRepository(db.SQL)

	got, err := repo.Latest(ctx, "u1")
	if err != nil || got != nil {
		t.Fatalf("Expected nil, nil for empty table, got %v, %v", got, err)
	}

	c := 2.5
	first := &ShoppingList{UserID: "u1", Items: []Item{{Name: "Rice", Unit: "g", Qty: 500, Cost: &c}}, TotalCost: 2.5}
	if _, err := repo.Save(ctx, first); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	second := &ShoppingList{UserID: "u1", Items: []Item{{Name: "Eggs", Unit: "pcs", Qty: 6}}, CreatedAt: first.CreatedAt.Add(time.Second)}
	if _, err := repo.Save(ctx, second); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err = repo.Latest(ctx, "u1")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if got.ID != second.ID || len(got.Items) != 1 || got.Items[0].Name != "Eggs" {
		t.Errorf("Expected the second list, got %+v", got)
	}

	if err := repo.DeleteByUser(ctx, "u1"); err != nil {
		t.Fatalf("DeleteByUser failed: %v", err)
	}
	if got, _ := repo.Latest(ctx, "u1"); got != nil {
		t.Errorf("Expected no list after delete, got %+v", got)
	}
}

package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"smartmeal/internal/database"
	"smartmeal/internal/storage"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	if c.Len() < 10 {
		t.Fatalf("Expected at least 10 meals, got %d", c.Len())
	}

	first := c.Meals()[0]
	if first.ID != "oat-berry" {
		t.Errorf("Expected first meal 'oat-berry', got '%s'", first.ID)
	}

	m, ok := c.Get("chicken-quinoa")
	if !ok {
		t.Fatal("Expected chicken-quinoa to exist")
	}
	if !m.IsMain() || m.IsBreakfast() {
		t.Errorf("Expected chicken-quinoa to be a main, got tags %v", m.Tags)
	}
}

func TestMealsReturnsCopies(t *testing.T) {
	c := Default()
	meals := c.Meals()
	meals[0].Name = "changed"
	meals[0].Ingredients[0].Qty = 9999
	*meals[0].Ingredients[0].CostPerUnit = 42

	again := c.Meals()[0]
	if again.Name == "changed" || again.Ingredients[0].Qty == 9999 || *again.Ingredients[0].CostPerUnit == 42 {
		t.Error("Expected catalog to be unaffected by mutations of returned meals")
	}
}

func TestMealCost(t *testing.T) {
	m := Meal{
		ID: "m",
		Ingredients: []Ingredient{
			{Name: "Rice", Unit: "g", Qty: 100, CostPerUnit: Price(0.01)},
			{Name: "Salt", Unit: "g", Qty: 2},
			{Name: "Egg", Unit: "pcs", Qty: 2, CostPerUnit: Price(0.5)},
		},
	}
	got := MealCost(m)
	if got < 1.999 || got > 2.001 {
		t.Errorf("Expected cost 2.0, got %v", got)
	}
}

func TestMerge(t *testing.T) {
	base := New([]Meal{{ID: "a"}, {ID: "b"}})
	merged := base.Merge([]Meal{{ID: "b", Name: "dup"}, {ID: "c"}})

	if merged.Len() != 3 {
		t.Fatalf("Expected 3 meals, got %d", merged.Len())
	}
	b, _ := merged.Get("b")
	if b.Name == "dup" {
		t.Error("Expected existing meal to win over duplicate")
	}
	if base.Len() != 2 {
		t.Errorf("Expected base catalog untouched, got %d meals", base.Len())
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("JSON", func(t *testing.T) {
		path := filepath.Join(dir, "meals.json")
		os.WriteFile(path, []byte(`[{"id":"x","name":"X","calories":100,"protein":1,"carbs":2,"fat":3,"tags":["breakfast"],"ingredients":[]}]`), 0644)

		c, err := Load(path)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if c.Len() != 1 {
			t.Errorf("Expected 1 meal, got %d", c.Len())
		}
	})

	t.Run("YAML", func(t *testing.T) {
		path := filepath.Join(dir, "meals.yaml")
		content := `
- id: y
  name: Y
  calories: 300
  protein: 20
  carbs: 30
  fat: 10
  tags: [lunch]
  ingredients:
    - name: Rice
      unit: g
      qty: 80
      costPerUnit: 0.01
`
		os.WriteFile(path, []byte(content), 0644)

		c, err := Load(path)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		m, ok := c.Get("y")
		if !ok {
			t.Fatal("Expected meal y")
		}
		if !m.Ingredients[0].HasCost() {
			t.Error("Expected ingredient cost to be parsed")
		}
	})

	t.Run("MissingID", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		os.WriteFile(path, []byte(`[{"name":"no id"}]`), 0644)
		if _, err := Load(path); err == nil {
			t.Error("Expected error for meal without id")
		}
	})
}

func TestSubstitutionsFor(t *testing.T) {
	subs := map[string][]string{
		"gà":      {"đậu hũ"},
		"ức gà":   {"ức gà tây"},
		"chicken": {"tofu", "tempeh"},
	}

	if got := SubstitutionsFor("Chicken breast", subs); len(got) != 2 || got[0] != "tofu" {
		t.Errorf("Expected [tofu tempeh], got %v", got)
	}
	if got := SubstitutionsFor("Ức gà", subs); len(got) != 1 || got[0] != "ức gà tây" {
		t.Errorf("Expected the more specific key to win, got %v", got)
	}
	if got := SubstitutionsFor("Rice", subs); got != nil {
		t.Errorf("Expected nil, got %v", got)
	}
}

func TestRemoteLoad(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/rules":
			w.Write([]byte(`{"maxRepeatPerWeek":2,"minVegetablePerDay":2,"preferTags":["vegan"]}`))
		case "/categories":
			w.Write([]byte(`{"tempeh":"Proteins"}`))
		case "/meals":
			w.Write([]byte(`[{"id":"remote-1","name":"Remote","calories":400,"protein":20,"carbs":40,"fat":10,"tags":["lunch"],"ingredients":[]}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cache := storage.NewMemoryStore()
	r := NewRemote(srv.Client(), cache, Sources{
		MealsURL:      srv.URL + "/meals",
		RulesURL:      srv.URL + "/rules",
		CategoriesURL: srv.URL + "/categories",
		PantryURL:     srv.URL + "/missing",
	})

	b, err := r.Load(context.Background(), Default())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if b.Rules.MaxRepeatPerWeek != 2 || b.Rules.MinVegetablePerDay != 2 {
		t.Errorf("Expected remote rules, got %+v", b.Rules)
	}
	if b.Categories["tempeh"] != "Proteins" {
		t.Errorf("Expected remote categories, got %v", b.Categories)
	}
	if _, ok := b.Catalog.Get("remote-1"); !ok {
		t.Error("Expected remote meal to be merged into the catalog")
	}
	if len(b.PantryStaples) != 0 {
		t.Errorf("Expected empty pantry fallback, got %v", b.PantryStaples)
	}
	if len(b.Substitutions) != 0 || len(b.UnitAliases) != 0 {
		t.Error("Expected empty maps for unconfigured sources")
	}

	t.Run("ServedFromCache", func(t *testing.T) {
		before := hits.Load()
		b2, err := r.Load(context.Background(), Default())
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		// only the failing pantry document goes back to the network
		if n := hits.Load() - before; n != 1 {
			t.Errorf("Expected 1 network hit, got %d", n)
		}
		if b2.Rules.MaxRepeatPerWeek != 2 {
			t.Errorf("Expected cached rules, got %+v", b2.Rules)
		}
	})
}

func TestRemoteRulesKeepDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"minVegetablePerDay":2}`))
	}))
	defer srv.Close()

	cache := storage.NewMemoryStore()
	r := NewRemote(srv.Client(), cache, Sources{RulesURL: srv.URL + "/rules"})

	b, err := r.Load(context.Background(), Default())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	want := DefaultDiversityRules().MaxRepeatPerWeek
	if b.Rules.MaxRepeatPerWeek != want || b.Rules.MinVegetablePerDay != 2 {
		t.Errorf("Expected repeat cap %d and 2 vegetables, got %+v", want, b.Rules)
	}

	t.Run("FromCache", func(t *testing.T) {
		srv.Close()
		b, err := r.Load(context.Background(), Default())
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if b.Rules.MaxRepeatPerWeek != want || b.Rules.MinVegetablePerDay != 2 {
			t.Errorf("Expected cached rules over defaults, got %+v", b.Rules)
		}
	})
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	os.WriteFile(path, []byte("maxRepeatPerWeek: 4\npreferTags: [vegan, high_protein]\n"), 0644)

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rules.MaxRepeatPerWeek != 4 {
		t.Errorf("Expected 4, got %d", rules.MaxRepeatPerWeek)
	}
	if rules.MinVegetablePerDay != 1 {
		t.Errorf("Expected default minVegetablePerDay 1, got %d", rules.MinVegetablePerDay)
	}
	if len(rules.PreferTags) != 2 {
		t.Errorf("Expected 2 prefer tags, got %v", rules.PreferTags)
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

	got, err := repo.Get(ctx, "clipped-soup")
	if err != nil || got != nil {
		t.Fatalf("Expected nil, nil for unknown meal, got %v, %v", got, err)
	}

	soup := Meal{
		ID: "clipped-soup", Name: "Lentil Soup", Calories: 450, Protein: 24, Carbs: 60, Fat: 9,
		Tags:        []string{"lunch", "vegan"},
		Ingredients: []Ingredient{{Name: "Red lentils", Unit: "g", Qty: 90, CostPerUnit: Price(0.01)}},
		SourceURL:   "https://example.com/soup",
	}
	if err := repo.Save(ctx, soup); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	soup.Name = "Red Lentil Soup"
	if err := repo.Save(ctx, soup); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	got, err = repo.Get(ctx, "clipped-soup")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Red Lentil Soup" || got.SourceURL != soup.SourceURL {
		t.Errorf("Expected updated meal, got %+v", got)
	}
	if c := MealCost(*got); c < 0.899 || c > 0.901 {
		t.Errorf("Expected cost 0.9, got %v", c)
	}

	meals, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(meals) != 1 {
		t.Errorf("Expected 1 stored meal, got %d", len(meals))
	}

	if err := repo.Delete(ctx, "clipped-soup"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if got, _ := repo.Get(ctx, "clipped-soup"); got != nil {
		t.Errorf("Expected no meal after delete, got %+v", got)
	}
}

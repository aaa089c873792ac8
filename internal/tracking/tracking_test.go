package tracking

import (
	"context"
	"testing"

	"smartmeal/internal/catalog"
	"smartmeal/internal/storage"
)

func TestLogMealAndUndo(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(storage.NewMemoryStore())
	oats := catalog.Meal{ID: "oats", Calories: 400, Protein: 20, Carbs: 50, Fat: 15}
	bowl := catalog.Meal{ID: "bowl", Calories: 600, Protein: 40, Carbs: 60, Fat: 20}

	if _, err := tr.LogMeal(ctx, "u1", "2024-05-06", oats); err != nil {
		t.Fatalf("LogMeal failed: %v", err)
	}
	day, err := tr.LogMeal(ctx, "u1", "2024-05-06", bowl)
	if err != nil {
		t.Fatalf("LogMeal failed: %v", err)
	}
	if day.Calories != 1000 || day.Protein != 60 {
		t.Errorf("Expected 1000 kcal / 60 g protein, got %+v", day)
	}

	day, undone, err := tr.Undo(ctx, "u1", "2024-05-06")
	if err != nil || !undone {
		t.Fatalf("Expected undo, got %v, %v", undone, err)
	}
	if day.Calories != 400 || day.Fat != 15 {
		t.Errorf("Expected oats totals after undo, got %+v", day)
	}

	tr.Undo(ctx, "u1", "2024-05-06")
	day, undone, _ = tr.Undo(ctx, "u1", "2024-05-06")
	if undone {
		t.Error("Expected nothing left to undo")
	}
	if day.Calories != 0 {
		t.Errorf("Expected empty day, got %+v", day)
	}

	t.Run("InvalidDate", func(t *testing.T) {
		if _, err := tr.LogMeal(ctx, "u1", "06/05/2024", oats); err == nil {
			t.Error("Expected error for malformed date")
		}
	})

	t.Run("UsersAreIsolated", func(t *testing.T) {
		logs, _ := tr.Logs(ctx, "u2")
		if len(logs) != 0 {
			t.Errorf("Expected no logs for u2, got %d", len(logs))
		}
	})
}

func TestImportLogs(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(storage.NewMemoryStore())

	n, err := tr.ImportLogs(ctx, "u1", []DayLog{
		{Date: "2024-05-07", Calories: 1800},
		{Date: "2024-05-06", Calories: 2000},
	})
	if err != nil || n != 2 {
		t.Fatalf("Expected 2 imported, got %d, %v", n, err)
	}
	tr.ImportLogs(ctx, "u1", []DayLog{{Date: "2024-05-07", Calories: 1900}})

	logs, err := tr.Logs(ctx, "u1")
	if err != nil {
		t.Fatalf("Logs failed: %v", err)
	}
	if len(logs) != 2 || logs[0].Date != "2024-05-06" || logs[1].Calories != 1900 {
		t.Errorf("Expected two days sorted with the replaced value, got %+v", logs)
	}

	if _, err := tr.ImportLogs(ctx, "u1", []DayLog{{Date: "bad"}}); err == nil {
		t.Error("Expected error for malformed date")
	}
}

func TestFavorites(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(storage.NewMemoryStore())

	on, _ := tr.ToggleFavorite(ctx, "u1", "pho-bo")
	tr.ToggleFavorite(ctx, "u1", "com-ga")
	if !on {
		t.Error("Expected first toggle to add the favorite")
	}
	off, _ := tr.ToggleFavorite(ctx, "u1", "pho-bo")
	if off {
		t.Error("Expected second toggle to remove the favorite")
	}
	favs, _ := tr.Favorites(ctx, "u1")
	if len(favs) != 1 || favs[0] != "com-ga" {
		t.Errorf("Expected [com-ga], got %v", favs)
	}
}

func TestSetRating(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(storage.NewMemoryStore())

	tests := map[float64]int{0: 1, 2.5: 3, 2.4: 2, 7: 5, -3: 1, 5: 5}
	for in, want := range tests {
		got, err := tr.SetRating(ctx, "u1", "m", in)
		if err != nil {
			t.Fatalf("SetRating failed: %v", err)
		}
		if got != want {
			t.Errorf("SetRating(%v): Expected %d, got %d", in, want, got)
		}
	}

	tr.SetRating(ctx, "u1", "a", 4)
	ratings, _ := tr.Ratings(ctx, "u1")
	if ratings["a"] != 4 {
		t.Errorf("Expected stored rating 4, got %d", ratings["a"])
	}
}

func TestPantry(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(storage.NewMemoryStore())

	if err := tr.SetOwned(ctx, "u1", "Olive oil", true); err != nil {
		t.Fatalf("SetOwned failed: %v", err)
	}
	tr.SetOwned(ctx, "u1", "Rice", false)
	p, err := tr.Pantry(ctx, "u1")
	if err != nil {
		t.Fatalf("Pantry failed: %v", err)
	}
	if !p["Olive oil"] || p["Rice"] || len(p) != 2 {
		t.Errorf("Unexpected pantry: %v", p)
	}
}

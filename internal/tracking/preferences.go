package tracking

import (
	"context"
	"fmt"
	"math"
	"sort"

	"smartmeal/internal/storage"
)

// ToggleFavorite flips mealID in the user's favorites and reports whether it
// is now a favorite.
func (t *Tracker) ToggleFavorite(ctx context.Context, userID, mealID string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	favs, err := t.favorites(ctx, userID)
	if err != nil {
		return false, err
	}
	now := !favs[mealID]
	if now {
		favs[mealID] = true
	} else {
		delete(favs, mealID)
	}

	ids := make([]string, 0, len(favs))
	for id := range favs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if err := storage.SaveJSON(ctx, t.store, storage.Key(storage.FavoritesKey, userID), ids); err != nil {
		return false, fmt.Errorf("failed to save favorites: %w", err)
	}
	return now, nil
}

// Favorites lists the user's favorite meal ids, sorted.
func (t *Tracker) Favorites(ctx context.Context, userID string) ([]string, error) {
	favs, err := t.favorites(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(favs))
	for id := range favs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (t *Tracker) favorites(ctx context.Context, userID string) (map[string]bool, error) {
	ids, err := storage.LoadJSON[[]string](ctx, t.store, storage.Key(storage.FavoritesKey, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}
	set := make(map[string]bool)
	if ids != nil {
		for _, id := range *ids {
			set[id] = true
		}
	}
	return set, nil
}

// SetRating stores a star rating for mealID, rounded and clamped to 1..5.
func (t *Tracker) SetRating(ctx context.Context, userID, mealID string, stars float64) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ratings, err := loadMap[int](ctx, t.store, storage.Key(storage.RatingsKey, userID))
	if err != nil {
		return 0, fmt.Errorf("failed to load ratings: %w", err)
	}
	r := int(math.Max(1, math.Min(5, math.Floor(stars+0.5))))
	ratings[mealID] = r
	if err := storage.SaveJSON(ctx, t.store, storage.Key(storage.RatingsKey, userID), ratings); err != nil {
		return 0, fmt.Errorf("failed to save ratings: %w", err)
	}
	return r, nil
}

// Ratings returns meal id → stars.
func (t *Tracker) Ratings(ctx context.Context, userID string) (map[string]int, error) {
	ratings, err := loadMap[int](ctx, t.store, storage.Key(storage.RatingsKey, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}
	return ratings, nil
}

// SetOwned marks an ingredient as in (or out of) the user's pantry.
func (t *Tracker) SetOwned(ctx context.Context, userID, ingredient string, owned bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	pantry, err := loadMap[bool](ctx, t.store, storage.Key(storage.PantryKey, userID))
	if err != nil {
		return fmt.Errorf("failed to load pantry: %w", err)
	}
	pantry[ingredient] = owned
	if err := storage.SaveJSON(ctx, t.store, storage.Key(storage.PantryKey, userID), pantry); err != nil {
		return fmt.Errorf("failed to save pantry: %w", err)
	}
	return nil
}

// Pantry returns ingredient → owned for the user.
func (t *Tracker) Pantry(ctx context.Context, userID string) (map[string]bool, error) {
	pantry, err := loadMap[bool](ctx, t.store, storage.Key(storage.PantryKey, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to load pantry: %w", err)
	}
	return pantry, nil
}

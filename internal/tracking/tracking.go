// Package tracking keeps per-user progress state: daily macro logs with
// undo, favorite meals, star ratings and the pantry.
package tracking

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"smartmeal/internal/catalog"
	"smartmeal/internal/storage"
)

// DateLayout is the key format for daily logs.
const DateLayout = "2006-01-02"

// DayLog is the running macro total for one date.
type DayLog struct {
	Date     string  `json:"date"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// LogAction is one logged meal, kept so it can be undone.
type LogAction struct {
	MealID   string  `json:"mealId"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Tracker reads and writes tracking state through a storage.Store. Updates
// are read-modify-write, so they are serialized within the process.
type Tracker struct {
	store storage.Store
	mu    sync.Mutex
}

// NewTracker creates a tracker.
func NewTracker(store storage.Store) *Tracker {
	return &Tracker{store: store}
}

func validDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("invalid log date %q: %w", date, err)
	}
	return nil
}

func loadMap[V any](ctx context.Context, s storage.Store, key string) (map[string]V, error) {
	m, err := storage.LoadJSON[map[string]V](ctx, s, key)
	if err != nil {
		return nil, err
	}
	if m == nil || *m == nil {
		return map[string]V{}, nil
	}
	return *m, nil
}

// LogMeal adds the meal's macros to the log for date and remembers the
// action for Undo.
func (t *Tracker) LogMeal(ctx context.Context, userID, date string, meal catalog.Meal) (DayLog, error) {
	if err := validDate(date); err != nil {
		return DayLog{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	logs, err := loadMap[DayLog](ctx, t.store, storage.Key(storage.LogsKey, userID))
	if err != nil {
		return DayLog{}, fmt.Errorf("failed to load logs: %w", err)
	}
	stacks, err := loadMap[[]LogAction](ctx, t.store, storage.Key(storage.LogStackKey, userID))
	if err != nil {
		return DayLog{}, fmt.Errorf("failed to load log history: %w", err)
	}

	day := logs[date]
	day.Date = date
	day.Calories += meal.Calories
	day.Protein += meal.Protein
	day.Carbs += meal.Carbs
	day.Fat += meal.Fat
	logs[date] = day

	stacks[date] = append(stacks[date], LogAction{
		MealID: meal.ID, Calories: meal.Calories, Protein: meal.Protein, Carbs: meal.Carbs, Fat: meal.Fat,
	})

	if err := storage.SaveJSON(ctx, t.store, storage.Key(storage.LogsKey, userID), logs); err != nil {
		return DayLog{}, fmt.Errorf("failed to save logs: %w", err)
	}
	if err := storage.SaveJSON(ctx, t.store, storage.Key(storage.LogStackKey, userID), stacks); err != nil {
		return DayLog{}, fmt.Errorf("failed to save log history: %w", err)
	}
	return day, nil
}

// Undo reverts the last meal logged on date. The boolean is false when
// there was nothing to undo. Totals never go below zero.
func (t *Tracker) Undo(ctx context.Context, userID, date string) (DayLog, bool, error) {
	if err := validDate(date); err != nil {
		return DayLog{}, false, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	stacks, err := loadMap[[]LogAction](ctx, t.store, storage.Key(storage.LogStackKey, userID))
	if err != nil {
		return DayLog{}, false, fmt.Errorf("failed to load log history: %w", err)
	}
	logs, err := loadMap[DayLog](ctx, t.store, storage.Key(storage.LogsKey, userID))
	if err != nil {
		return DayLog{}, false, fmt.Errorf("failed to load logs: %w", err)
	}

	actions := stacks[date]
	if len(actions) == 0 {
		return logs[date], false, nil
	}
	last := actions[len(actions)-1]
	stacks[date] = actions[:len(actions)-1]

	day := logs[date]
	day.Date = date
	day.Calories = math.Max(0, day.Calories-last.Calories)
	day.Protein = math.Max(0, day.Protein-last.Protein)
	day.Carbs = math.Max(0, day.Carbs-last.Carbs)
	day.Fat = math.Max(0, day.Fat-last.Fat)
	logs[date] = day

	if err := storage.SaveJSON(ctx, t.store, storage.Key(storage.LogStackKey, userID), stacks); err != nil {
		return DayLog{}, false, fmt.Errorf("failed to save log history: %w", err)
	}
	if err := storage.SaveJSON(ctx, t.store, storage.Key(storage.LogsKey, userID), logs); err != nil {
		return DayLog{}, false, fmt.Errorf("failed to save logs: %w", err)
	}
	return day, true, nil
}

// Logs returns every day log for the user, oldest first.
func (t *Tracker) Logs(ctx context.Context, userID string) ([]DayLog, error) {
	logs, err := loadMap[DayLog](ctx, t.store, storage.Key(storage.LogsKey, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to load logs: %w", err)
	}
	out := make([]DayLog, 0, len(logs))
	for _, l := range logs {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// ImportLogs stores client-side logs, replacing any existing log for the
// same date. Entries with a malformed date are rejected as a whole.
func (t *Tracker) ImportLogs(ctx context.Context, userID string, incoming []DayLog) (int, error) {
	for _, l := range incoming {
		if err := validDate(l.Date); err != nil {
			return 0, err
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	logs, err := loadMap[DayLog](ctx, t.store, storage.Key(storage.LogsKey, userID))
	if err != nil {
		return 0, fmt.Errorf("failed to load logs: %w", err)
	}
	for _, l := range incoming {
		logs[l.Date] = l
	}
	if err := storage.SaveJSON(ctx, t.store, storage.Key(storage.LogsKey, userID), logs); err != nil {
		return 0, fmt.Errorf("failed to save logs: %w", err)
	}
	return len(incoming), nil
}

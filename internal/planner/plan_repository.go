package planner

import (
	"context"
	"fmt"

	"smartmeal/internal/storage"
)

// PlanRepository persists profiles and plans per user in a key-value store.
type PlanRepository struct {
	store storage.Store
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(store storage.Store) *PlanRepository {
	return &PlanRepository{store: store}
}

// SavePlan stores the user's current plan, replacing the previous one.
func (r *PlanRepository) SavePlan(ctx context.Context, userID string, plan *WeekPlan) error {
	if err := storage.SaveJSON(ctx, r.store, storage.Key(storage.PlanKey, userID), plan); err != nil {
		return fmt.Errorf("failed to save meal plan for user %s: %w", userID, err)
	}
	return nil
}

// LoadPlan returns the user's current plan, or nil when none was saved.
func (r *PlanRepository) LoadPlan(ctx context.Context, userID string) (*WeekPlan, error) {
	plan, err := storage.LoadJSON[WeekPlan](ctx, r.store, storage.Key(storage.PlanKey, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to load meal plan for user %s: %w", userID, err)
	}
	return plan, nil
}

// SaveProfile stores the user's profile.
func (r *PlanRepository) SaveProfile(ctx context.Context, userID string, p Profile) error {
	if err := storage.SaveJSON(ctx, r.store, storage.Key(storage.ProfileKey, userID), p); err != nil {
		return fmt.Errorf("failed to save profile for user %s: %w", userID, err)
	}
	return nil
}

// LoadProfile returns the user's profile, or nil when none was saved.
func (r *PlanRepository) LoadProfile(ctx context.Context, userID string) (*Profile, error) {
	p, err := storage.LoadJSON[Profile](ctx, r.store, storage.Key(storage.ProfileKey, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for user %s: %w", userID, err)
	}
	return p, nil
}

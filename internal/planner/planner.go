package planner

import (
	"context"
	"fmt"
	"sync/atomic"

	"smartmeal/internal/catalog"
	"smartmeal/internal/storage"
)

// Planner binds the plan builder to a catalog and persists every mutation.
type Planner struct {
	catalog atomic.Pointer[catalog.Catalog]
	repo    *PlanRepository
}

// NewPlanner creates a new Planner instance.
func NewPlanner(cat *catalog.Catalog, store storage.Store) *Planner {
	p := &Planner{repo: NewPlanRepository(store)}
	p.catalog.Store(cat)
	return p
}

// Catalog returns the catalog currently used for planning.
func (p *Planner) Catalog() *catalog.Catalog {
	return p.catalog.Load()
}

// SetCatalog swaps in a new catalog, e.g. after a recipe was clipped.
func (p *Planner) SetCatalog(c *catalog.Catalog) {
	p.catalog.Store(c)
}

// Repository exposes the underlying plan/profile repository.
func (p *Planner) Repository() *PlanRepository {
	return p.repo
}

// BuildWeekPlan builds a plan for profile. It does not persist it.
func (p *Planner) BuildWeekPlan(profile Profile) (*WeekPlan, error) {
	return BuildWeekPlan(p.Catalog().Meals(), profile)
}

// Alternates lists swap candidates for current.
func (p *Planner) Alternates(current catalog.Meal, pref Preference) []catalog.Meal {
	return Alternates(p.Catalog().Meals(), current, pref)
}

// SwapMeal swaps one slot for the nearest-calorie alternative and saves the plan.
func (p *Planner) SwapMeal(ctx context.Context, userID string, plan *WeekPlan, dayIdx, mealIdx int, pref Preference) (*WeekPlan, error) {
	if err := SwapMeal(p.Catalog().Meals(), plan, dayIdx, mealIdx, pref); err != nil {
		return nil, err
	}
	return p.persist(ctx, userID, plan)
}

// RegenerateDay rebuilds one day and saves the plan.
func (p *Planner) RegenerateDay(ctx context.Context, userID string, plan *WeekPlan, dayIdx int, pref Preference) (*WeekPlan, error) {
	if err := RegenerateDay(p.Catalog().Meals(), plan, dayIdx, pref); err != nil {
		return nil, err
	}
	return p.persist(ctx, userID, plan)
}

// SwapMealWith places the catalog meal mealID into a slot and saves the plan.
func (p *Planner) SwapMealWith(ctx context.Context, userID string, plan *WeekPlan, dayIdx, mealIdx int, mealID string) (*WeekPlan, error) {
	meal, ok := p.Catalog().Get(mealID)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownMeal, mealID)
	}
	if err := SwapMealWith(plan, dayIdx, mealIdx, meal); err != nil {
		return nil, err
	}
	return p.persist(ctx, userID, plan)
}

// Save persists plan for userID.
func (p *Planner) Save(ctx context.Context, userID string, plan *WeekPlan) error {
	return p.repo.SavePlan(ctx, userID, plan)
}

// persist saves the already-mutated plan. The plan is returned even when the
// save fails so callers can still show it.
func (p *Planner) persist(ctx context.Context, userID string, plan *WeekPlan) (*WeekPlan, error) {
	if err := p.repo.SavePlan(ctx, userID, plan); err != nil {
		return plan, err
	}
	return plan, nil
}

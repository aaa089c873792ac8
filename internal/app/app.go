package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"smartmeal/internal/catalog"
	"smartmeal/internal/clipper"
	"smartmeal/internal/config"
	"smartmeal/internal/ghost"
	"smartmeal/internal/metrics"
	"smartmeal/internal/nutrition"
	"smartmeal/internal/planner"
	"smartmeal/internal/replan"
	"smartmeal/internal/shopping"
	"smartmeal/internal/storage"
	"smartmeal/internal/tracking"
	"smartmeal/internal/units"
)

var (
	// ErrNoProfile is returned when a user has not saved a profile yet.
	ErrNoProfile = errors.New("no profile saved")
	// ErrNoPlan is returned when a user has not generated a plan yet.
	ErrNoPlan = errors.New("no plan generated")
	// ErrPublishingDisabled is returned when Ghost is not configured.
	ErrPublishingDisabled = errors.New("publishing is not configured")
)

// Deps are the collaborators an App is assembled from. Only Config, Planner
// and Tracker are required.
type Deps struct {
	Config        *config.Config
	Planner       *planner.Planner
	Tracker       *tracking.Tracker
	Store         storage.Store
	Rules         catalog.DiversityRules
	Categorizer   shopping.Categorizer
	Normalizer    *units.Normalizer
	Substitutions map[string][]string
	PantryStaples []string
	Groceries     *shopping.Repository
	Metrics       *metrics.Store
	Collector     *metrics.Collector
	Clipper       *clipper.Clipper
	Ghost         ghost.Client
}

// App holds the application's dependencies and implements every user-facing
// operation on top of them. The HTTP API, the CLI and the Telegram bot all
// go through it.
type App struct {
	cfg           *config.Config
	mealPlanner   *planner.Planner
	tracker       *tracking.Tracker
	store         storage.Store
	rules         catalog.DiversityRules
	categorizer   shopping.Categorizer
	normalizer    *units.Normalizer
	substitutions map[string][]string
	pantry        []string
	groceries     *shopping.Repository
	metricsStore  *metrics.Store
	collector     *metrics.Collector
	recipeClipper *clipper.Clipper
	ghostClient   ghost.Client
	now           func() time.Time
}

// NewApp creates and initializes a new App instance.
func NewApp(d Deps) *App {
	a := &App{
		cfg:           d.Config,
		mealPlanner:   d.Planner,
		tracker:       d.Tracker,
		store:         d.Store,
		rules:         d.Rules,
		categorizer:   d.Categorizer,
		normalizer:    d.Normalizer,
		substitutions: d.Substitutions,
		pantry:        d.PantryStaples,
		groceries:     d.Groceries,
		metricsStore:  d.Metrics,
		collector:     d.Collector,
		recipeClipper: d.Clipper,
		ghostClient:   d.Ghost,
		now:           time.Now,
	}
	if a.cfg == nil {
		a.cfg = &config.Config{}
	}
	if a.store == nil {
		a.store = storage.NewMemoryStore()
	}
	if a.categorizer == nil {
		a.categorizer = shopping.DefaultCategorizer
	}
	if a.normalizer == nil {
		a.normalizer = units.NewNormalizer(nil)
	}
	return a
}

// Config returns the configuration the app was built with.
func (a *App) Config() *config.Config { return a.cfg }

// Catalog returns the catalog currently used for planning.
func (a *App) Catalog() *catalog.Catalog { return a.mealPlanner.Catalog() }

// Tracker exposes daily logs, favorites, ratings and pantry state.
func (a *App) Tracker() *tracking.Tracker { return a.tracker }

// Store returns the key-value store user documents live in.
func (a *App) Store() storage.Store { return a.store }

// Categorizer returns the grocery categorizer.
func (a *App) Categorizer() shopping.Categorizer { return a.categorizer }

// Metrics returns the metrics store, or nil when metrics are not persisted.
func (a *App) Metrics() *metrics.Store { return a.metricsStore }

// SaveProfile validates and stores a user's profile.
func (a *App) SaveProfile(ctx context.Context, userID string, p planner.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return a.mealPlanner.Repository().SaveProfile(ctx, userID, p)
}

// Profile returns the user's saved profile.
func (a *App) Profile(ctx context.Context, userID string) (*planner.Profile, error) {
	p, err := a.mealPlanner.Repository().LoadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNoProfile
	}
	return p, nil
}

// Targets computes the daily targets for the user's profile.
func (a *App) Targets(ctx context.Context, userID string) (nutrition.MacroTargets, error) {
	p, err := a.Profile(ctx, userID)
	if err != nil {
		return nutrition.MacroTargets{}, err
	}
	return p.Targets(), nil
}

// GeneratePlan builds a fresh week plan from the user's profile and saves it.
func (a *App) GeneratePlan(ctx context.Context, userID string) (*planner.WeekPlan, error) {
	start := time.Now()
	p, err := a.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	plan, err := a.mealPlanner.BuildWeekPlan(*p)
	if err != nil {
		return nil, fmt.Errorf("failed to build plan: %w", err)
	}
	plan.WeekStart = planner.GetNextMonday(a.now())

	if err := a.mealPlanner.Save(ctx, userID, plan); err != nil {
		return nil, err
	}
	cost := plan.TotalCost()
	a.record(ctx, metrics.Since(metrics.OpGenerate, start, len(plan.Days)*planner.SlotsPerDay, 0, cost))
	return plan, nil
}

// Plan returns the user's current plan.
func (a *App) Plan(ctx context.Context, userID string) (*planner.WeekPlan, error) {
	plan, err := a.mealPlanner.Repository().LoadPlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrNoPlan
	}
	return plan, nil
}

// preference falls back to omnivore when the user has no profile.
func (a *App) preference(ctx context.Context, userID string) planner.Preference {
	p, err := a.Profile(ctx, userID)
	if err != nil {
		return planner.Omnivore
	}
	return p.Preference
}

// Swap replaces one slot with the nearest-calorie alternative.
func (a *App) Swap(ctx context.Context, userID string, dayIdx, mealIdx int) (*planner.WeekPlan, error) {
	start := time.Now()
	plan, err := a.Plan(ctx, userID)
	if err != nil {
		return nil, err
	}
	before := plan.TotalCost()
	plan, err = a.mealPlanner.SwapMeal(ctx, userID, plan, dayIdx, mealIdx, a.preference(ctx, userID))
	if err != nil {
		return nil, err
	}
	a.record(ctx, metrics.Since(metrics.OpSwap, start, 1, before, plan.TotalCost()))
	return plan, nil
}

// Alternates lists the meals a slot could be swapped to.
func (a *App) Alternates(ctx context.Context, userID string, dayIdx, mealIdx int) ([]catalog.Meal, error) {
	plan, err := a.Plan(ctx, userID)
	if err != nil {
		return nil, err
	}
	if dayIdx < 0 || dayIdx >= len(plan.Days) || mealIdx < 0 || mealIdx >= len(plan.Days[dayIdx].Meals) {
		return nil, planner.ErrSlotOutOfRange
	}
	return a.mealPlanner.Alternates(plan.Days[dayIdx].Meals[mealIdx], a.preference(ctx, userID)), nil
}

// SwapWith places a specific catalog meal into one slot.
func (a *App) SwapWith(ctx context.Context, userID string, dayIdx, mealIdx int, mealID string) (*planner.WeekPlan, error) {
	start := time.Now()
	plan, err := a.Plan(ctx, userID)
	if err != nil {
		return nil, err
	}
	before := plan.TotalCost()
	plan, err = a.mealPlanner.SwapMealWith(ctx, userID, plan, dayIdx, mealIdx, mealID)
	if err != nil {
		return nil, err
	}
	a.record(ctx, metrics.Since(metrics.OpSwapWith, start, 1, before, plan.TotalCost()))
	return plan, nil
}

// RegenerateDay rebuilds one day of the user's plan.
func (a *App) RegenerateDay(ctx context.Context, userID string, dayIdx int) (*planner.WeekPlan, error) {
	start := time.Now()
	plan, err := a.Plan(ctx, userID)
	if err != nil {
		return nil, err
	}
	before := plan.TotalCost()
	plan, err = a.mealPlanner.RegenerateDay(ctx, userID, plan, dayIdx, a.preference(ctx, userID))
	if err != nil {
		return nil, err
	}
	a.record(ctx, metrics.Since(metrics.OpRegenerate, start, planner.SlotsPerDay, before, plan.TotalCost()))
	return plan, nil
}

// Budget resolves the weekly budget for a replan: an explicit value wins,
// then the profile's budget, then the configured default. Zero means none.
func (a *App) Budget(ctx context.Context, userID string, explicit float64) float64 {
	if explicit > 0 {
		return explicit
	}
	if p, err := a.Profile(ctx, userID); err == nil && p.BudgetPerWeek > 0 {
		return p.BudgetPerWeek
	}
	return a.cfg.DefaultBudget
}

// Replan swaps meals until the plan fits the budget and saves it when
// anything changed.
func (a *App) Replan(ctx context.Context, userID string, budget float64) (replan.Result, error) {
	start := time.Now()
	plan, err := a.Plan(ctx, userID)
	if err != nil {
		return replan.Result{}, err
	}
	budget = a.Budget(ctx, userID, budget)
	if budget <= 0 {
		return replan.Result{}, fmt.Errorf("no budget set")
	}

	opt := replan.NewOptimizer(a.mealPlanner.Catalog(), a.categorizer, a.rules)
	res := opt.ReplanUnderBudget(plan, budget)
	if res.Changed > 0 {
		if err := a.mealPlanner.Save(ctx, userID, res.Plan); err != nil {
			return res, err
		}
	}
	log.Printf("Replanned %s under %.2f: %d swaps, %.2f -> %.2f", userID, budget, res.Changed, res.Report.CostBefore, res.Report.CostAfter)
	a.record(ctx, metrics.Since(metrics.OpReplan, start, res.Changed, res.Report.CostBefore, res.Report.CostAfter))
	return res, nil
}

// Grocery aggregates the user's plan into a shopping list, minus what the
// user already owns. normalized merges quantities across units (kg and g).
func (a *App) Grocery(ctx context.Context, userID string, normalized bool) (shopping.List, error) {
	start := time.Now()
	plan, err := a.Plan(ctx, userID)
	if err != nil {
		return shopping.List{}, err
	}

	var list shopping.List
	if normalized {
		list = shopping.AggregateNormalized(plan, a.normalizer)
	} else {
		list = shopping.Aggregate(plan)
	}

	pantry, err := a.tracker.Pantry(ctx, userID)
	if err != nil {
		log.Printf("Warning: failed to load pantry for %s: %v", userID, err)
		pantry = map[string]bool{}
	}
	for _, staple := range a.pantry {
		if _, set := pantry[staple]; !set {
			pantry[staple] = true
		}
	}
	list = shopping.WithoutPantry(list, pantry)

	a.record(ctx, metrics.Since(metrics.OpGrocery, start, len(list.Items), 0, list.TotalCost))
	return list, nil
}

// SaveGrocery stores a grocery list as the user's latest.
func (a *App) SaveGrocery(ctx context.Context, userID string, items []shopping.Item) (*shopping.ShoppingList, error) {
	if a.groceries == nil {
		return nil, fmt.Errorf("grocery lists are not persisted")
	}
	sl := &shopping.ShoppingList{UserID: userID, Items: items}
	for _, it := range items {
		sl.TotalCost += it.CostOrZero()
	}
	if _, err := a.groceries.Save(ctx, sl); err != nil {
		return nil, err
	}
	return sl, nil
}

// LatestGrocery returns the user's last saved grocery list, or nil.
func (a *App) LatestGrocery(ctx context.Context, userID string) (*shopping.ShoppingList, error) {
	if a.groceries == nil {
		return nil, nil
	}
	return a.groceries.Latest(ctx, userID)
}

// Substitutions lists substitutes for each ingredient of a meal that has any.
func (a *App) Substitutions(mealID string) (map[string][]string, error) {
	m, ok := a.Catalog().Get(mealID)
	if !ok {
		return nil, fmt.Errorf("%w %q", planner.ErrUnknownMeal, mealID)
	}
	out := make(map[string][]string)
	for _, ing := range m.Ingredients {
		if subs := catalog.SubstitutionsFor(ing.Name, a.substitutions); len(subs) > 0 {
			out[ing.Name] = subs
		}
	}
	return out, nil
}

// Clip imports a recipe page as a new catalog meal.
func (a *App) Clip(ctx context.Context, url string) (*clipper.Result, error) {
	if a.recipeClipper == nil {
		return nil, fmt.Errorf("recipe clipping is not configured")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("invalid url %q", url)
	}
	start := time.Now()
	res, err := a.recipeClipper.ClipURL(ctx, url)
	if err != nil {
		return nil, err
	}
	a.mealPlanner.SetCatalog(a.Catalog().Merge([]catalog.Meal{res.Meal}))
	log.Printf("Clipped '%s' via %s", res.Meal.Name, res.Source)
	a.record(ctx, metrics.Since(metrics.OpClip, start, 1, 0, catalog.MealCost(res.Meal)))
	return res, nil
}

// Publish renders the user's plan and grocery list as a Ghost post.
func (a *App) Publish(ctx context.Context, userID string, publish bool) (*ghost.Post, error) {
	if a.ghostClient == nil {
		return nil, ErrPublishingDisabled
	}
	start := time.Now()
	plan, err := a.Plan(ctx, userID)
	if err != nil {
		return nil, err
	}
	list, err := a.Grocery(ctx, userID, false)
	if err != nil {
		return nil, err
	}

	html := ghost.FormatPlanHTML(plan, list, a.categorizer)
	post, err := a.ghostClient.CreatePost(ctx, ghost.PostTitle(plan), html, publish)
	if err != nil {
		return nil, fmt.Errorf("failed to publish plan: %w", err)
	}
	a.record(ctx, metrics.Since(metrics.OpPublish, start, 0, 0, list.TotalCost))
	return post, nil
}

// DailyUsage summarizes recorded operations for the last days.
func (a *App) DailyUsage(ctx context.Context, days int) ([]metrics.DailyUsage, error) {
	if a.metricsStore == nil {
		return nil, nil
	}
	return a.metricsStore.GetDailyUsage(ctx, days)
}

// CleanupMetrics removes recorded operations older than days.
func (a *App) CleanupMetrics(ctx context.Context, days int) (int64, error) {
	if a.metricsStore == nil {
		return 0, nil
	}
	return a.metricsStore.Cleanup(ctx, days)
}

// Health reports runtime memory stats and the data directory size.
func (a *App) Health() metrics.SysHealth {
	return metrics.GetSysHealth(a.cfg.DataDir)
}

func (a *App) record(ctx context.Context, m metrics.ExecutionMetric) {
	if a.collector != nil {
		a.collector.Observe(m)
	}
	if a.metricsStore == nil {
		return
	}
	if err := a.metricsStore.Record(ctx, m); err != nil {
		log.Printf("Warning: failed to record metrics for %s: %v", m.Operation, err)
	}
}

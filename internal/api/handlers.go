package api

import (
	"time"

	"smartmeal/internal/app"
	"smartmeal/internal/planner"
	"smartmeal/internal/shopping"
	"smartmeal/internal/tracking"

	"github.com/gofiber/fiber/v2"
)

// Handler serves the JSON API on top of an App.
type Handler struct {
	app *app.App
}

type slotRequest struct {
	Day    int    `json:"day"`
	Meal   int    `json:"meal"`
	MealID string `json:"mealId"`
}

// HandleHealth reports runtime stats.
// GET /health
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return success(c, h.app.Health())
}

// GET /api/profile
func (h *Handler) HandleGetProfile(c *fiber.Ctx) error {
	p, err := h.app.Profile(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return success(c, p)
}

// POST /api/profile
func (h *Handler) HandleSaveProfile(c *fiber.Ctx) error {
	var p planner.Profile
	if err := c.BodyParser(&p); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.app.SaveProfile(c.UserContext(), userID(c), p); err != nil {
		return err
	}
	return success(c, fiber.Map{"profile": p, "targets": p.Targets()})
}

// GET /api/targets
func (h *Handler) HandleGetTargets(c *fiber.Ctx) error {
	t, err := h.app.Targets(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return success(c, t)
}

// GET /api/plan
func (h *Handler) HandleGetPlan(c *fiber.Ctx) error {
	plan, err := h.app.Plan(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return success(c, plan)
}

// POST /api/plan
func (h *Handler) HandleGeneratePlan(c *fiber.Ctx) error {
	plan, err := h.app.GeneratePlan(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "success", "data": plan})
}

// GET /api/plan/alternates?day=0&meal=1
func (h *Handler) HandleGetAlternates(c *fiber.Ctx) error {
	meals, err := h.app.Alternates(c.UserContext(), userID(c), c.QueryInt("day", -1), c.QueryInt("meal", -1))
	if err != nil {
		return err
	}
	return success(c, meals)
}

// POST /api/plan/swap
func (h *Handler) HandleSwap(c *fiber.Ctx) error {
	var req slotRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	plan, err := h.app.Swap(c.UserContext(), userID(c), req.Day, req.Meal)
	if err != nil {
		return err
	}
	return success(c, plan)
}

// POST /api/plan/swap-with
func (h *Handler) HandleSwapWith(c *fiber.Ctx) error {
	var req slotRequest
	if err := c.BodyParser(&req); err != nil || req.MealID == "" {
		return fail(c, fiber.StatusBadRequest, "mealId is required")
	}
	plan, err := h.app.SwapWith(c.UserContext(), userID(c), req.Day, req.Meal, req.MealID)
	if err != nil {
		return err
	}
	return success(c, plan)
}

// POST /api/plan/regenerate
func (h *Handler) HandleRegenerateDay(c *fiber.Ctx) error {
	var req slotRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	plan, err := h.app.RegenerateDay(c.UserContext(), userID(c), req.Day)
	if err != nil {
		return err
	}
	return success(c, plan)
}

// POST /api/plan/replan
func (h *Handler) HandleReplan(c *fiber.Ctx) error {
	var req struct {
		Budget float64 `json:"budget"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fail(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}
	if req.Budget < 0 {
		return fail(c, fiber.StatusBadRequest, "budget must not be negative")
	}
	ctx := c.UserContext()
	if h.app.Budget(ctx, userID(c), req.Budget) <= 0 {
		return fail(c, fiber.StatusBadRequest, "no budget set")
	}
	res, err := h.app.Replan(ctx, userID(c), req.Budget)
	if err != nil {
		return err
	}
	return success(c, fiber.Map{"plan": res.Plan, "changed": res.Changed, "report": res.Report})
}

// GroceryResponse is a list with its category groups and, when a budget is
// known, how the total compares to it.
type GroceryResponse struct {
	shopping.List
	Groups []shopping.Group       `json:"groups"`
	Budget *shopping.BudgetStatus `json:"budget,omitempty"`
}

// GET /api/grocery?normalize=true
func (h *Handler) HandleGetGrocery(c *fiber.Ctx) error {
	ctx := c.UserContext()
	list, err := h.app.Grocery(ctx, userID(c), c.QueryBool("normalize", false))
	if err != nil {
		return err
	}
	resp := GroceryResponse{List: list, Groups: shopping.GroupItems(list.Items, h.app.Categorizer())}
	if budget := h.app.Budget(ctx, userID(c), c.QueryFloat("budget", 0)); budget > 0 {
		status := shopping.Budget(list.TotalCost, budget)
		resp.Budget = &status
	}
	return success(c, resp)
}

// POST /api/grocery
func (h *Handler) HandleSaveGrocery(c *fiber.Ctx) error {
	var req struct {
		Items []shopping.Item `json:"items"`
	}
	if err := c.BodyParser(&req); err != nil || len(req.Items) == 0 {
		return fail(c, fiber.StatusBadRequest, "items are required")
	}
	saved, err := h.app.SaveGrocery(c.UserContext(), userID(c), req.Items)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "success", "data": saved})
}

// GET /api/grocery/latest
func (h *Handler) HandleGetLatestGrocery(c *fiber.Ctx) error {
	latest, err := h.app.LatestGrocery(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	if latest == nil {
		return fail(c, fiber.StatusNotFound, "no grocery list saved")
	}
	return success(c, latest)
}

// GET /api/logs
func (h *Handler) HandleGetLogs(c *fiber.Ctx) error {
	logs, err := h.app.Tracker().Logs(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return success(c, logs)
}

type logRequest struct {
	Date   string `json:"date"`
	MealID string `json:"mealId"`
}

func (r logRequest) date() string {
	if r.Date == "" {
		return time.Now().Format(tracking.DateLayout)
	}
	return r.Date
}

// POST /api/logs
func (h *Handler) HandleLogMeal(c *fiber.Ctx) error {
	var req logRequest
	if err := c.BodyParser(&req); err != nil || req.MealID == "" {
		return fail(c, fiber.StatusBadRequest, "mealId is required")
	}
	meal, ok := h.app.Catalog().Get(req.MealID)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "unknown meal "+req.MealID)
	}
	day, err := h.app.Tracker().LogMeal(c.UserContext(), userID(c), req.date(), meal)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	return success(c, day)
}

// POST /api/logs/undo
func (h *Handler) HandleUndoLog(c *fiber.Ctx) error {
	var req logRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fail(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}
	day, undone, err := h.app.Tracker().Undo(c.UserContext(), userID(c), req.date())
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	return success(c, fiber.Map{"log": day, "undone": undone})
}

// POST /api/logs/import
func (h *Handler) HandleImportLogs(c *fiber.Ctx) error {
	var req struct {
		Logs []tracking.DayLog `json:"logs"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	n, err := h.app.Tracker().ImportLogs(c.UserContext(), userID(c), req.Logs)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	return success(c, fiber.Map{"imported": n})
}

// GET /api/favorites
func (h *Handler) HandleGetFavorites(c *fiber.Ctx) error {
	favs, err := h.app.Tracker().Favorites(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return success(c, favs)
}

// POST /api/favorites/:mealId
func (h *Handler) HandleToggleFavorite(c *fiber.Ctx) error {
	on, err := h.app.Tracker().ToggleFavorite(c.UserContext(), userID(c), c.Params("mealId"))
	if err != nil {
		return err
	}
	return success(c, fiber.Map{"mealId": c.Params("mealId"), "favorite": on})
}

// GET /api/ratings
func (h *Handler) HandleGetRatings(c *fiber.Ctx) error {
	ratings, err := h.app.Tracker().Ratings(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return success(c, ratings)
}

// POST /api/ratings/:mealId
func (h *Handler) HandleSetRating(c *fiber.Ctx) error {
	var req struct {
		Stars float64 `json:"stars"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	stars, err := h.app.Tracker().SetRating(c.UserContext(), userID(c), c.Params("mealId"), req.Stars)
	if err != nil {
		return err
	}
	return success(c, fiber.Map{"mealId": c.Params("mealId"), "stars": stars})
}

// GET /api/pantry
func (h *Handler) HandleGetPantry(c *fiber.Ctx) error {
	pantry, err := h.app.Tracker().Pantry(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return success(c, pantry)
}

// POST /api/pantry
func (h *Handler) HandleSetPantry(c *fiber.Ctx) error {
	var req struct {
		Ingredient string `json:"ingredient"`
		Owned      bool   `json:"owned"`
	}
	if err := c.BodyParser(&req); err != nil || req.Ingredient == "" {
		return fail(c, fiber.StatusBadRequest, "ingredient is required")
	}
	if err := h.app.Tracker().SetOwned(c.UserContext(), userID(c), req.Ingredient, req.Owned); err != nil {
		return err
	}
	return success(c, req)
}

// GET /api/meals?preference=vegan
func (h *Handler) HandleListMeals(c *fiber.Ctx) error {
	meals := h.app.Catalog().Meals()
	if pref := c.Query("preference"); pref != "" {
		meals = planner.FilterMeals(meals, planner.Preference(pref))
	}
	return success(c, meals)
}

// GET /api/meals/:mealId/substitutions
func (h *Handler) HandleGetSubstitutions(c *fiber.Ctx) error {
	subs, err := h.app.Substitutions(c.Params("mealId"))
	if err != nil {
		return err
	}
	return success(c, subs)
}

// POST /api/clip
func (h *Handler) HandleClip(c *fiber.Ctx) error {
	var req struct {
		URL string `json:"url"`
	}
	if err := c.BodyParser(&req); err != nil || req.URL == "" {
		return fail(c, fiber.StatusBadRequest, "url is required")
	}
	res, err := h.app.Clip(c.UserContext(), req.URL)
	if err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "success", "data": res})
}

// POST /api/publish
func (h *Handler) HandlePublish(c *fiber.Ctx) error {
	var req struct {
		Publish bool `json:"publish"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fail(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}
	post, err := h.app.Publish(c.UserContext(), userID(c), req.Publish)
	if err != nil {
		return err
	}
	return success(c, post)
}

// GET /api/usage?days=7
func (h *Handler) HandleGetUsage(c *fiber.Ctx) error {
	usage, err := h.app.DailyUsage(c.UserContext(), c.QueryInt("days", 7))
	if err != nil {
		return err
	}
	return success(c, usage)
}

package api

import (
	"errors"
	"log"

	"smartmeal/internal/app"
	"smartmeal/internal/planner"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UserHeader carries the caller's user id. Requests without it act on
// DefaultUser.
const (
	UserHeader  = "X-User-ID"
	DefaultUser = "default_user"
)

// New builds the fiber app serving the JSON API. gatherer backs /metrics and
// may be nil.
func New(a *app.App, gatherer prometheus.Gatherer) *fiber.App {
	server := fiber.New(fiber.Config{
		AppName:      "smartmeal",
		ErrorHandler: errorHandler,
	})
	server.Use(cors.New())

	SetupRoutes(server, &Handler{app: a})

	if gatherer != nil {
		server.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return server
}

// SetupRoutes defines all the routes for the application.
func SetupRoutes(server *fiber.App, h *Handler) {
	server.Get("/health", h.HandleHealth)

	api := server.Group("/api")

	api.Get("/profile", h.HandleGetProfile)
	api.Post("/profile", h.HandleSaveProfile)
	api.Get("/targets", h.HandleGetTargets)

	plan := api.Group("/plan")
	plan.Get("/", h.HandleGetPlan)
	plan.Post("/", h.HandleGeneratePlan)
	plan.Get("/alternates", h.HandleGetAlternates)
	plan.Post("/swap", h.HandleSwap)
	plan.Post("/swap-with", h.HandleSwapWith)
	plan.Post("/regenerate", h.HandleRegenerateDay)
	plan.Post("/replan", h.HandleReplan)

	api.Get("/grocery", h.HandleGetGrocery)
	api.Post("/grocery", h.HandleSaveGrocery)
	api.Get("/grocery/latest", h.HandleGetLatestGrocery)

	api.Get("/logs", h.HandleGetLogs)
	api.Post("/logs", h.HandleLogMeal)
	api.Post("/logs/undo", h.HandleUndoLog)
	api.Post("/logs/import", h.HandleImportLogs)

	api.Get("/favorites", h.HandleGetFavorites)
	api.Post("/favorites/:mealId", h.HandleToggleFavorite)
	api.Get("/ratings", h.HandleGetRatings)
	api.Post("/ratings/:mealId", h.HandleSetRating)
	api.Get("/pantry", h.HandleGetPantry)
	api.Post("/pantry", h.HandleSetPantry)

	api.Get("/meals", h.HandleListMeals)
	api.Get("/meals/:mealId/substitutions", h.HandleGetSubstitutions)
	api.Post("/clip", h.HandleClip)
	api.Post("/publish", h.HandlePublish)
	api.Get("/usage", h.HandleGetUsage)
}

func userID(c *fiber.Ctx) string {
	if id := c.Get(UserHeader); id != "" {
		return id
	}
	return DefaultUser
}

func success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{"status": "success", "data": data})
}

func fail(c *fiber.Ctx, code int, message string) error {
	return c.Status(code).JSON(fiber.Map{"status": "error", "message": message})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrNoProfile), errors.Is(err, app.ErrNoPlan):
		return fiber.StatusNotFound
	case errors.Is(err, planner.ErrInvalidProfile),
		errors.Is(err, planner.ErrSlotOutOfRange),
		errors.Is(err, planner.ErrUnknownMeal):
		return fiber.StatusBadRequest
	case errors.Is(err, app.ErrPublishingDisabled):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, planner.ErrEmptyCatalog):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fail(c, fe.Code, fe.Message)
	}
	code := statusFor(err)
	if code == fiber.StatusInternalServerError {
		log.Printf("Error handling %s %s: %v", c.Method(), c.Path(), err)
	}
	return fail(c, code, err.Error())
}

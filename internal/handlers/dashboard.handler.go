package handlers

import (
	"hostly/internal/app"
	dashboardController "hostly/internal/controllers/dashboard"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	Handler
	dashboardController dashboardController.DashboardControllerInterface
}

func NewDashboardHandler(app app.App, router fiber.Router) *DashboardHandler {
	return &DashboardHandler{
		Handler:             newHandler(app, router, "dashboard_handler"),
		dashboardController: app.Controllers.Dashboard,
	}
}

func (h *DashboardHandler) Register() {
	h.router.Get("/dashboard/stats", h.middleware.RequireAuth(), h.getStats)
	h.router.Get("/currency/rates", h.middleware.RequireAuth(), h.getRates)
}

func (h *DashboardHandler) getStats(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("getStats")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}

	var req dashboardController.StatsRequest
	if err := parseQuery(c, &req); err != nil {
		return respondError(c, log, err, "")
	}

	stats, err := h.dashboardController.Stats(c.UserContext(), user, &req)
	if err != nil {
		return respondError(c, log, err, "Failed to load dashboard")
	}

	return c.JSON(stats)
}

func (h *DashboardHandler) getRates(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("getRates")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}

	var req dashboardController.RatesRequest
	if err := parseQuery(c, &req); err != nil {
		return respondError(c, log, err, "")
	}

	rates, err := h.dashboardController.Rates(c.UserContext(), user, &req)
	if err != nil {
		return respondError(c, log, err, "Failed to load exchange rates")
	}

	return c.JSON(rates)
}

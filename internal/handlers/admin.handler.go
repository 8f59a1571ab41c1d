package handlers

import (
	"hostly/internal/app"
	adminController "hostly/internal/controllers/admin"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Handler
	adminController adminController.AdminControllerInterface
}

func NewAdminHandler(app app.App, router fiber.Router) *AdminHandler {
	return &AdminHandler{
		Handler:         newHandler(app, router, "admin_handler"),
		adminController: app.Controllers.Admin,
	}
}

func (h *AdminHandler) Register() {
	admin := h.router.Group("/admin", h.middleware.RequireAuth(), h.middleware.RequireAdmin())

	admin.Get("/scheduler", h.getSchedulerStatus)
	admin.Post("/jobs/:name/trigger", h.triggerJob)
}

func (h *AdminHandler) getSchedulerStatus(c *fiber.Ctx) error {
	return c.JSON(h.adminController.SchedulerStatus(c.UserContext()))
}

func (h *AdminHandler) triggerJob(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("triggerJob")

	response, err := h.adminController.TriggerJob(c.UserContext(), c.Params("name"))
	if err != nil {
		return respondError(c, log, err, "Failed to trigger job")
	}

	return c.Status(fiber.StatusAccepted).JSON(response)
}

package handlers

import (
	"fmt"

	"hostly/internal/app"
	calendarController "hostly/internal/controllers/calendar"
	"hostly/internal/types"

	"github.com/gofiber/fiber/v2"
)

type CalendarHandler struct {
	Handler
	calendarController calendarController.CalendarControllerInterface
}

func NewCalendarHandler(app app.App, router fiber.Router) *CalendarHandler {
	return &CalendarHandler{
		Handler:            newHandler(app, router, "calendar_handler"),
		calendarController: app.Controllers.Calendar,
	}
}

func (h *CalendarHandler) Register() {
	calendar := h.router.Group("/calendar")

	calendar.Post("/sync", h.middleware.RequireAuth(), h.syncAll)
	calendar.Post("/sync/:configId", h.middleware.RequireAuth(), h.syncConfig)

	// Export is fetched by the booking platforms, which authenticate with the
	// token embedded in the URL.
	calendar.Get("/export/:propertyId.ics", h.exportCalendar)
}

func (h *CalendarHandler) syncAll(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("syncAll")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}

	var req calendarController.SyncRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return respondError(c, log, err, "")
		}
	}
	if req.PropertyID == nil {
		req.PropertyID, err = types.ParseOptionalUUID(c.Query("propertyId"), "propertyId")
		if err != nil {
			return respondError(c, log, err, "")
		}
	}

	response, err := h.calendarController.SyncAll(c.UserContext(), user, &req)
	if err != nil {
		return respondError(c, log, err, "Failed to sync calendars")
	}

	return c.JSON(response)
}

func (h *CalendarHandler) syncConfig(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("syncConfig")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}
	configID, err := paramID(c, "configId")
	if err != nil {
		return respondError(c, log, err, "")
	}

	result, err := h.calendarController.SyncConfig(c.UserContext(), user, configID)
	if err != nil {
		return respondError(c, log, err, "Failed to sync calendar")
	}

	return c.JSON(result)
}

func (h *CalendarHandler) exportCalendar(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("exportCalendar")

	propertyID, err := paramID(c, "propertyId")
	if err != nil {
		return respondError(c, log, calendarController.ErrCalendarNotFound, "")
	}

	exported, err := h.calendarController.Export(c.UserContext(), propertyID, c.Query("token"))
	if err != nil {
		return respondError(c, log, err, "Failed to export calendar")
	}

	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", exported.Filename))
	c.Set(fiber.HeaderCacheControl, "no-cache")
	return c.SendString(exported.Body)
}

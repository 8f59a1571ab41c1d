package handlers

import (
	"hostly/internal/app"
	emailController "hostly/internal/controllers/emails"
	"hostly/internal/types"

	"github.com/gofiber/fiber/v2"
)

type EmailHandler struct {
	Handler
	emailController emailController.EmailControllerInterface
}

func NewEmailHandler(app app.App, router fiber.Router) *EmailHandler {
	return &EmailHandler{
		Handler:         newHandler(app, router, "email_handler"),
		emailController: app.Controllers.Email,
	}
}

func (h *EmailHandler) Register() {
	emails := h.router.Group("/emails", h.middleware.RequireAuth())

	emails.Post("/cleaning/:cleaningId", h.sendCleaningEmail)
	emails.Post("/guest", h.sendGuestEmail)
	emails.Get("/cleaning-logs", h.listCleaningLogs)
}

func (h *EmailHandler) sendCleaningEmail(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("sendCleaningEmail")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}
	cleaningID, err := paramID(c, "cleaningId")
	if err != nil {
		return respondError(c, log, err, "")
	}

	entry, err := h.emailController.SendCleaningEmail(c.UserContext(), user, cleaningID)
	if err != nil {
		if entry != nil {
			return c.Status(errorStatus(err)).JSON(fiber.Map{
				"error": types.PublicMessage(err, "Failed to send cleaning email"),
				"log":   entry,
			})
		}
		return respondError(c, log, err, "Failed to send cleaning email")
	}

	return c.JSON(fiber.Map{"log": entry})
}

func (h *EmailHandler) sendGuestEmail(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("sendGuestEmail")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}

	var req emailController.GuestEmailRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, log, err, "")
	}

	response, err := h.emailController.SendGuestEmail(c.UserContext(), user, &req)
	if err != nil {
		return respondError(c, log, err, "Failed to send guest email")
	}

	return c.JSON(response)
}

func (h *EmailHandler) listCleaningLogs(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("listCleaningLogs")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}

	cleaningID, err := types.ParseOptionalUUID(c.Query("cleaningId"), "cleaningId")
	if err != nil {
		return respondError(c, log, err, "")
	}

	logs, err := h.emailController.ListCleaningLogs(c.UserContext(), user, cleaningID)
	if err != nil {
		return respondError(c, log, err, "Failed to retrieve email logs")
	}

	return c.JSON(fiber.Map{"logs": logs})
}

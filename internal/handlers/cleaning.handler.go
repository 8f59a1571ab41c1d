package handlers

import (
	"hostly/internal/app"
	cleaningController "hostly/internal/controllers/cleanings"

	"github.com/gofiber/fiber/v2"
)

type CleaningHandler struct {
	Handler
	cleaningController cleaningController.CleaningControllerInterface
}

func NewCleaningHandler(app app.App, router fiber.Router) *CleaningHandler {
	return &CleaningHandler{
		Handler:            newHandler(app, router, "cleaning_handler"),
		cleaningController: app.Controllers.Cleaning,
	}
}

func (h *CleaningHandler) Register() {
	cleanings := h.router.Group("/cleanings", h.middleware.RequireAuth())

	cleanings.Get("", h.listCleanings)
	cleanings.Post("", h.createCleaning)
	cleanings.Get("/:id", h.getCleaning)
	cleanings.Put("/:id", h.updateCleaning)
	cleanings.Delete("/:id", h.deleteCleaning)
	cleanings.Post("/:id/complete", h.completeCleaning)
}

func (h *CleaningHandler) listCleanings(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("listCleanings")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}

	var req cleaningController.ListCleaningsRequest
	if err := parseQuery(c, &req); err != nil {
		return respondError(c, log, err, "")
	}

	cleanings, err := h.cleaningController.List(c.UserContext(), user, &req)
	if err != nil {
		return respondError(c, log, err, "Failed to retrieve cleanings")
	}

	return c.JSON(fiber.Map{"cleanings": cleanings})
}

func (h *CleaningHandler) getCleaning(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("getCleaning")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err, "")
	}

	cleaning, err := h.cleaningController.Get(c.UserContext(), user, id)
	if err != nil {
		return respondError(c, log, err, "Failed to retrieve cleaning")
	}

	return c.JSON(fiber.Map{"cleaning": cleaning})
}

func (h *CleaningHandler) createCleaning(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("createCleaning")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}

	var req cleaningController.CreateCleaningRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, log, err, "")
	}

	cleaning, err := h.cleaningController.Create(c.UserContext(), user, &req)
	if err != nil {
		return respondError(c, log, err, "Failed to create cleaning")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"cleaning": cleaning})
}

func (h *CleaningHandler) updateCleaning(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("updateCleaning")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err, "")
	}

	var req cleaningController.UpdateCleaningRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, log, err, "")
	}

	cleaning, err := h.cleaningController.Update(c.UserContext(), user, id, &req)
	if err != nil {
		return respondError(c, log, err, "Failed to update cleaning")
	}

	return c.JSON(fiber.Map{"cleaning": cleaning})
}

func (h *CleaningHandler) deleteCleaning(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("deleteCleaning")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err, "")
	}

	if err := h.cleaningController.Delete(c.UserContext(), user, id); err != nil {
		return respondError(c, log, err, "Failed to delete cleaning")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CleaningHandler) completeCleaning(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("completeCleaning")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err, "")
	}

	cleaning, err := h.cleaningController.Complete(c.UserContext(), user, id)
	if err != nil {
		return respondError(c, log, err, "Failed to complete cleaning")
	}

	return c.JSON(fiber.Map{"cleaning": cleaning})
}

package handlers

import (
	"hostly/internal/app"
	propertyController "hostly/internal/controllers/properties"

	"github.com/gofiber/fiber/v2"
)

type PropertyHandler struct {
	Handler
	propertyController propertyController.PropertyControllerInterface
}

func NewPropertyHandler(app app.App, router fiber.Router) *PropertyHandler {
	return &PropertyHandler{
		Handler:            newHandler(app, router, "property_handler"),
		propertyController: app.Controllers.Property,
	}
}

func (h *PropertyHandler) Register() {
	properties := h.router.Group("/properties", h.middleware.RequireAuth())

	properties.Get("", h.listProperties)
	properties.Post("", h.createProperty)
	properties.Get("/:id", h.getProperty)
	properties.Put("/:id", h.updateProperty)
	properties.Delete("/:id", h.deleteProperty)
	properties.Post("/:id/export-token", h.rotateExportToken)
}

func (h *PropertyHandler) listProperties(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("listProperties")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}

	properties, err := h.propertyController.List(c.UserContext(), user)
	if err != nil {
		return respondError(c, log, err, "Failed to retrieve properties")
	}

	return c.JSON(fiber.Map{"properties": properties})
}

func (h *PropertyHandler) getProperty(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("getProperty")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err, "")
	}

	property, err := h.propertyController.Get(c.UserContext(), user, id)
	if err != nil {
		return respondError(c, log, err, "Failed to retrieve property")
	}

	return c.JSON(fiber.Map{"property": property})
}

func (h *PropertyHandler) createProperty(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("createProperty")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}

	var req propertyController.CreatePropertyRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, log, err, "")
	}

	property, err := h.propertyController.Create(c.UserContext(), user, &req)
	if err != nil {
		return respondError(c, log, err, "Failed to create property")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"property": property})
}

func (h *PropertyHandler) updateProperty(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("updateProperty")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err, "")
	}

	var req propertyController.UpdatePropertyRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, log, err, "")
	}

	property, err := h.propertyController.Update(c.UserContext(), user, id, &req)
	if err != nil {
		return respondError(c, log, err, "Failed to update property")
	}

	return c.JSON(fiber.Map{"property": property})
}

func (h *PropertyHandler) deleteProperty(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("deleteProperty")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err, "")
	}

	force := c.QueryBool("force", false)
	if err := h.propertyController.Delete(c.UserContext(), user, id, force); err != nil {
		return respondError(c, log, err, "Failed to delete property")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PropertyHandler) rotateExportToken(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("rotateExportToken")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err, "")
	}

	response, err := h.propertyController.RotateExportToken(c.UserContext(), user, id)
	if err != nil {
		return respondError(c, log, err, "Failed to rotate export token")
	}

	return c.JSON(response)
}

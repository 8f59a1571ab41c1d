package handlers

import (
	"errors"

	"hostly/internal/handlers/middleware"
	"hostly/internal/models"
	"hostly/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var errUnauthenticated = errors.New("authentication required")

func errorStatus(err error) int {
	switch {
	case errors.Is(err, errUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, types.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, types.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, types.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, types.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, types.ErrGone):
		return fiber.StatusGone
	case errors.Is(err, types.ErrUpstream):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes {"error": message}. Only kind errors expose their
// message; anything else is logged and answered with fallback.
func respondError(c *fiber.Ctx, log logger.Logger, err error, fallback string) error {
	status := errorStatus(err)
	if status == fiber.StatusUnauthorized {
		return c.Status(status).JSON(fiber.Map{"error": "Authentication required"})
	}
	if status >= fiber.StatusInternalServerError {
		log.Er(fallback, err, "path", c.Path())
	}
	return c.Status(status).JSON(fiber.Map{
		"error": types.PublicMessage(err, fallback),
	})
}

func currentUser(c *fiber.Ctx) (*models.UserProfile, error) {
	user := middleware.GetUser(c)
	if user == nil {
		return nil, errUnauthenticated
	}
	return user, nil
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, types.Invalidf("%s must be a valid id", name)
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return types.Invalidf("Invalid request body")
	}
	return nil
}

func parseQuery(c *fiber.Ctx, out any) error {
	if err := c.QueryParser(out); err != nil {
		return types.Invalidf("Invalid query parameters")
	}
	return nil
}

package handlers

import (
	"hostly/internal/app"
	userController "hostly/internal/controllers/users"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	Handler
	userController userController.UserControllerInterface
}

func NewUserHandler(app app.App, router fiber.Router) *UserHandler {
	return &UserHandler{
		Handler:        newHandler(app, router, "user_handler"),
		userController: app.Controllers.User,
	}
}

func (h *UserHandler) Register() {
	users := h.router.Group("/users", h.middleware.RequireAuth())
	users.Get("/me", h.getCurrentUser)
	users.Put("/me", h.updateCurrentUser)
}

func (h *UserHandler) getCurrentUser(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("getCurrentUser")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}

	profile, err := h.userController.GetProfile(c.UserContext(), user)
	if err != nil {
		return respondError(c, log, err, "Failed to load profile")
	}

	return c.JSON(fiber.Map{"user": profile})
}

func (h *UserHandler) updateCurrentUser(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("updateCurrentUser")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}

	var req userController.UpdateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, log, err, "")
	}

	profile, err := h.userController.UpdateProfile(c.UserContext(), user, &req)
	if err != nil {
		return respondError(c, log, err, "Failed to update profile")
	}

	return c.JSON(fiber.Map{"user": profile})
}

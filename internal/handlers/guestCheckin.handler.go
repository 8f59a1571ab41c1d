package handlers

import (
	"time"

	"hostly/internal/app"
	guestCheckinController "hostly/internal/controllers/guestCheckin"
	"hostly/internal/database"
	"hostly/internal/types"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

const (
	GUEST_RATE_LIMIT_MAX    = 20
	GUEST_RATE_LIMIT_WINDOW = time.Minute
)

type GuestCheckinHandler struct {
	Handler
	guestCheckinController guestCheckinController.GuestCheckinControllerInterface
	rateLimit              fiber.Handler
}

func NewGuestCheckinHandler(app app.App, router fiber.Router) *GuestCheckinHandler {
	return &GuestCheckinHandler{
		Handler:                newHandler(app, router, "guest_checkin_handler"),
		guestCheckinController: app.Controllers.GuestCheckin,
		rateLimit:              guestRateLimiter(app.Database),
	}
}

// guestRateLimiter keys on client IP. Counters live in valkey when a session
// cache is configured so every instance shares them.
func guestRateLimiter(db database.DB) fiber.Handler {
	config := limiter.Config{
		Max:        GUEST_RATE_LIMIT_MAX,
		Expiration: GUEST_RATE_LIMIT_WINDOW,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "guest-checkin:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later",
			})
		},
	}
	if db.Cache.Session != nil {
		config.Storage = database.NewLimiterStorage(db.Cache.Session)
	}
	return limiter.New(config)
}

func (h *GuestCheckinHandler) Register() {
	checkin := h.router.Group("/guest-checkin")

	// Owner routes are registered first so their static segments win over
	// the public :token routes.
	checkin.Post("/generate", h.middleware.RequireAuth(), h.generateToken)
	checkin.Get("/tokens", h.middleware.RequireAuth(), h.listTokens)
	checkin.Delete("/tokens/:id", h.middleware.RequireAuth(), h.revokeToken)

	checkin.Get("/:token", h.rateLimit, h.validateToken)
	checkin.Post("/:token", h.rateLimit, h.submitCheckin)
}

func (h *GuestCheckinHandler) generateToken(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("generateToken")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}

	var req guestCheckinController.GenerateTokenRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, log, err, "")
	}

	response, err := h.guestCheckinController.Generate(c.UserContext(), user, &req)
	if err != nil {
		return respondError(c, log, err, "Failed to create check-in link")
	}

	return c.Status(fiber.StatusCreated).JSON(response)
}

func (h *GuestCheckinHandler) listTokens(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("listTokens")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}

	bookingID, err := types.ParseOptionalUUID(c.Query("bookingId"), "bookingId")
	if err != nil {
		return respondError(c, log, err, "")
	}
	if bookingID == nil {
		return respondError(c, log, types.Invalidf("bookingId is required"), "")
	}

	tokens, err := h.guestCheckinController.ListTokens(c.UserContext(), user, *bookingID)
	if err != nil {
		return respondError(c, log, err, "Failed to retrieve check-in links")
	}

	return c.JSON(fiber.Map{"tokens": tokens})
}

func (h *GuestCheckinHandler) revokeToken(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("revokeToken")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err, "")
	}

	if err := h.guestCheckinController.Revoke(c.UserContext(), user, id); err != nil {
		return respondError(c, log, err, "Failed to revoke check-in link")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *GuestCheckinHandler) validateToken(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("validateToken")

	summary, err := h.guestCheckinController.Validate(c.UserContext(), c.Params("token"))
	if err != nil {
		return respondError(c, log, err, "Failed to load check-in")
	}

	return c.JSON(summary)
}

func (h *GuestCheckinHandler) submitCheckin(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("submitCheckin")

	var req guestCheckinController.SubmitCheckinRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, log, err, "")
	}

	summary, err := h.guestCheckinController.Submit(c.UserContext(), c.Params("token"), &req)
	if err != nil {
		return respondError(c, log, err, "Failed to submit check-in")
	}

	return c.JSON(summary)
}

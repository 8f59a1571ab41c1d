package handlers

import (
	"hostly/internal/app"
	bookingController "hostly/internal/controllers/bookings"

	"github.com/gofiber/fiber/v2"
)

type BookingHandler struct {
	Handler
	bookingController bookingController.BookingControllerInterface
}

func NewBookingHandler(app app.App, router fiber.Router) *BookingHandler {
	return &BookingHandler{
		Handler:           newHandler(app, router, "booking_handler"),
		bookingController: app.Controllers.Booking,
	}
}

func (h *BookingHandler) Register() {
	bookings := h.router.Group("/bookings", h.middleware.RequireAuth())

	bookings.Get("", h.listBookings)
	bookings.Post("", h.createBooking)
	bookings.Get("/:id", h.getBooking)
	bookings.Put("/:id", h.updateBooking)
	bookings.Delete("/:id", h.deleteBooking)
}

func (h *BookingHandler) listBookings(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("listBookings")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}

	var req bookingController.ListBookingsRequest
	if err := parseQuery(c, &req); err != nil {
		return respondError(c, log, err, "")
	}

	response, err := h.bookingController.List(c.UserContext(), user, &req)
	if err != nil {
		return respondError(c, log, err, "Failed to retrieve bookings")
	}

	return c.JSON(response)
}

func (h *BookingHandler) getBooking(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("getBooking")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err, "")
	}

	booking, err := h.bookingController.Get(c.UserContext(), user, id)
	if err != nil {
		return respondError(c, log, err, "Failed to retrieve booking")
	}

	return c.JSON(fiber.Map{"booking": booking})
}

func (h *BookingHandler) createBooking(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("createBooking")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}

	var req bookingController.CreateBookingRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, log, err, "")
	}

	booking, err := h.bookingController.Create(c.UserContext(), user, &req)
	if err != nil {
		return respondError(c, log, err, "Failed to create booking")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"booking": booking})
}

func (h *BookingHandler) updateBooking(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("updateBooking")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err, "")
	}

	var req bookingController.UpdateBookingRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, log, err, "")
	}

	booking, err := h.bookingController.Update(c.UserContext(), user, id, &req)
	if err != nil {
		return respondError(c, log, err, "Failed to update booking")
	}

	return c.JSON(fiber.Map{"booking": booking})
}

func (h *BookingHandler) deleteBooking(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("deleteBooking")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err, "")
	}

	if err := h.bookingController.Delete(c.UserContext(), user, id); err != nil {
		return respondError(c, log, err, "Failed to delete booking")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

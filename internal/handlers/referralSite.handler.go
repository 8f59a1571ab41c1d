package handlers

import (
	"hostly/internal/app"
	referralSiteController "hostly/internal/controllers/referralSites"

	"github.com/gofiber/fiber/v2"
)

type ReferralSiteHandler struct {
	Handler
	referralSiteController referralSiteController.ReferralSiteControllerInterface
}

func NewReferralSiteHandler(app app.App, router fiber.Router) *ReferralSiteHandler {
	return &ReferralSiteHandler{
		Handler:                newHandler(app, router, "referral_site_handler"),
		referralSiteController: app.Controllers.ReferralSite,
	}
}

func (h *ReferralSiteHandler) Register() {
	sites := h.router.Group("/referral-sites", h.middleware.RequireAuth())

	sites.Get("", h.listReferralSites)
	sites.Post("", h.saveReferralSite)
	sites.Delete("/:id", h.deleteReferralSite)
}

func (h *ReferralSiteHandler) listReferralSites(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("listReferralSites")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}

	sites, err := h.referralSiteController.List(c.UserContext(), user)
	if err != nil {
		return respondError(c, log, err, "Failed to retrieve referral sites")
	}

	return c.JSON(fiber.Map{"referralSites": sites})
}

func (h *ReferralSiteHandler) saveReferralSite(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("saveReferralSite")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}

	var req referralSiteController.SaveReferralSiteRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, log, err, "")
	}

	site, err := h.referralSiteController.Save(c.UserContext(), user, &req)
	if err != nil {
		return respondError(c, log, err, "Failed to save referral site")
	}

	return c.JSON(fiber.Map{"referralSite": site})
}

func (h *ReferralSiteHandler) deleteReferralSite(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("deleteReferralSite")

	user, err := currentUser(c)
	if err != nil {
		return respondError(c, log, err, "")
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err, "")
	}

	if err := h.referralSiteController.Delete(c.UserContext(), user, id); err != nil {
		return respondError(c, log, err, "Failed to delete referral site")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

package guestCheckinController

import (
	"context"
	"errors"
	"strings"
	"time"

	"hostly/config"
	"hostly/internal/database"
	. "hostly/internal/models"
	"hostly/internal/repositories"
	"hostly/internal/services"
	"hostly/internal/types"
	"hostly/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const MAX_TOKEN_TTL_HOURS = 30 * 24

var (
	ErrBookingNotFound  = types.NotFound("booking not found")
	ErrTokenNotFound    = types.NotFound("check-in link not found")
	ErrTokenUnavailable = types.Gone("check-in link has expired or was revoked")
	ErrBookingCancelled = types.Invalidf("cannot create a check-in link for a cancelled booking")
	ErrTooManyGuests    = types.Invalidf("numGuests exceeds the property's maximum")
)

type GenerateTokenRequest struct {
	BookingID      uuid.UUID `json:"bookingId"      validate:"required"`
	ExpiresInHours int       `json:"expiresInHours" validate:"omitempty,min=1,max=720"`
}

// GenerateTokenResponse is the only place the plain token is ever returned.
type GenerateTokenResponse struct {
	ID        uuid.UUID `json:"id"`
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type SubmitCheckinRequest struct {
	GuestName   string `json:"guestName"   validate:"required,max=120"`
	GuestEmail  string `json:"guestEmail"  validate:"omitempty,email"`
	GuestPhone  string `json:"guestPhone"  validate:"max=40"`
	NumGuests   int    `json:"numGuests"   validate:"omitempty,min=1"`
	ArrivalTime string `json:"arrivalTime" validate:"omitempty,clocktime"`
}

type PropertySummary struct {
	Name         string `json:"name"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Country      string `json:"country"`
	CheckInTime  string `json:"checkInTime"`
	CheckOutTime string `json:"checkOutTime"`
	MaxGuests    int    `json:"maxGuests"`
}

// CheckinSummary is what a guest holding a valid link may see.
type CheckinSummary struct {
	BookingID   uuid.UUID       `json:"bookingId"`
	GuestName   string          `json:"guestName"`
	GuestEmail  string          `json:"guestEmail"`
	NumGuests   int             `json:"numGuests"`
	CheckIn     string          `json:"checkIn"`
	CheckOut    string          `json:"checkOut"`
	ArrivalTime string          `json:"arrivalTime"`
	CheckedInAt *time.Time      `json:"checkedInAt,omitempty"`
	ExpiresAt   time.Time       `json:"expiresAt"`
	Property    PropertySummary `json:"property"`
}

type GuestCheckinControllerInterface interface {
	Generate(ctx context.Context, user *UserProfile, request *GenerateTokenRequest) (*GenerateTokenResponse, error)
	Validate(ctx context.Context, token string) (*CheckinSummary, error)
	Submit(ctx context.Context, token string, request *SubmitCheckinRequest) (*CheckinSummary, error)
	Revoke(ctx context.Context, user *UserProfile, tokenID uuid.UUID) error
	ListTokens(ctx context.Context, user *UserProfile, bookingID uuid.UUID) ([]*GuestCheckinToken, error)
}

type GuestCheckinController struct {
	tokenRepo          repositories.GuestTokenRepository
	bookingRepo        repositories.BookingRepository
	transactionService *services.TransactionService
	db                 database.DB
	Config             config.Config
	log                logger.Logger
	now                func() time.Time
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) GuestCheckinControllerInterface {
	return &GuestCheckinController{
		tokenRepo:          repos.GuestToken,
		bookingRepo:        repos.Booking,
		transactionService: services.Transaction,
		db:                 db,
		Config:             config,
		log:                logger.New("guestCheckinController"),
		now:                time.Now,
	}
}

// Generate issues a check-in link for one of the user's bookings. Only the
// sha256 of the token is stored.
func (c *GuestCheckinController) Generate(
	ctx context.Context,
	user *UserProfile,
	request *GenerateTokenRequest,
) (*GenerateTokenResponse, error) {
	log := c.log.Function("Generate")

	if err := types.Validate(request); err != nil {
		return nil, err
	}

	booking, err := c.bookingRepo.GetByID(ctx, c.db.SQL, user.ID, request.BookingID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, log.Err("failed to load booking", err, "bookingID", request.BookingID)
	}
	if booking.Status == BookingStatusCancelled {
		return nil, ErrBookingCancelled
	}

	ttl := time.Duration(c.ttlHours(request.ExpiresInHours)) * time.Hour

	plain, err := utils.GenerateToken()
	if err != nil {
		return nil, log.Err("failed to generate guest token", err)
	}

	token := &GuestCheckinToken{
		UserID:    user.ID,
		BookingID: booking.ID,
		TokenHash: utils.HashToken(plain),
		ExpiresAt: c.now().UTC().Add(ttl),
	}
	if err := c.tokenRepo.Create(ctx, c.db.SQL, token); err != nil {
		return nil, log.Err("failed to store guest token", err, "bookingID", booking.ID)
	}

	log.Info("Guest check-in link created", "tokenID", token.ID, "bookingID", booking.ID, "userID", user.ID)
	return &GenerateTokenResponse{
		ID:        token.ID,
		Token:     plain,
		URL:       strings.TrimRight(c.Config.AppBaseURL, "/") + "/guest-checkin/" + plain,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

func (c *GuestCheckinController) ttlHours(requested int) int {
	if requested > 0 {
		return requested
	}
	if c.Config.GuestTokenTTLHours > 0 && c.Config.GuestTokenTTLHours <= MAX_TOKEN_TTL_HOURS {
		return c.Config.GuestTokenTTLHours
	}
	return config.DefaultGuestTokenTTLHours
}

// Validate resolves a plain token for the public check-in page.
func (c *GuestCheckinController) Validate(ctx context.Context, token string) (*CheckinSummary, error) {
	stored, err := c.lookup(ctx, c.db.SQL, token)
	if err != nil {
		return nil, err
	}
	return summarize(stored, stored.Booking), nil
}

// Submit records the guest's details on the booking and marks the link used.
// A link stays usable until it expires so guests can correct their details.
func (c *GuestCheckinController) Submit(
	ctx context.Context,
	token string,
	request *SubmitCheckinRequest,
) (*CheckinSummary, error) {
	log := c.log.Function("Submit")

	if err := types.Validate(request); err != nil {
		return nil, err
	}
	guestName := utils.SanitizeText(request.GuestName, 120)
	if guestName == "" {
		return nil, types.Invalidf("guestName is required")
	}

	var summary *CheckinSummary
	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		stored, err := c.lookup(ctx, tx, token)
		if err != nil {
			return err
		}
		booking := stored.Booking

		if booking.Property != nil && booking.Property.MaxGuests > 0 &&
			request.NumGuests > booking.Property.MaxGuests {
			return ErrTooManyGuests
		}

		now := c.now().UTC()
		updates := map[string]any{
			"guest_name":    guestName,
			"checked_in_at": now,
		}
		if email := strings.TrimSpace(request.GuestEmail); email != "" {
			updates["guest_email"] = email
		}
		if phone := strings.TrimSpace(request.GuestPhone); phone != "" {
			updates["guest_phone"] = phone
		}
		if request.NumGuests > 0 {
			updates["num_guests"] = request.NumGuests
		}
		if request.ArrivalTime != "" {
			updates["arrival_time"] = request.ArrivalTime
		}

		if err := c.bookingRepo.Update(ctx, tx, booking.UserID, booking.ID, updates); err != nil {
			return err
		}
		if err := c.tokenRepo.MarkUsed(ctx, tx, stored.ID, now); err != nil {
			return err
		}

		updated, err := c.bookingRepo.GetByID(ctx, tx, booking.UserID, booking.ID)
		if err != nil {
			return err
		}
		summary = summarize(stored, updated)
		return nil
	})
	if err != nil {
		if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrGone) ||
			errors.Is(err, types.ErrValidation) {
			return nil, err
		}
		return nil, log.Err("failed to record guest check-in", err)
	}

	log.Info("Guest check-in submitted", "bookingID", summary.BookingID)
	return summary, nil
}

func (c *GuestCheckinController) lookup(ctx context.Context, tx *gorm.DB, token string) (*GuestCheckinToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenNotFound
	}

	stored, err := c.tokenRepo.GetByHash(ctx, tx, utils.HashToken(token))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, c.log.Function("lookup").Err("failed to look up guest token", err)
	}
	if stored.Booking == nil {
		return nil, ErrTokenNotFound
	}
	if !stored.Usable(c.now()) || stored.Booking.Status == BookingStatusCancelled {
		return nil, ErrTokenUnavailable
	}
	return stored, nil
}

func summarize(token *GuestCheckinToken, booking *Booking) *CheckinSummary {
	summary := &CheckinSummary{
		BookingID:   booking.ID,
		GuestName:   booking.GuestName,
		GuestEmail:  booking.GuestEmail,
		NumGuests:   booking.NumGuests,
		CheckIn:     booking.CheckIn.Format(utils.DateLayout),
		CheckOut:    booking.CheckOut.Format(utils.DateLayout),
		ArrivalTime: booking.ArrivalTime,
		CheckedInAt: booking.CheckedInAt,
		ExpiresAt:   token.ExpiresAt,
	}
	if property := booking.Property; property != nil {
		summary.Property = PropertySummary{
			Name:         property.Name,
			Address:      property.Address,
			City:         property.City,
			Country:      property.Country,
			CheckInTime:  property.CheckInTime,
			CheckOutTime: property.CheckOutTime,
			MaxGuests:    property.MaxGuests,
		}
	}
	return summary
}

func (c *GuestCheckinController) Revoke(ctx context.Context, user *UserProfile, tokenID uuid.UUID) error {
	log := c.log.Function("Revoke")

	if err := c.tokenRepo.Revoke(ctx, c.db.SQL, user.ID, tokenID, c.now().UTC()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTokenNotFound
		}
		return log.Err("failed to revoke guest token", err, "tokenID", tokenID)
	}

	log.Info("Guest check-in link revoked", "tokenID", tokenID, "userID", user.ID)
	return nil
}

func (c *GuestCheckinController) ListTokens(
	ctx context.Context,
	user *UserProfile,
	bookingID uuid.UUID,
) ([]*GuestCheckinToken, error) {
	if bookingID == uuid.Nil {
		return nil, types.Invalidf("bookingId is required")
	}

	tokens, err := c.tokenRepo.ListByBooking(ctx, c.db.SQL, user.ID, bookingID)
	if err != nil {
		return nil, c.log.Function("ListTokens").Err("failed to list guest tokens", err, "bookingID", bookingID)
	}
	return tokens, nil
}

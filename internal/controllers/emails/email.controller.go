package emailController

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

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
)

// nextBookingWindow bounds the lookup of the stay following a cleaning.
const nextBookingWindow = 90 * 24 * time.Hour

var (
	ErrCleaningNotFound  = types.NotFound("cleaning not found")
	ErrBookingNotFound   = types.NotFound("booking not found")
	ErrNoCleanerEmail    = types.Invalidf("no cleaner email on the cleaning or its property")
	ErrNoGuestEmail      = types.Invalidf("the guest has no email address")
	ErrEmailNotDelivered = types.Upstream("the email provider did not accept the message")
)

type GuestEmailRequest struct {
	BookingID uuid.UUID `json:"bookingId" validate:"required"`
	Subject   string    `json:"subject"   validate:"required,max=200"`
	Message   string    `json:"message"   validate:"required,max=10000"`
}

type GuestEmailResponse struct {
	MessageID string `json:"messageId"`
	Recipient string `json:"recipient"`
}

type EmailControllerInterface interface {
	SendCleaningEmail(ctx context.Context, user *UserProfile, cleaningID uuid.UUID) (*CleaningEmailLog, error)
	SendGuestEmail(ctx context.Context, user *UserProfile, request *GuestEmailRequest) (*GuestEmailResponse, error)
	ListCleaningLogs(ctx context.Context, user *UserProfile, cleaningID *uuid.UUID) ([]*CleaningEmailLog, error)
}

type EmailController struct {
	cleaningRepo repositories.CleaningRepository
	bookingRepo  repositories.BookingRepository
	emailLogRepo repositories.CleaningEmailLogRepository
	emailService *services.EmailService
	db           database.DB
	Config       config.Config
	log          logger.Logger
	now          func() time.Time
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) EmailControllerInterface {
	return &EmailController{
		cleaningRepo: repos.Cleaning,
		bookingRepo:  repos.Booking,
		emailLogRepo: repos.CleaningEmailLog,
		emailService: services.Email,
		db:           db,
		Config:       config,
		log:          logger.New("emailController"),
		now:          time.Now,
	}
}

// SendCleaningEmail mails the cleaning schedule to the cleaner. Every attempt
// that reaches the provider is written to the email log, sent or failed.
func (c *EmailController) SendCleaningEmail(
	ctx context.Context,
	user *UserProfile,
	cleaningID uuid.UUID,
) (*CleaningEmailLog, error) {
	log := c.log.Function("SendCleaningEmail")

	cleaning, err := c.cleaningRepo.GetByID(ctx, c.db.SQL, user.ID, cleaningID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCleaningNotFound
		}
		return nil, log.Err("failed to load cleaning", err, "cleaningID", cleaningID)
	}
	if cleaning.Property == nil {
		return nil, ErrCleaningNotFound
	}

	recipient := strings.TrimSpace(cleaning.CleanerEmail)
	if recipient == "" {
		recipient = strings.TrimSpace(cleaning.Property.CleanerEmail)
	}
	if recipient == "" {
		return nil, ErrNoCleanerEmail
	}

	nextBooking, err := c.nextBooking(ctx, user, cleaning)
	if err != nil {
		log.Warn("failed to find the next booking", "cleaningID", cleaningID, "error", err)
	}

	messageID, subject, sendErr := c.emailService.SendCleaningSchedule(ctx, services.CleaningEmail{
		Cleaning:    cleaning,
		Property:    cleaning.Property,
		Booking:     cleaning.Booking,
		NextBooking: nextBooking,
		Recipient:   recipient,
		HostName:    hostName(user),
	})

	entry := &CleaningEmailLog{
		UserID:            user.ID,
		CleaningID:        cleaning.ID,
		PropertyID:        cleaning.PropertyID,
		Recipient:         recipient,
		Subject:           subject,
		Status:            EmailStatusSent,
		ProviderMessageID: messageID,
		SentAt:            c.now().UTC(),
	}
	if sendErr != nil {
		entry.Status = EmailStatusFailed
		entry.ErrorMessage = sendErr.Error()
	}

	if err := c.emailLogRepo.Create(ctx, c.db.SQL, entry); err != nil {
		log.Er("failed to record cleaning email", err, "cleaningID", cleaning.ID, "status", entry.Status)
	}

	if sendErr != nil {
		log.Er("cleaning email was not delivered", sendErr, "cleaningID", cleaning.ID)
		return entry, ErrEmailNotDelivered
	}
	return entry, nil
}

func (c *EmailController) nextBooking(
	ctx context.Context,
	user *UserProfile,
	cleaning *Cleaning,
) (*Booking, error) {
	from := DateOnly(cleaning.ScheduledDate)
	bookings, err := c.bookingRepo.ListInRange(
		ctx,
		c.db.SQL,
		user.ID,
		&cleaning.PropertyID,
		from,
		from.Add(nextBookingWindow),
	)
	if err != nil {
		return nil, err
	}

	for _, booking := range bookings {
		if cleaning.BookingID != nil && booking.ID == *cleaning.BookingID {
			continue
		}
		if !booking.CheckIn.Before(from) {
			return booking, nil
		}
	}
	return nil, nil
}

func hostName(user *UserProfile) string {
	if user.CompanyName != "" {
		return user.CompanyName
	}
	return user.FullName
}

func (c *EmailController) SendGuestEmail(
	ctx context.Context,
	user *UserProfile,
	request *GuestEmailRequest,
) (*GuestEmailResponse, error) {
	log := c.log.Function("SendGuestEmail")

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
	if strings.TrimSpace(booking.GuestEmail) == "" {
		return nil, ErrNoGuestEmail
	}

	messageID, err := c.emailService.SendGuestMessage(
		ctx,
		booking,
		booking.Property,
		strings.TrimSpace(request.Subject),
		request.Message,
	)
	if err != nil {
		log.Er("guest email was not delivered", err, "bookingID", booking.ID)
		return nil, ErrEmailNotDelivered
	}

	return &GuestEmailResponse{MessageID: messageID, Recipient: booking.GuestEmail}, nil
}

func (c *EmailController) ListCleaningLogs(
	ctx context.Context,
	user *UserProfile,
	cleaningID *uuid.UUID,
) ([]*CleaningEmailLog, error) {
	entries, err := c.emailLogRepo.List(ctx, c.db.SQL, user.ID, cleaningID)
	if err != nil {
		return nil, c.log.Function("ListCleaningLogs").Err("failed to list cleaning emails", err, "userID", user.ID)
	}
	return entries, nil
}

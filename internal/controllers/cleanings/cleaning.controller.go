package cleaningController

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
	"github.com/shopspring/decimal"
)

var (
	ErrCleaningNotFound  = types.NotFound("cleaning not found")
	ErrPropertyNotFound  = types.NotFound("property not found")
	ErrBookingNotFound   = types.NotFound("booking not found")
	ErrBookingMismatch   = types.Invalidf("booking does not belong to the property")
	ErrCleaningCancelled = types.Conflict("a cancelled cleaning cannot be completed")
)

type ListCleaningsRequest struct {
	PropertyID string `query:"propertyId"`
	Status     string `query:"status"     validate:"omitempty,oneof=scheduled in_progress completed cancelled"`
	From       string `query:"from"`
	To         string `query:"to"`
}

type CreateCleaningRequest struct {
	PropertyID    uuid.UUID        `json:"propertyId"          validate:"required"`
	BookingID     *uuid.UUID       `json:"bookingId,omitempty"`
	ScheduledDate string           `json:"scheduledDate"       validate:"required,date"`
	Status        CleaningStatus   `json:"status"              validate:"omitempty,oneof=scheduled in_progress completed cancelled"`
	CleanerName   string           `json:"cleanerName"         validate:"max=200"`
	CleanerEmail  string           `json:"cleanerEmail"        validate:"omitempty,email"`
	Cost          *decimal.Decimal `json:"cost,omitempty"`
	Notes         string           `json:"notes"`
}

type UpdateCleaningRequest struct {
	ScheduledDate *string          `json:"scheduledDate,omitempty" validate:"omitempty,date"`
	Status        *CleaningStatus  `json:"status,omitempty"        validate:"omitempty,oneof=scheduled in_progress completed cancelled"`
	CleanerName   *string          `json:"cleanerName,omitempty"   validate:"omitempty,max=200"`
	CleanerEmail  *string          `json:"cleanerEmail,omitempty"  validate:"omitempty,email"`
	Cost          *decimal.Decimal `json:"cost,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
}

type CleaningControllerInterface interface {
	List(ctx context.Context, user *UserProfile, request *ListCleaningsRequest) ([]*Cleaning, error)
	Get(ctx context.Context, user *UserProfile, id uuid.UUID) (*Cleaning, error)
	Create(ctx context.Context, user *UserProfile, request *CreateCleaningRequest) (*Cleaning, error)
	Update(ctx context.Context, user *UserProfile, id uuid.UUID, request *UpdateCleaningRequest) (*Cleaning, error)
	Delete(ctx context.Context, user *UserProfile, id uuid.UUID) error
	Complete(ctx context.Context, user *UserProfile, id uuid.UUID) (*Cleaning, error)
}

type CleaningController struct {
	cleaningRepo repositories.CleaningRepository
	propertyRepo repositories.PropertyRepository
	bookingRepo  repositories.BookingRepository
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
) CleaningControllerInterface {
	return &CleaningController{
		cleaningRepo: repos.Cleaning,
		propertyRepo: repos.Property,
		bookingRepo:  repos.Booking,
		db:           db,
		Config:       config,
		log:          logger.New("cleaningController"),
		now:          time.Now,
	}
}

func (c *CleaningController) List(
	ctx context.Context,
	user *UserProfile,
	request *ListCleaningsRequest,
) ([]*Cleaning, error) {
	if err := types.Validate(request); err != nil {
		return nil, err
	}

	propertyID, err := types.ParseOptionalUUID(request.PropertyID, "propertyId")
	if err != nil {
		return nil, err
	}
	from, err := types.ParseOptionalDate(request.From, "from")
	if err != nil {
		return nil, err
	}
	to, err := types.ParseOptionalDate(request.To, "to")
	if err != nil {
		return nil, err
	}

	cleanings, err := c.cleaningRepo.List(ctx, c.db.SQL, user.ID, repositories.CleaningFilter{
		PropertyID: propertyID,
		Status:     CleaningStatus(request.Status),
		From:       from,
		To:         to,
	})
	if err != nil {
		return nil, c.log.Function("List").Err("failed to list cleanings", err, "userID", user.ID)
	}
	return cleanings, nil
}

func (c *CleaningController) Get(ctx context.Context, user *UserProfile, id uuid.UUID) (*Cleaning, error) {
	cleaning, err := c.cleaningRepo.GetByID(ctx, c.db.SQL, user.ID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCleaningNotFound
		}
		return nil, c.log.Function("Get").Err("failed to get cleaning", err, "id", id)
	}
	return cleaning, nil
}

// Create schedules a cleaning. Cleaner and cost default to the property's
// settings when the request leaves them empty.
func (c *CleaningController) Create(
	ctx context.Context,
	user *UserProfile,
	request *CreateCleaningRequest,
) (*Cleaning, error) {
	log := c.log.Function("Create")

	if err := types.Validate(request); err != nil {
		return nil, err
	}
	scheduled, err := types.ParseDate(request.ScheduledDate, "scheduledDate")
	if err != nil {
		return nil, err
	}
	if request.Cost != nil && request.Cost.IsNegative() {
		return nil, types.Invalidf("cost must not be negative")
	}

	property, err := c.propertyRepo.GetByID(ctx, c.db.SQL, user.ID, request.PropertyID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPropertyNotFound
		}
		return nil, log.Err("failed to load property", err, "propertyID", request.PropertyID)
	}

	if request.BookingID != nil {
		booking, err := c.bookingRepo.GetByID(ctx, c.db.SQL, user.ID, *request.BookingID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrBookingNotFound
			}
			return nil, log.Err("failed to load booking", err, "bookingID", *request.BookingID)
		}
		if booking.PropertyID != property.ID {
			return nil, ErrBookingMismatch
		}
	}

	cleaning := &Cleaning{
		UserID:        user.ID,
		PropertyID:    property.ID,
		BookingID:     request.BookingID,
		ScheduledDate: scheduled,
		Status:        request.Status,
		CleanerName:   strings.TrimSpace(request.CleanerName),
		CleanerEmail:  strings.TrimSpace(request.CleanerEmail),
		Cost:          property.CleaningFee,
		Notes:         request.Notes,
	}
	if cleaning.CleanerName == "" {
		cleaning.CleanerName = property.CleanerName
	}
	if cleaning.CleanerEmail == "" {
		cleaning.CleanerEmail = property.CleanerEmail
	}
	if request.Cost != nil {
		cleaning.Cost = *request.Cost
	}
	if cleaning.Status == CleaningStatusCompleted {
		completedAt := c.now().UTC()
		cleaning.CompletedAt = &completedAt
	}

	if err := c.cleaningRepo.Create(ctx, c.db.SQL, cleaning); err != nil {
		return nil, log.Err("failed to create cleaning", err, "propertyID", property.ID)
	}

	return c.Get(ctx, user, cleaning.ID)
}

func (c *CleaningController) Update(
	ctx context.Context,
	user *UserProfile,
	id uuid.UUID,
	request *UpdateCleaningRequest,
) (*Cleaning, error) {
	log := c.log.Function("Update")

	if err := types.Validate(request); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if request.ScheduledDate != nil {
		scheduled, err := types.ParseDate(*request.ScheduledDate, "scheduledDate")
		if err != nil {
			return nil, err
		}
		updates["scheduled_date"] = scheduled
	}
	if request.Status != nil {
		updates["status"] = *request.Status
		if *request.Status == CleaningStatusCompleted {
			updates["completed_at"] = c.now().UTC()
		} else {
			updates["completed_at"] = nil
		}
	}
	if request.CleanerName != nil {
		updates["cleaner_name"] = strings.TrimSpace(*request.CleanerName)
	}
	if request.CleanerEmail != nil {
		updates["cleaner_email"] = strings.TrimSpace(*request.CleanerEmail)
	}
	if request.Cost != nil {
		if request.Cost.IsNegative() {
			return nil, types.Invalidf("cost must not be negative")
		}
		updates["cost"] = *request.Cost
	}
	if request.Notes != nil {
		updates["notes"] = *request.Notes
	}

	if len(updates) > 0 {
		err := c.cleaningRepo.Update(ctx, c.db.SQL, user.ID, id, updates)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCleaningNotFound
		}
		if err != nil {
			return nil, log.Err("failed to update cleaning", err, "id", id)
		}
	}

	return c.Get(ctx, user, id)
}

func (c *CleaningController) Delete(ctx context.Context, user *UserProfile, id uuid.UUID) error {
	if err := c.cleaningRepo.Delete(ctx, c.db.SQL, user.ID, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCleaningNotFound
		}
		return c.log.Function("Delete").Err("failed to delete cleaning", err, "id", id)
	}
	return nil
}

// Complete marks the cleaning done. Completing twice keeps the first
// completion time.
func (c *CleaningController) Complete(ctx context.Context, user *UserProfile, id uuid.UUID) (*Cleaning, error) {
	log := c.log.Function("Complete")

	cleaning, err := c.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}

	switch cleaning.Status {
	case CleaningStatusCompleted:
		return cleaning, nil
	case CleaningStatusCancelled:
		return nil, ErrCleaningCancelled
	}

	err = c.cleaningRepo.Update(ctx, c.db.SQL, user.ID, id, map[string]any{
		"status":       CleaningStatusCompleted,
		"completed_at": c.now().UTC(),
	})
	if err != nil {
		return nil, log.Err("failed to complete cleaning", err, "id", id)
	}

	log.Info("Cleaning completed", "cleaningID", id, "userID", user.ID)
	return c.Get(ctx, user, id)
}

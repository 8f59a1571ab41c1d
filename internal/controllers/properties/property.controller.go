package propertyController

import (
	"context"
	"errors"
	"fmt"
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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrPropertyNotFound  = types.NotFound("property not found")
	ErrHasFutureBookings = types.Conflict(
		"property has upcoming confirmed bookings, pass force=true to delete it anyway",
	)
)

type CreatePropertyRequest struct {
	Name                 string          `json:"name"                 validate:"required,max=200"`
	Address              string          `json:"address"              validate:"max=500"`
	City                 string          `json:"city"                 validate:"max=200"`
	Country              string          `json:"country"              validate:"max=200"`
	Bedrooms             int             `json:"bedrooms"             validate:"gte=0"`
	Bathrooms            int             `json:"bathrooms"            validate:"gte=0"`
	MaxGuests            int             `json:"maxGuests"            validate:"gte=0"`
	CheckInTime          string          `json:"checkInTime"          validate:"omitempty,clocktime"`
	CheckOutTime         string          `json:"checkOutTime"         validate:"omitempty,clocktime"`
	Currency             string          `json:"currency"             validate:"omitempty,currency"`
	CleanerName          string          `json:"cleanerName"          validate:"max=200"`
	CleanerEmail         string          `json:"cleanerEmail"         validate:"omitempty,email"`
	CleaningFee          decimal.Decimal `json:"cleaningFee"`
	AutoScheduleCleaning bool            `json:"autoScheduleCleaning"`
	IsActive             *bool           `json:"isActive,omitempty"`
}

type UpdatePropertyRequest struct {
	Name                 *string          `json:"name,omitempty"                 validate:"omitempty,min=1,max=200"`
	Address              *string          `json:"address,omitempty"              validate:"omitempty,max=500"`
	City                 *string          `json:"city,omitempty"                 validate:"omitempty,max=200"`
	Country              *string          `json:"country,omitempty"              validate:"omitempty,max=200"`
	Bedrooms             *int             `json:"bedrooms,omitempty"             validate:"omitempty,gte=0"`
	Bathrooms            *int             `json:"bathrooms,omitempty"            validate:"omitempty,gte=0"`
	MaxGuests            *int             `json:"maxGuests,omitempty"            validate:"omitempty,gte=0"`
	CheckInTime          *string          `json:"checkInTime,omitempty"          validate:"omitempty,clocktime"`
	CheckOutTime         *string          `json:"checkOutTime,omitempty"         validate:"omitempty,clocktime"`
	Currency             *string          `json:"currency,omitempty"             validate:"omitempty,currency"`
	CleanerName          *string          `json:"cleanerName,omitempty"          validate:"omitempty,max=200"`
	CleanerEmail         *string          `json:"cleanerEmail,omitempty"         validate:"omitempty,email"`
	CleaningFee          *decimal.Decimal `json:"cleaningFee,omitempty"`
	AutoScheduleCleaning *bool            `json:"autoScheduleCleaning,omitempty"`
	IsActive             *bool            `json:"isActive,omitempty"`
}

type ExportTokenResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

type PropertyControllerInterface interface {
	List(ctx context.Context, user *UserProfile) ([]*Property, error)
	Get(ctx context.Context, user *UserProfile, id uuid.UUID) (*Property, error)
	Create(ctx context.Context, user *UserProfile, request *CreatePropertyRequest) (*Property, error)
	Update(
		ctx context.Context,
		user *UserProfile,
		id uuid.UUID,
		request *UpdatePropertyRequest,
	) (*Property, error)
	Delete(ctx context.Context, user *UserProfile, id uuid.UUID, force bool) error
	RotateExportToken(ctx context.Context, user *UserProfile, id uuid.UUID) (*ExportTokenResponse, error)
}

type PropertyController struct {
	propertyRepo       repositories.PropertyRepository
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
) PropertyControllerInterface {
	return &PropertyController{
		propertyRepo:       repos.Property,
		bookingRepo:        repos.Booking,
		transactionService: services.Transaction,
		db:                 db,
		Config:             config,
		log:                logger.New("propertyController"),
		now:                time.Now,
	}
}

func (c *PropertyController) List(ctx context.Context, user *UserProfile) ([]*Property, error) {
	properties, err := c.propertyRepo.List(ctx, c.db.SQL, user.ID)
	if err != nil {
		return nil, c.log.Function("List").Err("failed to list properties", err, "userID", user.ID)
	}
	return properties, nil
}

func (c *PropertyController) Get(ctx context.Context, user *UserProfile, id uuid.UUID) (*Property, error) {
	property, err := c.propertyRepo.GetByID(ctx, c.db.SQL, user.ID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPropertyNotFound
		}
		return nil, c.log.Function("Get").Err("failed to get property", err, "id", id)
	}
	return property, nil
}

func (c *PropertyController) Create(
	ctx context.Context,
	user *UserProfile,
	request *CreatePropertyRequest,
) (*Property, error) {
	log := c.log.Function("Create")

	if err := types.Validate(request); err != nil {
		return nil, err
	}
	if request.CleaningFee.IsNegative() {
		return nil, types.Invalidf("cleaningFee must not be negative")
	}

	token, err := utils.GenerateToken()
	if err != nil {
		return nil, log.Err("failed to generate export token", err)
	}

	property := &Property{
		UserID:               user.ID,
		Name:                 strings.TrimSpace(request.Name),
		Address:              request.Address,
		City:                 request.City,
		Country:              request.Country,
		Bedrooms:             request.Bedrooms,
		Bathrooms:            request.Bathrooms,
		MaxGuests:            request.MaxGuests,
		CheckInTime:          request.CheckInTime,
		CheckOutTime:         request.CheckOutTime,
		Currency:             request.Currency,
		CleanerName:          request.CleanerName,
		CleanerEmail:         request.CleanerEmail,
		CleaningFee:          request.CleaningFee,
		AutoScheduleCleaning: request.AutoScheduleCleaning,
		IsActive:             true,
		CalendarExportToken:  token,
	}
	if request.IsActive != nil {
		property.IsActive = *request.IsActive
	}
	if property.Currency == "" {
		property.Currency = user.BaseCurrency
	}

	if err := c.propertyRepo.Create(ctx, c.db.SQL, property); err != nil {
		return nil, log.Err("failed to create property", err, "userID", user.ID)
	}

	log.Info("Property created", "propertyID", property.ID, "userID", user.ID)
	return property, nil
}

func (c *PropertyController) Update(
	ctx context.Context,
	user *UserProfile,
	id uuid.UUID,
	request *UpdatePropertyRequest,
) (*Property, error) {
	log := c.log.Function("Update")

	if err := types.Validate(request); err != nil {
		return nil, err
	}
	if request.CleaningFee != nil && request.CleaningFee.IsNegative() {
		return nil, types.Invalidf("cleaningFee must not be negative")
	}

	updates := updateMap(request)
	if len(updates) > 0 {
		err := c.propertyRepo.Update(ctx, c.db.SQL, user.ID, id, updates)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPropertyNotFound
		}
		if err != nil {
			return nil, log.Err("failed to update property", err, "id", id)
		}
	}

	return c.Get(ctx, user, id)
}

func updateMap(request *UpdatePropertyRequest) map[string]any {
	updates := map[string]any{}
	if request.Name != nil {
		updates["name"] = strings.TrimSpace(*request.Name)
	}
	if request.Address != nil {
		updates["address"] = *request.Address
	}
	if request.City != nil {
		updates["city"] = *request.City
	}
	if request.Country != nil {
		updates["country"] = *request.Country
	}
	if request.Bedrooms != nil {
		updates["bedrooms"] = *request.Bedrooms
	}
	if request.Bathrooms != nil {
		updates["bathrooms"] = *request.Bathrooms
	}
	if request.MaxGuests != nil {
		updates["max_guests"] = *request.MaxGuests
	}
	if request.CheckInTime != nil {
		updates["check_in_time"] = *request.CheckInTime
	}
	if request.CheckOutTime != nil {
		updates["check_out_time"] = *request.CheckOutTime
	}
	if request.Currency != nil {
		updates["currency"] = *request.Currency
	}
	if request.CleanerName != nil {
		updates["cleaner_name"] = *request.CleanerName
	}
	if request.CleanerEmail != nil {
		updates["cleaner_email"] = *request.CleanerEmail
	}
	if request.CleaningFee != nil {
		updates["cleaning_fee"] = *request.CleaningFee
	}
	if request.AutoScheduleCleaning != nil {
		updates["auto_schedule_cleaning"] = *request.AutoScheduleCleaning
	}
	if request.IsActive != nil {
		updates["is_active"] = *request.IsActive
	}
	return updates
}

// Delete soft deletes the property. Upcoming confirmed stays block the delete
// unless force is set.
func (c *PropertyController) Delete(ctx context.Context, user *UserProfile, id uuid.UUID, force bool) error {
	log := c.log.Function("Delete")

	if _, err := c.Get(ctx, user, id); err != nil {
		return err
	}

	return c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if !force {
			upcoming, err := c.bookingRepo.CountFutureConfirmed(ctx, tx, user.ID, id, DateOnly(c.now()))
			if err != nil {
				return log.Err("failed to count upcoming bookings", err, "id", id)
			}
			if upcoming > 0 {
				return ErrHasFutureBookings
			}
		}

		if err := c.propertyRepo.Delete(ctx, tx, user.ID, id); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrPropertyNotFound
			}
			return log.Err("failed to delete property", err, "id", id)
		}

		log.Info("Property deleted", "propertyID", id, "userID", user.ID, "force", force)
		return nil
	})
}

// RotateExportToken replaces the token guarding the public calendar export.
// Previously shared links stop working.
func (c *PropertyController) RotateExportToken(
	ctx context.Context,
	user *UserProfile,
	id uuid.UUID,
) (*ExportTokenResponse, error) {
	log := c.log.Function("RotateExportToken")

	token, err := utils.GenerateToken()
	if err != nil {
		return nil, log.Err("failed to generate export token", err)
	}

	err = c.propertyRepo.Update(ctx, c.db.SQL, user.ID, id, map[string]any{"calendar_export_token": token})
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrPropertyNotFound
	}
	if err != nil {
		return nil, log.Err("failed to rotate export token", err, "id", id)
	}

	return &ExportTokenResponse{Token: token, URL: ExportURL(c.Config.AppBaseURL, id, token)}, nil
}

func ExportURL(baseURL string, propertyID uuid.UUID, token string) string {
	return fmt.Sprintf(
		"%s/api/calendar/export/%s.ics?token=%s",
		strings.TrimRight(baseURL, "/"),
		propertyID,
		token,
	)
}

package bookingController

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"hostly/config"
	"hostly/internal/database"
	. "hostly/internal/models"
	"hostly/internal/repositories"
	"hostly/internal/services"
	"hostly/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrBookingNotFound  = types.NotFound("booking not found")
	ErrPropertyNotFound = types.NotFound("property not found")
	ErrBookingOverlap   = types.Conflict("booking overlaps an existing confirmed booking")
)

type ListBookingsRequest struct {
	PropertyID string `query:"propertyId"`
	Status     string `query:"status"     validate:"omitempty,oneof=confirmed pending cancelled completed"`
	Platform   string `query:"platform"   validate:"omitempty,oneof=airbnb booking vrbo direct other"`
	From       string `query:"from"`
	To         string `query:"to"`
	Limit      int    `query:"limit"      validate:"gte=0"`
	Offset     int    `query:"offset"     validate:"gte=0"`
}

type ListBookingsResponse struct {
	Bookings []*Booking `json:"bookings"`
	Total    int64      `json:"total"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}

type CreateBookingRequest struct {
	PropertyID       uuid.UUID       `json:"propertyId"       validate:"required"`
	GuestName        string          `json:"guestName"        validate:"required,max=120"`
	GuestEmail       string          `json:"guestEmail"       validate:"omitempty,email"`
	GuestPhone       string          `json:"guestPhone"       validate:"max=40"`
	NumGuests        int             `json:"numGuests"        validate:"omitempty,min=1"`
	CheckIn          string          `json:"checkIn"          validate:"required,date"`
	CheckOut         string          `json:"checkOut"         validate:"required,date"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	Currency         string          `json:"currency"         validate:"omitempty,currency"`
	Platform         Platform        `json:"platform"         validate:"omitempty,oneof=airbnb booking vrbo direct other"`
	Status           BookingStatus   `json:"status"           validate:"omitempty,oneof=confirmed pending cancelled completed"`
	ConfirmationCode string          `json:"confirmationCode" validate:"max=64"`
	Notes            string          `json:"notes"`
	ArrivalTime      string          `json:"arrivalTime"      validate:"omitempty,clocktime"`
}

type UpdateBookingRequest struct {
	GuestName        *string          `json:"guestName,omitempty"        validate:"omitempty,min=1,max=120"`
	GuestEmail       *string          `json:"guestEmail,omitempty"       validate:"omitempty,email"`
	GuestPhone       *string          `json:"guestPhone,omitempty"       validate:"omitempty,max=40"`
	NumGuests        *int             `json:"numGuests,omitempty"        validate:"omitempty,min=1"`
	CheckIn          *string          `json:"checkIn,omitempty"          validate:"omitempty,date"`
	CheckOut         *string          `json:"checkOut,omitempty"         validate:"omitempty,date"`
	TotalAmount      *decimal.Decimal `json:"totalAmount,omitempty"`
	Currency         *string          `json:"currency,omitempty"         validate:"omitempty,currency"`
	Platform         *Platform        `json:"platform,omitempty"         validate:"omitempty,oneof=airbnb booking vrbo direct other"`
	Status           *BookingStatus   `json:"status,omitempty"           validate:"omitempty,oneof=confirmed pending cancelled completed"`
	ConfirmationCode *string          `json:"confirmationCode,omitempty" validate:"omitempty,max=64"`
	Notes            *string          `json:"notes,omitempty"`
	ArrivalTime      *string          `json:"arrivalTime,omitempty"      validate:"omitempty,clocktime"`
}

type BookingControllerInterface interface {
	List(ctx context.Context, user *UserProfile, request *ListBookingsRequest) (*ListBookingsResponse, error)
	Get(ctx context.Context, user *UserProfile, id uuid.UUID) (*Booking, error)
	Create(ctx context.Context, user *UserProfile, request *CreateBookingRequest) (*Booking, error)
	Update(ctx context.Context, user *UserProfile, id uuid.UUID, request *UpdateBookingRequest) (*Booking, error)
	Delete(ctx context.Context, user *UserProfile, id uuid.UUID) error
}

type BookingController struct {
	bookingRepo        repositories.BookingRepository
	propertyRepo       repositories.PropertyRepository
	cleaningRepo       repositories.CleaningRepository
	transactionService *services.TransactionService
	db                 database.DB
	Config             config.Config
	log                logger.Logger
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) BookingControllerInterface {
	return &BookingController{
		bookingRepo:        repos.Booking,
		propertyRepo:       repos.Property,
		cleaningRepo:       repos.Cleaning,
		transactionService: services.Transaction,
		db:                 db,
		Config:             config,
		log:                logger.New("bookingController"),
	}
}

func (c *BookingController) List(
	ctx context.Context,
	user *UserProfile,
	request *ListBookingsRequest,
) (*ListBookingsResponse, error) {
	log := c.log.Function("List")

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
	if from != nil && to != nil && to.Before(*from) {
		return nil, types.Invalidf("to must not be before from")
	}

	limit := request.Limit
	if limit <= 0 || limit > repositories.DEFAULT_BOOKING_LIMIT {
		limit = repositories.DEFAULT_BOOKING_LIMIT
	}

	bookings, total, err := c.bookingRepo.List(ctx, c.db.SQL, user.ID, repositories.BookingFilter{
		PropertyID: propertyID,
		Status:     BookingStatus(request.Status),
		Platform:   Platform(request.Platform),
		From:       from,
		To:         to,
		Limit:      limit,
		Offset:     request.Offset,
	})
	if err != nil {
		return nil, log.Err("failed to list bookings", err, "userID", user.ID)
	}

	return &ListBookingsResponse{Bookings: bookings, Total: total, Limit: limit, Offset: request.Offset}, nil
}

func (c *BookingController) Get(ctx context.Context, user *UserProfile, id uuid.UUID) (*Booking, error) {
	booking, err := c.bookingRepo.GetByID(ctx, c.db.SQL, user.ID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, c.log.Function("Get").Err("failed to get booking", err, "id", id)
	}
	return booking, nil
}

// Create stores a manual booking. A confirmed stay may not overlap another
// confirmed stay on the same property, and a turnover cleaning is scheduled
// when the property asks for it.
func (c *BookingController) Create(
	ctx context.Context,
	user *UserProfile,
	request *CreateBookingRequest,
) (*Booking, error) {
	log := c.log.Function("Create")

	if err := types.Validate(request); err != nil {
		return nil, err
	}

	checkIn, err := types.ParseDate(request.CheckIn, "checkIn")
	if err != nil {
		return nil, err
	}
	checkOut, err := types.ParseDate(request.CheckOut, "checkOut")
	if err != nil {
		return nil, err
	}
	if !checkOut.After(checkIn) {
		return nil, types.Invalidf("checkOut must be after checkIn")
	}
	if request.TotalAmount.IsNegative() {
		return nil, types.Invalidf("totalAmount must not be negative")
	}

	property, err := c.propertyRepo.GetByID(ctx, c.db.SQL, user.ID, request.PropertyID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPropertyNotFound
		}
		return nil, log.Err("failed to load property", err, "propertyID", request.PropertyID)
	}

	booking := &Booking{
		UserID:           user.ID,
		PropertyID:       property.ID,
		GuestName:        strings.TrimSpace(request.GuestName),
		GuestEmail:       strings.TrimSpace(request.GuestEmail),
		GuestPhone:       strings.TrimSpace(request.GuestPhone),
		PhoneLast4:       lastDigits(request.GuestPhone, 4),
		NumGuests:        request.NumGuests,
		CheckIn:          checkIn,
		CheckOut:         checkOut,
		TotalAmount:      request.TotalAmount,
		Currency:         request.Currency,
		Platform:         request.Platform,
		Status:           request.Status,
		ConfirmationCode: strings.TrimSpace(request.ConfirmationCode),
		Notes:            request.Notes,
		ArrivalTime:      request.ArrivalTime,
		Source:           BookingSourceManual,
	}
	if booking.Currency == "" {
		booking.Currency = property.Currency
	}
	if booking.Status == "" {
		booking.Status = BookingStatusConfirmed
	}

	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if booking.Status == BookingStatusConfirmed {
			if err := c.propertyRepo.LockForUpdate(ctx, tx, user.ID, property.ID); err != nil {
				return err
			}
			overlap, err := c.bookingRepo.HasOverlap(ctx, tx, property.ID, checkIn, checkOut, uuid.Nil)
			if err != nil {
				return err
			}
			if overlap {
				return ErrBookingOverlap
			}
		}

		if err := c.bookingRepo.Create(ctx, tx, booking); err != nil {
			return err
		}

		if property.AutoScheduleCleaning && booking.Status != BookingStatusCancelled {
			if err := c.cleaningRepo.Create(ctx, tx, NewCleaningForBooking(property, booking)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrBookingOverlap) {
			return nil, err
		}
		return nil, log.Err("failed to create booking", err, "propertyID", property.ID)
	}

	log.Info("Booking created", "bookingID", booking.ID, "propertyID", property.ID, "userID", user.ID)
	return c.Get(ctx, user, booking.ID)
}

func (c *BookingController) Update(
	ctx context.Context,
	user *UserProfile,
	id uuid.UUID,
	request *UpdateBookingRequest,
) (*Booking, error) {
	log := c.log.Function("Update")

	if err := types.Validate(request); err != nil {
		return nil, err
	}

	existing, err := c.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}

	updates, err := bookingUpdates(request)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return existing, nil
	}

	checkIn, checkOut, status := existing.CheckIn, existing.CheckOut, existing.Status
	if v, ok := updates["check_in"].(time.Time); ok {
		checkIn = v
	}
	if v, ok := updates["check_out"].(time.Time); ok {
		checkOut = v
	}
	if request.Status != nil {
		status = *request.Status
	}
	if !checkOut.After(checkIn) {
		return nil, types.Invalidf("checkOut must be after checkIn")
	}

	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if status == BookingStatusConfirmed {
			if err := c.propertyRepo.LockForUpdate(ctx, tx, user.ID, existing.PropertyID); err != nil {
				return err
			}
			overlap, err := c.bookingRepo.HasOverlap(ctx, tx, existing.PropertyID, checkIn, checkOut, id)
			if err != nil {
				return err
			}
			if overlap {
				return ErrBookingOverlap
			}
		}
		if err := c.bookingRepo.Update(ctx, tx, user.ID, id, updates); err != nil {
			return err
		}
		return c.followCleanings(ctx, tx, existing, status, checkOut)
	})
	if err != nil {
		if errors.Is(err, ErrBookingOverlap) {
			return nil, err
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, log.Err("failed to update booking", err, "id", id)
	}

	return c.Get(ctx, user, id)
}

// followCleanings keeps the turnover cleanings of a booking in step with it:
// a cancelled stay cancels them and a moved checkout reschedules them.
func (c *BookingController) followCleanings(
	ctx context.Context,
	tx *gorm.DB,
	existing *Booking,
	status BookingStatus,
	checkOut time.Time,
) error {
	if status == BookingStatusCancelled {
		_, err := c.cleaningRepo.CancelForBookings(ctx, tx, []uuid.UUID{existing.ID})
		return err
	}
	if !checkOut.Equal(existing.CheckOut) {
		_, err := c.cleaningRepo.RescheduleForBooking(ctx, tx, existing.ID, checkOut)
		return err
	}
	return nil
}

func bookingUpdates(request *UpdateBookingRequest) (map[string]any, error) {
	updates := map[string]any{}
	if request.GuestName != nil {
		updates["guest_name"] = strings.TrimSpace(*request.GuestName)
	}
	if request.GuestEmail != nil {
		updates["guest_email"] = strings.TrimSpace(*request.GuestEmail)
	}
	if request.GuestPhone != nil {
		updates["guest_phone"] = strings.TrimSpace(*request.GuestPhone)
		updates["phone_last4"] = lastDigits(*request.GuestPhone, 4)
	}
	if request.NumGuests != nil {
		updates["num_guests"] = *request.NumGuests
	}
	if request.CheckIn != nil {
		checkIn, err := types.ParseDate(*request.CheckIn, "checkIn")
		if err != nil {
			return nil, err
		}
		updates["check_in"] = checkIn
	}
	if request.CheckOut != nil {
		checkOut, err := types.ParseDate(*request.CheckOut, "checkOut")
		if err != nil {
			return nil, err
		}
		updates["check_out"] = checkOut
	}
	if request.TotalAmount != nil {
		if request.TotalAmount.IsNegative() {
			return nil, types.Invalidf("totalAmount must not be negative")
		}
		updates["total_amount"] = *request.TotalAmount
	}
	if request.Currency != nil {
		updates["currency"] = *request.Currency
	}
	if request.Platform != nil {
		updates["platform"] = *request.Platform
	}
	if request.Status != nil {
		updates["status"] = *request.Status
	}
	if request.ConfirmationCode != nil {
		updates["confirmation_code"] = strings.TrimSpace(*request.ConfirmationCode)
	}
	if request.Notes != nil {
		updates["notes"] = *request.Notes
	}
	if request.ArrivalTime != nil {
		updates["arrival_time"] = *request.ArrivalTime
	}
	return updates, nil
}

func (c *BookingController) Delete(ctx context.Context, user *UserProfile, id uuid.UUID) error {
	log := c.log.Function("Delete")

	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.bookingRepo.Delete(ctx, tx, user.ID, id); err != nil {
			return err
		}
		_, err := c.cleaningRepo.CancelForBookings(ctx, tx, []uuid.UUID{id})
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrBookingNotFound
		}
		return log.Err("failed to delete booking", err, "id", id)
	}

	log.Info("Booking deleted", "bookingID", id, "userID", user.ID)
	return nil
}

// lastDigits returns the trailing n digits of a phone number, or "" when it
// has fewer.
func lastDigits(phone string, n int) string {
	digits := make([]rune, 0, len(phone))
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
		}
	}
	if len(digits) < n {
		return ""
	}
	return string(digits[len(digits)-n:])
}

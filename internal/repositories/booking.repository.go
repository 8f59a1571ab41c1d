package repositories

import (
	"context"
	"errors"
	"time"

	. "hostly/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DEFAULT_BOOKING_LIMIT = 100

type BookingFilter struct {
	PropertyID *uuid.UUID
	Status     BookingStatus
	Platform   Platform
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// syncedColumns are overwritten when a feed event is upserted. deleted_at is
// included so a reappearing event revives its soft-deleted row.
var syncedColumns = []string{
	"guest_name", "guest_email", "guest_phone", "phone_last4", "num_guests",
	"check_in", "check_out", "total_amount", "currency", "platform", "status",
	"confirmation_code", "notes", "arrival_time", "source", "last_synced_at",
	"checked_in_at", "updated_at", "deleted_at",
}

type BookingRepository interface {
	List(ctx context.Context, tx *gorm.DB, userID uuid.UUID, filter BookingFilter) ([]*Booking, int64, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*Booking, error)
	Create(ctx context.Context, tx *gorm.DB, booking *Booking) error
	Update(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) error
	HasOverlap(
		ctx context.Context,
		tx *gorm.DB,
		propertyID uuid.UUID,
		checkIn, checkOut time.Time,
		excludeID uuid.UUID,
	) (bool, error)
	CountFutureConfirmed(ctx context.Context, tx *gorm.DB, userID, propertyID uuid.UUID, today time.Time) (int64, error)
	ListByExternalPrefix(ctx context.Context, tx *gorm.DB, userID uuid.UUID, prefix string) ([]Booking, error)
	Upsert(ctx context.Context, tx *gorm.DB, booking *Booking) error
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, ids []uuid.UUID) (int64, error)
	ListForExport(ctx context.Context, tx *gorm.DB, propertyID uuid.UUID, since time.Time) ([]Booking, error)
	ListInRange(
		ctx context.Context,
		tx *gorm.DB,
		userID uuid.UUID,
		propertyID *uuid.UUID,
		from, to time.Time,
	) ([]*Booking, error)
}

type bookingRepository struct {
	log logger.Logger
}

func NewBookingRepository() BookingRepository {
	return &bookingRepository{
		log: logger.New("bookingRepository"),
	}
}

func (r *bookingRepository) List(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
	filter BookingFilter,
) ([]*Booking, int64, error) {
	log := r.log.Function("List")

	query := tx.WithContext(ctx).Model(&Booking{}).Where("user_id = ?", userID)
	if filter.PropertyID != nil {
		query = query.Where("property_id = ?", *filter.PropertyID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Platform != "" {
		query = query.Where("platform = ?", filter.Platform)
	}
	if filter.From != nil {
		query = query.Where("check_out > ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("check_in < ?", *filter.To)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, log.Err("failed to count bookings", err, "userID", userID)
	}

	limit := filter.Limit
	if limit <= 0 || limit > DEFAULT_BOOKING_LIMIT {
		limit = DEFAULT_BOOKING_LIMIT
	}

	var bookings []*Booking
	if err := query.
		Preload("Property").
		Order("check_in DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&bookings).Error; err != nil {
		return nil, 0, log.Err("failed to list bookings", err, "userID", userID)
	}

	return bookings, total, nil
}

func (r *bookingRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	userID, id uuid.UUID,
) (*Booking, error) {
	var booking Booking
	err := tx.WithContext(ctx).
		Preload("Property").
		Where("id = ? AND user_id = ?", id, userID).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, r.log.Function("GetByID").
			Err("failed to get booking", err, "id", id, "userID", userID)
	}
	return &booking, nil
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *Booking) error {
	if err := tx.WithContext(ctx).Omit(clause.Associations).Create(booking).Error; err != nil {
		return r.log.Function("Create").
			Err("failed to create booking", err, "propertyID", booking.PropertyID)
	}
	return nil
}

func (r *bookingRepository) Update(
	ctx context.Context,
	tx *gorm.DB,
	userID, id uuid.UUID,
	updates map[string]any,
) error {
	result := tx.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if result.Error != nil {
		return r.log.Function("Update").
			Err("failed to update booking", result.Error, "id", id, "userID", userID)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *bookingRepository) Delete(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) error {
	rowsAffected, err := gorm.G[*Booking](tx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(ctx)
	if err != nil {
		return r.log.Function("Delete").
			Err("failed to delete booking", err, "id", id, "userID", userID)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// HasOverlap reports whether another confirmed booking on the property
// intersects [checkIn, checkOut). Back-to-back stays do not overlap.
func (r *bookingRepository) HasOverlap(
	ctx context.Context,
	tx *gorm.DB,
	propertyID uuid.UUID,
	checkIn, checkOut time.Time,
	excludeID uuid.UUID,
) (bool, error) {
	query := tx.WithContext(ctx).
		Model(&Booking{}).
		Where("property_id = ? AND status = ?", propertyID, BookingStatusConfirmed).
		Where("check_in < ? AND check_out > ?", checkOut, checkIn)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, r.log.Function("HasOverlap").
			Err("failed to check booking overlap", err, "propertyID", propertyID)
	}
	return count > 0, nil
}

func (r *bookingRepository) CountFutureConfirmed(
	ctx context.Context,
	tx *gorm.DB,
	userID, propertyID uuid.UUID,
	today time.Time,
) (int64, error) {
	var count int64
	if err := tx.WithContext(ctx).
		Model(&Booking{}).
		Where("user_id = ? AND property_id = ? AND status = ?", userID, propertyID, BookingStatusConfirmed).
		Where("check_out >= ?", today).
		Count(&count).Error; err != nil {
		return 0, r.log.Function("CountFutureConfirmed").
			Err("failed to count future bookings", err, "propertyID", propertyID)
	}
	return count, nil
}

// ListByExternalPrefix includes soft-deleted rows.
func (r *bookingRepository) ListByExternalPrefix(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
	prefix string,
) ([]Booking, error) {
	var bookings []Booking
	if err := tx.WithContext(ctx).
		Unscoped().
		Where("user_id = ? AND external_id LIKE ?", userID, prefix+"%").
		Find(&bookings).Error; err != nil {
		return nil, r.log.Function("ListByExternalPrefix").
			Err("failed to list synced bookings", err, "userID", userID, "prefix", prefix)
	}
	return bookings, nil
}

// Upsert writes a synced booking keyed by external_id. A booking carrying the
// id of a stored row overwrites that row, reviving it if soft-deleted; any
// other booking is inserted with ON CONFLICT on external_id. booking.ID holds
// the stored id afterwards.
func (r *bookingRepository) Upsert(ctx context.Context, tx *gorm.DB, booking *Booking) error {
	log := r.log.Function("Upsert")

	if booking.ExternalID == nil {
		return log.ErrMsg("external id is required for upsert")
	}

	if booking.ID != uuid.Nil {
		result := tx.WithContext(ctx).
			Unscoped().
			Model(&Booking{}).
			Where("id = ? AND external_id = ?", booking.ID, *booking.ExternalID).
			Updates(syncedValues(booking))
		if result.Error != nil {
			return log.Err("failed to overwrite synced booking", result.Error, "id", booking.ID)
		}
		if result.RowsAffected > 0 {
			return nil
		}
		booking.ID = uuid.Nil
	}

	if err := tx.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns(syncedColumns),
		}).
		Create(booking).Error; err != nil {
		return log.Err("failed to upsert booking", err, "externalID", *booking.ExternalID)
	}

	var stored struct{ ID uuid.UUID }
	if err := tx.WithContext(ctx).
		Unscoped().
		Model(&Booking{}).
		Where("external_id = ?", *booking.ExternalID).
		Select("id").
		Take(&stored).Error; err != nil {
		return log.Err("failed to resolve upserted booking id", err, "externalID", *booking.ExternalID)
	}
	booking.ID = stored.ID

	return nil
}

func syncedValues(b *Booking) map[string]any {
	return map[string]any{
		"guest_name":        b.GuestName,
		"guest_email":       b.GuestEmail,
		"guest_phone":       b.GuestPhone,
		"phone_last4":       b.PhoneLast4,
		"num_guests":        b.NumGuests,
		"check_in":          b.CheckIn,
		"check_out":         b.CheckOut,
		"total_amount":      b.TotalAmount,
		"currency":          b.Currency,
		"platform":          b.Platform,
		"status":            b.Status,
		"confirmation_code": b.ConfirmationCode,
		"notes":             b.Notes,
		"arrival_time":      b.ArrivalTime,
		"source":            b.Source,
		"last_synced_at":    b.LastSyncedAt,
		"checked_in_at":     b.CheckedInAt,
		"updated_at":        time.Now().UTC(),
		"deleted_at":        nil,
	}
}

func (r *bookingRepository) SoftDeleteByIDs(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
	ids []uuid.UUID,
) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	rowsAffected, err := gorm.G[*Booking](tx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Delete(ctx)
	if err != nil {
		return 0, r.log.Function("SoftDeleteByIDs").
			Err("failed to delete bookings", err, "userID", userID, "count", len(ids))
	}
	return int64(rowsAffected), nil
}

func (r *bookingRepository) ListForExport(
	ctx context.Context,
	tx *gorm.DB,
	propertyID uuid.UUID,
	since time.Time,
) ([]Booking, error) {
	var bookings []Booking
	if err := tx.WithContext(ctx).
		Where("property_id = ? AND status <> ? AND check_out >= ?", propertyID, BookingStatusCancelled, since).
		Order("check_in ASC").
		Find(&bookings).Error; err != nil {
		return nil, r.log.Function("ListForExport").
			Err("failed to list bookings for export", err, "propertyID", propertyID)
	}
	return bookings, nil
}

func (r *bookingRepository) ListInRange(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
	propertyID *uuid.UUID,
	from, to time.Time,
) ([]*Booking, error) {
	query := tx.WithContext(ctx).
		Where("user_id = ? AND status <> ?", userID, BookingStatusCancelled).
		Where("check_in < ? AND check_out > ?", to, from)
	if propertyID != nil {
		query = query.Where("property_id = ?", *propertyID)
	}

	var bookings []*Booking
	if err := query.Order("check_in ASC").Find(&bookings).Error; err != nil {
		return nil, r.log.Function("ListInRange").
			Err("failed to list bookings in range", err, "userID", userID)
	}
	return bookings, nil
}

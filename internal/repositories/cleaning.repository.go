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

type CleaningFilter struct {
	PropertyID *uuid.UUID
	Status     CleaningStatus
	From       *time.Time
	To         *time.Time
}

type CleaningRepository interface {
	List(ctx context.Context, tx *gorm.DB, userID uuid.UUID, filter CleaningFilter) ([]*Cleaning, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*Cleaning, error)
	Create(ctx context.Context, tx *gorm.DB, cleaning *Cleaning) error
	Update(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) error
	ExistsForBooking(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID) (bool, error)
	CancelForBookings(ctx context.Context, tx *gorm.DB, bookingIDs []uuid.UUID) (int64, error)
	RescheduleForBooking(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID, date time.Time) (int64, error)
}

type cleaningRepository struct {
	log logger.Logger
}

func NewCleaningRepository() CleaningRepository {
	return &cleaningRepository{
		log: logger.New("cleaningRepository"),
	}
}

func (r *cleaningRepository) List(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
	filter CleaningFilter,
) ([]*Cleaning, error) {
	query := tx.WithContext(ctx).Preload("Property").Where("user_id = ?", userID)
	if filter.PropertyID != nil {
		query = query.Where("property_id = ?", *filter.PropertyID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("scheduled_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("scheduled_date < ?", *filter.To)
	}

	var cleanings []*Cleaning
	if err := query.Order("scheduled_date ASC").Find(&cleanings).Error; err != nil {
		return nil, r.log.Function("List").Err("failed to list cleanings", err, "userID", userID)
	}
	return cleanings, nil
}

func (r *cleaningRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	userID, id uuid.UUID,
) (*Cleaning, error) {
	var cleaning Cleaning
	err := tx.WithContext(ctx).
		Preload("Property").
		Preload("Booking").
		Where("id = ? AND user_id = ?", id, userID).
		First(&cleaning).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, r.log.Function("GetByID").
			Err("failed to get cleaning", err, "id", id, "userID", userID)
	}
	return &cleaning, nil
}

func (r *cleaningRepository) Create(ctx context.Context, tx *gorm.DB, cleaning *Cleaning) error {
	if err := tx.WithContext(ctx).Omit(clause.Associations).Create(cleaning).Error; err != nil {
		return r.log.Function("Create").
			Err("failed to create cleaning", err, "propertyID", cleaning.PropertyID)
	}
	return nil
}

func (r *cleaningRepository) Update(
	ctx context.Context,
	tx *gorm.DB,
	userID, id uuid.UUID,
	updates map[string]any,
) error {
	result := tx.WithContext(ctx).
		Model(&Cleaning{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if result.Error != nil {
		return r.log.Function("Update").
			Err("failed to update cleaning", result.Error, "id", id, "userID", userID)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *cleaningRepository) Delete(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) error {
	rowsAffected, err := gorm.G[*Cleaning](tx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(ctx)
	if err != nil {
		return r.log.Function("Delete").
			Err("failed to delete cleaning", err, "id", id, "userID", userID)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistsForBooking reports whether the booking has a cleaning that was not
// cancelled.
func (r *cleaningRepository) ExistsForBooking(
	ctx context.Context,
	tx *gorm.DB,
	bookingID uuid.UUID,
) (bool, error) {
	var count int64
	if err := tx.WithContext(ctx).
		Model(&Cleaning{}).
		Where("booking_id = ? AND status <> ?", bookingID, CleaningStatusCancelled).
		Count(&count).Error; err != nil {
		return false, r.log.Function("ExistsForBooking").
			Err("failed to check cleaning for booking", err, "bookingID", bookingID)
	}
	return count > 0, nil
}

// CancelForBookings cancels the still scheduled cleanings of the bookings.
// Cleanings already in progress or completed are left alone.
func (r *cleaningRepository) CancelForBookings(
	ctx context.Context,
	tx *gorm.DB,
	bookingIDs []uuid.UUID,
) (int64, error) {
	if len(bookingIDs) == 0 {
		return 0, nil
	}

	result := tx.WithContext(ctx).
		Model(&Cleaning{}).
		Where("booking_id IN ? AND status = ?", bookingIDs, CleaningStatusScheduled).
		Update("status", CleaningStatusCancelled)
	if result.Error != nil {
		return 0, r.log.Function("CancelForBookings").
			Err("failed to cancel cleanings", result.Error, "bookings", len(bookingIDs))
	}
	return result.RowsAffected, nil
}

// RescheduleForBooking moves the booking's scheduled cleanings to date.
func (r *cleaningRepository) RescheduleForBooking(
	ctx context.Context,
	tx *gorm.DB,
	bookingID uuid.UUID,
	date time.Time,
) (int64, error) {
	result := tx.WithContext(ctx).
		Model(&Cleaning{}).
		Where("booking_id = ? AND status = ?", bookingID, CleaningStatusScheduled).
		Update("scheduled_date", DateOnly(date))
	if result.Error != nil {
		return 0, r.log.Function("RescheduleForBooking").
			Err("failed to reschedule cleanings", result.Error, "bookingID", bookingID)
	}
	return result.RowsAffected, nil
}

package repositories

import (
	"context"
	"errors"
	"time"

	. "hostly/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GuestTokenRepository interface {
	Create(ctx context.Context, tx *gorm.DB, token *GuestCheckinToken) error
	GetByHash(ctx context.Context, tx *gorm.DB, tokenHash string) (*GuestCheckinToken, error)
	ListByBooking(ctx context.Context, tx *gorm.DB, userID, bookingID uuid.UUID) ([]*GuestCheckinToken, error)
	Revoke(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID, at time.Time) error
	MarkUsed(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) error
	DeleteExpiredBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type guestTokenRepository struct {
	log logger.Logger
}

func NewGuestTokenRepository() GuestTokenRepository {
	return &guestTokenRepository{
		log: logger.New("guestTokenRepository"),
	}
}

func (r *guestTokenRepository) Create(ctx context.Context, tx *gorm.DB, token *GuestCheckinToken) error {
	if err := tx.WithContext(ctx).Omit("Booking").Create(token).Error; err != nil {
		return r.log.Function("Create").
			Err("failed to create guest token", err, "bookingID", token.BookingID)
	}
	return nil
}

// GetByHash loads the token with its booking and property for the public
// check-in flow.
func (r *guestTokenRepository) GetByHash(
	ctx context.Context,
	tx *gorm.DB,
	tokenHash string,
) (*GuestCheckinToken, error) {
	var token GuestCheckinToken
	err := tx.WithContext(ctx).
		Preload("Booking").
		Preload("Booking.Property").
		Where("token_hash = ?", tokenHash).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, r.log.Function("GetByHash").Err("failed to get guest token", err)
	}
	return &token, nil
}

func (r *guestTokenRepository) ListByBooking(
	ctx context.Context,
	tx *gorm.DB,
	userID, bookingID uuid.UUID,
) ([]*GuestCheckinToken, error) {
	tokens, err := gorm.G[*GuestCheckinToken](tx).
		Where("user_id = ? AND booking_id = ?", userID, bookingID).
		Order("created_at DESC").
		Find(ctx)
	if err != nil {
		return nil, r.log.Function("ListByBooking").
			Err("failed to list guest tokens", err, "bookingID", bookingID)
	}
	return tokens, nil
}

func (r *guestTokenRepository) Revoke(
	ctx context.Context,
	tx *gorm.DB,
	userID, id uuid.UUID,
	at time.Time,
) error {
	result := tx.WithContext(ctx).
		Model(&GuestCheckinToken{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("revoked_at", gorm.Expr("COALESCE(revoked_at, ?)", at))
	if result.Error != nil {
		return r.log.Function("Revoke").Err("failed to revoke guest token", result.Error, "id", id)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *guestTokenRepository) MarkUsed(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) error {
	if err := tx.WithContext(ctx).
		Model(&GuestCheckinToken{}).
		Where("id = ?", id).
		Update("used_at", at).Error; err != nil {
		return r.log.Function("MarkUsed").Err("failed to mark guest token used", err, "id", id)
	}
	return nil
}

// DeleteExpiredBefore permanently removes tokens that expired before cutoff.
func (r *guestTokenRepository) DeleteExpiredBefore(
	ctx context.Context,
	tx *gorm.DB,
	cutoff time.Time,
) (int64, error) {
	result := tx.WithContext(ctx).
		Unscoped().
		Where("expires_at < ?", cutoff).
		Delete(&GuestCheckinToken{})
	if result.Error != nil {
		return 0, r.log.Function("DeleteExpiredBefore").
			Err("failed to purge expired guest tokens", result.Error, "cutoff", cutoff)
	}
	return result.RowsAffected, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GuestCheckinToken struct {
	BaseUUIDModel
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index"        json:"userId"`
	BookingID uuid.UUID  `gorm:"type:uuid;not null;index"        json:"bookingId"`
	TokenHash string     `gorm:"type:text;not null;uniqueIndex"  json:"-"`
	ExpiresAt time.Time  `gorm:"type:timestamp;not null;index"   json:"expiresAt"`
	RevokedAt *time.Time `gorm:"type:timestamp"                  json:"revokedAt,omitempty"`
	UsedAt    *time.Time `gorm:"type:timestamp"                  json:"usedAt,omitempty"`

	Booking *Booking `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
}

func (t *GuestCheckinToken) BeforeCreate(tx *gorm.DB) error {
	if err := t.ensureID(); err != nil {
		return err
	}
	if t.UserID == uuid.Nil || t.BookingID == uuid.Nil || t.TokenHash == "" {
		return ErrInvalidModel
	}
	return nil
}

func (t *GuestCheckinToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *GuestCheckinToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// Usable reports whether a guest may still use the token at now.
func (t *GuestCheckinToken) Usable(now time.Time) bool {
	return !t.IsRevoked() && !t.IsExpired(now)
}

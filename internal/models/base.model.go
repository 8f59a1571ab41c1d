package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInvalidModel = errors.New("invalid model")

type BaseUUIDModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"autoCreateTime"       json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"       json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index"                json:"deletedAt"`
}

func (b *BaseUUIDModel) ensureID() error {
	if b.ID != uuid.Nil {
		return nil
	}

	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

func (b *BaseUUIDModel) BeforeCreate(tx *gorm.DB) error {
	return b.ensureID()
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// All lists every persisted model in dependency order.
func All() []any {
	return []any{
		&UserProfile{},
		&Property{},
		&Booking{},
		&Cleaning{},
		&GuestCheckinToken{},
		&ReferralSiteConfig{},
		&CleaningEmailLog{},
	}
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CleaningEmailLog struct {
	BaseUUIDModel
	UserID            uuid.UUID   `gorm:"type:uuid;not null;index" json:"userId"`
	CleaningID        uuid.UUID   `gorm:"type:uuid;not null;index" json:"cleaningId"`
	PropertyID        uuid.UUID   `gorm:"type:uuid;not null"       json:"propertyId"`
	Recipient         string      `gorm:"type:text;not null"       json:"recipient"`
	Subject           string      `gorm:"type:text"                json:"subject"`
	Status            EmailStatus `gorm:"type:varchar(8);not null" json:"status"`
	ProviderMessageID string      `gorm:"type:text"                json:"providerMessageId,omitempty"`
	ErrorMessage      string      `gorm:"type:text"                json:"errorMessage,omitempty"`
	SentAt            time.Time   `gorm:"type:timestamp;not null"  json:"sentAt"`
}

func (l *CleaningEmailLog) BeforeCreate(tx *gorm.DB) error {
	if err := l.ensureID(); err != nil {
		return err
	}
	if l.UserID == uuid.Nil || l.CleaningID == uuid.Nil || l.Recipient == "" {
		return ErrInvalidModel
	}
	if l.SentAt.IsZero() {
		l.SentAt = time.Now().UTC()
	}
	return nil
}

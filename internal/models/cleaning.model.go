package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Cleaning struct {
	BaseUUIDModel
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_cleanings_user"  json:"userId"`
	PropertyID    uuid.UUID       `gorm:"type:uuid;not null;index"                     json:"propertyId"`
	BookingID     *uuid.UUID      `gorm:"type:uuid;index"                              json:"bookingId,omitempty"`
	ScheduledDate time.Time       `gorm:"type:date;not null;index"                     json:"scheduledDate"`
	Status        CleaningStatus  `gorm:"type:varchar(16);not null"                    json:"status"`
	CleanerName   string          `gorm:"type:text"                                    json:"cleanerName"`
	CleanerEmail  string          `gorm:"type:text"                                    json:"cleanerEmail"`
	Cost          decimal.Decimal `gorm:"type:decimal(12,2);default:0"                 json:"cost"`
	Notes         string          `gorm:"type:text"                                    json:"notes"`
	CompletedAt   *time.Time      `gorm:"type:timestamp"                               json:"completedAt,omitempty"`

	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	Booking  *Booking  `gorm:"foreignKey:BookingID"  json:"booking,omitempty"`
}

func (c *Cleaning) BeforeCreate(tx *gorm.DB) error {
	if err := c.ensureID(); err != nil {
		return err
	}
	if c.UserID == uuid.Nil || c.PropertyID == uuid.Nil || c.ScheduledDate.IsZero() {
		return ErrInvalidModel
	}
	if c.Status == "" {
		c.Status = CleaningStatusScheduled
	}
	return nil
}

// NewCleaningForBooking schedules a turnover on the booking's checkout day
// using the property's cleaner defaults.
func NewCleaningForBooking(property *Property, booking *Booking) *Cleaning {
	bookingID := booking.ID
	return &Cleaning{
		UserID:        booking.UserID,
		PropertyID:    booking.PropertyID,
		BookingID:     &bookingID,
		ScheduledDate: DateOnly(booking.CheckOut),
		Status:        CleaningStatusScheduled,
		CleanerName:   property.CleanerName,
		CleanerEmail:  property.CleanerEmail,
		Cost:          property.CleaningFee,
	}
}

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Booking struct {
	BaseUUIDModel
	UserID           uuid.UUID       `gorm:"type:uuid;not null;index:idx_bookings_user"                  json:"userId"`
	PropertyID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_bookings_property_dates,priority:1" json:"propertyId"`
	GuestName        string          `gorm:"type:text;not null"                                          json:"guestName"`
	GuestEmail       string          `gorm:"type:text"                                                   json:"guestEmail"`
	GuestPhone       string          `gorm:"type:text"                                                   json:"guestPhone"`
	PhoneLast4       string          `gorm:"type:varchar(4)"                                             json:"phoneLast4"`
	NumGuests        int             `gorm:"type:int;not null;default:1"                                 json:"numGuests"`
	CheckIn          time.Time       `gorm:"type:date;not null;index:idx_bookings_property_dates,priority:2" json:"checkIn"`
	CheckOut         time.Time       `gorm:"type:date;not null"                                          json:"checkOut"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(12,2);default:0"                                json:"totalAmount"`
	Currency         string          `gorm:"type:varchar(3)"                                             json:"currency"`
	Platform         Platform        `gorm:"type:varchar(16);not null;index"                             json:"platform"`
	Status           BookingStatus   `gorm:"type:varchar(16);not null;index"                             json:"status"`
	ConfirmationCode string          `gorm:"type:text"                                                   json:"confirmationCode"`
	Notes            string          `gorm:"type:text"                                                   json:"notes"`
	ArrivalTime      string          `gorm:"type:varchar(5)"                                             json:"arrivalTime"`
	Source           BookingSource   `gorm:"type:varchar(8);not null;default:'manual'"                   json:"source"`
	ExternalID       *string         `gorm:"type:text;uniqueIndex"                                       json:"externalId,omitempty"`
	LastSyncedAt     *time.Time      `gorm:"type:timestamp"                                              json:"lastSyncedAt,omitempty"`
	CheckedInAt      *time.Time      `gorm:"type:timestamp"                                              json:"checkedInAt,omitempty"`

	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if err := b.ensureID(); err != nil {
		return err
	}
	if b.UserID == uuid.Nil || b.PropertyID == uuid.Nil {
		return ErrInvalidModel
	}
	if strings.TrimSpace(b.GuestName) == "" {
		return ErrInvalidModel
	}
	if !b.CheckOut.After(b.CheckIn) {
		return ErrInvalidModel
	}
	if b.NumGuests < 1 {
		b.NumGuests = 1
	}
	if b.Status == "" {
		b.Status = BookingStatusConfirmed
	}
	if b.Platform == "" {
		b.Platform = PlatformDirect
	}
	if b.Source == "" {
		b.Source = BookingSourceManual
	}
	return nil
}

// Nights is the number of nights between check-in and check-out.
func (b *Booking) Nights() int {
	return int(DateOnly(b.CheckOut).Sub(DateOnly(b.CheckIn)).Hours() / 24)
}

// Overlaps reports whether the stay intersects the half-open range [from, to).
func (b *Booking) Overlaps(from, to time.Time) bool {
	return b.CheckIn.Before(to) && b.CheckOut.After(from)
}

package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	DefaultCheckInTime  = "15:00"
	DefaultCheckOutTime = "11:00"
)

type Property struct {
	BaseUUIDModel
	UserID               uuid.UUID       `gorm:"type:uuid;not null;index:idx_properties_user" json:"userId"`
	Name                 string          `gorm:"type:text;not null"                          json:"name"`
	Address              string          `gorm:"type:text"                                   json:"address"`
	City                 string          `gorm:"type:text"                                   json:"city"`
	Country              string          `gorm:"type:text"                                   json:"country"`
	Bedrooms             int             `gorm:"type:int;default:0"                          json:"bedrooms"`
	Bathrooms            int             `gorm:"type:int;default:0"                          json:"bathrooms"`
	MaxGuests            int             `gorm:"type:int;default:0"                          json:"maxGuests"`
	CheckInTime          string          `gorm:"type:varchar(5)"                             json:"checkInTime"`
	CheckOutTime         string          `gorm:"type:varchar(5)"                             json:"checkOutTime"`
	Currency             string          `gorm:"type:varchar(3)"                             json:"currency"`
	CleanerName          string          `gorm:"type:text"                                   json:"cleanerName"`
	CleanerEmail         string          `gorm:"type:text"                                   json:"cleanerEmail"`
	CleaningFee          decimal.Decimal `gorm:"type:decimal(12,2);default:0"                json:"cleaningFee"`
	AutoScheduleCleaning bool            `gorm:"type:bool;not null"                          json:"autoScheduleCleaning"`
	IsActive             bool            `gorm:"type:bool;not null"                          json:"isActive"`
	CalendarExportToken  string          `gorm:"type:text;index"                             json:"-"`
}

func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if err := p.ensureID(); err != nil {
		return err
	}
	if p.UserID == uuid.Nil || strings.TrimSpace(p.Name) == "" {
		return ErrInvalidModel
	}
	if p.CheckInTime == "" {
		p.CheckInTime = DefaultCheckInTime
	}
	if p.CheckOutTime == "" {
		p.CheckOutTime = DefaultCheckOutTime
	}
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	return nil
}

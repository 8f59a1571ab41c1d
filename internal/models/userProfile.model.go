package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultCurrency = "USD"
	DefaultTimezone = "UTC"
)

// UserProfile is keyed by the auth subject, so the id is assigned by the
// caller rather than generated.
type UserProfile struct {
	BaseUUIDModel
	Email        string `gorm:"type:text;index"             json:"email"`
	FullName     string `gorm:"type:text"                   json:"fullName"`
	CompanyName  string `gorm:"type:text"                   json:"companyName"`
	Phone        string `gorm:"type:text"                   json:"phone"`
	BaseCurrency string `gorm:"type:varchar(3);not null"    json:"baseCurrency"`
	Timezone     string `gorm:"type:text;not null"          json:"timezone"`
	IsAdmin      bool   `gorm:"type:bool;default:false"     json:"isAdmin"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

func (u *UserProfile) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		return ErrInvalidModel
	}
	if u.BaseCurrency == "" {
		u.BaseCurrency = DefaultCurrency
	}
	if u.Timezone == "" {
		u.Timezone = DefaultTimezone
	}
	return nil
}

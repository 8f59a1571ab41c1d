package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SyncStats summarizes one calendar sync run for a source.
type SyncStats struct {
	Fetched  int      `json:"fetched"`
	Imported int      `json:"imported"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Deleted  int      `json:"deleted"`
	Errors   []string `json:"errors,omitempty"`
}

type ReferralSiteConfig struct {
	BaseUUIDModel
	UserID            uuid.UUID                     `gorm:"type:uuid;not null;uniqueIndex:idx_referral_site_unique,priority:1" json:"userId"`
	PropertyID        uuid.UUID                     `gorm:"type:uuid;not null;uniqueIndex:idx_referral_site_unique,priority:2" json:"propertyId"`
	Platform          Platform                      `gorm:"type:varchar(16);not null;uniqueIndex:idx_referral_site_unique,priority:3" json:"platform"`
	ICSURL            string                        `gorm:"column:ics_url;type:text"                                          json:"icsUrl"`
	Username          string                        `gorm:"type:text"                                                         json:"username"`
	EncryptedPassword string                        `gorm:"type:text"                                                         json:"-"`
	APIKey            string                        `gorm:"column:api_key;type:text"                                          json:"-"`
	SyncEnabled       bool                          `gorm:"type:bool;not null"                                                json:"syncEnabled"`
	LastSyncedAt      *time.Time                    `gorm:"type:timestamp"                                                    json:"lastSyncedAt,omitempty"`
	LastSyncStatus    SyncStatus                    `gorm:"type:varchar(16)"                                                  json:"lastSyncStatus,omitempty"`
	LastSyncError     string                        `gorm:"type:text"                                                         json:"lastSyncError,omitempty"`
	LastSyncStats     datatypes.JSONType[SyncStats] `gorm:"type:json"                                                         json:"lastSyncStats"`

	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}

func (r *ReferralSiteConfig) BeforeCreate(tx *gorm.DB) error {
	if err := r.ensureID(); err != nil {
		return err
	}
	if r.UserID == uuid.Nil || r.PropertyID == uuid.Nil || !r.Platform.Valid() {
		return ErrInvalidModel
	}
	return nil
}

// HasPassword reports whether a stored password exists without exposing it.
func (r *ReferralSiteConfig) HasPassword() bool {
	return r.EncryptedPassword != ""
}

func (r *ReferralSiteConfig) HasAPIKey() bool {
	return r.APIKey != ""
}

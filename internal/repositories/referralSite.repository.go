package repositories

import (
	"context"
	"errors"
	"time"

	. "hostly/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReferralSiteRepository interface {
	List(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*ReferralSiteConfig, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*ReferralSiteConfig, error)
	GetByPropertyPlatform(
		ctx context.Context,
		tx *gorm.DB,
		userID, propertyID uuid.UUID,
		platform Platform,
	) (*ReferralSiteConfig, error)
	Save(ctx context.Context, tx *gorm.DB, config *ReferralSiteConfig) error
	Delete(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) error
	ListSyncEnabled(ctx context.Context, tx *gorm.DB, userID uuid.UUID, propertyID *uuid.UUID) ([]*ReferralSiteConfig, error)
	ListUserIDsWithSyncEnabled(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error)
	RecordSync(
		ctx context.Context,
		tx *gorm.DB,
		id uuid.UUID,
		status SyncStatus,
		syncErr string,
		stats SyncStats,
		at time.Time,
	) error
}

type referralSiteRepository struct {
	log logger.Logger
}

func NewReferralSiteRepository() ReferralSiteRepository {
	return &referralSiteRepository{
		log: logger.New("referralSiteRepository"),
	}
}

func (r *referralSiteRepository) List(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
) ([]*ReferralSiteConfig, error) {
	configs, err := gorm.G[*ReferralSiteConfig](tx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(ctx)
	if err != nil {
		return nil, r.log.Function("List").Err("failed to list referral sites", err, "userID", userID)
	}
	return configs, nil
}

func (r *referralSiteRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	userID, id uuid.UUID,
) (*ReferralSiteConfig, error) {
	config, err := gorm.G[*ReferralSiteConfig](tx).
		Where("id = ? AND user_id = ?", id, userID).
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, r.log.Function("GetByID").Err("failed to get referral site", err, "id", id)
	}
	return config, nil
}

func (r *referralSiteRepository) GetByPropertyPlatform(
	ctx context.Context,
	tx *gorm.DB,
	userID, propertyID uuid.UUID,
	platform Platform,
) (*ReferralSiteConfig, error) {
	config, err := gorm.G[*ReferralSiteConfig](tx).
		Where("user_id = ? AND property_id = ? AND platform = ?", userID, propertyID, platform).
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, r.log.Function("GetByPropertyPlatform").
			Err("failed to get referral site", err, "propertyID", propertyID, "platform", platform)
	}
	return config, nil
}

// Save creates or fully updates a config.
func (r *referralSiteRepository) Save(ctx context.Context, tx *gorm.DB, config *ReferralSiteConfig) error {
	if err := tx.WithContext(ctx).Omit(clause.Associations).Save(config).Error; err != nil {
		return r.log.Function("Save").
			Err("failed to save referral site", err, "propertyID", config.PropertyID, "platform", config.Platform)
	}
	return nil
}

// Delete removes the row permanently so the (user, property, platform) slot
// can be reused.
func (r *referralSiteRepository) Delete(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) error {
	result := tx.WithContext(ctx).
		Unscoped().
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&ReferralSiteConfig{})
	if result.Error != nil {
		return r.log.Function("Delete").Err("failed to delete referral site", result.Error, "id", id)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *referralSiteRepository) ListSyncEnabled(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
	propertyID *uuid.UUID,
) ([]*ReferralSiteConfig, error) {
	query := tx.WithContext(ctx).
		Preload("Property").
		Where("user_id = ? AND sync_enabled = ? AND ics_url <> ''", userID, true)
	if propertyID != nil {
		query = query.Where("property_id = ?", *propertyID)
	}

	var configs []*ReferralSiteConfig
	if err := query.Order("created_at ASC").Find(&configs).Error; err != nil {
		return nil, r.log.Function("ListSyncEnabled").
			Err("failed to list sync enabled referral sites", err, "userID", userID)
	}
	return configs, nil
}

func (r *referralSiteRepository) ListUserIDsWithSyncEnabled(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error) {
	log := r.log.Function("ListUserIDsWithSyncEnabled")

	var rawIDs []string
	if err := tx.WithContext(ctx).
		Model(&ReferralSiteConfig{}).
		Where("sync_enabled = ? AND ics_url <> ''", true).
		Distinct().
		Pluck("user_id", &rawIDs).Error; err != nil {
		return nil, log.Err("failed to list users with calendar sync", err)
	}

	userIDs := make([]uuid.UUID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			log.Warn("skipping malformed user id", "userID", raw, "error", err)
			continue
		}
		userIDs = append(userIDs, id)
	}
	return userIDs, nil
}

func (r *referralSiteRepository) RecordSync(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	status SyncStatus,
	syncErr string,
	stats SyncStats,
	at time.Time,
) error {
	if err := tx.WithContext(ctx).
		Model(&ReferralSiteConfig{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_synced_at":   at,
			"last_sync_status": status,
			"last_sync_error":  syncErr,
			"last_sync_stats":  datatypes.NewJSONType(stats),
		}).Error; err != nil {
		return r.log.Function("RecordSync").Err("failed to record sync result", err, "id", id)
	}
	return nil
}

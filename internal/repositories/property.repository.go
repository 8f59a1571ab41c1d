package repositories

import (
	"context"
	"errors"
	"time"

	"hostly/internal/database"
	. "hostly/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	PROPERTIES_CACHE_PREFIX        = "properties"
	PROPERTIES_ACTIVE_CACHE_PREFIX = "properties_active"
	PROPERTIES_KEYS_PREFIX         = "properties_keys"
	PROPERTIES_CACHE_EXPIRY        = 24 * time.Hour
)

type PropertyRepository interface {
	List(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*Property, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*Property, error)
	GetForExport(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Property, error)
	Create(ctx context.Context, tx *gorm.DB, property *Property) error
	Update(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) error
	CountActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	LockForUpdate(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) error
}

type propertyRepository struct {
	cache database.CacheClient
	log   logger.Logger
}

func NewPropertyRepository(cache database.CacheClient) PropertyRepository {
	return &propertyRepository{
		cache: cache,
		log:   logger.New("propertyRepository"),
	}
}

func (r *propertyRepository) List(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
) ([]*Property, error) {
	log := r.log.Function("List")

	var cached []*Property
	if r.getCached(ctx, userID, PROPERTIES_CACHE_PREFIX, &cached) {
		return cached, nil
	}

	properties, err := gorm.G[*Property](tx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(ctx)
	if err != nil {
		return nil, log.Err("failed to list properties", err, "userID", userID)
	}

	r.setCached(ctx, userID, PROPERTIES_CACHE_PREFIX, properties)
	return properties, nil
}

func (r *propertyRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	userID, id uuid.UUID,
) (*Property, error) {
	property, err := gorm.G[*Property](tx).
		Where("id = ? AND user_id = ?", id, userID).
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, r.log.Function("GetByID").
			Err("failed to get property", err, "id", id, "userID", userID)
	}
	return property, nil
}

// GetForExport loads a property without user scoping. Callers must check the
// export token before returning anything.
func (r *propertyRepository) GetForExport(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Property, error) {
	property, err := gorm.G[*Property](tx).Where("id = ?", id).First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, r.log.Function("GetForExport").Err("failed to get property", err, "id", id)
	}
	return property, nil
}

func (r *propertyRepository) Create(ctx context.Context, tx *gorm.DB, property *Property) error {
	if err := tx.WithContext(ctx).Create(property).Error; err != nil {
		return r.log.Function("Create").
			Err("failed to create property", err, "userID", property.UserID)
	}

	r.clearCache(ctx, property.UserID)
	return nil
}

func (r *propertyRepository) Update(
	ctx context.Context,
	tx *gorm.DB,
	userID, id uuid.UUID,
	updates map[string]any,
) error {
	log := r.log.Function("Update")

	result := tx.WithContext(ctx).
		Model(&Property{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if result.Error != nil {
		return log.Err("failed to update property", result.Error, "id", id, "userID", userID)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	r.clearCache(ctx, userID)
	return nil
}

func (r *propertyRepository) Delete(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) error {
	rowsAffected, err := gorm.G[*Property](tx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(ctx)
	if err != nil {
		return r.log.Function("Delete").
			Err("failed to delete property", err, "id", id, "userID", userID)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	r.clearCache(ctx, userID)
	return nil
}

func (r *propertyRepository) CountActive(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
) (int64, error) {
	var count int64
	if r.getCached(ctx, userID, PROPERTIES_ACTIVE_CACHE_PREFIX, &count) {
		return count, nil
	}

	if err := tx.WithContext(ctx).
		Model(&Property{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&count).Error; err != nil {
		return 0, r.log.Function("CountActive").
			Err("failed to count active properties", err, "userID", userID)
	}

	r.setCached(ctx, userID, PROPERTIES_ACTIVE_CACHE_PREFIX, count)
	return count, nil
}

// LockForUpdate holds a row lock on the property until tx ends, so booking
// writes on the same property are serialized.
func (r *propertyRepository) LockForUpdate(
	ctx context.Context,
	tx *gorm.DB,
	userID, id uuid.UUID,
) error {
	var property Property
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Select("id").
		Where("id = ? AND user_id = ?", id, userID).
		First(&property).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return r.log.Function("LockForUpdate").
			Err("failed to lock property", err, "id", id, "userID", userID)
	}
	return nil
}

func (r *propertyRepository) getCached(ctx context.Context, userID uuid.UUID, prefix string, out any) bool {
	found, err := database.NewCacheBuilder(r.cache, userID).
		WithContext(ctx).
		WithHash(prefix).
		Get(out)
	if err != nil && !errors.Is(err, database.ErrCacheDisabled) {
		r.log.Function("getCached").
			Warn("failed to read properties cache", "userID", userID, "prefix", prefix, "error", err)
	}
	return found
}

// setCached stores value and records its key in the user's key set so
// clearCache can find every entry.
func (r *propertyRepository) setCached(ctx context.Context, userID uuid.UUID, prefix string, value any) {
	log := r.log.Function("setCached")

	entry := database.NewCacheBuilder(r.cache, userID).
		WithContext(ctx).
		WithHash(prefix).
		WithStruct(value).
		WithTTL(PROPERTIES_CACHE_EXPIRY)
	if err := entry.Set(); err != nil {
		if !errors.Is(err, database.ErrCacheDisabled) {
			log.Warn("failed to cache properties", "userID", userID, "prefix", prefix, "error", err)
		}
		return
	}

	err := database.NewCacheBuilder(r.cache, userID).
		WithContext(ctx).
		WithHash(PROPERTIES_KEYS_PREFIX).
		WithMember(entry.Key()).
		SetSadd()
	if err != nil {
		log.Warn("failed to track properties cache key", "userID", userID, "key", entry.Key(), "error", err)
	}
}

// clearCache drops every tracked entry of the user. Keys are removed from the
// set one by one so an entry cached concurrently stays tracked.
func (r *propertyRepository) clearCache(ctx context.Context, userID uuid.UUID) {
	log := r.log.Function("clearCache")

	keys, err := database.NewCacheBuilder(r.cache, userID).
		WithContext(ctx).
		WithHash(PROPERTIES_KEYS_PREFIX).
		GetSetMembers()
	if err != nil {
		if !errors.Is(err, database.ErrCacheDisabled) {
			log.Warn("failed to read properties cache keys", "userID", userID, "error", err)
		}
		return
	}

	for _, key := range keys {
		if err := database.NewCacheBuilder(r.cache, key).WithContext(ctx).Delete(); err != nil {
			log.Warn("failed to clear properties cache", "userID", userID, "key", key, "error", err)
			continue
		}
		err := database.NewCacheBuilder(r.cache, userID).
			WithContext(ctx).
			WithHash(PROPERTIES_KEYS_PREFIX).
			WithMember(key).
			RemoveSetMember()
		if err != nil {
			log.Warn("failed to untrack properties cache key", "userID", userID, "key", key, "error", err)
		}
	}
}

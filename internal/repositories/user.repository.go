package repositories

import (
	"context"
	"errors"

	"hostly/internal/constants"
	"hostly/internal/database"
	. "hostly/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*UserProfile, error)
	FindOrCreate(ctx context.Context, tx *gorm.DB, profile *UserProfile) (*UserProfile, error)
	Update(ctx context.Context, tx *gorm.DB, profile *UserProfile) error
}

type userRepository struct {
	cache database.CacheClient
	log   logger.Logger
}

func NewUserRepository(cache database.CacheClient) UserRepository {
	return &userRepository{
		cache: cache,
		log:   logger.New("userRepository"),
	}
}

func (r *userRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*UserProfile, error) {
	log := r.log.Function("GetByID")

	var cached UserProfile
	found, err := database.NewCacheBuilder(r.cache, id).
		WithContext(ctx).
		WithHash(constants.UserCachePrefix).
		Get(&cached)
	if err != nil && !errors.Is(err, database.ErrCacheDisabled) {
		log.Warn("failed to get user from cache", "userID", id, "error", err)
	}
	if found {
		return &cached, nil
	}

	profile, err := gorm.G[*UserProfile](tx).Where("id = ?", id).First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, log.Err("failed to get user by id", err, "userID", id)
	}

	r.addToCache(ctx, profile)
	return profile, nil
}

// FindOrCreate returns the stored profile for the auth subject, creating it on
// first sight. A changed email claim is written back.
func (r *userRepository) FindOrCreate(
	ctx context.Context,
	tx *gorm.DB,
	profile *UserProfile,
) (*UserProfile, error) {
	log := r.log.Function("FindOrCreate")

	existing, err := r.GetByID(ctx, tx, profile.ID)
	if err == nil {
		if profile.Email != "" && existing.Email != profile.Email {
			existing.Email = profile.Email
			if err := r.Update(ctx, tx, existing); err != nil {
				log.Warn("failed to sync user email", "userID", existing.ID, "error", err)
			}
		}
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if err := tx.WithContext(ctx).Create(profile).Error; err != nil {
		return nil, log.Err("failed to create user profile", err, "userID", profile.ID)
	}

	log.Info("Created user profile", "userID", profile.ID)
	r.addToCache(ctx, profile)
	return profile, nil
}

func (r *userRepository) Update(ctx context.Context, tx *gorm.DB, profile *UserProfile) error {
	log := r.log.Function("Update")

	if err := tx.WithContext(ctx).Save(profile).Error; err != nil {
		return log.Err("failed to update user", err, "userID", profile.ID)
	}

	r.clearCache(ctx, profile.ID)
	return nil
}

func (r *userRepository) addToCache(ctx context.Context, profile *UserProfile) {
	err := database.NewCacheBuilder(r.cache, profile.ID).
		WithContext(ctx).
		WithHash(constants.UserCachePrefix).
		WithStruct(profile).
		WithTTL(constants.UserCacheExpiry).
		Set()
	if err != nil && !errors.Is(err, database.ErrCacheDisabled) {
		r.log.Function("addToCache").Warn("failed to add user to cache", "userID", profile.ID, "error", err)
	}
}

func (r *userRepository) clearCache(ctx context.Context, userID uuid.UUID) {
	err := database.NewCacheBuilder(r.cache, userID).
		WithContext(ctx).
		WithHash(constants.UserCachePrefix).
		Delete()
	if err != nil && !errors.Is(err, database.ErrCacheDisabled) {
		r.log.Function("clearCache").Warn("failed to clear user cache", "userID", userID, "error", err)
	}
}

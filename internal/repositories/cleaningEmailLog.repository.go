package repositories

import (
	"context"

	. "hostly/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CleaningEmailLogRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *CleaningEmailLog) error
	List(ctx context.Context, tx *gorm.DB, userID uuid.UUID, cleaningID *uuid.UUID) ([]*CleaningEmailLog, error)
}

type cleaningEmailLogRepository struct {
	log logger.Logger
}

func NewCleaningEmailLogRepository() CleaningEmailLogRepository {
	return &cleaningEmailLogRepository{
		log: logger.New("cleaningEmailLogRepository"),
	}
}

func (r *cleaningEmailLogRepository) Create(ctx context.Context, tx *gorm.DB, entry *CleaningEmailLog) error {
	if err := gorm.G[CleaningEmailLog](tx).Create(ctx, entry); err != nil {
		return r.log.Function("Create").
			Err("failed to record cleaning email", err, "cleaningID", entry.CleaningID)
	}
	return nil
}

func (r *cleaningEmailLogRepository) List(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
	cleaningID *uuid.UUID,
) ([]*CleaningEmailLog, error) {
	query := gorm.G[*CleaningEmailLog](tx).Where("user_id = ?", userID)
	if cleaningID != nil {
		query = query.Where("cleaning_id = ?", *cleaningID)
	}

	entries, err := query.Order("sent_at DESC").Find(ctx)
	if err != nil {
		return nil, r.log.Function("List").Err("failed to list cleaning emails", err, "userID", userID)
	}
	return entries, nil
}

package initialize

import (
	. "hostly/internal/models"
	"hostly/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

func InitializeTables(db *gorm.DB, log logger.Logger) error {
	log = log.Function("InitializeTables")
	log.Info("Initializing essential data")

	if err := backfillExportTokens(db, log); err != nil {
		return log.Err("failed to backfill export tokens", err)
	}

	log.Info("Table initialization complete")
	return nil
}

// backfillExportTokens gives every property without a calendar export token
// a fresh one so its export URL can be shared.
func backfillExportTokens(db *gorm.DB, log logger.Logger) error {
	var properties []Property
	if err := db.Where("calendar_export_token = '' OR calendar_export_token IS NULL").
		Find(&properties).Error; err != nil {
		return log.Err("failed to find properties without export token", err)
	}

	for _, property := range properties {
		token, err := utils.GenerateToken()
		if err != nil {
			return log.Err("failed to generate export token", err, "propertyID", property.ID)
		}
		if err := db.Model(&Property{}).
			Where("id = ?", property.ID).
			Update("calendar_export_token", token).Error; err != nil {
			return log.Err("failed to store export token", err, "propertyID", property.ID)
		}
	}

	if len(properties) > 0 {
		log.Info("Backfilled calendar export tokens", "count", len(properties))
	}
	return nil
}

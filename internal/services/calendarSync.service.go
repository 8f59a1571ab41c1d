package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hostly/config"
	"hostly/internal/calendar"
	"hostly/internal/database"
	"hostly/internal/events"
	"hostly/internal/models"
	"hostly/internal/repositories"
	"hostly/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const (
	MaxFeedBytes       = 10 << 20
	feedUserAgent      = "hostly-calendar-sync/1.0"
	upsertSavepoint    = "calendar_upsert"
	defaultSyncTimeout = 15 * time.Second
)

var (
	ErrInvalidFeedURL  = errors.New("invalid calendar feed url")
	ErrFeedUnavailable = errors.New("calendar feed unavailable")
	ErrFeedTooLarge    = errors.New("calendar feed exceeds size limit")
	ErrNoFeedURL       = errors.New("referral site has no calendar url")
)

// SyncResult reports one source's sync. The embedded stats are persisted on
// the referral site config as its last sync stats.
type SyncResult struct {
	ConfigID   uuid.UUID         `json:"configId"`
	PropertyID uuid.UUID         `json:"propertyId"`
	Platform   models.Platform   `json:"platform"`
	Status     models.SyncStatus `json:"status"`
	Error      string            `json:"error,omitempty"`
	models.SyncStats
}

type feedCredentials struct {
	username string
	password string
}

type CalendarSyncService struct {
	db          database.DB
	repos       repositories.Repository
	transaction *TransactionService
	publisher   events.Publisher
	client      *http.Client
	limiter     *rate.Limiter
	cipher      *utils.Cipher
	timeout     time.Duration
	log         logger.Logger
	now         func() time.Time
}

func NewCalendarSyncService(
	db database.DB,
	repos repositories.Repository,
	transaction *TransactionService,
	publisher events.Publisher,
	cfg config.Config,
) *CalendarSyncService {
	timeout := time.Duration(cfg.CalendarSyncTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultSyncTimeout
	}

	limit := rate.Inf
	if cfg.CalendarSyncRatePerSec > 0 {
		limit = rate.Limit(cfg.CalendarSyncRatePerSec)
	}

	return &CalendarSyncService{
		db:          db,
		repos:       repos,
		transaction: transaction,
		publisher:   publisher,
		client:      &http.Client{},
		limiter:     rate.NewLimiter(limit, 1),
		cipher:      utils.NewCipher(cfg.EncryptionKey),
		timeout:     timeout,
		log:         logger.New("CalendarSyncService"),
		now:         time.Now,
	}
}

// SyncAllUsers runs every enabled source of every user. It is the scheduled
// entry point and only fails when the user list cannot be read.
func (s *CalendarSyncService) SyncAllUsers(ctx context.Context) (models.SyncStats, error) {
	log := s.log.Function("SyncAllUsers")

	var total models.SyncStats
	userIDs, err := s.repos.ReferralSite.ListUserIDsWithSyncEnabled(ctx, s.db.SQL)
	if err != nil {
		return total, err
	}

	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}

		results, err := s.SyncUser(ctx, userID, nil)
		if err != nil {
			log.Warn("calendar sync failed for user", "userID", userID, "error", err)
			continue
		}
		for _, result := range results {
			total = addStats(total, result.SyncStats)
		}
	}

	log.Info(
		"calendar sync finished",
		"users", len(userIDs),
		"imported", total.Imported,
		"updated", total.Updated,
		"deleted", total.Deleted,
		"errors", len(total.Errors),
	)
	return total, nil
}

// SyncUser runs the user's enabled sources one after another. A failing source
// is recorded in its result and the next source still runs.
func (s *CalendarSyncService) SyncUser(
	ctx context.Context,
	userID uuid.UUID,
	propertyID *uuid.UUID,
) ([]*SyncResult, error) {
	log := s.log.Function("SyncUser")

	configs, err := s.repos.ReferralSite.ListSyncEnabled(ctx, s.db.SQL, userID, propertyID)
	if err != nil {
		return nil, err
	}

	results := make([]*SyncResult, 0, len(configs))
	for i, cfg := range configs {
		s.publish(userID, events.CALENDAR_SYNC_PROGRESS, map[string]any{
			"configId":   cfg.ID.String(),
			"propertyId": cfg.PropertyID.String(),
			"platform":   cfg.Platform,
			"current":    i + 1,
			"total":      len(configs),
		})

		result, err := s.SyncSource(ctx, cfg)
		if err != nil {
			log.Warn("calendar source failed", "configID", cfg.ID, "error", err)
		}
		results = append(results, result)
	}

	return results, nil
}

// SyncConfig syncs a single source owned by userID.
func (s *CalendarSyncService) SyncConfig(ctx context.Context, userID, configID uuid.UUID) (*SyncResult, error) {
	cfg, err := s.repos.ReferralSite.GetByID(ctx, s.db.SQL, userID, configID)
	if err != nil {
		return nil, err
	}
	return s.SyncSource(ctx, cfg)
}

// SyncSource fetches one feed and reconciles it with the stored bookings. The
// result is always returned, with its status and error recorded on the config.
func (s *CalendarSyncService) SyncSource(
	ctx context.Context,
	cfg *models.ReferralSiteConfig,
) (*SyncResult, error) {
	log := s.log.Function("SyncSource")

	result := &SyncResult{
		ConfigID:   cfg.ID,
		PropertyID: cfg.PropertyID,
		Platform:   cfg.Platform,
		Status:     models.SyncStatusSuccess,
	}

	err := s.syncSource(ctx, cfg, result)
	if err != nil {
		result.Status = models.SyncStatusFailed
		result.Error = err.Error()
	} else if len(result.Errors) > 0 {
		result.Status = models.SyncStatusPartial
	}

	if recordErr := s.repos.ReferralSite.RecordSync(
		ctx,
		s.db.SQL,
		cfg.ID,
		result.Status,
		result.Error,
		result.SyncStats,
		s.now().UTC(),
	); recordErr != nil {
		log.Warn("failed to record sync result", "configID", cfg.ID, "error", recordErr)
	}

	if err != nil {
		s.publish(cfg.UserID, events.CALENDAR_SYNC_ERROR, map[string]any{
			"configId":   cfg.ID.String(),
			"propertyId": cfg.PropertyID.String(),
			"platform":   cfg.Platform,
			"error":      result.Error,
		})
		return result, err
	}

	s.publish(cfg.UserID, events.CALENDAR_SYNC_COMPLETE, map[string]any{
		"configId":   cfg.ID.String(),
		"propertyId": cfg.PropertyID.String(),
		"platform":   cfg.Platform,
		"status":     result.Status,
		"stats":      result.SyncStats,
	})

	log.Info(
		"calendar source synced",
		"configID", cfg.ID,
		"platform", cfg.Platform,
		"fetched", result.Fetched,
		"imported", result.Imported,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"deleted", result.Deleted,
		"errors", len(result.Errors),
	)
	return result, nil
}

func (s *CalendarSyncService) syncSource(
	ctx context.Context,
	cfg *models.ReferralSiteConfig,
	result *SyncResult,
) error {
	log := s.log.Function("syncSource")

	if strings.TrimSpace(cfg.ICSURL) == "" {
		return ErrNoFeedURL
	}

	property := cfg.Property
	if property == nil {
		var err error
		if property, err = s.repos.Property.GetByID(ctx, s.db.SQL, cfg.UserID, cfg.PropertyID); err != nil {
			return err
		}
	}

	platform := cfg.Platform
	if !platform.Valid() || platform == models.PlatformOther {
		platform = calendar.DetectPlatform(cfg.ICSURL)
	}

	credentials, err := s.credentialsFor(cfg)
	if err != nil {
		return err
	}

	body, err := s.fetch(ctx, cfg.ICSURL, credentials)
	if err != nil {
		return err
	}

	parsed, err := calendar.Parse(bytes.NewReader(body), platform)
	if err != nil {
		return log.Err("failed to parse calendar feed", err, "configID", cfg.ID)
	}
	result.Fetched = len(parsed.Events) + len(parsed.Skipped)
	result.Skipped = len(parsed.Skipped)

	existing, err := s.repos.Booking.ListByExternalPrefix(
		ctx,
		s.db.SQL,
		cfg.UserID,
		calendar.ExternalIDPrefix(platform, property.ID),
	)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	plan := calendar.Plan(calendar.Source{
		UserID:     cfg.UserID,
		PropertyID: property.ID,
		Platform:   platform,
		Currency:   property.Currency,
	}, parsed.Events, existing, now)
	result.Skipped += len(plan.Skipped)

	err = s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return s.apply(ctx, tx, property, plan, now, result)
	})
	if err != nil {
		// Nothing was written.
		result.Imported, result.Updated, result.Deleted = 0, 0, 0
		result.Errors = nil
	}
	return err
}

// apply writes the plan. Each upsert runs under a savepoint so one bad row is
// counted as an error without aborting the rest of the feed.
func (s *CalendarSyncService) apply(
	ctx context.Context,
	tx *gorm.DB,
	property *models.Property,
	plan calendar.Reconciliation,
	now time.Time,
	result *SyncResult,
) error {
	log := s.log.Function("apply")
	today := models.DateOnly(now)

	for _, planned := range plan.Upserts {
		booking := planned.Booking
		booking.LastSyncedAt = &now

		if err := tx.SavePoint(upsertSavepoint).Error; err != nil {
			return log.Err("failed to create savepoint", err)
		}
		if err := s.repos.Booking.Upsert(ctx, tx, &booking); err != nil {
			if rollbackErr := tx.RollbackTo(upsertSavepoint).Error; rollbackErr != nil {
				return log.Err("failed to roll back to savepoint", rollbackErr)
			}
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", externalUID(booking), err))
			continue
		}

		if !planned.IsNew() {
			result.Updated++
			if err := s.followCleanings(ctx, tx, property, planned, &booking, today); err != nil {
				return err
			}
			continue
		}
		result.Imported++

		if !property.AutoScheduleCleaning || booking.CheckOut.Before(today) {
			continue
		}
		if err := s.scheduleCleaning(ctx, tx, property, &booking); err != nil {
			log.Warn("failed to schedule cleaning", "bookingID", booking.ID, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: cleaning not scheduled", externalUID(booking)))
		}
	}

	deleted, err := s.repos.Booking.SoftDeleteByIDs(ctx, tx, property.UserID, plan.Deletions)
	if err != nil {
		return err
	}
	result.Deleted = int(deleted)

	cancelled, err := s.repos.Cleaning.CancelForBookings(ctx, tx, plan.Deletions)
	if err != nil {
		return err
	}
	if cancelled > 0 {
		log.Info("cancelled cleanings of removed stays", "propertyID", property.ID, "count", cancelled)
	}

	return nil
}

// followCleanings moves the scheduled turnover of an updated stay to its
// checkout. A revived stay gets a new cleaning since its old one was
// cancelled when the stay left the feed.
func (s *CalendarSyncService) followCleanings(
	ctx context.Context,
	tx *gorm.DB,
	property *models.Property,
	planned calendar.PlannedBooking,
	booking *models.Booking,
	today time.Time,
) error {
	if _, err := s.repos.Cleaning.RescheduleForBooking(ctx, tx, booking.ID, booking.CheckOut); err != nil {
		return err
	}
	if !planned.Revived || !property.AutoScheduleCleaning || booking.CheckOut.Before(today) {
		return nil
	}
	return s.scheduleCleaning(ctx, tx, property, booking)
}

func (s *CalendarSyncService) scheduleCleaning(
	ctx context.Context,
	tx *gorm.DB,
	property *models.Property,
	booking *models.Booking,
) error {
	exists, err := s.repos.Cleaning.ExistsForBooking(ctx, tx, booking.ID)
	if err != nil || exists {
		return err
	}
	return s.repos.Cleaning.Create(ctx, tx, models.NewCleaningForBooking(property, booking))
}

// credentialsFor returns the basic auth pair for feeds behind a login. It is
// nil unless both a username and a stored password exist.
func (s *CalendarSyncService) credentialsFor(cfg *models.ReferralSiteConfig) (*feedCredentials, error) {
	if cfg.Username == "" || !cfg.HasPassword() {
		return nil, nil
	}

	password, err := s.cipher.Decrypt(cfg.EncryptedPassword)
	if err != nil {
		return nil, s.log.Function("credentialsFor").
			Err("failed to decrypt feed password", err, "configID", cfg.ID)
	}
	return &feedCredentials{username: cfg.Username, password: password}, nil
}

func (s *CalendarSyncService) fetch(
	ctx context.Context,
	rawURL string,
	credentials *feedCredentials,
) ([]byte, error) {
	log := s.log.Function("fetch")

	feedURL, err := NormalizeFeedURL(rawURL)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, log.Err("rate limiter wait cancelled", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFeedURL, err)
	}
	req.Header.Set("User-Agent", feedUserAgent)
	req.Header.Set("Accept", "text/calendar, */*;q=0.5")
	if credentials != nil {
		req.SetBasicAuth(credentials.username, credentials.password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		log.Warn("calendar feed request failed", "host", req.URL.Host, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		log.Warn("calendar feed returned an error", "host", req.URL.Host, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrFeedUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxFeedBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	if len(body) > MaxFeedBytes {
		return nil, ErrFeedTooLarge
	}

	return body, nil
}

// NormalizeFeedURL accepts http, https and webcal urls and returns the url to
// request.
func NormalizeFeedURL(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFeedURL, err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	case "webcal", "webcals":
		parsed.Scheme = "https"
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidFeedURL, parsed.Scheme)
	}

	if parsed.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidFeedURL)
	}

	return parsed.String(), nil
}

func (s *CalendarSyncService) publish(userID uuid.UUID, eventType events.MessageType, data map[string]any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(events.CALENDAR_SYNC_CHANNEL, events.Event{
		Type:   eventType,
		UserID: &userID,
		Data:   data,
	}); err != nil {
		s.log.Function("publish").Warn("failed to publish sync event", "type", eventType, "error", err)
	}
}

// externalUID returns the feed uid part of a synced booking's external id.
func externalUID(booking models.Booking) string {
	if booking.ExternalID == nil {
		return ""
	}
	parts := strings.SplitN(*booking.ExternalID, ":", 3)
	return parts[len(parts)-1]
}

func addStats(a, b models.SyncStats) models.SyncStats {
	return models.SyncStats{
		Fetched:  a.Fetched + b.Fetched,
		Imported: a.Imported + b.Imported,
		Updated:  a.Updated + b.Updated,
		Skipped:  a.Skipped + b.Skipped,
		Deleted:  a.Deleted + b.Deleted,
		Errors:   append(append([]string(nil), a.Errors...), b.Errors...),
	}
}

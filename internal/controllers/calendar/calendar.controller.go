package calendarController

import (
	"context"
	"errors"
	"time"

	"hostly/config"
	"hostly/internal/calendar"
	"hostly/internal/database"
	. "hostly/internal/models"
	"hostly/internal/repositories"
	"hostly/internal/services"
	"hostly/internal/types"
	"hostly/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
)

// exportHistory is how far back finished stays stay in the exported feed.
const exportHistory = 30 * 24 * time.Hour

var (
	ErrReferralSiteNotFound = types.NotFound("referral site not found")
	ErrCalendarNotFound     = types.NotFound("calendar not found")
)

type SyncRequest struct {
	PropertyID *uuid.UUID `json:"propertyId,omitempty"`
}

type SyncResponse struct {
	Results []*services.SyncResult `json:"results"`
	Totals  SyncStats              `json:"totals"`
}

type ExportedCalendar struct {
	Filename string
	Body     string
}

type CalendarControllerInterface interface {
	SyncAll(ctx context.Context, user *UserProfile, request *SyncRequest) (*SyncResponse, error)
	SyncConfig(ctx context.Context, user *UserProfile, configID uuid.UUID) (*services.SyncResult, error)
	Export(ctx context.Context, propertyID uuid.UUID, token string) (*ExportedCalendar, error)
}

type CalendarController struct {
	propertyRepo repositories.PropertyRepository
	bookingRepo  repositories.BookingRepository
	syncService  *services.CalendarSyncService
	db           database.DB
	Config       config.Config
	log          logger.Logger
	now          func() time.Time
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) CalendarControllerInterface {
	return &CalendarController{
		propertyRepo: repos.Property,
		bookingRepo:  repos.Booking,
		syncService:  services.CalendarSync,
		db:           db,
		Config:       config,
		log:          logger.New("calendarController"),
		now:          time.Now,
	}
}

// SyncAll runs every enabled source of the user, optionally limited to one
// property. Per source failures are reported in the results.
func (c *CalendarController) SyncAll(
	ctx context.Context,
	user *UserProfile,
	request *SyncRequest,
) (*SyncResponse, error) {
	log := c.log.Function("SyncAll")

	var propertyID *uuid.UUID
	if request != nil {
		propertyID = request.PropertyID
	}

	results, err := c.syncService.SyncUser(ctx, user.ID, propertyID)
	if err != nil {
		return nil, log.Err("failed to sync calendars", err, "userID", user.ID)
	}

	response := &SyncResponse{Results: results}
	for _, result := range results {
		response.Totals.Fetched += result.Fetched
		response.Totals.Imported += result.Imported
		response.Totals.Updated += result.Updated
		response.Totals.Skipped += result.Skipped
		response.Totals.Deleted += result.Deleted
		response.Totals.Errors = append(response.Totals.Errors, result.Errors...)
		if result.Error != "" {
			response.Totals.Errors = append(response.Totals.Errors, result.Error)
		}
	}
	return response, nil
}

func (c *CalendarController) SyncConfig(
	ctx context.Context,
	user *UserProfile,
	configID uuid.UUID,
) (*services.SyncResult, error) {
	log := c.log.Function("SyncConfig")

	result, err := c.syncService.SyncConfig(ctx, user.ID, configID)
	if result != nil {
		if err != nil {
			log.Warn("calendar source failed", "configID", configID, "error", err)
		}
		return result, nil
	}

	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrReferralSiteNotFound
	}
	return nil, log.Err("failed to sync calendar", err, "configID", configID)
}

// Export renders the property's public calendar. An unknown property and a
// wrong token look the same to the caller.
func (c *CalendarController) Export(
	ctx context.Context,
	propertyID uuid.UUID,
	token string,
) (*ExportedCalendar, error) {
	log := c.log.Function("Export")

	if token == "" {
		return nil, ErrCalendarNotFound
	}

	property, err := c.propertyRepo.GetForExport(ctx, c.db.SQL, propertyID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCalendarNotFound
		}
		return nil, log.Err("failed to load property", err, "propertyID", propertyID)
	}
	if property.CalendarExportToken == "" || !utils.CompareHashes(property.CalendarExportToken, token) {
		return nil, ErrCalendarNotFound
	}

	now := c.now().UTC()
	bookings, err := c.bookingRepo.ListForExport(ctx, c.db.SQL, property.ID, DateOnly(now).Add(-exportHistory))
	if err != nil {
		return nil, log.Err("failed to list bookings for export", err, "propertyID", propertyID)
	}

	return &ExportedCalendar{
		Filename: property.ID.String() + ".ics",
		Body:     calendar.Export(property, bookings, now),
	}, nil
}

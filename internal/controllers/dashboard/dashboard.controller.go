package dashboardController

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"hostly/config"
	"hostly/internal/database"
	. "hostly/internal/models"
	"hostly/internal/repositories"
	"hostly/internal/services"
	"hostly/internal/types"
	"hostly/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	upcomingDays = 7
	maxRangeDays = 366
)

var ErrRatesUnavailable = types.Upstream("exchange rates are unavailable")

type StatsRequest struct {
	From       string `query:"from"`
	To         string `query:"to"`
	PropertyID string `query:"propertyId"`
}

type RatesRequest struct {
	Base string `query:"base" validate:"omitempty,currency"`
}

type UpcomingCheckIn struct {
	BookingID    string   `json:"bookingId"`
	PropertyID   string   `json:"propertyId"`
	PropertyName string   `json:"propertyName"`
	GuestName    string   `json:"guestName"`
	NumGuests    int      `json:"numGuests"`
	CheckIn      string   `json:"checkIn"`
	CheckOut     string   `json:"checkOut"`
	Platform     Platform `json:"platform"`
}

type UpcomingCleaning struct {
	CleaningID    string         `json:"cleaningId"`
	PropertyID    string         `json:"propertyId"`
	PropertyName  string         `json:"propertyName"`
	ScheduledDate string         `json:"scheduledDate"`
	CleanerName   string         `json:"cleanerName"`
	Status        CleaningStatus `json:"status"`
}

// DashboardStats covers the half-open date range [From, To). Revenue is
// reported in the user's base currency; bookings in currencies without a rate
// are left out and listed in UnconvertedCurrencies.
type DashboardStats struct {
	From                  string                       `json:"from"`
	To                    string                       `json:"to"`
	Currency              string                       `json:"currency"`
	BookingCount          int                          `json:"bookingCount"`
	NightsBooked          int                          `json:"nightsBooked"`
	ActiveProperties      int64                        `json:"activeProperties"`
	OccupancyRate         decimal.Decimal              `json:"occupancyRate"`
	Revenue               decimal.Decimal              `json:"revenue"`
	RevenueByPlatform     map[Platform]decimal.Decimal `json:"revenueByPlatform"`
	BookingsByPlatform    map[Platform]int             `json:"bookingsByPlatform"`
	UnconvertedCurrencies []string                     `json:"unconvertedCurrencies,omitempty"`
	UpcomingCheckIns      []UpcomingCheckIn            `json:"upcomingCheckIns"`
	UpcomingCleanings     []UpcomingCleaning           `json:"upcomingCleanings"`
}

type DashboardControllerInterface interface {
	Stats(ctx context.Context, user *UserProfile, request *StatsRequest) (*DashboardStats, error)
	Rates(ctx context.Context, user *UserProfile, request *RatesRequest) (*services.ExchangeRates, error)
}

type DashboardController struct {
	propertyRepo    repositories.PropertyRepository
	bookingRepo     repositories.BookingRepository
	cleaningRepo    repositories.CleaningRepository
	currencyService *services.CurrencyService
	db              database.DB
	Config          config.Config
	log             logger.Logger
	now             func() time.Time
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) DashboardControllerInterface {
	return &DashboardController{
		propertyRepo:    repos.Property,
		bookingRepo:     repos.Booking,
		cleaningRepo:    repos.Cleaning,
		currencyService: services.Currency,
		db:              db,
		Config:          config,
		log:             logger.New("dashboardController"),
		now:             time.Now,
	}
}

func (c *DashboardController) Stats(
	ctx context.Context,
	user *UserProfile,
	request *StatsRequest,
) (*DashboardStats, error) {
	log := c.log.Function("Stats")

	today := DateOnly(c.now().In(userLocation(user)))
	from, to, err := statsRange(request, today)
	if err != nil {
		return nil, err
	}
	propertyID, err := types.ParseOptionalUUID(request.PropertyID, "propertyId")
	if err != nil {
		return nil, err
	}

	baseCurrency := user.BaseCurrency
	if baseCurrency == "" {
		baseCurrency = DefaultCurrency
	}

	stats := &DashboardStats{
		From:               from.Format(utils.DateLayout),
		To:                 to.Format(utils.DateLayout),
		Currency:           baseCurrency,
		Revenue:            decimal.Zero,
		RevenueByPlatform:  map[Platform]decimal.Decimal{},
		BookingsByPlatform: map[Platform]int{},
		UpcomingCheckIns:   []UpcomingCheckIn{},
		UpcomingCleanings:  []UpcomingCleaning{},
	}

	if propertyID != nil {
		property, err := c.propertyRepo.GetByID(ctx, c.db.SQL, user.ID, *propertyID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, types.NotFound("property not found")
			}
			return nil, log.Err("failed to load property", err, "propertyID", *propertyID)
		}
		if property.IsActive {
			stats.ActiveProperties = 1
		}
	} else {
		stats.ActiveProperties, err = c.propertyRepo.CountActive(ctx, c.db.SQL, user.ID)
		if err != nil {
			return nil, log.Err("failed to count properties", err, "userID", user.ID)
		}
	}

	bookings, err := c.bookingRepo.ListInRange(ctx, c.db.SQL, user.ID, propertyID, from, to)
	if err != nil {
		return nil, log.Err("failed to list bookings", err, "userID", user.ID)
	}

	c.addBookingStats(ctx, stats, bookings, from, to, baseCurrency)

	days := int(to.Sub(from).Hours() / 24)
	if capacity := stats.ActiveProperties * int64(days); capacity > 0 {
		stats.OccupancyRate = decimal.NewFromInt(int64(stats.NightsBooked)).
			Div(decimal.NewFromInt(capacity)).
			Round(4)
	}

	if err := c.addUpcoming(ctx, stats, user, propertyID, today); err != nil {
		return nil, log.Err("failed to load upcoming activity", err, "userID", user.ID)
	}

	return stats, nil
}

// addBookingStats counts nights inside the range and attributes revenue to
// the range holding the check-in day.
func (c *DashboardController) addBookingStats(
	ctx context.Context,
	stats *DashboardStats,
	bookings []*Booking,
	from, to time.Time,
	baseCurrency string,
) {
	log := c.log.Function("addBookingStats")

	var rates *services.ExchangeRates
	ratesFailed := false
	unconverted := map[string]bool{}

	for _, booking := range bookings {
		stats.BookingCount++
		stats.BookingsByPlatform[booking.Platform]++
		stats.NightsBooked += nightsWithin(booking, from, to)

		if booking.CheckIn.Before(from) || !booking.CheckIn.Before(to) {
			continue
		}

		amount := booking.TotalAmount
		currency := strings.ToUpper(booking.Currency)
		if currency != "" && currency != baseCurrency {
			if rates == nil && !ratesFailed {
				var err error
				rates, err = c.currencyService.Rates(ctx, baseCurrency)
				if err != nil {
					log.Warn("exchange rates unavailable", "base", baseCurrency, "error", err)
					ratesFailed = true
				}
			}
			if rates == nil {
				unconverted[currency] = true
				continue
			}
			converted, err := rates.Convert(amount, currency, baseCurrency)
			if err != nil {
				unconverted[currency] = true
				continue
			}
			amount = converted
		}

		stats.Revenue = stats.Revenue.Add(amount)
		stats.RevenueByPlatform[booking.Platform] = stats.RevenueByPlatform[booking.Platform].Add(amount)
	}

	for currency := range unconverted {
		stats.UnconvertedCurrencies = append(stats.UnconvertedCurrencies, currency)
	}
	sort.Strings(stats.UnconvertedCurrencies)
}

func (c *DashboardController) addUpcoming(
	ctx context.Context,
	stats *DashboardStats,
	user *UserProfile,
	propertyID *uuid.UUID,
	today time.Time,
) error {
	until := today.AddDate(0, 0, upcomingDays)

	bookings, err := c.bookingRepo.ListInRange(ctx, c.db.SQL, user.ID, propertyID, today, until)
	if err != nil {
		return err
	}

	names, err := c.propertyNames(ctx, user)
	if err != nil {
		return err
	}

	for _, booking := range bookings {
		if booking.CheckIn.Before(today) {
			continue
		}
		stats.UpcomingCheckIns = append(stats.UpcomingCheckIns, UpcomingCheckIn{
			BookingID:    booking.ID.String(),
			PropertyID:   booking.PropertyID.String(),
			PropertyName: names[booking.PropertyID.String()],
			GuestName:    booking.GuestName,
			NumGuests:    booking.NumGuests,
			CheckIn:      booking.CheckIn.Format(utils.DateLayout),
			CheckOut:     booking.CheckOut.Format(utils.DateLayout),
			Platform:     booking.Platform,
		})
	}

	cleanings, err := c.cleaningRepo.List(ctx, c.db.SQL, user.ID, repositories.CleaningFilter{
		PropertyID: propertyID,
		From:       &today,
		To:         &until,
	})
	if err != nil {
		return err
	}

	for _, cleaning := range cleanings {
		if cleaning.Status == CleaningStatusCancelled || cleaning.Status == CleaningStatusCompleted {
			continue
		}
		stats.UpcomingCleanings = append(stats.UpcomingCleanings, UpcomingCleaning{
			CleaningID:    cleaning.ID.String(),
			PropertyID:    cleaning.PropertyID.String(),
			PropertyName:  names[cleaning.PropertyID.String()],
			ScheduledDate: cleaning.ScheduledDate.Format(utils.DateLayout),
			CleanerName:   cleaning.CleanerName,
			Status:        cleaning.Status,
		})
	}
	return nil
}

func (c *DashboardController) propertyNames(ctx context.Context, user *UserProfile) (map[string]string, error) {
	properties, err := c.propertyRepo.List(ctx, c.db.SQL, user.ID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(properties))
	for _, property := range properties {
		names[property.ID.String()] = property.Name
	}
	return names, nil
}

func (c *DashboardController) Rates(
	ctx context.Context,
	user *UserProfile,
	request *RatesRequest,
) (*services.ExchangeRates, error) {
	if err := types.Validate(request); err != nil {
		return nil, err
	}

	base := request.Base
	if base == "" {
		base = user.BaseCurrency
	}

	rates, err := c.currencyService.Rates(ctx, base)
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedCurrency) {
			return nil, types.Invalidf("base must be an ISO 4217 currency code")
		}
		c.log.Function("Rates").Er("failed to load exchange rates", err, "base", base)
		return nil, ErrRatesUnavailable
	}
	return rates, nil
}

// statsRange defaults to the calendar month containing today.
func statsRange(request *StatsRequest, today time.Time) (time.Time, time.Time, error) {
	from, err := types.ParseOptionalDate(request.From, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := types.ParseOptionalDate(request.To, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if from == nil {
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		from = &start
	}
	if to == nil {
		end := from.AddDate(0, 1, 0)
		to = &end
	}

	if !to.After(*from) {
		return time.Time{}, time.Time{}, types.Invalidf("to must be after from")
	}
	if to.Sub(*from) > maxRangeDays*24*time.Hour {
		return time.Time{}, time.Time{}, types.Invalidf("the range may span at most %d days", maxRangeDays)
	}
	return *from, *to, nil
}

func nightsWithin(booking *Booking, from, to time.Time) int {
	start := DateOnly(booking.CheckIn)
	if start.Before(from) {
		start = from
	}
	end := DateOnly(booking.CheckOut)
	if end.After(to) {
		end = to
	}
	if !end.After(start) {
		return 0
	}
	return int(end.Sub(start).Hours() / 24)
}

func userLocation(user *UserProfile) *time.Location {
	if user.Timezone == "" {
		return time.UTC
	}
	location, err := time.LoadLocation(user.Timezone)
	if err != nil {
		return time.UTC
	}
	return location
}

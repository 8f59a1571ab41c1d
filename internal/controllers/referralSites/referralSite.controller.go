package referralSiteController

import (
	"context"
	"errors"
	"strings"
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

var (
	ErrReferralSiteNotFound = types.NotFound("referral site not found")
	ErrPropertyNotFound     = types.NotFound("property not found")
	ErrPlatformRequired     = types.Invalidf("platform is required when it cannot be inferred from icsUrl")
)

type SaveReferralSiteRequest struct {
	PropertyID  uuid.UUID `json:"propertyId"         validate:"required"`
	Platform    Platform  `json:"platform"           validate:"omitempty,oneof=airbnb booking vrbo direct other"`
	ICSURL      string    `json:"icsUrl"             validate:"max=2048"`
	Username    string    `json:"username"           validate:"max=200"`
	Password    *string   `json:"password,omitempty" validate:"omitempty,max=500"`
	APIKey      *string   `json:"apiKey,omitempty"   validate:"omitempty,max=2000"`
	SyncEnabled *bool     `json:"syncEnabled,omitempty"`
}

// ReferralSiteResponse never carries stored secrets, only whether they exist.
type ReferralSiteResponse struct {
	ID             uuid.UUID  `json:"id"`
	PropertyID     uuid.UUID  `json:"propertyId"`
	PropertyName   string     `json:"propertyName,omitempty"`
	Platform       Platform   `json:"platform"`
	ICSURL         string     `json:"icsUrl"`
	Username       string     `json:"username"`
	HasPassword    bool       `json:"hasPassword"`
	HasAPIKey      bool       `json:"hasApiKey"`
	SyncEnabled    bool       `json:"syncEnabled"`
	LastSyncedAt   *time.Time `json:"lastSyncedAt,omitempty"`
	LastSyncStatus SyncStatus `json:"lastSyncStatus,omitempty"`
	LastSyncError  string     `json:"lastSyncError,omitempty"`
	LastSyncStats  SyncStats  `json:"lastSyncStats"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type ReferralSiteControllerInterface interface {
	List(ctx context.Context, user *UserProfile) ([]*ReferralSiteResponse, error)
	Save(ctx context.Context, user *UserProfile, request *SaveReferralSiteRequest) (*ReferralSiteResponse, error)
	Delete(ctx context.Context, user *UserProfile, id uuid.UUID) error
}

type ReferralSiteController struct {
	referralSiteRepo repositories.ReferralSiteRepository
	propertyRepo     repositories.PropertyRepository
	cipher           *utils.Cipher
	db               database.DB
	Config           config.Config
	log              logger.Logger
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) ReferralSiteControllerInterface {
	return &ReferralSiteController{
		referralSiteRepo: repos.ReferralSite,
		propertyRepo:     repos.Property,
		cipher:           utils.NewCipher(config.EncryptionKey),
		db:               db,
		Config:           config,
		log:              logger.New("referralSiteController"),
	}
}

func (c *ReferralSiteController) List(ctx context.Context, user *UserProfile) ([]*ReferralSiteResponse, error) {
	configs, err := c.referralSiteRepo.List(ctx, c.db.SQL, user.ID)
	if err != nil {
		return nil, c.log.Function("List").Err("failed to list referral sites", err, "userID", user.ID)
	}

	responses := make([]*ReferralSiteResponse, 0, len(configs))
	for _, cfg := range configs {
		responses = append(responses, toResponse(cfg))
	}
	return responses, nil
}

// Save creates or updates the config for a property and platform. A nil
// password or apiKey keeps the stored value and an empty one clears it.
func (c *ReferralSiteController) Save(
	ctx context.Context,
	user *UserProfile,
	request *SaveReferralSiteRequest,
) (*ReferralSiteResponse, error) {
	log := c.log.Function("Save")

	if err := types.Validate(request); err != nil {
		return nil, err
	}

	icsURL := strings.TrimSpace(request.ICSURL)
	if icsURL != "" {
		normalized, err := services.NormalizeFeedURL(icsURL)
		if err != nil {
			return nil, types.Invalidf("icsUrl must be an http, https or webcal URL")
		}
		icsURL = normalized
	}

	platform := request.Platform
	if platform == "" && icsURL != "" {
		platform = calendar.DetectPlatform(icsURL)
	}
	if platform == "" {
		return nil, ErrPlatformRequired
	}

	property, err := c.propertyRepo.GetByID(ctx, c.db.SQL, user.ID, request.PropertyID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPropertyNotFound
		}
		return nil, log.Err("failed to load property", err, "propertyID", request.PropertyID)
	}

	cfg, err := c.referralSiteRepo.GetByPropertyPlatform(ctx, c.db.SQL, user.ID, property.ID, platform)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		cfg = &ReferralSiteConfig{
			UserID:      user.ID,
			PropertyID:  property.ID,
			Platform:    platform,
			SyncEnabled: icsURL != "",
		}
	case err != nil:
		return nil, log.Err("failed to load referral site", err, "propertyID", property.ID, "platform", platform)
	}

	cfg.ICSURL = icsURL
	cfg.Username = strings.TrimSpace(request.Username)
	if request.SyncEnabled != nil {
		cfg.SyncEnabled = *request.SyncEnabled
	}

	if request.Password != nil {
		encrypted, err := c.cipher.Encrypt(*request.Password)
		if err != nil {
			return nil, log.Err("failed to encrypt password", err, "propertyID", property.ID)
		}
		cfg.EncryptedPassword = encrypted
	}
	if request.APIKey != nil {
		encrypted, err := c.cipher.Encrypt(*request.APIKey)
		if err != nil {
			return nil, log.Err("failed to encrypt api key", err, "propertyID", property.ID)
		}
		cfg.APIKey = encrypted
	}

	if err := c.referralSiteRepo.Save(ctx, c.db.SQL, cfg); err != nil {
		return nil, log.Err("failed to save referral site", err, "propertyID", property.ID, "platform", platform)
	}

	cfg.Property = property
	log.Info("Referral site saved", "id", cfg.ID, "propertyID", property.ID, "platform", platform)
	return toResponse(cfg), nil
}

func (c *ReferralSiteController) Delete(ctx context.Context, user *UserProfile, id uuid.UUID) error {
	if err := c.referralSiteRepo.Delete(ctx, c.db.SQL, user.ID, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrReferralSiteNotFound
		}
		return c.log.Function("Delete").Err("failed to delete referral site", err, "id", id)
	}
	return nil
}

func toResponse(cfg *ReferralSiteConfig) *ReferralSiteResponse {
	response := &ReferralSiteResponse{
		ID:             cfg.ID,
		PropertyID:     cfg.PropertyID,
		Platform:       cfg.Platform,
		ICSURL:         cfg.ICSURL,
		Username:       cfg.Username,
		HasPassword:    cfg.HasPassword(),
		HasAPIKey:      cfg.HasAPIKey(),
		SyncEnabled:    cfg.SyncEnabled,
		LastSyncedAt:   cfg.LastSyncedAt,
		LastSyncStatus: cfg.LastSyncStatus,
		LastSyncError:  cfg.LastSyncError,
		LastSyncStats:  cfg.LastSyncStats.Data(),
		UpdatedAt:      cfg.UpdatedAt,
	}
	if cfg.Property != nil {
		response.PropertyName = cfg.Property.Name
	}
	return response
}

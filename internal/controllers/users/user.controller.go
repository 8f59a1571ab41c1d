package userController

import (
	"context"
	"strings"

	"hostly/config"
	"hostly/internal/database"
	. "hostly/internal/models"
	"hostly/internal/repositories"
	"hostly/internal/services"
	"hostly/internal/types"

	logger "github.com/Bparsons0904/goLogger"
)

type UpdateProfileRequest struct {
	FullName     *string `json:"fullName,omitempty"     validate:"omitempty,max=200"`
	CompanyName  *string `json:"companyName,omitempty"  validate:"omitempty,max=200"`
	Phone        *string `json:"phone,omitempty"        validate:"omitempty,max=40"`
	BaseCurrency *string `json:"baseCurrency,omitempty" validate:"omitempty,currency"`
	Timezone     *string `json:"timezone,omitempty"     validate:"omitempty,tz"`
}

type UserControllerInterface interface {
	GetProfile(ctx context.Context, user *UserProfile) (*UserProfile, error)
	UpdateProfile(ctx context.Context, user *UserProfile, request *UpdateProfileRequest) (*UserProfile, error)
}

type UserController struct {
	userRepo repositories.UserRepository
	db       database.DB
	Config   config.Config
	log      logger.Logger
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) UserControllerInterface {
	return &UserController{
		userRepo: repos.User,
		db:       db,
		Config:   config,
		log:      logger.New("userController"),
	}
}

func (uc *UserController) GetProfile(ctx context.Context, user *UserProfile) (*UserProfile, error) {
	profile, err := uc.userRepo.GetByID(ctx, uc.db.SQL, user.ID)
	if err != nil {
		return nil, uc.log.Function("GetProfile").Err("failed to get user profile", err, "userID", user.ID)
	}
	return profile, nil
}

func (uc *UserController) UpdateProfile(
	ctx context.Context,
	user *UserProfile,
	request *UpdateProfileRequest,
) (*UserProfile, error) {
	log := uc.log.Function("UpdateProfile")

	if err := types.Validate(request); err != nil {
		return nil, err
	}

	profile, err := uc.GetProfile(ctx, user)
	if err != nil {
		return nil, err
	}

	if request.FullName != nil {
		profile.FullName = strings.TrimSpace(*request.FullName)
	}
	if request.CompanyName != nil {
		profile.CompanyName = strings.TrimSpace(*request.CompanyName)
	}
	if request.Phone != nil {
		profile.Phone = strings.TrimSpace(*request.Phone)
	}
	if request.BaseCurrency != nil {
		profile.BaseCurrency = *request.BaseCurrency
	}
	if request.Timezone != nil {
		profile.Timezone = *request.Timezone
	}

	if err := uc.userRepo.Update(ctx, uc.db.SQL, profile); err != nil {
		return nil, log.Err("failed to update user profile", err, "userID", user.ID)
	}

	log.Info("User profile updated", "userID", user.ID)
	return profile, nil
}

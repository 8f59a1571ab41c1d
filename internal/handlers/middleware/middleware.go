package middleware

import (
	"hostly/config"
	"hostly/internal/database"
	"hostly/internal/repositories"
	"hostly/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

type Middleware struct {
	DB          database.DB
	userRepo    repositories.UserRepository
	authService *services.AuthService
	Config      config.Config
	log         logger.Logger
}

func New(
	db database.DB,
	authService *services.AuthService,
	config config.Config,
	repos repositories.Repository,
) Middleware {
	return Middleware{
		DB:          db,
		userRepo:    repos.User,
		authService: authService,
		Config:      config,
		log:         logger.New("middleware"),
	}
}

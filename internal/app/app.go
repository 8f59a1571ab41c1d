package app

import (
	"context"

	"hostly/config"
	"hostly/internal/controllers"
	"hostly/internal/database"
	"hostly/internal/events"
	"hostly/internal/handlers/middleware"
	"hostly/internal/jobs"
	"hostly/internal/repositories"
	"hostly/internal/services"
	"hostly/internal/websockets"

	logger "github.com/Bparsons0904/goLogger"
)

type App struct {
	Database     database.DB
	Middleware   middleware.Middleware
	Websocket    *websockets.Manager
	EventBus     *events.EventBus
	Config       config.Config
	Services     services.Service
	Repositories repositories.Repository
	Controllers  controllers.Controllers
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.New()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	app, err := Build(config, db)
	if err != nil {
		_ = db.Close()
		return &App{}, err
	}

	if err := jobs.RegisterAllJobs(
		app.Services.Scheduler,
		config,
		app.Services,
		app.Repositories,
		db,
	); err != nil {
		_ = app.Close()
		return &App{}, log.Err("failed to register jobs", err)
	}

	return app, nil
}

// Build wires the application around an already opened database. Tests use
// it with an in-memory database and no cache clients.
func Build(config config.Config, db database.DB) (*App, error) {
	log := logger.New("app").Function("Build")

	eventBus := events.New(db.Cache.Events, config)

	svc, err := services.New(db, config, eventBus)
	if err != nil {
		return &App{}, log.Err("failed to create services", err)
	}

	repos := repositories.New(db)

	websocket, err := websockets.New(eventBus, svc.Auth)
	if err != nil {
		return &App{}, log.Err("failed to create websocket manager", err)
	}

	app := &App{
		Database:     db,
		Middleware:   middleware.New(db, svc.Auth, config, repos),
		Websocket:    websocket,
		EventBus:     eventBus,
		Config:       config,
		Services:     svc,
		Repositories: repos,
		Controllers:  controllers.New(svc, repos, config, db),
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	nilChecks := []any{
		a.Websocket,
		a.EventBus,
		a.Services.Transaction,
		a.Services.Scheduler,
		a.Services.Auth,
		a.Services.Email,
		a.Services.Currency,
		a.Services.CalendarSync,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.Services.Scheduler != nil {
		if closeErr := a.Services.Scheduler.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}

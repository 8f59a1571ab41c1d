package services

import (
	"hostly/config"
	"hostly/internal/database"
	"hostly/internal/events"
	"hostly/internal/repositories"
)

type Service struct {
	Transaction  *TransactionService
	Scheduler    *SchedulerService
	Auth         *AuthService
	Email        *EmailService
	Currency     *CurrencyService
	CalendarSync *CalendarSyncService
}

func New(db database.DB, config config.Config, eventBus *events.EventBus) (Service, error) {
	transactionService := NewTransactionService(db)
	repos := repositories.New(db)

	var publisher events.Publisher
	if eventBus != nil {
		publisher = eventBus
	}

	return Service{
		Transaction:  transactionService,
		Scheduler:    NewSchedulerService(),
		Auth:         NewAuthService(config),
		Email:        NewEmailService(config),
		Currency:     NewCurrencyService(config, db.Cache.ClientAPI),
		CalendarSync: NewCalendarSyncService(db, repos, transactionService, publisher, config),
	}, nil
}

package app

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"example.com/dutyroster/internal/config"
	httpx "example.com/dutyroster/internal/handler/http"
	"example.com/dutyroster/internal/repository"
	"example.com/dutyroster/internal/storage/memory"
	sqlstore "example.com/dutyroster/internal/storage/sql"
	"example.com/dutyroster/internal/usecase"
)

type Store interface {
	repository.TaskRepository
	repository.AssignmentRepository
	repository.OverrideRepository
	repository.CompletionRepository
	repository.LocationRepository
	repository.UserRepository
}

// App wires storage, the use cases and the HTTP router together. The bot
// and the notifier are attached in main, they are optional surfaces.
type App struct {
	Config      config.Config
	Log         *zap.Logger
	Router      http.Handler
	Store       Store
	Assignments *usecase.AssignmentService
	Schedules   *usecase.ScheduleService
	Resolver    *usecase.ResolverService
	Completions *usecase.CompletionService
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	var store Store
	switch cfg.Storage {
	case "sql":
		s := sqlstore.New(cfg.DBDriver, cfg.DBDSN)
		if err := s.Migrate(); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		store = s
	default:
		store = memory.New()
	}

	assignments := usecase.NewAssignmentService(store, store)
	schedules := usecase.NewScheduleService(store, store)
	resolver := usecase.NewResolverService(store, store)
	completions := usecase.NewCompletionService(store)

	router := httpx.New(httpx.Services{
		Assignments: assignments,
		Schedules:   schedules,
		Resolver:    resolver,
		Completions: completions,
		Locations:   store,
		Users:       store,
	}, log)

	return &App{
		Config:      cfg,
		Log:         log,
		Router:      router,
		Store:       store,
		Assignments: assignments,
		Schedules:   schedules,
		Resolver:    resolver,
		Completions: completions,
	}, nil
}

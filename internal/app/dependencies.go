package app

import (
	"context"
	"database/sql"

	"github.com/klokku/flextime/internal/config"
	"github.com/klokku/flextime/internal/event_bus"
	"github.com/klokku/flextime/internal/utils"
	"github.com/klokku/flextime/pkg/credential"
	"github.com/klokku/flextime/pkg/issue_tracker"
	"github.com/klokku/flextime/pkg/month_ledger"
	"github.com/klokku/flextime/pkg/schedule"
	"github.com/klokku/flextime/pkg/stats"
	"github.com/klokku/flextime/pkg/work_package"
	"github.com/klokku/flextime/pkg/worklog"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock       utils.Clock
	EventBus    *event_bus.EventBus
	Credentials credential.Store

	ScheduleService *schedule.ServiceImpl
	SettingsHandler *schedule.Handler

	MonthRepository month_ledger.Repository
	MonthService    *month_ledger.ServiceImpl
	CsvRenderer     *month_ledger.CsvRendererImpl
	MonthHandler    *month_ledger.Handler

	WorkPackageRepository work_package.Repository
	WorkPackageService    *work_package.ServiceImpl
	WorkPackageHandler    *work_package.Handler

	TrackerClient  issue_tracker.Client
	TrackerHandler *issue_tracker.Handler

	WorklogHistory *worklog.HistoryRepositoryImpl
	WorklogService *worklog.ServiceImpl
	WorklogHandler *worklog.Handler

	StatsService *stats.StatsServiceImpl
	StatsHandler *stats.StatsHandler

	// Warnings are soft load failures the user should be told about, e.g. a corrupt month file.
	Warnings []error
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(ctx context.Context, db *sql.DB, cfg config.Application, credentials credential.Store, clock utils.Clock) *Dependencies {
	deps := &Dependencies{
		Clock:       clock,
		EventBus:    event_bus.NewEventBus(),
		Credentials: credentials,
	}

	settingsPath := cfg.Resolve(cfg.SettingsFile)
	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		deps.Warnings = append(deps.Warnings, err)
	}
	deps.ScheduleService = schedule.NewService(settingsPath, settings, deps.Credentials, deps.EventBus)
	deps.SettingsHandler = schedule.NewHandler(deps.ScheduleService)

	deps.MonthRepository = month_ledger.NewFileRepository(cfg.MonthDir())
	deps.MonthService, err = month_ledger.NewService(ctx, deps.MonthRepository, deps.ScheduleService, deps.Clock, deps.EventBus)
	if err != nil {
		deps.Warnings = append(deps.Warnings, err)
	}
	deps.CsvRenderer = month_ledger.NewCsvRenderer()
	deps.MonthHandler = month_ledger.NewHandler(deps.MonthService, deps.CsvRenderer)

	deps.WorkPackageRepository = work_package.NewFileRepository(cfg.Resolve(cfg.WorkPackagesFile))
	deps.WorkPackageService, err = work_package.NewService(ctx, deps.WorkPackageRepository, deps.Clock, deps.EventBus)
	if err != nil {
		deps.Warnings = append(deps.Warnings, err)
	}
	deps.WorkPackageHandler = work_package.NewHandler(deps.WorkPackageService)

	deps.TrackerClient = issue_tracker.NewClient(deps.ScheduleService, deps.Credentials, cfg.Tracker)
	deps.TrackerHandler = issue_tracker.NewHandler(deps.TrackerClient)

	deps.WorklogHistory = worklog.NewHistoryRepository(db)
	worklog.Subscribe(deps.EventBus, deps.WorklogHistory)
	deps.WorklogService = worklog.NewService(deps.TrackerClient, deps.WorkPackageService, deps.WorklogHistory, deps.EventBus, deps.Clock, cfg.Tracker.Timeout)
	deps.WorklogHandler = worklog.NewHandler(deps.WorklogService)

	deps.StatsService = stats.NewStatsServiceImpl(deps.WorklogHistory)
	deps.StatsHandler = stats.NewStatsHandler(deps.StatsService, stats.NewCsvStatsRenderer())

	for _, warning := range deps.Warnings {
		log.Warnf("Started with defaults: %v", warning)
	}
	return deps
}

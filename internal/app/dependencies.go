package app

import (
	"fmt"

	"github.com/homecare-coop/backoffice/internal/auth"
	"github.com/homecare-coop/backoffice/internal/config"
	"github.com/homecare-coop/backoffice/internal/event_bus"
	"github.com/homecare-coop/backoffice/internal/utils"
	"github.com/homecare-coop/backoffice/pkg/allocation"
	"github.com/homecare-coop/backoffice/pkg/appointment"
	"github.com/homecare-coop/backoffice/pkg/assignment"
	"github.com/homecare-coop/backoffice/pkg/budget"
	"github.com/homecare-coop/backoffice/pkg/client"
	"github.com/homecare-coop/backoffice/pkg/compensation"
	"github.com/homecare-coop/backoffice/pkg/data_import"
	"github.com/homecare-coop/backoffice/pkg/integrity"
	"github.com/homecare-coop/backoffice/pkg/notification"
	"github.com/homecare-coop/backoffice/pkg/resolution"
	"github.com/homecare-coop/backoffice/pkg/staff"
	"github.com/homecare-coop/backoffice/pkg/stats"
	"github.com/homecare-coop/backoffice/pkg/time_log"
	"github.com/homecare-coop/backoffice/pkg/user"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus
	Tokens   *auth.TokenIssuer

	UserService user.Service
	UserHandler *user.Handler

	ClientService *client.ServiceImpl
	ClientHandler *client.Handler

	StaffService *staff.ServiceImpl
	StaffHandler *staff.Handler

	TimeLogService *time_log.ServiceImpl
	TimeLogHandler *time_log.Handler

	BudgetRepo    budget.BudgetRepo
	BudgetService *budget.BudgetServiceImpl
	BudgetHandler *budget.BudgetHandler

	CompensationService *compensation.ServiceImpl
	CompensationHandler *compensation.Handler

	AllocationService *allocation.ServiceImpl
	AllocationHandler *allocation.Handler

	DataImportService *data_import.ServiceImpl
	DataImportHandler *data_import.Handler

	ResolutionService *resolution.ServiceImpl
	ResolutionHandler *resolution.Handler

	IntegrityService *integrity.ServiceImpl
	IntegrityHandler *integrity.Handler

	StatsService     *stats.StatsServiceImpl
	CsvStatsRenderer *stats.CsvStatsRendererImpl
	StatsHandler     *stats.StatsHandler

	AppointmentRepo    *appointment.RepositoryImpl
	AppointmentService *appointment.ServiceImpl
	AppointmentHandler *appointment.Handler
	Reminder           *appointment.Reminder

	AssignmentService *assignment.ServiceImpl
	AssignmentHandler *assignment.Handler

	Notifier            *notification.Notifier
	unsubscribeNotifier func()
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) (*Dependencies, error) {
	deps := &Dependencies{}

	deps.Clock = &utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus()
	deps.Tokens = auth.NewTokenIssuer(cfg.Session.Secret, cfg.Session.TTL, deps.Clock)

	workLocation := utils.LoadLocation(cfg.Compensation.Timezone)
	importLocation := utils.LoadLocation(cfg.Import.Timezone)

	deps.UserService = user.NewUserService(user.NewUserRepo(db))
	deps.UserHandler = user.NewHandler(deps.UserService, deps.Tokens, user.CookieSettings{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.Secure,
	})

	deps.ClientService = client.NewService(client.NewRepository(db))
	deps.ClientHandler = client.NewHandler(deps.ClientService)

	deps.StaffService = staff.NewService(staff.NewRepository(db))
	deps.StaffHandler = staff.NewHandler(deps.StaffService)

	deps.TimeLogService = time_log.NewService(time_log.NewRepository(db))
	deps.TimeLogHandler = time_log.NewHandler(deps.TimeLogService)

	deps.BudgetRepo = budget.NewBudgetRepo(db)
	deps.BudgetService = budget.NewBudgetServiceImpl(deps.BudgetRepo)
	deps.BudgetHandler = budget.NewBudgetHandler(deps.BudgetService)

	holidays, err := compensation.NewCalendar(cfg.Compensation.ExtraHolidays)
	if err != nil {
		return nil, fmt.Errorf("invalid holiday configuration: %w", err)
	}
	deps.CompensationService = compensation.NewService(
		compensation.NewRepository(db),
		deps.StaffService,
		deps.TimeLogService,
		compensation.NewCalculator(holidays, cfg.Compensation.DailyOvertimeHours),
		deps.EventBus,
		deps.Clock,
	)
	deps.CompensationHandler = compensation.NewHandler(deps.CompensationService)

	deps.AllocationService = allocation.NewService(
		allocation.NewRepository(db),
		deps.CompensationService,
		deps.BudgetService,
		deps.ClientService,
		deps.EventBus,
	)
	deps.AllocationHandler = allocation.NewHandler(deps.AllocationService)

	deps.DataImportService = data_import.NewService(data_import.NewRepository(db), deps.EventBus, deps.Clock, importLocation)
	deps.DataImportHandler = data_import.NewHandler(deps.DataImportService, cfg.Import.MaxUploadMB)

	deps.ResolutionService = resolution.NewService(
		deps.DataImportService,
		deps.ClientService,
		deps.StaffService,
		deps.TimeLogService,
		importLocation,
	)
	deps.ResolutionHandler = resolution.NewHandler(deps.ResolutionService)

	deps.IntegrityService = integrity.NewService(integrity.NewRepository(db), importLocation)
	deps.IntegrityHandler = integrity.NewHandler(deps.IntegrityService, integrity.NewCsvRenderer())

	deps.StatsService = stats.NewStatsServiceImpl(stats.NewStatsRepo(db), workLocation)
	deps.CsvStatsRenderer = stats.NewCsvStatsRenderer()
	deps.StatsHandler = stats.NewStatsHandler(deps.StatsService, deps.CsvStatsRenderer)

	deps.AppointmentRepo = appointment.NewRepository(db)
	deps.AppointmentService = appointment.NewService(deps.AppointmentRepo)
	deps.AppointmentHandler = appointment.NewHandler(deps.AppointmentService)
	deps.Reminder = appointment.NewReminder(deps.AppointmentRepo, deps.EventBus, cfg.Reminders.Lead, cfg.Reminders.Interval)

	deps.AssignmentService = assignment.NewService(assignment.NewRepository(db))
	deps.AssignmentHandler = assignment.NewHandler(deps.AssignmentService)

	deps.Notifier = notification.NewNotifier(cfg.Notifications, deps.ClientService, deps.StaffService, workLocation)
	deps.unsubscribeNotifier = deps.Notifier.Subscribe(deps.EventBus)

	return deps, nil
}

// Close detaches the event subscribers registered by BuildDependencies.
func (d *Dependencies) Close() {
	if d.unsubscribeNotifier != nil {
		d.unsubscribeNotifier()
	}
}

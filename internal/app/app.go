package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/homecare-coop/backoffice/internal/config"
	"github.com/homecare-coop/backoffice/internal/database"
	"github.com/homecare-coop/backoffice/internal/rest"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

// Application wires configuration, database, router, and server lifecycle.
type Application struct {
	cfg    config.Application
	db     *pgxpool.Pool
	deps   *Dependencies
	router *mux.Router
	srv    *http.Server
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication() (*Application, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("failed to load .env file: %v", err)
	}

	cfg, err := config.Load("./config/application.yaml")
	if err != nil {
		return nil, err
	}
	if cfg.Session.Secret == "" {
		return nil, errors.New("session secret is not configured (COOP_SESSION_SECRET)")
	}

	// Money is serialized as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(cfg.Database); err != nil {
		db.Close()
		return nil, err
	}

	deps, err := BuildDependencies(db, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	if cfg.Admin.Email != "" {
		if err := deps.UserService.EnsureAdminExists(context.Background(), cfg.Admin.Email, cfg.Admin.Password); err != nil {
			deps.Close()
			db.Close()
			return nil, err
		}
	}

	r := mux.NewRouter()
	SetupMiddleware(r, deps, cfg)
	RegisterRoutes(r, deps, cfg)

	if cfg.Frontend.Enabled {
		frontend := rest.NewFrontendHandler("frontend", "index.html")
		r.PathPrefix("/").Handler(frontend)
	}

	srv := &http.Server{
		Handler:      r,
		Addr:         cfg.Server.Addr,
		WriteTimeout: 60 * time.Second,
		ReadTimeout:  60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, db: db, deps: deps, router: r, srv: srv}, nil
}

// Run starts the HTTP server and the reminder schedule, and blocks until SIGINT or SIGTERM.
func (a *Application) Run() error {
	if a.cfg.Reminders.Enabled {
		if err := a.deps.Reminder.Start(); err != nil {
			return err
		}
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", a.srv.Addr)
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	var runErr error
	select {
	case runErr = <-serverErr:
	case sig := <-stop:
		log.Infof("Received %s, shutting down", sig)
	}

	a.shutdown()
	return runErr
}

func (a *Application) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.srv.Shutdown(ctx); err != nil {
		log.Errorf("server shutdown: %v", err)
	}
	select {
	case <-a.deps.Reminder.Stop().Done():
	case <-ctx.Done():
		log.Warn("reminder job still running at shutdown")
	}
	a.deps.Close()
	a.db.Close()
	log.Info("Server stopped")
}

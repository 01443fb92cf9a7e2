package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/flextime/internal/config"
	"github.com/klokku/flextime/internal/database"
	"github.com/klokku/flextime/internal/utils"
	"github.com/klokku/flextime/pkg/credential"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

// Application wires configuration, database, services and the optional HTTP server.
type Application struct {
	cfg  config.Application
	db   *sql.DB
	deps *Dependencies
	mu   sync.Mutex

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewApplication opens the database and restores the ledger and work packages.
// Soft load failures are available from Warnings.
func NewApplication(ctx context.Context, cfg config.Application) (*Application, error) {
	return newApplication(ctx, cfg, credential.NewKeyringStore(cfg.Tracker.KeyringService), utils.SystemClock{})
}

func newApplication(ctx context.Context, cfg config.Application, credentials credential.Store, clock utils.Clock) (*Application, error) {
	db, err := database.OpenAndMigrate(cfg.Resolve(cfg.Database.Path))
	if err != nil {
		return nil, err
	}
	deps := BuildDependencies(ctx, db, cfg, credentials, clock)
	return &Application{cfg: cfg, db: db, deps: deps}, nil
}

func (a *Application) Config() config.Application {
	return a.cfg
}

// SetAddr overrides the listen address used by Serve.
func (a *Application) SetAddr(addr string) {
	a.cfg.Server.Addr = addr
}

func (a *Application) Dependencies() *Dependencies {
	return a.deps
}

func (a *Application) Warnings() []error {
	return a.deps.Warnings
}

// Router builds the REST API router.
func (a *Application) Router() *mux.Router {
	r := mux.NewRouter()
	SetupMiddleware(r, &a.mu)
	RegisterRoutes(r, a.deps)
	return r
}

// Serve runs the HTTP server until ctx is done, then shuts it down gracefully.
// The final saves are left to Shutdown.
func (a *Application) Serve(ctx context.Context) error {
	srv := &http.Server{
		Handler:      a.Router(),
		Addr:         a.cfg.Server.Addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", srv.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("Stopping server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	}
}

// Shutdown waits for worklog posts in flight, saves the work packages and the ledger and
// closes the database. It runs once; later calls return the first result.
func (a *Application) Shutdown(ctx context.Context) error {
	a.shutdownOnce.Do(func() {
		a.mu.Lock()
		defer a.mu.Unlock()

		a.deps.WorklogService.Wait()

		var errs []error
		if err := a.deps.WorkPackageService.Save(ctx); err != nil {
			errs = append(errs, fmt.Errorf("saving work packages: %w", err))
		}
		if err := a.deps.MonthService.Save(ctx); err != nil {
			errs = append(errs, fmt.Errorf("saving month: %w", err))
		}
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing database: %w", err))
		}
		a.shutdownErr = errors.Join(errs...)
		if a.shutdownErr != nil {
			log.Errorf("Final save failed: %v", a.shutdownErr)
		} else {
			log.Info("Saved all data")
		}
	})
	return a.shutdownErr
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	httpapi "github.com/aussiebroadwan/tokentrust/internal/auth/http"
	"github.com/aussiebroadwan/tokentrust/internal/auth/service"
	"github.com/aussiebroadwan/tokentrust/internal/auth/store"
	"github.com/aussiebroadwan/tokentrust/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tokentrust/internal/guard"
	"github.com/aussiebroadwan/tokentrust/internal/metrics"
	"github.com/aussiebroadwan/tokentrust/internal/revocation"
	"github.com/aussiebroadwan/tokentrust/internal/revocation/drivers"
	"github.com/aussiebroadwan/tokentrust/pkg/cryptox"
	"github.com/aussiebroadwan/tokentrust/pkg/jwtx"
	"github.com/aussiebroadwan/tokentrust/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db          store.Store
	revocations revocation.Store
	keyManager  *jwtx.KeyManager
	metrics     *metrics.Provider

	// Services
	tokenService        *service.TokenService
	housekeepingService *service.HousekeepingService // nil when the store expires entries itself

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
// Key material is loaded and self-tested before anything else is opened.
func New(ctx context.Context, cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Logging.Env,
			Level:   cfg.Logging.Level,
			Format:  cfg.Logging.Format,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	keyManager, err := InitAuthKeys(cfg.Keys, cfg.Token, app.logger)
	if err != nil {
		return nil, err
	}
	app.keyManager = keyManager

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := app.initRevocation(ctx); err != nil {
		app.closeStores()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		app.closeStores()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run serves until ctx is cancelled or the server fails, then shuts down.
func (app *Application) Run(ctx context.Context) error {
	if app.housekeepingService != nil {
		app.housekeepingService.Start()
	}

	app.logger.Info("auth service starting", "port", app.cfg.HTTP.Port, "version", BuildVersion)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			app.logger.Info("shutdown signal received")
		}
		return app.Shutdown()
	})

	return g.Wait()
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.HTTP.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	if app.housekeepingService != nil {
		app.housekeepingService.Stop()
	}

	if err := app.metrics.Shutdown(ctx); err != nil {
		app.logger.Error("error flushing metrics", "error", err)
	}

	if err := app.closeStores(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) closeStores() error {
	var errs []error
	if app.revocations != nil {
		if err := app.revocations.Close(); err != nil {
			app.logger.Error("error closing revocation store", "error", err)
			errs = append(errs, err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// initDatabase opens the principal store, applies migrations and runs the
// optional bootstrap seed.
func (app *Application) initDatabase(ctx context.Context) error {
	db, err := sqlite.NewStore(sqlite.DSN(app.cfg.DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}
	app.logger.Info("database migrations applied successfully")

	if app.cfg.BootstrapFile == "" {
		return nil
	}

	bootstrap := &service.BootstrapService{Store: db}
	res, err := bootstrap.SeedFromFile(ctx, app.cfg.BootstrapFile)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to seed from %s: %w", app.cfg.BootstrapFile, err)
	}
	app.logger.Info("bootstrap seed applied",
		"users_created", res.UsersCreated,
		"users_skipped", res.UsersSkipped,
		"clients_created", res.ClientsCreated,
		"clients_skipped", res.ClientsSkipped,
	)
	for clientID, secret := range res.Generated {
		// Only chance to learn it; the store keeps the hash.
		app.logger.Warn("generated client secret", "client_id", clientID, "client_secret", secret)
	}
	return nil
}

func (app *Application) initRevocation(ctx context.Context) error {
	rev, err := drivers.Open(ctx, app.cfg.Revocation, app.logger)
	if err != nil {
		return fmt.Errorf("failed to open revocation store: %w", err)
	}
	app.revocations = rev
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	var tokenMetrics metrics.TokenMetrics = metrics.NoOp{}
	if app.cfg.Metrics.Enabled {
		mp, err := metrics.NewProvider()
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}
		app.metrics = mp

		tm, err := metrics.NewTokenMetrics(mp.MeterProvider(), app.cfg.Metrics.Namespace)
		if err != nil {
			return fmt.Errorf("failed to initialize token metrics: %w", err)
		}
		tokenMetrics = tm
	}

	issuer := &service.Issuer{
		KeyManager:  app.keyManager,
		Revocations: app.revocations,
		Issuer:      app.cfg.Token.Issuer,
		Audience:    app.cfg.Token.Audience,
		AccessTTL:   app.cfg.Token.AccessTTL,
		RefreshTTL:  app.cfg.Token.RefreshTTL,
	}

	app.tokenService = &service.TokenService{
		Authenticator: &service.Authenticator{Store: app.db},
		Issuer:        issuer,
		Validator:     guard.NewValidator(app.keyManager.Verifier, app.revocations, guard.WithMetrics(tokenMetrics)),
		Verifier:      app.keyManager.Verifier,
		Revocations:   app.revocations,
		Users:         app.db.Users(),
		Metrics:       tokenMetrics,
	}

	if purger, ok := app.revocations.(revocation.Purger); ok {
		app.housekeepingService = service.NewHousekeepingService(
			purger,
			app.logger,
			app.cfg.Revocation.SweepInterval,
		)
	}
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager.KeySet,
		BuildVersion,
		app.db,
		app.revocations,
		app.logger,
	)

	router.TokenService = app.tokenService
	if app.metrics != nil {
		router.MetricsHandler = app.metrics.Handler()
		router.Use(metrics.HTTPMiddleware(app.metrics.MeterProvider(), app.cfg.Metrics.Namespace))
	}
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

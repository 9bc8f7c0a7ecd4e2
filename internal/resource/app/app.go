package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aussiebroadwan/tokentrust/internal/guard"
	"github.com/aussiebroadwan/tokentrust/internal/metrics"
	resourcehttp "github.com/aussiebroadwan/tokentrust/internal/resource/http"
	"github.com/aussiebroadwan/tokentrust/internal/resource/store"
	"github.com/aussiebroadwan/tokentrust/internal/revocation"
	"github.com/aussiebroadwan/tokentrust/internal/revocation/drivers"
	"github.com/aussiebroadwan/tokentrust/pkg/jwtx"
	"github.com/aussiebroadwan/tokentrust/pkg/keys"
	"github.com/aussiebroadwan/tokentrust/pkg/slogx"
)

const BuildVersion = "v0.1.0"

// Application is the resource service: a token verifier in front of a
// small in-memory API.
type Application struct {
	cfg    Config
	logger *slog.Logger

	keyManager  *jwtx.KeyManager
	revocations revocation.Store
	metrics     *metrics.Provider

	server *http.Server
}

func New(ctx context.Context, cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "resource-service",
			Version: BuildVersion,
			Env:     cfg.Logging.Env,
			Level:   cfg.Logging.Level,
			Format:  cfg.Logging.Format,
		}),
	}

	km, err := app.initKeys()
	if err != nil {
		return nil, err
	}
	app.keyManager = km

	rev, err := drivers.Open(ctx, cfg.Revocation, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open revocation store: %w", err)
	}
	app.revocations = rev

	if err := app.initHTTP(); err != nil {
		_ = rev.Close()
		return nil, err
	}
	return app, nil
}

// initKeys loads the public key only; the resource service cannot sign.
func (app *Application) initKeys() (*jwtx.KeyManager, error) {
	material, err := keys.NewProvider(keys.Source{PublicKeyFile: app.cfg.Keys.PublicKeyFile}, app.logger).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load verification key: %w", err)
	}
	pub, err := material.PublicKey()
	if err != nil {
		return nil, err
	}

	km, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{
		KID:       app.cfg.Keys.KID,
		PublicKey: pub,
		Verify: jwtx.VerifyOptions{
			Issuer:   app.cfg.Token.Issuer,
			Audience: app.cfg.Token.Audience,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize verifier: %w", err)
	}

	app.logger.Info("verification key loaded", "kid", app.cfg.Keys.KID, "bits", material.Bits())
	return km, nil
}

func (app *Application) initHTTP() error {
	var opts []guard.ValidatorOption
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
		opts = append(opts, guard.WithMetrics(tm))
	}

	router := resourcehttp.NewRouter(
		guard.NewValidator(app.keyManager.Verifier, app.revocations, opts...),
		guard.NewEnforcer(nil),
		store.NewMemory(),
		app.keyManager.KeySet,
		app.revocations,
		BuildVersion,
		app.logger,
	)
	if app.metrics != nil {
		router.MetricsHandler = app.metrics.Handler()
		router.Use(metrics.HTTPMiddleware(app.metrics.MeterProvider(), app.cfg.Metrics.Namespace))
	}
	router.ApplyRoutes()

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}

// Run serves until ctx is cancelled or the server fails.
func (app *Application) Run(ctx context.Context) error {
	app.logger.Info("resource service starting", "port", app.cfg.HTTP.Port, "version", BuildVersion)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return app.Shutdown()
	})
	return g.Wait()
}

func (app *Application) Shutdown() error {
	app.logger.Info("shutting down resource service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.HTTP.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		_ = app.server.Close()
	}
	if err := app.metrics.Shutdown(ctx); err != nil {
		app.logger.Error("error flushing metrics", "error", err)
	}
	if err := app.revocations.Close(); err != nil {
		app.logger.Error("error closing revocation store", "error", err)
		return err
	}

	app.logger.Info("resource service stopped")
	return nil
}

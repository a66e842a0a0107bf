package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	httpapi "github.com/quorumlabs/minute/internal/auth/http"
	"github.com/quorumlabs/minute/internal/auth/service"
	"github.com/quorumlabs/minute/internal/auth/store"
	"github.com/quorumlabs/minute/internal/auth/store/drivers/sqlite"
	"github.com/quorumlabs/minute/pkg/cryptox"
	"github.com/quorumlabs/minute/pkg/jwtx"
	"github.com/quorumlabs/minute/pkg/slogx"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db    store.Store
	codec *jwtx.Codec

	authService         *service.AuthService
	mfaService          *service.MFAService
	userService         *service.UserService
	resetService        *service.PasswordResetService
	auditService        *service.AuditService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "minute-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(cfg.PepperFile)

	key, err := loadSigningKey(cfg)
	if err != nil {
		return nil, err
	}
	codec, err := jwtx.NewCodec(key, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}
	app.codec = codec

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initServices()

	if err := app.bootstrapService.EnsureSuperAdmin(
		context.Background(), cfg.SeedAdminEmail, cfg.SeedAdminPassword,
	); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()
	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.auditService.Start()
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop workers before the database goes away beneath them.
	app.housekeepingService.Stop()
	app.auditService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// loadSigningKey resolves the HMAC key from file or environment. The key is
// always injected; there is no silent fallback to a baked-in default.
func loadSigningKey(cfg Config) ([]byte, error) {
	if cfg.SigningKeyFile != "" {
		raw, err := os.ReadFile(cfg.SigningKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read signing key file: %w", err)
		}
		return []byte(strings.TrimSpace(string(raw))), nil
	}
	if cfg.SigningKey != "" {
		return []byte(cfg.SigningKey), nil
	}
	return nil, errors.New("no signing key configured: set AUTH_SIGNING_KEY or AUTH_SIGNING_KEY_FILE")
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.auditService = service.NewAuditService(app.db, app.logger, 0)

	app.authService = service.NewAuthService(app.db, app.codec, app.auditService)
	app.authService.SessionTTL = app.cfg.SessionTTL
	app.authService.PartialTTL = app.cfg.PartialTTL

	app.mfaService = service.NewMFAService(app.db, app.codec, app.auditService, app.cfg.Issuer)
	app.mfaService.ToleranceSeconds = app.cfg.OTPTolerance
	app.mfaService.SessionTTL = app.cfg.SessionTTL

	app.userService = &service.UserService{Store: app.db}
	app.resetService = service.NewPasswordResetService(app.db, app.auditService, app.logger)
	app.bootstrapService = &service.BootstrapService{
		Store:  app.db,
		Users:  app.userService,
		Logger: app.logger,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.codec,
		BuildVersion,
		app.db,
		app.logger,
		app.cfg.Env == "prod",
		app.cfg.SessionTTL,
	)
	router.AuthService = app.authService
	router.MFAService = app.mfaService
	router.UserService = app.userService
	router.ResetService = app.resetService
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: router,
	}
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/auth"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/core/events"
	identitypg "github.com/PacificEMIS/pacific-emis-teacher-registration/internal/identity/postgres"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/lookup"
	lookuppg "github.com/PacificEMIS/pacific-emis-teacher-registration/internal/lookup/postgres"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/metrics"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/notification"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/pending"
	pendingpg "github.com/PacificEMIS/pacific-emis-teacher-registration/internal/pending/postgres"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/registration"
	registrationpg "github.com/PacificEMIS/pacific-emis-teacher-registration/internal/registration/postgres"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/staff"
	staffpg "github.com/PacificEMIS/pacific-emis-teacher-registration/internal/staff/postgres"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/storage"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/systemuser"
	systemuserpg "github.com/PacificEMIS/pacific-emis-teacher-registration/internal/systemuser/postgres"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/transport"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/transport/rest"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

func startHTTPServer() {
	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(os.Getenv("APP_ENV"))
	log := logger.LoggerWrapper()

	db, err := initDB(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize ORM: %v\n", err)
		os.Exit(1)
	}

	router, err := buildRouter(cfg, db, gormDB, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to wire application: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := db.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

// buildRouter wires repositories, the permission evaluator, services and
// handlers onto a chi router.
func buildRouter(cfg *internal.Config, db *sqlx.DB, gormDB *gorm.DB, log *slog.Logger) (*chi.Mux, error) {
	identityRepo := identitypg.NewRepository(gormDB)
	staffRepo := staffpg.NewStaffRepository(gormDB)
	systemUserRepo := systemuserpg.NewSystemUserRepository(gormDB)
	registrationRepo := registrationpg.NewRegistrationRepository(gormDB)
	pendingRepo := pendingpg.NewPendingRepository(gormDB)
	lookupRepo := lookuppg.NewLookupRepository(gormDB)

	evaluator := auth.NewEvaluator(staffRepo)

	tokenGen := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(identityRepo, tokenGen, cfg.Security.BCryptCost)
	authHandler := auth.NewHandler(authService, evaluator)
	rbac := auth.NewRBACAuthorization(evaluator, log)

	store, err := storage.New(storage.Config{
		Type:      storage.Type(cfg.Storage.Type),
		LocalPath: cfg.Storage.LocalPath,
		S3Bucket:  cfg.Storage.S3Bucket,
		S3Region:  cfg.Storage.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	bus := events.NewEventBus(log)
	if cfg.Mail.Enabled {
		sender := notification.NewSMTPSender(cfg.Mail)
		notification.NewService(sender, cfg.Mail, log).SubscribeAll(bus)
	}

	registry := prometheus.NewRegistry()
	var (
		regMetrics  *metrics.RegistrationMetrics
		httpMetrics *metrics.HTTPMetrics
		metricsH    http.Handler
	)
	if cfg.Observability.Metrics.Enabled {
		regMetrics = metrics.NewRegistrationMetrics(registry)
		httpMetrics = metrics.NewHTTPMetrics(registry)
		metricsH = metrics.Handler(registry)
	} else {
		regMetrics = metrics.NewRegistrationMetrics(nil)
		httpMetrics = metrics.NewHTTPMetrics(nil)
	}

	staffService := staff.NewService(staffRepo, evaluator, store, log)
	systemUserService := systemuser.NewService(systemUserRepo, evaluator, log)
	registrationService := registration.NewService(registrationRepo, evaluator, identityRepo, store, bus, regMetrics, log)
	pendingService := pending.NewService(pendingRepo, identityRepo, staffRepo, systemUserRepo, evaluator, log)
	lookupService := lookup.NewService(lookupRepo, log)

	router := chi.NewRouter()
	router.Use(httpMetrics.Middleware)

	rest.RegisterAllRoutes(router, db.DB, rest.Handlers{
		Auth:         authHandler,
		RBAC:         rbac,
		Lookup:       lookup.NewHandler(transport.NewBaseHandler(log), lookupService),
		Staff:        staff.NewHandler(staffService),
		SystemUser:   systemuser.NewHandler(systemUserService),
		Pending:      pending.NewHandler(pendingService),
		Registration: registration.NewHandler(registrationService),
		Metrics:      metricsH,
		MetricsPath:  cfg.Observability.Metrics.Path,
	}, log)

	return router, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

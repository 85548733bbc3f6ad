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

	"github.com/frahmantamala/calendar-sharing/internal"
	"github.com/frahmantamala/calendar-sharing/internal/access"
	accesspg "github.com/frahmantamala/calendar-sharing/internal/access/postgres"
	"github.com/frahmantamala/calendar-sharing/internal/auth"
	"github.com/frahmantamala/calendar-sharing/internal/calendar"
	calendarpg "github.com/frahmantamala/calendar-sharing/internal/calendar/postgres"
	"github.com/frahmantamala/calendar-sharing/internal/core/events"
	"github.com/frahmantamala/calendar-sharing/internal/email"
	"github.com/frahmantamala/calendar-sharing/internal/event"
	eventpg "github.com/frahmantamala/calendar-sharing/internal/event/postgres"
	"github.com/frahmantamala/calendar-sharing/internal/group"
	grouppg "github.com/frahmantamala/calendar-sharing/internal/group/postgres"
	"github.com/frahmantamala/calendar-sharing/internal/sharing"
	sharingpg "github.com/frahmantamala/calendar-sharing/internal/sharing/postgres"
	"github.com/frahmantamala/calendar-sharing/internal/storage"
	"github.com/frahmantamala/calendar-sharing/internal/translation"
	"github.com/frahmantamala/calendar-sharing/internal/transport/rest"
	"github.com/frahmantamala/calendar-sharing/internal/user"
	userpg "github.com/frahmantamala/calendar-sharing/internal/user/postgres"
	"github.com/frahmantamala/calendar-sharing/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
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

type Dependencies struct {
	Config      *internal.Config
	DB          *sqlx.DB
	Router      *chi.Mux
	EmailClient *email.Client
	Logger      *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		deps.EmailClient.Shutdown()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	appLogger := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGormDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	// repositories
	userRepo := userpg.NewUserRepository(gormDB)
	accessRepo := accesspg.NewAccessRepository(gormDB)
	groupRepo := grouppg.NewGroupRepository(gormDB)
	calendarRepo := calendarpg.NewCalendarRepository(gormDB)
	pendingRepo := sharingpg.NewPendingRepository(gormDB)
	eventRepo := eventpg.NewEventRepository(gormDB)

	// infrastructure
	eventBus := events.NewEventBus(appLogger)
	resolver := access.NewResolver(accessRepo, appLogger)
	emailClient := email.NewClient(config.Email, appLogger)
	translator := translation.NewClient(config.Translation, appLogger)
	files, err := storage.NewLocalStorage(config.Storage, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.JWTSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
		config.Security.RememberMeDuration,
	)

	email.NewNotifier(emailClient, tokenGen, config.Server.BaseURL, appLogger).Register(eventBus)

	// services
	sharingSvc := sharing.NewService(accessRepo, groupRepo, userRepo, pendingRepo, calendarRepo, resolver, eventBus, appLogger)
	groupSvc := group.NewService(groupRepo, accessRepo, appLogger)
	eventSvc := event.NewService(eventRepo, resolver, calendarRepo, translator, files, appLogger)
	calendarSvc := calendar.NewService(calendarRepo, resolver, eventSvc, sharingSvc, appLogger)
	userSvc := user.NewService(userRepo, sharingSvc, eventBus, config.Security.BCryptCost, appLogger)
	adminSvc := user.NewAdminService(userRepo, groupRepo, sharingSvc, sharingSvc, eventSvc, calendarSvc, appLogger)
	authSvc := auth.NewService(userRepo, tokenGen, eventBus, config.Security.BCryptCost, appLogger)

	// transport
	cookies := auth.NewCookieWriter(
		config.Security.CookieDomain,
		config.Security.CookieSecure,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
		config.Security.RememberMeDuration,
	)
	handlers := rest.Handlers{
		Auth:     auth.NewHandler(authSvc, cookies),
		AuthMW:   auth.NewMiddleware(authSvc, config.Security.SuperadminEmail),
		User:     user.NewHandler(userSvc, adminSvc),
		Calendar: calendar.NewHandler(calendarSvc),
		Sharing:  sharing.NewHandler(sharingSvc, groupSvc),
		Event:    event.NewHandler(eventSvc, config.Storage.MaxUploadSize),
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, config, handlers, appLogger)

	return &Dependencies{
		Config:      config,
		Logger:      appLogger,
		DB:          db,
		Router:      router,
		EmailClient: emailClient,
	}, nil
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

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGormDB wraps the shared *sql.DB so both layers use one pool.
func initGormDB(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
}

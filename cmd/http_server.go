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

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/operativa/gestionale/internal"
	"github.com/operativa/gestionale/internal/commesse"
	"github.com/operativa/gestionale/internal/database"
	"github.com/operativa/gestionale/internal/identity"
	identitypg "github.com/operativa/gestionale/internal/identity/postgres"
	"github.com/operativa/gestionale/internal/tenant"
	tenantpg "github.com/operativa/gestionale/internal/tenant/postgres"
	"github.com/operativa/gestionale/internal/transport/rest"
	"github.com/operativa/gestionale/pkg/logger"
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
	Config *internal.Config
	DB     *database.DB
	Router *chi.Mux
	Logger *slog.Logger
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
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
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
		deps.Logger.Info("received signal, shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
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

	env := appEnv()
	logger.InitWithLevel(env, config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	db, err := connectWithRetry(config.Database, env, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := openGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	identityResolver, err := buildIdentityResolver(config.Security, gormDB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize identity resolver: %w", err)
	}

	companyRepo := tenantpg.NewRepository(gormDB)
	tenantResolver := tenant.NewResolver(db, companyRepo, config.Tenancy.AllowSlugResolution)

	commesseHandler := commesse.NewHandler(commesse.NewService())

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Deps{
		DB:              db,
		Identity:        identityResolver,
		Tenant:          tenantResolver,
		SlugTenant:      tenantResolver,
		CommesseHandler: commesseHandler,
		Config:          config,
		Logger:          lg,
	})

	return &Dependencies{
		Config: config,
		DB:     db,
		Router: router,
		Logger: lg,
	}, nil
}

// connectWithRetry backs off linearly; migrations and the server share a
// compose network where postgres may not be ready yet.
func connectWithRetry(cfg internal.DatabaseConfig, env string, lg *slog.Logger) (*database.DB, error) {
	retries := cfg.ConnectRetries
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		db, err := database.New(cfg, env)
		if err == nil {
			return db, nil
		}
		lastErr = err
		lg.Warn("database connection failed, retrying",
			"attempt", attempt,
			"retries", retries,
			"error", err)
		time.Sleep(time.Duration(attempt) * time.Second)
	}

	return nil, lastErr
}

// openGorm layers gorm over the already-open pool so repositories and the
// facade share one set of connections.
func openGorm(db *database.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		Conn: db.Pool().DB,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}

func buildIdentityResolver(cfg internal.SecurityConfig, gormDB *gorm.DB) (*identity.Resolver, error) {
	accessKey, err := cfg.GetAccessTokenKey()
	if err != nil {
		return nil, fmt.Errorf("access token key: %w", err)
	}
	identityKey, err := cfg.GetIdentityTokenKey()
	if err != nil {
		return nil, fmt.Errorf("identity token key: %w", err)
	}

	accessVerifier := identity.NewRSAVerifier(accessKey, identity.TokenUseAccess, cfg.Issuer, cfg.Audience)
	identityVerifier := identity.NewRSAVerifier(identityKey, identity.TokenUseID, cfg.Issuer, cfg.Audience)

	userRepo := identitypg.NewRepository(gormDB)
	return identity.NewResolver(accessVerifier, identityVerifier, userRepo), nil
}

func appEnv() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	return "development"
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/adzspec-asad/ai-studio-api/internal/adapter/goosemigrate"
	aihttp "github.com/adzspec-asad/ai-studio-api/internal/adapter/http"
	"github.com/adzspec-asad/ai-studio-api/internal/adapter/migratecli"
	ainats "github.com/adzspec-asad/ai-studio-api/internal/adapter/nats"
	"github.com/adzspec-asad/ai-studio-api/internal/adapter/postgres"
	"github.com/adzspec-asad/ai-studio-api/internal/adapter/ristretto"
	"github.com/adzspec-asad/ai-studio-api/internal/config"
	"github.com/adzspec-asad/ai-studio-api/internal/domain/tenant"
	"github.com/adzspec-asad/ai-studio-api/internal/logger"
	"github.com/adzspec-asad/ai-studio-api/internal/middleware"
	"github.com/adzspec-asad/ai-studio-api/internal/port/messagequeue"
	"github.com/adzspec-asad/ai-studio-api/internal/port/schema"
	"github.com/adzspec-asad/ai-studio-api/internal/secrets"
	"github.com/adzspec-asad/ai-studio-api/internal/service"
)

const version = "0.1.0"

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.New(cfg.Logging)
	slog.SetDefault(log)

	log.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"migration_mode", cfg.Migration.Mode,
		"auth_enabled", cfg.Auth.Enabled,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	masterPool, err := postgres.NewMasterPool(ctx, cfg.MasterDB)
	if err != nil {
		return fmt.Errorf("master db: %w", err)
	}
	defer masterPool.Close()
	log.Info("master database connected", "database", cfg.MasterDB.Database)

	if err := postgres.RunMasterMigrations(ctx, cfg.MasterDB.MasterDSN()); err != nil {
		return fmt.Errorf("master migrations: %w", err)
	}
	log.Info("master migrations applied")

	store := postgres.NewStore(masterPool)
	prov := postgres.NewProvisioner(masterPool, cfg.MasterDB.Database, log)

	var applier schema.Applier
	switch cfg.Migration.Mode {
	case "subprocess":
		applier = migratecli.New(cfg.Migration.GooseBin, cfg.Migration.TenantDir, cfg.Migration.Timeout)
	default:
		applier = goosemigrate.New(cfg.Migration.Timeout)
	}

	pools := postgres.NewPools(postgres.PgxOpen(cfg.TenantPool), cfg.TenantPool.IdleTTL, log)
	defer pools.Close()
	stopSweep := pools.Start(cfg.TenantPool.SweepInterval)
	defer stopSweep()

	tenantCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("tenant cache: %w", err)
	}
	defer tenantCache.Close()

	// Tenant lifecycle events are best-effort; a missing broker must not
	// keep the control plane down.
	var queue messagequeue.Queue
	if cfg.NATS.URL != "" {
		q, err := ainats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			log.Warn("nats unavailable, tenant events disabled", "url", cfg.NATS.URL, "error", err)
		} else {
			queue = q
			defer func() { _ = q.Close() }()
		}
	}

	vault, err := secrets.NewVault(secrets.EnvLoader(cfg.Encryption.KeyEnv))
	if err != nil {
		return fmt.Errorf("secrets: %w", err)
	}

	var cipher *secrets.Cipher
	if key := vault.Get(cfg.Encryption.KeyEnv); key != "" {
		cipher, err = secrets.NewCipher(key)
		if err != nil {
			return fmt.Errorf("encryption key (%s): %w", cfg.Encryption.KeyEnv, err)
		}
		log.Info("tenant password encryption enabled")
	} else {
		log.Warn("tenant password encryption disabled", "key_env", cfg.Encryption.KeyEnv)
	}

	// --- Services ---

	tenantSvc := service.NewTenantService(service.TenantServiceOpts{
		Store:    store,
		Prov:     prov,
		Applier:  applier,
		Pools:    pools,
		Cache:    tenantCache,
		Queue:    queue,
		Cipher:   cipher,
		Defaults: tenant.Defaults{DBHost: cfg.MasterDB.Host, DBPort: cfg.MasterDB.Port},
		CacheTTL: cfg.Cache.TTL,
		Log:      log,
	})
	authSvc := service.NewAuthService(store, cfg.Auth)
	healthSvc := service.NewHealthService(masterPool, queue, version)

	// --- HTTP ---

	loginLimiter := middleware.NewLoginLimiter(0.2, 5)
	stopLimiter := loginLimiter.StartCleanup(time.Minute, 10*time.Minute)
	defer stopLimiter()

	handlers := aihttp.NewHandlers(tenantSvc, authSvc, healthSvc, log)

	r := chi.NewRouter()

	r.Use(aihttp.CORS(cfg.Server.CORSOrigin))
	r.Use(aihttp.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(aihttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(loginLimiter.Handler("/api/system/auth/login"))
	r.Use(middleware.Auth(authSvc, cfg.Auth.Enabled))
	r.Use(middleware.Tenant(tenantSvc, pools, middleware.NewExemptRoutes(middleware.DefaultExemptRoutes), log))

	aihttp.MountRoutes(r, handlers)

	// Tenant-scoped routes sit behind the resolver above.
	r.Get("/api/ping", handlers.TenantPing)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
		}
	}()

	<-done
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

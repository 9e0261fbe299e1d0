package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/Pilar-d/pendientes/api/handler"
	"github.com/Pilar-d/pendientes/domain"
	"github.com/Pilar-d/pendientes/internal/config"
	"github.com/Pilar-d/pendientes/internal/infrastructure/database"
	"github.com/Pilar-d/pendientes/internal/infrastructure/monitor"
	redisInfra "github.com/Pilar-d/pendientes/internal/infrastructure/redis"
	"github.com/Pilar-d/pendientes/internal/middleware"
	"github.com/Pilar-d/pendientes/internal/router"
	"github.com/Pilar-d/pendientes/internal/services"
	"github.com/Pilar-d/pendientes/internal/services/lifecycle"
	"github.com/Pilar-d/pendientes/pkg/httpcontext"
	"github.com/Pilar-d/pendientes/pkg/logger"
	"github.com/Pilar-d/pendientes/pkg/signedcookie"
	"github.com/Pilar-d/pendientes/repository"
	boltRepo "github.com/Pilar-d/pendientes/repository/bolt"
	"github.com/Pilar-d/pendientes/repository/postgres"
	redisRepo "github.com/Pilar-d/pendientes/repository/redis"
	"github.com/Pilar-d/pendientes/repository/sqlite"
	authUC "github.com/Pilar-d/pendientes/usecase/auth"
	schemaUC "github.com/Pilar-d/pendientes/usecase/schema"
	taskUC "github.com/Pilar-d/pendientes/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	db, err := database.Open(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("database connection failed", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	manager.Register("database", func(ctx context.Context) error {
		db.Close()
		return nil
	})

	schemaUseCase := schemaUC.New(
		database.NewMigrator(cfg.Database, zapLogger),
		database.NewVerifier(db),
		zapLogger,
	)
	version, err := schemaUseCase.Prepare(appCtx, cfg.Migrations.Enabled)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeSchemaMismatch) {
			zapLogger.Fatal("database schema is out of date; run `migrate up` or set RUN_MIGRATIONS=true. No data was modified.",
				zap.Uint("version", version), zap.Error(err))
		}
		zapLogger.Fatal("schema check failed", zap.Error(err))
	}
	zapLogger.Info("schema ready", zap.Uint("version", version))

	var (
		accountRepo repository.AccountRepository
		taskRepo    repository.TaskRepository
	)
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		accountRepo = postgres.NewAccountRepository(db.Pool)
		taskRepo = postgres.NewTaskRepository(db.Pool)
	default:
		accountRepo = sqlite.NewAccountRepository(db.SQL)
		taskRepo = sqlite.NewTaskRepository(db.SQL)
	}

	var (
		sessionRepo   repository.SessionRepository
		sessionPinger monitor.Pinger
	)
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.Closer("redis", redisClient.Close)
		sessionRepo = redisRepo.NewSessionRepository(redisClient, cfg.Session.TTL)
		sessionPinger = monitor.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	default:
		store, err := boltRepo.Open(cfg.Session.Path, cfg.Session.TTL)
		if err != nil {
			zapLogger.Fatal("failed to open session store", zap.String("path", cfg.Session.Path), zap.Error(err))
		}
		manager.Closer("session_store", store.Close)
		sessionRepo = store
		sessionPinger = store
	}

	mon := monitor.New(cfg.Monitor.Interval, zapLogger,
		monitor.Check{Name: "database", Pinger: db},
		monitor.Check{Name: "sessions", Pinger: sessionPinger},
	)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	authUseCase := authUC.New(accountRepo, sessionRepo, cfg.Session.TTL, zapLogger)
	taskUseCase := taskUC.New(taskRepo, zapLogger)

	janitor, err := services.NewSessionJanitor(authUseCase, cfg.Session.CleanupInterval, zapLogger)
	if err != nil {
		zapLogger.Fatal("session janitor setup failed", zap.Error(err))
	}
	janitor.Start()
	manager.Register("session_janitor", func(ctx context.Context) error {
		janitor.Stop(ctx)
		return nil
	})

	views, err := apiHandler.NewViews()
	if err != nil {
		zapLogger.Fatal("failed to parse templates", zap.Error(err))
	}

	codec := signedcookie.New(cfg.Session.Secret, cfg.AppName)
	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)
	deps := apiHandler.Deps{
		Adapter: ctxAdapter,
		Views:   views,
		Flash:   apiHandler.NewFlasher(codec, cfg.Session.CookieName+"_flash", cfg.Session.CookieSecure),
		Logger:  zapLogger,
	}
	sessionCookie := apiHandler.SessionCookie{Name: cfg.Session.CookieName, Secure: cfg.Session.CookieSecure}

	handlers := router.Handlers{
		Auth:   apiHandler.NewAuthHandler(authUseCase, codec, sessionCookie, deps),
		Task:   apiHandler.NewTaskHandler(taskUseCase, deps),
		Admin:  apiHandler.NewAdminHandler(schemaUseCase, deps),
		Health: apiHandler.NewHealthHandler(mon, deps),
	}

	requireSession := middleware.SessionAuth(cfg.Session.CookieName, codec, authUseCase, ctxAdapter, zapLogger)
	r := router.New(handlers, requireSession)

	server := &fasthttp.Server{
		Handler:      router.Chain(r.Handler, middleware.AccessLog(zapLogger)),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("db_driver", cfg.Database.Driver),
			zap.String("session_backend", cfg.Session.Backend),
		)
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

// Command api runs the Qarzhy Learning Hub REST API server.
//
// It wires the progression ledger, the loan calculator, and the leaderboard
// behind a JSON API, with PostgreSQL as the system of record and Redis as
// the hot read path for rankings.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qarzhy-hub/qarzhy-learning-hub/config"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/application/command"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/application/eventhandler"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/application/query"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/leaderboard"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/learner"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/lesson"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/loan"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/infrastructure/messaging"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/infrastructure/persistence/memory"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/infrastructure/persistence/postgres"
	redisCache "github.com/qarzhy-hub/qarzhy-learning-hub/internal/infrastructure/persistence/redis"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/infrastructure/scheduler"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/infrastructure/scheduler/jobs"
	httpapi "github.com/qarzhy-hub/qarzhy-learning-hub/internal/interface/http"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/interface/http/handlers"
	"github.com/qarzhy-hub/qarzhy-learning-hub/pkg/circuitbreaker"
	"github.com/qarzhy-hub/qarzhy-learning-hub/pkg/logger"
	"github.com/qarzhy-hub/qarzhy-learning-hub/pkg/retry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	flags := config.LoadFeatureFlags()

	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.App.Debug,
	})
	slogger := newSlogger(cfg)

	log.Info("starting qarzhy-learning-hub",
		logger.String("version", cfg.App.Version),
		logger.String("environment", string(cfg.App.Environment)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─────────────────────────────────────────────────────────────────────────
	// Persistence
	// ─────────────────────────────────────────────────────────────────────────

	var (
		progressRepo   learner.ProgressRepository
		quizRepo       learner.QuizRecordRepository
		simulationRepo loan.SimulationRepository
		catalog        lesson.Catalog
		pgConn         *postgres.Connection
	)

	if cfg.Database.URL != "" {
		pgConn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pgConn.Close()

		migrator := postgres.NewMigrator(pgConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		progressRepo = postgres.NewProgressRepository(pgConn)
		quizRepo = postgres.NewQuizRecordRepository(pgConn)
		simulationRepo = postgres.NewSimulationRepository(pgConn)

		lessonRepo := postgres.NewLessonRepository(pgConn)
		if err := seedLessons(ctx, lessonRepo); err != nil {
			return fmt.Errorf("seed lessons: %w", err)
		}
		catalog = lessonRepo

		log.Info("using postgres persistence")
	} else {
		// No database configured: in-memory stores for local development.
		progressRepo = memory.NewProgressStore()
		quizRepo = memory.NewQuizJournal()
		simulationRepo = memory.NewSimulationStore()
		catalog = lesson.NewSeededCatalog()

		log.Warn("DATABASE_URL not set, using in-memory persistence")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Redis leaderboard cache
	// ─────────────────────────────────────────────────────────────────────────

	var (
		lbCache leaderboard.Cache
		rcache  *redisCache.Cache
	)

	if !cfg.Redis.Disabled && flags.IsEnabled(config.FeatureLeaderboardCache, nil) {
		rcache, err = redisCache.NewCache(redisCache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			// The leaderboard falls back to database snapshots without Redis.
			log.Warn("redis unavailable, leaderboard cache disabled", logger.Err(err))
		} else {
			defer rcache.Close()
			lbCache = redisCache.NewLeaderboardCache(rcache)
			log.Info("redis leaderboard cache enabled")
		}
	}

	cacheBreaker := circuitbreaker.New("leaderboard-cache",
		circuitbreaker.WithFailureThreshold(5),
		circuitbreaker.WithTimeout(30*time.Second),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// Event bus and handlers
	// ─────────────────────────────────────────────────────────────────────────

	eventBus := messaging.NewInMemoryEventBus(messaging.DefaultInMemoryEventBusConfig())
	defer eventBus.Close()

	dispatcher := messaging.NewDispatcher(messaging.DispatcherConfig{
		EventBus: eventBus,
		Logger:   slogger,
	})

	if lbCache != nil {
		coinsHandler := eventhandler.NewOnCoinsAwardedHandler(
			progressRepo, lbCache, slogger, eventhandler.DefaultCoinsAwardedConfig())
		if err := dispatcher.Register(shared.EventCoinsAwarded, "leaderboard_write_through", coinsHandler.Handle); err != nil {
			return fmt.Errorf("register coins handler: %w", err)
		}
	}

	levelUpHandler := eventhandler.NewOnLevelUpHandler(slogger, nil)
	if err := dispatcher.Register(shared.EventLevelUp, "level_up_log", levelUpHandler.Handle); err != nil {
		return fmt.Errorf("register level up handler: %w", err)
	}

	if err := dispatcher.Start(); err != nil {
		return fmt.Errorf("start dispatcher: %w", err)
	}
	defer dispatcher.Stop()

	// ─────────────────────────────────────────────────────────────────────────
	// Application handlers
	// ─────────────────────────────────────────────────────────────────────────

	ledgerRetrier := retry.New(
		retry.WithMaxAttempts(cfg.Ledger.MaxWriteRetries),
		retry.WithInitialDelay(cfg.Ledger.RetryBaseDelay),
		retry.WithMaxDelay(cfg.Ledger.RetryMaxDelay),
		retry.WithMultiplier(2.0),
		retry.WithJitter(0.2),
	)

	registerHandler := command.NewRegisterLearnerHandler(
		progressRepo, eventBus, command.RegisterLearnerHandlerConfig{})

	quizHandler := command.NewRecordQuizResultHandler(
		progressRepo, quizRepo, catalog, eventBus,
		command.RecordQuizResultHandlerConfig{
			Retrier:  ledgerRetrier,
			Location: cfg.App.Location,
		})

	simulationHandler := command.NewRecordSimulationRunHandler(
		progressRepo, simulationRepo, eventBus,
		command.RecordSimulationRunHandlerConfig{
			Retrier:    ledgerRetrier,
			Location:   cfg.App.Location,
			BonusCoins: cfg.Ledger.SimulationBonusCoins,
		})

	leaderboardHandler := query.NewGetLeaderboardHandler(
		progressRepo, query.GetLeaderboardHandlerConfig{
			Cache:        lbCache,
			CacheBreaker: cacheBreaker,
			CacheTTL:     cfg.Ledger.LeaderboardCacheTTL,
		})

	// ─────────────────────────────────────────────────────────────────────────
	// Background jobs
	// ─────────────────────────────────────────────────────────────────────────

	if cfg.Scheduler.Enabled && lbCache != nil {
		sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
			Logger:   slogger,
			Timezone: cfg.App.Location,
		})

		refreshJob := jobs.NewRefreshLeaderboardJob(
			progressRepo, lbCache, slogger,
			jobs.RefreshLeaderboardConfig{
				TopLimit:        cfg.Ledger.LeaderboardTopLimit,
				CacheTTL:        cfg.Ledger.LeaderboardCacheTTL,
				Timeout:         cfg.Scheduler.JobTimeout,
				TrackRankChange: flags.IsEnabled(config.FeatureLeaderboardRankChange, nil),
			})

		schedule := scheduler.NewIntervalSchedule(cfg.Scheduler.RefreshLeaderboardInterval)
		if err := sched.Register(refreshJob, schedule); err != nil {
			return fmt.Errorf("register refresh job: %w", err)
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer func() { _ = sched.Stop() }()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// HTTP server
	// ─────────────────────────────────────────────────────────────────────────

	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	if pgConn != nil {
		healthChecker.AddCheck("postgres", handlers.NewDatabaseCheck(pgConn))
	}
	if rcache != nil {
		healthChecker.AddCheck("redis", handlers.NewCacheCheck(rcache))
	}

	server := httpapi.NewServer(httpapi.Config{
		Host:               cfg.HTTP.Host,
		Port:               cfg.HTTP.Port,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		MaxBodyBytes:       cfg.HTTP.MaxBodyBytes,
		EnableCORS:         cfg.HTTP.EnableCORS,
		AllowedOrigins:     cfg.HTTP.AllowedOrigins,
		RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
		APIKeyHeader:       cfg.HTTP.APIKeyHeader,
		APIKeys:            cfg.HTTP.APIKeys,
	}, httpapi.Dependencies{
		RegisterLearnerHandler:     registerHandler,
		RecordQuizResultHandler:    quizHandler,
		RecordSimulationRunHandler: simulationHandler,
		ComputeAmortizationHandler: query.NewComputeAmortizationHandler(),
		CompareOffersHandler:       query.NewCompareOffersHandler(),
		GetProgressHandler:         query.NewGetProgressHandler(progressRepo),
		GetProfileStatsHandler:     query.NewGetProfileStatsHandler(progressRepo, quizRepo, simulationRepo, catalog),
		GetLeaderboardHandler:      leaderboardHandler,
		Logger:                     log,
		HealthChecker:              healthChecker,
	})

	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// Graceful shutdown
	// ─────────────────────────────────────────────────────────────────────────

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

// seedLessons loads the default curriculum into the lessons table.
// Existing rows are preserved so curriculum edits survive restarts.
func seedLessons(ctx context.Context, repo *postgres.LessonRepository) error {
	seeded := lesson.NewSeededCatalog()
	lessons, err := seeded.List(ctx)
	if err != nil {
		return err
	}
	return repo.Seed(ctx, lessons)
}

// newSlogger builds the slog logger used by infrastructure components.
func newSlogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Observability.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Observability.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

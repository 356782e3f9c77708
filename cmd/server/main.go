package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	httpapi "gare/internal/http"
	"gare/internal/notify"
	"gare/internal/platform/config"
	"gare/internal/platform/httpserver"
	"gare/internal/platform/logger"
	platformredis "gare/internal/platform/redis"
	"gare/internal/platform/scheduler"
	"gare/internal/tender/job"
	tendermetrics "gare/internal/tender/metrics"
	"gare/internal/tender/service"
	"gare/internal/tender/store/memory"
	"gare/internal/tender/store/postgres"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal/tender packages.
func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, pool, err := buildStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	dispatcher, closeDispatcher, err := buildDispatcher(cfg, log)
	if err != nil {
		return err
	}
	defer closeDispatcher()

	m := tendermetrics.New()
	svc := service.New(
		stores.tenders, stores.lots, stores.quotes, stores.participants, stores.clarifications,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithDispatcher(dispatcher),
	)

	deadline := job.NewDeadline(svc,
		job.WithLogger(log),
		job.WithMetrics(m),
		job.WithParallelism(cfg.Deadline.Parallelism),
	)

	schedOpts := []scheduler.Option{
		scheduler.WithLogger(log),
		scheduler.WithRetries(cfg.Deadline.Retries),
	}
	if redisClient != nil {
		lock := platformredis.NewLock(redisClient, "gare:deadline-job", cfg.Deadline.LockTTL)
		schedOpts = append(schedOpts, scheduler.WithLock(lock))
	}
	sched := scheduler.New(deadline, schedOpts...)
	if err := sched.Start(cfg.Deadline.CronSpec); err != nil {
		return err
	}
	defer sched.Stop()

	checks := map[string]httpapi.HealthCheck{}
	if pool != nil {
		checks["postgres"] = pool.Ping
	}
	if redisClient != nil {
		checks["redis"] = redisClient.Health
	}
	router := httpapi.NewRouter(checks)

	srv := httpserver.New(cfg.Server.Addr, router.Handler())
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	log.Info("server started", "addr", cfg.Server.Addr, "cron", cfg.Deadline.CronSpec)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

type storeSet struct {
	tenders        service.TenderStore
	lots           service.LotStore
	quotes         service.QuoteStore
	participants   service.ParticipantStore
	clarifications service.ClarificationStore
}

// buildStores selects PostgreSQL when a connection string is configured,
// running migrations first, and falls back to the in-memory stores
// otherwise.
func buildStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (storeSet, *pgxpool.Pool, error) {
	if cfg.Postgres.ConnString == "" {
		log.Warn("no POSTGRES_CONN configured, using in-memory stores")
		return storeSet{
			tenders:        memory.NewTenderStore(),
			lots:           memory.NewLotStore(),
			quotes:         memory.NewQuoteStore(),
			participants:   memory.NewParticipantStore(),
			clarifications: memory.NewClarificationStore(),
		}, nil, nil
	}

	if err := runMigrations(cfg.Postgres); err != nil {
		return storeSet{}, nil, err
	}
	pool, err := postgres.Connect(ctx, cfg.Postgres.ConnString)
	if err != nil {
		return storeSet{}, nil, err
	}
	return storeSet{
		tenders:        postgres.NewTenderStore(pool),
		lots:           postgres.NewLotStore(pool),
		quotes:         postgres.NewQuoteStore(pool),
		participants:   postgres.NewParticipantStore(pool),
		clarifications: postgres.NewClarificationStore(pool),
	}, pool, nil
}

func runMigrations(cfg config.Postgres) error {
	connCfg, err := pgxpool.ParseConfig(cfg.ConnString)
	if err != nil {
		return err
	}
	db := stdlib.OpenDB(*connCfg.ConnConfig)
	defer db.Close()

	driver, err := pgx.WithInstance(db, &pgx.Config{})
	if err != nil {
		return err
	}
	mig, err := migrate.NewWithDatabaseInstance(cfg.MigrationsURL, "pgx", driver)
	if err != nil {
		return err
	}
	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	srcErr, dbErr := mig.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}

// buildDispatcher picks Kafka when brokers are configured and a logging
// fallback otherwise. The returned closer is always safe to call.
func buildDispatcher(cfg *config.Config, log *slog.Logger) (notify.Dispatcher, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Warn("no KAFKA_BROKERS configured, state changes go to the log only")
		return notify.NewLogging(log), func() {}, nil
	}
	kafka, err := notify.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		return nil, nil, err
	}
	return kafka, kafka.Close, nil
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-seat-booking/internal/booking"
	"github.com/metinatakli/cinema-seat-booking/internal/cache"
	"github.com/metinatakli/cinema-seat-booking/internal/config"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/events"
	"github.com/metinatakli/cinema-seat-booking/internal/payment"
	"github.com/metinatakli/cinema-seat-booking/internal/repository"
	"github.com/metinatakli/cinema-seat-booking/internal/repository/memory"
	"github.com/metinatakli/cinema-seat-booking/internal/scheduling"
	appvalidator "github.com/metinatakli/cinema-seat-booking/internal/validator"
	"github.com/metinatakli/cinema-seat-booking/internal/vcs"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

var (
	version = vcs.Version()
)

type Application struct {
	config    config.Config
	logger    *slog.Logger
	validator *validator.Validate
	now       func() time.Time

	booking    *booking.Service
	payments   *payment.Processor
	scheduling *scheduling.Service
}

// Dependencies are the collaborators the services are built on. Nil Cache and
// Events fall back to no-op implementations.
type Dependencies struct {
	Store      domain.Store
	Authorizer domain.Authorizer
	Cache      domain.AvailabilityCache
	Events     domain.EventPublisher
	Now        func() time.Time
}

func NewApplication(cfg config.Config, logger *slog.Logger, deps Dependencies) *Application {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Application{
		config:    cfg,
		logger:    logger,
		validator: appvalidator.NewValidator(),
		now:       now,
		booking: booking.NewService(deps.Store,
			booking.WithCache(deps.Cache),
			booking.WithEvents(deps.Events),
			booking.WithLogger(logger),
			booking.WithClock(now),
		),
		payments: payment.NewProcessor(deps.Store, deps.Authorizer,
			payment.WithCache(deps.Cache),
			payment.WithEvents(deps.Events),
			payment.WithLogger(logger),
			payment.WithClock(now),
		),
		scheduling: scheduling.NewService(deps.Store,
			scheduling.WithCache(deps.Cache),
			scheduling.WithLogger(logger),
			scheduling.WithLocation(cfg.Location()),
			scheduling.WithClock(now),
		),
	}
}

func (app *Application) Scheduling() *scheduling.Service {
	return app.scheduling
}

// Runtime holds the process-wide resources opened by OpenRuntime.
type Runtime struct {
	Store  domain.Store
	Cache  domain.AvailabilityCache
	Events domain.EventPublisher

	closers []func()
}

func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

// OpenRuntime connects the configured backends. An empty DSN selects the
// in-memory store, an empty Redis URL disables caching and an empty AMQP URL
// disables event publishing.
func OpenRuntime(cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{Cache: cache.Noop{}, Events: events.Noop{}}

	if cfg.DB.DSN == "" {
		logger.Info("database DSN not set, using the in-memory store")
		rt.Store = memory.New(memory.WithLockTimeout(cfg.DB.LockTimeout))
	} else {
		db, err := newDatabasePool(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open database pool: %w", err)
		}
		rt.closers = append(rt.closers, db.Close)
		rt.Store = repository.NewPostgresStore(db, cfg.DB.LockTimeout)
	}

	if cfg.Redis.URL != "" {
		rdb, err := newRedisClient(cfg)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		rt.closers = append(rt.closers, func() { rdb.Close() })
		rt.Cache = cache.NewRedisAvailabilityCache(rdb, cfg.Redis.AvailabilityTTL)
	}

	if cfg.AMQP.URL != "" {
		publisher, err := events.DialAMQP(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		rt.closers = append(rt.closers, func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("failed to close event publisher", "error", err)
			}
		})
		rt.Events = publisher
	}

	return rt, nil
}

// Run serves the HTTP API until ctx is cancelled.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	rt, err := OpenRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	app := NewApplication(cfg, logger, Dependencies{
		Store:      rt.Store,
		Authorizer: payment.NewSimulatedAuthorizer(cfg.Payment.SuccessRate, cfg.Payment.MinDelay, cfg.Payment.MaxDelay),
		Cache:      rt.Cache,
		Events:     rt.Events,
	})

	if cfg.ScheduleGenerationInterval > 0 {
		job, err := scheduling.StartGenerationJob(ctx, app.scheduling, cfg.ScheduleGenerationInterval, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := job.Shutdown(); err != nil {
				logger.Error("failed to stop generation job", "error", err)
			}
		}()
	}

	return app.serve(ctx)
}

func newRedisClient(cfg config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.URL,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxOpenConns,
		ConnMaxIdleTime: cfg.Redis.MaxIdleTime,
	})

	if err := errors.Join(redisotel.InstrumentTracing(rdb), redisotel.InstrumentMetrics(rdb)); err != nil {
		rdb.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := rdb.Ping(ctx).Err()
	if err != nil {
		rdb.Close()
		return nil, err
	}

	return rdb, nil
}

func newDatabasePool(cfg config.Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.DB.MaxIdleTime
	config.MaxConns = int32(cfg.DB.MaxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (app *Application) serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	shutdownError := make(chan error, 1)

	go func() {
		<-ctx.Done()

		app.logger.Info("shutting down server", "reason", context.Cause(ctx))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		shutdownError <- srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env, "version", version)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}

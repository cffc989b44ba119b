package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/kirinyoku/stayledger/internal/auth"
	"github.com/kirinyoku/stayledger/internal/clock"
	"github.com/kirinyoku/stayledger/internal/config"
	"github.com/kirinyoku/stayledger/internal/domain"
	"github.com/kirinyoku/stayledger/internal/mq"
	"github.com/kirinyoku/stayledger/internal/notify"
	"github.com/kirinyoku/stayledger/internal/postgres"
	redisx "github.com/kirinyoku/stayledger/internal/redis"
	"github.com/kirinyoku/stayledger/internal/repository"
	"github.com/kirinyoku/stayledger/internal/repository/memory"
	postgresrepo "github.com/kirinyoku/stayledger/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/stayledger/internal/repository/redis"
	"github.com/kirinyoku/stayledger/internal/service"
	"github.com/kirinyoku/stayledger/internal/service/query"
	httpgin "github.com/kirinyoku/stayledger/internal/transport/http/gin"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	pubsub     *redisx.BookingsPubSub
	closers    []func() error
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx := context.Background()
	a := &App{cfg: cfg, logger: logger}

	// Initialize storage
	store, err := a.newStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	deps := service.Deps{
		Store:  store,
		Clock:  clock.System{},
		Logger: logger,
	}
	sinks := notify.Multi{notify.Log{Logger: logger}}

	// Initialize redis backed caches, limiter and idempotency
	var idem *redisrepo.IdempotencyStore
	if cfg.Redis.Enabled {
		rdb, err := redisx.New(ctx, redisx.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		a.closers = append(a.closers, rdb.Close)

		cache := redisrepo.New(rdb)
		deps.Cache = cache
		deps.Listings = redisrepo.NewListingCache(store.Listings(), cache, 10*time.Minute)
		deps.Limiter = redisrepo.NewSlidingWindowLimiter(
			rdb,
			redisx.KeyRateLimit("create"),
			cfg.Booking.CreateRateLimit,
			cfg.Booking.CreateRateWindow,
		)
		idem = redisrepo.NewIdempotencyStore(rdb, cfg.Booking.IdempotencyTTL)

		a.pubsub = redisx.NewBookingsPubSub(rdb)
		sinks = append(sinks, a.pubsub)
	}

	// Initialize amqp publisher
	if cfg.AMQP.URL != "" {
		publisher, err := mq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to initialize amqp publisher: %w", err)
		}
		a.closers = append(a.closers, publisher.Close)
		sinks = append(sinks, publisher)
	}
	deps.Notifier = sinks

	authn, err := auth.NewAuthenticator(cfg.Auth.Secret, cfg.Auth.Issuer)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to initialize authenticator: %w", err)
	}

	// Initialize services
	services := service.NewServices(deps, service.Config{
		Query: query.Config{},
	})

	// Initialize Gin router
	router := httpgin.NewRouter(services, authn, idem, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return a, nil
}

func (a *App) newStore(ctx context.Context) (repository.Store, error) {
	ed := domain.Balance(a.cfg.Ledger.ExistentialDeposit)

	switch a.cfg.Storage {
	case config.StorageMemory:
		a.logger.Warn("using in-memory storage, state is lost on restart")
		return memory.New(memory.WithExistentialDeposit(ed)), nil

	case config.StoragePostgres:
		pool, err := postgres.New(ctx, postgres.Config{
			DSN:      a.cfg.Postgres.DSN(),
			MaxConns: a.cfg.Postgres.MaxConns,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		a.closers = append(a.closers, func() error {
			pool.Close()
			return nil
		})

		store := postgresrepo.NewStore(pool, postgresrepo.WithExistentialDeposit(ed))
		if err := store.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("failed to migrate postgres: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", a.cfg.Storage)
	}
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	defer a.close()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Relay notifications published by other replicas
	if a.pubsub != nil {
		g.Go(func() error {
			err := a.pubsub.Subscribe(gCtx, func(ctx context.Context, n domain.Notification) {
				a.logger.Debug("booking notification received",
					slog.String("event", string(n.Event)),
					slog.String("booking_id", n.BookingID.String()),
				)
			})
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, goredis.ErrClosed) {
				return fmt.Errorf("bookings subscription: %w", err)
			}
			return nil
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}

// close releases resources in reverse order of acquisition.
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to release resource", slog.Any("error", err))
		}
	}
	a.closers = nil
}

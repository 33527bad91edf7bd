package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/tradingaccounts/internal/adapter/http"
	"github.com/iho/tradingaccounts/internal/adapter/http/handler"
	"github.com/iho/tradingaccounts/internal/adapter/http/middleware"
	"github.com/iho/tradingaccounts/internal/adapter/messaging"
	"github.com/iho/tradingaccounts/internal/adapter/repository/auditlog"
	"github.com/iho/tradingaccounts/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/tradingaccounts/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/tradingaccounts/internal/adapter/repository/redis"
	"github.com/iho/tradingaccounts/internal/infrastructure/config"
	"github.com/iho/tradingaccounts/internal/infrastructure/metrics"
	"github.com/iho/tradingaccounts/internal/infrastructure/postgres"
	"github.com/iho/tradingaccounts/internal/infrastructure/redis"
	"github.com/iho/tradingaccounts/internal/saga"
	"github.com/iho/tradingaccounts/internal/usecase"
)

// bus is the transport the service consumes from and publishes to.
type bus interface {
	usecase.MessageBus
	Run(ctx context.Context) error
}

// app holds the assembled service.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	metrics *metrics.Metrics

	pool        *pgxpool.Pool
	redisClient *goredis.Client

	router   *messaging.Router
	bus      bus
	ledger   *usecase.OperationLedger
	balance  *usecase.BalanceUseCase
	accounts usecase.AccountRepository

	limiter *middleware.RateLimiter
	checks  []handler.Check
	closers []func()
}

type storage struct {
	txManager usecase.TransactionManager
	accounts  usecase.AccountRepository
	changes   usecase.BalanceChangeRepository
	retrier   usecase.Retrier
}

// newApp connects the configured backends and wires every handler into the bus router.
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, reg *prometheus.Registry) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(reg),
		limiter: middleware.NewRateLimiter(20, 40),
	}

	if err := a.connect(ctx); err != nil {
		a.close()
		return nil, err
	}

	store, err := a.storage()
	if err != nil {
		a.close()
		return nil, err
	}

	opStore, err := a.operationStore()
	if err != nil {
		a.close()
		return nil, err
	}

	sinks, err := a.historySinks()
	if err != nil {
		a.close()
		return nil, err
	}

	a.accounts = store.accounts
	a.router = messaging.NewRouter(logger.With().Str("component", "router").Logger(), a.metrics, messaging.RetryPolicy{
		MaxRetries:      cfg.BusMaxRetries,
		InitialInterval: cfg.BusRetryInitialInterval,
		MaxInterval:     2 * time.Second,
	})
	a.bus = a.newBus()

	idGen := postgresRepo.NewULIDGenerator()
	a.ledger = usecase.NewOperationLedger(opStore, logger.With().Str("component", "ledger").Logger(), a.metrics)
	history := usecase.NewHistoryAggregator(logger.With().Str("component", "history").Logger(), a.metrics, sinks...)
	a.balance = usecase.NewBalanceUseCase(store.txManager, store.accounts, store.changes, a.bus, history, store.retrier, idGen, logger, a.metrics).
		WithRecentOperationsCapacity(cfg.RecentOperationsCapacity)

	messaging.Register(a.router, messaging.Handlers{
		UpdateBalance:    usecase.NewUpdateBalanceHandler(a.ledger, a.balance, a.bus, logger),
		Deposit:          usecase.NewDepositUseCase(a.ledger, store.accounts, a.bus, logger),
		Withdrawal:       usecase.NewWithdrawalUseCase(a.ledger, store.accounts, a.bus, logger),
		TemporaryCapital: usecase.NewTemporaryCapitalUseCase(a.ledger, a.balance, store.accounts, a.bus, logger),
		DeleteAccounts:   usecase.NewDeleteAccountsUseCase(a.ledger, store.txManager, store.accounts, store.retrier, a.bus, logger),
	}, messaging.Sagas{}, saga.NewEmitter(a.bus, logger.With().Str("component", "saga").Logger(), a.metrics))

	logger.Info().
		Str("storage", cfg.StorageBackend).
		Str("ledger", cfg.LedgerBackend).
		Str("bus", cfg.BusBackend).
		Strs("history_sinks", history.Sinks()).
		Strs("routes", a.router.Routes()).
		Msg("service assembled")

	return a, nil
}

func (a *app) needsRedis() bool {
	if a.cfg.LedgerBackend == "redis" {
		return true
	}
	for _, sink := range a.cfg.HistorySinks {
		if sink == "redis" {
			return true
		}
	}
	return false
}

func (a *app) needsPostgres() bool {
	return a.cfg.StorageBackend == "postgres" || a.cfg.LedgerBackend == "postgres"
}

func (a *app) connect(ctx context.Context) error {
	if a.needsPostgres() {
		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL:    a.cfg.DatabaseURL,
			MaxConns:       a.cfg.DatabaseMaxConns,
			MinConns:       a.cfg.DatabaseMinConns,
			ConnectTimeout: a.cfg.DatabaseTimeout,
		})
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		a.pool = pool
		a.closers = append(a.closers, pool.Close)
		a.checks = append(a.checks, handler.Check{Name: "postgres", Probe: pool.Ping})
		a.logger.Info().Msg("connected to postgres")
	}

	if a.needsRedis() {
		client, err := redis.NewClient(ctx, a.cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		a.redisClient = client
		a.closers = append(a.closers, func() { client.Close() })
		a.checks = append(a.checks, handler.Check{Name: "redis", Probe: redis.ReadinessCheck(client)})
		a.logger.Info().Msg("connected to redis")
	}

	return nil
}

func (a *app) storage() (storage, error) {
	switch a.cfg.StorageBackend {
	case "postgres":
		return storage{
			txManager: postgresRepo.NewTxManager(a.pool),
			accounts:  postgresRepo.NewAccountRepository(a.pool),
			changes:   postgresRepo.NewBalanceChangeRepository(a.pool),
			retrier:   postgresRepo.NewRetrier(a.logger.With().Str("component", "retrier").Logger()),
		}, nil
	case "memory":
		store := memory.NewStore()
		return storage{
			txManager: memory.NewTxManager(store),
			accounts:  memory.NewAccountRepository(store),
			changes:   memory.NewBalanceChangeRepository(store),
		}, nil
	default:
		return storage{}, fmt.Errorf("unknown storage backend %q", a.cfg.StorageBackend)
	}
}

func (a *app) operationStore() (usecase.OperationStore, error) {
	switch a.cfg.LedgerBackend {
	case "postgres":
		return postgresRepo.NewOperationStore(a.pool), nil
	case "redis":
		return redisRepo.NewOperationStore(a.redisClient), nil
	case "memory":
		return memory.NewOperationStore(), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", a.cfg.LedgerBackend)
	}
}

func (a *app) historySinks() ([]usecase.HistorySink, error) {
	sinks := make([]usecase.HistorySink, 0, len(a.cfg.HistorySinks))
	for _, name := range a.cfg.HistorySinks {
		switch name {
		case "postgres":
			if a.pool == nil {
				return nil, fmt.Errorf("history sink postgres requires STORAGE_BACKEND=postgres")
			}
			sinks = append(sinks, postgresRepo.NewHistorySink(a.pool))
		case "redis":
			sinks = append(sinks, redisRepo.NewHistoryStream(a.redisClient, a.cfg.HistoryStream, a.cfg.HistoryStreamMaxLen))
		case "audit":
			sinks = append(sinks, auditlog.NewSink(a.logger))
		case "memory":
			sinks = append(sinks, memory.NewHistorySink("memory"))
		default:
			return nil, fmt.Errorf("unknown history sink %q", name)
		}
	}
	return sinks, nil
}

func (a *app) newBus() bus {
	if a.cfg.BusBackend == "memory" {
		return messaging.NewMemoryBus(a.router, a.logger.With().Str("component", "bus").Logger())
	}

	kafkaBus := messaging.NewKafkaBus(messaging.KafkaConfig{
		Brokers:             a.cfg.KafkaBrokers,
		GroupID:             a.cfg.KafkaGroupID,
		CommandsTopicPrefix: a.cfg.KafkaCommandsTopicPrefix,
		EventsTopic:         a.cfg.KafkaEventsTopic,
		Workers:             a.cfg.Workers,
	}, a.router, a.logger.With().Str("component", "bus").Logger())

	a.closers = append(a.closers, func() {
		if err := kafkaBus.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close kafka writer")
		}
	})
	a.checks = append(a.checks, handler.Check{Name: "kafka", Probe: kafkaBus.Ping})

	return kafkaBus
}

// routerConfig describes the operational HTTP surface.
func (a *app) routerConfig(gatherer prometheus.Gatherer) httpAdapter.RouterConfig {
	return httpAdapter.RouterConfig{
		HealthHandler:    handler.NewHealthHandler(a.checks...),
		OperationHandler: handler.NewOperationHandler(a.ledger, usecase.StaleOperationAge),
		AccountHandler:   handler.NewAccountHandler(a.balance),
		Metrics:          a.metrics,
		Gatherer:         gatherer,
		RateLimiter:      a.limiter,
		Logger:           a.logger.With().Str("component", "http").Logger(),
	}
}

// watchStale reports stale operations and evicts idle rate limiter entries until ctx ends.
func (a *app) watchStale(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.StaleCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.ledger.ReportStale(ctx, usecase.StaleOperationAge, 100); err != nil && ctx.Err() == nil {
				a.logger.Warn().Err(err).Msg("stale operation check failed")
			}
			a.limiter.Evict()
		}
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"payrecon/internal/config"
	"payrecon/internal/domain"
	"payrecon/internal/gateway"
	internalRedis "payrecon/internal/redis"
	"payrecon/internal/repository"
	"payrecon/internal/repository/memory"
	"payrecon/internal/repository/postgres"
	"payrecon/internal/service"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Gateway drivers.
const (
	GatewayDriverSSLCommerz = "sslcommerz"
	GatewayDriverMock       = "mock"
)

// Container holds the wired components shared by the server and paymentctl.
type Container struct {
	Config         *config.Config
	Logger         *zap.Logger
	NewRelicApp    *newrelic.Application // nil when New Relic is disabled
	DB             *sql.DB               // nil with the memory store
	RedisClient    *redis.Client         // nil when Redis is disabled
	Payments       repository.PaymentRepository
	Gateways       *gateway.Registry
	Reconciliation *service.ReconciliationService
}

// NewContainer connects the configured backends and wires the reconciliation
// service. Call Close when done.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}
	c.NewRelicApp = NewNewRelicApp(cfg.NewRelic, logger)

	if err := c.openStore(ctx); err != nil {
		c.Close()
		return nil, err
	}

	if cfg.Redis.Enabled {
		client, err := NewRedisClient(ctx, cfg.Redis, c.NewRelicApp)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.RedisClient = client
		logger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
	}

	gateways, err := NewGatewayRegistry(cfg.Gateway)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Gateways = gateways

	var (
		locker     internalRedis.PaymentLockInterface
		statsCache internalRedis.StatsCacheInterface
	)
	if c.RedisClient != nil {
		locker = internalRedis.NewPaymentLocker(c.RedisClient, cfg.Reconciliation.LockTTL)
		statsCache = internalRedis.NewStatsCache(c.RedisClient, cfg.Reconciliation.StatsCacheTTL)
	} else {
		// Single process only: locks do not span replicas.
		logger.Warn("redis disabled, using in-process payment locks")
		locker = service.NewKeyedMutex()
	}

	c.Reconciliation = service.NewReconciliationService(
		c.Payments,
		c.Gateways,
		locker,
		statsCache,
		logger,
		service.ReconciliationConfig{
			LockWaitTimeout:   cfg.Reconciliation.LockWaitTimeout,
			StoreWriteTimeout: cfg.Reconciliation.StoreWriteTimeout,
		},
	)

	return c, nil
}

func (c *Container) openStore(ctx context.Context) error {
	switch c.Config.Database.Driver {
	case StoreDriverPostgres:
		db, err := NewDatabase(ctx, c.Config.Database, c.NewRelicApp)
		if err != nil {
			return err
		}
		c.DB = db
		c.Payments = postgres.NewPaymentRepository(db)
		c.Logger.Info("connected to postgres",
			zap.String("host", c.Config.Database.Host),
			zap.String("database", c.Config.Database.DBName),
		)
	case StoreDriverMemory:
		c.Payments = memory.NewPaymentRepository()
		c.Logger.Warn("using in-memory payment store, data is not persisted")
	default:
		return fmt.Errorf("unknown store driver %q", c.Config.Database.Driver)
	}
	return nil
}

// Close releases every backend connection. It is safe on a partly built container.
func (c *Container) Close() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("closing redis", zap.Error(err))
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Warn("closing database", zap.Error(err))
		}
	}
}

// NewNewRelicApp creates the New Relic application, or returns nil when it
// is disabled or fails to start.
func NewNewRelicApp(cfg config.NewRelicConfig, logger *zap.Logger) *newrelic.Application {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return nil
	}

	nrApp, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
	)
	if err != nil {
		logger.Error("failed to initialize New Relic", zap.Error(err))
		return nil
	}
	logger.Info("New Relic enabled", zap.String("app", cfg.AppName))
	return nrApp
}

// NewGatewayRegistry builds the gateway routing table. Wallet, bank and ATM
// methods go to the configured default gateway; card goes to Stripe when a
// secret key is set. Every adapter is wrapped in a Guard.
func NewGatewayRegistry(cfg config.GatewayConfig) (*gateway.Registry, error) {
	mappings, err := gateway.LoadMappings(cfg.StatusMapPath)
	if err != nil {
		return nil, err
	}

	var def gateway.Adapter
	switch cfg.Driver {
	case GatewayDriverSSLCommerz:
		def = gateway.NewSSLCommerzAdapter(gateway.SSLCommerzConfig{
			BaseURL:       cfg.SSLCommerzBaseURL,
			StoreID:       cfg.SSLCommerzStoreID,
			StorePassword: cfg.SSLCommerzStorePassword,
		})
	case GatewayDriverMock:
		def = gateway.NewMockAdapter()
	default:
		return nil, fmt.Errorf("unknown gateway driver %q", cfg.Driver)
	}

	registry, err := gateway.NewRegistry(guard(def, cfg), mappings)
	if err != nil {
		return nil, err
	}

	if cfg.StripeSecretKey != "" {
		stripe := guard(gateway.NewStripeAdapter(cfg.StripeSecretKey), cfg)
		if err := registry.Register(domain.PaymentMethodCard, stripe); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func guard(adapter gateway.Adapter, cfg config.GatewayConfig) gateway.Adapter {
	return gateway.NewGuard(adapter, cfg.Timeout, cfg.RateLimit, cfg.Burst)
}

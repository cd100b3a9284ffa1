package container

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"bookmarket/api/internal/client"
	"bookmarket/api/internal/config"
	"bookmarket/api/internal/listing"
	"bookmarket/api/internal/proxy"
	"bookmarket/api/internal/publisher"
	"bookmarket/api/internal/queue"
	"bookmarket/api/internal/repository"
	"bookmarket/api/internal/server"
	"bookmarket/api/internal/service"
	"bookmarket/api/internal/state"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config     *config.Config
	Repository repository.BookRepository
	Client     client.ListingClient
	Publisher  listing.Publisher

	Service *service.Service
	Server  *server.Server
	// Workers is nil unless listings are published through the queue.
	Workers *service.Workers

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	repo, err := container.newRepository(ctx)
	if err != nil {
		container.Close()
		return nil, err
	}
	container.Repository = repo

	proxySupplier := proxy.NewProxySupplier(ctx, cfg.Listing.Proxies, cfg.Listing.ProxyHealthCheckURL)
	listingClient := client.NewListingClient(cfg.Listing, proxySupplier)
	container.Client = listingClient

	var tickets service.TicketLookup

	switch cfg.Listing.PublishMode {
	case config.PublishModeQueue:
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})
		container.redis = rdb

		// Test connection
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis successfully")

		redisQueue, err := queue.NewRedisQueue(ctx, rdb, cfg.Redis)
		if err != nil {
			container.Close()
			return nil, err
		}

		statusStore := state.NewRedisStatusStore(rdb, time.Duration(cfg.Listing.StatusTTLHours)*time.Hour)
		queued := publisher.NewQueued(redisQueue, statusStore)
		container.Publisher = queued
		tickets = queued

		container.Workers = service.NewWorkers(
			listingClient,
			redisQueue,
			statusStore,
			cfg.Redis.ConsumerGroup,
			time.Duration(cfg.Redis.MinIdleTime)*time.Second,
			cfg.Listing.MaxRetries,
		)

	default:
		container.Publisher = publisher.NewDirect(listingClient)
	}

	log.Infof("📦 Listings publish in %s mode via %s", cfg.Listing.PublishMode, cfg.Listing.BaseURL)

	container.Service = service.NewService(
		repo,
		container.Publisher,
		tickets,
		cfg.Catalog.FeaturedCount,
		cfg.Listing.PublishTimeoutDuration(),
	)
	container.Server = server.New(cfg.Server, container.Service)

	return container, nil
}

func (c *Container) newRepository(ctx context.Context) (repository.BookRepository, error) {
	if c.Config.Catalog.Source != config.CatalogSourcePostgres {
		repo, err := repository.NewFixtureRepository(c.Config.Catalog.FixturePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog fixture: %w", err)
		}
		log.Info("📚 Serving catalog from fixture")
		return repo, nil
	}

	db, err := pgxpool.New(ctx, c.Config.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	c.db = db

	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("✅ Connected to PostgreSQL successfully")

	return repository.NewPostgresRepository(db), nil
}

// Run serves HTTP and, in queue mode, runs the publish workers until ctx is
// cancelled or one of them fails.
func (c *Container) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.Server.Run(ctx)
	})

	if c.Workers != nil {
		g.Go(func() error {
			return c.Workers.RunWorkers(ctx, c.Config.Listing.MaxWorkers)
		})
	}

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			log.Warnf("⚠️ Failed to close Redis client: %v", err)
		}
	}

	log.Info("Container shut down successfully")
	return nil
}

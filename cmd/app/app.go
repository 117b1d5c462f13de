package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/api"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/config"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/db"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/lock"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/logger"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/services/country"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/services/exchange"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/services/refresh"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/services/summary"
)

const refreshLockKey = "countries:refresh:lock"

// app holds the wired dependencies shared by the commands.
type app struct {
	mongo     *mongo.Client
	redis     *redis.Client
	database  *mongo.Database
	countries *db.CountryStore
	status    *db.StatusStore
	summary   *summary.Service
	refresher *refresh.Service
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	client, err := db.ConnectMongoDB(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	a := &app{mongo: client, database: client.Database(cfg.MongoDatabase)}

	if err := db.RunMigrations(ctx, a.database, db.Migrations()); err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	var locker lock.Locker = lock.NewLocal()
	rdb, err := db.ConnectRedis(ctx, cfg)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("redis connect: %w", err)
	}
	if rdb != nil {
		a.redis = rdb
		locker = lock.NewRedis(rdb, refreshLockKey, cfg.RefreshLockTTL)
	}

	a.countries = db.NewCountryStore(a.database)
	a.status = db.NewStatusStore(a.database)

	sourceClient := api.NewClient(cfg.SourceTimeout)

	var renderer summary.Renderer
	switch cfg.SummaryRenderer {
	case config.RendererLocal:
		renderer = summary.NewLocal()
	default:
		renderer = summary.NewQuickChart(cfg.QuickChartURL, api.NewClient(cfg.RenderTimeout))
	}
	a.summary = summary.NewService(renderer, cfg.CacheImagePath, cfg.RenderTimeout)

	if !cfg.SourcesConfigured() {
		logger.Warn("EXTERNAL_COUNTRIES_API or EXCHANGE_RATES_API is not set; refresh will fail until configured")
	}

	a.refresher = refresh.New(refresh.Deps{
		Countries:  country.NewService(cfg, sourceClient),
		Rates:      exchange.NewService(cfg, sourceClient),
		Store:      a.countries,
		Status:     a.status,
		Summary:    a.summary,
		Lock:       locker,
		Multiplier: refresh.NewRandomMultiplier(uint64(time.Now().UnixNano())),
	}, refresh.Options{
		SourceTimeout: cfg.SourceTimeout,
		MergeWorkers:  cfg.MergeWorkers,
	})

	return a, nil
}

func (a *app) close(ctx context.Context) {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Error("Error closing Redis: %v", err)
		}
	}
	if err := db.DisconnectMongoDB(ctx, a.mongo); err != nil {
		logger.Error("Error disconnecting MongoDB: %v", err)
	}
}

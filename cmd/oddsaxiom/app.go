package main

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/Just-Trades13/OddsAxiome/internal/config"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/logctx"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/metrics"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/redisx"
)

// app bundles the shared infrastructure every subcommand needs: config,
// logging, the metrics registry, and a Redis connection. Postgres is
// opened lazily since not every subcommand touches the durable store.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	metrics *metrics.Registry
	rdb     *redisx.Client
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("oddsaxiom: load config: %w", err)
	}

	logctx.Init(cfg.LogLevel)
	log := logctx.Stage("main")

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	rdb, err := redisx.New(ctx, cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		return nil, fmt.Errorf("oddsaxiom: connect redis: %w", err)
	}

	return &app{cfg: cfg, log: log, metrics: m, rdb: rdb}, nil
}

func openPostgres(cfg config.PostgresConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("oddsaxiom: open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}

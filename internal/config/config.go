// Package config loads OddsAxiom's runtime configuration from a YAML file
// with environment-variable overrides, following the teacher's
// YAML-defaults-then-env-overrides pattern (internal/application/config.go,
// internal/infrastructure/db/config.go in the cryptorun source tree).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// VenueConfig is the per-venue configuration block: credentials and
// poll cadence. Only venues with an entry are enabled at startup.
type VenueConfig struct {
	Slug        string        `yaml:"slug"`
	Enabled     bool          `yaml:"enabled"`
	APIKey      string        `yaml:"api_key" env:"-"`
	BaseURL     string        `yaml:"base_url"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// RedisConfig configures the shared live-cache/stream/pubsub connection.
type RedisConfig struct {
	Addr string `yaml:"addr" env:"REDIS_ADDR"`
	DB   int    `yaml:"db" env:"REDIS_DB"`
}

// PostgresConfig configures the durable snapshot store.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn" env:"PG_DSN"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"PG_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"PG_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"PG_CONN_MAX_LIFETIME"`
	QueryTimeout    time.Duration `yaml:"query_timeout" env:"PG_QUERY_TIMEOUT"`
	Enabled         bool          `yaml:"enabled" env:"PG_ENABLED"`
}

// Thresholds carries the tunable reference values named throughout
// spec.md §6's configuration table.
type Thresholds struct {
	MinProfit               float64       `yaml:"min_profit" env:"MIN_PROFIT"`
	DetectionInterval       time.Duration `yaml:"detection_interval" env:"DETECTION_INTERVAL"`
	ReclusterIntervalCycles int           `yaml:"recluster_interval_cycles" env:"RECLUSTER_INTERVAL_CYCLES"`
	LiveCacheTTL            time.Duration `yaml:"live_cache_ttl" env:"LIVE_CACHE_TTL"`
	StreamMaxLen            int64         `yaml:"stream_maxlen" env:"STREAM_MAXLEN"`
	OpportunityTTL          time.Duration `yaml:"opportunity_ttl" env:"OPPORTUNITY_TTL"`
	SnapshotInterval        time.Duration `yaml:"snapshot_interval" env:"SNAPSHOT_INTERVAL"`
	SnapshotBatchSize       int           `yaml:"snapshot_batch_size" env:"SNAPSHOT_BATCH_SIZE"`
	RetentionDays           int           `yaml:"retention_days" env:"RETENTION_DAYS"`
	StaleDays               int           `yaml:"stale_days" env:"STALE_DAYS"`
	MatcherCacheTTL         time.Duration `yaml:"matcher_cache_ttl" env:"MATCHER_CACHE_TTL"`
	CanonicalMapRebuild     time.Duration `yaml:"canonical_map_rebuild" env:"CANONICAL_MAP_REBUILD"`
	ConsumerBatchSize       int64         `yaml:"consumer_batch_size" env:"CONSUMER_BATCH_SIZE"`
	ConsumerBlock           time.Duration `yaml:"consumer_block" env:"CONSUMER_BLOCK"`
	SnapshotGracePeriod     time.Duration `yaml:"snapshot_grace_period" env:"SNAPSHOT_GRACE_PERIOD"`
	PrunerInterval          time.Duration `yaml:"pruner_interval" env:"PRUNER_INTERVAL"`
	LiveQueryCacheTTL       time.Duration `yaml:"live_query_cache_ttl" env:"LIVE_QUERY_CACHE_TTL"`
	ExperimentalFailureCap  int           `yaml:"experimental_failure_cap" env:"EXPERIMENTAL_FAILURE_CAP"`
	DrainTimeout            time.Duration `yaml:"drain_timeout" env:"DRAIN_TIMEOUT"`
}

// Defaults returns the reference values named throughout spec.md.
func Defaults() Thresholds {
	return Thresholds{
		MinProfit:               0.001,
		DetectionInterval:       5 * time.Second,
		ReclusterIntervalCycles: 60,
		LiveCacheTTL:            11 * time.Minute,
		StreamMaxLen:            50_000,
		OpportunityTTL:          5 * time.Minute,
		SnapshotInterval:        5 * time.Minute,
		SnapshotBatchSize:       500,
		RetentionDays:           7,
		StaleDays:               30,
		MatcherCacheTTL:         60 * time.Second,
		CanonicalMapRebuild:     60 * time.Second,
		ConsumerBatchSize:       100,
		ConsumerBlock:           2 * time.Second,
		SnapshotGracePeriod:     30 * time.Second,
		PrunerInterval:          6 * time.Hour,
		LiveQueryCacheTTL:       2 * time.Minute,
		ExperimentalFailureCap:  5,
		DrainTimeout:            2 * time.Second,
	}
}

// Config is the top-level application configuration.
type Config struct {
	Redis      RedisConfig              `yaml:"redis"`
	Postgres   PostgresConfig           `yaml:"postgres"`
	Thresholds Thresholds               `yaml:"thresholds"`
	Venues     map[string]VenueConfig   `yaml:"venues"`
	LogLevel   string                   `yaml:"log_level" env:"LOG_LEVEL"`
	MetricsAddr string                  `yaml:"metrics_addr" env:"METRICS_ADDR"`
}

// Load reads the YAML file at path (if non-empty and present), fills in
// threshold defaults for any zero-valued field, then applies
// environment-variable overrides on top.
func Load(path string) (*Config, error) {
	cfg := Config{
		Thresholds:  Defaults(),
		Venues:      map[string]VenueConfig{},
		MetricsAddr: ":9090",
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	fillDefaults(&cfg.Thresholds)

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: env overrides: %w", err)
	}
	for slug, vc := range cfg.Venues {
		if key := os.Getenv(fmt.Sprintf("ODDSAXIOM_%s_API_KEY", upperSlug(slug))); key != "" {
			vc.APIKey = key
			cfg.Venues[slug] = vc
		}
	}

	return &cfg, nil
}

func fillDefaults(t *Thresholds) {
	def := Defaults()
	if t.MinProfit == 0 {
		t.MinProfit = def.MinProfit
	}
	if t.DetectionInterval == 0 {
		t.DetectionInterval = def.DetectionInterval
	}
	if t.ReclusterIntervalCycles == 0 {
		t.ReclusterIntervalCycles = def.ReclusterIntervalCycles
	}
	if t.LiveCacheTTL == 0 {
		t.LiveCacheTTL = def.LiveCacheTTL
	}
	if t.StreamMaxLen == 0 {
		t.StreamMaxLen = def.StreamMaxLen
	}
	if t.OpportunityTTL == 0 {
		t.OpportunityTTL = def.OpportunityTTL
	}
	if t.SnapshotInterval == 0 {
		t.SnapshotInterval = def.SnapshotInterval
	}
	if t.SnapshotBatchSize == 0 {
		t.SnapshotBatchSize = def.SnapshotBatchSize
	}
	if t.RetentionDays == 0 {
		t.RetentionDays = def.RetentionDays
	}
	if t.StaleDays == 0 {
		t.StaleDays = def.StaleDays
	}
	if t.MatcherCacheTTL == 0 {
		t.MatcherCacheTTL = def.MatcherCacheTTL
	}
	if t.CanonicalMapRebuild == 0 {
		t.CanonicalMapRebuild = def.CanonicalMapRebuild
	}
	if t.ConsumerBatchSize == 0 {
		t.ConsumerBatchSize = def.ConsumerBatchSize
	}
	if t.ConsumerBlock == 0 {
		t.ConsumerBlock = def.ConsumerBlock
	}
	if t.SnapshotGracePeriod == 0 {
		t.SnapshotGracePeriod = def.SnapshotGracePeriod
	}
	if t.PrunerInterval == 0 {
		t.PrunerInterval = def.PrunerInterval
	}
	if t.LiveQueryCacheTTL == 0 {
		t.LiveQueryCacheTTL = def.LiveQueryCacheTTL
	}
	if t.ExperimentalFailureCap == 0 {
		t.ExperimentalFailureCap = def.ExperimentalFailureCap
	}
	if t.DrainTimeout == 0 {
		t.DrainTimeout = def.DrainTimeout
	}
}

func upperSlug(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 32
		}
	}
	return string(b)
}

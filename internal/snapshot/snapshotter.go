package snapshot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Just-Trades13/OddsAxiome/internal/config"
	"github.com/Just-Trades13/OddsAxiome/internal/model"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/metrics"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/redisx"
)

// Snapshotter samples the live cache on a fixed interval and writes it
// durably, per spec.md §4.7.
type Snapshotter struct {
	rdb     *redisx.Client
	repo    *Repo
	cfg     config.Thresholds
	metrics *metrics.Registry
	log     zerolog.Logger
}

// NewSnapshotter constructs a Snapshotter.
func NewSnapshotter(rdb *redisx.Client, repo *Repo, cfg config.Thresholds, m *metrics.Registry, log zerolog.Logger) *Snapshotter {
	return &Snapshotter{rdb: rdb, repo: repo, cfg: cfg, metrics: m, log: log}
}

// Run waits out the startup grace period, then samples the cache every
// cfg.SnapshotInterval until ctx is cancelled.
func (s *Snapshotter) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.cfg.SnapshotGracePeriod):
	}

	ticker := time.NewTicker(s.cfg.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.snapshotOnce(ctx); err != nil {
				s.log.Error().Err(err).Msg("snapshotter: cycle failed")
				if s.metrics != nil {
					s.metrics.SnapshotErrors.Inc()
				}
			}
		}
	}
}

// snapshotOnce pages through every live:* key, batches rows up to
// cfg.SnapshotBatchSize, and persists each batch.
func (s *Snapshotter) snapshotOnce(ctx context.Context) error {
	var cursor uint64
	var batch []model.OddsSnapshot
	var markets []model.MarketRecord

	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, "live:*", 200).Result()
		if err != nil {
			return fmt.Errorf("snapshotter: scan live cache: %w", err)
		}

		for _, key := range keys {
			venue, marketID, ok := splitLiveKey(key)
			if !ok {
				continue
			}
			fields, err := s.rdb.HGetAll(ctx, key).Result()
			if err != nil {
				return fmt.Errorf("snapshotter: read %s: %w", key, err)
			}
			entry, err := redisx.ParseLiveEntry(venue, marketID, fields)
			if err != nil {
				s.log.Warn().Err(err).Str("key", key).Msg("snapshotter: skipping malformed entry")
				continue
			}

			markets = append(markets, model.MarketRecord{
				MarketID: marketID, Venue: venue, Title: entry.Title,
				Category: entry.Category, UpdatedAt: entry.UpdatedAt,
			})

			for idx, o := range entry.Outcomes {
				if o.ImpliedProb <= 0 {
					continue // non-positive implied prob rows are dropped, not stored
				}
				batch = append(batch, model.OddsSnapshot{
					MarketID: marketID, Venue: venue, OutcomeIndex: idx,
					OutcomeName: o.Name, Price: o.Price, ImpliedProb: o.ImpliedProb,
					CapturedAt: entry.UpdatedAt,
				})
			}

			if len(batch) >= s.cfg.SnapshotBatchSize {
				if err := s.flush(ctx, batch, markets); err != nil {
					return err
				}
				batch = nil
				markets = nil
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return s.flush(ctx, batch, markets)
}

func (s *Snapshotter) flush(ctx context.Context, batch []model.OddsSnapshot, markets []model.MarketRecord) error {
	if err := s.repo.InsertSnapshotsBatch(ctx, batch); err != nil {
		return err
	}
	for _, m := range markets {
		if err := s.repo.UpsertMarket(ctx, m); err != nil {
			return err
		}
	}
	if s.metrics != nil {
		s.metrics.SnapshotRows.Add(float64(len(batch)))
	}
	return nil
}

func splitLiveKey(key string) (venue, marketID string, ok bool) {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) != 3 || parts[0] != "live" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

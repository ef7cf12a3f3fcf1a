package snapshot

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Just-Trades13/OddsAxiome/internal/config"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/metrics"
)

// Pruner removes snapshot rows past retention and flags markets stale
// once their live cache activity has lapsed, per spec.md §4.7.
type Pruner struct {
	repo    *Repo
	cfg     config.Thresholds
	metrics *metrics.Registry
	log     zerolog.Logger
}

// NewPruner constructs a Pruner.
func NewPruner(repo *Repo, cfg config.Thresholds, m *metrics.Registry, log zerolog.Logger) *Pruner {
	return &Pruner{repo: repo, cfg: cfg, metrics: m, log: log}
}

// Run ticks every cfg.PrunerInterval (default 6h) until ctx is
// cancelled, deleting snapshots older than RetentionDays and marking
// markets inactive past StaleDays.
func (p *Pruner) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.PrunerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.pruneOnce(ctx)
		}
	}
}

func (p *Pruner) pruneOnce(ctx context.Context) {
	now := time.Now()

	retentionCutoff := now.AddDate(0, 0, -p.cfg.RetentionDays)
	removed, err := p.repo.DeleteSnapshotsOlderThan(ctx, retentionCutoff)
	if err != nil {
		p.log.Error().Err(err).Msg("pruner: retention delete failed")
	} else if p.metrics != nil {
		p.metrics.PrunedRows.Add(float64(removed))
	}

	staleCutoff := now.AddDate(0, 0, -p.cfg.StaleDays)
	staled, err := p.repo.MarkStaleMarkets(ctx, staleCutoff)
	if err != nil {
		p.log.Error().Err(err).Msg("pruner: staleness marking failed")
		return
	}
	if staled > 0 {
		p.log.Info().Int64("markets", staled).Msg("pruner: marked markets inactive")
	}
}

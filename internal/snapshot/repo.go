// Package snapshot periodically durably persists the live cache to
// Postgres and prunes/ages it, per spec.md §4.7: a snapshotter that
// samples the live cache on a fixed interval, and a pruner that deletes
// old snapshot rows and flags long-untouched markets inactive.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Just-Trades13/OddsAxiome/internal/model"
)

// Repo is the durable-store repository for odds snapshots and market
// staleness tracking, adapted from the teacher's
// internal/persistence/postgres/trades_repo.go InsertBatch shape.
type Repo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewRepo constructs a Repo over an already-opened *sqlx.DB (pgx stdlib
// driver registered as "pgx").
func NewRepo(db *sqlx.DB, timeout time.Duration) *Repo {
	return &Repo{db: db, timeout: timeout}
}

// InsertSnapshotsBatch writes rows transactionally. Callers are
// expected to have already dropped non-positive implied-probability
// rows (spec.md §4.7).
func (r *Repo) InsertSnapshotsBatch(ctx context.Context, rows []model.OddsSnapshot) error {
	if len(rows) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("snapshot: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO odds_snapshots (market_id, venue, outcome_index, outcome_name, price, implied_prob, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (market_id, venue, outcome_index, captured_at) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("snapshot: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.MarketID, row.Venue, row.OutcomeIndex, row.OutcomeName, row.Price, row.ImpliedProb, row.CapturedAt); err != nil {
			return fmt.Errorf("snapshot: insert row for %s/%s: %w", row.Venue, row.MarketID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("snapshot: commit batch: %w", err)
	}
	return nil
}

// UpsertMarket records or refreshes a market's staleness-tracking row.
func (r *Repo) UpsertMarket(ctx context.Context, m model.MarketRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO markets (market_id, venue, title, category, is_active, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, $5)
		ON CONFLICT (market_id) DO UPDATE SET
			title = EXCLUDED.title,
			category = EXCLUDED.category,
			is_active = TRUE,
			updated_at = EXCLUDED.updated_at`,
		m.MarketID, m.Venue, m.Title, m.Category, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("snapshot: upsert market %s: %w", m.MarketID, err)
	}
	return nil
}

// DeleteSnapshotsOlderThan removes odds_snapshots rows captured before
// cutoff, returning the number of rows removed.
func (r *Repo) DeleteSnapshotsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM odds_snapshots WHERE captured_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("snapshot: delete old rows: %w", err)
	}
	return res.RowsAffected()
}

// MarkStaleMarkets flips is_active to FALSE for markets whose
// updated_at is before cutoff, returning the number of rows changed.
func (r *Repo) MarkStaleMarkets(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE markets SET is_active = FALSE WHERE updated_at < $1 AND is_active`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("snapshot: mark stale markets: %w", err)
	}
	return res.RowsAffected()
}

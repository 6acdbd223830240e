package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// SignalStore implements domain.SignalStore using PostgreSQL.
type SignalStore struct {
	pool *pgxpool.Pool
}

// NewSignalStore creates a new SignalStore backed by the given connection pool.
func NewSignalStore(pool *pgxpool.Pool) *SignalStore {
	return &SignalStore{pool: pool}
}

const alertSelectCols = `id, symbol, signal, decision,
	primary_exchange, secondary_exchange,
	primary_price, secondary_price, spread_percent,
	effective_volume, quality_score, funding_note, sent_at`

// Insert stores a dispatched alert.
func (s *SignalStore) Insert(ctx context.Context, alert domain.Alert) error {
	const query = `
		INSERT INTO alert_history (
			id, symbol, signal, decision,
			primary_exchange, secondary_exchange,
			primary_price, secondary_price, spread_percent,
			effective_volume, quality_score, funding_note, sent_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6,
			$7, $8, $9,
			$10, $11, $12, $13
		)`

	_, err := s.pool.Exec(ctx, query,
		alert.ID, alert.Symbol, alert.Signal.String(), alert.Decision.String(),
		alert.PrimaryExchange, alert.SecondaryExchange,
		alert.PrimaryPrice, alert.SecondaryPrice, alert.SpreadPercent,
		alert.EffectiveVolume, alert.QualityScore, alert.FundingNote, alert.SentAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert alert %s: %w", alert.ID, err)
	}
	return nil
}

// ListRecent returns the most recently sent alerts, newest first.
func (s *SignalStore) ListRecent(ctx context.Context, limit int) ([]domain.Alert, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM alert_history
		ORDER BY sent_at DESC
		LIMIT $1`, alertSelectCols)

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent alerts: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// ListBefore returns all alerts sent strictly before the given time, oldest
// first so archive files are naturally ordered.
func (s *SignalStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Alert, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM alert_history
		WHERE sent_at < $1
		ORDER BY sent_at ASC`, alertSelectCols)

	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list alerts before %s: %w", before.Format(time.RFC3339), err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// DeleteBefore removes alerts sent strictly before the given time and returns
// how many rows were deleted.
func (s *SignalStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM alert_history WHERE sent_at < $1", before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete alerts before %s: %w", before.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

func scanAlerts(rows pgx.Rows) ([]domain.Alert, error) {
	var alerts []domain.Alert
	for rows.Next() {
		var (
			a                domain.Alert
			signal, decision string
		)
		err := rows.Scan(
			&a.ID, &a.Symbol, &signal, &decision,
			&a.PrimaryExchange, &a.SecondaryExchange,
			&a.PrimaryPrice, &a.SecondaryPrice, &a.SpreadPercent,
			&a.EffectiveVolume, &a.QualityScore, &a.FundingNote, &a.SentAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan alert row: %w", err)
		}
		if a.Signal, err = domain.ParseSignal(signal); err != nil {
			return nil, fmt.Errorf("postgres: alert %s: %w", a.ID, err)
		}
		if a.Decision, err = domain.ParseDecision(decision); err != nil {
			return nil, fmt.Errorf("postgres: alert %s: %w", a.ID, err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate alert rows: %w", err)
	}
	return alerts, nil
}

// Compile-time interface check.
var _ domain.SignalStore = (*SignalStore)(nil)

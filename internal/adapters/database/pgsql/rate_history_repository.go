package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oks-citadel/citadelbuy-fx/internal/core/domain"
)

// PgxRateHistoryRepository implements the ports.RateHistoryRepository
// interface using pgxpool. The history table is append-only: rows are
// never updated or deleted by the application.
type PgxRateHistoryRepository struct {
	db *pgxpool.Pool
}

// NewRateHistoryRepository creates a new PgxRateHistoryRepository.
// A nil pool yields a repository that silently persists nothing, which
// keeps credential-free development environments functioning; callers
// observe savedToDb=false in refresh results.
func NewRateHistoryRepository(db *pgxpool.Pool) *PgxRateHistoryRepository {
	return &PgxRateHistoryRepository{db: db}
}

// SaveRates appends one row per record. Duplicate (from, to, source,
// minute-bucket) tuples are skipped via ON CONFLICT DO NOTHING rather
// than erroring, so a re-fetch within the same minute is idempotent.
// Returns the number of rows actually inserted.
func (r *PgxRateHistoryRepository) SaveRates(ctx context.Context, records []domain.HistoryRecord) (int, error) {
	if r.db == nil || len(records) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO fx_rate_history (
			history_id, from_currency_code, to_currency_code, rate, source, observed_at, rate_bucket
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (from_currency_code, to_currency_code, source, rate_bucket) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(query,
			rec.HistoryID, rec.FromCurrencyCode, rec.ToCurrencyCode, rec.Rate,
			string(rec.Source), rec.ObservedAt, rec.ObservedAt.Truncate(time.Minute),
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	saved := 0
	for range records {
		tag, err := results.Exec()
		if err != nil {
			return saved, fmt.Errorf("error inserting rate history: %w", err)
		}
		saved += int(tag.RowsAffected())
	}
	return saved, nil
}

// FindRecentRates retrieves the most recent history rows for a currency
// pair, newest first. Used by audit/reporting consumers.
func (r *PgxRateHistoryRepository) FindRecentRates(ctx context.Context, fromCode, toCode string, limit int) ([]domain.HistoryRecord, error) {
	if r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT history_id, from_currency_code, to_currency_code, rate, source, observed_at
		FROM fx_rate_history
		WHERE from_currency_code = $1 AND to_currency_code = $2
		ORDER BY observed_at DESC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, fromCode, toCode, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying rate history: %w", err)
	}
	defer rows.Close()

	var records []domain.HistoryRecord
	for rows.Next() {
		var rec domain.HistoryRecord
		var source string
		if err := rows.Scan(&rec.HistoryID, &rec.FromCurrencyCode, &rec.ToCurrencyCode, &rec.Rate, &source, &rec.ObservedAt); err != nil {
			return nil, fmt.Errorf("error scanning rate history row: %w", err)
		}
		rec.Source = domain.Provider(source)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rate history rows: %w", err)
	}
	return records, nil
}

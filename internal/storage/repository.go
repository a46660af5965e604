package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"sales-stats/internal/report"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	createRunsTableSQL = `CREATE TABLE IF NOT EXISTS stats_runs (
        id             BIGSERIAL PRIMARY KEY,
        computed_at    TIMESTAMPTZ NOT NULL,
        source_path    TEXT        NOT NULL,
        row_count      INTEGER     NOT NULL,
        qtd_total      BIGINT      NOT NULL,
        receita_total  NUMERIC     NOT NULL,
        preco_medio    NUMERIC     NOT NULL,
        soma_quadrados BIGINT      NOT NULL,
        contagem       BIGINT      NOT NULL,
        media_inteira  BIGINT      NOT NULL,
        created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
    );
    CREATE INDEX IF NOT EXISTS stats_runs_computed_at_idx ON stats_runs (computed_at);`

	insertRunSQL = `INSERT INTO stats_runs (
        computed_at,
        source_path,
        row_count,
        qtd_total,
        receita_total,
        preco_medio,
        soma_quadrados,
        contagem,
        media_inteira
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9
    )
    RETURNING id, created_at;`

	selectRunColumns = `SELECT
        id,
        computed_at,
        source_path,
        row_count,
        qtd_total,
        receita_total::text,
        preco_medio::text,
        soma_quadrados,
        contagem,
        media_inteira,
        created_at
    FROM stats_runs`

	listRunsBetweenSQL = selectRunColumns + `
    WHERE computed_at >= $1
      AND computed_at < $2
    ORDER BY computed_at;`

	listRecentRunsSQL = selectRunColumns + `
    ORDER BY computed_at DESC
    LIMIT $1;`

	countRunsSQL = `SELECT COUNT(*) FROM stats_runs;`
)

// RunStore defines operations for run history persistence.
type RunStore interface {
	InsertRun(ctx context.Context, run RunRecord) (RunRecord, error)
	ListRunsBetween(ctx context.Context, from, to time.Time) ([]RunRecord, error)
	ListRecentRuns(ctx context.Context, limit int) ([]RunRecord, error)
	CountRuns(ctx context.Context) (int64, error)
}

// Store persists pipeline runs in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// EnsureSchema creates the history table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, createRunsTableSQL); execErr != nil {
		return fmt.Errorf("ensure schema: %w", execErr)
	}
	return nil
}

// Publish records a completed pipeline run.
func (s *Store) Publish(ctx context.Context, run report.Run) error {
	_, err := s.InsertRun(ctx, RecordFromRun(run))
	return err
}

// InsertRun persists a run and returns it with its generated fields.
func (s *Store) InsertRun(ctx context.Context, run RunRecord) (RunRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return RunRecord{}, err
	}

	row := pool.QueryRow(ctx, insertRunSQL,
		run.ComputedAt,
		run.SourcePath,
		run.Rows,
		run.TotalQuantity,
		run.TotalRevenue.String(),
		run.AveragePrice.String(),
		run.SumOfSquares,
		run.Count,
		run.IntegerMean,
	)
	if scanErr := row.Scan(&run.ID, &run.CreatedAt); scanErr != nil {
		return RunRecord{}, fmt.Errorf("insert run: %w", scanErr)
	}
	return run, nil
}

// ListRunsBetween lists runs computed within a time window.
func (s *Store) ListRunsBetween(ctx context.Context, from, to time.Time) ([]RunRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRunsBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list runs between: %w", queryErr)
	}
	return collectRuns(rows, 0)
}

// ListRecentRuns lists the most recent runs, newest first.
func (s *Store) ListRecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentRunsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent runs: %w", queryErr)
	}
	return collectRuns(rows, limit)
}

// CountRuns counts stored runs.
func (s *Store) CountRuns(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countRunsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count runs: %w", scanErr)
	}
	return count, nil
}

func collectRuns(rows pgx.Rows, capacity int) ([]RunRecord, error) {
	defer rows.Close()

	runs := make([]RunRecord, 0, capacity)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return runs, nil
}

func scanRun(rows pgx.Rows) (RunRecord, error) {
	var (
		run        RunRecord
		revenueStr string
		averageStr string
	)

	if err := rows.Scan(
		&run.ID,
		&run.ComputedAt,
		&run.SourcePath,
		&run.Rows,
		&run.TotalQuantity,
		&revenueStr,
		&averageStr,
		&run.SumOfSquares,
		&run.Count,
		&run.IntegerMean,
		&run.CreatedAt,
	); err != nil {
		return RunRecord{}, err
	}

	var err error
	run.TotalRevenue, err = decimal.NewFromString(revenueStr)
	if err != nil {
		return RunRecord{}, fmt.Errorf("parse receita_total: %w", err)
	}
	run.AveragePrice, err = decimal.NewFromString(averageStr)
	if err != nil {
		return RunRecord{}, fmt.Errorf("parse preco_medio: %w", err)
	}
	return run, nil
}

var _ RunStore = (*Store)(nil)

package store

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/spegfinder/clearview/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses, satisfied by pgxmock
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS period_records (
	company_number TEXT NOT NULL,
	period_end     TEXT NOT NULL,
	year           TEXT NOT NULL,
	turnover                  DOUBLE PRECISION,
	cost_of_sales             DOUBLE PRECISION,
	gross_profit              DOUBLE PRECISION,
	ebit                      DOUBLE PRECISION,
	net_profit                DOUBLE PRECISION,
	total_assets              DOUBLE PRECISION,
	fixed_assets              DOUBLE PRECISION,
	current_assets            DOUBLE PRECISION,
	total_liabilities         DOUBLE PRECISION,
	current_liabilities       DOUBLE PRECISION,
	non_current_liabilities   DOUBLE PRECISION,
	net_assets                DOUBLE PRECISION,
	cash                      DOUBLE PRECISION,
	retained_earnings         DOUBLE PRECISION,
	employees                 DOUBLE PRECISION,
	creditors_due_within_year DOUBLE PRECISION,
	share_capital             DOUBLE PRECISION,
	PRIMARY KEY (company_number, period_end)
);

CREATE TABLE IF NOT EXISTS ingest_batches (
	id             TEXT PRIMARY KEY,
	source_dir     TEXT NOT NULL,
	files_scanned  INTEGER NOT NULL,
	files_parsed   INTEGER NOT NULL,
	unidentifiable INTEGER NOT NULL,
	failed         INTEGER NOT NULL,
	started_at     TIMESTAMPTZ NOT NULL,
	finished_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_period_records_year ON period_records(company_number, year);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ReplaceRecords(ctx context.Context, companyNumber string, records []*model.PeriodRecord) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM period_records WHERE company_number = $1`, companyNumber); err != nil {
		return eris.Wrap(err, "postgres: delete records")
	}

	cols := recordColumns()
	insertSQL := "INSERT INTO period_records (" + strings.Join(cols, ", ") +
		") VALUES (" + placeholders(len(cols), "$") + ")"

	for _, r := range records {
		if _, err := s.pool.Exec(ctx, insertSQL, recordArgs(companyNumber, r)...); err != nil {
			return eris.Wrapf(err, "postgres: insert record %s/%s", companyNumber, r.PeriodEnd)
		}
	}
	return nil
}

func (s *PostgresStore) ListRecords(ctx context.Context, companyNumber string) ([]*model.PeriodRecord, error) {
	query := "SELECT period_end, year, " + strings.Join(fieldColumns(), ", ") +
		" FROM period_records WHERE company_number = $1 ORDER BY period_end DESC"

	rows, err := s.pool.Query(ctx, query, companyNumber)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list records")
	}
	defer rows.Close()

	var records []*model.PeriodRecord
	for rows.Next() {
		r, err := scanRecord(rows, companyNumber)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "postgres: iterate records")
}

func (s *PostgresStore) ListCompanies(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT company_number FROM period_records ORDER BY company_number`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()

	var companies []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		companies = append(companies, c)
	}
	return companies, eris.Wrap(rows.Err(), "postgres: iterate companies")
}

func (s *PostgresStore) RecordBatch(ctx context.Context, batch *IngestBatch) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO ingest_batches (id, source_dir, files_scanned, files_parsed, unidentifiable, failed, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		batch.ID, batch.SourceDir, batch.FilesScanned, batch.FilesParsed,
		batch.Unidentifiable, batch.Failed, batch.StartedAt, batch.FinishedAt)
	return eris.Wrap(err, "postgres: record batch")
}

package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/spegfinder/clearview/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS period_records (
	company_number TEXT NOT NULL,
	period_end     TEXT NOT NULL,
	year           TEXT NOT NULL,
	turnover                  REAL,
	cost_of_sales             REAL,
	gross_profit              REAL,
	ebit                      REAL,
	net_profit                REAL,
	total_assets              REAL,
	fixed_assets              REAL,
	current_assets            REAL,
	total_liabilities         REAL,
	current_liabilities       REAL,
	non_current_liabilities   REAL,
	net_assets                REAL,
	cash                      REAL,
	retained_earnings         REAL,
	employees                 REAL,
	creditors_due_within_year REAL,
	share_capital             REAL,
	PRIMARY KEY (company_number, period_end)
);

CREATE TABLE IF NOT EXISTS ingest_batches (
	id             TEXT PRIMARY KEY,
	source_dir     TEXT NOT NULL,
	files_scanned  INTEGER NOT NULL,
	files_parsed   INTEGER NOT NULL,
	unidentifiable INTEGER NOT NULL,
	failed         INTEGER NOT NULL,
	started_at     DATETIME NOT NULL,
	finished_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_period_records_year ON period_records(company_number, year);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ReplaceRecords(ctx context.Context, companyNumber string, records []*model.PeriodRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM period_records WHERE company_number = ?`, companyNumber); err != nil {
		return eris.Wrap(err, "sqlite: delete records")
	}

	cols := recordColumns()
	insertSQL := "INSERT OR REPLACE INTO period_records (" + strings.Join(cols, ", ") +
		") VALUES (" + placeholders(len(cols), "?") + ")"

	for _, r := range records {
		if _, err := tx.ExecContext(ctx, insertSQL, recordArgs(companyNumber, r)...); err != nil {
			return eris.Wrapf(err, "sqlite: insert record %s/%s", companyNumber, r.PeriodEnd)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func (s *SQLiteStore) ListRecords(ctx context.Context, companyNumber string) ([]*model.PeriodRecord, error) {
	query := "SELECT period_end, year, " + strings.Join(fieldColumns(), ", ") +
		" FROM period_records WHERE company_number = ? ORDER BY period_end DESC"

	rows, err := s.db.QueryContext(ctx, query, companyNumber)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list records")
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
	return records, eris.Wrap(rows.Err(), "sqlite: iterate records")
}

func (s *SQLiteStore) ListCompanies(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT company_number FROM period_records ORDER BY company_number`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close()

	var companies []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		companies = append(companies, c)
	}
	return companies, eris.Wrap(rows.Err(), "sqlite: iterate companies")
}

func (s *SQLiteStore) RecordBatch(ctx context.Context, batch *IngestBatch) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_batches (id, source_dir, files_scanned, files_parsed, unidentifiable, failed, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		batch.ID, batch.SourceDir, batch.FilesScanned, batch.FilesParsed,
		batch.Unidentifiable, batch.Failed, batch.StartedAt, batch.FinishedAt)
	return eris.Wrap(err, "sqlite: record batch")
}

// scanRecord reads one period_records row. Shared with the Postgres store
// via the rowScanner seam.
func scanRecord(rows rowScanner, companyNumber string) (*model.PeriodRecord, error) {
	var periodEnd, year string
	nulls := make([]sql.NullFloat64, model.NumFields)

	dest := make([]any, 0, model.NumFields+2)
	dest = append(dest, &periodEnd, &year)
	for i := range nulls {
		dest = append(dest, &nulls[i])
	}

	if err := rows.Scan(dest...); err != nil {
		return nil, eris.Wrap(err, "store: scan record")
	}

	r := model.NewPeriodRecord(periodEnd)
	r.CompanyNumber = companyNumber
	r.Year = year
	for i, f := range model.AllFields() {
		if nulls[i].Valid {
			r.Set(f, nulls[i].Float64)
		}
	}
	return r, nil
}

// rowScanner is the scanning seam shared by both store backends.
type rowScanner interface {
	Scan(dest ...any) error
}

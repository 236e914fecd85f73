package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spegfinder/clearview/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_ReplaceRecords(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM period_records`).
		WithArgs("00012345").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`INSERT INTO period_records`).
		WithArgs(anyRecordArgs()...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	record := model.NewPeriodRecord("2023-12-31")
	record.Set(model.NetAssets, 5000)

	err := s.ReplaceRecords(context.Background(), "00012345", []*model.PeriodRecord{record})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// anyRecordArgs matches the full period_records insert argument list.
func anyRecordArgs() []any {
	args := make([]any, model.NumFields+3)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestPostgresStore_ReplaceRecords_EmptyWipes(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM period_records`).
		WithArgs("00012345").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	err := s.ReplaceRecords(context.Background(), "00012345", nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRecords(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	cols := append([]string{"period_end", "year"}, fieldColumns()...)
	vals := make([]any, len(cols))
	vals[0] = "2023-12-31"
	vals[1] = "2023"
	for i := 2; i < len(vals); i++ {
		vals[i] = nil
	}
	// Populate turnover and net_assets, leave the rest NULL.
	for i, c := range cols {
		switch c {
		case "turnover":
			vals[i] = 1234000.0
		case "net_assets":
			vals[i] = -500.0
		}
	}

	mock.ExpectQuery(`SELECT period_end, year`).
		WithArgs("00012345").
		WillReturnRows(pgxmock.NewRows(cols).AddRow(vals...))

	records, err := s.ListRecords(context.Background(), "00012345")
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "00012345", r.CompanyNumber)
	assert.Equal(t, "2023-12-31", r.PeriodEnd)

	v, ok := r.Value(model.Turnover)
	require.True(t, ok)
	assert.InDelta(t, 1234000.0, v, 1e-9)
	assert.False(t, r.Has(model.Cash))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListCompanies(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT DISTINCT company_number`).
		WillReturnRows(pgxmock.NewRows([]string{"company_number"}).
			AddRow("00000001").
			AddRow("00000002"))

	companies, err := s.ListCompanies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"00000001", "00000002"}, companies)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordBatch(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	batch := NewIngestBatch("/data/accounts")
	batch.FilesScanned = 10
	batch.FilesParsed = 9
	batch.FinishedAt = time.Now().UTC()

	mock.ExpectExec(`INSERT INTO ingest_batches`).
		WithArgs(batch.ID, batch.SourceDir, batch.FilesScanned, batch.FilesParsed,
			batch.Unidentifiable, batch.Failed, batch.StartedAt, batch.FinishedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.RecordBatch(context.Background(), batch)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS period_records`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spegfinder/clearview/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testRecord(periodEnd string, fields map[model.CanonicalField]float64) *model.PeriodRecord {
	r := model.NewPeriodRecord(periodEnd)
	for f, v := range fields {
		r.Set(f, v)
	}
	return r
}

func TestSQLiteRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	records := []*model.PeriodRecord{
		testRecord("2023-12-31", map[model.CanonicalField]float64{
			model.Turnover:  1234000,
			model.NetAssets: -500,
		}),
		testRecord("2022-12-31", map[model.CanonicalField]float64{
			model.NetAssets: 2000,
		}),
	}
	require.NoError(t, st.ReplaceRecords(ctx, "00012345", records))

	got, err := st.ListRecords(ctx, "00012345")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first.
	assert.Equal(t, "2023-12-31", got[0].PeriodEnd)
	assert.Equal(t, "2023", got[0].Year)
	assert.Equal(t, "00012345", got[0].CompanyNumber)

	v, ok := got[0].Value(model.Turnover)
	require.True(t, ok)
	assert.InDelta(t, 1234000.0, v, 1e-9)

	v, ok = got[0].Value(model.NetAssets)
	require.True(t, ok)
	assert.InDelta(t, -500.0, v, 1e-9)

	// NULL columns stay absent.
	assert.False(t, got[0].Has(model.Cash))
	assert.Equal(t, 1, got[1].FieldCount())
}

func TestSQLiteReplaceRemovesStaleRows(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first := []*model.PeriodRecord{
		testRecord("2022-12-31", map[model.CanonicalField]float64{model.NetAssets: 2000}),
		testRecord("2021-12-31", map[model.CanonicalField]float64{model.NetAssets: 1500}),
	}
	require.NoError(t, st.ReplaceRecords(ctx, "00012345", first))

	second := []*model.PeriodRecord{
		testRecord("2023-12-31", map[model.CanonicalField]float64{model.NetAssets: 2500}),
	}
	require.NoError(t, st.ReplaceRecords(ctx, "00012345", second))

	got, err := st.ListRecords(ctx, "00012345")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2023-12-31", got[0].PeriodEnd)
}

func TestSQLiteListCompanies(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, company := range []string{"00000002", "00000001"} {
		require.NoError(t, st.ReplaceRecords(ctx, company, []*model.PeriodRecord{
			testRecord("2023-12-31", map[model.CanonicalField]float64{model.NetAssets: 1}),
		}))
	}

	companies, err := st.ListCompanies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"00000001", "00000002"}, companies)
}

func TestSQLiteListRecordsUnknownCompany(t *testing.T) {
	st := newTestStore(t)

	got, err := st.ListRecords(context.Background(), "99999999")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteRecordBatch(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	batch := NewIngestBatch("/data/accounts")
	batch.FilesScanned = 10
	batch.FilesParsed = 8
	batch.Unidentifiable = 1
	batch.Failed = 1
	batch.FinishedAt = time.Now().UTC()

	require.NoError(t, st.RecordBatch(ctx, batch))
	assert.NotEmpty(t, batch.ID)
}

package statement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spegfinder/clearview/internal/ixbrl"
	"github.com/spegfinder/clearview/internal/model"
)

func fact(field model.CanonicalField, kind ixbrl.PeriodKind, key string, value float64) ixbrl.ResolvedFact {
	return ixbrl.ResolvedFact{Field: field, Kind: kind, Key: key, Value: value}
}

func TestBuildRecordsGroupsByPeriod(t *testing.T) {
	facts := []ixbrl.ResolvedFact{
		fact(model.Turnover, ixbrl.PeriodDuration, "2023-12-31", 100000),
		fact(model.NetAssets, ixbrl.PeriodInstant, "2023-12-31", 5000),
		fact(model.Turnover, ixbrl.PeriodDuration, "2022-12-31", 80000),
		fact(model.NetAssets, ixbrl.PeriodInstant, "2022-12-31", 4000),
	}

	records := BuildRecords(facts)
	require.Len(t, records, 2)

	// Newest first.
	assert.Equal(t, "2023-12-31", records[0].PeriodEnd)
	assert.Equal(t, "2022-12-31", records[1].PeriodEnd)

	v, ok := records[0].Value(model.Turnover)
	require.True(t, ok)
	assert.InDelta(t, 100000.0, v, 1e-9)
}

func TestBuildRecordsDurationAffinity(t *testing.T) {
	// The instant turnover comes first in document order but the duration
	// fact wins for a flow field.
	facts := []ixbrl.ResolvedFact{
		fact(model.Turnover, ixbrl.PeriodInstant, "2023-12-31", 1),
		fact(model.Turnover, ixbrl.PeriodDuration, "2023-12-31", 100000),
		fact(model.NetAssets, ixbrl.PeriodDuration, "2023-12-31", 1),
		fact(model.NetAssets, ixbrl.PeriodInstant, "2023-12-31", 5000),
	}

	records := BuildRecords(facts)
	require.Len(t, records, 1)

	v, _ := records[0].Value(model.Turnover)
	assert.InDelta(t, 100000.0, v, 1e-9)
	v, _ = records[0].Value(model.NetAssets)
	assert.InDelta(t, 5000.0, v, 1e-9)
}

func TestBuildRecordsFallbackToAnyKind(t *testing.T) {
	// Only an instant turnover exists; the fallback pass picks it up.
	facts := []ixbrl.ResolvedFact{
		fact(model.Turnover, ixbrl.PeriodInstant, "2023-12-31", 100000),
	}

	records := BuildRecords(facts)
	require.Len(t, records, 1)
	v, ok := records[0].Value(model.Turnover)
	require.True(t, ok)
	assert.InDelta(t, 100000.0, v, 1e-9)
}

func TestBuildRecordsFirstFactWins(t *testing.T) {
	facts := []ixbrl.ResolvedFact{
		fact(model.NetAssets, ixbrl.PeriodInstant, "2023-12-31", 5000),
		fact(model.NetAssets, ixbrl.PeriodInstant, "2023-12-31", 9999),
	}

	records := BuildRecords(facts)
	require.Len(t, records, 1)
	v, _ := records[0].Value(model.NetAssets)
	assert.InDelta(t, 5000.0, v, 1e-9)
}

func TestBuildRecordsDerivations(t *testing.T) {
	facts := []ixbrl.ResolvedFact{
		fact(model.FixedAssets, ixbrl.PeriodInstant, "2023-12-31", 120000),
		fact(model.CurrentAssets, ixbrl.PeriodInstant, "2023-12-31", 45000),
		fact(model.CurrentLiabilities, ixbrl.PeriodInstant, "2023-12-31", 30000),
	}

	records := BuildRecords(facts)
	require.Len(t, records, 1)
	r := records[0]

	v, ok := r.Value(model.TotalAssets)
	require.True(t, ok)
	assert.InDelta(t, 165000.0, v, 1e-9)

	v, ok = r.Value(model.TotalLiabilities)
	require.True(t, ok)
	assert.InDelta(t, 30000.0, v, 1e-9)

	v, ok = r.Value(model.CreditorsDueWithinYear)
	require.True(t, ok)
	assert.InDelta(t, 30000.0, v, 1e-9)
}

func TestBuildRecordsDerivationNeverOverwrites(t *testing.T) {
	facts := []ixbrl.ResolvedFact{
		fact(model.TotalAssets, ixbrl.PeriodInstant, "2023-12-31", 200000),
		fact(model.FixedAssets, ixbrl.PeriodInstant, "2023-12-31", 120000),
		fact(model.CurrentAssets, ixbrl.PeriodInstant, "2023-12-31", 45000),
	}

	records := BuildRecords(facts)
	require.Len(t, records, 1)
	v, _ := records[0].Value(model.TotalAssets)
	assert.InDelta(t, 200000.0, v, 1e-9)
}

func TestBuildRecordsDerivationNeedsAnOperand(t *testing.T) {
	facts := []ixbrl.ResolvedFact{
		fact(model.NetAssets, ixbrl.PeriodInstant, "2023-12-31", 5000),
	}

	records := BuildRecords(facts)
	require.Len(t, records, 1)
	assert.False(t, records[0].Has(model.TotalLiabilities))
	assert.False(t, records[0].Has(model.TotalAssets))
}

func TestBuildRecordsMinimumDataGate(t *testing.T) {
	// Employees and share capital alone do not satisfy the presence gate.
	facts := []ixbrl.ResolvedFact{
		fact(model.Employees, ixbrl.PeriodDuration, "2023-12-31", 12),
		fact(model.ShareCapital, ixbrl.PeriodInstant, "2023-12-31", 100),
	}

	records := BuildRecords(facts)
	assert.Empty(t, records)
}

func TestBuildRecordsSkipsEmptyKeys(t *testing.T) {
	facts := []ixbrl.ResolvedFact{
		fact(model.NetAssets, ixbrl.PeriodInstant, "", 5000),
	}
	assert.Empty(t, BuildRecords(facts))
}

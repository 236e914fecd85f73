// Package store persists bulk-parsed period records so the series for any
// company can be reduced and served without re-parsing its filings.
package store

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spegfinder/clearview/internal/model"
)

// IngestBatch records one bulk scan for auditability: what was scanned and
// how many documents were parsed, unidentifiable, or failed.
type IngestBatch struct {
	ID             string
	SourceDir      string
	FilesScanned   int
	FilesParsed    int
	Unidentifiable int
	Failed         int
	StartedAt      time.Time
	FinishedAt     time.Time
}

// NewIngestBatch creates a batch row for a scan of sourceDir.
func NewIngestBatch(sourceDir string) *IngestBatch {
	return &IngestBatch{
		ID:        uuid.New().String(),
		SourceDir: sourceDir,
		StartedAt: time.Now().UTC(),
	}
}

// Store defines the persistence interface for parsed accounts data.
type Store interface {
	// ReplaceRecords replaces every stored record for a company with the
	// given candidates. An amended filing re-scan must not leave stale rows.
	ReplaceRecords(ctx context.Context, companyNumber string, records []*model.PeriodRecord) error
	ListRecords(ctx context.Context, companyNumber string) ([]*model.PeriodRecord, error)
	ListCompanies(ctx context.Context) ([]string, error)

	RecordBatch(ctx context.Context, batch *IngestBatch) error

	Migrate(ctx context.Context) error
	Close() error
}

// fieldColumns returns the per-field column names in canonical order. Field
// keys are snake_case identifiers, safe to splice into SQL.
func fieldColumns() []string {
	cols := make([]string, 0, model.NumFields)
	for _, f := range model.AllFields() {
		cols = append(cols, f.String())
	}
	return cols
}

// recordColumns is the full column list for period_records.
func recordColumns() []string {
	return append([]string{"company_number", "period_end", "year"}, fieldColumns()...)
}

// recordArgs flattens a record into insert arguments matching recordColumns.
// Absent fields become NULL.
func recordArgs(companyNumber string, r *model.PeriodRecord) []any {
	args := make([]any, 0, model.NumFields+3)
	args = append(args, companyNumber, r.PeriodEnd, r.Year)
	for _, f := range model.AllFields() {
		if v, ok := r.Value(f); ok {
			args = append(args, v)
		} else {
			args = append(args, nil)
		}
	}
	return args
}

// placeholders returns n SQL placeholders joined by commas. style "?" for
// SQLite, "$" for Postgres ($1..$n).
func placeholders(n int, style string) string {
	parts := make([]string, n)
	for i := range parts {
		if style == "$" {
			parts[i] = "$" + strconv.Itoa(i+1)
		} else {
			parts[i] = "?"
		}
	}
	return strings.Join(parts, ", ")
}

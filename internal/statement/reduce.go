package statement

import (
	"sort"

	"github.com/spegfinder/clearview/internal/model"
)

// maxSeriesYears caps the reduced series at the four most recent years,
// matching what the downstream scorer consumes.
const maxSeriesYears = 4

// Reduce deduplicates candidate records by year and returns the series for
// one company, newest first, at most four years. When several filings cover
// the same year the record with the most populated fields wins; an exact tie
// keeps the first record seen, so input order matters for ties.
func Reduce(candidates []*model.PeriodRecord) model.FinancialSeries {
	byYear := make(map[string]*model.PeriodRecord)
	var years []string

	for _, r := range candidates {
		if r == nil || r.Year == "" {
			continue
		}
		existing, ok := byYear[r.Year]
		if !ok {
			byYear[r.Year] = r
			years = append(years, r.Year)
			continue
		}
		if r.FieldCount() > existing.FieldCount() {
			byYear[r.Year] = r
		}
	}

	sort.Sort(sort.Reverse(sort.StringSlice(years)))
	if len(years) > maxSeriesYears {
		years = years[:maxSeriesYears]
	}

	series := make(model.FinancialSeries, 0, len(years))
	for _, y := range years {
		series = append(series, byYear[y])
	}
	return series
}

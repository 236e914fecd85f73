package model

import (
	"bytes"
	"encoding/json"
	"sort"
)

// PeriodRecord is one reporting period for one company: a period-end date,
// the derived year, and whichever canonical fields were extracted. Absent
// fields stay absent; they are never defaulted to zero.
type PeriodRecord struct {
	CompanyNumber string
	PeriodEnd     string
	Year          string

	values map[CanonicalField]float64
}

// NewPeriodRecord creates an empty record for the given period end date.
// Year is derived from the first four characters of the period end.
func NewPeriodRecord(periodEnd string) *PeriodRecord {
	year := periodEnd
	if len(year) > 4 {
		year = year[:4]
	}
	return &PeriodRecord{
		PeriodEnd: periodEnd,
		Year:      year,
		values:    make(map[CanonicalField]float64),
	}
}

// Set assigns a field value. Later writes overwrite; callers enforcing
// first-found-wins must check Has first.
func (r *PeriodRecord) Set(f CanonicalField, v float64) {
	if r.values == nil {
		r.values = make(map[CanonicalField]float64)
	}
	r.values[f] = v
}

// Value returns the field value and whether it is present.
func (r *PeriodRecord) Value(f CanonicalField) (float64, bool) {
	v, ok := r.values[f]
	return v, ok
}

// Has reports whether the field carries a value.
func (r *PeriodRecord) Has(f CanonicalField) bool {
	_, ok := r.values[f]
	return ok
}

// FieldCount returns the number of populated canonical fields.
func (r *PeriodRecord) FieldCount() int {
	return len(r.values)
}

// HasMinimumData reports whether the record satisfies the minimum-presence
// invariant: at least one of total assets, net assets, current assets, or
// turnover. Records failing the gate are dropped, not errors.
func (r *PeriodRecord) HasMinimumData() bool {
	return r.Has(TotalAssets) || r.Has(NetAssets) || r.Has(CurrentAssets) || r.Has(Turnover)
}

// MarshalJSON serializes the record as a flat object with every canonical
// field present, null when absent.
func (r *PeriodRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, NumFields+3)
	if r.CompanyNumber != "" {
		out["company_number"] = r.CompanyNumber
	}
	out["year"] = r.Year
	out["period_end"] = r.PeriodEnd
	for _, f := range AllFields() {
		if v, ok := r.values[f]; ok {
			out[f.String()] = v
		} else {
			out[f.String()] = nil
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a record from its flat wire shape. Unknown keys are
// ignored; null fields stay absent.
func (r *PeriodRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	r.values = make(map[CanonicalField]float64)
	for k, v := range raw {
		switch k {
		case "company_number":
			if s, ok := v.(string); ok {
				r.CompanyNumber = s
			}
			continue
		case "year":
			if s, ok := v.(string); ok {
				r.Year = s
			}
			continue
		case "period_end":
			if s, ok := v.(string); ok {
				r.PeriodEnd = s
			}
			continue
		}
		num, ok := v.(json.Number)
		if !ok {
			continue
		}
		f, err := ParseField(k)
		if err != nil {
			continue
		}
		fv, err := num.Float64()
		if err != nil {
			continue
		}
		r.values[f] = fv
	}
	return nil
}

// FinancialSeries is an ordered multi-year sequence of records, newest first,
// one record per distinct year, at most four years.
type FinancialSeries []*PeriodRecord

// Years returns the series years, newest first.
func (s FinancialSeries) Years() []string {
	years := make([]string, len(s))
	for i, r := range s {
		years[i] = r.Year
	}
	return years
}

// Latest returns the most recent record, or nil for an empty series.
func (s FinancialSeries) Latest() *PeriodRecord {
	if len(s) == 0 {
		return nil
	}
	return s[0]
}

// FieldValues returns the series values for one field in chronological order
// (oldest first), skipping years where the field is absent.
func (s FinancialSeries) FieldValues(f CanonicalField) []float64 {
	var vals []float64
	for i := len(s) - 1; i >= 0; i-- {
		if v, ok := s[i].Value(f); ok {
			vals = append(vals, v)
		}
	}
	return vals
}

// FieldTrajectory holds year-on-year change metrics for one tracked field.
type FieldTrajectory struct {
	Latest       float64  `json:"latest"`
	AbsChange    *float64 `json:"abs_change,omitempty"`
	PctChange    *float64 `json:"pct_change,omitempty"`
	DirectionRun int      `json:"direction_run"`
	Accelerating bool     `json:"accelerating"`
}

// TrajectoryFeatures is derived from a FinancialSeries and recomputed
// whenever the series changes.
type TrajectoryFeatures struct {
	YearsAvailable int    `json:"years_available"`
	LatestYear     string `json:"latest_year,omitempty"`

	Fields map[CanonicalField]FieldTrajectory `json:"fields"`

	// Net-assets specifics kept for the downstream distress scorer.
	// YearsDeclining uses the strict-negative convention: any negative
	// year-on-year change counts, with no deadband.
	YearsDeclining     int  `json:"years_declining"`
	NetAssetsNegative  bool `json:"net_assets_negative"`
	TurnedNegative     bool `json:"turned_negative"`
	NetAssetsDeclining bool `json:"net_assets_declining"`
}

// TrackedFields are the fields trajectory features are computed for.
func TrackedFields() []CanonicalField {
	return []CanonicalField{
		NetAssets, TotalAssets, CurrentAssets, Turnover,
		RetainedEarnings, Employees,
	}
}

// SortYearsDesc sorts year strings in descending order.
func SortYearsDesc(years []string) {
	sort.Sort(sort.Reverse(sort.StringSlice(years)))
}

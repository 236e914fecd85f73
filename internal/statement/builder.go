package statement

import (
	"sort"

	"github.com/spegfinder/clearview/internal/ixbrl"
	"github.com/spegfinder/clearview/internal/model"
)

// BuildRecords groups resolved facts by period key and builds one candidate
// record per period, newest first. Field selection, derivation, and the
// minimum-presence gate follow the rules in selectField and derive below.
func BuildRecords(facts []ixbrl.ResolvedFact) []*model.PeriodRecord {
	groups := make(map[string][]ixbrl.ResolvedFact)
	for _, f := range facts {
		if f.Key == "" {
			continue
		}
		groups[f.Key] = append(groups[f.Key], f)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	var records []*model.PeriodRecord
	for _, key := range keys {
		record := model.NewPeriodRecord(key)

		for _, field := range model.AllFields() {
			if v, ok := selectField(groups[key], field); ok {
				record.Set(field, v)
			}
		}

		derive(record)

		if record.HasMinimumData() {
			records = append(records, record)
		}
	}

	return records
}

// selectField picks one value for a field from a period group. Facts from
// the field's preferred context kind are searched first (duration for flow
// items, instant for balances), then the whole group. Within a pass the
// first qualifying fact in document order wins; there is no tie-break on
// magnitude or precision.
func selectField(group []ixbrl.ResolvedFact, field model.CanonicalField) (float64, bool) {
	preferred := ixbrl.PeriodInstant
	if field.PrefersDuration() {
		preferred = ixbrl.PeriodDuration
	}

	for _, f := range group {
		if f.Field == field && f.Kind == preferred {
			return f.Value, true
		}
	}
	for _, f := range group {
		if f.Field == field {
			return f.Value, true
		}
	}
	return 0, false
}

// derive fills aggregate fields from their parts when the aggregate was not
// tagged directly. A missing operand counts as zero inside a sum, but a
// derivation never fires when every operand is absent.
func derive(r *model.PeriodRecord) {
	if !r.Has(model.TotalLiabilities) {
		cl, hasCL := r.Value(model.CurrentLiabilities)
		ncl, hasNCL := r.Value(model.NonCurrentLiabilities)
		if hasCL || hasNCL {
			r.Set(model.TotalLiabilities, cl+ncl)
		}
	}

	if !r.Has(model.TotalAssets) {
		fa, hasFA := r.Value(model.FixedAssets)
		ca, hasCA := r.Value(model.CurrentAssets)
		if hasFA || hasCA {
			r.Set(model.TotalAssets, fa+ca)
		}
	}

	if !r.Has(model.CreditorsDueWithinYear) {
		if cl, ok := r.Value(model.CurrentLiabilities); ok {
			r.Set(model.CreditorsDueWithinYear, cl)
		}
	}
}

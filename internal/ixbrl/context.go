package ixbrl

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PeriodKind distinguishes flow periods from point-in-time balances.
type PeriodKind int

const (
	// PeriodDuration is a {start, end} reporting period (P&L items).
	PeriodDuration PeriodKind = iota
	// PeriodInstant is a single balance-sheet date.
	PeriodInstant
)

// PeriodDescriptor identifies the reporting period a context defines.
// HasDimension marks contexts carrying a segment breakdown (consolidated vs
// subsidiary etc.); those are excluded from top-level aggregation.
type PeriodDescriptor struct {
	Kind         PeriodKind
	Start        string
	End          string
	Instant      string
	HasDimension bool
}

// Key returns the period grouping key: the end date for durations, the
// instant date otherwise.
func (p PeriodDescriptor) Key() string {
	if p.Kind == PeriodDuration {
		return p.End
	}
	return p.Instant
}

// ResolveContexts parses every context block in the document into a period
// descriptor keyed by context id. Contexts without an id or a usable period
// are discarded.
func (d *Document) ResolveContexts() map[string]PeriodDescriptor {
	contexts := make(map[string]PeriodDescriptor)

	d.eachByLocalName(func(sel *goquery.Selection) {
		id, ok := sel.Attr("id")
		if !ok || id == "" {
			return
		}

		period := findChildByLocalName(sel, "period")
		if period == nil {
			return
		}

		var desc PeriodDescriptor
		start := findChildByLocalName(period, "startdate")
		end := findChildByLocalName(period, "enddate")
		instant := findChildByLocalName(period, "instant")

		switch {
		case start != nil && end != nil:
			desc.Kind = PeriodDuration
			desc.Start = dateText(start)
			desc.End = dateText(end)
		case instant != nil:
			desc.Kind = PeriodInstant
			desc.Instant = dateText(instant)
		default:
			return
		}
		if desc.Key() == "" {
			return
		}

		if findChildByLocalName(sel, "segment") != nil {
			desc.HasDimension = true
		}

		contexts[id] = desc
	}, "context")

	return contexts
}

// dateText extracts a trimmed date, truncated to the YYYY-MM-DD prefix since
// some preparers append timestamps.
func dateText(sel *goquery.Selection) string {
	s := strings.TrimSpace(sel.Text())
	if len(s) > 10 {
		s = s[:10]
	}
	return s
}

package ixbrl

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/spegfinder/clearview/internal/model"
)

// RawFact is a tagged numeric element as it appears in the document, before
// concept and context resolution. Ephemeral: produced by the scan, consumed
// immediately.
type RawFact struct {
	Concept    string // local name after the namespace prefix
	FullName   string
	ContextRef string
	Text       string
	Sign       string
	Scale      string
	Unit       string
}

// ResolvedFact is a fact mapped to a canonical field, a period grouping key,
// and a decoded value.
type ResolvedFact struct {
	Field model.CanonicalField
	Kind  PeriodKind
	Key   string
	Value float64
}

// ScanFacts returns every tagged numeric element in document order. Elements
// with no name or no text are skipped.
func (d *Document) ScanFacts() []RawFact {
	var facts []RawFact

	d.eachByLocalName(func(sel *goquery.Selection) {
		name := sel.AttrOr("name", "")
		text := strings.TrimSpace(sel.Text())
		if name == "" || text == "" {
			return
		}
		facts = append(facts, RawFact{
			Concept:    localName(name),
			FullName:   name,
			ContextRef: sel.AttrOr("contextref", ""),
			Text:       text,
			Sign:       sel.AttrOr("sign", ""),
			Scale:      sel.AttrOr("scale", ""),
			Unit:       sel.AttrOr("unitref", ""),
		})
	}, "nonfraction", "nonnumeric")

	return facts
}

// CollectFacts scans the document and resolves each tagged element to
// (canonical field, period key, value). Facts are dropped when the concept
// maps to no canonical field, the context reference is unresolvable, the
// context carries a dimension, or the value fails to decode. Every failure
// is local: one bad fact never poisons the rest of the document.
func (d *Document) CollectFacts(contexts map[string]PeriodDescriptor, tax *model.Taxonomy) []ResolvedFact {
	var resolved []ResolvedFact

	for _, raw := range d.ScanFacts() {
		field, ok := tax.Match(raw.Concept)
		if !ok {
			continue
		}

		ctx, ok := contexts[raw.ContextRef]
		if !ok || ctx.HasDimension {
			continue
		}

		value, ok := DecodeValue(raw.Text, raw.Scale, raw.Sign)
		if !ok {
			continue
		}

		resolved = append(resolved, ResolvedFact{
			Field: field,
			Kind:  ctx.Kind,
			Key:   ctx.Key(),
			Value: value,
		})
	}

	return resolved
}

// Package statement assembles per-period financial records from resolved
// iXBRL facts and reduces candidates across filings into a deduplicated
// multi-year series with trajectory features.
package statement

import (
	"github.com/spegfinder/clearview/internal/ixbrl"
	"github.com/spegfinder/clearview/internal/model"
)

// minDocumentBytes filters out stub files (readmes, index pages) during bulk
// processing; nothing that small holds a tagged balance sheet.
const minDocumentBytes = 200

// ExtractDocument parses one iXBRL document and returns its retained period
// records, newest first. The taxonomy is supplied by the caller and never
// mutated. A document that yields nothing returns an empty slice, not an
// error; only unparseable markup is an error.
func ExtractDocument(content []byte, encodingHint string, tax *model.Taxonomy) ([]*model.PeriodRecord, error) {
	if len(content) < minDocumentBytes {
		return nil, nil
	}

	doc, err := ixbrl.Parse(content, encodingHint)
	if err != nil {
		return nil, err
	}

	contexts := doc.ResolveContexts()
	if len(contexts) == 0 {
		return nil, nil
	}

	facts := doc.CollectFacts(contexts, tax)
	if len(facts) == 0 {
		return nil, nil
	}

	return BuildRecords(facts), nil
}

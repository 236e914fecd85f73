// Package bulk scans directory trees of filed accounts documents, identifies
// the reporting company for each file, and parses them in parallel into
// per-company candidate records.
package bulk

import (
	"path/filepath"
	"regexp"
	"strings"
)

// headBytes is how much of the document to search for in-content company
// numbers. Identifier tags sit in the document header well within this.
const headBytes = 5000

var (
	// Bulk product files are named like Prod224_1234_00012345_20240331.html.
	underscoredNumberRe = regexp.MustCompile(`_(\d{8})_`)
	bareNumberRe        = regexp.MustCompile(`\d{8}`)
	companyNumberRe     = regexp.MustCompile(`(?i)CompanyNumber[>\s:]+(\d{6,8})`)
	registeredNumberRe  = regexp.MustCompile(`(?i)RegisteredNumber[>\s:]+(\d{6,8})`)
	identifierTagRe     = regexp.MustCompile(`(?i)<[^>]*identifier[^>]*>(\d{6,8})<`)
)

// IdentifyCompany recovers the reporting company's registered number from
// the source path or the head of the document content. The fallback chain is
// ordered and the first hit wins: underscore-delimited 8-digit token in the
// filename, any 8-digit token in the filename, then CompanyNumber /
// RegisteredNumber / entity-identifier markers in the content. Results are
// zero-padded to 8 digits. A document that fails every rule cannot be
// attributed to any company and must be skipped entirely.
func IdentifyCompany(path string, content []byte) (string, bool) {
	base := filepath.Base(path)

	if m := underscoredNumberRe.FindStringSubmatch(base); m != nil {
		return m[1], true
	}
	if m := bareNumberRe.FindString(base); m != "" {
		return m, true
	}

	head := content
	if len(head) > headBytes {
		head = head[:headBytes]
	}

	for _, re := range []*regexp.Regexp{companyNumberRe, registeredNumberRe, identifierTagRe} {
		if m := re.FindSubmatch(head); m != nil {
			return padCompanyNumber(string(m[1])), true
		}
	}

	return "", false
}

// padCompanyNumber left-pads a company number to 8 digits.
func padCompanyNumber(n string) string {
	if len(n) >= 8 {
		return n
	}
	return strings.Repeat("0", 8-len(n)) + n
}

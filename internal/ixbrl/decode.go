package ixbrl

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// formatReplacer strips thousands separators, ordinary spaces, the
// non-breaking space, and bracket characters before numeric parsing.
var formatReplacer = strings.NewReplacer(
	",", "",
	" ", "",
	" ", "",
	"(", "",
	")", "",
)

var nonNumericRe = regexp.MustCompile(`[^\d.\-]`)

// DecodeValue parses the text content of a tagged numeric element into a
// signed value. scale is the ix scale attribute ("3" means figures in
// thousands); sign is the ix sign attribute ("" or "-"). Parenthesized
// figures are negative by accounting convention; sign and brackets are
// redundant indicators, not additive. Returns ok=false for anything that
// does not decode; malformed figures are common and must not abort the
// document.
func DecodeValue(text, scale, sign string) (float64, bool) {
	hasBrackets := strings.Contains(text, "(") && strings.Contains(text, ")")

	cleaned := formatReplacer.Replace(text)
	cleaned = nonNumericRe.ReplaceAllString(cleaned, "")

	if cleaned == "" || cleaned == "." || cleaned == "-" {
		return 0, false
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}

	if scale != "" {
		if exp, err := strconv.Atoi(scale); err == nil && exp != 0 {
			value *= math.Pow10(exp)
		}
	}

	if sign == "-" || hasBrackets {
		value = -math.Abs(value)
	}

	return value, true
}

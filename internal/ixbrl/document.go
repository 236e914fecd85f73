// Package ixbrl parses inline-XBRL accounts documents: HTML with embedded
// XBRL tags. Financial values appear as
//
//	<ix:nonFraction name="ns:ConceptName" contextRef="ctx1" ...>1,234</ix:nonFraction>
//
// and contexts define the reporting period each value belongs to. The package
// resolves contexts, decodes tagged numbers, and maps concept names onto the
// canonical field set. Parsing is a pure function of the document bytes; no
// I/O happens here.
package ixbrl

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"
)

// Document wraps a parsed markup tree. Component logic traverses it through
// local-name helpers so the underlying parser stays swappable.
type Document struct {
	doc *goquery.Document
}

// Parse decodes document bytes using the declared encoding hint and builds
// the markup tree. Decoding failures fall back to Latin-1, which accepts any
// byte sequence: a mangled document must never abort a batch.
func Parse(content []byte, encodingHint string) (*Document, error) {
	text, err := decodeBytes(content, encodingHint)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, eris.Wrap(err, "ixbrl: parse markup")
	}
	return &Document{doc: doc}, nil
}

// decodeBytes converts raw bytes to a string honoring the encoding hint.
func decodeBytes(content []byte, encodingHint string) (string, error) {
	switch normalizeEncoding(encodingHint) {
	case "latin1":
		return decodeLatin1(content)
	case "windows1252":
		out, err := charmap.Windows1252.NewDecoder().Bytes(content)
		if err != nil {
			return decodeLatin1(content)
		}
		return string(out), nil
	default:
		if utf8.Valid(content) {
			return string(content), nil
		}
		return decodeLatin1(content)
	}
}

func decodeLatin1(content []byte) (string, error) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
	if err != nil {
		return "", eris.Wrap(err, "ixbrl: decode latin-1")
	}
	return string(out), nil
}

func normalizeEncoding(hint string) string {
	h := strings.ToLower(strings.TrimSpace(hint))
	h = strings.NewReplacer("-", "", "_", "").Replace(h)
	switch h {
	case "latin1", "iso88591":
		return "latin1"
	case "windows1252", "cp1252":
		return "windows1252"
	default:
		return "utf8"
	}
}

// localName returns the element name after the final namespace separator.
func localName(name string) string {
	if i := strings.LastIndex(name, ":"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// eachByLocalName visits every element whose local tag name (lowercased by
// the HTML parser) matches one of the given names, in document order.
func (d *Document) eachByLocalName(fn func(sel *goquery.Selection), names ...string) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.ToLower(n)] = true
	}
	d.doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		if want[localName(goquery.NodeName(sel))] {
			fn(sel)
		}
	})
}

// findChildByLocalName returns the first descendant of sel whose local tag
// name matches, or nil.
func findChildByLocalName(sel *goquery.Selection, names ...string) *goquery.Selection {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.ToLower(n)] = true
	}
	var found *goquery.Selection
	sel.Find("*").EachWithBreak(func(_ int, child *goquery.Selection) bool {
		if want[localName(goquery.NodeName(child))] {
			found = child
			return false
		}
		return true
	})
	return found
}

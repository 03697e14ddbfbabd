// Package spreadsheet turns uploaded tabular files into header-keyed
// rows. Exports come from different providers and periods, so column
// names are never stable; lookups go through normalized headers and
// ordered candidate lists instead of a fixed schema.
package spreadsheet

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Row maps normalized column names to trimmed cell values.
type Row map[string]string

// Sheet is a parsed spreadsheet: the first file row is the header,
// every following row is keyed by it. Unrecognized columns are kept
// and simply never resolved.
type Sheet struct {
	Headers []string
	Rows    []Row
}

// Resolve returns the first non-empty value among the candidate column
// names, trimmed. Candidates are matched against normalized headers.
func (r Row) Resolve(candidates ...string) string {
	for _, c := range candidates {
		if v, ok := r[NormalizeHeader(c)]; ok && v != "" {
			return v
		}
	}
	return ""
}

// NormalizeHeader lowercases, strips diacritics and collapses
// separators so "Nº Processo", "numero_processo" and "Numero Processo"
// all meet at the same key.
func NormalizeHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastSep := false
	for _, r := range s {
		switch {
		// Ordinal markers ("Nº") are letters but never meaningful in a
		// column name; NFD leaves them intact, so drop them here.
		case r == 'º' || r == 'ª' || r == '°':
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSep = false
		default:
			if !lastSep && b.Len() > 0 {
				b.WriteByte('_')
				lastSep = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// FromRecords builds a Sheet from raw records, first record as header.
// Rows shorter than the header are padded with empty cells.
func FromRecords(records [][]string) *Sheet {
	s := &Sheet{}
	if len(records) == 0 {
		return s
	}
	s.Headers = records[0]
	keys := make([]string, len(records[0]))
	for i, h := range records[0] {
		keys[i] = NormalizeHeader(h)
	}
	for _, rec := range records[1:] {
		row := make(Row, len(keys))
		for i, k := range keys {
			if k == "" {
				continue
			}
			if i < len(rec) {
				row[k] = strings.TrimSpace(rec[i])
			} else {
				row[k] = ""
			}
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

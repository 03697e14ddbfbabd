// Package core holds the domain types shared by the importer, the
// storage layer and the HTTP handlers.
//
// This file contains money parsing for Brazilian-formatted currency
// strings as they appear in ASTREA spreadsheet exports.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// Money is a currency amount in centavos.
type Money struct {
	Cents int64
}

// Reais returns the value in reais as a float64 for display purposes.
// Use cents for arithmetic.
func (m Money) Reais() float64 {
	return float64(m.Cents) / 100.0
}

// ParseBRLToCents parses a Brazilian-formatted currency string into
// centavos. The format uses "." as thousands separator and "," as the
// decimal separator ("1.234,56" -> 123456). An optional leading "R$"
// and surrounding whitespace are tolerated.
//
// It returns ok=false on anything it cannot parse. Import callers
// coerce the amount to zero and record the row in the import report
// instead of aborting the whole spreadsheet.
func ParseBRLToCents(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	// "1.234,56": dots are grouping, comma is the decimal mark.
	intPart := s
	fracPart := ""
	if i := strings.LastIndex(s, ","); i >= 0 {
		intPart = s[:i]
		fracPart = s[i+1:]
	}
	intPart = strings.ReplaceAll(intPart, ".", "")
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, false
		}
	}
	if len(fracPart) > 2 {
		return 0, false
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, false
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, false
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, false
	}

	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
		}
	}

	cents := iv*100 + fracCents
	if neg {
		cents = -cents
	}
	return cents, true
}

// FormatBRL renders centavos as "R$ 1.234,56".
func FormatBRL(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	reais := cents / 100
	rem := cents % 100

	digits := strconv.FormatInt(reais, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	out := "R$ " + b.String() + "," + pad2(rem)
	if neg {
		return "-" + out
	}
	return out
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

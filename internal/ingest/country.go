package ingest

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Markets recognised by NormalizeCountry.
var markets = []string{"PERU", "COLOMBIA", "ECUADOR"}

var upper = cases.Upper(language.Und)

// Fold upper-cases s and strips diacritics, so "Perú" becomes "PERU".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return upper.String(strings.TrimSpace(out))
}

// NormalizeCountry maps a free-text country onto a known market code.
// Values that name no known market become fallback.
func NormalizeCountry(raw, fallback string) string {
	folded := Fold(raw)
	for _, m := range markets {
		if strings.Contains(folded, m) {
			return m
		}
	}
	return fallback
}

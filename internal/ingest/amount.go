package ingest

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
)

// ParseAmount reads a money value in either "1.234,56" or "1,234.56" form.
// Parentheses or a minus sign make it negative. Currency symbols and spaces
// are ignored. An empty value is 0.
func ParseAmount(raw string, loc Locale) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if strings.HasPrefix(s, "-") || strings.HasSuffix(s, "-") {
		negative = true
	}

	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.IndexFunc(digits, unicode.IsDigit) < 0 {
		return 0, eris.Errorf("ingest: invalid amount %q", raw)
	}

	if commaDecimals(digits, loc.Decimal) {
		digits = strings.ReplaceAll(digits, ".", "")
		digits = strings.Replace(digits, ",", ".", 1)
	} else {
		digits = strings.ReplaceAll(digits, ",", "")
	}

	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: invalid amount %q", raw)
	}
	if negative {
		v = -v
	}
	return v, nil
}

func commaDecimals(s string, style DecimalStyle) bool {
	switch style {
	case DecimalComma:
		return true
	case DecimalPoint:
		return false
	}
	comma := strings.LastIndex(s, ",")
	if comma < 0 {
		return false
	}
	point := strings.LastIndex(s, ".")
	return point < comma
}

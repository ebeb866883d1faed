package salesforce

import (
	"strconv"
	"strings"
)

// Record is one decoded SOQL row. Relationship fields arrive as nested
// records and are addressed with dotted paths such as "Account.BillingCountry".
type Record map[string]any

// Value returns the raw value at path, or nil.
func (r Record) Value(path string) any {
	if path == "" {
		return nil
	}
	var cur any = map[string]any(r)
	for _, part := range strings.Split(path, ".") {
		switch m := cur.(type) {
		case map[string]any:
			cur = m[part]
		case Record:
			cur = m[part]
		default:
			return nil
		}
	}
	return cur
}

// String returns the value at path formatted as text. Missing values are "".
func (r Record) String(path string) string {
	switch v := r.Value(path).(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Float returns the numeric value at path, or 0.
func (r Record) Float(path string) float64 {
	switch v := r.Value(path).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

// Bool returns the boolean value at path, or false.
func (r Record) Bool(path string) bool {
	switch v := r.Value(path).(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

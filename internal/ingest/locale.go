// Package ingest turns spreadsheet and CRM exports into typed pipeline
// records. All locale-dependent parsing is driven by an explicit Locale.
package ingest

import "github.com/sells-group/pipeline-analytics/internal/model"

// DecimalStyle selects how amounts separate thousands from decimals.
type DecimalStyle string

const (
	// DecimalAuto guesses per value: a trailing comma group means comma decimals.
	DecimalAuto DecimalStyle = "auto"
	// DecimalComma reads "1.234,56".
	DecimalComma DecimalStyle = "comma"
	// DecimalPoint reads "1,234.56".
	DecimalPoint DecimalStyle = "point"
)

// DateOrder resolves ambiguous slash dates such as 03/04/2026.
type DateOrder string

const (
	OrderMDY DateOrder = "mdy"
	OrderDMY DateOrder = "dmy"
)

// Locale holds the parsing conventions of one source file.
type Locale struct {
	Decimal   DecimalStyle
	DateOrder DateOrder
	// YearPivot expands two-digit years: below it is 20xx, otherwise 19xx.
	YearPivot int
	// ThousandsBelow multiplies plan targets under this value by 1000,
	// for sheets that state targets in thousands. Zero disables it.
	ThousandsBelow float64
	// TargetYear dates month-name target rows.
	TargetYear int
	// CountryFallback replaces countries that match no known market.
	CountryFallback string
}

// DefaultLocale returns the conventions of the usual regional exports.
func DefaultLocale() Locale {
	return Locale{
		Decimal:         DecimalAuto,
		DateOrder:       OrderMDY,
		YearPivot:       50,
		ThousandsBelow:  2000,
		CountryFallback: model.CountryUnknown,
	}
}

package ingest

import (
	"fmt"
	"strings"
)

var monthNames = map[string]int{
	"ENERO": 1, "JANUARY": 1, "ENE": 1, "JAN": 1,
	"FEBRERO": 2, "FEBRUARY": 2, "FEB": 2,
	"MARZO": 3, "MARCH": 3, "MAR": 3,
	"ABRIL": 4, "APRIL": 4, "ABR": 4, "APR": 4,
	"MAYO": 5, "MAY": 5,
	"JUNIO": 6, "JUNE": 6, "JUN": 6,
	"JULIO": 7, "JULY": 7, "JUL": 7,
	"AGOSTO": 8, "AUGUST": 8, "AGO": 8, "AUG": 8,
	"SEPTIEMBRE": 9, "SETIEMBRE": 9, "SEPTEMBER": 9, "SEP": 9, "SET": 9, "SEPT": 9,
	"OCTUBRE": 10, "OCTOBER": 10, "OCT": 10,
	"NOVIEMBRE": 11, "NOVEMBER": 11, "NOV": 11,
	"DICIEMBRE": 12, "DECEMBER": 12, "DIC": 12, "DEC": 12,
}

// MonthPeriod maps a Spanish or English month name or abbreviation to
// "YYYY-MM-01" in year.
func MonthPeriod(name string, year int) (string, bool) {
	m, ok := monthNames[strings.TrimSuffix(Fold(name), ".")]
	if !ok || year <= 0 {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-01", year, m), true
}

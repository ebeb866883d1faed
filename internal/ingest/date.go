package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const isoDate = "2006-01-02"

var (
	isoPrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	// Spreadsheet serial day 0.
	serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
)

// Serial dates beyond 9999-12-31 are rejected.
const maxSerial = 2958465

// ParseDate normalises a date cell to "YYYY-MM-DD". It accepts ISO dates
// (with or without a time part), spreadsheet serial numbers and
// slash-delimited dates. For slash dates a first part above 12 means
// day/month, a second part above 12 means month/day, and anything else
// follows loc.DateOrder.
func ParseDate(raw string, loc Locale) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", eris.New("ingest: empty date")
	}

	if isoPrefix.MatchString(s) {
		d, err := time.Parse(isoDate, s[:10])
		if err != nil {
			return "", eris.Wrapf(err, "ingest: invalid date %q", raw)
		}
		return d.Format(isoDate), nil
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f < 1 || f > maxSerial {
			return "", eris.Errorf("ingest: serial date %q out of range", raw)
		}
		return serialEpoch.AddDate(0, 0, int(f)).Format(isoDate), nil
	}

	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return "", eris.Errorf("ingest: unrecognised date %q", raw)
	}
	n := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return "", eris.Wrapf(err, "ingest: invalid date %q", raw)
		}
		n[i] = v
	}

	first, second, year := n[0], n[1], n[2]
	if year < 100 {
		year = expandYear(year, loc.YearPivot)
	}

	var day, month int
	switch {
	case first > 12:
		day, month = first, second
	case second > 12:
		month, day = first, second
	case loc.DateOrder == OrderDMY:
		day, month = first, second
	default:
		month, day = first, second
	}

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if month < 1 || month > 12 || d.Day() != day || year < 1900 {
		return "", eris.Errorf("ingest: invalid date %q", raw)
	}
	return d.Format(isoDate), nil
}

func expandYear(yy, pivot int) int {
	if yy < pivot {
		return 2000 + yy
	}
	return 1900 + yy
}

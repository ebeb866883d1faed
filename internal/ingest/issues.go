package ingest

import "fmt"

// Issue records a source row that was skipped. Row is 1-based and counts the
// header, matching what a spreadsheet shows.
type Issue struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (i Issue) String() string {
	return fmt.Sprintf("row %d: %s", i.Row, i.Reason)
}

// sheetRow converts a data-row index to its spreadsheet row number.
func sheetRow(i int) int {
	return i + 2
}

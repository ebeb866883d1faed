package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Table is a header row plus data rows read from one sheet or CSV file.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadTable loads the first sheet of an .xlsx file or a whole .csv file.
// Leading blank rows are skipped; the first non-blank row is the header.
func ReadTable(ctx context.Context, path string) (Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err := readXLSX(path)
		if err != nil {
			return Table{}, err
		}
		return newTable(rows), nil
	case ".csv", ".txt":
		f, err := os.Open(path)
		if err != nil {
			return Table{}, eris.Wrap(err, "ingest: open csv")
		}
		defer f.Close() //nolint:errcheck

		var rows [][]string
		rowCh, errCh := StreamCSV(ctx, f, CSVOptions{LazyQuotes: true, TrimSpace: true})
		for row := range rowCh {
			rows = append(rows, row)
		}
		if err := <-errCh; err != nil {
			return Table{}, err
		}
		return newTable(rows), nil
	default:
		return Table{}, eris.Errorf("ingest: unsupported file type %q", filepath.Ext(path))
	}
}

func newTable(rows [][]string) Table {
	for len(rows) > 0 && blank(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return Table{}
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	return Table{Header: header, Rows: rows[1:]}
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Column returns the index of the first header equal to one of names,
// ignoring case, accents, spaces and underscores, or -1.
func (t Table) Column(names ...string) int {
	for _, n := range names {
		want := headerKey(n)
		for i, h := range t.Header {
			if headerKey(h) == want {
				return i
			}
		}
	}
	return -1
}

// ColumnContaining returns the index of the first header that contains one
// of fragments, ignoring case and accents, or -1.
func (t Table) ColumnContaining(fragments ...string) int {
	for i, h := range t.Header {
		folded := Fold(h)
		for _, f := range fragments {
			if strings.Contains(folded, Fold(f)) {
				return i
			}
		}
	}
	return -1
}

func headerKey(s string) string {
	s = Fold(s)
	return strings.NewReplacer(" ", "", "_", "", "-", "", "%", "").Replace(s)
}

// cell returns row[i] trimmed, or "" when the column is absent.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter  rune // default ','
	Comment    rune // comment character (0 = none)
	LazyQuotes bool
	TrimSpace  bool
}

// StreamCSV reads CSV rows and sends them to a channel. Errors are sent on
// the error channel. Both channels are closed when processing completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		if opts.Comment != 0 {
			reader.Comment = opts.Comment
		}
		reader.LazyQuotes = opts.LazyQuotes
		reader.FieldsPerRecord = -1

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			if opts.TrimSpace {
				for i, field := range record {
					record[i] = strings.TrimSpace(field)
				}
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// readXLSX returns the raw cell values of the first sheet. Raw values keep
// numbers and serial dates unformatted.
func readXLSX(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		if row == nil {
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = c.Value
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

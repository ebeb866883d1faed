package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, v := range rowData {
			row.AddCell().SetString(v)
		}
	}
	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadTable_CSV(t *testing.T) {
	t.Parallel()
	path := writeCSV(t, "\n name , amount\nAlpha,\"1,200.50\"\nBeta,300\n")

	tbl, err := ReadTable(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "amount"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"Alpha", "1,200.50"}, tbl.Rows[0])
}

func TestReadTable_XLSX(t *testing.T) {
	t.Parallel()
	path := writeXLSX(t, [][]string{
		{"Mes", "AOP"},
		{"ENERO", "65"},
		{"FEBRERO", "72"},
	})

	tbl, err := ReadTable(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mes", "AOP"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"FEBRERO", "72"}, tbl.Rows[1])
}

func TestReadTable_Errors(t *testing.T) {
	t.Parallel()
	_, err := ReadTable(context.Background(), filepath.Join(t.TempDir(), "data.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")

	_, err = ReadTable(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)

	_, err = ReadTable(context.Background(), filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
}

func TestReadTable_Empty(t *testing.T) {
	t.Parallel()
	tbl, err := ReadTable(context.Background(), writeCSV(t, ""))
	require.NoError(t, err)
	assert.Empty(t, tbl.Header)
	assert.Empty(t, tbl.Rows)
}

func TestStreamCSV_Options(t *testing.T) {
	t.Parallel()
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader("# note\na ; b\nc;d\n"), CSVOptions{
		Delimiter: ';',
		Comment:   '#',
		TrimSpace: true,
	})
	var rows [][]string
	for r := range rowCh {
		rows = append(rows, r)
	}
	require.NoError(t, <-errCh)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, rows)
}

func TestStreamCSV_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rowCh, errCh := StreamCSV(ctx, strings.NewReader("a,b\n"), CSVOptions{})
	for range rowCh {
	}
	err := <-errCh
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")
}

func TestTable_Columns(t *testing.T) {
	t.Parallel()
	tbl := Table{Header: []string{"Opportunity Name", "Total_Amount", "País", "Revenue - Reporting Currency Amt"}}

	assert.Equal(t, 0, tbl.Column("opportunity_name"))
	assert.Equal(t, 1, tbl.Column("amount", "total amount"))
	assert.Equal(t, 2, tbl.Column("pais"))
	assert.Equal(t, -1, tbl.Column("stage"))
	assert.Equal(t, 3, tbl.ColumnContaining("revenue"))
	assert.Equal(t, -1, tbl.ColumnContaining("fecha"))
}

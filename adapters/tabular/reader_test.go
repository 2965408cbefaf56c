package tabular

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"churndash/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestFileType(t *testing.T) {
	assert.Equal(t, "csv", FileType("data/cleaned_merged.csv"))
	assert.Equal(t, "xlsx", FileType("data/Churn.XLSX"))
	assert.Equal(t, "csv", FileType("data/no_extension"))
}

func TestReadCSV(t *testing.T) {
	input := strings.Join([]string{
		"customerID, gender ,Churn",
		"0001,Male,Yes",
		"0002,Female",
		"",
		"0003,Female,No,extra",
	}, "\n")

	table, err := ReadCSV(context.Background(), strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"customerID", "gender", "Churn"}, table.Headers)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, []string{"0002", "Female"}, table.Rows[1])
	assert.Equal(t, []string{"0003", "Female", "No", "extra"}, table.Rows[2])
	assert.Empty(t, table.Warnings)
}

func TestReadCSVSkipsMalformedRecords(t *testing.T) {
	input := "customerID,gender\n0001,Male\n00\"02,Female\n0003,Female\n"

	table, err := ReadCSV(context.Background(), strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, table.Rows, 2)
	assert.Equal(t, "0003", table.Rows[1][0])
	require.Len(t, table.Warnings, 1)
	assert.Contains(t, table.Warnings[0], "line 3")
}

func TestReadCSVWithoutHeader(t *testing.T) {
	_, err := ReadCSV(context.Background(), strings.NewReader(""))
	assert.Error(t, err)
}

func TestReadCSVHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadCSV(ctx, strings.NewReader("a,b\n1,2\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileSourceMissingFile(t *testing.T) {
	src := NewFileSource(internal.NewNopLogger())

	_, err := src.Read(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestFileSourceReadsCSVAndXLSXAlike(t *testing.T) {
	dir := t.TempDir()
	rows := [][]interface{}{
		{"customerID", "gender", "tenure", "Churn"},
		{"0001", "Male", "12", "Yes"},
		{"0002", "Female", "3", "No"},
	}

	csvPath := filepath.Join(dir, "churn.csv")
	var b strings.Builder
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = c.(string)
		}
		b.WriteString(strings.Join(cells, ",") + "\n")
	}
	require.NoError(t, os.WriteFile(csvPath, []byte(b.String()), 0o644))

	xlsxPath := filepath.Join(dir, "churn.xlsx")
	f := excelize.NewFile()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	require.NoError(t, f.SaveAs(xlsxPath))
	require.NoError(t, f.Close())

	src := NewFileSource(internal.NewNopLogger())
	fromCSV, err := src.Read(context.Background(), csvPath)
	require.NoError(t, err)
	fromXLSX, err := src.Read(context.Background(), xlsxPath)
	require.NoError(t, err)

	assert.Equal(t, fromCSV.Headers, fromXLSX.Headers)
	assert.Equal(t, fromCSV.Rows, fromXLSX.Rows)
	assert.Equal(t, xlsxPath, fromXLSX.Source)
}

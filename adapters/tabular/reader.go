package tabular

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"churndash/internal"
	"churndash/ports"

	"github.com/xuri/excelize/v2"
)

// maxWarnings caps how many skipped-row notes a single read reports
const maxWarnings = 20

// FileSource reads CSV and XLSX files from disk
type FileSource struct {
	logger *internal.Logger
	// Sheet selects the XLSX sheet; empty means the first sheet
	Sheet string
}

var _ ports.TableSource = (*FileSource)(nil)

// NewFileSource creates a file-backed table source
func NewFileSource(logger *internal.Logger) *FileSource {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &FileSource{logger: logger.Named("tabular")}
}

// FileType reports "csv" or "xlsx" based on the file extension
func FileType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return "xlsx"
	default:
		return "csv"
	}
}

// Read reads the whole file into a RawTable
func (s *FileSource) Read(ctx context.Context, path string) (*ports.RawTable, error) {
	fileType := FileType(path)
	s.logger.Debug("reading %s file: %s", fileType, path)

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%s file not accessible: %w", strings.ToUpper(fileType), err)
	}

	start := time.Now()
	var (
		table *ports.RawTable
		err   error
	)
	switch fileType {
	case "xlsx":
		table, err = s.readExcel(ctx, path)
	default:
		table, err = s.readCSV(ctx, path)
	}
	if err != nil {
		return nil, err
	}
	table.Source = path

	s.logger.Info("%s file read in %.2fms (%d columns, %d rows)",
		strings.ToUpper(fileType), float64(time.Since(start).Microseconds())/1000, len(table.Headers), len(table.Rows))
	return table, nil
}

func (s *FileSource) readCSV(ctx context.Context, path string) (*ports.RawTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	return ReadCSV(ctx, file)
}

// ReadCSV reads comma-delimited data with a header row. Ragged rows are
// kept as-is; records that fail to parse are skipped and noted in Warnings.
func ReadCSV(ctx context.Context, r io.Reader) (*ports.RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("CSV file has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	table := &ports.RawTable{Headers: trimAll(headers)}
	skipped := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if stderrors.As(err, &parseErr) {
				skipped++
				if len(table.Warnings) < maxWarnings {
					table.Warnings = append(table.Warnings, fmt.Sprintf("skipped malformed CSV record at line %d: %v", parseErr.Line, parseErr.Err))
				}
				continue
			}
			return nil, fmt.Errorf("failed to read CSV file: %w", err)
		}
		if isBlank(row) {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	if skipped > maxWarnings {
		table.Warnings = append(table.Warnings, fmt.Sprintf("%d further malformed records skipped", skipped-maxWarnings))
	}
	return table, nil
}

func (s *FileSource) readExcel(ctx context.Context, path string) (*ports.RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := s.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("Excel file has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s has no header row", sheet)
	}

	table := &ports.RawTable{Headers: trimAll(rows[0])}
	for _, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if isBlank(row) {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

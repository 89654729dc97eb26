package files

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// utf8BOM is stripped from the first cell of delimited files.
const utf8BOM = "\ufeff"

// ErrUnsupportedFormat is returned for files that are neither delimited text nor a
// spreadsheet.
var ErrUnsupportedFormat = errors.New("unsupported table format")

// TableFormat identifies how a tabular file is encoded.
type TableFormat string

const (
	FormatCSV  TableFormat = "csv"
	FormatXLSX TableFormat = "xlsx"
)

// DetectFormat infers the table format from a file extension.
func DetectFormat(path string) (TableFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt", ".tsv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
}

// ReadTable loads every row of a CSV or XLSX file as text. The first row is the
// header; XLSX files are read from their first sheet.
func ReadTable(path string) ([][]string, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table: %w", err)
	}
	defer f.Close()

	slog.Debug("Reading table",
		slog.String("path", path),
		slog.String("format", string(format)))

	if format == FormatXLSX {
		return ReadXLSX(f)
	}
	return ReadCSV(f, delimiterFor(path))
}

// ReadCSV reads delimited text. Ragged rows are accepted; a leading UTF-8 BOM is
// dropped.
func ReadCSV(r io.Reader, delimiter rune) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if delimiter != 0 {
		reader.Comma = delimiter
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], utf8BOM)
	}
	return rows, nil
}

// ReadXLSX reads the first sheet of a workbook.
func ReadXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// ReadTableFrom reads an in-memory upload whose format is taken from its file name.
func ReadTableFrom(name string, r io.Reader) ([][]string, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}
	if format == FormatXLSX {
		return ReadXLSX(r)
	}
	return ReadCSV(r, delimiterFor(name))
}

func delimiterFor(path string) rune {
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return '\t'
	}
	return ','
}

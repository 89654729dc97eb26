package exporter

import (
	"errors"
	"fmt"
	"io"

	"uncertcli/internal/config"
	"uncertcli/pkg/contracts/domain"
)

// ErrUnsupportedFormat is returned for export formats other than CSV and Excel.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Exporter dispatches a result table to the writer for its format
type Exporter struct {
	csv   *CSVWriter
	excel *ExcelWriter
}

// New creates an exporter writing relative paths under paths' reports directory.
// A nil paths leaves relative paths relative to the working directory.
func New(paths *config.Paths) *Exporter {
	return &Exporter{
		csv:   NewCSVWriter(paths),
		excel: NewExcelWriter(paths),
	}
}

// Export writes table to path and returns the path actually written.
func (e *Exporter) Export(table *domain.ResultTable, path string, format domain.ExportFormat) (string, error) {
	switch format {
	case domain.ExportCSV:
		return e.csv.WriteTable(path, table)
	case domain.ExportExcel:
		return e.excel.WriteTable(path, table)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Encode streams table in the given format.
func Encode(out io.Writer, table *domain.ResultTable, format domain.ExportFormat) error {
	switch format {
	case domain.ExportCSV:
		return EncodeTable(out, table)
	case domain.ExportExcel:
		return EncodeWorkbook(out, table)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Extension returns the file extension, dot included, for format.
func Extension(format domain.ExportFormat) (string, error) {
	switch format {
	case domain.ExportCSV:
		return ".csv", nil
	case domain.ExportExcel:
		return ".xlsx", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ContentType returns the MIME type served for format.
func ContentType(format domain.ExportFormat) string {
	if format == domain.ExportExcel {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// ParseFormat maps a user-supplied name onto an export format. "xlsx" is accepted
// as an alias for excel.
func ParseFormat(name string) (domain.ExportFormat, error) {
	switch name {
	case "csv", "CSV":
		return domain.ExportCSV, nil
	case "excel", "xlsx", "Excel", "XLSX":
		return domain.ExportExcel, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

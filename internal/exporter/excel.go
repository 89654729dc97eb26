package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"uncertcli/internal/config"
	"uncertcli/pkg/contracts/domain"
)

// SheetName is the worksheet holding exported results.
const SheetName = "Uncertainty"

// ExcelWriter writes result tables as XLSX workbooks
type ExcelWriter struct {
	paths *config.Paths
}

// NewExcelWriter creates a new workbook writer
func NewExcelWriter(paths *config.Paths) *ExcelWriter {
	return &ExcelWriter{paths: paths}
}

// WriteTable saves the table to filePath. Number cells stay numeric in the sheet.
func (w *ExcelWriter) WriteTable(filePath string, table *domain.ResultTable) (string, error) {
	fullPath := filePath
	if !filepath.IsAbs(filePath) && w.paths != nil {
		fullPath = w.paths.GetReportPath(filePath)
	}

	slog.Info("Writing XLSX file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(table.Rows)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	book, err := buildWorkbook(table)
	if err != nil {
		return "", err
	}
	defer book.Close()

	if err := book.SaveAs(fullPath); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return fullPath, nil
}

// EncodeWorkbook streams the table as an XLSX workbook.
func EncodeWorkbook(out io.Writer, table *domain.ResultTable) error {
	book, err := buildWorkbook(table)
	if err != nil {
		return err
	}
	defer book.Close()

	if _, err := book.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func buildWorkbook(table *domain.ResultTable) (*excelize.File, error) {
	book := excelize.NewFile()
	if err := book.SetSheetName(book.GetSheetName(0), SheetName); err != nil {
		book.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col
	}
	if err := book.SetSheetRow(SheetName, "A1", &header); err != nil {
		book.Close()
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}

	if style, err := book.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil && len(table.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(table.Columns), 1)
		_ = book.SetCellStyle(SheetName, "A1", last, style)
	}

	for r, row := range table.Rows {
		values := make([]interface{}, len(table.Columns))
		for i, col := range table.Columns {
			if c, ok := row.Get(col); ok {
				values[i] = cellValue(c)
			}
		}
		anchor, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			book.Close()
			return nil, err
		}
		if err := book.SetSheetRow(SheetName, anchor, &values); err != nil {
			book.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", r+1, err)
		}
	}
	return book, nil
}

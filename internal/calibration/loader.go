package calibration

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"uncertcli/internal/files"
	"uncertcli/internal/infrastructure"
	"uncertcli/pkg/contracts/domain"
)

// rowValidator checks the validate tags of domain.CalibrationRow and reports
// fields by their csv column header.
var rowValidator = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("csv")
	})
	return v
}()

// Load reads a calibration table from a CSV or XLSX file.
func Load(path string, logger *slog.Logger) (*Table, error) {
	rows, err := files.ReadTable(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calibration table %s: %w", path, err)
	}
	return parse(rows, withPath(logger, path))
}

// LoadFrom reads a calibration table from r; name selects the format by extension.
func LoadFrom(name string, r io.Reader, logger *slog.Logger) (*Table, error) {
	rows, err := files.ReadTableFrom(name, r)
	if err != nil {
		return nil, fmt.Errorf("failed to read calibration table %s: %w", name, err)
	}
	return parse(rows, withPath(logger, name))
}

// parse maps raw rows onto calibration rows. Columns are positional; a header of the
// wrong width is only warned about. Blank rows are skipped. A row with a blank
// measurement type, a negative percentage or a non-positive range is rejected.
func parse(rows [][]string, logger *slog.Logger) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("calibration table is empty")
	}

	header := rows[0]
	if len(header) != len(domain.CalibrationColumns) {
		logger.Warn("calibration table has unexpected column count, reading columns by position",
			slog.Int("columns", len(header)),
			slog.Int("expected", len(domain.CalibrationColumns)),
			slog.Any("header", header))
	}

	var out []domain.CalibrationRow
	for i, record := range rows[1:] {
		line := i + 2
		if blank(record) {
			continue
		}
		if len(record) < len(domain.CalibrationColumns) {
			return nil, fmt.Errorf("calibration row %d: expected %d columns, got %d",
				line, len(domain.CalibrationColumns), len(record))
		}

		row := domain.CalibrationRow{MeasurementType: strings.TrimSpace(record[0])}
		fields := []*float64{&row.ReadingErrorPct, &row.RangeErrorPct, &row.Range}
		for j, dst := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[j+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("calibration row %d, column %q: %w",
					line, domain.CalibrationColumns[j+1], err)
			}
			*dst = v
		}
		if err := rowValidator.Struct(row); err != nil {
			return nil, rowError(line, err)
		}
		out = append(out, row)
	}

	logger.Info("calibration table loaded", slog.Int("rows", len(out)))
	return NewTable(out), nil
}

// rowError names the first rejected column of a calibration row.
func rowError(line int, err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("calibration row %d: %w", line, err)
	}
	fe := fieldErrs[0]
	var msg string
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("calibration row %d, column %q: must not be blank", line, fe.Field())
	case "min":
		msg = "must not be negative"
	case "gt":
		msg = "must be greater than " + fe.Param()
	default:
		msg = fmt.Sprintf("failed %s validation", fe.Tag())
	}
	return fmt.Errorf("calibration row %d, column %q: %v %s", line, fe.Field(), fe.Value(), msg)
}

func withPath(logger *slog.Logger, path string) *slog.Logger {
	return infrastructure.WithComponent(logger, "calibration").With(slog.String("path", path))
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

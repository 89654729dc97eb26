package dataprocessing

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"uncertcli/internal/files"
)

var (
	// ErrEmptyTable is returned when a trial table has no header or no data rows.
	ErrEmptyTable = errors.New("trial table is empty")

	// ErrNoMeasurements is returned when no column holds numeric readings.
	ErrNoMeasurements = errors.New("trial table has no numeric measurement columns")
)

// missingTokens are cell values read as a missing reading (compared lower-case).
var missingTokens = map[string]bool{
	"":     true,
	"nan":  true,
	"na":   true,
	"n/a":  true,
	"null": true,
}

// Column is a numeric measurement column. Missing readings are NaN.
type Column struct {
	Label  string
	Values []float64
}

// Samples returns the non-missing readings at the given row indices.
func (c Column) Samples(rows []int) []float64 {
	samples := make([]float64, 0, len(rows))
	for _, i := range rows {
		if v := c.Values[i]; !math.IsNaN(v) {
			samples = append(samples, v)
		}
	}
	return samples
}

// TrialTable is a parsed table of repeated trials. GroupKeys holds the raw grouping
// column, NaN where a cell was left blank for forward-fill.
type TrialTable struct {
	GroupLabel  string
	GroupKeys   []float64
	Columns     []Column
	SinglePoint bool
}

// Len returns the number of data rows.
func (t *TrialTable) Len() int {
	return len(t.GroupKeys)
}

// DataColumn is the column whose missing cells drop a row before grouping.
func (t *TrialTable) DataColumn() *Column {
	if len(t.Columns) == 0 {
		return nil
	}
	return &t.Columns[0]
}

// ParseTrialFile reads a CSV or XLSX trial table.
func ParseTrialFile(path string, opts ProcessingOptions) (*TrialTable, error) {
	rows, err := files.ReadTable(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trial table: %w", err)
	}

	table, err := ParseTrialRows(rows, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// ParseTrialReader reads an uploaded trial table; name selects the format.
func ParseTrialReader(name string, r io.Reader, opts ProcessingOptions) (*TrialTable, error) {
	rows, err := files.ReadTableFrom(name, r)
	if err != nil {
		return nil, fmt.Errorf("failed to read trial table: %w", err)
	}
	return ParseTrialRows(rows, opts)
}

// ParseTrialRows builds a trial table from text rows, header first.
//
// The leading column is the grouping column when the table has more than
// SinglePointMaxRows data rows or when its header matches opts.GroupColumn.
// Otherwise every row belongs to one synthesized group keyed 0.
// Measurement columns are the remaining labelled columns whose values are all
// numeric or missing.
func ParseTrialRows(rows [][]string, opts ProcessingOptions) (*TrialTable, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}

	groupLabel := opts.GroupColumn
	if groupLabel == "" {
		groupLabel = DefaultGroupColumn
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	var data [][]string
	for _, row := range rows[1:] {
		if !blankRow(row) {
			data = append(data, row)
		}
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrEmptyTable)
	}

	table := &TrialTable{GroupLabel: groupLabel}
	first := 0
	if hasGroupColumn(header, data, groupLabel) {
		if len(header) > 0 && header[0] != "" {
			table.GroupLabel = header[0]
		}
		keys, err := parseGroupKeys(data)
		if err != nil {
			return nil, err
		}
		table.GroupKeys = keys
		first = 1
	} else {
		table.SinglePoint = true
		table.GroupKeys = make([]float64, len(data))
		slog.Debug("No grouping column, treating trials as a single group",
			slog.Int("rows", len(data)),
			slog.String("group_column", groupLabel))
	}

	for c := first; c < len(header); c++ {
		label := header[c]
		if label == "" {
			slog.Debug("Skipping unlabelled column", slog.Int("column_index", c))
			continue
		}
		values, ok := numericColumn(data, c)
		if !ok {
			slog.Debug("Skipping non-numeric column", slog.String("column", label))
			continue
		}
		table.Columns = append(table.Columns, Column{Label: label, Values: values})
	}

	if len(table.Columns) == 0 {
		return nil, ErrNoMeasurements
	}

	slog.Debug("Trial table parsed",
		slog.Int("rows", table.Len()),
		slog.Int("measurement_columns", len(table.Columns)),
		slog.Bool("single_point", table.SinglePoint))

	return table, nil
}

// hasGroupColumn decides whether the leading column holds group keys. Short
// tables only have one when it is named like the configured group column;
// otherwise a blank first cell is a missing reading, not a continued group.
func hasGroupColumn(header []string, data [][]string, label string) bool {
	if len(data) > SinglePointMaxRows {
		return true
	}
	return len(header) > 0 && strings.EqualFold(header[0], label)
}

func parseGroupKeys(data [][]string) ([]float64, error) {
	keys := make([]float64, len(data))
	for i, row := range data {
		v, ok, err := parseReading(cell(row, 0))
		if err != nil {
			return nil, fmt.Errorf("data row %d: group key is not numeric: %w", i+1, err)
		}
		if !ok {
			v = math.NaN()
		}
		keys[i] = v
	}
	return keys, nil
}

func numericColumn(data [][]string, c int) ([]float64, bool) {
	values := make([]float64, len(data))
	for i, row := range data {
		v, ok, err := parseReading(cell(row, c))
		if err != nil {
			return nil, false
		}
		if !ok {
			v = math.NaN()
		}
		values[i] = v
	}
	return values, true
}

// parseReading returns ok=false for a missing cell.
func parseReading(s string) (float64, bool, error) {
	if isMissing(s) {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func isMissing(s string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(s))]
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

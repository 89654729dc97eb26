package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// InsufficientData marks a column that had fewer than 3 readings in a group.
const InsufficientData = "Insufficient data"

// CellKind tells how a result cell is rendered.
type CellKind string

const (
	CellEmpty  CellKind = "empty"
	CellText   CellKind = "text"
	CellNumber CellKind = "number"
)

// Cell is a single value of a result table: formatted text or a raw number.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// TextCell wraps a formatted string.
func TextCell(s string) Cell {
	return Cell{Kind: CellText, Text: s}
}

// NumberCell wraps a raw number.
func NumberCell(v float64) Cell {
	return Cell{Kind: CellNumber, Number: v}
}

// String renders the cell the way it is written to delimited text.
// Numbers use the shortest representation that round-trips.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// MarshalJSON renders text as a JSON string, numbers as JSON numbers and empty
// cells as null.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellText:
		return json.Marshal(c.Text)
	case CellNumber:
		return json.Marshal(c.Number)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts the forms written by MarshalJSON.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*c = Cell{}
	case string:
		*c = TextCell(t)
	case float64:
		*c = NumberCell(t)
	default:
		return fmt.Errorf("cell must be a string, number or null, got %s", data)
	}
	return nil
}

// ResultRow is the uncertainty summary of one trial group. Labels keeps the order in
// which columns were set.
type ResultRow struct {
	GroupKey   float64         `json:"group_key"`
	Labels     []string        `json:"labels"`
	Cells      map[string]Cell `json:"cells"`
	Unresolved []string        `json:"unresolved,omitempty"`
}

// NewResultRow creates an empty row for a group.
func NewResultRow(groupKey float64) ResultRow {
	return ResultRow{
		GroupKey: groupKey,
		Cells:    make(map[string]Cell),
	}
}

// Set stores a cell, appending the label on first use.
func (r *ResultRow) Set(label string, c Cell) {
	if r.Cells == nil {
		r.Cells = make(map[string]Cell)
	}
	if _, exists := r.Cells[label]; !exists {
		r.Labels = append(r.Labels, label)
	}
	r.Cells[label] = c
}

// Get returns the cell stored under label.
func (r ResultRow) Get(label string) (Cell, bool) {
	c, ok := r.Cells[label]
	return c, ok
}

// MarkUnresolved records a column whose reading had no calibration range.
func (r *ResultRow) MarkUnresolved(label string) {
	r.Unresolved = append(r.Unresolved, label)
}

// ResultTable is the output of an uncertainty run. Columns is the union of row
// labels in first-seen order.
type ResultTable struct {
	Columns []string    `json:"columns"`
	Rows    []ResultRow `json:"rows"`

	// SkippedGroups lists the keys of groups that did not have exactly 3 trials.
	SkippedGroups []float64 `json:"skipped_groups,omitempty"`
}

// NewResultTable builds a table and its column order from rows.
func NewResultTable(rows []ResultRow) *ResultTable {
	seen := make(map[string]bool)
	var columns []string
	for _, row := range rows {
		for _, label := range row.Labels {
			if !seen[label] {
				seen[label] = true
				columns = append(columns, label)
			}
		}
	}
	return &ResultTable{Columns: columns, Rows: rows}
}

// Records renders every row as strings aligned to Columns. Missing cells are empty.
func (t *ResultTable) Records() [][]string {
	records := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		record := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			if c, ok := row.Get(col); ok {
				record[i] = c.String()
			}
		}
		records = append(records, record)
	}
	return records
}

// UnresolvedCount is the number of cells computed without a calibration range.
func (t *ResultTable) UnresolvedCount() int {
	n := 0
	for _, row := range t.Rows {
		n += len(row.Unresolved)
	}
	return n
}

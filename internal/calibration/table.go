package calibration

import (
	"uncertcli/pkg/contracts/domain"
)

// Table is an immutable, ordered calibration table. It is safe for concurrent reads.
type Table struct {
	rows []domain.CalibrationRow
}

// NewTable copies rows into a table, keeping their order.
func NewTable(rows []domain.CalibrationRow) *Table {
	cp := make([]domain.CalibrationRow, len(rows))
	copy(cp, rows)
	return &Table{rows: cp}
}

// Rows returns a copy of the table rows.
func (t *Table) Rows() []domain.CalibrationRow {
	if t == nil {
		return nil
	}
	cp := make([]domain.CalibrationRow, len(t.rows))
	copy(cp, t.rows)
	return cp
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

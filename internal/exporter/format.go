package exporter

import (
	"uncertcli/pkg/contracts/domain"
)

// cellValue converts a result cell into what excelize stores: float64 for numbers,
// string for text and nil for empty cells.
func cellValue(c domain.Cell) interface{} {
	switch c.Kind {
	case domain.CellNumber:
		return c.Number
	case domain.CellText:
		return c.Text
	default:
		return nil
	}
}

package calibration

import (
	"log/slog"
	"strings"

	"uncertcli/internal/infrastructure"
	"uncertcli/pkg/contracts/domain"
)

// Resolution is the calibration row chosen for a reading. When Resolved is false
// every numeric field is zero and the systematic error collapses to zero.
type Resolution struct {
	domain.CalibrationRow
	Resolved bool
}

// ResolveRange finds the row whose MeasurementType contains unit and whose Range is
// the smallest value not below reading. Ties keep the first row in table order.
func ResolveRange(reading float64, unit string, table *Table) Resolution {
	var best Resolution
	if table == nil {
		return best
	}

	for _, row := range table.rows {
		if !strings.Contains(row.MeasurementType, unit) {
			continue
		}
		if row.Range < reading {
			continue
		}
		if !best.Resolved || row.Range < best.Range {
			best = Resolution{CalibrationRow: row, Resolved: true}
		}
	}
	return best
}

// SystematicError combines the percentage-of-reading and percentage-of-range terms.
func SystematicError(reading, readingPct, rangePct, rng float64) float64 {
	return readingPct/100*reading + rangePct/100*rng
}

// SystematicErrorForReading resolves the range for reading and returns its
// systematic error in the same (base) unit.
func SystematicErrorForReading(reading float64, unit string, table *Table) (float64, Resolution) {
	res := ResolveRange(reading, unit, table)
	return SystematicError(reading, res.ReadingErrorPct, res.RangeErrorPct, res.Range), res
}

// Resolver binds a table to a logger.
type Resolver struct {
	table  *Table
	logger *slog.Logger
}

// NewResolver creates a resolver over table. A nil logger uses the global logger.
func NewResolver(table *Table, logger *slog.Logger) *Resolver {
	return &Resolver{
		table:  table,
		logger: infrastructure.WithComponent(logger, "calibration"),
	}
}

// Table returns the underlying table.
func (r *Resolver) Table() *Table {
	return r.table
}

// SystematicError resolves reading against the table and logs the chosen range.
func (r *Resolver) SystematicError(reading float64, unit string) (float64, Resolution) {
	sys, res := SystematicErrorForReading(reading, unit, r.table)
	if res.Resolved {
		r.logger.Debug("using calibration range",
			slog.String("measurement_type", res.MeasurementType),
			slog.Float64("range", res.Range),
			slog.Float64("reading", reading),
			slog.String("unit", unit),
			slog.Float64("systematic_error", sys))
	} else {
		r.logger.Debug("no calibration range covers reading",
			slog.Float64("reading", reading),
			slog.String("unit", unit))
	}
	return sys, res
}

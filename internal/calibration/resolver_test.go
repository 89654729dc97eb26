package calibration

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uncertcli/pkg/contracts/domain"
)

func multimeterTable() *Table {
	return NewTable([]domain.CalibrationRow{
		{MeasurementType: "DC Voltage (V)", ReadingErrorPct: 0.05, RangeErrorPct: 0.01, Range: 100},
		{MeasurementType: "DC Voltage (V)", ReadingErrorPct: 0.04, RangeErrorPct: 0.01, Range: 1},
		{MeasurementType: "DC Voltage (V)", ReadingErrorPct: 0.035, RangeErrorPct: 0.005, Range: 10},
		{MeasurementType: "Resistance (Ω)", ReadingErrorPct: 0.1, RangeErrorPct: 0.02, Range: 1000},
		{MeasurementType: "DC Current (A)", ReadingErrorPct: 0.2, RangeErrorPct: 0.05, Range: 0.1},
	})
}

func TestResolveRange(t *testing.T) {
	table := multimeterTable()

	tests := []struct {
		name      string
		reading   float64
		unit      string
		wantRange float64
		wantType  string
		resolved  bool
	}{
		{name: "smallest covering range", reading: 5, unit: "V", wantRange: 10, wantType: "DC Voltage (V)", resolved: true},
		{name: "reading equal to range", reading: 1, unit: "V", wantRange: 1, wantType: "DC Voltage (V)", resolved: true},
		{name: "below smallest range", reading: 0.2, unit: "V", wantRange: 1, wantType: "DC Voltage (V)", resolved: true},
		{name: "non-ascii unit", reading: 470, unit: "Ω", wantRange: 1000, wantType: "Resistance (Ω)", resolved: true},
		{name: "reading above every range", reading: 500, unit: "V", resolved: false},
		{name: "unit not in table", reading: 1, unit: "F", resolved: false},
		{name: "unit matching is case-sensitive", reading: 0.05, unit: "a", resolved: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ResolveRange(tt.reading, tt.unit, table)
			assert.Equal(t, tt.resolved, res.Resolved)
			assert.Equal(t, tt.wantRange, res.Range)
			assert.Equal(t, tt.wantType, res.MeasurementType)
			if !tt.resolved {
				assert.Zero(t, res.ReadingErrorPct)
				assert.Zero(t, res.RangeErrorPct)
			}
		})
	}
}

func TestResolveRange_TiesKeepFirstRow(t *testing.T) {
	table := NewTable([]domain.CalibrationRow{
		{MeasurementType: "AC Voltage (V)", ReadingErrorPct: 0.5, Range: 10},
		{MeasurementType: "DC Voltage (V)", ReadingErrorPct: 0.05, Range: 10},
	})

	res := ResolveRange(3, "V", table)
	require.True(t, res.Resolved)
	assert.Equal(t, "AC Voltage (V)", res.MeasurementType)
}

func TestResolveRange_NilTable(t *testing.T) {
	res := ResolveRange(1, "V", nil)
	assert.False(t, res.Resolved)
}

func TestSystematicError(t *testing.T) {
	assert.InDelta(t, 0.003, SystematicError(5, 0.05, 0.005, 10), 1e-12)
	assert.InDelta(t, 0.0, SystematicError(5, 0, 0, 0), 0)
}

func TestSystematicErrorForReading(t *testing.T) {
	sys, res := SystematicErrorForReading(5, "V", multimeterTable())
	require.True(t, res.Resolved)
	// 0.035% of 5 plus 0.005% of 10
	assert.InDelta(t, 0.00175+0.0005, sys, 1e-12)

	sys, res = SystematicErrorForReading(5, "Hz", multimeterTable())
	assert.False(t, res.Resolved)
	assert.Zero(t, sys)
}

func TestResolver_LogsChosenRange(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r := NewResolver(multimeterTable(), logger)
	assert.Equal(t, 5, r.Table().Len())

	_, res := r.SystematicError(5, "V")
	require.True(t, res.Resolved)
	assert.Contains(t, buf.String(), "using calibration range")
	assert.Contains(t, buf.String(), `"range":10`)
	assert.Contains(t, buf.String(), `"component":"calibration"`)

	buf.Reset()
	_, res = r.SystematicError(5, "Hz")
	assert.False(t, res.Resolved)
	assert.Contains(t, buf.String(), "no calibration range covers reading")
}

func TestTable_RowsIsACopy(t *testing.T) {
	table := multimeterTable()
	rows := table.Rows()
	rows[0].Range = -1

	assert.Equal(t, 100.0, table.Rows()[0].Range)

	var empty *Table
	assert.Zero(t, empty.Len())
	assert.Nil(t, empty.Rows())
}

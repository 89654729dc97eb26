package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"uncertcli/internal/calibration"
	"uncertcli/internal/infrastructure"
	"uncertcli/internal/shared/testutil"
	"uncertcli/pkg/contracts/domain"
)

func benchMeterTable() *calibration.Table {
	return calibration.NewTable([]domain.CalibrationRow{
		{MeasurementType: "DC Voltage (V)", ReadingErrorPct: 0.035, RangeErrorPct: 0.005, Range: 1},
		{MeasurementType: "DC Voltage (V)", ReadingErrorPct: 0.035, RangeErrorPct: 0.005, Range: 10},
		{MeasurementType: "DC Current (A)", ReadingErrorPct: 0.2, RangeErrorPct: 0.05, Range: 0.1},
		{MeasurementType: "Resistance (Ω)", ReadingErrorPct: 0.1, RangeErrorPct: 0.02, Range: 10000},
	})
}

func newTestAggregator(format domain.FormatOptions, workers int) *Aggregator {
	opts := DefaultOptions()
	opts.Format = format
	opts.Workers = workers
	return NewAggregator(calibration.NewResolver(benchMeterTable(), nil), opts, nil)
}

func aggregateCSV(t *testing.T, agg *Aggregator, csv string) *domain.ResultTable {
	t.Helper()
	table, err := ParseTrialRows(rowsOf(t, csv), agg.Options())
	require.NoError(t, err)

	result, err := agg.Aggregate(context.Background(), table)
	require.NoError(t, err)
	return result
}

func text(t *testing.T, row domain.ResultRow, label string) string {
	t.Helper()
	c, ok := row.Get(label)
	require.True(t, ok, "missing column %q", label)
	return c.String()
}

const voltageTrials = "N,V(V)\n1,1.001\n,1.002\n,1.000\n2,2.001\n,2.002\n,2.000\n"

func TestAggregate_EndToEnd(t *testing.T) {
	result := aggregateCSV(t, newTestAggregator(domain.DefaultFormatOptions(), 1), voltageTrials)

	require.Len(t, result.Rows, 2)
	assert.Equal(t, []string{"N", "V (V)", "V Err (V)"}, result.Columns)
	assert.Equal(t, [][]string{
		{"1", "1.0010", "0.0010"},
		{"2", "2.0010", "0.0013"},
	}, result.Records())
	assert.Empty(t, result.SkippedGroups)
	assert.Zero(t, result.UnresolvedCount())
}

func TestAggregate_FormatModes(t *testing.T) {
	tests := []struct {
		name    string
		format  domain.FormatOptions
		columns []string
		check   func(t *testing.T, row domain.ResultRow)
	}{
		{
			name:    "combined with units",
			format:  domain.FormatOptions{IncludeUnits: true, FormatResults: true},
			columns: []string{"N", "V(V)"},
			check: func(t *testing.T, row domain.ResultRow) {
				assert.Equal(t, "1.0010 ± 0.0010 V", text(t, row, "V(V)"))
			},
		},
		{
			name:    "combined without units",
			format:  domain.FormatOptions{FormatResults: true},
			columns: []string{"N", "V(V)"},
			check: func(t *testing.T, row domain.ResultRow) {
				assert.Equal(t, "1.0010 ± 0.0010", text(t, row, "V(V)"))
			},
		},
		{
			name:    "separate strings without units",
			format:  domain.FormatOptions{FormatValues: true},
			columns: []string{"N", "V", "V Err"},
			check: func(t *testing.T, row domain.ResultRow) {
				assert.Equal(t, "1.0010", text(t, row, "V"))
				assert.Equal(t, "0.0010", text(t, row, "V Err"))
			},
		},
		{
			name:    "separate raw numbers",
			format:  domain.FormatOptions{IncludeUnits: true},
			columns: []string{"N", "V (V)", "V Err (V)"},
			check: func(t *testing.T, row domain.ResultRow) {
				value, _ := row.Get("V (V)")
				errCell, _ := row.Get("V Err (V)")
				assert.Equal(t, domain.CellNumber, value.Kind)
				assert.InDelta(t, 1.001, value.Number, 1e-9)
				assert.InDelta(t, 0.001028, errCell.Number, 1e-6)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := aggregateCSV(t, newTestAggregator(tt.format, 1), voltageTrials)
			require.Len(t, result.Rows, 2)
			assert.Equal(t, tt.columns, result.Columns)
			tt.check(t, result.Rows[0])
		})
	}
}

func TestAggregate_SeparateLabelsKeepUnitsOnCollision(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	opts := DefaultOptions()
	opts.Format = domain.FormatOptions{FormatValues: true}
	agg := NewAggregator(calibration.NewResolver(benchMeterTable(), nil), opts, logger)

	csv := "N,V(mV),V(V),I(A)\n1,1001,1.001,0.050\n,1002,1.002,0.051\n,1000,1.000,0.052\n"
	result := aggregateCSV(t, agg, csv)

	require.Len(t, result.Rows, 1)
	assert.Equal(t, []string{"N", "V (mV)", "V Err (mV)", "V (V)", "V Err (V)", "I", "I Err"}, result.Columns)
	assert.Equal(t, "1.0010", text(t, result.Rows[0], "V (V)"))
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "Result column label collides without units")
	testutil.AssertLogAttr(t, handler, "column", "V(mV)")
	testutil.AssertLogAttr(t, handler, "column", "V(V)")
}

func TestAggregate_InsufficientData(t *testing.T) {
	csv := "N,V(V),I(A)\n1,1.001,0.050\n,1.002,\n,1.000,0.052\n"
	result := aggregateCSV(t, newTestAggregator(domain.DefaultFormatOptions(), 1), csv)

	require.Len(t, result.Rows, 1)
	row := result.Rows[0]
	assert.Equal(t, domain.InsufficientData, text(t, row, "I(A)"))
	assert.Equal(t, "1.0010", text(t, row, "V (V)"))
}

func TestAggregate_SinglePoint(t *testing.T) {
	csv := "R(kΩ)\n4.70\n4.71\n4.69\n"
	result := aggregateCSV(t, newTestAggregator(domain.DefaultFormatOptions(), 1), csv)

	require.Len(t, result.Rows, 1)
	assert.Equal(t, []string{"N", "R (kΩ)", "R Err (kΩ)"}, result.Columns)
	assert.Equal(t, [][]string{{"0", "4.700", "0.009"}}, result.Records())
}

func TestAggregate_SinglePointWithBlankReading(t *testing.T) {
	csv := "V(V),I(A)\n1.001,0.050\n,0.051\n1.002,0.052\n1.000,0.050\n"
	result := aggregateCSV(t, newTestAggregator(domain.DefaultFormatOptions(), 1), csv)

	require.Len(t, result.Rows, 1, "the row without a voltage is dropped, leaving three trials")
	assert.Equal(t, 0.0, result.Rows[0].GroupKey)
	assert.Empty(t, result.SkippedGroups)
	assert.Equal(t, "1.0010", text(t, result.Rows[0], "V (V)"))
	assert.Equal(t, []string{"N", "V (V)", "V Err (V)", "I (A)", "I Err (A)"}, result.Columns)
}

func TestAggregate_SkipsGroupsWithoutThreeTrials(t *testing.T) {
	csv := "N,V(V)\n1,1.0\n,1.1\n2,2.001\n,2.002\n,2.000\n3,3.0\n,3.0\n,3.1\n,3.2\n"
	result := aggregateCSV(t, newTestAggregator(domain.DefaultFormatOptions(), 1), csv)

	require.Len(t, result.Rows, 1)
	assert.Equal(t, 2.0, result.Rows[0].GroupKey)
	assert.Equal(t, []float64{1, 3}, result.SkippedGroups)
}

func TestAggregate_DropsRowsMissingDataColumn(t *testing.T) {
	csv := "N,V(V)\n1,1.001\n,\n,1.002\n,1.000\n2,2.0\n"
	result := aggregateCSV(t, newTestAggregator(domain.DefaultFormatOptions(), 1), csv)

	require.Len(t, result.Rows, 1)
	assert.Equal(t, "1.0010", text(t, result.Rows[0], "V (V)"))
	assert.Equal(t, []float64{2}, result.SkippedGroups)
}

func TestAggregate_UnresolvedRange(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	opts := DefaultOptions()
	opts.Format = domain.FormatOptions{FormatResults: true, IncludeUnits: true}
	agg := NewAggregator(calibration.NewResolver(benchMeterTable(), nil), opts, logger)

	csv := "N,f(kHz),V(V)\n1,10.0,20.0\n,10.1,20.1\n,9.9,19.9\n"
	result := aggregateCSV(t, agg, csv)

	require.Len(t, result.Rows, 1)
	row := result.Rows[0]
	assert.Equal(t, []string{"f(kHz)", "V(V)"}, row.Unresolved, "20 V is above every voltage range")
	assert.Equal(t, 2, result.UnresolvedCount())
	// random error only: 0.1 / sqrt(3)
	assert.Equal(t, "10.00 ± 0.06 kHz", text(t, row, "f(kHz)"))
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "No calibration range covers reading")
	testutil.AssertLogAttr(t, handler, "component", "aggregator")
}

func TestAggregate_ParallelMatchesSequential(t *testing.T) {
	var b strings.Builder
	b.WriteString("N,V(V),I(mA)\n")
	for g := 1; g <= 12; g++ {
		for i := 0; i < 3; i++ {
			key := ""
			if i == 0 {
				key = fmt.Sprint(g)
			}
			fmt.Fprintf(&b, "%s,%.3f,%.2f\n", key, float64(g)*0.5+float64(i)*0.001, 10+float64(i)*0.1)
		}
	}
	b.WriteString("13,1.0\n")

	format := domain.FormatOptions{IncludeUnits: true, FormatResults: true}
	sequential := aggregateCSV(t, newTestAggregator(format, 1), b.String())
	parallel := aggregateCSV(t, newTestAggregator(format, 4), b.String())

	require.Len(t, sequential.Rows, 12)
	assert.Equal(t, sequential, parallel)
	assert.Equal(t, []float64{13}, parallel.SkippedGroups)
}

func TestAggregate_CancelledContext(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			agg := newTestAggregator(domain.DefaultFormatOptions(), workers)
			table, err := ParseTrialRows(rowsOf(t, voltageTrials), agg.Options())
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err = agg.Aggregate(ctx, table)
			assert.ErrorIs(t, err, context.Canceled)
		})
	}
}

func TestAggregate_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	metrics, err := infrastructure.CreateBusinessMetrics(provider.Meter("test"))
	require.NoError(t, err)

	agg := newTestAggregator(domain.DefaultFormatOptions(), 1).WithMetrics(metrics)
	csv := "N,V(V),I(A)\n1,1.001,0.05\n,1.002,\n,1.000,0.05\n2,2.0\n,2.1\n"
	aggregateCSV(t, agg, csv)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[m.Name] += dp.Value
				}
			}
		}
	}

	assert.Equal(t, int64(1), totals["uncertainty_groups_processed_total"])
	assert.Equal(t, int64(1), totals["uncertainty_groups_skipped_total"])
	assert.Equal(t, int64(1), totals["uncertainty_insufficient_columns_total"])
}

func TestMeasure(t *testing.T) {
	agg := newTestAggregator(domain.DefaultFormatOptions(), 1)

	m, err := agg.Measure("Voltage (mV)", []float64{500, 501, 499})
	require.NoError(t, err)

	assert.Equal(t, "Voltage", m.Name)
	assert.Equal(t, "mV", m.Unit)
	assert.InDelta(t, 500, m.BestValue, 1e-9)
	require.True(t, m.Calibration.Resolved)
	assert.Equal(t, 1.0, m.Calibration.Range)
	// (0.035% of 0.5 V + 0.005% of 1 V) expressed in mV
	assert.InDelta(t, 0.225, m.SystematicError, 1e-9)
	assert.GreaterOrEqual(t, m.TotalError, m.SystematicError)
	assert.GreaterOrEqual(t, m.TotalError, m.RandomError)

	_, err = agg.Measure("V(V)", []float64{1})
	assert.Error(t, err)
}

func TestSeparateLabels(t *testing.T) {
	tests := []struct {
		name, unit   string
		includeUnits bool
		value, err   string
	}{
		{"Voltage", "V", true, "Voltage (V)", "Voltage Err (V)"},
		{"Voltage", "V", false, "Voltage", "Voltage Err"},
		{"Count", "", true, "Count", "Count Err"},
	}

	for _, tt := range tests {
		value, errLabel := SeparateLabels(tt.name, tt.unit, tt.includeUnits)
		assert.Equal(t, tt.value, value)
		assert.Equal(t, tt.err, errLabel)
	}
}

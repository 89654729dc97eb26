package services

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"uncertcli/internal/calibration"
	"uncertcli/internal/dataprocessing"
	apperrors "uncertcli/internal/errors"
	"uncertcli/internal/exporter"
	"uncertcli/internal/infrastructure"
	"uncertcli/internal/shared/testutil"
	"uncertcli/pkg/contracts/domain"
)

func newTestService(t *testing.T) *UncertaintyService {
	t.Helper()
	table, err := calibration.Load(testutil.WriteCalibration(t, t.TempDir()), nil)
	require.NoError(t, err)
	return NewUncertaintyService(calibration.NewResolver(table, nil), nil, nil)
}

func TestAnalyze(t *testing.T) {
	svc := newTestService(t)

	table, err := svc.Analyze(context.Background(), "upload.csv",
		strings.NewReader(testutil.ResistorTrialsCSV), dataprocessing.DefaultOptions())
	require.NoError(t, err)

	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"N", "R (kΩ)", "R Err (kΩ)", "V (V)", "V Err (V)"}, table.Columns)
	assert.Equal(t, []string{"1", "4.700", "0.009", "1.0010", "0.0010"}, table.Records()[0])
}

func TestAnalyze_Errors(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Analyze(context.Background(), "upload.csv", strings.NewReader(""), dataprocessing.DefaultOptions())
	assert.Equal(t, apperrors.ErrTypeParsing, apperrors.TypeOf(err))
	assert.ErrorIs(t, err, dataprocessing.ErrEmptyTable)

	_, err = svc.Analyze(context.Background(), "upload.json", strings.NewReader("{}"), dataprocessing.DefaultOptions())
	assert.Equal(t, apperrors.ErrTypeParsing, apperrors.TypeOf(err))

	noCal := NewUncertaintyService(nil, nil, nil)
	_, err = noCal.Analyze(context.Background(), "upload.csv", strings.NewReader(testutil.ResistorTrialsCSV), dataprocessing.DefaultOptions())
	assert.Equal(t, apperrors.ErrTypeCalibration, apperrors.TypeOf(err))
	assert.ErrorIs(t, err, ErrNoCalibration)
}

func TestRun_SingleFile(t *testing.T) {
	svc := newTestService(t)
	dataDir := t.TempDir()
	input := testutil.WriteFile(t, dataDir, "resistor_data.csv", testutil.ResistorTrialsCSV)

	results, err := svc.Run(context.Background(), RunRequest{
		DataPath: input,
		Format:   domain.ExportCSV,
		Options:  dataprocessing.DefaultOptions(),
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, filepath.Join(dataDir, "resistor_data_errors.csv"), results[0].Output)
	content, err := os.ReadFile(results[0].Output)
	require.NoError(t, err)
	assert.Contains(t, string(content), "R Err (kΩ)")
}

func TestRun_LogsShareTraceID(t *testing.T) {
	table, err := calibration.Load(testutil.WriteCalibration(t, t.TempDir()), nil)
	require.NoError(t, err)
	captured, handler := testutil.NewTestLogger(t)
	logger := slog.New(infrastructure.NewTraceHandler(captured.Handler()))
	svc := NewUncertaintyService(calibration.NewResolver(table, nil), nil, logger)

	input := testutil.WriteFile(t, t.TempDir(), "resistor_data.csv", testutil.ResistorTrialsCSV)
	_, err = svc.Run(context.Background(), RunRequest{
		DataPath: input,
		Format:   domain.ExportCSV,
		Options:  dataprocessing.DefaultOptions(),
	})
	require.NoError(t, err)

	started, ok := handler.Find("Starting uncertainty run")
	require.True(t, ok)
	traceID, ok := started.Attr("trace_id")
	require.True(t, ok)
	assert.Len(t, traceID, 36)

	exported, ok := handler.Find("Results exported")
	require.True(t, ok)
	exportedID, _ := exported.Attr("trace_id")
	assert.Equal(t, traceID, exportedID)
}

func TestRun_Directory(t *testing.T) {
	svc := newTestService(t)
	dataDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "reports")
	testutil.WriteFile(t, dataDir, "b_bench.csv", testutil.ResistorTrialsCSV)
	testutil.WriteFile(t, dataDir, "a_bench.csv", testutil.ResistorTrialsCSV)
	testutil.WriteFile(t, dataDir, "a_bench_errors.csv", "stale")

	results, err := svc.Run(context.Background(), RunRequest{
		DataPath: dataDir,
		OutDir:   outDir,
		Format:   domain.ExportExcel,
		Options:  dataprocessing.DefaultOptions(),
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, filepath.Join(outDir, "a_bench_errors.xlsx"), results[0].Output)
	assert.Equal(t, filepath.Join(outDir, "b_bench_errors.xlsx"), results[1].Output)
	assert.FileExists(t, results[1].Output)
}

func TestRun_Errors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Run(ctx, RunRequest{Format: domain.ExportCSV})
	assert.Equal(t, apperrors.ErrTypeValidation, apperrors.TypeOf(err))

	input := testutil.WriteFile(t, t.TempDir(), "trials.csv", testutil.ResistorTrialsCSV)
	_, err = svc.Run(ctx, RunRequest{DataPath: input, Format: "pdf"})
	assert.ErrorIs(t, err, exporter.ErrUnsupportedFormat)

	_, err = svc.Run(ctx, RunRequest{DataPath: t.TempDir(), Format: domain.ExportCSV})
	assert.ErrorIs(t, err, ErrNoTrialFiles)

	_, err = svc.Run(ctx, RunRequest{DataPath: filepath.Join(t.TempDir(), "missing.csv"), Format: domain.ExportCSV})
	assert.Equal(t, apperrors.ErrTypeNotFound, apperrors.TypeOf(err))
}

func TestRun_CancelledBetweenFiles(t *testing.T) {
	svc := newTestService(t)
	dataDir := t.TempDir()
	testutil.WriteFile(t, dataDir, "a.csv", testutil.ResistorTrialsCSV)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Run(ctx, RunRequest{DataPath: dataDir, Format: domain.ExportCSV, Options: dataprocessing.DefaultOptions()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_RecordsRunMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	metrics, err := infrastructure.CreateBusinessMetrics(provider.Meter("test"))
	require.NoError(t, err)

	svc := newTestService(t).WithMetrics(metrics)
	input := testutil.WriteFile(t, t.TempDir(), "trials.csv", testutil.ResistorTrialsCSV)
	_, err = svc.Run(context.Background(), RunRequest{DataPath: input, Format: domain.ExportCSV, Options: dataprocessing.DefaultOptions()})
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var runs, groups int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				switch m.Name {
				case "uncertainty_runs_total":
					runs += dp.Value
				case "uncertainty_groups_processed_total":
					groups += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), runs)
	assert.Equal(t, int64(2), groups)
}

package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uncertcli/internal/calibration"
	"uncertcli/internal/config"
	"uncertcli/internal/dataprocessing"
	"uncertcli/internal/exporter"
	"uncertcli/internal/files"
	"uncertcli/internal/services"
	"uncertcli/internal/shared/testutil"
	"uncertcli/pkg/contracts/domain"
)

// writeConfig lays out an installation: a YAML config, a data directory with
// the calibration table and a bench of trial files.
func writeConfig(t *testing.T) (*config.Config, string) {
	t.Helper()
	base := t.TempDir()

	testutil.WriteCalibration(t, filepath.Join(base, "lab"))
	bench := filepath.Join(base, "bench")
	testutil.WriteFile(t, bench, "resistors.csv", testutil.ResistorTrialsCSV)
	testutil.WriteFile(t, bench, "mixed.csv", "N,V(V),f(kHz)\n1,1.001,10\n,1.002,10\n,1.000,10\n2,2.0\n")

	cfgPath := testutil.WriteFile(t, base, "uncert.yaml", `
paths:
  executable_dir: `+base+`
  data_dir: lab
  reports_dir: lab/reports
analysis:
  format_results: true
  workers: 2
`)

	cfg, err := config.LoadFile(cfgPath)
	require.NoError(t, err)
	return cfg, bench
}

func TestPipeline_ConfigToExport(t *testing.T) {
	cfg, bench := writeConfig(t)
	paths := cfg.ResolvedPaths()
	require.NoError(t, paths.EnsureDirectories())

	table, err := calibration.Load(cfg.CalibrationPath(), nil)
	require.NoError(t, err)
	assert.Equal(t, 7, table.Len())

	opts := dataprocessing.DefaultOptions()
	opts.Workers = cfg.Analysis.Workers
	opts.Format.FormatResults = cfg.Analysis.FormatResults

	svc := services.NewUncertaintyService(calibration.NewResolver(table, nil), exporter.New(paths), nil)
	results, err := svc.Run(context.Background(), services.RunRequest{
		DataPath: bench,
		OutDir:   paths.ReportsDir,
		Format:   domain.ExportCSV,
		Options:  opts,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Exports land in the reports directory and read back through the same
	// table reader used for input.
	mixed, err := files.ReadTable(filepath.Join(paths.ReportsDir, "mixed_errors.csv"))
	require.NoError(t, err)
	assert.Equal(t, []string{"N", "V(V)", "f(kHz)"}, mixed[0])
	assert.Equal(t, "1.0010 ± 0.0010 V", mixed[1][1])
	assert.Len(t, mixed, 2, "the two-row group is skipped")
	assert.Equal(t, []float64{2}, results[0].Table.SkippedGroups)
	assert.Equal(t, 1, results[0].Table.UnresolvedCount())

	resistors, err := files.ReadTable(filepath.Join(paths.ReportsDir, "resistors_errors.csv"))
	require.NoError(t, err)
	assert.Equal(t, "4.700 ± 0.009 kΩ", resistors[1][1])
}

func TestPipeline_RerunSkipsOwnExports(t *testing.T) {
	cfg, bench := writeConfig(t)

	table, err := calibration.Load(cfg.CalibrationPath(), nil)
	require.NoError(t, err)
	svc := services.NewUncertaintyService(calibration.NewResolver(table, nil), nil, nil)

	req := services.RunRequest{DataPath: bench, Format: domain.ExportCSV, Options: dataprocessing.DefaultOptions()}
	first, err := svc.Run(context.Background(), req)
	require.NoError(t, err)

	second, err := svc.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, second, len(first))

	entries, err := os.ReadDir(bench)
	require.NoError(t, err)
	assert.Len(t, entries, 4, "two inputs and two exports, nothing derived from exports")
}

func TestPipeline_EnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("UNCERT_ANALYSIS_GROUP_COLUMN", "Trial")
	t.Setenv("UNCERT_ANALYSIS_EXPORT_FORMAT", "excel")

	cfg, err := config.LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, "Trial", cfg.Analysis.GroupColumn)

	format, err := exporter.ParseFormat(cfg.Analysis.ExportFormat)
	require.NoError(t, err)
	assert.Equal(t, domain.ExportExcel, format)
}

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"uncertcli/internal/shared/testutil"
)

func TestRun_SingleFile(t *testing.T) {
	dir := t.TempDir()
	calibrationPath := testutil.WriteCalibration(t, dir)
	input := testutil.WriteFile(t, dir, "resistor_data.csv", testutil.ResistorTrialsCSV)
	metricsPath := filepath.Join(dir, "uncertainty.prom")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-data", input,
		"-calibration", calibrationPath,
		"-metrics-file", metricsPath,
	}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	output := filepath.Join(dir, "resistor_data_errors.csv")
	assert.Contains(t, stdout.String(), output)
	assert.Contains(t, stdout.String(), "(2 groups, 0 skipped)")

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(content), "N,R (kΩ),R Err (kΩ),V (V),V Err (V)")

	metrics, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "uncertainty_runs_total")
}

func TestRun_DirectoryToExcel(t *testing.T) {
	dir := t.TempDir()
	calibrationPath := testutil.WriteCalibration(t, t.TempDir())
	testutil.WriteFile(t, dir, "a.csv", testutil.ResistorTrialsCSV)
	testutil.WriteFile(t, dir, "b.csv", testutil.ResistorTrialsCSV)
	out := filepath.Join(t.TempDir(), "reports")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-data", dir,
		"-calibration", calibrationPath,
		"-out", out,
		"-format", "excel",
		"-format-results",
		"-include-units=false",
		"-workers", "2",
	}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	for _, name := range []string{"a_errors.xlsx", "b_errors.xlsx"} {
		book, err := excelize.OpenFile(filepath.Join(out, name))
		require.NoError(t, err)
		rows, err := book.GetRows(book.GetSheetName(0))
		require.NoError(t, err)
		assert.Equal(t, []string{"N", "R(kΩ)", "V(V)"}, rows[0])
		assert.Equal(t, "4.700 ± 0.009", rows[1][1])
		require.NoError(t, book.Close())
	}
}

func TestRun_Failures(t *testing.T) {
	dir := t.TempDir()
	calibrationPath := testutil.WriteCalibration(t, dir)
	input := testutil.WriteFile(t, dir, "trials.csv", testutil.ResistorTrialsCSV)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "missing data", args: []string{"-calibration", calibrationPath}, want: exitUsage},
		{name: "unknown flag", args: []string{"-data", input, "-nope"}, want: exitUsage},
		{name: "bad format", args: []string{"-data", input, "-calibration", calibrationPath, "-format", "pdf"}, want: exitUsage},
		{name: "bad workers", args: []string{"-data", input, "-calibration", calibrationPath, "-workers", "0"}, want: exitUsage},
		{name: "stray argument", args: []string{"-data", input, "extra"}, want: exitUsage},
		{name: "missing calibration", args: []string{"-data", input, "-calibration", filepath.Join(dir, "none.csv")}, want: exitFailure},
		{name: "missing data path", args: []string{"-data", filepath.Join(dir, "none.csv"), "-calibration", calibrationPath}, want: exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tt.want, run(context.Background(), tt.args, &stdout, &stderr))
			assert.NotEmpty(t, stderr.String())
		})
	}
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitOK, run(context.Background(), []string{"-version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "result format v2")
}

func TestRun_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	calibrationPath := testutil.WriteCalibration(t, dir)
	input := testutil.WriteFile(t, dir, "trials.csv", testutil.ResistorTrialsCSV)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitFailure, run(ctx, []string{"-data", input, "-calibration", calibrationPath}, &stdout, &stderr))
	assert.NoFileExists(t, filepath.Join(dir, "trials_errors.csv"))
}

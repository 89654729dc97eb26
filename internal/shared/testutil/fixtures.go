package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// CalibrationCSV is a small bench-meter calibration table
const CalibrationCSV = `Measurement Type,Reading Error (%),Range Error (%),Range
DC Voltage (V),0.035,0.005,1
DC Voltage (V),0.035,0.005,10
DC Voltage (V),0.045,0.006,100
DC Current (A),0.2,0.05,0.1
DC Current (A),0.2,0.05,1
Resistance (Ω),0.1,0.02,1000
Resistance (Ω),0.1,0.02,10000
`

// ResistorTrialsCSV holds two groups of three resistance trials
const ResistorTrialsCSV = `N,R(kΩ),V(V)
1,4.70,1.001
,4.71,1.002
,4.69,1.000
2,9.81,2.001
,9.80,2.002
,9.82,2.000
`

// WriteFile writes content to name under dir and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteCalibration writes CalibrationCSV into dir.
func WriteCalibration(t *testing.T, dir string) string {
	t.Helper()
	return WriteFile(t, dir, "measurement_error.csv", CalibrationCSV)
}

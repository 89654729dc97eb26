// Package shared holds helpers used across the uncertainty packages that do not
// belong to any one layer.
//
// The testutil subpackage provides:
//
//   - a buffered slog handler with assertion helpers
//   - calibration and trial table fixtures written into t.TempDir()
//
// Example usage:
//
//	func TestLoad(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    path := testutil.WriteCalibration(t, t.TempDir())
//	    ...
//	}
package shared

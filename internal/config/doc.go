// Package config loads application configuration from defaults, UNCERT_*
// environment variables and an optional YAML file.
//
// # Configuration Sources
//
// Sources are applied in this order, later ones winning:
//
//	1. Default values (struct tags)
//	2. Environment variables
//	3. A YAML file: $UNCERT_CONFIG_FILE, ./uncert.yaml or ./configs/uncert.yaml
//
// Command-line flags of the uncertainty CLI override all three.
//
// # Environment Variables
//
// Variables are prefixed with UNCERT and follow the struct nesting:
//
//	UNCERT_SERVER_PORT=8080
//	UNCERT_LOGGING_LEVEL=debug
//	UNCERT_ANALYSIS_CALIBRATION_FILE=/lab/measurement_error.csv
//	UNCERT_ANALYSIS_WORKERS=4
//
// # Path Management
//
// Relative directories resolve against the executable location:
//
//	paths := cfg.ResolvedPaths()
//	reportPath := paths.GetReportPath("resistor_data_errors.csv")
//
// # Validation
//
// Loaded configuration is checked with go-playground/validator struct tags.
package config

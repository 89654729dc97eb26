package config

import "time"

// Application constants
const (
	// Application Info
	AppName = "uncert"

	// EnvPrefix namespaces every environment variable, e.g. UNCERT_SERVER_PORT.
	EnvPrefix = "UNCERT"

	// ConfigFileEnv names an explicit YAML config file.
	ConfigFileEnv = "UNCERT_CONFIG_FILE"

	// File Paths (relative to executable)
	DefaultDataDir         = "data"
	DefaultReportsDir      = "data/reports"
	DefaultLogsDir         = "logs"
	DefaultCalibrationFile = "measurement_error.csv"

	// Analysis
	DefaultGroupColumn  = "N"
	DefaultExportFormat = "csv"
	MaxWorkers          = 64

	// Network Timeouts
	DefaultHTTPTimeout    = 30 * time.Second
	DefaultRequestTimeout = 60 * time.Second

	// Uploads
	DefaultMaxUploadBytes = 32 << 20

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogFile   = "logs/uncert.log"

	// API Endpoints (internal)
	APIBasePath         = "/api/v1"
	UncertaintyEndpoint = "/api/v1/uncertainty"
	HealthEndpoint      = "/api/health"
	VersionEndpoint     = "/api/version"
	MetricsEndpoint     = "/metrics"
)

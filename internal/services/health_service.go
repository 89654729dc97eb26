package services

import (
	"context"
	"log/slog"
	"time"

	"uncertcli/internal/calibration"
	"uncertcli/pkg/contracts"
	api "uncertcli/pkg/contracts/api/v1"
)

// Health states
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// HealthService reports liveness and the loaded calibration table
type HealthService struct {
	calibrationSource string
	table             *calibration.Table
	startTime         time.Time
	logger            *slog.Logger
}

// VersionResponse extends the build information with process uptime
type VersionResponse struct {
	contracts.VersionInfo
	UptimeSeconds float64 `json:"uptime_seconds"`
	StartTime     string  `json:"start_time"`
}

// NewHealthService creates a health service. A nil or empty table reports degraded.
func NewHealthService(calibrationSource string, table *calibration.Table, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		calibrationSource: calibrationSource,
		table:             table,
		startTime:         time.Now(),
		logger:            logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) api.HealthResponse {
	status := StatusOK
	if hs.table.Len() == 0 {
		status = StatusDegraded
	}

	hs.logger.DebugContext(ctx, "Health check",
		slog.String("status", status),
		slog.Int("calibration_rows", hs.table.Len()))

	return api.HealthResponse{
		Status:  status,
		Version: contracts.Version,
		Calibration: api.CalibrationHealth{
			Source: hs.calibrationSource,
			Rows:   hs.table.Len(),
		},
		Timestamp: time.Now().UTC(),
	}
}

// Version returns version information
func (hs *HealthService) Version() VersionResponse {
	return VersionResponse{
		VersionInfo:   contracts.GetVersionInfo(),
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		StartTime:     hs.startTime.UTC().Format(time.RFC3339),
	}
}

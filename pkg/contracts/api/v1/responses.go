package api

import (
	"time"

	"uncertcli/pkg/contracts/domain"
)

// UncertaintyResponse is the JSON body returned for an uncertainty run
type UncertaintyResponse struct {
	ID            string               `json:"id"`
	Source        string               `json:"source"`
	Columns       []string             `json:"columns"`
	Rows          []UncertaintyRow     `json:"rows"`
	SkippedGroups []float64            `json:"skipped_groups,omitempty"`
	Unresolved    int                  `json:"unresolved"`
	Options       domain.FormatOptions `json:"options"`
	DurationMS    int64                `json:"duration_ms"`
	CompletedAt   time.Time            `json:"completed_at"`
}

// UncertaintyRow is one result row keyed by column label
type UncertaintyRow struct {
	Group      float64                `json:"group"`
	Values     map[string]domain.Cell `json:"values"`
	Unresolved []string               `json:"unresolved,omitempty"`
}

// NewUncertaintyRows flattens result rows for JSON output
func NewUncertaintyRows(rows []domain.ResultRow) []UncertaintyRow {
	out := make([]UncertaintyRow, 0, len(rows))
	for _, r := range rows {
		values := make(map[string]domain.Cell, len(r.Labels))
		for _, label := range r.Labels {
			values[label] = r.Cells[label]
		}
		out = append(out, UncertaintyRow{
			Group:      r.GroupKey,
			Values:     values,
			Unresolved: r.Unresolved,
		})
	}
	return out
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status      string            `json:"status"`
	Version     string            `json:"version"`
	Calibration CalibrationHealth `json:"calibration"`
	Timestamp   time.Time         `json:"timestamp"`
}

// CalibrationHealth reports the loaded calibration table
type CalibrationHealth struct {
	Source string `json:"source"`
	Rows   int    `json:"rows"`
}

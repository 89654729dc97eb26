// Package api contains the HTTP contract of the uncertainty service.
// Version v1 represents the current stable API version.
package api

import (
	"uncertcli/pkg/contracts/domain"
)

// Export selectors accepted by the uncertainty endpoint
const (
	ExportJSON  = "json"
	ExportCSV   = "csv"
	ExportExcel = "excel"
)

// UncertaintyRequest carries the query options of POST /api/v1/uncertainty.
// The trial table itself is the multipart "trials" part.
type UncertaintyRequest struct {
	GroupColumn   string `json:"group_column" form:"group_column" validate:"omitempty,max=64"`
	IncludeUnits  *bool  `json:"include_units" form:"include_units"`
	FormatResults *bool  `json:"format_results" form:"format_results"`
	FormatValues  *bool  `json:"format_values" form:"format_values"`
	Workers       int    `json:"workers" form:"workers" validate:"omitempty,min=1,max=64"`
	Export        string `json:"export" form:"export" validate:"omitempty,oneof=json csv excel"`
}

// FormatOptions overlays the request's explicit choices on base.
func (r UncertaintyRequest) FormatOptions(base domain.FormatOptions) domain.FormatOptions {
	if r.IncludeUnits != nil {
		base.IncludeUnits = *r.IncludeUnits
	}
	if r.FormatResults != nil {
		base.FormatResults = *r.FormatResults
	}
	if r.FormatValues != nil {
		base.FormatValues = *r.FormatValues
	}
	return base
}

// ExportFormat maps the export selector onto a file format. JSON responses
// return ok=false.
func (r UncertaintyRequest) ExportFormat() (domain.ExportFormat, bool) {
	switch r.Export {
	case ExportCSV:
		return domain.ExportCSV, true
	case ExportExcel:
		return domain.ExportExcel, true
	default:
		return "", false
	}
}

package domain

// ExportFormat is a supported result sink.
type ExportFormat string

const (
	ExportCSV   ExportFormat = "csv"
	ExportExcel ExportFormat = "excel"
)

// FormatOptions controls how each measurement column is rendered into a result row.
type FormatOptions struct {
	// IncludeUnits appends the unit symbol to combined strings and column labels.
	IncludeUnits bool `json:"include_units" yaml:"include_units"`

	// FormatResults emits one "value ± error" column instead of separate
	// value and error columns.
	FormatResults bool `json:"format_results" yaml:"format_results"`

	// FormatValues renders separate value/error columns as matched-precision
	// strings rather than raw numbers. Ignored when FormatResults is set.
	FormatValues bool `json:"format_values" yaml:"format_values"`
}

// DefaultFormatOptions mirrors the usual lab export: separate, formatted columns
// with units in the headers.
func DefaultFormatOptions() FormatOptions {
	return FormatOptions{
		IncludeUnits:  true,
		FormatResults: false,
		FormatValues:  true,
	}
}

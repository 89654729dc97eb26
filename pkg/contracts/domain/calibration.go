package domain

// CalibrationColumns are the positional headers of a calibration table.
var CalibrationColumns = []string{"Measurement Type", "%Reading Err", "%Range Err", "Range"}

// CalibrationRow is one instrument range of a calibration table.
//
// MeasurementType is matched against a base unit by case-sensitive substring
// containment, so a type such as "DC Voltage (V)" serves readings in "V".
// Range is the full-scale magnitude of the setting, in base units.
type CalibrationRow struct {
	MeasurementType string  `json:"measurement_type" csv:"Measurement Type" validate:"required"`
	ReadingErrorPct float64 `json:"reading_error_pct" csv:"%Reading Err" validate:"min=0"`
	RangeErrorPct   float64 `json:"range_error_pct" csv:"%Range Err" validate:"min=0"`
	Range           float64 `json:"range" csv:"Range" validate:"gt=0"`
}

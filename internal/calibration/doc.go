// Package calibration resolves instrument systematic error from a calibration table.
//
// A calibration table lists, per instrument setting, a measurement type, a
// percentage-of-reading error, a percentage-of-range error and the full-scale range.
// For a reading in a base unit the resolver picks the smallest range that still
// covers the reading among rows whose type mentions the unit, then computes
//
//	systematic = reading% / 100 * reading + range% / 100 * range
//
// A reading with no covering range yields a zero sentinel with Resolved set to false.
package calibration

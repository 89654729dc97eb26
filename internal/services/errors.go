package services

import "errors"

// Uncertainty service errors
var (
	ErrNoTrialFiles    = errors.New("no trial files found")
	ErrNoCalibration   = errors.New("calibration table not loaded")
	ErrMissingDataPath = errors.New("data path is required")
)

package dataprocessing

import (
	"uncertcli/pkg/contracts/domain"
)

const (
	// TrialsPerGroup is the only group size that produces a result row.
	TrialsPerGroup = 3

	// SinglePointMaxRows is the largest table that may be treated as one
	// ungrouped set of trials.
	SinglePointMaxRows = 4

	// DefaultGroupColumn labels the grouping column, synthesized or not.
	DefaultGroupColumn = "N"
)

// ProcessingOptions configures parsing and aggregation of a trial table.
type ProcessingOptions struct {
	// GroupColumn is the expected label of the leading grouping column. It is also
	// used as the label of a synthesized column in single-point mode.
	GroupColumn string

	// Workers bounds per-group parallelism. Values below 2 run sequentially.
	Workers int

	// Format controls how each measurement is rendered.
	Format domain.FormatOptions
}

// DefaultOptions returns default processing options
func DefaultOptions() ProcessingOptions {
	return ProcessingOptions{
		GroupColumn: DefaultGroupColumn,
		Workers:     1,
		Format:      domain.DefaultFormatOptions(),
	}
}

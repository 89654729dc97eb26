// Package dataprocessing turns trial tables into uncertainty result tables.
// It covers parsing, grouping and aggregation, from a CSV or XLSX upload to
// the rows handed to the exporter.
//
// # Architecture
//
// The package has three main components:
//
// 1. Parser: reads a trial table, finds the grouping column and the numeric
// measurement columns
// 2. Grouper: forward-fills group keys and collects rows per group
// 3. Aggregator: computes best value, random, systematic and total error for
// every measurement column of every group of 3 trials
//
// # Usage
//
// Parsing and aggregating a file:
//
//	table, err := dataprocessing.ParseTrialFile("resistor_data.csv", dataprocessing.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//
//	agg := dataprocessing.NewAggregator(resolver, dataprocessing.DefaultOptions(), logger)
//	result, err := agg.Aggregate(ctx, table)
//
// # Groups
//
// Each group must contain exactly 3 trials. Groups of any other size are
// skipped and listed in ResultTable.SkippedGroups. A column with fewer than
// 3 readings in a group is reported as "Insufficient data".
//
// Tables with at most 4 data rows and no grouping column are treated as a
// single measurement point and emitted under group key 0.
package dataprocessing

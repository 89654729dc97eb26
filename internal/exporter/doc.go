// Package exporter writes uncertainty result tables to disk or to a stream.
//
// CSVWriter produces UTF-8 CSV with a byte order mark so spreadsheet
// applications keep "±" and unit symbols intact. ExcelWriter produces an XLSX
// workbook through excelize, storing raw number cells as numbers.
//
// Example usage:
//
//	exp := exporter.New(paths)
//	written, err := exp.Export(table, "resistor_data_errors.csv", domain.ExportCSV)
//
// Any format other than csv or excel fails with ErrUnsupportedFormat.
package exporter

// Package files reads tabular input and discovers trial tables on disk.
//
// Tables are returned as rows of text with the header first. Delimited files
// (.csv, .tsv, .txt) go through encoding/csv; workbooks (.xlsx, .xlsm) are read
// from their first sheet with excelize.
//
// Example usage:
//
//	rows, err := files.ReadTable("data/resistor_data.csv")
//
//	discovery := files.NewDiscovery("/path/to/base")
//	trials, err := discovery.FindTrialFiles("data")
package files

// Package services sits between the entry points and the pipeline packages.
// The CLI and the HTTP handlers both call UncertaintyService, so parsing,
// aggregation, export and run metrics behave the same on either path.
//
// # Services
//
//   - UncertaintyService: analyses uploads and runs batch jobs over a file or
//     directory, exporting one "<name>_errors" table per input
//   - HealthService: liveness, calibration status and version information
//
// # Errors
//
// Failures are returned as *errors.AppError with a type the HTTP error handler
// maps onto a status code: PARSING for unreadable trial tables, CALIBRATION when
// no calibration table is loaded, EXPORT when results cannot be written.
//
// # Usage
//
//	svc := services.NewUncertaintyService(resolver, exporter.New(paths), logger).
//	    WithMetrics(metrics)
//	results, err := svc.Run(ctx, services.RunRequest{
//	    DataPath: "data/resistor_data.csv",
//	    Format:   domain.ExportCSV,
//	    Options:  dataprocessing.DefaultOptions(),
//	})
package services

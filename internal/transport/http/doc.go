// Package http implements the HTTP handlers of the uncertainty service. Handlers
// stay thin: they bind request options, hand the uploaded table to the service
// layer and render either JSON or an exported file.
//
// # Endpoints
//
//	POST /api/v1/uncertainty   multipart "trials" upload, options in the query
//	GET  /api/health           calibration status, 503 when degraded
//	GET  /api/health/live      liveness check
//	GET  /api/version          build and version information
//
// # Query Options
//
//	group_column=N        label of the grouping column
//	include_units=true    units in labels and combined strings
//	format_results=false  one "value ± error" column per measurement
//	format_values=true    matched-precision strings for separate columns
//	workers=4             per-group parallelism
//	export=csv|excel      stream the result file instead of JSON
//
// # Errors
//
// Every failure is rendered as RFC 7807 problem details by
// errors.ErrorHandler, e.g.
//
//	{
//	    "type": "/errors/table/unreadable",
//	    "title": "Table Unreadable",
//	    "status": 422,
//	    "detail": "trial table unreadable: ...",
//	    "instance": "/api/v1/uncertainty",
//	    "trace_id": "..."
//	}
package http

// Package app wires the uncertd HTTP service: it loads the calibration table,
// builds the services, mounts the router and owns the server lifecycle.
//
// # Initialization Flow
//
//	1. Resolve and create the configured directories
//	2. Create business metrics on the supplied meter
//	3. Load the calibration table (failure leaves the service degraded)
//	4. Build the uncertainty and health services
//	5. Mount middleware and routes
//	6. Create the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication(cfg, logger, providers)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
package app

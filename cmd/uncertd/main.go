// Command uncertd serves the uncertainty pipeline over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"uncertcli/internal/app"
	"uncertcli/internal/config"
	"uncertcli/internal/infrastructure"
)

func main() {
	configFile := flag.String("config", "", "YAML config file (default: $UNCERT_CONFIG_FILE, ./uncert.yaml or ./configs/uncert.yaml)")
	port := flag.Int("port", 0, "listen port (overrides server.port)")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configFile != "" {
		cfg, err = config.LoadFile(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "uncertd: failed to load configuration:", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, "uncertd:", err)
			os.Exit(2)
		}
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, "uncertd: failed to initialize logger:", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		infrastructure.WithError(logger, err).Error("Failed to initialize OpenTelemetry")
		os.Exit(1)
	}

	application, err := app.NewApplication(cfg, logger, providers)
	if err != nil {
		infrastructure.WithError(logger, err).Error("Failed to initialize application")
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		infrastructure.WithError(logger, err).Error("Application error")
		os.Exit(1)
	}
}

// Command uncertainty computes measurement uncertainties for trial tables and
// writes one "<name>_errors" table per input.
//
//	uncertainty -data resistor_data.csv
//	uncertainty -data ./bench -out ./reports -format excel -workers 4
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	promclient "github.com/prometheus/client_golang/prometheus"

	"uncertcli/internal/calibration"
	"uncertcli/internal/config"
	"uncertcli/internal/dataprocessing"
	"uncertcli/internal/exporter"
	"uncertcli/internal/infrastructure"
	"uncertcli/internal/services"
	"uncertcli/internal/validation"
	"uncertcli/pkg/contracts"
)

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// cliOptions holds the raw flag values. Only flags given on the command line
// override the configuration.
type cliOptions struct {
	configFile    string
	data          string
	calibration   string
	out           string
	format        string
	includeUnits  bool
	formatResults bool
	formatValues  bool
	workers       int
	metricsFile   string
	version       bool

	set map[string]bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*cliOptions, error) {
	opts := &cliOptions{set: make(map[string]bool)}

	fs := flag.NewFlagSet("uncertainty", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configFile, "config", "", "YAML config file (default: $UNCERT_CONFIG_FILE, ./uncert.yaml or ./configs/uncert.yaml)")
	fs.StringVar(&opts.data, "data", "", "trial table (.csv, .xlsx) or a directory of them")
	fs.StringVar(&opts.calibration, "calibration", "", "calibration table (default: analysis.calibration_file in the data directory)")
	fs.StringVar(&opts.out, "out", "", "output directory (default: next to each input)")
	fs.StringVar(&opts.format, "format", "", "export format: csv or excel (default: analysis.export_format)")
	fs.BoolVar(&opts.includeUnits, "include-units", true, "append units to labels and combined results")
	fs.BoolVar(&opts.formatResults, "format-results", false, "write one \"value ± error\" column per measurement")
	fs.BoolVar(&opts.formatValues, "format-values", true, "write matched-precision strings in separate columns")
	fs.IntVar(&opts.workers, "workers", 1, "groups processed in parallel")
	fs.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this file after the run")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// loadConfig applies flags on top of defaults, environment and YAML
func loadConfig(opts *cliOptions) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if opts.configFile != "" {
		cfg, err = config.LoadFile(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if opts.set["format"] {
		cfg.Analysis.ExportFormat = opts.format
	}
	if opts.set["include-units"] {
		cfg.Analysis.IncludeUnits = opts.includeUnits
	}
	if opts.set["format-results"] {
		cfg.Analysis.FormatResults = opts.formatResults
	}
	if opts.set["format-values"] {
		cfg.Analysis.FormatValues = opts.formatValues
	}
	if opts.set["workers"] {
		cfg.Analysis.Workers = opts.workers
	}
	if opts.calibration != "" {
		cfg.Analysis.CalibrationFile = opts.calibration
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return exitOK
	}
	if opts.data == "" {
		fmt.Fprintln(stderr, "uncertainty: -data is required")
		return exitUsage
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintln(stderr, "uncertainty:", err)
		return exitUsage
	}

	logger, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintln(stderr, "uncertainty:", err)
		return exitFailure
	}
	defer infrastructure.CloseLogFile()

	otelCfg := infrastructure.NewOTelConfig(cfg.Telemetry)
	otelCfg.Registry = promclient.NewRegistry()
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		infrastructure.WithError(logger, err).Error("Failed to initialize telemetry")
		return exitFailure
	}
	defer providers.Shutdown(context.Background())

	if err := execute(ctx, cfg, opts, providers, logger, stdout); err != nil {
		infrastructure.WithError(logger, err).ErrorContext(ctx, "Uncertainty run failed")
		fmt.Fprintln(stderr, "uncertainty:", err)
		return exitFailure
	}
	return exitOK
}

func execute(ctx context.Context, cfg *config.Config, opts *cliOptions, providers *infrastructure.OTelProviders, logger *slog.Logger, stdout io.Writer) error {
	calibrationPath := cfg.Analysis.CalibrationFile
	if opts.calibration == "" {
		calibrationPath = cfg.CalibrationPath()
	}
	if err := validation.NewFileValidator(logger).ValidateCalibrationFile(calibrationPath); err != nil {
		return err
	}
	table, err := calibration.Load(calibrationPath, logger)
	if err != nil {
		return err
	}

	format, err := exporter.ParseFormat(cfg.Analysis.ExportFormat)
	if err != nil {
		return err
	}

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}

	service := services.NewUncertaintyService(calibration.NewResolver(table, logger), exporter.New(nil), logger).
		WithMetrics(metrics)

	processing := dataprocessing.DefaultOptions()
	processing.GroupColumn = cfg.Analysis.GroupColumn
	processing.Workers = cfg.Analysis.Workers
	processing.Format.IncludeUnits = cfg.Analysis.IncludeUnits
	processing.Format.FormatResults = cfg.Analysis.FormatResults
	processing.Format.FormatValues = cfg.Analysis.FormatValues

	results, runErr := service.Run(ctx, services.RunRequest{
		DataPath: opts.data,
		OutDir:   opts.out,
		Format:   format,
		Options:  processing,
	})
	for _, res := range results {
		fmt.Fprintf(stdout, "%s -> %s (%d groups, %d skipped)\n",
			res.Source, res.Output, len(res.Table.Rows), len(res.Table.SkippedGroups))
	}

	if opts.metricsFile != "" {
		if err := providers.WriteMetricsFile(opts.metricsFile); err != nil {
			infrastructure.WithError(logger, err).Warn("Failed to write metrics file",
				slog.String("path", opts.metricsFile))
		}
	}
	return runErr
}

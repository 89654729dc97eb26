package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"uncertcli/internal/calibration"
	"uncertcli/internal/dataprocessing"
	apperrors "uncertcli/internal/errors"
	"uncertcli/internal/exporter"
	"uncertcli/internal/files"
	"uncertcli/internal/infrastructure"
	"uncertcli/internal/validation"
	"uncertcli/pkg/contracts/domain"
)

// Run sources recorded on the run metrics
const (
	SourceCLI  = "cli"
	SourceHTTP = "http"
)

// RunRequest describes one batch run over a file or a directory of trial tables.
type RunRequest struct {
	DataPath string
	// OutDir receives one "<name>_errors" export per input. Empty means next to
	// each input file.
	OutDir  string
	Format  domain.ExportFormat
	Options dataprocessing.ProcessingOptions
}

// RunResult is the outcome for one trial table
type RunResult struct {
	Source   string
	Output   string
	Table    *domain.ResultTable
	Duration time.Duration
}

// UncertaintyService wires parsing, aggregation and export for both entry points
type UncertaintyService struct {
	resolver  *calibration.Resolver
	exporter  *exporter.Exporter
	validator *validation.FileValidator
	discovery *files.Discovery
	metrics   *infrastructure.BusinessMetrics
	logger    *slog.Logger
}

// NewUncertaintyService creates the service around a loaded calibration table
func NewUncertaintyService(resolver *calibration.Resolver, exp *exporter.Exporter, logger *slog.Logger) *UncertaintyService {
	if logger == nil {
		logger = slog.Default()
	}
	if exp == nil {
		exp = exporter.New(nil)
	}
	return &UncertaintyService{
		resolver:  resolver,
		exporter:  exp,
		validator: validation.NewFileValidator(logger),
		discovery: files.NewDiscovery(""),
		logger:    logger.With(slog.String("service", "uncertainty")),
	}
}

// WithMetrics attaches business metrics to the service and its aggregators
func (s *UncertaintyService) WithMetrics(m *infrastructure.BusinessMetrics) *UncertaintyService {
	s.metrics = m
	return s
}

// Resolver returns the calibration resolver the service was built with
func (s *UncertaintyService) Resolver() *calibration.Resolver {
	return s.resolver
}

// Analyze computes the result table for an uploaded trial table.
func (s *UncertaintyService) Analyze(ctx context.Context, name string, r io.Reader, opts dataprocessing.ProcessingOptions) (table *domain.ResultTable, err error) {
	start := time.Now()
	defer func() {
		infrastructure.RecordRunMetrics(ctx, s.metrics, SourceHTTP, time.Since(start), err)
	}()

	if s.resolver == nil {
		return nil, apperrors.NewCalibrationError("cannot analyse upload", ErrNoCalibration)
	}

	trials, err := dataprocessing.ParseTrialReader(name, r, opts)
	if err != nil {
		return nil, apperrors.NewParsingError("trial table unreadable", err).WithContext("file", name)
	}
	return s.aggregate(ctx, trials, opts, name)
}

// ProcessFile computes the result table for one trial file without exporting it.
func (s *UncertaintyService) ProcessFile(ctx context.Context, path string, opts dataprocessing.ProcessingOptions) (*domain.ResultTable, error) {
	if s.resolver == nil {
		return nil, apperrors.NewCalibrationError("cannot process "+path, ErrNoCalibration)
	}
	trials, err := dataprocessing.ParseTrialFile(path, opts)
	if err != nil {
		return nil, apperrors.NewParsingError("trial table unreadable", err).WithContext("file", path)
	}
	return s.aggregate(ctx, trials, opts, filepath.Base(path))
}

// Run processes every trial table named by req and exports one result file each.
// A directory run stops at the first failing file. All records logged by one run
// share a trace ID.
func (s *UncertaintyService) Run(ctx context.Context, req RunRequest) ([]RunResult, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	if req.DataPath == "" {
		return nil, apperrors.NewAppValidationError(ErrMissingDataPath.Error())
	}
	ext, err := exporter.Extension(req.Format)
	if err != nil {
		return nil, err
	}

	kind, err := s.validator.ValidateDataPath(req.DataPath)
	if err != nil {
		return nil, err
	}

	inputs := []string{req.DataPath}
	if kind == validation.PathDirectory {
		found, err := s.discovery.FindTrialFiles(req.DataPath)
		if err != nil {
			return nil, apperrors.NewStorageError("cannot list trial files", err)
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("%s: %w", req.DataPath, ErrNoTrialFiles)
		}
		inputs = inputs[:0]
		for _, f := range found {
			inputs = append(inputs, f.Path)
		}
	}

	if req.OutDir != "" {
		if err := s.validator.ValidateOutputDirectory(req.OutDir); err != nil {
			return nil, err
		}
	}

	s.logger.InfoContext(ctx, "Starting uncertainty run",
		slog.String("data_path", req.DataPath),
		slog.Int("files", len(inputs)),
		slog.String("format", string(req.Format)))

	results := make([]RunResult, 0, len(inputs))
	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res, err := s.runOne(ctx, input, req, ext)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *UncertaintyService) runOne(ctx context.Context, input string, req RunRequest, ext string) (res RunResult, err error) {
	start := time.Now()
	defer func() {
		infrastructure.RecordRunMetrics(ctx, s.metrics, SourceCLI, time.Since(start), err)
	}()

	table, err := s.ProcessFile(ctx, input, req.Options)
	if err != nil {
		return RunResult{}, err
	}

	outDir := req.OutDir
	if outDir == "" {
		outDir = filepath.Dir(input)
	}
	target := filepath.Join(outDir, files.ResultName(input, ext))

	written, err := s.exporter.Export(table, target, req.Format)
	if err != nil {
		return RunResult{}, apperrors.NewExportError("failed to export results", err).WithContext("file", target)
	}

	s.logger.InfoContext(ctx, "Results exported",
		slog.String("input", input),
		slog.String("output", written),
		slog.Int("rows", len(table.Rows)),
		slog.Int("unresolved", table.UnresolvedCount()))

	return RunResult{
		Source:   input,
		Output:   written,
		Table:    table,
		Duration: time.Since(start),
	}, nil
}

func (s *UncertaintyService) aggregate(ctx context.Context, trials *dataprocessing.TrialTable, opts dataprocessing.ProcessingOptions, source string) (*domain.ResultTable, error) {
	infrastructure.AddSpanEvent(ctx, "trial_table_parsed",
		attribute.String("source", source),
		attribute.Int("rows", trials.Len()),
		attribute.Int("columns", len(trials.Columns)))

	agg := dataprocessing.NewAggregator(s.resolver, opts, s.logger).WithMetrics(s.metrics)
	table, err := agg.Aggregate(ctx, trials)
	if err != nil {
		return nil, err
	}

	if n := table.UnresolvedCount(); n > 0 {
		s.logger.WarnContext(ctx, "Some readings had no calibration range",
			slog.String("source", source),
			slog.Int("unresolved", n))
	}
	return table, nil
}

package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"uncertcli/internal/calibration"
	"uncertcli/internal/infrastructure"
	"uncertcli/internal/statistics"
	"uncertcli/internal/uncertainty"
	"uncertcli/internal/units"
	"uncertcli/pkg/contracts/domain"
)

// TracerName identifies spans started by the aggregator.
const TracerName = "uncertcli.dataprocessing"

// Measurement is the uncertainty of one column within one group.
type Measurement struct {
	Name            string
	Unit            string
	BestValue       float64
	RandomError     float64
	SystematicError float64
	TotalError      float64
	Calibration     calibration.Resolution
}

// Aggregator turns a trial table into one result row per group of 3 trials.
type Aggregator struct {
	resolver *calibration.Resolver
	grouper  *Grouper
	opts     ProcessingOptions
	metrics  *infrastructure.BusinessMetrics
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewAggregator creates an aggregator resolving systematic error through resolver.
func NewAggregator(resolver *calibration.Resolver, opts ProcessingOptions, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.GroupColumn == "" {
		opts.GroupColumn = DefaultGroupColumn
	}
	return &Aggregator{
		resolver: resolver,
		grouper:  NewGrouper(),
		opts:     opts,
		tracer:   otel.Tracer(TracerName),
		logger:   infrastructure.WithComponent(logger, "aggregator"),
	}
}

// WithMetrics attaches pipeline counters. A nil value disables them.
func (a *Aggregator) WithMetrics(m *infrastructure.BusinessMetrics) *Aggregator {
	a.metrics = m
	return a
}

// Options returns the options the aggregator was built with.
func (a *Aggregator) Options() ProcessingOptions {
	return a.opts
}

type groupOutcome struct {
	row     domain.ResultRow
	skipped bool
}

// Aggregate computes the result table. Groups keep their encounter order whether or
// not they are processed in parallel.
func (a *Aggregator) Aggregate(ctx context.Context, t *TrialTable) (*domain.ResultTable, error) {
	ctx, span := a.tracer.Start(ctx, "uncertainty.aggregate",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int("trial.rows", t.Len()),
			attribute.Int("trial.columns", len(t.Columns)),
			attribute.Bool("trial.single_point", t.SinglePoint),
			attribute.Int("workers", a.opts.Workers),
		),
	)
	defer span.End()

	start := time.Now()
	groups, stats := a.grouper.GroupWithStats(t)
	a.logger.DebugContext(ctx, "Trial rows grouped",
		slog.Int("total_rows", stats.TotalRows),
		slog.Int("forward_filled", stats.ForwardFilled),
		slog.Int("ungrouped_rows", stats.UngroupedRows),
		slog.Int("dropped_rows", stats.DroppedRows),
		slog.Int("groups", stats.GroupsDetected))

	keepUnits := a.collidingLabels(ctx, t)
	outcomes := make([]groupOutcome, len(groups))
	if err := a.run(ctx, t, groups, keepUnits, outcomes); err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, fmt.Errorf("aggregation cancelled: %w", err)
	}

	var rows []domain.ResultRow
	var skipped []float64
	for i, o := range outcomes {
		if o.skipped {
			skipped = append(skipped, groups[i].Key)
			continue
		}
		rows = append(rows, o.row)
	}

	table := domain.NewResultTable(rows)
	table.SkippedGroups = skipped

	span.SetAttributes(
		attribute.Int("result.rows", len(rows)),
		attribute.Int("result.skipped_groups", len(skipped)),
		attribute.Int("result.unresolved", table.UnresolvedCount()),
	)
	a.logger.InfoContext(ctx, "Uncertainty aggregation complete",
		slog.Int("groups", len(groups)),
		slog.Int("rows", len(rows)),
		slog.Int("skipped_groups", len(skipped)),
		slog.Int("unresolved", table.UnresolvedCount()),
		slog.Duration("duration", time.Since(start)))

	return table, nil
}

func (a *Aggregator) run(ctx context.Context, t *TrialTable, groups []Group, keepUnits map[string]bool, outcomes []groupOutcome) error {
	if a.opts.Workers < 2 || len(groups) < 2 {
		for i, g := range groups {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcomes[i] = a.processGroup(ctx, t, g, keepUnits)
		}
		return nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.opts.Workers)
	for i, g := range groups {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			outcomes[i] = a.processGroup(egCtx, t, g, keepUnits)
			return nil
		})
	}
	return eg.Wait()
}

func (a *Aggregator) processGroup(ctx context.Context, t *TrialTable, g Group, keepUnits map[string]bool) groupOutcome {
	if len(g.Rows) != TrialsPerGroup {
		a.logger.DebugContext(ctx, "Skipping group without exactly 3 trials",
			slog.Float64("group", g.Key),
			slog.Int("rows", len(g.Rows)))
		infrastructure.RecordGroupSkipped(ctx, a.metrics, len(g.Rows))
		return groupOutcome{skipped: true}
	}

	row := domain.NewResultRow(g.Key)
	row.Set(t.GroupLabel, domain.NumberCell(g.Key))

	for _, col := range t.Columns {
		samples := col.Samples(g.Rows)
		if len(samples) < TrialsPerGroup {
			row.Set(col.Label, domain.TextCell(domain.InsufficientData))
			infrastructure.RecordInsufficientData(ctx, a.metrics, col.Label)
			continue
		}

		m, err := a.Measure(col.Label, samples)
		if err != nil {
			row.Set(col.Label, domain.TextCell(domain.InsufficientData))
			continue
		}

		if !m.Calibration.Resolved {
			row.MarkUnresolved(col.Label)
			a.logger.WarnContext(ctx, "No calibration range covers reading, systematic error set to zero",
				slog.Float64("group", g.Key),
				slog.String("column", col.Label),
				slog.Float64("best_value", m.BestValue),
				slog.String("unit", m.Unit))
			infrastructure.RecordUnresolvedRange(ctx, a.metrics, m.Unit)
		}

		a.emit(&row, col.Label, m, keepUnits[col.Label])
	}

	infrastructure.RecordGroupProcessed(ctx, a.metrics)
	return groupOutcome{row: row}
}

// Measure computes best value and errors for the readings of one column. Random
// error is computed in the column's unit; systematic error is resolved in base
// units and converted back.
func (a *Aggregator) Measure(label string, samples []float64) (Measurement, error) {
	name, unit := units.ExtractUnit(label)

	est, err := statistics.EstimateSample(samples)
	if err != nil {
		return Measurement{}, fmt.Errorf("column %q: %w", label, err)
	}

	baseValue, baseUnit := units.ToBaseUnits(est.BestValue, unit)
	baseSystematic, res := a.resolver.SystematicError(baseValue, baseUnit)
	systematic, _ := units.FromBaseUnits(baseSystematic, unit)

	return Measurement{
		Name:            name,
		Unit:            unit,
		BestValue:       est.BestValue,
		RandomError:     est.RandomError,
		SystematicError: systematic,
		TotalError:      uncertainty.TotalError(est.RandomError, systematic),
		Calibration:     res,
	}, nil
}

// collidingLabels returns the measurement columns whose separate-mode labels would
// clash once units are dropped, e.g. "V(mV)" and "V(V)" both becoming "V". Those
// columns keep their unit in the label.
func (a *Aggregator) collidingLabels(ctx context.Context, t *TrialTable) map[string]bool {
	f := a.opts.Format
	if f.FormatResults || f.IncludeUnits {
		return nil
	}

	names := map[string]int{t.GroupLabel: 1}
	for _, col := range t.Columns {
		name, _ := units.ExtractUnit(col.Label)
		names[name]++
	}

	var keep map[string]bool
	for _, col := range t.Columns {
		name, unit := units.ExtractUnit(col.Label)
		if unit == "" || names[name] < 2 {
			continue
		}
		if keep == nil {
			keep = make(map[string]bool)
		}
		keep[col.Label] = true
		a.logger.WarnContext(ctx, "Result column label collides without units, keeping the unit",
			slog.String("column", col.Label),
			slog.String("label", name))
	}
	return keep
}

func (a *Aggregator) emit(row *domain.ResultRow, label string, m Measurement, keepUnit bool) {
	f := a.opts.Format
	if f.FormatResults {
		row.Set(label, domain.TextCell(uncertainty.FormatResult(m.BestValue, m.TotalError, m.Unit, f.IncludeUnits)))
		return
	}

	valueLabel, errLabel := SeparateLabels(m.Name, m.Unit, f.IncludeUnits || keepUnit)
	if f.FormatValues {
		errStr, dp := uncertainty.FormatError(m.TotalError)
		row.Set(valueLabel, domain.TextCell(uncertainty.FormatBestValue(m.BestValue, dp)))
		row.Set(errLabel, domain.TextCell(errStr))
		return
	}
	row.Set(valueLabel, domain.NumberCell(m.BestValue))
	row.Set(errLabel, domain.NumberCell(m.TotalError))
}

// SeparateLabels returns the value and error column labels for a measurement,
// e.g. "Voltage (V)" and "Voltage Err (V)".
func SeparateLabels(name, unit string, includeUnits bool) (string, string) {
	if includeUnits && unit != "" {
		suffix := " (" + unit + ")"
		return name + suffix, name + " Err" + suffix
	}
	return name, name + " Err"
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"somacli/internal/chart"
	"somacli/internal/config"
	apperrors "somacli/internal/errors"
	"somacli/internal/exporter"
	"somacli/internal/infrastructure"
	"somacli/internal/smartsheet"
	"somacli/internal/soma"
)

// SheetSource is the subset of the Smartsheet client the analyzer
// depends on.
type SheetSource interface {
	GetSheetByName(ctx context.Context, name string) (*smartsheet.Sheet, error)
	ListSheets(ctx context.Context) ([]smartsheet.SheetInfo, error)
}

// Params are the per-run analysis parameters.
type Params struct {
	// Locations is the location selector: region names or the "all"
	// sentinel. Empty falls back to the configured default region.
	Locations    []string
	HiveFilter   bool
	SaveReport   bool
	CreatePlot   bool
	PlotFormat   string
	ReportFormat string
	// SheetName overrides the configured sheet when non-empty.
	SheetName string
}

// RunResult summarizes one analysis run.
type RunResult struct {
	Samples      int
	TotalNeurons int
	DroppedRows  int
	ReportPath   string
	ChartPath    string
	// Empty is set when filtering matched nothing; this is an
	// informational outcome, not an error.
	Empty bool
}

// Analyzer wires the pipeline: fetch, normalize, filter, aggregate,
// then the report and chart sinks. Everything runs synchronously in
// one pass; the scale is one spreadsheet's worth of rows.
type Analyzer struct {
	cfg     *config.Config
	source  SheetSource
	reports *exporter.ReportWriter
	charts  *chart.Renderer
	logger  *slog.Logger
	now     func() time.Time
}

// New creates an Analyzer.
func New(cfg *config.Config, source SheetSource, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		cfg:     cfg,
		source:  source,
		reports: exporter.NewReportWriter(logger),
		charts:  chart.NewRenderer(logger, cfg.Analysis.MaxSamplesDisplay),
		logger:  logger,
		now:     time.Now,
	}
}

// Run executes one analysis pass. Configuration problems (including an
// invalid plot format) fail before any data is fetched; unparseable
// rows are dropped and counted; an empty filter result is reported in
// the result, not returned as an error.
func (a *Analyzer) Run(ctx context.Context, params Params) (*RunResult, error) {
	ctx = infrastructure.WithRunID(ctx, uuid.NewString())

	plotFormat, reportFormat, err := a.resolveFormats(params)
	if err != nil {
		return nil, err
	}

	locations := params.Locations
	if len(locations) == 0 {
		locations = []string{a.cfg.Analysis.DefaultLocation}
	}
	selector := soma.NewLocationSelector(locations...)

	a.logger.InfoContext(ctx, "starting soma location analysis",
		slog.String("location", selector.Display()),
		slog.Bool("hive_filter", params.HiveFilter))

	records, dropped, err := a.fetchRecords(ctx, params.SheetName)
	if err != nil {
		return nil, err
	}

	filtered := soma.Filter(records, selector, params.HiveFilter)
	a.logger.InfoContext(ctx, "applied filters",
		slog.Int("record_count", len(records)),
		slog.Int("filtered_count", len(filtered)))

	if len(filtered) == 0 {
		a.logNoMatches(ctx, records, selector, params.HiveFilter)
		return &RunResult{DroppedRows: dropped, Empty: true}, nil
	}

	aggregates := soma.Aggregate(filtered)
	a.logSummary(ctx, aggregates, selector, params.HiveFilter)

	result := &RunResult{
		Samples:      len(aggregates),
		TotalNeurons: soma.TotalRecords(aggregates),
		DroppedRows:  dropped,
	}
	now := a.now()

	if params.SaveReport {
		filename := exporter.Filename("soma_analysis", selector.FileTag(), params.HiveFilter, now, reportFormat)
		path := a.cfg.ReportPath(filename)
		if reportFormat == "xlsx" {
			err = a.reports.WriteXLSX(path, aggregates)
		} else {
			err = a.reports.WriteCSV(path, aggregates)
		}
		if err != nil {
			return nil, err
		}
		result.ReportPath = path
		a.logger.InfoContext(ctx, "report saved", slog.String("path", path))
	}

	if params.CreatePlot {
		filename := exporter.Filename("soma_analysis_plot", selector.FileTag(), params.HiveFilter, now, plotFormat.Ext())
		path := a.cfg.ReportPath(filename)
		if err := a.charts.Render(aggregates, plotFormat, chartTitle(selector, params.HiveFilter), path); err != nil {
			return nil, err
		}
		result.ChartPath = path
		a.logger.InfoContext(ctx, "chart saved", slog.String("path", path))
	}

	a.logger.InfoContext(ctx, "analysis completed",
		slog.Int("samples", result.Samples),
		slog.Int("total_neurons", result.TotalNeurons),
		slog.Int("dropped_rows", result.DroppedRows))
	return result, nil
}

// CompareLocations analyzes several locations side by side and writes
// one comparison row of totals per location.
func (a *Analyzer) CompareLocations(ctx context.Context, locations []string, sheetName string) (string, error) {
	ctx = infrastructure.WithRunID(ctx, uuid.NewString())

	if len(locations) == 0 {
		return "", apperrors.NewValidationError("at least one location is required for comparison")
	}

	records, _, err := a.fetchRecords(ctx, sheetName)
	if err != nil {
		return "", err
	}

	type comparison struct {
		location   string
		aggregates []soma.SampleAggregate
	}
	comparisons := make([]comparison, 0, len(locations))
	var allAggregates []soma.SampleAggregate
	for _, location := range locations {
		filtered := soma.Filter(records, soma.NewLocationSelector(location), false)
		aggregates := soma.Aggregate(filtered)
		comparisons = append(comparisons, comparison{location: location, aggregates: aggregates})
		allAggregates = append(allAggregates, aggregates...)
	}

	statuses := soma.StatusOrder(allAggregates)
	headers := append([]string{"Soma_Location", "Total_Samples", "Total_Neurons"}, statuses...)
	noStatus := false
	for _, agg := range allAggregates {
		if agg.NoStatusCount() > 0 {
			noStatus = true
			break
		}
	}
	if noStatus {
		headers = append(headers, "No_Status")
	}

	rows := make([][]string, 0, len(comparisons))
	for _, cmp := range comparisons {
		row := []string{
			cmp.location,
			strconv.Itoa(len(cmp.aggregates)),
			strconv.Itoa(soma.TotalRecords(cmp.aggregates)),
		}
		for _, status := range statuses {
			total := 0
			for _, agg := range cmp.aggregates {
				total += agg.StatusCounts[status]
			}
			row = append(row, strconv.Itoa(total))
		}
		if noStatus {
			total := 0
			for _, agg := range cmp.aggregates {
				total += agg.NoStatusCount()
			}
			row = append(row, strconv.Itoa(total))
		}
		rows = append(rows, row)
	}

	filename := fmt.Sprintf("soma_comparison_%s.csv", a.now().Format("20060102_150405"))
	path := a.cfg.ReportPath(filename)
	if err := a.reports.WriteComparisonCSV(path, headers, rows); err != nil {
		return "", err
	}
	a.logger.InfoContext(ctx, "comparison saved",
		slog.String("path", path),
		slog.Int("location_count", len(locations)))
	return path, nil
}

// resolveFormats validates the output format selectors, falling back
// to configured defaults. This happens before any network call.
func (a *Analyzer) resolveFormats(params Params) (chart.Format, string, error) {
	plotFormatStr := params.PlotFormat
	if plotFormatStr == "" {
		plotFormatStr = a.cfg.Analysis.PlotFormat
	}
	plotFormat, err := chart.ParseFormat(plotFormatStr)
	if err != nil {
		return "", "", err
	}

	reportFormat := params.ReportFormat
	if reportFormat == "" {
		reportFormat = a.cfg.Analysis.ReportFormat
	}
	if reportFormat != "csv" && reportFormat != "xlsx" {
		return "", "", apperrors.NewConfigError(
			fmt.Sprintf("invalid report format %q: must be csv or xlsx", reportFormat), nil)
	}
	return plotFormat, reportFormat, nil
}

// fetchRecords pulls the sheet and normalizes its rows.
func (a *Analyzer) fetchRecords(ctx context.Context, sheetName string) ([]soma.Record, int, error) {
	if sheetName == "" {
		sheetName = a.cfg.Smartsheet.SheetName
	}

	sheet, err := a.source.GetSheetByName(ctx, sheetName)
	if err != nil {
		return nil, 0, err
	}

	records, dropped := soma.ParseRecords(sheet.ToRows(), soma.HiveColumn(sheet.ColumnTitles()))
	if dropped > 0 {
		a.logger.WarnContext(ctx, "dropped rows without a cell identifier",
			slog.Int("dropped_rows", dropped))
	}
	return records, dropped, nil
}

// logNoMatches reports an empty filter result along with the locations
// actually present in the data, so the operator can adjust the query.
func (a *Analyzer) logNoMatches(ctx context.Context, records []soma.Record, selector soma.LocationSelector, hiveFilter bool) {
	available := soma.AvailableLocations(records)

	type locCount struct {
		location string
		count    int
	}
	counts := make([]locCount, 0, len(available))
	for location, count := range available {
		counts = append(counts, locCount{location, count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].location < counts[j].location
	})

	top := make([]string, 0, 10)
	for i, lc := range counts {
		if i == 10 {
			break
		}
		top = append(top, fmt.Sprintf("%s (%d)", lc.location, lc.count))
	}

	a.logger.WarnContext(ctx, "no neurons found matching the specified criteria",
		slog.String("location", selector.Display()),
		slog.Bool("hive_filter", hiveFilter),
		slog.Any("available_locations", top))
}

// logSummary mirrors the run summary the interactive tool prints:
// status breakdown with percentages, genotype distribution and
// registration distribution.
func (a *Analyzer) logSummary(ctx context.Context, aggregates []soma.SampleAggregate, selector soma.LocationSelector, hiveFilter bool) {
	totalNeurons := soma.TotalRecords(aggregates)

	statusAttrs := make([]any, 0)
	for _, status := range soma.StatusOrder(aggregates) {
		total := 0
		for _, agg := range aggregates {
			total += agg.StatusCounts[status]
		}
		pct := 0.0
		if totalNeurons > 0 {
			pct = float64(total) / float64(totalNeurons) * 100
		}
		statusAttrs = append(statusAttrs, slog.String(status, fmt.Sprintf("%d (%.1f%%)", total, pct)))
	}

	genotypes := map[string]int{}
	registrations := map[string]int{}
	for _, agg := range aggregates {
		genotype := agg.Genotype
		if genotype == "" {
			genotype = "Unknown"
		}
		genotypes[genotype]++
		registrations[agg.Registered.String()]++
	}

	a.logger.InfoContext(ctx, "summary statistics",
		slog.String("location", selector.Display()),
		slog.Bool("hive_filter", hiveFilter),
		slog.Int("total_samples", len(aggregates)),
		slog.Int("total_neurons", totalNeurons))
	a.logger.InfoContext(ctx, "status breakdown", statusAttrs...)
	a.logger.InfoContext(ctx, "genotype distribution", slog.Any("genotypes", genotypes))
	a.logger.InfoContext(ctx, "registration status", slog.Any("registrations", registrations))
}

// chartTitle builds the chart title shown above the bars.
func chartTitle(selector soma.LocationSelector, hiveFilter bool) string {
	title := "Neuron Reconstruction Status by Sample - " + selector.Display()
	if hiveFilter {
		title += " (HIVE only)"
	}
	return title
}

// Command analyzer fetches neuron reconstruction records from
// Smartsheet, filters them by soma location and optional HIVE marker,
// and writes a per-sample status report and a stacked-bar chart.
//
// Usage:
//
//	analyzer -soma-location LC
//	analyzer -soma-location all -hive-filter
//	analyzer -soma-location SI -hive-filter -plot-format png
//	analyzer -compare LC,SI,PVT
//	analyzer -list-sheets
//
// The Smartsheet access token is read from the
// SOMA_SMARTSHEET_ACCESS_TOKEN environment variable.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"somacli/internal/app"
	"somacli/internal/config"
	apperrors "somacli/internal/errors"
	"somacli/internal/infrastructure"
	"somacli/internal/smartsheet"
)

func main() {
	somaLocation := flag.String("soma-location", "", "target soma location (e.g. \"VM\", \"PVT\", \"LC\"), a comma-separated set, or \"all\" (defaults to the configured region)")
	hiveFilter := flag.Bool("hive-filter", false, "only include HIVE-marked cells")
	noCSV := flag.Bool("no-csv", false, "do not save the report file")
	noPlots := flag.Bool("no-plots", false, "do not create the chart")
	plotFormat := flag.String("plot-format", "", "chart output format: svg, png or html (defaults to configured format)")
	reportFormat := flag.String("report-format", "", "report format: csv or xlsx (defaults to configured format)")
	sheetName := flag.String("sheet", "", "sheet name to analyze (defaults to configured sheet)")
	listSheets := flag.Bool("list-sheets", false, "list available sheets and exit")
	compare := flag.String("compare", "", "comma-separated locations to compare side by side")
	configFile := flag.String("config", "config.yaml", "path to optional YAML config file")
	flag.Parse()

	cfg, err := config.LoadFrom(*configFile)
	if err != nil {
		slog.Error("Configuration error", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	if err := cfg.EnsureOutputDir(); err != nil {
		logger.Error("Failed to create output directory", "error", err)
		os.Exit(1)
	}

	client, err := smartsheet.NewClient(cfg.Smartsheet.BaseURL, cfg.Smartsheet.AccessToken, logger,
		smartsheet.WithRateLimit(cfg.Smartsheet.RateLimit))
	if err != nil {
		logger.Error("Failed to initialize Smartsheet client", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if *listSheets {
		runListSheets(ctx, client, logger)
		return
	}

	analyzer := app.New(cfg, client, logger)

	if *compare != "" {
		runComparison(ctx, analyzer, splitList(*compare), *sheetName, logger)
		return
	}

	params := app.Params{
		Locations:    splitList(*somaLocation),
		HiveFilter:   *hiveFilter,
		SaveReport:   !*noCSV,
		CreatePlot:   !*noPlots,
		PlotFormat:   *plotFormat,
		ReportFormat: *reportFormat,
		SheetName:    *sheetName,
	}

	result, err := analyzer.Run(ctx, params)
	if err != nil {
		logger.Error("Analysis failed", "error", err)
		os.Exit(1)
	}

	if result.Empty {
		fmt.Println("No neurons found matching your criteria.")
		fmt.Println("Try a different soma location or check if the HIVE filter is too restrictive.")
		return
	}

	fmt.Println("Analysis completed successfully.")
	fmt.Printf("  Samples: %d\n", result.Samples)
	fmt.Printf("  Total neurons: %d\n", result.TotalNeurons)
	if result.DroppedRows > 0 {
		fmt.Printf("  Dropped rows (no cell identifier): %d\n", result.DroppedRows)
	}
	if result.ReportPath != "" {
		fmt.Printf("  Report: %s\n", result.ReportPath)
	}
	if result.ChartPath != "" {
		fmt.Printf("  Chart: %s\n", result.ChartPath)
	}
}

// runListSheets prints the sheets visible to the token.
func runListSheets(ctx context.Context, client *smartsheet.Client, logger *slog.Logger) {
	sheets, err := client.ListSheets(ctx)
	if err != nil {
		logger.Error("Failed to list sheets", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Found %d available sheets:\n", len(sheets))
	for i, sheet := range sheets {
		fmt.Printf("%d. %s (ID: %d)\n", i+1, sheet.Name, sheet.ID)
	}
}

// runComparison analyzes several locations side by side.
func runComparison(ctx context.Context, analyzer *app.Analyzer, locations []string, sheetName string, logger *slog.Logger) {
	path, err := analyzer.CompareLocations(ctx, locations, sheetName)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrTypeValidation) {
			fmt.Fprintln(os.Stderr, err)
		} else {
			logger.Error("Comparison failed", "error", err)
		}
		os.Exit(1)
	}
	fmt.Printf("Comparison saved: %s\n", path)
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

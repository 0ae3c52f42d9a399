package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	apperrors "somacli/internal/errors"
	"somacli/internal/soma"
)

// Timestamp layout embedded in output filenames.
const timestampLayout = "20060102_150405"

// Filename builds an output filename following the
// <prefix>_<LOCATION>[_HIVE]_<TIMESTAMP>.<ext> convention.
func Filename(prefix, locationTag string, hiveFilter bool, now time.Time, ext string) string {
	hiveSuffix := ""
	if hiveFilter {
		hiveSuffix = "_HIVE"
	}
	return fmt.Sprintf("%s_%s%s_%s.%s", prefix, locationTag, hiveSuffix, now.Format(timestampLayout), ext)
}

// ReportWriter serializes aggregate tables to delimited report files.
type ReportWriter struct {
	logger *slog.Logger
}

// NewReportWriter creates a report writer.
func NewReportWriter(logger *slog.Logger) *ReportWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportWriter{logger: logger}
}

// WriteCSV writes the aggregate table to a CSV file. The column set is
// fixed across the whole result set; samples lacking a status get a
// zero. Empty input produces a header-only file. Write failures are
// surfaced with the destination path.
func (w *ReportWriter) WriteCSV(path string, aggregates []soma.SampleAggregate) error {
	headers, records := BuildTable(aggregates)

	w.logger.Info("writing CSV report",
		slog.String("path", path),
		slog.Int("sample_count", len(records)))

	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError("failed to create report file", path, err)
	}
	defer file.Close()

	// UTF-8 BOM so Excel opens the file correctly
	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return apperrors.NewStorageError("failed to write BOM", path, err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(headers); err != nil {
		return apperrors.NewStorageError("failed to write report headers", path, err)
	}
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return apperrors.NewStorageError(
				fmt.Sprintf("failed to write report record %d", i), path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.NewStorageError("failed to flush report", path, err)
	}
	return nil
}

// BuildTable converts aggregates into a header row plus data records.
// Column order: Sample_ID, one column per observed status in canonical
// order, a No_Status column when any sample carries blank-status
// records, Genotype, Registered, Total_Neurons. The status columns
// (No_Status included) always sum to Total_Neurons.
func BuildTable(aggregates []soma.SampleAggregate) ([]string, [][]string) {
	statuses := soma.StatusOrder(aggregates)
	noStatus := false
	for _, agg := range aggregates {
		if agg.NoStatusCount() > 0 {
			noStatus = true
			break
		}
	}

	headers := make([]string, 0, len(statuses)+5)
	headers = append(headers, "Sample_ID")
	headers = append(headers, statuses...)
	if noStatus {
		headers = append(headers, "No_Status")
	}
	headers = append(headers, "Genotype", "Registered", "Total_Neurons")

	records := make([][]string, 0, len(aggregates))
	for _, agg := range aggregates {
		record := make([]string, 0, len(headers))
		record = append(record, agg.SampleID)
		for _, status := range statuses {
			record = append(record, strconv.Itoa(agg.StatusCounts[status]))
		}
		if noStatus {
			record = append(record, strconv.Itoa(agg.NoStatusCount()))
		}
		record = append(record, agg.Genotype, agg.Registered.String(), strconv.Itoa(agg.RecordCount))
		records = append(records, record)
	}
	return headers, records
}

// WriteComparisonCSV writes the side-by-side location comparison table.
func (w *ReportWriter) WriteComparisonCSV(path string, headers []string, records [][]string) error {
	w.logger.Info("writing comparison report",
		slog.String("path", path),
		slog.Int("location_count", len(records)))

	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError("failed to create comparison file", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(headers); err != nil {
		return apperrors.NewStorageError("failed to write comparison headers", path, err)
	}
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return apperrors.NewStorageError(
				fmt.Sprintf("failed to write comparison record %d", i), path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.NewStorageError("failed to flush comparison report", path, err)
	}
	return nil
}

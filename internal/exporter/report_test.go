package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "somacli/internal/errors"
	"somacli/internal/soma"
)

func testAggregates() []soma.SampleAggregate {
	return []soma.SampleAggregate{
		{
			SampleID:     "N030",
			StatusCounts: map[string]int{soma.StatusCompleted: 2, soma.StatusHold: 1},
			Genotype:     "DAT-Cre",
			Registered:   soma.TriTrue,
			RecordCount:  3,
		},
		{
			SampleID:     "N031",
			StatusCounts: map[string]int{soma.StatusInProgress: 1},
			Genotype:     "",
			Registered:   soma.TriUnknown,
			RecordCount:  1,
		},
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)

	assert.Equal(t, "soma_analysis_LC_20240102_150405.csv",
		Filename("soma_analysis", "LC", false, now, "csv"))
	assert.Equal(t, "soma_analysis_LC_HIVE_20240102_150405.csv",
		Filename("soma_analysis", "LC", true, now, "csv"))
	assert.Equal(t, "soma_analysis_plot_ALL_20240102_150405.svg",
		Filename("soma_analysis_plot", "ALL", false, now, "svg"))
}

func TestBuildTable(t *testing.T) {
	headers, records := BuildTable(testAggregates())

	assert.Equal(t, []string{
		"Sample_ID", soma.StatusCompleted, soma.StatusInProgress, soma.StatusHold,
		"Genotype", "Registered", "Total_Neurons",
	}, headers)

	require.Len(t, records, 2)
	// Zero-filled for statuses the sample lacks
	assert.Equal(t, []string{"N030", "2", "0", "1", "DAT-Cre", "Yes", "3"}, records[0])
	assert.Equal(t, []string{"N031", "0", "1", "0", "", "Unknown", "1"}, records[1])
}

func TestBuildTable_NoStatusColumn(t *testing.T) {
	aggregates := []soma.SampleAggregate{
		{
			SampleID:     "N030",
			StatusCounts: map[string]int{soma.StatusCompleted: 2},
			RecordCount:  3,
		},
		{
			SampleID:     "N031",
			StatusCounts: map[string]int{soma.StatusHold: 1},
			RecordCount:  1,
		},
	}

	headers, records := BuildTable(aggregates)
	assert.Equal(t, []string{
		"Sample_ID", soma.StatusCompleted, soma.StatusHold, "No_Status",
		"Genotype", "Registered", "Total_Neurons",
	}, headers)

	// Status columns plus No_Status sum to Total_Neurons for every row
	assert.Equal(t, []string{"N030", "2", "0", "1", "", "Unknown", "3"}, records[0])
	assert.Equal(t, []string{"N031", "0", "1", "0", "", "Unknown", "1"}, records[1])
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	writer := NewReportWriter(nil)
	path := filepath.Join(t.TempDir(), "soma_analysis_LC_20240102_150405.csv")

	aggregates := testAggregates()
	require.NoError(t, writer.WriteCSV(path, aggregates))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// BOM prefix for Excel
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})))
	rows, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	headers := rows[0]
	statusIdx := map[string]int{}
	for i, h := range headers {
		statusIdx[h] = i
	}

	// Re-reading reproduces status counts, genotype and record count
	for i, agg := range aggregates {
		row := rows[i+1]
		assert.Equal(t, agg.SampleID, row[statusIdx["Sample_ID"]])
		assert.Equal(t, agg.Genotype, row[statusIdx["Genotype"]])
		assert.Equal(t, strconv.Itoa(agg.RecordCount), row[statusIdx["Total_Neurons"]])
		for status, count := range agg.StatusCounts {
			assert.Equal(t, strconv.Itoa(count), row[statusIdx[status]])
		}
	}
}

func TestWriteCSV_EmptyAggregates(t *testing.T) {
	writer := NewReportWriter(nil)
	path := filepath.Join(t.TempDir(), "empty.csv")

	require.NoError(t, writer.WriteCSV(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})))
	rows, err := reader.ReadAll()
	require.NoError(t, err)
	// Header-only file
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Sample_ID", "Genotype", "Registered", "Total_Neurons"}, rows[0])
}

func TestWriteCSV_UnwritablePathSurfacesError(t *testing.T) {
	writer := NewReportWriter(nil)
	path := filepath.Join(t.TempDir(), "missing-dir", "report.csv")

	err := writer.WriteCSV(path, testAggregates())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, path, appErr.Context["path"])
}

func TestWriteXLSX(t *testing.T) {
	writer := NewReportWriter(nil)
	path := filepath.Join(t.TempDir(), "soma_analysis_LC_20240102_150405.xlsx")

	require.NoError(t, writer.WriteXLSX(path, testAggregates()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(excelSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Sample_ID", rows[0][0])
	assert.Equal(t, "N030", rows[1][0])
	assert.Equal(t, "N031", rows[2][0])
}

func TestWriteComparisonCSV(t *testing.T) {
	writer := NewReportWriter(nil)
	path := filepath.Join(t.TempDir(), "soma_comparison_20240102_150405.csv")

	headers := []string{"Soma_Location", "Total_Samples", "Total_Neurons"}
	records := [][]string{
		{"LC", "2", "4"},
		{"PVT", "1", "1"},
	}
	require.NoError(t, writer.WriteComparisonCSV(path, headers, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	reader := csv.NewReader(bytes.NewReader(data))
	rows, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, records[0], rows[1])
}

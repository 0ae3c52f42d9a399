package chart

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "somacli/internal/errors"
	"somacli/internal/soma"
)

func testAggregates() []soma.SampleAggregate {
	return []soma.SampleAggregate{
		{
			SampleID:     "N030",
			StatusCounts: map[string]int{soma.StatusCompleted: 2, soma.StatusHold: 1},
			RecordCount:  3,
		},
		{
			SampleID:     "N031",
			StatusCounts: map[string]int{soma.StatusInProgress: 1, "Needs QC": 2},
			RecordCount:  3,
		},
	}
}

func TestParseFormat(t *testing.T) {
	for _, valid := range []string{"svg", "png", "html"} {
		format, err := ParseFormat(valid)
		require.NoError(t, err)
		assert.Equal(t, Format(valid), format)
	}

	for _, invalid := range []string{"pdf", "jpeg", "", "SVG"} {
		_, err := ParseFormat(invalid)
		require.Error(t, err, "format %q should be rejected", invalid)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	}
}

func TestStatusColor(t *testing.T) {
	assert.NotEqual(t, fallbackColor, StatusColor(soma.StatusCompleted))
	assert.NotEqual(t, fallbackColor, StatusColor(soma.StatusHold))
	// Unknown statuses get the fallback color
	assert.Equal(t, fallbackColor, StatusColor("Needs QC"))
	// Consistent mapping across calls
	assert.Equal(t, StatusColor(soma.StatusCompleted), StatusColor(soma.StatusCompleted))
}

func TestRender_SVG(t *testing.T) {
	renderer := NewRenderer(nil, 50)
	path := filepath.Join(t.TempDir(), "soma_analysis_plot_LC_20240102_150405.svg")

	err := renderer.Render(testAggregates(), FormatSVG, "Neuron Reconstruction Status by Sample - LC", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "<svg")
	assert.Contains(t, content, "N030")
	assert.Contains(t, content, "N031")
}

func TestRender_PNG(t *testing.T) {
	renderer := NewRenderer(nil, 50)
	path := filepath.Join(t.TempDir(), "chart.png")

	require.NoError(t, renderer.Render(testAggregates(), FormatPNG, "LC", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// PNG magic bytes
	require.True(t, len(data) > 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data[:4])
}

func TestRender_HTML(t *testing.T) {
	renderer := NewRenderer(nil, 50)
	path := filepath.Join(t.TempDir(), "chart.html")

	require.NoError(t, renderer.Render(testAggregates(), FormatHTML, "Soma Analysis - LC", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.HasPrefix(content, "<!DOCTYPE html>"))
	assert.Contains(t, content, "<svg")
	assert.Contains(t, content, "Soma Analysis - LC")
}

func TestRender_InvalidFormat(t *testing.T) {
	renderer := NewRenderer(nil, 50)
	err := renderer.Render(testAggregates(), Format("pdf"), "LC", filepath.Join(t.TempDir(), "x.pdf"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestRender_NoData(t *testing.T) {
	renderer := NewRenderer(nil, 50)
	path := filepath.Join(t.TempDir(), "empty.svg")

	err := renderer.Render(nil, FormatSVG, "LC", path)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyResult))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRender_TruncatesToMaxSamples(t *testing.T) {
	aggregates := make([]soma.SampleAggregate, 5)
	for i := range aggregates {
		aggregates[i] = soma.SampleAggregate{
			SampleID:     string(rune('A' + i)),
			StatusCounts: map[string]int{soma.StatusCompleted: 1},
			RecordCount:  1,
		}
	}

	renderer := NewRenderer(nil, 3)
	path := filepath.Join(t.TempDir(), "truncated.svg")
	require.NoError(t, renderer.Render(aggregates, FormatSVG, "ALL", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, ">A<")
	assert.Contains(t, content, ">C<")
	assert.NotContains(t, content, ">D<")
}

func TestRender_StatuslessSample(t *testing.T) {
	aggregates := []soma.SampleAggregate{
		{SampleID: "N040", StatusCounts: map[string]int{}, RecordCount: 2},
	}

	renderer := NewRenderer(nil, 50)
	path := filepath.Join(t.TempDir(), "statusless.svg")
	require.NoError(t, renderer.Render(aggregates, FormatSVG, "ALL", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "No Status (2)")
}

func TestRender_PartialBlankStatuses(t *testing.T) {
	// One record with a status, one without: the bar carries both
	// segments so its height matches the record count.
	aggregates := []soma.SampleAggregate{
		{
			SampleID:     "N041",
			StatusCounts: map[string]int{soma.StatusCompleted: 1},
			RecordCount:  2,
		},
	}

	renderer := NewRenderer(nil, 50)
	path := filepath.Join(t.TempDir(), "partial.svg")
	require.NoError(t, renderer.Render(aggregates, FormatSVG, "ALL", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Completed (1)")
	assert.Contains(t, content, "No Status (1)")
}

package chart

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"os"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	apperrors "somacli/internal/errors"
	"somacli/internal/soma"
)

// Format is a chart output format. The set is closed and validated
// before any rendering work begins.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatHTML Format = "html"
)

// ParseFormat validates a format selector. An unknown format is a
// configuration error, not a rendering-time failure.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatSVG, FormatPNG, FormatHTML:
		return Format(s), nil
	default:
		return "", apperrors.NewConfigError(
			fmt.Sprintf("invalid plot format %q: must be one of svg, png, html", s), nil)
	}
}

// Ext returns the file extension for the format.
func (f Format) Ext() string {
	return string(f)
}

// statusColors is the fixed status-to-color mapping, consistent across
// the whole chart regardless of format.
var statusColors = map[string]drawing.Color{
	soma.StatusCompleted:     {R: 0x2E, G: 0x8B, B: 0x57, A: 255}, // sea green
	soma.StatusPendingReview: {R: 0xFF, G: 0xD7, B: 0x00, A: 255}, // gold
	soma.StatusHold:          {R: 0xFF, G: 0x63, B: 0x47, A: 255}, // tomato
	soma.StatusUntraceable:   {R: 0x69, G: 0x69, B: 0x69, A: 255}, // dim gray
	soma.StatusInProgress:    {R: 0x41, G: 0x69, B: 0xE1, A: 255}, // royal blue
	soma.StatusIncomplete:    {R: 0xFF, G: 0xA5, B: 0x00, A: 255}, // orange
}

// fallbackColor is used for statuses outside the named taxonomy.
var fallbackColor = drawing.Color{R: 0xDD, G: 0xA0, B: 0xDD, A: 255} // plum

// StatusColor returns the segment color for a status.
func StatusColor(status string) drawing.Color {
	if color, ok := statusColors[status]; ok {
		return color
	}
	return fallbackColor
}

// Renderer produces stacked-bar visualizations of status distribution
// per sample.
type Renderer struct {
	logger     *slog.Logger
	maxSamples int
}

// NewRenderer creates a renderer. maxSamples caps the number of bars
// for readability; values <= 0 fall back to 50.
func NewRenderer(logger *slog.Logger, maxSamples int) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	if maxSamples <= 0 {
		maxSamples = 50
	}
	return &Renderer{logger: logger, maxSamples: maxSamples}
}

// Render writes a stacked-bar chart of the aggregates to path in the
// given format. X axis is the sample ID, segments are status counts.
// Empty input is reported as an informational empty-result error and
// no file is written.
func (r *Renderer) Render(aggregates []soma.SampleAggregate, format Format, title, path string) error {
	if _, err := ParseFormat(string(format)); err != nil {
		return err
	}
	if len(aggregates) == 0 {
		return apperrors.NewEmptyResultError("no data to chart")
	}

	if len(aggregates) > r.maxSamples {
		r.logger.Warn("too many samples to display, truncating chart",
			slog.Int("sample_count", len(aggregates)),
			slog.Int("max_samples", r.maxSamples))
		aggregates = aggregates[:r.maxSamples]
	}

	r.logger.Info("rendering chart",
		slog.String("path", path),
		slog.String("format", string(format)),
		slog.Int("sample_count", len(aggregates)))

	sbc := r.buildChart(aggregates, title)

	var buf bytes.Buffer
	switch format {
	case FormatPNG:
		if err := sbc.Render(gochart.PNG, &buf); err != nil {
			return apperrors.NewStorageError("failed to render chart", path, err)
		}
	default:
		// svg directly, html wraps the svg
		if err := sbc.Render(gochart.SVG, &buf); err != nil {
			return apperrors.NewStorageError("failed to render chart", path, err)
		}
	}

	out := buf.Bytes()
	if format == FormatHTML {
		wrapped, err := wrapHTML(title, out)
		if err != nil {
			return apperrors.NewStorageError("failed to build HTML page", path, err)
		}
		out = wrapped
	}

	if err := os.WriteFile(path, out, 0644); err != nil {
		return apperrors.NewStorageError("failed to write chart file", path, err)
	}
	return nil
}

// buildChart assembles the stacked bar chart, one bar per sample and
// one segment per observed status in canonical order.
func (r *Renderer) buildChart(aggregates []soma.SampleAggregate, title string) gochart.StackedBarChart {
	statuses := soma.StatusOrder(aggregates)

	bars := make([]gochart.StackedBar, 0, len(aggregates))
	for _, agg := range aggregates {
		values := make([]gochart.Value, 0, len(statuses))
		for _, status := range statuses {
			count := agg.StatusCounts[status]
			if count == 0 {
				continue
			}
			values = append(values, gochart.Value{
				Value: float64(count),
				Label: fmt.Sprintf("%s (%d)", status, count),
				Style: gochart.Style{
					FillColor:   StatusColor(status),
					StrokeColor: drawing.ColorWhite,
					StrokeWidth: 0.5,
				},
			})
		}
		// Blank-status records get their own segment so the bar height
		// matches the sample's record count.
		if n := agg.NoStatusCount(); n > 0 {
			values = append(values, gochart.Value{
				Value: float64(n),
				Label: fmt.Sprintf("No Status (%d)", n),
				Style: gochart.Style{
					FillColor:   fallbackColor,
					StrokeColor: drawing.ColorWhite,
					StrokeWidth: 0.5,
				},
			})
		}
		if len(values) == 0 {
			continue
		}
		bars = append(bars, gochart.StackedBar{
			Name:   agg.SampleID,
			Values: values,
		})
	}

	width := 200 + 80*len(bars)
	if width < 1200 {
		width = 1200
	}

	return gochart.StackedBarChart{
		Title:      title,
		TitleStyle: gochart.Style{FontSize: 14},
		Width:      width,
		Height:     800,
		BarSpacing: 40,
		XAxis:      gochart.Style{FontSize: 10},
		YAxis:      gochart.Style{FontSize: 10},
		Bars:       bars,
	}
}

// htmlPage wraps a rendered SVG in a standalone page for the
// interactive-web format.
var htmlPage = template.Must(template.New("chart").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>body { font-family: sans-serif; margin: 2em; } h1 { font-size: 1.2em; }</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{.SVG}}
</body>
</html>
`))

// wrapHTML embeds the SVG bytes into the page template.
func wrapHTML(title string, svg []byte) ([]byte, error) {
	var buf bytes.Buffer
	err := htmlPage.Execute(&buf, struct {
		Title string
		SVG   template.HTML
	}{Title: title, SVG: template.HTML(svg)})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Package render draws the summary and time series charts as PNG files.
// It contains no business logic: everything it plots is computed upstream.
package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	chart "github.com/wcharczuk/go-chart/v2"
	"go.uber.org/zap"

	"github.com/reposcope/reposcope/internal/domain"
)

// Output file names, one per chart.
const (
	StatusChartFile     = "pr_status_distribution.png"
	UsersChartFile      = "unique_users.png"
	TimelineChartFile   = "pr_timeline.png"
	ComparisonChartFile = "comparison_trend.png"
)

const (
	chartWidth  = 1024
	chartHeight = 512
)

// pngChart is satisfied by every go-chart chart type.
type pngChart interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

// Renderer writes chart images into one output directory.
type Renderer struct {
	dir    string
	logger *zap.Logger
}

// NewRenderer creates a renderer writing into dir, creating it if needed.
func NewRenderer(dir string, logger *zap.Logger) (*Renderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", dir, err)
	}
	return &Renderer{dir: dir, logger: logger}, nil
}

// RenderAll draws every chart the data supports and returns the paths of
// the files written. Charts without enough data are skipped with a log
// entry rather than failed: a repository with one pull request simply has
// no timeline to draw.
func (r *Renderer) RenderAll(summaries []domain.Summary, series map[string]domain.TimeSeries) ([]string, error) {
	builders := []struct {
		file  string
		build func() (pngChart, bool)
	}{
		{StatusChartFile, func() (pngChart, bool) { return statusChart(summaries) }},
		{UsersChartFile, func() (pngChart, bool) { return usersChart(summaries) }},
		{TimelineChartFile, func() (pngChart, bool) { return timelineChart(series) }},
		{ComparisonChartFile, func() (pngChart, bool) { return comparisonChart(series) }},
	}

	var written []string
	for _, b := range builders {
		c, ok := b.build()
		if !ok {
			r.logger.Warn("skipping chart, not enough data", zap.String("chart", b.file))
			continue
		}
		path := filepath.Join(r.dir, b.file)
		if err := r.writePNG(path, c); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func (r *Renderer) writePNG(path string, c pngChart) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file %s: %w", path, err)
	}
	defer f.Close()
	if err := c.Render(chart.PNG, f); err != nil {
		return fmt.Errorf("render chart %s: %w", path, err)
	}
	r.logger.Debug("chart written", zap.String("path", path))
	return nil
}

// statusChart stacks the open and closed pull request counts per repository.
func statusChart(summaries []domain.Summary) (pngChart, bool) {
	var bars []chart.StackedBar
	for _, s := range summaries {
		if s.TotalPRs == 0 {
			continue
		}
		bars = append(bars, chart.StackedBar{
			Name: s.Repo,
			Values: []chart.Value{
				{Value: float64(s.OpenPRs), Label: fmt.Sprintf("open (%d)", s.OpenPRs)},
				{Value: float64(s.ClosedPRs), Label: fmt.Sprintf("closed (%d)", s.ClosedPRs)},
			},
		})
	}
	if len(bars) == 0 {
		return nil, false
	}
	return &chart.StackedBarChart{
		Title:      "Pull Request Status Distribution by Repository",
		Width:      chartWidth,
		Height:     chartHeight,
		BarSpacing: 60,
		Bars:       bars,
	}, true
}

// usersChart plots the unique PR author count per repository.
func usersChart(summaries []domain.Summary) (pngChart, bool) {
	var bars []chart.Value
	var peak float64
	for _, s := range summaries {
		bars = append(bars, chart.Value{
			Value: float64(s.UniqueAuthors),
			Label: s.Repo,
		})
		if float64(s.UniqueAuthors) > peak {
			peak = float64(s.UniqueAuthors)
		}
	}
	if len(bars) == 0 {
		return nil, false
	}
	return &chart.BarChart{
		Title:    "Unique Pull Request Authors by Repository",
		Width:    chartWidth,
		Height:   chartHeight,
		BarWidth: 80,
		// An explicit range keeps the chart drawable when every repository
		// has the same author count.
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: peak + 1},
		},
		Bars: bars,
	}, true
}

// timelineChart plots one line of per-bucket PR counts per repository.
func timelineChart(series map[string]domain.TimeSeries) (pngChart, bool) {
	graph := &chart.Chart{
		Title:  "Pull Request Activity Over Time",
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
	}
	for _, name := range sortedNames(series) {
		ts := series[name]
		// go-chart cannot draw a line through fewer than two points.
		if len(ts) < 2 {
			continue
		}
		graph.Series = append(graph.Series, lineSeries(name, ts, false))
	}
	if len(graph.Series) == 0 {
		return nil, false
	}
	widenFlatRange(graph)
	graph.Elements = []chart.Renderable{chart.LegendThin(graph)}
	return graph, true
}

// comparisonChart plots cumulative PR growth for the first two repositories,
// the focused pairwise comparison of the report. Needs two drawable series.
func comparisonChart(series map[string]domain.TimeSeries) (pngChart, bool) {
	var picked []string
	for _, name := range sortedNames(series) {
		if len(series[name]) >= 2 {
			picked = append(picked, name)
		}
		if len(picked) == 2 {
			break
		}
	}
	if len(picked) < 2 {
		return nil, false
	}
	graph := &chart.Chart{
		Title:  "Cumulative Pull Request Growth Comparison",
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
	}
	for _, name := range picked {
		graph.Series = append(graph.Series, lineSeries(name, series[name], true))
	}
	widenFlatRange(graph)
	graph.Elements = []chart.Renderable{chart.LegendThin(graph)}
	return graph, true
}

// widenFlatRange gives the chart an explicit y-range when every point has
// the same value, which go-chart otherwise rejects as a zero-delta range.
func widenFlatRange(graph *chart.Chart) {
	var minY, maxY float64
	first := true
	for _, s := range graph.Series {
		ts := s.(chart.TimeSeries)
		for _, y := range ts.YValues {
			if first || y < minY {
				minY = y
			}
			if first || y > maxY {
				maxY = y
			}
			first = false
		}
	}
	if !first && minY == maxY {
		graph.YAxis.Range = &chart.ContinuousRange{Min: minY - 1, Max: maxY + 1}
	}
}

// lineSeries converts a domain time series into a go-chart time series,
// optionally as a running total.
func lineSeries(name string, ts domain.TimeSeries, cumulative bool) chart.TimeSeries {
	s := chart.TimeSeries{Name: name}
	var total float64
	for _, p := range ts {
		total += float64(p.Count)
		s.XValues = append(s.XValues, p.Period)
		if cumulative {
			s.YValues = append(s.YValues, total)
		} else {
			s.YValues = append(s.YValues, float64(p.Count))
		}
	}
	return s
}

func sortedNames(series map[string]domain.TimeSeries) []string {
	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

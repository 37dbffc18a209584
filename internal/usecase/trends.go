package usecase

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/reposcope/reposcope/internal/domain"
)

// Trend direction labels. A series is compared against itself only, so the
// label never depends on what other repositories are in the report.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendFlat       = "flat"
)

// Trend describes how one repository's pull request activity developed over
// the observed period.
type Trend struct {
	Repo          string  `json:"repo"`
	Direction     string  `json:"direction"`
	TotalPRs      int     `json:"total_prs"`
	AvgPerBucket  float64 `json:"avg_per_bucket"`
	PeakPerBucket float64 `json:"peak_per_bucket"`
	// ChangePct is the percent change between the mean of the first half of
	// the series and the mean of the second half. Zero when the early half
	// had no activity.
	ChangePct float64 `json:"change_pct"`
	// Correlation of bucket count against bucket index; zero when undefined
	// (fewer than two buckets or constant activity).
	Correlation float64 `json:"correlation"`
}

// TrendReport is the cross-repository trend analysis. Trends are ordered by
// repository name; the comparative fields are empty when fewer than two
// repositories have data.
type TrendReport struct {
	Bucket           domain.Bucket `json:"bucket"`
	Trends           []Trend       `json:"trends"`
	MostActive       string        `json:"most_active,omitempty"`
	LeastActive      string        `json:"least_active,omitempty"`
	FastestGrowing   string        `json:"fastest_growing,omitempty"`
	FastestDeclining string        `json:"fastest_declining,omitempty"`
}

// DescribeTrends analyzes every repository's time series and ranks the
// repositories against each other. The result is deterministic: ties in the
// rankings are broken by repository name.
func DescribeTrends(series map[string]domain.TimeSeries, bucket domain.Bucket) TrendReport {
	report := TrendReport{Bucket: bucket}
	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		report.Trends = append(report.Trends, describeSeries(name, series[name]))
	}
	rankTrends(&report)
	return report
}

// describeSeries derives the per-repository trend from the shape of its own
// series. The direction compares the mean bucket count of the first half
// against the second half, so a constant series stays flat regardless of an
// odd or even length; a series shorter than two buckets has no halves to
// compare and is flat by definition.
func describeSeries(name string, ts domain.TimeSeries) Trend {
	t := Trend{Repo: name, Direction: TrendFlat, TotalPRs: ts.Total()}
	counts := ts.Counts()
	t.AvgPerBucket = meanOrZero(counts)
	if max, err := stats.Max(counts); err == nil {
		t.PeakPerBucket = max
	}
	if len(ts) < 2 {
		return t
	}

	mid := len(counts) / 2
	early := meanOrZero(counts[:mid])
	late := meanOrZero(counts[mid:])
	switch {
	case late > early:
		t.Direction = TrendIncreasing
	case late < early:
		t.Direction = TrendDecreasing
	}
	if early > 0 {
		t.ChangePct = (late - early) / early * 100
	}

	index := make([]float64, len(counts))
	for i := range index {
		index[i] = float64(i)
	}
	// A constant series has zero variance, which comes back as NaN.
	if corr, err := stats.Correlation(index, counts); err == nil && !math.IsNaN(corr) && !math.IsInf(corr, 0) {
		t.Correlation = corr
	}
	return t
}

// rankTrends fills the comparative fields. Trends are already sorted by
// repository name, so the strict comparisons below resolve ties in favor of
// the lexically smaller name.
func rankTrends(report *TrendReport) {
	if len(report.Trends) < 2 {
		return
	}
	most, least := report.Trends[0], report.Trends[0]
	var growing, declining *Trend
	for i := range report.Trends {
		t := report.Trends[i]
		if t.TotalPRs > most.TotalPRs {
			most = t
		}
		if t.TotalPRs < least.TotalPRs {
			least = t
		}
		if t.ChangePct > 0 && (growing == nil || t.ChangePct > growing.ChangePct) {
			growing = &report.Trends[i]
		}
		if t.ChangePct < 0 && (declining == nil || t.ChangePct < declining.ChangePct) {
			declining = &report.Trends[i]
		}
	}
	report.MostActive = most.Repo
	report.LeastActive = least.Repo
	if growing != nil {
		report.FastestGrowing = growing.Repo
	}
	if declining != nil {
		report.FastestDeclining = declining.Repo
	}
}

// String renders the report as the human-readable analysis printed on the
// command line.
func (r TrendReport) String() string {
	if len(r.Trends) == 0 {
		return "No time series data available for trend analysis."
	}

	rule := strings.Repeat("=", 60)
	lines := []string{rule, "TEMPORAL TREND ANALYSIS", rule, ""}

	for _, t := range r.Trends {
		lines = append(lines,
			fmt.Sprintf("Repository: %s", t.Repo),
			fmt.Sprintf("  Total PRs analyzed: %d", t.TotalPRs),
			fmt.Sprintf("  Average PRs per %s: %.2f", r.Bucket, t.AvgPerBucket),
			fmt.Sprintf("  Peak PRs per %s: %.0f", r.Bucket, t.PeakPerBucket),
			fmt.Sprintf("  Trend: %s (correlation: %.3f)", t.Direction, t.Correlation),
			fmt.Sprintf("  Change from early to late period: %+.1f%%", t.ChangePct),
			"")
	}

	if r.MostActive != "" {
		lines = append(lines, "COMPARATIVE ANALYSIS:", "",
			fmt.Sprintf("Most active repository: %s", r.MostActive),
			fmt.Sprintf("Least active repository: %s", r.LeastActive))
		if r.FastestGrowing != "" {
			lines = append(lines, fmt.Sprintf("Fastest growing: %s", r.FastestGrowing))
		}
		if r.FastestDeclining != "" {
			lines = append(lines, fmt.Sprintf("Fastest declining: %s", r.FastestDeclining))
		}
		lines = append(lines, "")
	}

	lines = append(lines, rule)
	return strings.Join(lines, "\n")
}

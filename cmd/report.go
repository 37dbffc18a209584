package cmd

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"go.uber.org/zap"

	"github.com/reposcope/reposcope/internal/domain"
	"github.com/reposcope/reposcope/internal/render"
	"github.com/reposcope/reposcope/internal/usecase"
)

// report prints the summary table and trend analysis and renders the
// charts. Shared by the collect and analyze commands.
func report(collection *domain.Collection, bucket domain.Bucket, outDir string, logger *zap.Logger) error {
	printFailures(collection)

	summaries := usecase.ComputeSummaries(collection)
	pterm.DefaultSection.Println("Repository summary statistics")
	if err := printSummaryTable(summaries); err != nil {
		return err
	}

	series := usecase.BuildAllTimeSeries(collection, bucket)
	pterm.DefaultSection.Println("Trend analysis")
	fmt.Println(usecase.DescribeTrends(series, bucket).String())

	renderer, err := render.NewRenderer(outDir, logger)
	if err != nil {
		return err
	}
	written, err := renderer.RenderAll(summaries, series)
	if err != nil {
		return err
	}
	for _, path := range written {
		pterm.Success.Printfln("Chart saved to %s", path)
	}
	return nil
}

func printFailures(collection *domain.Collection) {
	for _, f := range collection.Failures {
		pterm.Warning.Printfln("%s: %s failed: %s", f.Repo, f.Operation, f.Message)
	}
}

func printSummaryTable(summaries []domain.Summary) error {
	data := pterm.TableData{
		{"Repository", "Open", "Closed", "Merged", "Total", "Unique Authors", "Oldest PR"},
	}
	for _, s := range summaries {
		oldest := "N/A"
		if s.OldestPR != nil {
			oldest = s.OldestPR.Format("2006-01-02")
		}
		data = append(data, []string{
			s.Repo,
			strconv.Itoa(s.OpenPRs),
			strconv.Itoa(s.ClosedPRs),
			strconv.Itoa(s.MergedPRs),
			strconv.Itoa(s.TotalPRs),
			strconv.Itoa(s.UniqueAuthors),
			oldest,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// printExtendedStats prints the per-repository statistics that only make
// sense once there is data: merge rate and review effort averages.
func printExtendedStats(summaries []domain.Summary) {
	for _, s := range summaries {
		if s.TotalPRs == 0 {
			continue
		}
		pterm.Info.Printfln("%s: merge rate %.1f%%, avg %.1f comments and %.1f commits per PR",
			s.Repo, s.MergeRate*100, s.AvgComments, s.AvgCommits)
	}
}

package usecase

import (
	"time"

	"github.com/montanaflynn/stats"

	"github.com/reposcope/reposcope/internal/domain"
)

// ComputeSummaries derives a pull request summary for every collected
// repository, ordered by repository name.
func ComputeSummaries(collection *domain.Collection) []domain.Summary {
	summaries := make([]domain.Summary, 0, len(collection.Repos))
	for _, name := range collection.RepoNames() {
		summaries = append(summaries, summarizeRepo(name, collection.Repos[name].PullRequests))
	}
	return summaries
}

func summarizeRepo(name string, prs []domain.PullRequest) domain.Summary {
	s := domain.Summary{Repo: name, TotalPRs: len(prs)}
	authors := make(map[string]struct{})
	comments := make([]float64, 0, len(prs))
	commits := make([]float64, 0, len(prs))

	for i := range prs {
		pr := &prs[i]
		switch pr.State {
		case domain.PRStateOpen:
			s.OpenPRs++
		case domain.PRStateClosed:
			s.ClosedPRs++
		}
		if pr.Merged() {
			s.MergedPRs++
		}
		if pr.Author != "" {
			authors[pr.Author] = struct{}{}
		}
		comments = append(comments, float64(pr.Comments))
		commits = append(commits, float64(pr.Commits))
		if s.OldestPR == nil || pr.CreatedAt.Before(*s.OldestPR) {
			t := pr.CreatedAt
			s.OldestPR = &t
		}
	}

	s.UniqueAuthors = len(authors)
	if s.TotalPRs > 0 {
		s.MergeRate = float64(s.MergedPRs) / float64(s.TotalPRs)
		s.AvgComments = meanOrZero(comments)
		s.AvgCommits = meanOrZero(commits)
	}
	return s
}

// BuildTimeSeries counts pull requests opened per period, one point per
// bucket from the earliest to the latest observed period. Interior gaps are
// filled with zero so trend math sees a continuous series. An empty input
// yields a nil series.
func BuildTimeSeries(prs []domain.PullRequest, bucket domain.Bucket) domain.TimeSeries {
	if len(prs) == 0 {
		return nil
	}
	counts := make(map[time.Time]int, len(prs))
	var first, last time.Time
	for i := range prs {
		period := bucket.Truncate(prs[i].CreatedAt)
		counts[period]++
		if first.IsZero() || period.Before(first) {
			first = period
		}
		if period.After(last) {
			last = period
		}
	}

	series := make(domain.TimeSeries, 0, len(counts))
	for period := first; !period.After(last); period = bucket.Next(period) {
		series = append(series, domain.Point{Period: period, Count: counts[period]})
	}
	return series
}

// BuildAllTimeSeries builds one time series per collected repository,
// omitting repositories without any pull requests.
func BuildAllTimeSeries(collection *domain.Collection, bucket domain.Bucket) map[string]domain.TimeSeries {
	all := make(map[string]domain.TimeSeries, len(collection.Repos))
	for name, repo := range collection.Repos {
		if series := BuildTimeSeries(repo.PullRequests, bucket); series != nil {
			all[name] = series
		}
	}
	return all
}

func meanOrZero(values []float64) float64 {
	mean, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return mean
}

package domain

import "time"

// Summary holds the per-repository scalar metrics derived from its pull
// requests. Summaries are recomputed on demand and never persisted on
// their own.
type Summary struct {
	Repo          string     `json:"repo"`
	OpenPRs       int        `json:"open_prs"`
	ClosedPRs     int        `json:"closed_prs"`
	MergedPRs     int        `json:"merged_prs"`
	TotalPRs      int        `json:"total_prs"`
	UniqueAuthors int        `json:"unique_authors"`
	OldestPR      *time.Time `json:"oldest_pr,omitempty"`
	MergeRate     float64    `json:"merge_rate"`
	AvgComments   float64    `json:"avg_comments"`
	AvgCommits    float64    `json:"avg_commits"`
}

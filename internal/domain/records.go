// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Pull request states as reported by the GitHub REST API.
const (
	PRStateOpen   = "open"
	PRStateClosed = "closed"
)

// SplitRepoName splits a repository identifier of the form "owner/name"
// into its two parts.
func SplitRepoName(fullName string) (owner, name string, err error) {
	parts := strings.Split(fullName, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository identifier %q: want owner/name", fullName)
	}
	return parts[0], parts[1], nil
}

// Metadata holds the repository-level fields kept from the metadata endpoint.
type Metadata struct {
	Description   string    `json:"description,omitempty"`
	DefaultBranch string    `json:"default_branch,omitempty"`
	Stars         int       `json:"stars"`
	Forks         int       `json:"forks"`
	OpenIssues    int       `json:"open_issues"`
	Language      string    `json:"language,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// PullRequest is a single pull request record. It is immutable once fetched.
type PullRequest struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	State     string     `json:"state"`
	Author    string     `json:"author"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	MergedAt  *time.Time `json:"merged_at,omitempty"`
	Comments  int        `json:"comments"`
	Commits   int        `json:"commits"`
	Additions int        `json:"additions"`
	Deletions int        `json:"deletions"`
}

// Merged reports whether the pull request was merged rather than just closed.
func (pr PullRequest) Merged() bool {
	return pr.MergedAt != nil
}

// Profile holds the fields scraped from a user's public profile page.
// All fields are optional; an empty string means the field was absent
// from the page. Follower counts keep the display form ("1.2k").
type Profile struct {
	DisplayName  string `json:"display_name,omitempty"`
	Bio          string `json:"bio,omitempty"`
	Location     string `json:"location,omitempty"`
	Followers    string `json:"followers,omitempty"`
	Following    string `json:"following,omitempty"`
	Repositories string `json:"repositories,omitempty"`
}

// Empty reports whether no profile field was extracted at all.
func (p Profile) Empty() bool {
	return p == Profile{}
}

// Contributor is a repository contributor. Profile is populated lazily by
// scraping and stays nil when scraping was skipped or failed.
type Contributor struct {
	Login         string   `json:"login"`
	Contributions int      `json:"contributions"`
	Profile       *Profile `json:"profile,omitempty"`
}

// Repository bundles everything collected for one repository.
// It is created on first collection and replaced wholesale on re-collection.
type Repository struct {
	FullName     string        `json:"full_name"`
	Metadata     Metadata      `json:"metadata"`
	PullRequests []PullRequest `json:"pull_requests"`
	Contributors []Contributor `json:"contributors"`
}

// Failure records a collection error for a single repository without
// aborting the rest of the run.
type Failure struct {
	Repo      string `json:"repo"`
	Operation string `json:"operation"`
	Message   string `json:"message"`
}

// Collection is the aggregated state over all requested repositories.
// Failed repositories appear in Failures and never in Repos.
type Collection struct {
	Repos    map[string]Repository `json:"repositories"`
	Failures []Failure             `json:"failures,omitempty"`
}

// NewCollection returns an empty collection ready to be filled.
func NewCollection() *Collection {
	return &Collection{Repos: make(map[string]Repository)}
}

// RepoNames returns the collected repository identifiers in lexical order,
// for deterministic iteration and output.
func (c *Collection) RepoNames() []string {
	names := make([]string, 0, len(c.Repos))
	for name := range c.Repos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RecordFailure appends a per-repository failure to the collection report.
func (c *Collection) RecordFailure(repo, operation string, err error) {
	c.Failures = append(c.Failures, Failure{Repo: repo, Operation: operation, Message: err.Error()})
}

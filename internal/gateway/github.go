// Package gateway provides a gateway to GitHub, abstracting away the
// underlying REST client and the plain HTTP fetches of public profile pages.
package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v62/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/reposcope/reposcope/internal/config"
	"github.com/reposcope/reposcope/internal/domain"
)

const (
	defaultPerPage = 100
	userAgent      = "reposcope/1.0"

	// Upper bound for the transparent secondary-rate-limit sleep. Primary
	// rate limits are not waited out; they surface as *RateLimitError.
	maxSecondaryLimitSleep = 30 * time.Second
)

// Fetcher defines the behavior of a gateway for fetching repository and user
// information from GitHub.
type Fetcher interface {
	FetchRepoMetadata(ctx context.Context, fullName string) (domain.Metadata, error)
	FetchPullRequests(ctx context.Context, fullName, state string) ([]domain.PullRequest, error)
	FetchContributors(ctx context.Context, fullName string) ([]domain.Contributor, error)
	FetchUserProfileHTML(ctx context.Context, username string) ([]byte, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient *github.Client
	// profileClient fetches public profile pages. It deliberately carries no
	// credentials: profile pages live outside the API host and the token
	// must not leak there.
	profileClient  *http.Client
	profileBaseURL string
	logger         *zap.Logger
}

// NewGitHubGateway creates a GitHubGateway authenticated with cfg.Token.
func NewGitHubGateway(cfg config.Config, logger *zap.Logger) (*GitHubGateway, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(maxSecondaryLimitSleep, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	restClient := github.NewClient(httpClient)
	if cfg.APIBaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(cfg.APIBaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("failed to parse API base URL %q: %w", cfg.APIBaseURL, err)
		}
		restClient.BaseURL = base
	}
	return &GitHubGateway{
		restClient:     restClient,
		profileClient:  &http.Client{Timeout: cfg.HTTPTimeout},
		profileBaseURL: strings.TrimSuffix(cfg.ProfileBaseURL, "/"),
		logger:         logger,
	}, nil
}

// FetchRepoMetadata fetches descriptive metadata for a single repository.
func (g *GitHubGateway) FetchRepoMetadata(ctx context.Context, fullName string) (domain.Metadata, error) {
	owner, name, err := domain.SplitRepoName(fullName)
	if err != nil {
		return domain.Metadata{}, err
	}
	g.logger.Debug("fetching repository metadata", zap.String("repo", fullName))
	repo, _, err := g.restClient.Repositories.Get(ctx, owner, name)
	if err != nil {
		return domain.Metadata{}, mapAPIError("fetch metadata for", fullName, err)
	}
	return domain.Metadata{
		Description:   repo.GetDescription(),
		DefaultBranch: repo.GetDefaultBranch(),
		Stars:         repo.GetStargazersCount(),
		Forks:         repo.GetForksCount(),
		OpenIssues:    repo.GetOpenIssuesCount(),
		Language:      repo.GetLanguage(),
		CreatedAt:     repo.GetCreatedAt().Time,
	}, nil
}

// FetchPullRequests fetches every pull request of the repository in the given
// state ("open", "closed" or "all"), following pagination to the last page.
func (g *GitHubGateway) FetchPullRequests(ctx context.Context, fullName, state string) ([]domain.PullRequest, error) {
	owner, name, err := domain.SplitRepoName(fullName)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("fetching pull requests", zap.String("repo", fullName), zap.String("state", state))
	opts := &github.PullRequestListOptions{
		State:       state,
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: defaultPerPage},
	}
	var prs []domain.PullRequest
	for {
		page, resp, err := g.restClient.PullRequests.List(ctx, owner, name, opts)
		if err != nil {
			return nil, mapAPIError("list pull requests for", fullName, err)
		}
		for _, pr := range page {
			prs = append(prs, toPullRequest(pr))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		g.logger.Debug("fetching next page of pull requests", zap.String("repo", fullName), zap.Int("page", resp.NextPage))
	}
	return prs, nil
}

// FetchContributors fetches the repository's contributors, following
// pagination to the last page.
func (g *GitHubGateway) FetchContributors(ctx context.Context, fullName string) ([]domain.Contributor, error) {
	owner, name, err := domain.SplitRepoName(fullName)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("fetching contributors", zap.String("repo", fullName))
	opts := &github.ListContributorsOptions{
		ListOptions: github.ListOptions{PerPage: defaultPerPage},
	}
	var contributors []domain.Contributor
	for {
		page, resp, err := g.restClient.Repositories.ListContributors(ctx, owner, name, opts)
		if err != nil {
			return nil, mapAPIError("list contributors for", fullName, err)
		}
		for _, c := range page {
			contributors = append(contributors, domain.Contributor{
				Login:         normalizeLogin(c.GetLogin()),
				Contributions: c.GetContributions(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		g.logger.Debug("fetching next page of contributors", zap.String("repo", fullName), zap.Int("page", resp.NextPage))
	}
	return contributors, nil
}

// FetchUserProfileHTML fetches the raw HTML of a user's public profile page.
func (g *GitHubGateway) FetchUserProfileHTML(ctx context.Context, username string) ([]byte, error) {
	endpoint := g.profileBaseURL + "/" + url.PathEscape(username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build profile request for %s: %w", username, err)
	}
	req.Header.Set("User-Agent", userAgent)
	g.logger.Debug("fetching profile page", zap.String("user", username))
	resp, err := g.profileClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch profile for %s: %w", username, err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("fetch profile for %s: %w", username, ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		resetAt := time.Now()
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if d, err := time.ParseDuration(retryAfter + "s"); err == nil {
				resetAt = resetAt.Add(d)
			}
		}
		return nil, fmt.Errorf("fetch profile for %s: %w", username, &RateLimitError{ResetAt: resetAt})
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch profile for %s: unexpected status %d", username, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read profile for %s: %w", username, err)
	}
	return body, nil
}

// toPullRequest converts the API representation into the domain record.
// Author logins are normalized at ingestion so that every later unique-author
// count compares like with like.
func toPullRequest(pr *github.PullRequest) domain.PullRequest {
	out := domain.PullRequest{
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		State:     pr.GetState(),
		Author:    normalizeLogin(pr.GetUser().GetLogin()),
		CreatedAt: pr.GetCreatedAt().Time,
		UpdatedAt: pr.GetUpdatedAt().Time,
		Comments:  pr.GetComments(),
		Commits:   pr.GetCommits(),
		Additions: pr.GetAdditions(),
		Deletions: pr.GetDeletions(),
	}
	if pr.ClosedAt != nil {
		t := pr.ClosedAt.Time
		out.ClosedAt = &t
	}
	if pr.MergedAt != nil {
		t := pr.MergedAt.Time
		out.MergedAt = &t
	}
	return out
}

func normalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

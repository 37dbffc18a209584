// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/reposcope/reposcope/internal/domain"
	"github.com/reposcope/reposcope/internal/gateway"
	"github.com/reposcope/reposcope/internal/profile"
)

// Collector is the use case for gathering repository data. It orchestrates
// the metadata, pull request, contributor and profile fetches for every
// requested repository.
type Collector struct {
	fetcher     gateway.Fetcher
	logger      *zap.Logger
	maxProfiles int
}

// NewCollector creates a new Collector instance. maxProfiles caps how many
// contributor profiles are scraped per repository.
func NewCollector(fetcher gateway.Fetcher, logger *zap.Logger, maxProfiles int) *Collector {
	return &Collector{
		fetcher:     fetcher,
		logger:      logger,
		maxProfiles: maxProfiles,
	}
}

// Collect gathers data for the named repositories, one at a time and in the
// given order. Failures fall into three classes:
//
//   - per-repository failures (unknown repository, transport errors) are
//     recorded in the collection and the remaining repositories still run;
//   - bad credentials abort the run immediately, since every later request
//     would fail the same way;
//   - an exhausted rate limit stops the run, but everything gathered so far
//     is returned alongside the error so it can still be saved and analyzed.
func (c *Collector) Collect(ctx context.Context, repos []string) (*domain.Collection, error) {
	collection := domain.NewCollection()
	// Profiles already scraped in this run, shared across repositories so a
	// user contributing to several repositories is fetched once.
	scraped := make(map[string]*domain.Profile)

	for _, fullName := range repos {
		if err := ctx.Err(); err != nil {
			return collection, err
		}
		c.logger.Info("collecting repository", zap.String("repo", fullName))

		repo, op, err := c.collectRepo(ctx, fullName, scraped, collection)
		if err != nil {
			var rateErr *gateway.RateLimitError
			switch {
			case errors.As(err, &rateErr):
				collection.RecordFailure(fullName, op, err)
				c.logger.Warn("rate limit exhausted, stopping collection",
					zap.String("repo", fullName),
					zap.Time("reset_at", rateErr.ResetAt))
				return collection, err
			case errors.Is(err, gateway.ErrUnauthorized):
				return collection, fmt.Errorf("authentication failed: %w", err)
			default:
				collection.RecordFailure(fullName, op, err)
				c.logger.Warn("skipping repository",
					zap.String("repo", fullName),
					zap.String("operation", op),
					zap.Error(err))
				continue
			}
		}
		collection.Repos[fullName] = repo
		c.logger.Info("repository collected",
			zap.String("repo", fullName),
			zap.Int("pull_requests", len(repo.PullRequests)),
			zap.Int("contributors", len(repo.Contributors)))
	}
	return collection, nil
}

// collectRepo fetches everything for a single repository. On failure it
// reports the operation that failed so the caller can record it.
func (c *Collector) collectRepo(ctx context.Context, fullName string, scraped map[string]*domain.Profile, collection *domain.Collection) (domain.Repository, string, error) {
	meta, err := c.fetcher.FetchRepoMetadata(ctx, fullName)
	if err != nil {
		return domain.Repository{}, "fetch metadata", err
	}
	prs, err := c.fetcher.FetchPullRequests(ctx, fullName, "all")
	if err != nil {
		return domain.Repository{}, "list pull requests", err
	}
	contributors, err := c.fetcher.FetchContributors(ctx, fullName)
	if err != nil {
		return domain.Repository{}, "list contributors", err
	}
	if err := c.attachProfiles(ctx, fullName, contributors, scraped, collection); err != nil {
		return domain.Repository{}, "scrape profiles", err
	}
	return domain.Repository{
		FullName:     fullName,
		Metadata:     meta,
		PullRequests: prs,
		Contributors: contributors,
	}, "", nil
}

// attachProfiles scrapes the public profiles of the repository's top
// contributors, up to the configured cap. A failed or unparseable profile is
// recorded and skipped; only an exhausted rate limit is returned, because it
// dooms every later fetch as well.
func (c *Collector) attachProfiles(ctx context.Context, fullName string, contributors []domain.Contributor, scraped map[string]*domain.Profile, collection *domain.Collection) error {
	limit := len(contributors)
	if c.maxProfiles >= 0 && c.maxProfiles < limit {
		limit = c.maxProfiles
	}
	for i := 0; i < limit; i++ {
		login := contributors[i].Login
		if login == "" {
			continue
		}
		if cached, ok := scraped[login]; ok {
			contributors[i].Profile = cached
			continue
		}

		html, err := c.fetcher.FetchUserProfileHTML(ctx, login)
		if err != nil {
			var rateErr *gateway.RateLimitError
			if errors.As(err, &rateErr) {
				return err
			}
			collection.RecordFailure(fullName, "scrape profile "+login, err)
			c.logger.Debug("skipping profile", zap.String("user", login), zap.Error(err))
			continue
		}
		parsed, err := profile.Parse(html)
		if err != nil {
			collection.RecordFailure(fullName, "parse profile "+login, err)
			continue
		}
		p := &parsed
		scraped[login] = p
		contributors[i].Profile = p
	}
	return nil
}

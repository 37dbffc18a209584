package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/reposcope/reposcope/internal/domain"
)

// setupTestGateway creates a GitHubGateway that communicates with a mock HTTP server.
func setupTestGateway(t *testing.T, handler http.Handler) (*GitHubGateway, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)

	restClient := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL

	gateway := &GitHubGateway{
		restClient:     restClient,
		profileClient:  server.Client(),
		profileBaseURL: server.URL,
		logger:         zap.NewNop(),
	}
	return gateway, server
}

func TestGitHubGateway_FetchRepoMetadata(t *testing.T) {
	resetAt := time.Now().Add(20 * time.Minute).Truncate(time.Second)

	testCases := []struct {
		name        string
		repo        string
		handlerFunc func(w http.ResponseWriter, r *http.Request)
		expected    func(t *testing.T, got domain.Metadata, err error)
	}{
		{
			name: "happy path - maps repository fields",
			repo: "numpy/numpy",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/numpy/numpy", r.URL.Path)
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, `{
					"description": "Scientific computing",
					"default_branch": "main",
					"stargazers_count": 25000,
					"forks_count": 9000,
					"open_issues_count": 2100,
					"language": "Python",
					"created_at": "2010-09-13T23:40:48Z"
				}`)
			},
			expected: func(t *testing.T, got domain.Metadata, err error) {
				require.NoError(t, err)
				assert.Equal(t, "Scientific computing", got.Description)
				assert.Equal(t, "main", got.DefaultBranch)
				assert.Equal(t, 25000, got.Stars)
				assert.Equal(t, 9000, got.Forks)
				assert.Equal(t, 2100, got.OpenIssues)
				assert.Equal(t, "Python", got.Language)
				assert.Equal(t, 2010, got.CreatedAt.Year())
			},
		},
		{
			name: "invalid repository name is rejected before any request",
			repo: "not-a-full-name",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				t.Error("no request expected for an invalid repository name")
				http.Error(w, "unexpected request", http.StatusBadRequest)
			},
			expected: func(t *testing.T, _ domain.Metadata, err error) {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "owner/name")
			},
		},
		{
			name: "missing repository maps to ErrNotFound",
			repo: "ghost/missing",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"message": "Not Found"}`)
			},
			expected: func(t *testing.T, _ domain.Metadata, err error) {
				assert.ErrorIs(t, err, ErrNotFound)
				assert.Contains(t, err.Error(), "ghost/missing")
			},
		},
		{
			name: "bad credentials map to ErrUnauthorized",
			repo: "numpy/numpy",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprint(w, `{"message": "Bad credentials"}`)
			},
			expected: func(t *testing.T, _ domain.Metadata, err error) {
				assert.ErrorIs(t, err, ErrUnauthorized)
			},
		},
		{
			name: "exhausted quota maps to RateLimitError with reset time",
			repo: "numpy/numpy",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Ratelimit-Limit", "5000")
				w.Header().Set("X-Ratelimit-Remaining", "0")
				w.Header().Set("X-Ratelimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
				w.WriteHeader(http.StatusForbidden)
				fmt.Fprint(w, `{"message": "API rate limit exceeded"}`)
			},
			expected: func(t *testing.T, _ domain.Metadata, err error) {
				var rateErr *RateLimitError
				require.ErrorAs(t, err, &rateErr)
				assert.Equal(t, resetAt.Unix(), rateErr.ResetAt.Unix())
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, server := setupTestGateway(t, http.HandlerFunc(tc.handlerFunc))
			defer server.Close()
			got, err := gateway.FetchRepoMetadata(context.Background(), tc.repo)
			tc.expected(t, got, err)
		})
	}
}

func TestGitHubGateway_FetchPullRequests(t *testing.T) {
	t.Run("follows pagination across pages and maps fields", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/repos/org/repo/pulls", r.URL.Path)
			assert.Equal(t, "all", r.URL.Query().Get("state"))
			assert.Equal(t, "created", r.URL.Query().Get("sort"))
			assert.Equal(t, "100", r.URL.Query().Get("per_page"))

			switch r.URL.Query().Get("page") {
			case "", "1":
				w.Header().Set("Link", `</repos/org/repo/pulls?page=2>; rel="next", </repos/org/repo/pulls?page=2>; rel="last"`)
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, `[
					{"number": 2, "title": "Second", "state": "open", "user": {"login": "Alice"},
					 "created_at": "2024-02-01T09:00:00Z", "updated_at": "2024-02-02T09:00:00Z",
					 "comments": 3, "commits": 2, "additions": 10, "deletions": 4}
				]`)
			case "2":
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, `[
					{"number": 1, "title": "First", "state": "closed", "user": {"login": "bob"},
					 "created_at": "2024-01-01T09:00:00Z", "updated_at": "2024-01-05T09:00:00Z",
					 "closed_at": "2024-01-05T09:00:00Z", "merged_at": "2024-01-05T09:00:00Z"}
				]`)
			default:
				t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
				http.Error(w, "unexpected page", http.StatusBadRequest)
			}
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()

		prs, err := gateway.FetchPullRequests(context.Background(), "org/repo", "all")
		require.NoError(t, err)
		require.Len(t, prs, 2)

		assert.Equal(t, 2, prs[0].Number)
		assert.Equal(t, "alice", prs[0].Author, "author logins are lowercased at ingestion")
		assert.Equal(t, 3, prs[0].Comments)
		assert.Nil(t, prs[0].MergedAt)
		assert.False(t, prs[0].Merged())

		assert.Equal(t, 1, prs[1].Number)
		assert.Equal(t, "closed", prs[1].State)
		require.NotNil(t, prs[1].ClosedAt)
		require.NotNil(t, prs[1].MergedAt)
		assert.True(t, prs[1].Merged())
	})

	t.Run("empty repository yields no pull requests and no error", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, `[]`)
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()

		prs, err := gateway.FetchPullRequests(context.Background(), "org/empty", "all")
		require.NoError(t, err)
		assert.Empty(t, prs)
	})

	t.Run("API error keeps repository context in message", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"message": "Internal Server Error"}`)
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()

		_, err := gateway.FetchPullRequests(context.Background(), "org/repo", "all")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "list pull requests for org/repo")
	})
}

func TestGitHubGateway_FetchContributors(t *testing.T) {
	t.Run("follows pagination and normalizes logins", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/repos/org/repo/contributors", r.URL.Path)
			switch r.URL.Query().Get("page") {
			case "", "1":
				w.Header().Set("Link", `</repos/org/repo/contributors?page=2>; rel="next"`)
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, `[{"login": "Alice", "contributions": 42}]`)
			case "2":
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, `[{"login": "bob", "contributions": 7}]`)
			default:
				t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
				http.Error(w, "unexpected page", http.StatusBadRequest)
			}
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()

		contributors, err := gateway.FetchContributors(context.Background(), "org/repo")
		require.NoError(t, err)
		require.Len(t, contributors, 2)
		assert.Equal(t, "alice", contributors[0].Login)
		assert.Equal(t, 42, contributors[0].Contributions)
		assert.Equal(t, "bob", contributors[1].Login)
	})

	t.Run("missing repository maps to ErrNotFound", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message": "Not Found"}`)
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()

		_, err := gateway.FetchContributors(context.Background(), "ghost/missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestGitHubGateway_FetchUserProfileHTML(t *testing.T) {
	testCases := []struct {
		name           string
		handlerFunc    func(w http.ResponseWriter, r *http.Request)
		expectedBody   string
		expectError    bool
		expectedTarget error
	}{
		{
			name: "happy path - returns raw page bytes",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/alice", r.URL.Path)
				assert.NotEmpty(t, r.Header.Get("User-Agent"))
				assert.Empty(t, r.Header.Get("Authorization"), "profile fetches must not carry the API token")
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, `<html><span class="p-name">Alice</span></html>`)
			},
			expectedBody: `<html><span class="p-name">Alice</span></html>`,
		},
		{
			name: "missing user maps to ErrNotFound",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			expectError:    true,
			expectedTarget: ErrNotFound,
		},
		{
			name: "throttled page fetch maps to RateLimitError",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "120")
				w.WriteHeader(http.StatusTooManyRequests)
			},
			expectError:    true,
			expectedTarget: &RateLimitError{},
		},
		{
			name: "server error is reported with the username",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			expectError: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, server := setupTestGateway(t, http.HandlerFunc(tc.handlerFunc))
			defer server.Close()

			body, err := gateway.FetchUserProfileHTML(context.Background(), "alice")
			if tc.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "alice")
				switch target := tc.expectedTarget.(type) {
				case *RateLimitError:
					var rateErr *RateLimitError
					assert.ErrorAs(t, err, &rateErr)
				case error:
					assert.ErrorIs(t, err, target)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedBody, string(body))
		})
	}
}

func TestMapAPIError_WrapsUnknownErrors(t *testing.T) {
	cause := errors.New("connection reset")
	err := mapAPIError("fetch metadata for", "org/repo", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "fetch metadata for org/repo")
}

package github

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/go-github/v54/github"

	"github.com/open-sauced/docs-digest/pkg/cache"
)

// DefaultCacheEntries is the number of commit titles remembered between
// lookups.
const DefaultCacheEntries = 4096

// GithubClient looks up the pull requests commits of a single repository
// were merged with.
type GithubClient struct {
	client *github.Client
	owner  string
	repo   string
	titles *cache.TitleLRUCache
}

func NewTokenClient(token, ownerRepo string) (*GithubClient, error) {
	ctx := context.Background()
	return newGithubClient(github.NewTokenClient(ctx, token), ownerRepo)
}

func NewClient(httpClient *http.Client, ownerRepo string) (*GithubClient, error) {
	return newGithubClient(github.NewClient(httpClient), ownerRepo)
}

func newGithubClient(client *github.Client, ownerRepo string) (*GithubClient, error) {
	owner, repo, ok := strings.Cut(ownerRepo, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("repository must be formatted as owner/name: %q", ownerRepo)
	}

	titles, err := cache.NewTitleLRUCache(DefaultCacheEntries)
	if err != nil {
		return nil, err
	}

	return &GithubClient{
		client: client,
		owner:  owner,
		repo:   repo,
		titles: titles,
	}, nil
}

// Repository returns the "owner/name" the client looks pull requests up in.
func (s *GithubClient) Repository() string {
	return s.owner + "/" + s.repo
}

// PullRequestTitle returns the title of the pull request commit sha was
// merged with. ok is false when the commit belongs to no pull request.
// Results are cached, misses included.
func (s *GithubClient) PullRequestTitle(ctx context.Context, sha string) (string, bool, error) {
	if title, hit := s.titles.Get(sha); hit {
		return title, title != "", nil
	}

	prs, _, err := s.client.PullRequests.ListPullRequestsWithCommit(ctx, s.owner, s.repo, sha, &github.ListOptions{PerPage: 100})
	if err != nil {
		return "", false, fmt.Errorf("could not list pull requests for commit %s: %w", sha, err)
	}

	title := PickTitle(prs)
	s.titles.Put(sha, title)
	return title, title != "", nil
}

// PullRequestTitleByNumber returns the title of pull request number. ok is
// false when the repository has no such pull request. Results are cached,
// misses included.
func (s *GithubClient) PullRequestTitleByNumber(ctx context.Context, number int) (string, bool, error) {
	key := "#" + strconv.Itoa(number)
	if title, hit := s.titles.Get(key); hit {
		return title, title != "", nil
	}

	pr, resp, err := s.client.PullRequests.Get(ctx, s.owner, s.repo, number)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			s.titles.Put(key, "")
			return "", false, nil
		}
		return "", false, fmt.Errorf("could not get pull request #%d: %w", number, err)
	}

	title := strings.TrimSpace(pr.GetTitle())
	s.titles.Put(key, title)
	return title, title != "", nil
}

// PickTitle prefers the title of a merged pull request over open or closed
// ones, returning an empty string when there is none.
func PickTitle(prs []*github.PullRequest) string {
	for _, pr := range prs {
		if pr.MergedAt != nil && strings.TrimSpace(pr.GetTitle()) != "" {
			return strings.TrimSpace(pr.GetTitle())
		}
	}
	for _, pr := range prs {
		if title := strings.TrimSpace(pr.GetTitle()); title != "" {
			return title
		}
	}
	return ""
}

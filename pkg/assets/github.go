package assets

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/google/go-github/v68/github"
)

// DefaultReleaseTag is the release media files are attached to when the
// config names none.
const DefaultReleaseTag = "media"

type GitHubConfig struct {
	// Repo is "owner/name".
	Repo       string
	Token      string
	ReleaseTag string

	// BaseURL overrides the REST API origin. Empty means api.github.com.
	BaseURL    string
	HTTPClient *http.Client
}

// GitHubReleases deletes files attached to a single release.
type GitHubReleases struct {
	client *github.Client
	owner  string
	repo   string
	tag    string
}

func NewGitHubReleases(cfg GitHubConfig) (*GitHubReleases, error) {
	client := github.NewClient(cfg.HTTPClient)
	if cfg.Token != "" {
		client = client.WithAuthToken(cfg.Token)
	}
	if cfg.BaseURL != "" {
		base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("github: parse base url: %w", err)
		}
		client.BaseURL = base
	}
	if cfg.ReleaseTag == "" {
		cfg.ReleaseTag = DefaultReleaseTag
	}
	owner, repo, _ := strings.Cut(cfg.Repo, "/")
	return &GitHubReleases{client: client, owner: owner, repo: repo, tag: cfg.ReleaseTag}, nil
}

func (g *GitHubReleases) Name() string { return "github" }

// ReleaseTag is the release assets are looked up in.
func (g *GitHubReleases) ReleaseTag() string { return g.tag }

func (g *GitHubReleases) Match(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	return host == "github.com" ||
		host == "githubusercontent.com" ||
		strings.HasSuffix(host, ".githubusercontent.com")
}

// Delete finds the release asset whose name equals the URL's last path
// segment and deletes it.
func (g *GitHubReleases) Delete(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &ProviderError{Provider: g.Name(), Op: "parse", Cause: err}
	}
	filename := path.Base(u.Path)
	if filename == "." || filename == "/" {
		return &ProviderError{Provider: g.Name(), Op: "parse", Cause: fmt.Errorf("no filename in %s", rawURL)}
	}
	if g.owner == "" || g.repo == "" {
		return &ProviderError{Provider: g.Name(), Op: "parse", Cause: fmt.Errorf("repo must be owner/name")}
	}

	release, resp, err := g.client.Repositories.GetReleaseByTag(ctx, g.owner, g.repo, g.tag)
	if err != nil {
		return g.apiError("get release", resp, err)
	}

	opts := &github.ListOptions{PerPage: 100}
	for {
		page, resp, err := g.client.Repositories.ListReleaseAssets(ctx, g.owner, g.repo, release.GetID(), opts)
		if err != nil {
			return g.apiError("list assets", resp, err)
		}
		for _, a := range page {
			if a.GetName() != filename {
				continue
			}
			resp, err := g.client.Repositories.DeleteReleaseAsset(ctx, g.owner, g.repo, a.GetID())
			if err != nil {
				return g.apiError("delete asset", resp, err)
			}
			return nil
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return &ProviderError{Provider: g.Name(), Op: "find asset", Cause: fmt.Errorf("%w: %s in release %s", ErrAssetNotFound, filename, g.tag)}
}

func (g *GitHubReleases) apiError(op string, resp *github.Response, err error) error {
	pe := &ProviderError{Provider: g.Name(), Op: op, Cause: err}
	if resp != nil && resp.Response != nil {
		pe.StatusCode = resp.StatusCode
	}
	return pe
}

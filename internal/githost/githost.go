// Package githost talks to the repository hosting API. The rest of the tool
// treats it as an opaque capability: existence checks and creation only.
package githost

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v63/github"

	"github.com/kindred-systems/repotool/internal/errors"
)

// Repository is the subset of hosting metadata the provisioner needs.
type Repository struct {
	Name string
	URL  string
}

// Host exposes the two operations provisioning depends on. Get returns
// (nil, nil) when the repository does not exist.
type Host interface {
	Get(ctx context.Context, name string) (*Repository, error)
	Create(ctx context.Context, name string) (*Repository, error)
}

// GitHub implements Host against the GitHub API.
type GitHub struct {
	client *github.Client
	owner  string
}

// NewGitHub builds a GitHub host for the given owner. An empty token makes
// unauthenticated calls; baseURL overrides the API endpoint for tests.
func NewGitHub(owner, token, baseURL string) (*GitHub, error) {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if baseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid host base URL %s: %w", baseURL, err)
		}
	}
	return &GitHub{client: client, owner: owner}, nil
}

func (g *GitHub) Get(ctx context.Context, name string) (*Repository, error) {
	repo, resp, err := g.client.Repositories.Get(ctx, g.owner, name)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.CodeProvision,
			fmt.Sprintf("could not query repository %s/%s", g.owner, name))
	}
	return &Repository{Name: repo.GetName(), URL: repo.GetHTMLURL()}, nil
}

func (g *GitHub) Create(ctx context.Context, name string) (*Repository, error) {
	repo, _, err := g.client.Repositories.Create(ctx, g.owner, &github.Repository{
		Name: github.String(name),
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeProvision,
			fmt.Sprintf("could not create repository %s/%s", g.owner, name))
	}
	return &Repository{Name: repo.GetName(), URL: repo.GetHTMLURL()}, nil
}

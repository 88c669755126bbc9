package github

import (
	"context"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/podrelease/pkg/domain/interfaces"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
)

type client struct {
	githubClient *github.Client
}

// NewClient creates a new GitHub client with App authentication
func NewClient(appID, installationID int64, privateKey []byte) (interfaces.GitHubClient, error) {
	// Create GitHub App transport
	itr, err := ghinstallation.New(http.DefaultTransport, appID, installationID, privateKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub App transport", goerr.V("app_id", appID))
	}

	return &client{
		githubClient: github.NewClient(&http.Client{Transport: itr}),
	}, nil
}

// NewClientWithToken creates a new GitHub client authenticated with a personal access token
func NewClientWithToken(token string) interfaces.GitHubClient {
	return &client{
		githubClient: github.NewClient(nil).WithAuthToken(token),
	}
}

// NewClientWithBaseURL creates a token client against a GitHub Enterprise or test server
func NewClientWithBaseURL(token, baseURL string) (interfaces.GitHubClient, error) {
	gh, err := github.NewClient(nil).WithAuthToken(token).WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to set GitHub base URL", goerr.V("base_url", baseURL))
	}
	return &client{githubClient: gh}, nil
}

// CreateRelease creates a published release for an existing tag
func (c *client) CreateRelease(ctx context.Context, owner, repo string, input *model.GitHubRelease) (string, error) {
	release, _, err := c.githubClient.Repositories.CreateRelease(ctx, owner, repo, &github.RepositoryRelease{
		TagName: github.Ptr(input.TagName),
		Name:    github.Ptr(input.Name),
		Body:    github.Ptr(input.Body),
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to create GitHub release",
			goerr.V("owner", owner),
			goerr.V("repo", repo),
			goerr.V("tag", input.TagName),
		)
	}

	return release.GetHTMLURL(), nil
}

package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/podrelease/pkg/domain/interfaces"
	"github.com/m-mizutani/podrelease/pkg/infra/github"
	"github.com/urfave/cli/v3"
)

// GitHub holds GitHub API credentials used to create downstream releases
type GitHub struct {
	Token          string `masq:"secret"`
	BaseURL        string
	AppID          int64
	InstallationID int64
	PrivateKey     string `masq:"secret"`
	PrivateKeyFile string
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "GitHub token for creating releases",
			Destination: &c.Token,
			Sources:     cli.EnvVars("PODRELEASE_GITHUB_TOKEN", "GITHUB_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "github-base-url",
			Usage:       "GitHub Enterprise API base URL",
			Destination: &c.BaseURL,
			Sources:     cli.EnvVars("PODRELEASE_GITHUB_BASE_URL"),
		},
		&cli.Int64Flag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID, used instead of a token",
			Destination: &c.AppID,
			Sources:     cli.EnvVars("PODRELEASE_GITHUB_APP_ID"),
		},
		&cli.Int64Flag{
			Name:        "github-installation-id",
			Usage:       "GitHub App installation ID",
			Destination: &c.InstallationID,
			Sources:     cli.EnvVars("PODRELEASE_GITHUB_INSTALLATION_ID"),
		},
		&cli.StringFlag{
			Name:        "github-private-key",
			Usage:       "GitHub App private key (PEM)",
			Destination: &c.PrivateKey,
			Sources:     cli.EnvVars("PODRELEASE_GITHUB_PRIVATE_KEY"),
		},
		&cli.StringFlag{
			Name:        "github-private-key-file",
			Usage:       "Path to the GitHub App private key",
			Destination: &c.PrivateKeyFile,
			Sources:     cli.EnvVars("PODRELEASE_GITHUB_PRIVATE_KEY_FILE"),
		},
	}
}

// NewClient builds a GitHub client from App credentials or a token.
// It returns nil when no credential is configured.
func (c *GitHub) NewClient() (interfaces.GitHubClient, error) {
	if c.AppID != 0 {
		key := []byte(c.PrivateKey)
		if c.PrivateKeyFile != "" {
			data, err := os.ReadFile(c.PrivateKeyFile)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to read GitHub App private key", goerr.V("path", c.PrivateKeyFile))
			}
			key = data
		}
		if len(key) == 0 || c.InstallationID == 0 {
			return nil, goerr.New("GitHub App requires installation ID and private key", goerr.V("app_id", c.AppID))
		}
		return github.NewClient(c.AppID, c.InstallationID, key)
	}

	if c.Token == "" {
		return nil, nil
	}
	if c.BaseURL != "" {
		return github.NewClientWithBaseURL(c.Token, c.BaseURL)
	}
	return github.NewClientWithToken(c.Token), nil
}

// Webhook holds settings of the GitHub release webhook
type Webhook struct {
	Secret    string `masq:"secret"`
	TagPrefix string
}

// Flags returns CLI flags for webhook configuration
func (c *Webhook) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-webhook-secret",
			Usage:       "GitHub webhook secret",
			Required:    true,
			Destination: &c.Secret,
			Sources:     cli.EnvVars("PODRELEASE_GITHUB_WEBHOOK_SECRET"),
		},
		&cli.StringFlag{
			Name:        "tag-prefix",
			Usage:       "Prefix stripped from release tags to get the version",
			Value:       "",
			Destination: &c.TagPrefix,
			Sources:     cli.EnvVars("PODRELEASE_TAG_PREFIX"),
		},
	}
}

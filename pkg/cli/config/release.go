package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

// Pipeline holds the path of the release.toml layout file
type Pipeline struct {
	ConfigPath string
}

// Flags returns CLI flags for the pipeline layout
func (c *Pipeline) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Pipeline configuration file",
			Value:       "release.toml",
			Destination: &c.ConfigPath,
			Sources:     cli.EnvVars("PODRELEASE_CONFIG"),
		},
	}
}

// Load reads the pipeline layout
func (c *Pipeline) Load() (*model.Config, error) {
	return model.LoadConfig(c.ConfigPath)
}

// Release holds the descriptor of the release given on the command line
type Release struct {
	Version       string
	Changelog     string
	ChangelogFile string
}

// Flags returns CLI flags for the release descriptor
func (c *Release) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "version",
			Usage:       "Version to release, e.g. 5.4.1. Defaults to the latest section of sdk.changelog",
			Destination: &c.Version,
			Sources:     cli.EnvVars("PODRELEASE_VERSION"),
		},
		&cli.StringFlag{
			Name:        "changelog",
			Usage:       "Release notes, one entry per line",
			Destination: &c.Changelog,
			Sources:     cli.EnvVars("PODRELEASE_CHANGELOG"),
		},
		&cli.StringFlag{
			Name:        "changelog-file",
			Usage:       "File containing the release notes",
			Destination: &c.ChangelogFile,
			Sources:     cli.EnvVars("PODRELEASE_CHANGELOG_FILE"),
		},
	}
}

// Release builds the release descriptor
func (c *Release) Release() (model.Release, error) {
	if c.Version == "" {
		return model.Release{}, goerr.New("version is required")
	}
	if c.Changelog != "" && c.ChangelogFile != "" {
		return model.Release{}, goerr.New("--changelog and --changelog-file are exclusive")
	}

	notes := c.Changelog
	if c.ChangelogFile != "" {
		data, err := os.ReadFile(c.ChangelogFile)
		if err != nil {
			return model.Release{}, goerr.Wrap(err, "failed to read changelog file", goerr.V("path", c.ChangelogFile))
		}
		notes = string(data)
	}

	return model.Release{Version: c.Version, Changelog: notes}, nil
}

package config

import (
	"context"

	"github.com/m-mizutani/podrelease/pkg/domain/model"
	"github.com/m-mizutani/podrelease/pkg/infra/gcs"
	"github.com/urfave/cli/v3"
)

// Archive holds credentials of the artifact bucket
type Archive struct {
	CredentialsFile string
}

// Flags returns CLI flags for artifact archiving
func (c *Archive) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gcs-credentials",
			Usage:       "Service account key file for the archive bucket, default credentials when empty",
			Destination: &c.CredentialsFile,
			Sources:     cli.EnvVars("PODRELEASE_GCS_CREDENTIALS"),
		},
	}
}

// NewStore opens the bucket configured by [archive]. It returns nil when archiving is disabled.
func (c *Archive) NewStore(ctx context.Context, cfg *model.Config) (*gcs.Store, error) {
	if cfg.Archive == nil {
		return nil, nil
	}
	return gcs.New(ctx, cfg.Archive.Bucket, c.CredentialsFile)
}

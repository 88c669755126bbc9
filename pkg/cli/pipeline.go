package cli

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/podrelease/pkg/cli/config"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
	"github.com/m-mizutani/podrelease/pkg/infra/cocoapods"
	"github.com/m-mizutani/podrelease/pkg/infra/git"
	"github.com/m-mizutani/podrelease/pkg/infra/shell"
	"github.com/m-mizutani/podrelease/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// pipelineConfig groups the flags needed to assemble a pipeline
type pipelineConfig struct {
	layout  config.Pipeline
	github  config.GitHub
	notify  config.Notify
	archive config.Archive
}

func (c *pipelineConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, c.layout.Flags()...)
	flags = append(flags, c.github.Flags()...)
	flags = append(flags, c.notify.Flags()...)
	flags = append(flags, c.archive.Flags()...)
	return flags
}

// build loads release.toml and wires the infrastructure into a pipeline.
// The artifact store is opened only when withArchive is set, so commands that
// never reach the archive stage need no Cloud Storage credentials.
// The returned function releases resources held by the pipeline.
func (c *pipelineConfig) build(ctx context.Context, withArchive bool) (*usecase.Pipeline, *model.Config, func(), error) {
	logger := ctxlog.From(ctx)
	cleanup := func() {}

	cfg, err := c.layout.Load()
	if err != nil {
		return nil, nil, cleanup, err
	}

	runner := shell.New()
	gitClient := git.NewClient(runner)

	waitURL := cfg.Wait.URL
	if waitURL == "" {
		waitURL = cocoapods.DefaultURL
	}
	hooks := usecase.NewHooks(runner, gitClient, cocoapods.NewIndex(waitURL))

	opts := []usecase.Option{
		usecase.WithRunner(runner),
		usecase.WithGitClient(gitClient),
	}

	ghClient, err := c.github.NewClient()
	if err != nil {
		return nil, nil, cleanup, err
	}
	if ghClient != nil {
		opts = append(opts, usecase.WithGitHubClient(ghClient))
	}

	if notifier := c.notify.Notifier(cfg.SDK.Name); notifier != nil {
		opts = append(opts, usecase.WithNotifier(notifier))
	}

	if withArchive {
		store, err := c.archive.NewStore(ctx, cfg)
		if err != nil {
			return nil, nil, cleanup, err
		}
		if store != nil {
			opts = append(opts, usecase.WithArtifactStore(store))
			cleanup = func() {
				if err := store.Close(); err != nil {
					logger.Warn("Failed to close artifact store", "error", err)
				}
			}
		}
	}

	pipeline, err := usecase.NewPipeline(cfg, hooks, opts...)
	if err != nil {
		cleanup()
		return nil, nil, func() {}, goerr.Wrap(err, "failed to create pipeline", goerr.V("config", c.layout.ConfigPath))
	}

	logger.Debug("Pipeline configured",
		"sdk", cfg.SDK.Name,
		"root", cfg.SDK.Root,
		"publish_mode", cfg.Publish.Mode,
		"downstreams", len(cfg.Downstream),
	)
	return pipeline, cfg, cleanup, nil
}

// resolveRelease completes the release descriptor from the latest section of
// sdk.changelog when --version is omitted. Notes given on the command line win.
func resolveRelease(ctx context.Context, releaseCfg *config.Release, cfg *model.Config) (model.Release, error) {
	if releaseCfg.Version != "" {
		return releaseCfg.Release()
	}
	if cfg.SDK.Changelog == "" {
		return model.Release{}, goerr.New("--version is required when sdk.changelog is not set")
	}

	latest, err := usecase.ReadLatestRelease(cfg.Path(cfg.SDK.Changelog))
	if err != nil {
		return model.Release{}, err
	}
	ctxlog.From(ctx).Info("Release version taken from changelog", "version", latest.Version, "changelog", cfg.SDK.Changelog)

	resolved := *releaseCfg
	resolved.Version = latest.Version
	if resolved.Changelog == "" && resolved.ChangelogFile == "" {
		resolved.Changelog = latest.Changelog
	}
	return resolved.Release()
}

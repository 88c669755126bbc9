package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/podrelease/pkg/cli/config"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

func cmdRelease() *cli.Command {
	var (
		pipelineCfg pipelineConfig
		releaseCfg  config.Release
	)

	return &cli.Command{
		Name:  "release",
		Usage: "Run the whole release pipeline",
		Flags: append(pipelineCfg.Flags(), releaseCfg.Flags()...),
		Action: func(ctx context.Context, c *cli.Command) error {
			pipeline, cfg, cleanup, err := pipelineCfg.build(ctx, true)
			if err != nil {
				return err
			}
			defer cleanup()

			release, err := resolveRelease(ctx, &releaseCfg, cfg)
			if err != nil {
				return err
			}

			result, err := pipeline.Run(ctx, release)
			if err != nil {
				return err
			}

			ctxlog.From(ctx).Info("Release finished", "run_id", result.RunID, "version", result.Version)
			return nil
		},
	}
}

func cmdValidate() *cli.Command {
	var (
		pipelineCfg pipelineConfig
		releaseCfg  config.Release
	)

	return &cli.Command{
		Name:  "validate",
		Usage: "Check the podspec and changelog versions, required tools and .strings files",
		Flags: append(pipelineCfg.layout.Flags(), releaseCfg.Flags()...),
		Action: func(ctx context.Context, c *cli.Command) error {
			pipeline, cfg, cleanup, err := pipelineCfg.build(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			release, err := resolveRelease(ctx, &releaseCfg, cfg)
			if err != nil {
				return err
			}

			if err := pipeline.Validate(ctx, release); err != nil {
				return err
			}
			ctxlog.From(ctx).Info("Release is valid", "version", release.Version)
			return nil
		},
	}
}

func cmdBuild() *cli.Command {
	var (
		pipelineCfg pipelineConfig
		releaseCfg  config.Release
	)

	return &cli.Command{
		Name:  "build",
		Usage: "Validate and run the build script",
		Flags: append(pipelineCfg.layout.Flags(), releaseCfg.Flags()...),
		Action: func(ctx context.Context, c *cli.Command) error {
			pipeline, cfg, cleanup, err := pipelineCfg.build(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			release, err := resolveRelease(ctx, &releaseCfg, cfg)
			if err != nil {
				return err
			}

			return pipeline.Build(ctx, release)
		},
	}
}

func cmdSync() *cli.Command {
	var (
		pipelineCfg pipelineConfig
		releaseCfg  config.Release
	)

	flags := append(pipelineCfg.layout.Flags(), pipelineCfg.github.Flags()...)
	flags = append(flags, releaseCfg.Flags()...)

	return &cli.Command{
		Name:  "sync",
		Usage: "Update the downstream repositories only",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			pipeline, cfg, cleanup, err := pipelineCfg.build(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			release, err := resolveRelease(ctx, &releaseCfg, cfg)
			if err != nil {
				return err
			}

			results, err := pipeline.Sync(ctx, release)
			printSyncResults(results)
			return err
		},
	}
}

func printSyncResults(results []model.SyncResult) {
	for _, r := range results {
		switch {
		case r.Status != model.StatusSucceeded:
			fmt.Fprintf(os.Stdout, "%-24s %s: %s\n", r.Repo, r.Status, r.Error)
		case r.ReleaseURL != "":
			fmt.Fprintf(os.Stdout, "%-24s %s %s\n", r.Repo, r.Status, r.ReleaseURL)
		default:
			fmt.Fprintf(os.Stdout, "%-24s %s\n", r.Repo, r.Status)
		}
	}
}

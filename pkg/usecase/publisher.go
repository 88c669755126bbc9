package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/podrelease/pkg/domain/interfaces"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
	"github.com/m-mizutani/podrelease/pkg/domain/types"
)

// NewPublisher creates a hook pushing the podspec according to publish.mode
func NewPublisher(runner interfaces.CommandRunner, git interfaces.GitClient) interfaces.PublishHook {
	return func(ctx context.Context, rc *model.ReleaseContext) error {
		logger := ctxlog.From(ctx)
		p := rc.Config.Publish

		switch p.Mode {
		case model.PublishModeNone:
			logger.Info("Publishing is handled outside of podrelease")
			return nil

		case model.PublishModeCommand:
			manifest := p.Manifest
			if manifest == "" {
				manifest = rc.Config.SDK.Podspec
			}
			return runPublishCommands(ctx, runner, rc, rc.Root, manifest)

		case model.PublishModeDownstream:
			repo := rc.Config.FindDownstream(p.Downstream)
			if repo == nil {
				return goerr.New("publish downstream not found", goerr.V("downstream", p.Downstream))
			}

			scratch, err := os.MkdirTemp("", "podrelease-publish-*")
			if err != nil {
				return goerr.Wrap(err, "failed to create scratch directory")
			}
			defer func() {
				if err := os.RemoveAll(scratch); err != nil {
					logger.Warn("Failed to clean up scratch directory", "dir", scratch, "error", err)
				}
			}()

			dir := filepath.Join(scratch, repo.Name)
			if err := git.Clone(ctx, repo.URL, repo.Branch, dir); err != nil {
				return err
			}

			manifest := p.Manifest
			if manifest == "" {
				manifest = rc.Config.SDK.Name + ".podspec"
			}
			return runPublishCommands(ctx, runner, rc, dir, manifest)

		default:
			return goerr.New("unknown publish mode", goerr.V("mode", p.Mode))
		}
	}
}

// runPublishCommands runs lint then push in dir, replacing {manifest} in their arguments
func runPublishCommands(ctx context.Context, runner interfaces.CommandRunner, rc *model.ReleaseContext, dir, manifest string) error {
	p := rc.Config.Publish
	steps := []struct {
		name string
		argv []string
	}{
		{name: "lint", argv: p.Lint},
		{name: "push", argv: p.Push},
	}

	for _, step := range steps {
		argv := rc.ExpandAll(step.argv)
		for i := range argv {
			argv[i] = strings.ReplaceAll(argv[i], "{manifest}", manifest)
		}

		cmd := model.NewCommand(argv, dir, rc.Config.Build.VersionEnv+"="+rc.Release.Version)
		if cmd == nil {
			continue
		}
		if err := runner.Run(ctx, cmd); err != nil {
			return goerr.Wrap(err, "publish step failed", goerr.V("step", step.name), goerr.V("manifest", manifest))
		}
	}

	ctxlog.From(ctx).Info("Published podspec", "manifest", manifest, "dir", dir)
	return nil
}

// NewWaiter creates a hook polling index until the release version appears.
// Polling is bounded by wait.max_attempts, wait.interval apart.
func NewWaiter(index interfaces.PackageIndex) interfaces.WaitHook {
	return func(ctx context.Context, rc *model.ReleaseContext) error {
		logger := ctxlog.From(ctx)
		w := rc.Config.Wait
		name := rc.Config.SDK.Name
		version := rc.Release.Version
		interval := time.Duration(w.Interval)

		for attempt := 1; attempt <= w.MaxAttempts; attempt++ {
			ok, err := index.Exists(ctx, name, version)
			switch {
			case err != nil:
				logger.Warn("Package index query failed", "attempt", attempt, "error", err)
			case ok:
				logger.Info("Release is available", "name", name, "version", version, "attempt", attempt)
				return nil
			default:
				logger.Info("Release not available yet", "name", name, "version", version, "attempt", attempt, "max_attempts", w.MaxAttempts)
			}

			if attempt == w.MaxAttempts {
				break
			}

			timer := time.NewTimer(interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return goerr.Wrap(ctx.Err(), "waiting for release was cancelled", goerr.V("attempt", attempt))
			case <-timer.C:
			}
		}

		return goerr.Wrap(types.ErrPublishTimeout, "gave up waiting for release",
			goerr.V("name", name),
			goerr.V("version", version),
			goerr.V("attempts", w.MaxAttempts),
			goerr.V("interval", interval.String()),
		)
	}
}

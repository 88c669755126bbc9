package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
	"github.com/m-mizutani/podrelease/pkg/domain/types"
)

// syncDownstreams updates every configured downstream repository in order.
// With the continue policy every repository is attempted and the failures are
// joined; with the abort policy the first failure stops the stage.
func (p *Pipeline) syncDownstreams(ctx context.Context, rc *model.ReleaseContext) ([]model.SyncResult, error) {
	logger := ctxlog.From(ctx)

	if p.git == nil {
		return nil, goerr.New("git client is not configured")
	}

	workspace := p.cfg.Sync.Workspace
	if workspace == "" {
		dir, err := os.MkdirTemp("", "podrelease-sync-*")
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create sync workspace")
		}
		defer func() {
			if err := os.RemoveAll(dir); err != nil {
				logger.Warn("Failed to clean up sync workspace", "dir", dir, "error", err)
			}
		}()
		workspace = dir
	} else if err := os.MkdirAll(workspace, 0755); err != nil {
		return nil, goerr.Wrap(err, "failed to create sync workspace", goerr.V("dir", workspace))
	}

	var results []model.SyncResult
	var errs []error

	for i := range p.cfg.Downstream {
		repo := &p.cfg.Downstream[i]
		repoCtx := ctxlog.With(ctx, logger.With("repo", repo.Name))

		result, err := p.syncRepo(repoCtx, rc, repo, filepath.Join(workspace, repo.Name))
		results = append(results, result)
		if err == nil {
			continue
		}

		ctxlog.From(repoCtx).Error("Downstream sync failed", "error", err)
		errs = append(errs, goerr.Wrap(err, "downstream sync failed", goerr.V("repo", repo.Name)))
		if p.cfg.Sync.Policy == model.SyncPolicyAbort {
			break
		}
	}

	if len(errs) > 0 {
		return results, errors.Join(append([]error{types.ErrSyncFailed}, errs...)...)
	}
	return results, nil
}

func (p *Pipeline) syncRepo(ctx context.Context, rc *model.ReleaseContext, repo *model.DownstreamRepo, dir string) (model.SyncResult, error) {
	logger := ctxlog.From(ctx)
	result := model.SyncResult{Repo: repo.Name, Status: model.StatusFailed}

	err := func() error {
		if repo.Release && p.github == nil {
			return goerr.New("GitHub client is not configured", goerr.V("repo", repo.Name))
		}
		if err := os.RemoveAll(dir); err != nil {
			return goerr.Wrap(err, "failed to clear clone directory", goerr.V("dir", dir))
		}
		if err := p.git.Clone(ctx, repo.URL, repo.Branch, dir); err != nil {
			return err
		}

		target := &model.SyncTarget{Repo: repo, Dir: dir}
		if err := CopyRelease(ctx, rc, target); err != nil {
			return err
		}

		for _, name := range repo.PostCopy {
			logger.Debug("Running post-copy hook", "hook", name)
			if err := p.hooks.PostCopy[name](ctx, rc, target); err != nil {
				return goerr.Wrap(err, "post-copy hook failed", goerr.V("hook", name))
			}
		}

		for _, argv := range repo.Build {
			cmd := model.NewCommand(rc.ExpandAll(argv), dir, p.cfg.Build.VersionEnv+"="+rc.Release.Version)
			if cmd == nil {
				continue
			}
			if p.runner == nil {
				return goerr.New("command runner is not configured")
			}
			if err := p.runner.Run(ctx, cmd); err != nil {
				return err
			}
		}

		if !repo.Commit {
			logger.Info("Downstream updated without commit", "dir", dir)
			return nil
		}

		committed, err := p.git.CommitAll(ctx, dir, rc.Expand(repo.CommitMessage))
		if err != nil {
			return err
		}
		if !committed {
			logger.Warn("Nothing to commit in downstream")
		}

		tag := ""
		if repo.Tag {
			tag = rc.Expand(repo.TagFormat)
			if err := p.git.Tag(ctx, dir, tag, rc.Expand(repo.CommitMessage)); err != nil {
				return err
			}
			result.Tag = tag
		}

		if repo.Push {
			if err := p.git.Push(ctx, dir, repo.Branch, tag); err != nil {
				return err
			}
		}

		if repo.Release {
			owner, name, err := repo.GitHubRepository()
			if err != nil {
				return err
			}
			url, err := p.github.CreateRelease(ctx, owner, name, &model.GitHubRelease{
				TagName: tag,
				Name:    tag,
				Body:    FormatEntries(rc.Release.Entries(), ""),
			})
			if err != nil {
				return err
			}
			result.ReleaseURL = url
		}
		return nil
	}()

	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	result.Status = model.StatusSucceeded
	logger.Info("Downstream synced", "tag", result.Tag, "release_url", result.ReleaseURL)
	return result, nil
}

package git

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/podrelease/pkg/domain/interfaces"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
)

type client struct {
	runner interfaces.CommandRunner
}

// NewClient creates a GitClient that drives the git executable through runner
func NewClient(runner interfaces.CommandRunner) interfaces.GitClient {
	return &client{
		runner: runner,
	}
}

func (c *client) git(dir string, args ...string) *model.Command {
	return &model.Command{
		Name: "git",
		Args: args,
		Dir:  dir,
	}
}

// Clone clones a single branch of url into dir
func (c *client) Clone(ctx context.Context, url, branch, dir string) error {
	cmd := c.git("", "clone", "--branch", branch, "--single-branch", url, dir)
	if err := c.runner.Run(ctx, cmd); err != nil {
		return goerr.Wrap(err, "failed to clone repository", goerr.V("url", url), goerr.V("branch", branch))
	}
	return nil
}

// CommitAll stages all changes and commits them
func (c *client) CommitAll(ctx context.Context, dir, message string) (bool, error) {
	if err := c.runner.Run(ctx, c.git(dir, "add", "--all")); err != nil {
		return false, goerr.Wrap(err, "failed to stage changes", goerr.V("dir", dir))
	}

	status, err := c.runner.Output(ctx, c.git(dir, "status", "--porcelain"))
	if err != nil {
		return false, goerr.Wrap(err, "failed to read status", goerr.V("dir", dir))
	}
	if status == "" {
		return false, nil
	}

	if err := c.runner.Run(ctx, c.git(dir, "commit", "--message", message)); err != nil {
		return false, goerr.Wrap(err, "failed to commit", goerr.V("dir", dir))
	}
	return true, nil
}

// Tag creates an annotated tag at HEAD
func (c *client) Tag(ctx context.Context, dir, tag, message string) error {
	if err := c.runner.Run(ctx, c.git(dir, "tag", "--annotate", tag, "--message", message)); err != nil {
		return goerr.Wrap(err, "failed to tag", goerr.V("dir", dir), goerr.V("tag", tag))
	}
	return nil
}

// Push pushes branch and optionally tag to origin
func (c *client) Push(ctx context.Context, dir, branch, tag string) error {
	args := []string{"push", "origin", branch}
	if tag != "" {
		args = append(args, "refs/tags/"+tag)
	}
	if err := c.runner.Run(ctx, c.git(dir, args...)); err != nil {
		return goerr.Wrap(err, "failed to push", goerr.V("dir", dir), goerr.V("branch", branch), goerr.V("tag", tag))
	}
	return nil
}

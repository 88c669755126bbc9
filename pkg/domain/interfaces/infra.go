package interfaces

import (
	"context"

	"github.com/m-mizutani/podrelease/pkg/domain/model"
)

// CommandRunner executes external processes
type CommandRunner interface {
	// Run executes cmd, streaming its output. A non-zero exit status is an error.
	Run(ctx context.Context, cmd *model.Command) error

	// Output executes cmd and returns its trimmed standard output
	Output(ctx context.Context, cmd *model.Command) (string, error)

	// LookPath resolves an executable on the search path
	LookPath(name string) (string, error)
}

// GitClient performs the git operations needed to update a downstream repository
type GitClient interface {
	// Clone clones branch of url into dir
	Clone(ctx context.Context, url, branch, dir string) error

	// CommitAll stages every change in dir and commits it. It reports false when there was nothing to commit.
	CommitAll(ctx context.Context, dir, message string) (bool, error)

	// Tag creates an annotated tag at HEAD
	Tag(ctx context.Context, dir, tag, message string) error

	// Push pushes branch and, when tag is not empty, the tag to origin
	Push(ctx context.Context, dir, branch, tag string) error
}

// GitHubClient defines operations for interacting with GitHub API
type GitHubClient interface {
	// CreateRelease creates a release for an existing tag and returns its HTML URL
	CreateRelease(ctx context.Context, owner, repo string, input *model.GitHubRelease) (string, error)
}

// PackageIndex answers whether a published version is available
type PackageIndex interface {
	Exists(ctx context.Context, name, version string) (bool, error)
}

// ArtifactStore archives build outputs
type ArtifactStore interface {
	Upload(ctx context.Context, localPath, objectName string) error
}

// Notifier reports the outcome of a release run
type Notifier interface {
	Notify(ctx context.Context, result *model.PipelineResult) error
}

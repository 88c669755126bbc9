package interfaces

import (
	"context"

	"github.com/m-mizutani/podrelease/pkg/domain/model"
)

// ValidateHook checks a precondition of the release. Returning an error aborts the run.
type ValidateHook func(ctx context.Context, rc *model.ReleaseContext) error

// BuildHook produces the release artifacts
type BuildHook func(ctx context.Context, rc *model.ReleaseContext) error

// PublishHook pushes the release to the package index
type PublishHook func(ctx context.Context, rc *model.ReleaseContext) error

// WaitHook blocks until the published release is available
type WaitHook func(ctx context.Context, rc *model.ReleaseContext) error

// PostCopyHook runs inside a downstream clone after release files were copied into it
type PostCopyHook func(ctx context.Context, rc *model.ReleaseContext, target *model.SyncTarget) error

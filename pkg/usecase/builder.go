package usecase

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/podrelease/pkg/domain/interfaces"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
)

// NewScriptBuilder creates a hook running build.command with the release version in the environment
func NewScriptBuilder(runner interfaces.CommandRunner) interfaces.BuildHook {
	return func(ctx context.Context, rc *model.ReleaseContext) error {
		b := rc.Config.Build
		cmd := model.NewCommand(rc.ExpandAll(b.Command), rc.Config.Path(b.Dir), b.VersionEnv+"="+rc.Release.Version)
		if cmd == nil {
			return goerr.New("build.command is empty")
		}

		ctxlog.From(ctx).Info("Building release", "command", cmd.String(), "dir", cmd.Dir, "env", b.VersionEnv)
		if err := runner.Run(ctx, cmd); err != nil {
			return goerr.Wrap(err, "build script failed", goerr.V("version", rc.Release.Version))
		}
		return nil
	}
}

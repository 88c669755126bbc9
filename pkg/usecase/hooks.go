package usecase

import (
	"github.com/m-mizutani/podrelease/pkg/domain/interfaces"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
)

// Hooks holds the functions run by each stage of the pipeline.
// A nil Build, Publish or Wait hook skips its stage.
type Hooks struct {
	Validate []interfaces.ValidateHook
	Build    interfaces.BuildHook
	Publish  interfaces.PublishHook
	Wait     interfaces.WaitHook
	PostCopy map[string]interfaces.PostCopyHook
}

// NewHooks returns the built-in hooks backed by the given infrastructure
func NewHooks(runner interfaces.CommandRunner, git interfaces.GitClient, index interfaces.PackageIndex) *Hooks {
	hooks := &Hooks{
		Validate: []interfaces.ValidateHook{
			NewToolValidator(runner),
			NewVersionValidator(),
			NewChangelogValidator(),
			NewStringsValidator(),
		},
		Build:   NewScriptBuilder(runner),
		Publish: NewPublisher(runner, git),
		PostCopy: map[string]interfaces.PostCopyHook{
			model.HookSubstituteVersion: NewSubstituteVersionHook(),
			model.HookUpdateChangelog:   NewUpdateChangelogHook(),
			model.HookStampHeaders:      NewStampHeadersHook(),
		},
	}
	if index != nil {
		hooks.Wait = NewWaiter(index)
	}
	return hooks
}

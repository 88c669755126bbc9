package usecase_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
	"github.com/m-mizutani/podrelease/pkg/domain/types"
	"github.com/m-mizutani/podrelease/pkg/usecase"
)

const (
	publicURL  = "https://github.com/card-io/card.io-iOS-SDK.git"
	cordovaURL = "git@github.com:card-io/card.io-Cordova-Plugin.git"
)

type pipelineFixture struct {
	cfg      *model.Config
	runner   *fakeRunner
	git      *fakeGit
	github   *fakeGitHub
	index    *fakeIndex
	notifier *fakeNotifier
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	root := setupSDK(t)
	writeFile(t, filepath.Join(root, "Release", "CardIO.podspec"), "Pod::Spec.new do |spec|\n  spec.version = '5.4.1'\nend\n")

	cfg, err := model.ParseConfig([]byte(`
[sdk]
name = "CardIO"
required_tools = ["git", "pod"]

[build]
command = ["./build.sh"]

[publish]
mode = "command"
push = ["pod", "trunk", "push", "{manifest}"]

[wait]
interval = "1ms"
max_attempts = 3

[[downstream]]
name = "public"
url = "` + publicURL + `"
mode = "full"
copy = [{ source = "Release/CardIO", base = "Release", destination = "." }]
commit = true
push = true
tag = true
release = true

[[downstream]]
name = "cordova"
url = "` + cordovaURL + `"
post_copy = ["substitute_version", "update_changelog", "stamp_headers"]
copy = [{ source = "Release/CardIO/*.h", destination = "src/ios/CardIO" }]
version_files = [{ path = "plugin.xml", pattern = '<framework src="CardIO" version="([^"]+)"' }]
changelog = { title_anchor = "=====", prefix = "iOS: " }
build = [["npm", "test"]]
commit = true
commit_message = "Update card.io iOS SDK to {version}"
`))
	gt.NoError(t, err)
	cfg.SDK.Root = root

	git := newFakeGit()
	git.seeds[cordovaURL] = map[string]string{
		"plugin.xml":   `<framework src="CardIO" version="5.4.0" />` + "\n",
		"CHANGELOG.md": "Notes\n=====\n\n5.4.0\n-----\n* iOS: old\n",
	}

	return &pipelineFixture{
		cfg:      cfg,
		runner:   newFakeRunner(),
		git:      git,
		github:   &fakeGitHub{},
		index:    &fakeIndex{availableAfter: 1},
		notifier: &fakeNotifier{},
	}
}

func (f *pipelineFixture) pipeline(t *testing.T) *usecase.Pipeline {
	t.Helper()
	p, err := usecase.NewPipeline(f.cfg, usecase.NewHooks(f.runner, f.git, f.index),
		usecase.WithRunner(f.runner),
		usecase.WithGitClient(f.git),
		usecase.WithGitHubClient(f.github),
		usecase.WithNotifier(f.notifier),
		usecase.WithConsole(io.Discard),
	)
	gt.NoError(t, err)
	return p
}

func stageStatuses(result *model.PipelineResult) map[model.Stage]model.StageStatus {
	statuses := make(map[model.Stage]model.StageStatus)
	for _, s := range result.Stages {
		statuses[s.Stage] = s.Status
	}
	return statuses
}

func TestPipeline_Run(t *testing.T) {
	f := newPipelineFixture(t)
	release := model.Release{Version: "5.4.1", Changelog: "* fixed bug\n"}

	result, err := f.pipeline(t).Run(context.Background(), release)
	gt.NoError(t, err)
	gt.True(t, result.Succeeded())
	gt.Value(t, result.RunID).NotEqual("")

	gt.Equal(t, stageStatuses(result), map[model.Stage]model.StageStatus{
		model.StageValidate: model.StatusSucceeded,
		model.StageBuild:    model.StatusSucceeded,
		model.StageArchive:  model.StatusSkipped,
		model.StagePublish:  model.StatusSucceeded,
		model.StageWait:     model.StatusSucceeded,
		model.StageSync:     model.StatusSucceeded,
	})

	gt.Equal(t, f.runner.lines(), []string{
		"./build.sh",
		"pod trunk push Release/CardIO.podspec",
		"npm test",
	})

	gt.Equal(t, f.git.calls, []string{
		"clone " + publicURL + " master",
		"commit Release 5.4.1",
		"tag 5.4.1",
		"push master 5.4.1",
		"clone " + cordovaURL + " master",
		"commit Update card.io iOS SDK to 5.4.1",
	})
	gt.Equal(t, f.github.releases, []string{"card-io/card.io-iOS-SDK@5.4.1"})

	gt.A(t, result.Syncs).Length(2)
	gt.Equal(t, result.Syncs[0].Tag, "5.4.1")
	gt.Equal(t, result.Syncs[0].ReleaseURL, "https://github.com/card-io/card.io-iOS-SDK/releases/tag/5.4.1")
	gt.Equal(t, result.Syncs[1].Status, model.StatusSucceeded)

	gt.A(t, f.notifier.results).Length(1)
	gt.Equal(t, f.notifier.results[0], result)
}

func TestPipeline_RunStopsAtValidation(t *testing.T) {
	f := newPipelineFixture(t)

	result, err := f.pipeline(t).Run(context.Background(), model.Release{Version: "5.4.2"})
	gt.True(t, errors.Is(err, types.ErrVersionMismatch))
	gt.False(t, result.Succeeded())
	gt.A(t, result.Stages).Length(1)
	gt.Equal(t, result.Stages[0].Status, model.StatusFailed)
	gt.A(t, f.runner.commands).Length(0)
	gt.A(t, f.git.calls).Length(0)

	// failures are reported too
	gt.A(t, f.notifier.results).Length(1)
}

func TestPipeline_RunMissingTool(t *testing.T) {
	f := newPipelineFixture(t)
	f.runner.missing["pod"] = true

	_, err := f.pipeline(t).Run(context.Background(), model.Release{Version: "5.4.1"})
	gt.True(t, errors.Is(err, types.ErrToolNotFound))
	gt.A(t, f.runner.commands).Length(0)
}

func TestPipeline_RunBuildFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.runner.failures["./build.sh"] = true

	result, err := f.pipeline(t).Run(context.Background(), model.Release{Version: "5.4.1"})
	gt.True(t, errors.Is(err, types.ErrCommandFailed))
	gt.Equal(t, stageStatuses(result)[model.StageBuild], model.StatusFailed)
	gt.Equal(t, f.runner.lines(), []string{"./build.sh"})
}

func TestPipeline_RunPublishTimeout(t *testing.T) {
	f := newPipelineFixture(t)
	f.index.availableAfter = 100

	result, err := f.pipeline(t).Run(context.Background(), model.Release{Version: "5.4.1"})
	gt.True(t, errors.Is(err, types.ErrPublishTimeout))
	gt.Equal(t, stageStatuses(result)[model.StageWait], model.StatusFailed)
	gt.A(t, f.git.calls).Length(0)
}

func TestPipeline_SyncPolicy(t *testing.T) {
	t.Run("continue attempts every repository", func(t *testing.T) {
		f := newPipelineFixture(t)
		f.git.cloneErr[publicURL] = true

		syncs, err := f.pipeline(t).Sync(context.Background(), model.Release{Version: "5.4.1", Changelog: "* fixed bug"})
		gt.True(t, errors.Is(err, types.ErrSyncFailed))
		gt.True(t, errors.Is(err, types.ErrCommandFailed))
		gt.A(t, syncs).Length(2)
		gt.Equal(t, syncs[0].Status, model.StatusFailed)
		gt.Value(t, syncs[0].Error).NotEqual("")
		gt.Equal(t, syncs[1].Status, model.StatusSucceeded)
	})

	t.Run("abort stops at the first failure", func(t *testing.T) {
		f := newPipelineFixture(t)
		f.cfg.Sync.Policy = model.SyncPolicyAbort
		f.git.cloneErr[publicURL] = true

		syncs, err := f.pipeline(t).Sync(context.Background(), model.Release{Version: "5.4.1"})
		gt.True(t, errors.Is(err, types.ErrSyncFailed))
		gt.A(t, syncs).Length(1)
		gt.Equal(t, f.git.calls, []string{"clone " + publicURL + " master"})
	})

	t.Run("release without GitHub client fails the repository", func(t *testing.T) {
		f := newPipelineFixture(t)
		p, err := usecase.NewPipeline(f.cfg, usecase.NewHooks(f.runner, f.git, f.index),
			usecase.WithRunner(f.runner),
			usecase.WithGitClient(f.git),
			usecase.WithConsole(io.Discard),
		)
		gt.NoError(t, err)

		syncs, err := p.Sync(context.Background(), model.Release{Version: "5.4.1", Changelog: "* fixed bug"})
		gt.True(t, errors.Is(err, types.ErrSyncFailed))
		gt.Equal(t, syncs[0].Status, model.StatusFailed)
		gt.Equal(t, syncs[1].Status, model.StatusSucceeded)

		// nothing of the failed repository reaches its remote
		gt.Equal(t, f.git.calls, []string{
			"clone " + cordovaURL + " master",
			"commit Update card.io iOS SDK to 5.4.1",
		})
	})
}

func TestPipeline_SyncUpdatesClone(t *testing.T) {
	f := newPipelineFixture(t)
	f.cfg.Sync.Workspace = t.TempDir()

	_, err := f.pipeline(t).Sync(context.Background(), model.Release{Version: "5.4.1", Changelog: "* fixed bug"})
	gt.NoError(t, err)

	clone := filepath.Join(f.cfg.Sync.Workspace, "cordova")
	gt.Equal(t, readFile(t, filepath.Join(clone, "plugin.xml")), `<framework src="CardIO" version="5.4.1" />`+"\n")
	gt.String(t, readFile(t, filepath.Join(clone, "CHANGELOG.md"))).Contains("5.4.1\n-----\n* iOS: fixed bug\n")
	gt.String(t, readFile(t, filepath.Join(clone, "src", "ios", "CardIO", "CardIO.h"))).Contains("//  Version 5.4.1\n")

	public := filepath.Join(f.cfg.Sync.Workspace, "public")
	gt.Equal(t, readFile(t, filepath.Join(public, "CardIO", "CardIOView.h")), "//\n//  CardIOView.h\n//\n")
}

func TestPipeline_Validation(t *testing.T) {
	f := newPipelineFixture(t)

	t.Run("version is required", func(t *testing.T) {
		_, err := f.pipeline(t).Run(context.Background(), model.Release{})
		gt.Error(t, err)
		gt.A(t, f.notifier.results).Length(0)
	})

	t.Run("post_copy hooks must be registered", func(t *testing.T) {
		_, err := usecase.NewPipeline(f.cfg, &usecase.Hooks{})
		gt.Error(t, err)
	})

	t.Run("validate only", func(t *testing.T) {
		gt.NoError(t, f.pipeline(t).Validate(context.Background(), model.Release{Version: "5.4.1"}))
		gt.A(t, f.runner.commands).Length(0)
	})

	t.Run("build runs validation first", func(t *testing.T) {
		err := f.pipeline(t).Build(context.Background(), model.Release{Version: "9.9.9"})
		gt.True(t, errors.Is(err, types.ErrVersionMismatch))
		gt.NoError(t, f.pipeline(t).Build(context.Background(), model.Release{Version: "5.4.1"}))
		gt.Equal(t, f.runner.lines(), []string{"./build.sh"})
	})
}

package usecase

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/podrelease/pkg/domain/interfaces"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
)

// Pipeline runs the release stages for one SDK configuration
type Pipeline struct {
	cfg      *model.Config
	hooks    *Hooks
	runner   interfaces.CommandRunner
	git      interfaces.GitClient
	github   interfaces.GitHubClient
	store    interfaces.ArtifactStore
	notifier interfaces.Notifier
	console  *console
}

var _ interfaces.PipelineUseCase = (*Pipeline)(nil)

// Option configures a Pipeline
type Option func(*Pipeline)

// WithRunner sets the runner used for downstream build commands
func WithRunner(runner interfaces.CommandRunner) Option {
	return func(p *Pipeline) {
		p.runner = runner
	}
}

// WithGitClient sets the git client used for downstream sync
func WithGitClient(git interfaces.GitClient) Option {
	return func(p *Pipeline) {
		p.git = git
	}
}

// WithGitHubClient sets the client creating downstream GitHub releases
func WithGitHubClient(client interfaces.GitHubClient) Option {
	return func(p *Pipeline) {
		p.github = client
	}
}

// WithArtifactStore sets the store receiving archived build outputs
func WithArtifactStore(store interfaces.ArtifactStore) Option {
	return func(p *Pipeline) {
		p.store = store
	}
}

// WithNotifier sets the notifier called at the end of each run
func WithNotifier(notifier interfaces.Notifier) Option {
	return func(p *Pipeline) {
		p.notifier = notifier
	}
}

// WithConsole sets where stage banners are printed. Default is os.Stderr.
func WithConsole(w io.Writer) Option {
	return func(p *Pipeline) {
		p.console = &console{w: w}
	}
}

// NewPipeline creates a pipeline. Every post_copy hook named by the configuration must be registered in hooks.
func NewPipeline(cfg *model.Config, hooks *Hooks, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, goerr.New("config is required")
	}
	if hooks == nil {
		hooks = &Hooks{}
	}

	for _, repo := range cfg.Downstream {
		for _, name := range repo.PostCopy {
			if hooks.PostCopy[name] == nil {
				return nil, goerr.New("post_copy hook is not registered", goerr.V("repo", repo.Name), goerr.V("hook", name))
			}
		}
	}

	p := &Pipeline{
		cfg:     cfg,
		hooks:   hooks,
		console: &console{w: os.Stderr},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

type stageStep struct {
	stage   model.Stage
	enabled bool
	run     func(ctx context.Context) error
}

// Run executes every stage in order and stops at the first failure.
// The notifier is called whether the run succeeded or not.
func (p *Pipeline) Run(ctx context.Context, release model.Release) (*model.PipelineResult, error) {
	ctx, rc, err := p.newRun(ctx, release)
	if err != nil {
		return nil, err
	}
	logger := ctxlog.From(ctx)

	result := &model.PipelineResult{
		RunID:     rc.RunID,
		Version:   release.Version,
		StartedAt: time.Now(),
	}

	steps := []stageStep{
		{
			stage:   model.StageValidate,
			enabled: true,
			run:     func(ctx context.Context) error { return p.validate(ctx, rc) },
		},
		{
			stage:   model.StageBuild,
			enabled: p.hooks.Build != nil && len(p.cfg.Build.Command) > 0,
			run:     func(ctx context.Context) error { return p.hooks.Build(ctx, rc) },
		},
		{
			stage:   model.StageArchive,
			enabled: p.cfg.Archive != nil,
			run: func(ctx context.Context) error {
				_, err := ArchiveArtifacts(ctx, p.store, rc)
				return err
			},
		},
		{
			stage:   model.StagePublish,
			enabled: p.hooks.Publish != nil && p.cfg.Publish.Mode != model.PublishModeNone,
			run:     func(ctx context.Context) error { return p.hooks.Publish(ctx, rc) },
		},
		{
			stage:   model.StageWait,
			enabled: p.hooks.Wait != nil && (p.cfg.Publish.Mode != model.PublishModeNone || p.cfg.Wait.URL != ""),
			run:     func(ctx context.Context) error { return p.hooks.Wait(ctx, rc) },
		},
		{
			stage:   model.StageSync,
			enabled: len(p.cfg.Downstream) > 0,
			run: func(ctx context.Context) error {
				syncs, err := p.syncDownstreams(ctx, rc)
				result.Syncs = syncs
				return err
			},
		},
	}

	logger.Info("Starting release", "sdk", p.cfg.SDK.Name)
	for _, step := range steps {
		if !step.enabled {
			p.console.skipped(step.stage)
			result.Stages = append(result.Stages, model.StageResult{Stage: step.stage, Status: model.StatusSkipped})
			continue
		}

		p.console.begin(step.stage)
		started := time.Now()
		stepErr := step.run(ctxlog.With(ctx, logger.With("stage", step.stage)))
		stage := model.StageResult{Stage: step.stage, Status: model.StatusSucceeded, Duration: time.Since(started)}

		if stepErr != nil {
			stage.Status = model.StatusFailed
			stage.Error = stepErr.Error()
			result.Stages = append(result.Stages, stage)
			result.Err = goerr.Wrap(stepErr, "release stage failed", goerr.V("stage", step.stage))
			p.console.failed(step.stage, stepErr)
			break
		}

		result.Stages = append(result.Stages, stage)
		p.console.done(step.stage, stage.Duration)
	}

	p.console.summary(result)
	if result.Err != nil {
		logger.Error("Release failed", "error", result.Err)
	} else {
		logger.Info("Release completed", "duration", time.Since(result.StartedAt))
	}

	if p.notifier != nil {
		if err := p.notifier.Notify(ctx, result); err != nil {
			logger.Warn("Failed to send release notification", "error", err)
		}
	}

	return result, result.Err
}

// Validate runs the validation stage only
func (p *Pipeline) Validate(ctx context.Context, release model.Release) error {
	ctx, rc, err := p.newRun(ctx, release)
	if err != nil {
		return err
	}
	return p.validate(ctx, rc)
}

// Build runs the validation and build stages
func (p *Pipeline) Build(ctx context.Context, release model.Release) error {
	ctx, rc, err := p.newRun(ctx, release)
	if err != nil {
		return err
	}
	if err := p.validate(ctx, rc); err != nil {
		return err
	}
	if p.hooks.Build == nil || len(p.cfg.Build.Command) == 0 {
		return goerr.New("build.command is not configured")
	}
	return p.hooks.Build(ctx, rc)
}

// Sync runs the downstream sync stage only
func (p *Pipeline) Sync(ctx context.Context, release model.Release) ([]model.SyncResult, error) {
	ctx, rc, err := p.newRun(ctx, release)
	if err != nil {
		return nil, err
	}
	return p.syncDownstreams(ctx, rc)
}

func (p *Pipeline) newRun(ctx context.Context, release model.Release) (context.Context, *model.ReleaseContext, error) {
	if release.Version == "" {
		return ctx, nil, goerr.New("release version is required")
	}

	rc := &model.ReleaseContext{
		RunID:   uuid.NewString(),
		Release: release,
		Config:  p.cfg,
		Root:    p.cfg.SDK.Root,
	}
	logger := ctxlog.From(ctx).With("run_id", rc.RunID, "version", release.Version)
	return ctxlog.With(ctx, logger), rc, nil
}

func (p *Pipeline) validate(ctx context.Context, rc *model.ReleaseContext) error {
	for _, hook := range p.hooks.Validate {
		if err := hook(ctx, rc); err != nil {
			return err
		}
	}
	return nil
}

package usecase

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/podrelease/pkg/domain/interfaces"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
)

// Dispatcher enqueues a job for background execution
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, handler func(ctx context.Context) error) error
}

type webhookUseCase struct {
	pipeline   interfaces.PipelineUseCase
	dispatcher Dispatcher
	tagPrefix  string
}

// NewWebhook creates a new instance of WebhookUseCase.
// Published releases whose tag starts with tagPrefix are dispatched as pipeline runs.
func NewWebhook(pipeline interfaces.PipelineUseCase, dispatcher Dispatcher, tagPrefix string) *webhookUseCase {
	return &webhookUseCase{
		pipeline:   pipeline,
		dispatcher: dispatcher,
		tagPrefix:  tagPrefix,
	}
}

// ProcessEvent processes a webhook event
func (uc *webhookUseCase) ProcessEvent(ctx context.Context, event *model.WebhookEvent) error {
	logger := ctxlog.From(ctx)

	logger.Info("Processing webhook event",
		"id", event.ID,
		"type", event.Type,
		"action", event.Action,
		"repository", event.Repository,
		"sender", event.Sender,
		"supported", event.IsSupportedEvent(),
	)

	if !event.IsSupportedEvent() {
		logger.Debug("Ignoring webhook event",
			"type", event.Type,
			"action", event.Action,
		)
		return nil
	}

	release, ok := event.ReleaseFromTag(uc.tagPrefix)
	if !ok {
		logger.Info("Ignoring release with unmatched tag", "tag", event.TagName, "prefix", uc.tagPrefix)
		return nil
	}

	err := uc.dispatcher.Dispatch(ctx, "release "+release.Version, func(ctx context.Context) error {
		_, err := uc.pipeline.Run(ctx, release)
		return err
	})
	if err != nil {
		return goerr.Wrap(err, "failed to queue release run",
			goerr.V("delivery_id", event.ID),
			goerr.V("version", release.Version),
		)
	}

	logger.Info("Queued release run", "version", release.Version, "tag", event.TagName)
	return nil
}

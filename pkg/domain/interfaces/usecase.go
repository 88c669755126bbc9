package interfaces

import (
	"context"

	"github.com/m-mizutani/podrelease/pkg/domain/model"
)

// PipelineUseCase runs release pipelines
type PipelineUseCase interface {
	// Run executes every stage of the pipeline for release
	Run(ctx context.Context, release model.Release) (*model.PipelineResult, error)

	// Validate executes the validation stage only
	Validate(ctx context.Context, release model.Release) error

	// Build executes the build stage only
	Build(ctx context.Context, release model.Release) error

	// Sync executes the downstream sync stage only
	Sync(ctx context.Context, release model.Release) ([]model.SyncResult, error)
}

// WebhookUseCase defines the interface for webhook event processing
type WebhookUseCase interface {
	// ProcessEvent processes a webhook event
	ProcessEvent(ctx context.Context, event *model.WebhookEvent) error
}

package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/podrelease/pkg/domain/interfaces"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
	"github.com/slack-go/slack"
)

type notifier struct {
	webhookURL string
	sdkName    string
}

// NewNotifier creates a Notifier posting to a Slack incoming webhook
func NewNotifier(webhookURL, sdkName string) interfaces.Notifier {
	return &notifier{
		webhookURL: webhookURL,
		sdkName:    sdkName,
	}
}

// Notify posts the run summary
func (n *notifier) Notify(ctx context.Context, result *model.PipelineResult) error {
	msg := BuildMessage(n.sdkName, result)
	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post Slack notification", goerr.V("run_id", result.RunID))
	}
	return nil
}

// BuildMessage renders a run summary as a Slack webhook message
func BuildMessage(sdkName string, result *model.PipelineResult) *slack.WebhookMessage {
	color := "good"
	title := fmt.Sprintf("%s %s released", sdkName, result.Version)
	if !result.Succeeded() {
		color = "danger"
		title = fmt.Sprintf("%s %s release failed", sdkName, result.Version)
	}

	var stages strings.Builder
	for _, s := range result.Stages {
		fmt.Fprintf(&stages, "%s: %s", s.Stage, s.Status)
		if s.Error != "" {
			fmt.Fprintf(&stages, " (%s)", s.Error)
		}
		stages.WriteString("\n")
	}

	fields := []slack.AttachmentField{
		{Title: "Run ID", Value: result.RunID, Short: true},
		{Title: "Version", Value: result.Version, Short: true},
		{Title: "Stages", Value: strings.TrimSuffix(stages.String(), "\n")},
	}

	for _, s := range result.Syncs {
		value := string(s.Status)
		if s.ReleaseURL != "" {
			value += " " + s.ReleaseURL
		}
		if s.Error != "" {
			value += " (" + s.Error + ")"
		}
		fields = append(fields, slack.AttachmentField{Title: s.Repo, Value: value, Short: true})
	}

	return &slack.WebhookMessage{
		Text: title,
		Attachments: []slack.Attachment{
			{
				Color:  color,
				Fields: fields,
			},
		},
	}
}

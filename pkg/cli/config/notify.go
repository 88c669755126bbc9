package config

import (
	"github.com/m-mizutani/podrelease/pkg/domain/interfaces"
	"github.com/m-mizutani/podrelease/pkg/infra/slack"
	"github.com/urfave/cli/v3"
)

// Notify holds release notification settings
type Notify struct {
	SlackWebhookURL string `masq:"secret"`
}

// Flags returns CLI flags for notification
func (c *Notify) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL receiving the release summary",
			Destination: &c.SlackWebhookURL,
			Sources:     cli.EnvVars("PODRELEASE_SLACK_WEBHOOK_URL"),
		},
	}
}

// Notifier returns the configured notifier or nil
func (c *Notify) Notifier(sdkName string) interfaces.Notifier {
	if c.SlackWebhookURL == "" {
		return nil
	}
	return slack.NewNotifier(c.SlackWebhookURL, sdkName)
}

package config

import "github.com/urfave/cli/v3"

// Server holds server configuration
type Server struct {
	Addr        string
	WebhookPath string
	QueueSize   int
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("PODRELEASE_ADDR"),
		},
		&cli.StringFlag{
			Name:        "webhook-path",
			Usage:       "Route receiving GitHub release webhooks",
			Value:       "/hooks/github/release",
			Destination: &c.WebhookPath,
			Sources:     cli.EnvVars("PODRELEASE_WEBHOOK_PATH"),
		},
		&cli.IntFlag{
			Name:        "queue-size",
			Usage:       "Number of release runs that may wait for the running one",
			Value:       8,
			Destination: &c.QueueSize,
			Sources:     cli.EnvVars("PODRELEASE_QUEUE_SIZE"),
		},
	}
}

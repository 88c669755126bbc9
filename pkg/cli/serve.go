package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/podrelease/pkg/cli/config"
	controller "github.com/m-mizutani/podrelease/pkg/controller/http"
	"github.com/m-mizutani/podrelease/pkg/usecase"
	"github.com/m-mizutani/podrelease/pkg/utils/async"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg   config.Server
		webhookCfg  config.Webhook
		sentryCfg   config.Sentry
		pipelineCfg pipelineConfig
	)

	flags := append(serverCfg.Flags(), webhookCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)
	flags = append(flags, pipelineCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server running releases on GitHub release webhooks",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			flush, err := sentryCfg.Configure()
			if err != nil {
				return err
			}
			defer flush()

			pipeline, cfg, cleanup, err := pipelineCfg.build(ctx, true)
			if err != nil {
				return err
			}
			defer cleanup()

			logger.Info("Starting podrelease server",
				slog.String("addr", serverCfg.Addr),
				slog.String("sdk", cfg.SDK.Name),
				slog.String("tag_prefix", webhookCfg.TagPrefix),
			)

			queue := async.NewQueue(serverCfg.QueueSize)
			webhookUC := usecase.NewWebhook(pipeline, queue, webhookCfg.TagPrefix)

			server, err := controller.NewServer(
				ctx,
				webhookUC,
				controller.WithAddr(serverCfg.Addr),
				controller.WithWebhookSecret(webhookCfg.Secret),
				controller.WithWebhookPath(serverCfg.WebhookPath),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Waiting for queued releases")
			queue.Close()

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}

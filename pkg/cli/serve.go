package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flowdeck-dev/flowdeck/pkg/cli/config"
	httpctrl "github.com/flowdeck-dev/flowdeck/pkg/controller/http"
	"github.com/flowdeck-dev/flowdeck/pkg/service/archive"
	"github.com/flowdeck-dev/flowdeck/pkg/service/feed"
	"github.com/flowdeck-dev/flowdeck/pkg/usecase"
	"github.com/flowdeck-dev/flowdeck/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var archivePath string
	var appCfg config.App
	var repoCfg config.Repository
	var llmCfg config.LLM
	var cacheCfg config.Cache
	var slackCfg config.Slack

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("FLOWDECK_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "archive-db",
			Usage:       "Path to sqlite file for transcript archival on session close",
			Sources:     cli.EnvVars("FLOWDECK_ARCHIVE_DB"),
			Destination: &archivePath,
		},
	}
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, cacheCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			settings, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load app configuration")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			llmClient, err := llmCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize LLM client")
			}
			if llmClient == nil {
				logging.Default().Warn("LLM credentials not configured, assistant replies are disabled")
			}

			contextCache, err := cacheCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize context cache")
			}
			if contextCache != nil {
				defer func() {
					if err := contextCache.Close(); err != nil {
						logging.Default().Error("failed to close context cache", "error", err.Error())
					}
				}()
			}

			ucOpts := []usecase.Option{
				usecase.WithPacing(usecase.Pacing{
					WelcomeDelay: settings.WelcomeDelay(),
					ContextDelay: settings.ContextDelay(),
				}),
			}
			if contextCache != nil {
				ucOpts = append(ucOpts, usecase.WithCache(contextCache))
			}
			if settings.Session.WelcomeText != "" {
				ucOpts = append(ucOpts, usecase.WithWelcomeText(settings.Session.WelcomeText))
			}
			if settings.Assistant.Language != "" {
				ucOpts = append(ucOpts, usecase.WithLanguage(settings.Assistant.Language))
			}

			notifier, err := slackCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize Slack notifier")
			}
			var feedOpts []feed.Option
			if notifier != nil {
				feedOpts = append(feedOpts, feed.WithNotifier(notifier))
				logging.Default().Info("Slack feed notifier enabled")
			}
			ucOpts = append(ucOpts, usecase.WithFeed(feed.New(repo.Post(), feedOpts...)))

			if archivePath != "" {
				arc, err := archive.Open(archivePath)
				if err != nil {
					return goerr.Wrap(err, "failed to open transcript archive")
				}
				defer func() {
					if err := arc.Close(); err != nil {
						logging.Default().Error("failed to close transcript archive", "error", err.Error())
					}
				}()
				ucOpts = append(ucOpts, usecase.WithArchive(arc))
				logging.Default().Info("Transcript archival enabled", "path", archivePath)
			}

			uc := usecase.New(repo, llmClient, ucOpts...)
			defer uc.Sessions.CloseAll()

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc),
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}

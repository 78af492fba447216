package main

import (
	"github.com/spf13/cobra"

	slackhandler "github.com/jadenj13/caseai/internals/slack"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Slack assistant over socket mode",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateSlack(); err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	handler, err := slackhandler.NewHandler(ctx, cfg.SlackBotToken, cfg.SlackAppToken, a.worker, log,
		slackhandler.WithMaxFileBytes(cfg.MaxUploadBytes()),
	)
	if err != nil {
		return err
	}

	log.Info("caseai starting", "model", cfg.AnthropicModel, "workers", cfg.Workers, "db", cfg.DatabasePath)
	return handler.Run(ctx)
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCase string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the assistant one question within a case",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askCase, "case", "cli", "case ID whose history is used and extended")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	answer, err := a.worker.HandleMessage(ctx, askCase, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}

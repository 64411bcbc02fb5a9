// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/postbot/internal/logging"
	"github.com/pdiddy/postbot/internal/secrets"
	"github.com/pdiddy/postbot/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the posting pipeline once",
	Long: `Run selects one idea, generates a post, validates it against the
platform limits, publishes it, and appends exactly one entry to the activity
log. This is also what postbot does with no subcommand.

Exit status: 0 for SUCCESS or SKIPPED, 1 for FAILED, 2 for configuration
errors, 3 when the activity log cannot be written.`,
	RunE: runPipeline,
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("demo", false, "use canned posts and simulated publishing; no credentials needed")
	cmd.Flags().Bool("dry-run", false, "generate and validate but simulate publishing")
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	demo, _ := cmd.Flags().GetBool("demo")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Log, cfg.Activity.Dir, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := buildPipeline(ctx, cfg, runOptions{Demo: demo, DryRun: dryRun}, secrets.NewResolver(loadedSecrets), logger)
	if err != nil {
		logger.WithError(err).Error("configuration rejected")
		return err
	}
	defer p.Close()

	res, err := p.runner.Run(ctx)
	if err != nil {
		return err
	}

	printResult(cmd, res.Entry)
	logger.WithFields(logrus.Fields{"run_id": res.RunID, "status": res.Status()}).Info("run finished")

	if res.Status() == types.StatusFailed {
		return errRunFailed
	}
	return nil
}

// printResult writes the one-line run summary to stdout.
func printResult(cmd *cobra.Command, e types.LogEntry) {
	out := cmd.OutOrStdout()
	switch e.Status {
	case types.StatusSuccess:
		where := e.PostURL
		if e.Simulated {
			where = "simulated"
		}
		fmt.Fprintf(out, "SUCCESS  %s  (%d chars, %s)\n", e.PostID, e.CharacterCount, where)
		fmt.Fprintf(out, "  %s\n", e.PostText)
	default:
		fmt.Fprintf(out, "%-7s  %s: %s\n", e.Status, e.IdeaTopic, e.ErrorDetail)
	}
}

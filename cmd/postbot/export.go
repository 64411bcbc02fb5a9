// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/postbot/internal/activity"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the activity log to YAML or JSON",
	Long: `Export writes the activity log (or a filtered subset) as YAML or JSON,
to stdout or to the file named by --output.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("format", "yaml", "output format: yaml or json")
	exportCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")
	exportCmd.Flags().String("status", "", "filter by status: SUCCESS, SKIPPED, or FAILED")
	exportCmd.Flags().Int("limit", 0, "export only the most recent N entries (0 for all)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")

	f, err := statusFilter(status)
	if err != nil {
		return err
	}
	f.Limit = limit

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	store, err := activity.Open(cfg.Activity)
	if err != nil {
		return err
	}
	defer store.Close()

	var w io.Writer = cmd.OutOrStdout()
	if output != "" {
		file, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer file.Close()
		w = file
	}

	if err := activity.Export(context.Background(), store, format, f, w); err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", output)
	}
	return nil
}

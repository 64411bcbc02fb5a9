// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/postbot/internal/activity"
	"github.com/pdiddy/postbot/internal/ideas"
)

var ideasCmd = &cobra.Command{
	Use:   "ideas",
	Short: "List the idea pool",
	Long: `Ideas prints the configured idea pool. With the round-robin policy the
idea the next run will use is marked with an arrow.`,
	RunE: runIdeas,
}

func init() {
	rootCmd.AddCommand(ideasCmd)
}

func runIdeas(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	pool, err := loadPool(cfg.Ideas)
	if err != nil {
		return err
	}
	src, err := ideas.NewSource(pool, cfg.Ideas.Policy)
	if err != nil {
		return err
	}

	next := -1
	if src.Policy() == ideas.PolicyRoundRobin {
		cur, ok, err := ideas.LoadCursor(cursorPath(cfg))
		if err != nil {
			return err
		}
		if !ok {
			store, err := activity.Open(cfg.Activity)
			if err != nil {
				return err
			}
			defer store.Close()
			entries, err := store.Entries(context.Background())
			if err != nil {
				return err
			}
			cur = ideas.SeedCursor(pool, entries)
		}
		next = cur.Index % len(pool)
		if next < 0 {
			next += len(pool)
		}
	}

	out := cmd.OutOrStdout()
	for i, idea := range pool {
		mark := "  "
		if i == next {
			mark = "->"
		}
		line := fmt.Sprintf("%s %2d. %s", mark, i+1, idea.Topic)
		if len(idea.Tags) > 0 {
			line += " [" + strings.Join(idea.Tags, ", ") + "]"
		}
		if idea.Platform != "" {
			line += " (" + idea.Platform + ")"
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "\n%d ideas, policy %s\n", len(pool), src.Policy())
	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/postbot/internal/activity"
	"github.com/pdiddy/postbot/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded runs from the activity log",
	Long: `History lists entries from the activity log, oldest first. Posts whose
text was already published earlier are marked "dup"; nothing prevents them,
the log only makes them visible.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "show only the most recent N entries (0 for all)")
	historyCmd.Flags().String("status", "", "filter by status: SUCCESS, SKIPPED, or FAILED")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	status, _ := cmd.Flags().GetString("status")

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

	entries, err := store.Entries(context.Background())
	if err != nil {
		return err
	}
	formatHistory(cmd.OutOrStdout(), entries, f)
	return nil
}

func statusFilter(s string) (activity.Filter, error) {
	st := types.RunStatus(strings.ToUpper(strings.TrimSpace(s)))
	if st != "" && !st.Valid() {
		return activity.Filter{}, &types.ConfigurationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", s)}
	}
	return activity.Filter{Status: st}, nil
}

// formatHistory prints a table of entries. Duplicate detection looks at the
// whole log, before filtering.
func formatHistory(w io.Writer, entries []types.LogEntry, f activity.Filter) {
	dup := make([]bool, len(entries))
	seen := make(map[string]bool)
	for i, e := range entries {
		if e.Status != types.StatusSuccess || e.PostText == "" {
			continue
		}
		dup[i] = seen[e.PostText]
		seen[e.PostText] = true
	}

	type row struct {
		n   int
		e   types.LogEntry
		dup bool
	}
	var rows []row
	for i, e := range entries {
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		rows = append(rows, row{n: i + 1, e: e, dup: dup[i]})
	}
	if f.Limit > 0 && len(rows) > f.Limit {
		rows = rows[len(rows)-f.Limit:]
	}

	if len(rows) == 0 {
		fmt.Fprintln(w, "No entries found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-20s  %-7s  %-5s  %-3s  %s\n", "#", "Posted", "Status", "Chars", "Dup", "Text / Detail")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, r := range rows {
		text := r.e.PostText
		if r.e.Status != types.StatusSuccess {
			text = r.e.ErrorDetail
		}
		text = strings.ReplaceAll(text, "\n", " ")
		if runes := []rune(text); len(runes) > 50 {
			text = string(runes[:47]) + "..."
		}
		mark := ""
		if r.dup {
			mark = "dup"
		}
		fmt.Fprintf(w, "%-4d  %-20s  %-7s  %-5d  %-3s  %s\n",
			r.n, r.e.PostedAt.UTC().Format("2006-01-02 15:04:05"), r.e.Status, r.e.CharacterCount, mark, text)
	}

	counts := activity.Counts(entries)
	fmt.Fprintf(w, "\n%d entries: %d success, %d skipped, %d failed, %d duplicate texts\n",
		len(entries), counts[types.StatusSuccess], counts[types.StatusSkipped], counts[types.StatusFailed],
		len(activity.Duplicates(entries)))
}

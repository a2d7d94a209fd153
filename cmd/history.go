package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mailtools/gmail2md/internal/history"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past export runs",
	}
	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryStatsCmd())
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent export runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.Open(cmd.Context(), cfg.HistoryPath())
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No export runs recorded yet.")
				return nil
			}

			for _, r := range runs {
				status := ""
				if r.Cancelled {
					status = " (cancelled)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "#%d  %s  %q -> %s  written=%d skipped=%d failed=%d  %s%s\n",
					r.ID,
					r.StartedAt.Local().Format("2006-01-02 15:04"),
					r.Query,
					r.OutputDir,
					r.Written, r.Skipped, r.Failed,
					r.Duration.Round(time.Millisecond),
					status)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show")
	return cmd
}

func newHistoryStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate statistics over all recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.Open(cmd.Context(), cfg.HistoryPath())
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Summarize(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Runs:          %d\n", stats.Runs)
			fmt.Fprintf(out, "Files written: %d\n", stats.TotalWritten)
			fmt.Fprintf(out, "Failures:      %d\n", stats.TotalFailed)
			if !stats.LastRun.IsZero() {
				fmt.Fprintf(out, "Last run:      %s\n", stats.LastRun.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

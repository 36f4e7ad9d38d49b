package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nexconsult/case-fetcher/internal/store"
)

var historyLimit *int

func init() {
	historyLimit = historyCmd.Flags().IntP("limit", "l", store.DefaultRecentLimit, "How many entries to show.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--limit <n>]",
	Short: "Lists the most recent search attempts.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		sink, err := store.Open(cmd.Context(), cfg.LogSink)
		if err != nil {
			return err
		}
		defer sink.Close() //nolint:errcheck

		entries, err := sink.Recent(cmd.Context(), *historyLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSEARCHED AT\tTYPE\tNUMBER\tYEAR")
		for _, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.SearchedAt.Local().Format(time.DateTime), e.CaseType, e.CaseNumber, e.FilingYear)
		}
		return w.Flush()
	},
}

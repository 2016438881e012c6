package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tyon-geoscience/tyon/internal/storage"
)

func (a *app) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List stored analysis runs, or show the zones of one run",
		Long: `List stored analysis runs. History only survives between invocations when
storage.dsn points to a database file.
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.New(a.cfg.Storage.MaxRuns, a.cfg.Storage.DSN)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				run, err := store.GetAnalysis(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printZones(out, run, nil)
				return nil
			}

			runs, err := store.ListAnalyses(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tWELL\tMODE\tWINDOW\tSAMPLES")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
					r.ID, r.CreatedAt.Format(time.DateTime), r.Well, r.Mode, r.WindowSize, r.Samples)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of runs to list (0 lists all)")
	return cmd
}

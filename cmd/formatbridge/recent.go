package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newRecentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the files converted most recently",
		Long: `Recent lists the last files converted on this machine, newest first. A
file converted again with the same operation moves to the top instead of
appearing twice.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.v.GetString("history-file") == "" {
				return errors.New("the recent list is disabled (no --history-file)")
			}
			svc, err := a.service()
			if err != nil {
				return err
			}
			ctx := a.context(cmd.Context())

			if reset, _ := cmd.Flags().GetBool("clear"); reset {
				if err := svc.ClearRecent(ctx); err != nil {
					return err
				}
				fmt.Fprintln(a.stderr, "Recent list cleared.")
				return nil
			}

			entries, err := svc.Recent(ctx)
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(a, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(a.stdout, "No recent files yet.")
				return nil
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FILE\tOPERATION\tSIZE\tWHEN")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", e.FileName, e.Operation, e.Size, e.CreatedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Bool("clear", false, "empty the recent list")
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}

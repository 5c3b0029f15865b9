package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatsCmd(c *cli) *cobra.Command {
	var reset string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show how often each task ran and the time it saved",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := c.requireStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			p := newPrinter(cmd.OutOrStdout())

			if reset != "" {
				if err := st.ResetStats(ctx, reset); err != nil {
					return err
				}
				p.success("statistics reset for %s", reset)
				return nil
			}

			all, err := st.AllStats(ctx)
			if err != nil {
				return err
			}
			if len(all) == 0 {
				p.line("no tasks have run yet")
				return nil
			}
			tw := p.table()
			fmt.Fprintln(tw, "TASK\tRUNS\tFAILED\tCANCELLED\tAVG\tSAVED\tLAST USED")
			for _, s := range all {
				var avg time.Duration
				if s.Invocations > 0 {
					avg = s.TotalRun / time.Duration(s.Invocations)
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
					s.Name, s.Invocations, s.Failures, s.Cancelled,
					avg.Round(time.Millisecond), s.TimeSaved, s.LastUsed.Local().Format(time.DateTime))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			total, err := st.TotalTimeSaved(ctx)
			if err != nil {
				return err
			}
			p.success("total time saved: %s", total)
			return nil
		},
	}
	cmd.Flags().StringVar(&reset, "reset", "", "Clear the statistics of one task ID")
	return cmd
}

package sessions

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded sessions",
		Long:  `List every stored session summary, newest first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := openService(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			sessions, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}

			output, _ := cmd.Flags().GetString("output")
			if output == "json" {
				printJSON(cmd, sessions)
				return nil
			}

			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tAVG CPU\tAVG GPU\tDROPPED\tPEAK BITRATE\tQUALITY")
			fmt.Fprintln(w, "--\t-------\t--------\t-------\t-------\t-------\t------------\t-------")

			for _, s := range sessions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.1f%%\t%.1f%%\t%s\t%s\t%.1f\n",
					s.ID,
					formatMillis(s.StartTime),
					s.Duration().Round(time.Second),
					s.AvgCPU,
					s.AvgGPU,
					formatCount(s.TotalDroppedFrames),
					formatBitrate(s.PeakBitrate),
					s.QualityScore,
				)
			}

			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

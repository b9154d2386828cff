package sessions

import (
	"github.com/spf13/cobra"
)

func CompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <before-id> <after-id>",
		Short: "Compare two recorded sessions",
		Long: `Compare two sessions metric by metric. The second session is treated as
the later one, so a positive difference means the metric went up.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := openService(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			result, err := svc.Compare(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			output, _ := cmd.Flags().GetString("output")
			if output == "json" {
				printJSON(cmd, result)
				return nil
			}
			printComparison(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format: text or json")

	return cmd
}

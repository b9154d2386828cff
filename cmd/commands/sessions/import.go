package sessions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"streamwatch/internal/models"

	"github.com/spf13/cobra"
)

func ImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import session summaries from a JSON file",
		Long: `Import one session summary object, or an array of them, from a JSON file.
Summaries without a session_id get a generated one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			summaries, err := decodeSummaries(data)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}

			svc, st, err := openService(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			for _, s := range summaries {
				saved, err := svc.Save(cmd.Context(), s)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %s\n", saved.ID)
			}
			return nil
		},
	}

	return cmd
}

func decodeSummaries(data []byte) ([]models.SessionSummary, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []models.SessionSummary
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var one models.SessionSummary
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return nil, err
	}
	return []models.SessionSummary{one}, nil
}

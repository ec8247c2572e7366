package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd(svc Services, asJSON *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze TEXT...",
		Short: "Classify the sentiment of one text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analysis, err := svc.Analyzer.Analyze(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("analyze: %w", err)
			}
			if *asJSON {
				return printJSON(cmd.OutOrStdout(), analysis)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sentiment:  %s\n", analysis.Label)
			fmt.Fprintf(cmd.OutOrStdout(), "Confidence: %s (%s)\n", analysis.ConfidencePercent, analysis.ConfidenceLabel)
			return nil
		},
	}
}

// Package cli implements the sentimentctl command tree.
package cli

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/kirillkom/review-sentiment/internal/core/ports"
	"github.com/kirillkom/review-sentiment/internal/core/usecase"
)

// Services are the use cases the commands drive. NewSession builds a fresh
// bulk session reading text from column; an empty column means the configured one.
type Services struct {
	Analyzer   ports.TextAnalyzer
	History    ports.HistoryReader
	Dashboard  ports.DashboardBuilder
	NewSession func(column string) *usecase.BulkSession
}

// NewRootCmd creates the sentimentctl root command with analyze, bulk, history and stats.
func NewRootCmd(svc Services) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:           "sentimentctl",
		Short:         "Sentiment analysis for single texts and CSV review files",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: `  # Classify one text
  sentimentctl analyze "The delivery was fast and the product works"

  # Classify every row of a CSV file and save the results
  sentimentctl bulk reviews.csv --out results.xlsx --format xlsx

  # Show and clear the analysis history
  sentimentctl history
  sentimentctl history --clear

  # Aggregate statistics
  sentimentctl stats`,
	}

	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print machine readable JSON instead of tables")
	cmd.AddCommand(
		newAnalyzeCmd(svc, &asJSON),
		newBulkCmd(svc, &asJSON),
		newHistoryCmd(svc, &asJSON),
		newStatsCmd(svc, &asJSON),
	)
	return cmd
}

func printJSON(w io.Writer, payload any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

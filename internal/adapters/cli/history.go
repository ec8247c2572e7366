package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd(svc Services, asJSON *bool) *cobra.Command {
	var clearAll bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the classifier's analysis history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if clearAll {
				if err := svc.History.Clear(cmd.Context()); err != nil {
					return fmt.Errorf("clear history: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
				return nil
			}

			entries, err := svc.History.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list history: %w", err)
			}
			if *asJSON {
				return printJSON(cmd.OutOrStdout(), entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No analysis history yet.")
				return nil
			}
			return printHistory(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().BoolVar(&clearAll, "clear", false, "delete every stored history entry")
	return cmd
}

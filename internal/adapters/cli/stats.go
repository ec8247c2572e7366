package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd(svc Services, asJSON *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate sentiment statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dashboard, err := svc.Dashboard.Build(cmd.Context())
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}
			if *asJSON {
				return printJSON(cmd.OutOrStdout(), dashboard)
			}
			return printDashboard(cmd.OutOrStdout(), dashboard)
		},
	}
}

package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var flagContextK int

var contextCmd = &cobra.Command{
	Use:     "context <query>",
	Short:   "List project history (commits, notes) related to a query",
	Example: `  taskcap context checkout page layout`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, "projects", strings.Join(args, " "), flagContextK)
	},
}

func init() {
	contextCmd.Flags().IntVar(&flagContextK, "k", 0, "Number of results to show (default: [index].top_n)")
	rootCmd.AddCommand(contextCmd)
}

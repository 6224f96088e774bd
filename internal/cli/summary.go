package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/baton-project/baton/internal/session"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a summary of the current session",
	Run: func(cmd *cobra.Command, args []string) {
		_, _, meta := loadHeader()

		if jsonOutput {
			outputJSON(meta)
			return
		}
		fmt.Print(session.GenerateSessionSummary(meta))
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/baton-project/baton/internal/journal"
	"github.com/baton-project/baton/pkg/color"
)

var journalVerify bool

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show or verify the coordination journal",
	Long: `Show the coordination journal, newest last.

Every claim, renewal, release, and force takeover appends a hash-chained
record. --verify walks the chain and fails if any record was rewritten.`,
	Run: func(cmd *cobra.Command, args []string) {
		appender := journal.NewAppender(journal.Path(baseDir()))

		if journalVerify {
			n, err := appender.Verify()
			if err != nil {
				fmtErr("journal verify: %v", err)
				os.Exit(1)
			}
			if jsonOutput {
				outputJSON(map[string]any{"verified": n})
				return
			}
			fmt.Printf("%s %d records verified\n", color.Success("ok:"), n)
			return
		}

		records, err := appender.Records()
		if err != nil {
			fmtErr("read journal: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(records)
			return
		}
		if len(records) == 0 {
			fmt.Println("Journal is empty.")
			return
		}
		for _, record := range records {
			line := fmt.Sprintf("%s  %-16s %s",
				record.Timestamp.Format(time.RFC3339),
				record.EventType,
				color.AgentID(record.AgentID))
			if purpose, ok := record.Details["purpose"].(string); ok && purpose != "" {
				line += "  " + color.Dim(purpose)
			}
			fmt.Println(line)
		}
	},
}

func init() {
	journalCmd.Flags().BoolVar(&journalVerify, "verify", false, "verify the hash chain")
	rootCmd.AddCommand(journalCmd)
}

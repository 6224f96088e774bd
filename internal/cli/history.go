package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/baton-project/baton/internal/history"
	"github.com/baton-project/baton/pkg/color"
)

var (
	historyLimit   int
	historyByAgent bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show archived sessions",
	Long: `Show archived sessions from the local history database.

Sessions are archived when they finalize. Use --by-agent for per-agent
totals instead of the session list.

Examples:
  baton history            # last 20 sessions, newest first
  baton history -n 5       # last 5 sessions
  baton history --by-agent # aggregate per agent`,
	Run: func(cmd *cobra.Command, args []string) {
		store, err := history.Open(history.DBPath(baseDir()))
		if err != nil {
			fmtErr("open history: %v", err)
			os.Exit(1)
		}
		defer store.Close()

		if historyByAgent {
			showAgentTotals(store)
			return
		}

		records, err := store.Recent(historyLimit)
		if err != nil {
			fmtErr("list sessions: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(records)
			return
		}
		if len(records) == 0 {
			fmt.Println("No archived sessions.")
			return
		}
		for _, record := range records {
			completed := 0
			for _, task := range record.Tasks {
				if task.Status == "completed" {
					completed++
				}
			}
			fmt.Printf("%s  %s  %dm total, %dm active, %d tool calls, %d/%d tasks done\n",
				record.StartedAt.Format(time.RFC3339),
				color.AgentID(record.AgentID),
				record.TotalMinutes,
				record.ActiveMinutes,
				record.ToolCalls,
				completed,
				len(record.Tasks))
		}
	},
}

func showAgentTotals(store *history.Store) {
	totals, err := store.TotalsByAgent()
	if err != nil {
		fmtErr("aggregate sessions: %v", err)
		os.Exit(1)
	}

	if jsonOutput {
		outputJSON(totals)
		return
	}
	if len(totals) == 0 {
		fmt.Println("No archived sessions.")
		return
	}
	for _, t := range totals {
		fmt.Printf("%s  %d sessions, %dm total, %dm active, %d tool calls\n",
			color.AgentID(t.AgentID), t.Sessions, t.TotalMinutes, t.ActiveMinutes, t.ToolCalls)
	}
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum sessions to show")
	historyCmd.Flags().BoolVar(&historyByAgent, "by-agent", false, "aggregate totals per agent")
	rootCmd.AddCommand(historyCmd)
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/baton-project/baton/internal/doctor"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check workspace health",
	Long: `Check workspace health.

Inspects the lease record, the workspace header, and the journal hash
chain, and reports anything inconsistent. Exits non-zero when an
unhealthy finding is present.`,
	Run: func(cmd *cobra.Command, args []string) {
		result, err := doctor.NewDoctor(baseDir()).Check()
		if err != nil {
			fmtErr("doctor: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(result)
			if !result.Healthy {
				os.Exit(1)
			}
			return
		}

		if len(result.Findings) == 0 {
			fmt.Println("Workspace is healthy.")
			return
		}

		fmt.Printf("Findings (%d):\n", len(result.Findings))
		for _, f := range result.Findings {
			fmt.Printf("  [%s] %s: %s\n", f.Severity, f.Category, f.Description)
		}
		if !result.Healthy {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

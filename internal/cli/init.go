package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/baton-project/baton/internal/session"
	"github.com/baton-project/baton/pkg/color"
	"github.com/baton-project/baton/pkg/config"
	"github.com/baton-project/baton/pkg/fsutil"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a Baton workspace",
	Long: `Initialize a Baton workspace in the target directory.

This creates:
  - .baton/ directory with the default config.yaml
  - the shared workspace file (empty body, no session header)`,
	Run: func(cmd *cobra.Command, args []string) {
		dir := baseDir()
		batonDir := filepath.Join(dir, ".baton")
		if err := os.MkdirAll(batonDir, 0755); err != nil {
			fmtErr("create %s: %v", batonDir, err)
			os.Exit(1)
		}

		if err := config.Save(dir, config.Default()); err != nil {
			fmtErr("write config: %v", err)
			os.Exit(1)
		}

		workspacePath := session.WorkspacePath(dir)
		if _, err := os.Stat(workspacePath); os.IsNotExist(err) {
			if err := fsutil.AtomicWrite(workspacePath, []byte("\n"), 0644); err != nil {
				fmtErr("write workspace file: %v", err)
				os.Exit(1)
			}
		}

		if jsonOutput {
			outputJSON(map[string]any{"initialized": dir})
			return
		}
		fmt.Printf("%s workspace initialized at %s\n", color.Success("ok:"), dir)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

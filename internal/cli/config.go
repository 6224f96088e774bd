package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/baton-project/baton/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Baton configuration",
	Long: `Manage Baton configuration stored in .baton/config.yaml.

Configuration options:
  lease.ttl                - lease time-to-live (Go duration, default 30m)
  lease.heartbeat_interval - renewal cadence (default: ttl/3)
  logging.level            - debug, info, warn, error
  history.enabled          - archive finalized sessions (default true)`,
	DisableFlagsInUseLine: true,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Run: func(cmd *cobra.Command, args []string) {
		dir := baseDir()
		cfg, err := config.Load(dir)
		if err != nil {
			fmtErr("load config: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(cfg)
			return
		}

		fmt.Printf("# Baton configuration (%s/.baton/config.yaml)\n", dir)
		fmt.Printf("lease.ttl: %s\n", cfg.Lease.TTL)
		if cfg.Lease.HeartbeatInterval != "" {
			fmt.Printf("lease.heartbeat_interval: %s\n", cfg.Lease.HeartbeatInterval)
		}
		fmt.Printf("logging.level: %s\n", cfg.Logging.Level)
		fmt.Printf("logging.format: %s\n", cfg.Logging.Format)
		fmt.Printf("history.enabled: %t\n", cfg.History.Enabled)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

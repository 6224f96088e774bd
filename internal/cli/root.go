package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/baton-project/baton/pkg/color"
	"github.com/baton-project/baton/pkg/config"
	"github.com/baton-project/baton/pkg/logging"
)

var (
	jsonOutput bool
	noColor    bool
	workDir    string

	rootCmd = &cobra.Command{
		Use:   "baton",
		Short: "Baton - workspace coordination for multiple agents",
		Long: `Baton coordinates multiple agents sharing one workspace. A TTL lease
gives one agent at a time the right to mutate the workspace, a structured
header in the workspace file tracks what each session did, and an append-only
journal records every handoff.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			color.Init(noColor)
			configureLogging()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable color output")
	rootCmd.PersistentFlags().StringVar(&workDir, "dir", "", "workspace directory (default: current directory, or $BATON_DIR)")

	viper.SetEnvPrefix("baton")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.BindPFlag("dir", rootCmd.PersistentFlags().Lookup("dir"))
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// baseDir resolves the workspace directory from --dir, $BATON_DIR, or CWD.
func baseDir() string {
	if dir := viper.GetString("dir"); dir != "" {
		return dir
	}
	cwd, err := os.Getwd()
	if err != nil {
		fmtErr("cannot get current directory: %v", err)
		os.Exit(1)
	}
	return cwd
}

// agentID resolves the acting agent from the --agent flag or $BATON_AGENT.
// Commands that mutate the lease require it.
func agentID(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if agent := viper.GetString("agent"); agent != "" {
		return agent
	}
	fmtErr("no agent identity: pass --agent or set BATON_AGENT")
	os.Exit(1)
	return ""
}

// configureLogging applies the configured log level, honoring $BATON_LOG_LEVEL.
func configureLogging() {
	cfg, err := config.Load(baseDir())
	if err != nil {
		return // malformed config surfaces on the command itself
	}
	level := cfg.Logging.Level
	if env := viper.GetString("log_level"); env != "" {
		level = env
	}
	logging.SetGlobal(logging.NewLogger(logging.ParseLevel(level)))
}

// outputJSON prints v as indented JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fmtErr(format string, args ...any) {
	prefix := "baton: "
	if color.Enabled() {
		prefix = color.Error("baton:") + " "
	}
	fmt.Fprintf(os.Stderr, prefix+format+"\n", args...)
}

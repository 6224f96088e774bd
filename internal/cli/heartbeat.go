package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/baton-project/baton/internal/heartbeat"
	"github.com/baton-project/baton/pkg/color"
)

var (
	heartbeatAgent   string
	heartbeatSession string
)

var heartbeatCmd = &cobra.Command{
	Use:   "heartbeat",
	Short: "Renew the lease in the foreground until interrupted",
	Long: `Renew the workspace lease on a fixed interval, in the foreground.

Runs until interrupted (Ctrl-C) or until the lease is lost to a forced
takeover or expiry. Useful for agents that shell out per command and need a
sidecar process keeping their claim alive.`,
	Run: func(cmd *cobra.Command, args []string) {
		agent := agentID(heartbeatAgent)
		if heartbeatSession == "" {
			fmtErr("heartbeat requires --session (the session ID printed by claim)")
			os.Exit(1)
		}

		mgr, _ := leaseManager()
		lease, err := mgr.Check()
		if err != nil {
			fmtErr("heartbeat: %v", err)
			os.Exit(1)
		}
		if lease == nil || !lease.OwnedBy(agent) || lease.SessionID != heartbeatSession {
			fmtErr("heartbeat: no lease held by %s for session %s", agent, heartbeatSession)
			os.Exit(1)
		}

		lost := make(chan error, 1)
		scheduler := heartbeat.NewScheduler(mgr, mgr.Policy().Interval(), func(err error) {
			lost <- err
		})
		scheduler.Start(agent, heartbeatSession)

		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

		if !jsonOutput {
			fmt.Printf("Renewing lease for %s every %s (Ctrl-C to stop)\n",
				color.AgentID(agent), mgr.Policy().Interval())
		}

		select {
		case <-interrupt:
			scheduler.Stop()
			if !jsonOutput {
				fmt.Println("Heartbeat stopped. The lease will expire unless renewed.")
			}
		case err := <-lost:
			fmtErr("lease lost: %v", err)
			os.Exit(1)
		}
	},
}

func init() {
	heartbeatCmd.Flags().StringVar(&heartbeatAgent, "agent", "", "agent identity (or $BATON_AGENT)")
	heartbeatCmd.Flags().StringVar(&heartbeatSession, "session", "", "session ID from claim")
	rootCmd.AddCommand(heartbeatCmd)
}

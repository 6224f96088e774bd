package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/baton-project/baton/internal/journal"
	"github.com/baton-project/baton/internal/lock"
	"github.com/baton-project/baton/internal/session"
	"github.com/baton-project/baton/pkg/color"
	"github.com/baton-project/baton/pkg/config"
	"github.com/baton-project/baton/pkg/errclass"
	"github.com/baton-project/baton/pkg/model"
	"github.com/baton-project/baton/pkg/pathutil"
	"github.com/baton-project/baton/pkg/render"
)

var (
	claimAgent   string
	claimSession string
	claimPurpose string
	claimForce   bool

	renewAgent   string
	renewSession string

	releaseAgent string
)

func newSessionID() string {
	return uuid.NewString()
}

// leaseManager builds a lock manager from the workspace config. $BATON_TTL
// overrides the configured lease TTL.
func leaseManager() (*lock.Manager, string) {
	dir := baseDir()
	cfg, err := config.Load(dir)
	if err != nil {
		fmtErr("load config: %v", err)
		os.Exit(1)
	}
	if ttl := viper.GetString("ttl"); ttl != "" {
		cfg.Lease.TTL = ttl
	}
	return lock.NewManager(dir, cfg.LockPolicy()), dir
}

var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim the workspace lease",
	Long: `Claim the workspace lease for an agent.

Fails if another agent holds a live lease unless --force is given. A claim
writes the initial session header into the workspace file and appends a
journal event.`,
	Run: func(cmd *cobra.Command, args []string) {
		agent := agentID(claimAgent)
		if err := pathutil.ValidateName(agent); err != nil {
			fmtErr("invalid agent name: %v", err)
			os.Exit(1)
		}

		mgr, dir := leaseManager()
		sessionID := claimSession
		if sessionID == "" {
			sessionID = newSessionID()
		}

		lease, err := mgr.Claim(agent, sessionID, claimPurpose, claimForce)
		if err != nil {
			if errors.Is(err, errclass.ErrLockConflict) {
				fmtErr("%v (use --force to take over)", err)
			} else {
				fmtErr("claim: %v", err)
			}
			os.Exit(1)
		}

		appendEvent(dir, lease, claimForce, claimPurpose)
		writeInitialHeader(dir, lease)

		if jsonOutput {
			outputJSON(lease)
			return
		}
		details := map[string]string{
			"session": lease.SessionID,
			"expires": lease.ExpiresAt.Format(time.RFC3339),
		}
		if lease.Purpose != "" {
			details["purpose"] = lease.Purpose
		}
		fmt.Println(render.Plain(render.Result{
			Status:  render.StatusOK,
			Message: "workspace claimed by " + lease.AgentID,
			Details: details,
		}))
	},
}

func appendEvent(dir string, lease *model.Lease, force bool, purpose string) {
	eventType := model.EventTypeClaim
	if force {
		eventType = model.EventTypeForceClaim
	}
	details := map[string]any{}
	if purpose != "" {
		details["purpose"] = purpose
	}
	appender := journal.NewAppender(journal.Path(dir))
	if err := appender.Append(eventType, lease.AgentID, lease.SessionID, lease.FencingToken, details); err != nil {
		fmtErr("warning: journal append failed: %v", err)
	}
}

func writeInitialHeader(dir string, lease *model.Lease) {
	engine := session.NewEngine()
	meta := engine.CreateInitial(lease.AgentID, lease.SessionID)
	meta.Session.LockAcquired = lease.AcquiredAt
	meta.Session.LockExpires = lease.ExpiresAt
	if err := engine.Update(session.WorkspacePath(dir), meta); err != nil {
		fmtErr("warning: workspace header not written: %v", err)
	}
}

var renewCmd = &cobra.Command{
	Use:   "renew",
	Short: "Extend the current lease by one TTL",
	Run: func(cmd *cobra.Command, args []string) {
		agent := agentID(renewAgent)
		if renewSession == "" {
			fmtErr("renew requires --session (the session ID printed by claim)")
			os.Exit(1)
		}

		mgr, _ := leaseManager()
		lease, err := mgr.Renew(agent, renewSession)
		if err != nil {
			fmtErr("renew: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(lease)
			return
		}
		fmt.Println(render.Plain(render.Result{
			Status:  render.StatusOK,
			Message: "lease renewed",
			Details: map[string]string{"expires": lease.ExpiresAt.Format(time.RFC3339)},
		}))
	},
}

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Release the workspace lease",
	Long: `Release the workspace lease.

Releasing a lease held by a different agent, or no lease at all, succeeds
without doing anything so cleanup scripts stay idempotent.`,
	Run: func(cmd *cobra.Command, args []string) {
		agent := agentID(releaseAgent)

		mgr, dir := leaseManager()
		lease, err := mgr.Check()
		if err != nil {
			fmtErr("release: %v", err)
			os.Exit(1)
		}

		if err := mgr.Release(agent); err != nil {
			fmtErr("release: %v", err)
			os.Exit(1)
		}

		if lease != nil && lease.OwnedBy(agent) {
			appender := journal.NewAppender(journal.Path(dir))
			if err := appender.Append(model.EventTypeRelease, agent, lease.SessionID, lease.FencingToken, nil); err != nil {
				fmtErr("warning: journal append failed: %v", err)
			}
			if !jsonOutput {
				fmt.Printf("Lease released by %s\n", color.AgentID(agent))
			}
			return
		}
		if !jsonOutput {
			fmt.Println("Nothing to release.")
		}
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the lease and session state",
	Run: func(cmd *cobra.Command, args []string) {
		mgr, dir := leaseManager()
		state, lease, err := mgr.Status()
		if err != nil {
			fmtErr("status: %v", err)
			os.Exit(1)
		}

		meta, _ := session.NewEngine().Extract(session.WorkspacePath(dir))

		if jsonOutput {
			outputJSON(map[string]any{
				"state":   state,
				"lease":   lease,
				"session": meta,
			})
			return
		}

		fmt.Printf("Lease: %s\n", renderState(state))
		if lease != nil {
			fmt.Printf("  Agent: %s\n", color.AgentID(lease.AgentID))
			fmt.Printf("  Session: %s\n", lease.SessionID)
			fmt.Printf("  Expires: %s\n", lease.ExpiresAt.Format(time.RFC3339))
			if lease.Purpose != "" {
				fmt.Printf("  Purpose: %s\n", lease.Purpose)
			}
		}
		if meta != nil {
			completed, open := meta.TaskCounts()
			fmt.Printf("Session: %d tool calls, %d tasks done, %d open\n",
				meta.ToolCallTotal(), completed, open)
		}
	},
}

func renderState(state model.LeaseState) string {
	switch state {
	case model.LeaseStateHeld:
		return color.Warning(string(state))
	case model.LeaseStateExpired:
		return color.Dim(string(state))
	default:
		return color.Success(string(state))
	}
}

func init() {
	claimCmd.Flags().StringVar(&claimAgent, "agent", "", "agent identity (or $BATON_AGENT)")
	claimCmd.Flags().StringVar(&claimSession, "session", "", "session ID (generated when empty)")
	claimCmd.Flags().StringVar(&claimPurpose, "purpose", "", "what this session intends to do")
	claimCmd.Flags().BoolVar(&claimForce, "force", false, "take over a live lease")
	renewCmd.Flags().StringVar(&renewAgent, "agent", "", "agent identity (or $BATON_AGENT)")
	renewCmd.Flags().StringVar(&renewSession, "session", "", "session ID from claim")
	releaseCmd.Flags().StringVar(&releaseAgent, "agent", "", "agent identity (or $BATON_AGENT)")

	rootCmd.AddCommand(claimCmd)
	rootCmd.AddCommand(renewCmd)
	rootCmd.AddCommand(releaseCmd)
	rootCmd.AddCommand(statusCmd)
}

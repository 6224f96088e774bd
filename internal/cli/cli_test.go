package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/baton-project/baton/internal/journal"
	"github.com/baton-project/baton/internal/lock"
	"github.com/baton-project/baton/internal/session"
	"github.com/baton-project/baton/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) {
	t.Helper()
	// Flag variables survive between Execute calls; start each run clean.
	claimAgent, claimSession, claimPurpose, claimForce = "", "", "", false
	renewAgent, renewSession, releaseAgent = "", "", ""
	journalVerify = false
	jsonOutput = false

	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
}

func TestCLI_Init(t *testing.T) {
	dir := t.TempDir()

	runCommand(t, "init", "--dir", dir)

	assert.FileExists(t, filepath.Join(dir, ".baton", "config.yaml"))
	assert.FileExists(t, session.WorkspacePath(dir))
}

func TestCLI_ClaimStatusRelease(t *testing.T) {
	dir := t.TempDir()

	runCommand(t, "claim", "--dir", dir, "--agent", "planner-1", "--purpose", "refactor parser")

	mgr := lock.NewManager(dir, model.DefaultLockPolicy())
	lease, err := mgr.Check()
	require.NoError(t, err)
	require.NotNil(t, lease)
	assert.Equal(t, "planner-1", lease.AgentID)
	assert.Equal(t, "refactor parser", lease.Purpose)

	// The claim also wrote the initial session header.
	meta, err := session.NewEngine().Extract(session.WorkspacePath(dir))
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "planner-1", meta.Session.AgentID)

	runCommand(t, "status", "--dir", dir)

	runCommand(t, "release", "--dir", dir, "--agent", "planner-1")
	lease, err = mgr.Check()
	require.NoError(t, err)
	assert.Nil(t, lease)
	_, err = os.Stat(filepath.Join(dir, ".baton", lock.LockFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestCLI_ClaimWithExplicitSession(t *testing.T) {
	dir := t.TempDir()

	runCommand(t, "claim", "--dir", dir, "--agent", "planner-1", "--session", "sess-42")

	mgr := lock.NewManager(dir, model.DefaultLockPolicy())
	lease, err := mgr.Check()
	require.NoError(t, err)
	require.NotNil(t, lease)
	assert.Equal(t, "sess-42", lease.SessionID)

	runCommand(t, "renew", "--dir", dir, "--agent", "planner-1", "--session", "sess-42")
	runCommand(t, "release", "--dir", dir, "--agent", "planner-1")
}

func TestCLI_TaskLifecycle(t *testing.T) {
	dir := t.TempDir()

	runCommand(t, "claim", "--dir", dir, "--agent", "planner-1")
	runCommand(t, "task", "add", "split token validation", "--dir", dir)
	runCommand(t, "task", "add", "write docs", "--dir", dir)
	runCommand(t, "task", "done", "split token validation", "--dir", dir)
	runCommand(t, "task", "pause", "write docs", "--dir", dir)
	runCommand(t, "task", "list", "--dir", dir)
	runCommand(t, "summary", "--dir", dir)

	meta, err := session.NewEngine().Extract(session.WorkspacePath(dir))
	require.NoError(t, err)
	require.NotNil(t, meta)
	require.Len(t, meta.Tasks, 2)
	assert.Equal(t, model.TaskCompleted, meta.Tasks[0].Status)
	assert.Equal(t, model.TaskPaused, meta.Tasks[1].Status)

	runCommand(t, "release", "--dir", dir, "--agent", "planner-1")
}

func TestCLI_JournalRecordsHandoffs(t *testing.T) {
	dir := t.TempDir()

	runCommand(t, "claim", "--dir", dir, "--agent", "planner-1")
	runCommand(t, "release", "--dir", dir, "--agent", "planner-1")
	runCommand(t, "journal", "--dir", dir)
	runCommand(t, "journal", "--verify", "--dir", dir)

	records, err := journal.NewAppender(journal.Path(dir)).Records()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, model.EventTypeClaim, records[0].EventType)
	assert.Equal(t, model.EventTypeRelease, records[1].EventType)
}

func TestCLI_DoctorHealthy(t *testing.T) {
	dir := t.TempDir()

	runCommand(t, "init", "--dir", dir)
	runCommand(t, "doctor", "--dir", dir)
	runCommand(t, "config", "show", "--dir", dir)
}

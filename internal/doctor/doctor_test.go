package doctor_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/baton-project/baton/internal/doctor"
	"github.com/baton-project/baton/internal/journal"
	"github.com/baton-project/baton/internal/lock"
	"github.com/baton-project/baton/internal/session"
	"github.com/baton-project/baton/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findingCategories(result *doctor.Result) []string {
	var categories []string
	for _, f := range result.Findings {
		categories = append(categories, f.Category)
	}
	return categories
}

func TestDoctor_Check_EmptyWorkspaceHealthy(t *testing.T) {
	dir := t.TempDir()

	result, err := doctor.NewDoctor(dir).Check()
	require.NoError(t, err)
	assert.True(t, result.Healthy)
	assert.Empty(t, result.Findings)
}

func TestDoctor_Check_ActiveWorkspaceHealthy(t *testing.T) {
	dir := t.TempDir()

	manager := lock.NewManager(dir, model.DefaultLockPolicy())
	_, err := manager.Claim("agent-a", "sess-1", "", false)
	require.NoError(t, err)

	engine := session.NewEngine()
	meta := engine.CreateInitial("agent-a", "sess-1")
	require.NoError(t, engine.Update(session.WorkspacePath(dir), meta))

	appender := journal.NewAppender(journal.Path(dir))
	require.NoError(t, appender.Append(model.EventTypeClaim, "agent-a", "sess-1", 1, nil))

	result, err := doctor.NewDoctor(dir).Check()
	require.NoError(t, err)
	assert.True(t, result.Healthy)
	assert.Empty(t, result.Findings)
}

func TestDoctor_Check_ExpiredLeaseIsInfo(t *testing.T) {
	dir := t.TempDir()

	past := time.Now().Add(-2 * time.Hour)
	manager := lock.NewManager(dir, model.DefaultLockPolicy(),
		lock.WithClock(func() time.Time { return past }))
	_, err := manager.Claim("agent-a", "sess-1", "", false)
	require.NoError(t, err)

	result, err := doctor.NewDoctor(dir).Check()
	require.NoError(t, err)
	assert.True(t, result.Healthy)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, "lease", result.Findings[0].Category)
	assert.Equal(t, "info", result.Findings[0].Severity)
	assert.Contains(t, result.Findings[0].Description, "agent-a")
}

func TestDoctor_Check_MalformedLeaseIsWarning(t *testing.T) {
	dir := t.TempDir()
	batonDir := filepath.Join(dir, ".baton")
	require.NoError(t, os.MkdirAll(batonDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(batonDir, lock.LockFileName), []byte("{truncated"), 0644))

	result, err := doctor.NewDoctor(dir).Check()
	require.NoError(t, err)
	assert.True(t, result.Healthy)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, "warning", result.Findings[0].Severity)
}

func TestDoctor_Check_InvertedLeaseTimesUnhealthy(t *testing.T) {
	dir := t.TempDir()
	batonDir := filepath.Join(dir, ".baton")
	require.NoError(t, os.MkdirAll(batonDir, 0755))

	lease := `{"agent_id":"agent-a","session_id":"sess-1","acquired_at":"2026-03-01T12:00:00Z","expires_at":"2026-03-01T10:00:00Z","fencing_token":1}`
	require.NoError(t, os.WriteFile(filepath.Join(batonDir, lock.LockFileName), []byte(lease), 0644))

	result, err := doctor.NewDoctor(dir).Check()
	require.NoError(t, err)
	assert.False(t, result.Healthy)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, "error", result.Findings[0].Severity)
}

func TestDoctor_Check_MalformedHeaderIsWarning(t *testing.T) {
	dir := t.TempDir()
	batonDir := filepath.Join(dir, ".baton")
	require.NoError(t, os.MkdirAll(batonDir, 0755))

	content := "---\n\t{bad yaml\n---\n\nnotes\n"
	require.NoError(t, os.WriteFile(session.WorkspacePath(dir), []byte(content), 0644))

	result, err := doctor.NewDoctor(dir).Check()
	require.NoError(t, err)
	assert.True(t, result.Healthy)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, "workspace", result.Findings[0].Category)
	assert.Equal(t, "warning", result.Findings[0].Severity)
}

func TestDoctor_Check_BrokenJournalUnhealthy(t *testing.T) {
	dir := t.TempDir()

	appender := journal.NewAppender(journal.Path(dir))
	require.NoError(t, appender.Append(model.EventTypeClaim, "agent-a", "sess-1", 1, nil))
	require.NoError(t, appender.Append(model.EventTypeRelease, "agent-a", "sess-1", 1, nil))

	data, err := os.ReadFile(journal.Path(dir))
	require.NoError(t, err)
	tampered := strings.Replace(string(data), "agent-a", "agent-x", 1)
	require.NoError(t, os.WriteFile(journal.Path(dir), []byte(tampered), 0644))

	result, err := doctor.NewDoctor(dir).Check()
	require.NoError(t, err)
	assert.False(t, result.Healthy)
	assert.Contains(t, findingCategories(result), "journal")
}

func TestDoctor_Check_OrphanTmpFiles(t *testing.T) {
	dir := t.TempDir()
	batonDir := filepath.Join(dir, ".baton")
	require.NoError(t, os.MkdirAll(batonDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(batonDir, ".baton-tmp-123456"), []byte("x"), 0644))

	result, err := doctor.NewDoctor(dir).Check()
	require.NoError(t, err)
	assert.True(t, result.Healthy)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, "tmp", result.Findings[0].Category)
	assert.Equal(t, "info", result.Findings[0].Severity)
}

// Package lock implements the workspace lease: a cooperative advisory lock
// over the shared workspace file, persisted as a single JSON record. Expiry
// is evaluated by wall-clock comparison only; a stale record is overwritten
// by the next successful claim, never actively deleted.
package lock

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/baton-project/baton/pkg/errclass"
	"github.com/baton-project/baton/pkg/fsutil"
	"github.com/baton-project/baton/pkg/logging"
	"github.com/baton-project/baton/pkg/model"
)

// LockFileName is the lease record file within the .baton directory.
const LockFileName = "workspace.lock.json"

// Manager handles lease operations for a single workspace.
type Manager struct {
	baseDir string
	policy  model.LockPolicy
	now     func() time.Time
	mu      sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the wall clock. Used by tests to drive expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a lease manager rooted at baseDir.
func NewManager(baseDir string, policy model.LockPolicy, opts ...Option) *Manager {
	if policy.TTL <= 0 {
		policy = model.DefaultLockPolicy()
	}
	m := &Manager{
		baseDir: baseDir,
		policy:  policy,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Policy returns the timing parameters the manager was built with.
func (m *Manager) Policy() model.LockPolicy {
	return m.policy
}

// Claim attempts to take the workspace lease for agentID/sessionID.
//
// An absent record, an expired record, a record already owned by agentID, or
// force=true all result in a fresh lease with acquired_at=now and
// expires_at=now+ttl. A live record owned by a different agent fails with
// ErrLockConflict naming the owner and its expiry; an expired foreign record
// still conflicts until the policy's clock skew tolerance has also elapsed.
// The write is a single atomic replace, so a losing concurrent claim never
// merges with the winner.
func (m *Manager) Claim(agentID, sessionID, purpose string, force bool) (*model.Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lockPath := m.lockPath()
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, errclass.ErrStorageIO.WithMessagef("create lock dir: %v", err)
	}

	now := m.now()
	existing, err := m.readLease(lockPath)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		return m.createLocked(lockPath, agentID, sessionID, purpose, now, 1)
	}

	live := !existing.IsExpired(now)
	if !force && !existing.OwnedBy(agentID) {
		// An expired foreign record stays unclaimable for the skew window so
		// an owner whose clock runs slightly behind is not stolen from at the
		// nominal expiry instant.
		if live || now.Before(existing.ExpiresAt.Add(m.policy.ClockSkewTolerance)) {
			return nil, errclass.ErrLockConflict.WithMessagef(
				"workspace claimed by %s until %s",
				existing.AgentID, existing.ExpiresAt.Format(time.RFC3339))
		}
	}

	// Expired, forced, or a re-claim by the current owner: supersede in place.
	lease := &model.Lease{
		AgentID:      agentID,
		SessionID:    sessionID,
		Purpose:      purpose,
		AcquiredAt:   now,
		ExpiresAt:    now.Add(m.policy.TTL),
		FencingToken: existing.FencingToken + 1,
	}
	if err := m.writeLease(lockPath, lease); err != nil {
		return nil, err
	}

	if live && force && !existing.OwnedBy(agentID) {
		logging.Warn("lease force-claimed", map[string]any{
			"agent_id":       agentID,
			"previous_agent": existing.AgentID,
			"fencing_token":  lease.FencingToken,
		})
	}
	return lease, nil
}

// createLocked writes the first lease record via O_CREAT|O_EXCL so two
// concurrent first claims cannot both win.
func (m *Manager) createLocked(lockPath, agentID, sessionID, purpose string, now time.Time, token int64) (*model.Lease, error) {
	lease := &model.Lease{
		AgentID:      agentID,
		SessionID:    sessionID,
		Purpose:      purpose,
		AcquiredAt:   now,
		ExpiresAt:    now.Add(m.policy.TTL),
		FencingToken: token,
	}

	data, err := json.MarshalIndent(lease, "", "  ")
	if err != nil {
		return nil, errclass.ErrStorageIO.WithMessagef("marshal lease: %v", err)
	}

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			// Another claim landed between our read and this create.
			winner, readErr := m.readLease(lockPath)
			if readErr == nil && winner != nil {
				return nil, errclass.ErrLockConflict.WithMessagef(
					"workspace claimed by %s until %s",
					winner.AgentID, winner.ExpiresAt.Format(time.RFC3339))
			}
			return nil, errclass.ErrLockConflict.WithMessage("workspace claimed concurrently")
		}
		return nil, errclass.ErrStorageIO.WithMessagef("create lease: %v", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, errclass.ErrStorageIO.WithMessagef("write lease: %v", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, errclass.ErrStorageIO.WithMessagef("sync lease: %v", err)
	}
	if err := file.Close(); err != nil {
		return nil, errclass.ErrStorageIO.WithMessagef("close lease: %v", err)
	}
	return lease, nil
}

// Check returns the current lease only if it is live. Absent, expired, and
// malformed records all yield nil without error; Check is for status
// reporting, never for mutation decisions.
func (m *Manager) Check() (*model.Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lease, err := m.readLease(m.lockPath())
	if err != nil {
		return nil, err
	}
	if lease == nil || lease.IsExpired(m.now()) {
		return nil, nil
	}
	return lease, nil
}

// Status reports the lease state for display: free, held, or expired. Unlike
// Check it surfaces an expired record so callers can show who abandoned it.
func (m *Manager) Status() (model.LeaseState, *model.Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lease, err := m.readLease(m.lockPath())
	if err != nil {
		return model.LeaseStateFree, nil, err
	}
	if lease == nil {
		return model.LeaseStateFree, nil, nil
	}
	if lease.IsExpired(m.now()) {
		return model.LeaseStateExpired, lease, nil
	}
	return model.LeaseStateHeld, lease, nil
}

// Renew extends the lease held by agentID/sessionID by one TTL from now.
// A record owned by someone else means the caller was superseded and gets
// ErrLockNotHeld; an expired own record gets ErrLockExpired.
func (m *Manager) Renew(agentID, sessionID string) (*model.Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lockPath := m.lockPath()
	lease, err := m.readLease(lockPath)
	if err != nil {
		return nil, err
	}
	if lease == nil {
		return nil, errclass.ErrLockNotHeld.WithMessage("no lease record")
	}
	if !lease.Matches(agentID, sessionID) {
		return nil, errclass.ErrLockNotHeld.WithMessagef(
			"lease superseded by %s", lease.AgentID)
	}
	if lease.IsExpired(m.now()) {
		return nil, errclass.ErrLockExpired.WithMessage("lease has expired")
	}

	lease.ExpiresAt = m.now().Add(m.policy.TTL)
	if err := m.writeLease(lockPath, lease); err != nil {
		return nil, err
	}
	return lease, nil
}

// Release deletes the lease record if it belongs to agentID. Releasing a
// lease you do not own, or one that does not exist, is a no-op success so
// best-effort cleanup after a crash stays idempotent.
func (m *Manager) Release(agentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lockPath := m.lockPath()
	lease, err := m.readLease(lockPath)
	if err != nil {
		return err
	}
	if lease == nil || !lease.OwnedBy(agentID) {
		return nil
	}

	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		return errclass.ErrStorageIO.WithMessagef("remove lease: %v", err)
	}
	logging.Info("lease released", map[string]any{"agent_id": agentID})
	return nil
}

func (m *Manager) lockPath() string {
	return filepath.Join(m.baseDir, ".baton", LockFileName)
}

// readLease loads the lease record. A missing file returns (nil, nil). An
// unparseable record also returns (nil, nil): a corrupt lease must not wedge
// the workspace, and the next claim overwrites it.
func (m *Manager) readLease(path string) (*model.Lease, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errclass.ErrStorageIO.WithMessagef("read lease: %v", err)
	}
	var lease model.Lease
	if err := json.Unmarshal(data, &lease); err != nil {
		logging.Warn("malformed lease record treated as absent", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
		return nil, nil
	}
	return &lease, nil
}

func (m *Manager) writeLease(path string, lease *model.Lease) error {
	data, err := json.MarshalIndent(lease, "", "  ")
	if err != nil {
		return errclass.ErrStorageIO.WithMessagef("marshal lease: %v", err)
	}
	if err := fsutil.AtomicWrite(path, data, 0644); err != nil {
		return errclass.ErrStorageIO.WithMessagef("write lease: %v", err)
	}
	return nil
}

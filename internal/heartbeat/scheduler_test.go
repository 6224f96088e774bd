package heartbeat_test

import (
	"sync"
	"testing"
	"time"

	"github.com/baton-project/baton/internal/heartbeat"
	"github.com/baton-project/baton/internal/lock"
	"github.com/baton-project/baton/pkg/errclass"
	"github.com/baton-project/baton/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRenewer scripts renewal outcomes and records call counts.
type stubRenewer struct {
	mu    sync.Mutex
	calls int
	errs  []error // consumed in order; nil entries mean success
}

func (r *stubRenewer) Renew(agentID, sessionID string) (*model.Lease, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &model.Lease{AgentID: agentID, SessionID: sessionID}, nil
}

func (r *stubRenewer) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestScheduler_RenewsOnTick(t *testing.T) {
	renewer := &stubRenewer{}
	sched := heartbeat.NewScheduler(renewer, 10*time.Millisecond, nil)

	sched.Start("planner-1", "sess-a")
	defer sched.Stop()

	waitFor(t, func() bool { return renewer.callCount() >= 3 })
}

func TestScheduler_Stop_NoRenewalAfterReturn(t *testing.T) {
	renewer := &stubRenewer{}
	sched := heartbeat.NewScheduler(renewer, 10*time.Millisecond, nil)

	sched.Start("planner-1", "sess-a")
	waitFor(t, func() bool { return renewer.callCount() >= 1 })

	sched.Stop()
	after := renewer.callCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, renewer.callCount(), "no renewal may land after Stop returns")
}

func TestScheduler_Stop_Idempotent(t *testing.T) {
	sched := heartbeat.NewScheduler(&stubRenewer{}, 10*time.Millisecond, nil)

	// Never started
	sched.Stop()

	sched.Start("planner-1", "sess-a")
	sched.Stop()
	sched.Stop()
}

func TestScheduler_StartTwiceReplaces(t *testing.T) {
	renewer := &stubRenewer{}
	sched := heartbeat.NewScheduler(renewer, 10*time.Millisecond, nil)

	sched.Start("planner-1", "sess-a")
	sched.Start("planner-1", "sess-b")
	defer sched.Stop()

	waitFor(t, func() bool { return renewer.callCount() >= 2 })
	sched.Stop()

	// A replaced loop is fully stopped; after Stop nothing renews.
	after := renewer.callCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, renewer.callCount())
}

func TestScheduler_SupersedeStopsAndSignalsLost(t *testing.T) {
	renewer := &stubRenewer{errs: []error{errclass.ErrLockNotHeld.WithMessage("lease superseded by reviewer-2")}}

	var mu sync.Mutex
	var lostErr error
	sched := heartbeat.NewScheduler(renewer, 10*time.Millisecond, func(err error) {
		mu.Lock()
		lostErr = err
		mu.Unlock()
	})

	sched.Start("planner-1", "sess-a")
	defer sched.Stop()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return lostErr != nil
	})
	mu.Lock()
	require.ErrorIs(t, lostErr, errclass.ErrLockNotHeld)
	mu.Unlock()

	// Loop stopped itself; no further renewals.
	after := renewer.callCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, renewer.callCount())
}

func TestScheduler_TransientErrorRetriedNotTerminal(t *testing.T) {
	renewer := &stubRenewer{errs: []error{
		errclass.ErrStorageIO.WithMessage("disk hiccup"),
		nil, // immediate retry succeeds
	}}

	var mu sync.Mutex
	lost := false
	sched := heartbeat.NewScheduler(renewer, 10*time.Millisecond, func(error) {
		mu.Lock()
		lost = true
		mu.Unlock()
	})

	sched.Start("planner-1", "sess-a")
	defer sched.Stop()

	waitFor(t, func() bool { return renewer.callCount() >= 4 })
	mu.Lock()
	defer mu.Unlock()
	assert.False(t, lost, "I/O errors are retried, not escalated")
}

// Renewal against a real manager extends expiry strictly forward each tick.
func TestScheduler_ExtendsLease(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	now := base
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	mgr := lock.NewManager(dir, model.LockPolicy{TTL: 30 * time.Minute}, lock.WithClock(clock))
	first, err := mgr.Claim("planner-1", "sess-a", "", false)
	require.NoError(t, err)

	sched := heartbeat.NewScheduler(mgr, 10*time.Millisecond, nil)
	sched.Start("planner-1", "sess-a")
	defer sched.Stop()

	advance(5 * time.Minute)
	waitFor(t, func() bool {
		lease, err := mgr.Check()
		return err == nil && lease != nil && lease.ExpiresAt.After(first.ExpiresAt)
	})

	sched.Stop()
	lease, err := mgr.Check()
	require.NoError(t, err)
	require.NotNil(t, lease)
	frozen := lease.ExpiresAt

	advance(5 * time.Minute)
	time.Sleep(50 * time.Millisecond)
	lease, err = mgr.Check()
	require.NoError(t, err)
	require.NotNil(t, lease)
	assert.True(t, lease.ExpiresAt.Equal(frozen), "no extension after Stop")
}

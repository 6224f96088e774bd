package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLease_IsExpired(t *testing.T) {
	expires := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	lease := &Lease{AgentID: "planner-1", ExpiresAt: expires}

	assert.False(t, lease.IsExpired(expires.Add(-time.Second)))
	assert.True(t, lease.IsExpired(expires), "the expiry instant itself counts as expired")
	assert.True(t, lease.IsExpired(expires.Add(time.Second)))
}

func TestLockPolicy_Interval(t *testing.T) {
	policy := LockPolicy{TTL: 30 * time.Minute}
	assert.Equal(t, 10*time.Minute, policy.Interval())

	policy.HeartbeatInterval = 2 * time.Minute
	assert.Equal(t, 2*time.Minute, policy.Interval())
}

package model

import "time"

// Lease is stored at <base>/.baton/workspace.lock.json
type Lease struct {
	AgentID      string    `json:"agent_id"`
	SessionID    string    `json:"session_id"`
	AcquiredAt   time.Time `json:"acquired_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	FencingToken int64     `json:"fencing_token"`
	Purpose      string    `json:"purpose,omitempty"`
}

// IsExpired returns true once now reaches expires_at. The boundary instant
// counts as expired: a lease is live strictly before its expiry.
func (l *Lease) IsExpired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// OwnedBy reports whether the lease belongs to the given agent.
func (l *Lease) OwnedBy(agentID string) bool {
	return l.AgentID == agentID
}

// Matches reports whether the lease belongs to the given claim episode.
func (l *Lease) Matches(agentID, sessionID string) bool {
	return l.AgentID == agentID && l.SessionID == sessionID
}

// LeaseState represents the current state of the workspace lease.
type LeaseState string

const (
	LeaseStateHeld    LeaseState = "held"
	LeaseStateExpired LeaseState = "expired"
	LeaseStateFree    LeaseState = "free"
)

// LockPolicy configures lease timing parameters. ClockSkewTolerance is the
// grace window after nominal expiry during which an unforced claim by a
// different agent still conflicts, so an owner whose clock runs slightly
// behind is not stolen from at the expiry instant.
type LockPolicy struct {
	TTL                time.Duration `json:"ttl"`
	HeartbeatInterval  time.Duration `json:"heartbeat_interval"`
	ClockSkewTolerance time.Duration `json:"clock_skew_tolerance"`
}

// DefaultLockPolicy returns the standard lease timing: a 30 minute TTL
// renewed every TTL/3.
func DefaultLockPolicy() LockPolicy {
	return LockPolicy{
		TTL:                30 * time.Minute,
		ClockSkewTolerance: 1 * time.Minute,
	}
}

// Interval returns the heartbeat tick interval, defaulting to TTL/3 so a
// renewal always lands well before expiry.
func (p LockPolicy) Interval() time.Duration {
	if p.HeartbeatInterval > 0 {
		return p.HeartbeatInterval
	}
	return p.TTL / 3
}

package baton

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/baton-project/baton/internal/heartbeat"
	"github.com/baton-project/baton/internal/journal"
	"github.com/baton-project/baton/internal/lock"
	"github.com/baton-project/baton/internal/session"
	"github.com/baton-project/baton/internal/tracker"
	"github.com/baton-project/baton/pkg/config"
	"github.com/baton-project/baton/pkg/logging"
	"github.com/baton-project/baton/pkg/model"
	"github.com/baton-project/baton/pkg/pathutil"
)

// Client provides high-level coordination operations on one workspace.
type Client struct {
	baseDir string
	cfg     *config.Config
	locks   *lock.Manager
	events  *journal.Appender
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithClock overrides the time source for the client and everything it
// constructs.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// Open opens the workspace rooted at baseDir, loading .baton/config.yaml if
// present. The workspace directory does not need to exist yet; the first
// claim creates it.
func Open(baseDir string, opts ...Option) (*Client, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(abs)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseDir: abs,
		cfg:     cfg,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.locks = lock.NewManager(abs, cfg.LockPolicy(), lock.WithClock(c.now))
	c.events = journal.NewAppender(journal.Path(abs), journal.WithClock(c.now))
	return c, nil
}

// BaseDir returns the absolute workspace root.
func (c *Client) BaseDir() string {
	return c.baseDir
}

// Config returns the loaded configuration.
func (c *Client) Config() *config.Config {
	return c.cfg
}

// Status reports the lease state without mutating anything.
func (c *Client) Status() (model.LeaseState, *model.Lease, error) {
	return c.locks.Status()
}

// Check returns the live lease, or nil if the workspace is claimable.
func (c *Client) Check() (*model.Lease, error) {
	return c.locks.Check()
}

// BeginOptions configures a new session.
type BeginOptions struct {
	Purpose   string // Human-readable intent recorded in the lease
	Force     bool   // Overwrite a live foreign lease
	SessionID string // Session identifier; empty generates a random one
}

// Begin claims the workspace for agentID and starts a session: the lease is
// written, a background heartbeat starts renewing it, and tool tracking is
// switched on. A live foreign lease fails with ErrLockConflict unless
// opts.Force is set.
func (c *Client) Begin(agentID string, opts BeginOptions) (*Session, error) {
	if err := pathutil.ValidateName(agentID); err != nil {
		return nil, err
	}

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	lease, err := c.locks.Claim(agentID, sessionID, opts.Purpose, opts.Force)
	if err != nil {
		return nil, err
	}

	eventType := model.EventTypeClaim
	if opts.Force {
		eventType = model.EventTypeForceClaim
	}
	details := map[string]any{}
	if opts.Purpose != "" {
		details["purpose"] = opts.Purpose
	}
	if err := c.events.Append(eventType, agentID, sessionID, lease.FencingToken, details); err != nil {
		logging.Warn("journal append failed", map[string]any{"error": err.Error()})
	}

	engine := session.NewEngine(session.WithClock(c.now))
	meta := engine.CreateInitial(agentID, sessionID)
	meta.Session.LockAcquired = lease.AcquiredAt
	meta.Session.LockExpires = lease.ExpiresAt

	workspacePath := session.WorkspacePath(c.baseDir)
	if err := engine.Update(workspacePath, meta); err != nil {
		// Roll the claim back so a broken workspace file does not strand
		// the lease.
		_ = c.locks.Release(agentID)
		return nil, err
	}

	usage := tracker.New()
	usage.Enable()

	s := &Session{
		client:        c,
		engine:        engine,
		tracker:       usage,
		meta:          meta,
		lease:         lease,
		workspacePath: workspacePath,
		lastFlush:     c.now(),
		lost:          make(chan struct{}),
	}

	s.scheduler = heartbeat.NewScheduler(c.locks, c.locks.Policy().Interval(), s.onLost)
	s.scheduler.Start(agentID, sessionID)

	logging.Info("session started", map[string]any{
		"agent_id":   agentID,
		"session_id": sessionID,
	})
	return s, nil
}

package baton

import (
	"sync"
	"time"

	"github.com/baton-project/baton/internal/heartbeat"
	"github.com/baton-project/baton/internal/history"
	"github.com/baton-project/baton/internal/session"
	"github.com/baton-project/baton/internal/tracker"
	"github.com/baton-project/baton/pkg/logging"
	"github.com/baton-project/baton/pkg/model"
)

// Session is one claim episode over a workspace. It owns the lease, the
// heartbeat keeping it alive, and the metadata accumulating in the workspace
// header. A Session is safe for concurrent use.
type Session struct {
	client        *Client
	engine        *session.Engine
	tracker       *tracker.Tracker
	scheduler     *heartbeat.Scheduler
	lease         *model.Lease
	workspacePath string

	mu        sync.Mutex
	meta      *model.SessionMetadata
	lastFlush time.Time
	closed    bool

	lost     chan struct{}
	lostOnce sync.Once
}

// Lease returns the lease record as of claim time.
func (s *Session) Lease() *model.Lease {
	return s.lease
}

// Done returns a channel that is closed when lease ownership is lost, for
// example after another agent force-claims the workspace. Callers should
// stop mutating the workspace once Done fires.
func (s *Session) Done() <-chan struct{} {
	return s.lost
}

// RecordTool counts one tool invocation. Counts stay in memory until the
// next Flush.
func (s *Session) RecordTool(toolName string) {
	s.tracker.Record(toolName)
}

// AddTask registers a new active task and persists the header.
func (s *Session) AddTask(title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.AddTask(s.meta, title)
	return s.persistLocked()
}

// CompleteTask marks a task completed and persists the header. Completing a
// task twice is a no-op.
func (s *Session) CompleteTask(title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.CompleteTask(s.meta, title); err != nil {
		return err
	}
	return s.persistLocked()
}

// PauseTask marks a task paused and persists the header.
func (s *Session) PauseTask(title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.PauseTask(s.meta, title); err != nil {
		return err
	}
	return s.persistLocked()
}

// Flush drains pending tool counts into the workspace header and accrues
// active time for the window since the previous flush.
func (s *Session) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
	return s.persistLocked()
}

// Metadata returns an independent snapshot of the session metadata including
// counts not yet flushed to disk. Later session mutations never show through
// the returned copy.
func (s *Session) Metadata() *model.SessionMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
	return s.meta.Clone()
}

// Summary renders a human-readable session summary.
func (s *Session) Summary() string {
	return session.GenerateSessionSummary(s.Metadata())
}

// Close ends the session: the heartbeat stops, pending counts are flushed,
// the header is finalized, the session is archived, and the lease released.
// Close is idempotent; calling it after ownership was lost skips the parts
// that would touch another agent's session.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.scheduler.Stop()
	s.tracker.Disable()

	select {
	case <-s.lost:
		// Someone else owns the workspace now. Leave its lease and header
		// alone; just log that we went quietly.
		logging.Info("session closed after losing lease", map[string]any{
			"agent_id":   s.lease.AgentID,
			"session_id": s.lease.SessionID,
		})
		return nil
	default:
	}

	s.mu.Lock()
	s.flushLocked()
	s.engine.Finalize(s.meta)
	err := s.persistLocked()
	meta := s.meta.Clone()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if jerr := s.client.events.Append(model.EventTypeFinalize, s.lease.AgentID, s.lease.SessionID, s.lease.FencingToken, map[string]any{
		"total_minutes": meta.Timing.TotalMinutes,
		"tool_calls":    meta.ToolCallTotal(),
	}); jerr != nil {
		logging.Warn("journal append failed", map[string]any{"error": jerr.Error()})
	}

	if s.client.cfg.History.Enabled {
		s.archive(meta)
	}

	if err := s.client.locks.Release(s.lease.AgentID); err != nil {
		return err
	}
	if jerr := s.client.events.Append(model.EventTypeRelease, s.lease.AgentID, s.lease.SessionID, s.lease.FencingToken, nil); jerr != nil {
		logging.Warn("journal append failed", map[string]any{"error": jerr.Error()})
	}

	logging.Info("session closed", map[string]any{
		"agent_id":   s.lease.AgentID,
		"session_id": s.lease.SessionID,
	})
	return nil
}

// archive stores the finalized session in the local history database.
// Archive failures are logged, not fatal: losing a history row must not
// block the lease release.
func (s *Session) archive(meta *model.SessionMetadata) {
	store, err := history.Open(history.DBPath(s.client.baseDir))
	if err != nil {
		logging.Warn("history archive unavailable", map[string]any{"error": err.Error()})
		return
	}
	defer store.Close()
	if err := store.Archive(meta); err != nil {
		logging.Warn("history archive failed", map[string]any{"error": err.Error()})
	}
}

func (s *Session) onLost(err error) {
	s.tracker.Disable()
	logging.Warn("workspace lease lost", map[string]any{
		"agent_id":   s.lease.AgentID,
		"session_id": s.lease.SessionID,
		"error":      err.Error(),
	})
	s.lostOnce.Do(func() { close(s.lost) })
}

// flushLocked drains the tracker into metadata and accrues the active-time
// window. Caller holds s.mu.
func (s *Session) flushLocked() {
	usage, categories := s.tracker.Flush()
	now := s.client.now()
	if len(usage) > 0 {
		session.MergeToolUsage(s.meta, usage, categories)
		s.engine.AccrueActive(s.meta, session.CalculateDuration(s.lastFlush, now))
	}
	s.lastFlush = now
}

// persistLocked writes the header unless ownership is gone. Caller holds s.mu.
func (s *Session) persistLocked() error {
	select {
	case <-s.lost:
		return nil
	default:
	}
	return s.engine.Update(s.workspacePath, s.meta)
}

// Package heartbeat keeps a held workspace lease alive. A scheduler runs one
// background goroutine that renews the lease on a fixed tick strictly shorter
// than the lease TTL, stops itself when the lease is lost, and guarantees no
// renewal write occurs after Stop returns.
package heartbeat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/baton-project/baton/pkg/errclass"
	"github.com/baton-project/baton/pkg/logging"
	"github.com/baton-project/baton/pkg/model"
)

// Renewer extends a held lease. Satisfied by *lock.Manager.
type Renewer interface {
	Renew(agentID, sessionID string) (*model.Lease, error)
}

// Scheduler periodically renews a lease for the current process. At most one
// renewal loop runs at a time; Start replaces a running loop rather than
// stacking a second one.
type Scheduler struct {
	renewer  Renewer
	interval time.Duration
	onLost   func(error)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a scheduler renewing through renewer every interval.
// onLost is called once, from the renewal goroutine, if ownership is lost to
// supersede or expiry; it may be nil.
func NewScheduler(renewer Renewer, interval time.Duration, onLost func(error)) *Scheduler {
	return &Scheduler{
		renewer:  renewer,
		interval: interval,
		onLost:   onLost,
	}
}

// Start begins renewing the lease identified by agentID/sessionID. A loop
// already running is stopped first.
func (s *Scheduler) Start(agentID, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.run(ctx, done, agentID, sessionID)
}

// Stop cancels the renewal loop and waits for it to exit: once Stop returns,
// no further renewal write can occur. Idempotent, and safe when never started.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}, agentID, sessionID string) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if terminal := s.renewOnce(agentID, sessionID); terminal != nil {
				logging.Warn("heartbeat stopping, lease lost", map[string]any{
					"agent_id": agentID,
					"error":    terminal.Error(),
				})
				if s.onLost != nil {
					s.onLost(terminal)
				}
				return
			}
		}
	}
}

// renewOnce performs one renewal attempt. Supersede and expiry are terminal;
// anything else is retried once immediately and otherwise left to the next
// tick.
func (s *Scheduler) renewOnce(agentID, sessionID string) error {
	err := s.renew(agentID, sessionID)
	if err == nil || isTerminal(err) {
		return err
	}

	logging.Warn("heartbeat renewal failed, retrying", map[string]any{
		"agent_id": agentID,
		"error":    err.Error(),
	})
	err = s.renew(agentID, sessionID)
	if err == nil || isTerminal(err) {
		return err
	}
	// Transient failure twice in a row: the lease is still live for most of
	// its TTL, so wait for the next tick.
	return nil
}

func (s *Scheduler) renew(agentID, sessionID string) error {
	_, err := s.renewer.Renew(agentID, sessionID)
	return err
}

func isTerminal(err error) bool {
	return errors.Is(err, errclass.ErrLockNotHeld) || errors.Is(err, errclass.ErrLockExpired)
}

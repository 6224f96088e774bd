// Package doctor runs workspace health checks.
package doctor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/baton-project/baton/internal/journal"
	"github.com/baton-project/baton/internal/lock"
	"github.com/baton-project/baton/internal/session"
	"github.com/baton-project/baton/pkg/model"
)

// Finding represents a detected issue.
type Finding struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Path        string `json:"path,omitempty"`
}

// Result contains doctor check results.
type Result struct {
	Healthy  bool      `json:"healthy"`
	Findings []Finding `json:"findings"`
}

// Doctor performs workspace health checks.
type Doctor struct {
	baseDir string
	now     func() time.Time
}

// Option configures a Doctor.
type Option func(*Doctor)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *Doctor) { d.now = now }
}

// NewDoctor creates a doctor for the workspace rooted at baseDir.
func NewDoctor(baseDir string, opts ...Option) *Doctor {
	d := &Doctor{baseDir: baseDir, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Check runs all diagnostic checks.
func (d *Doctor) Check() (*Result, error) {
	result := &Result{Healthy: true}

	d.checkLease(result)
	d.checkWorkspaceHeader(result)
	d.checkJournal(result)
	d.checkOrphanTmp(result)

	return result, nil
}

func (d *Doctor) checkLease(result *Result) {
	lockPath := filepath.Join(d.baseDir, ".baton", lock.LockFileName)
	data, err := os.ReadFile(lockPath)
	if os.IsNotExist(err) {
		return // no lease is a healthy state
	}
	if err != nil {
		result.Findings = append(result.Findings, Finding{
			Category:    "lease",
			Description: fmt.Sprintf("cannot read lease file: %v", err),
			Severity:    "error",
			Path:        lockPath,
		})
		result.Healthy = false
		return
	}

	var lease model.Lease
	if err := json.Unmarshal(data, &lease); err != nil {
		// A malformed lease is overwritten by the next claim, so this
		// only warrants a warning.
		result.Findings = append(result.Findings, Finding{
			Category:    "lease",
			Description: fmt.Sprintf("lease file is not valid JSON: %v", err),
			Severity:    "warning",
			Path:        lockPath,
		})
		return
	}

	if lease.ExpiresAt.Before(lease.AcquiredAt) {
		result.Findings = append(result.Findings, Finding{
			Category: "lease",
			Description: fmt.Sprintf("lease expires (%s) before it was acquired (%s)",
				lease.ExpiresAt.Format(time.RFC3339), lease.AcquiredAt.Format(time.RFC3339)),
			Severity: "error",
			Path:     lockPath,
		})
		result.Healthy = false
		return
	}

	if lease.IsExpired(d.now()) {
		result.Findings = append(result.Findings, Finding{
			Category:    "lease",
			Description: fmt.Sprintf("expired lease held by '%s' (since %s)", lease.AgentID, lease.ExpiresAt.Format(time.RFC3339)),
			Severity:    "info",
			Path:        lockPath,
		})
	}
}

func (d *Doctor) checkWorkspaceHeader(result *Result) {
	path := session.WorkspacePath(d.baseDir)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return // workspace not initialized yet
	}

	engine := session.NewEngine()
	meta, err := engine.Extract(path)
	if err != nil {
		result.Findings = append(result.Findings, Finding{
			Category:    "workspace",
			Description: fmt.Sprintf("cannot read workspace file: %v", err),
			Severity:    "error",
			Path:        path,
		})
		result.Healthy = false
		return
	}
	if meta == nil {
		result.Findings = append(result.Findings, Finding{
			Category:    "workspace",
			Description: "workspace header missing or malformed; next update recreates it",
			Severity:    "warning",
			Path:        path,
		})
	}
}

func (d *Doctor) checkJournal(result *Result) {
	path := journal.Path(d.baseDir)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return
	}

	appender := journal.NewAppender(path)
	idx, err := appender.Verify()
	if err != nil {
		result.Findings = append(result.Findings, Finding{
			Category:    "journal",
			Description: fmt.Sprintf("hash chain broken at record %d: %v", idx, err),
			Severity:    "critical",
			Path:        path,
		})
		result.Healthy = false
	}
}

func (d *Doctor) checkOrphanTmp(result *Result) {
	filepath.Walk(d.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".baton-tmp-") {
			result.Findings = append(result.Findings, Finding{
				Category:    "tmp",
				Description: fmt.Sprintf("orphan temp file: %s", info.Name()),
				Severity:    "info",
				Path:        path,
			})
		}
		return nil
	})
}

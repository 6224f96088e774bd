// Package session accumulates metadata about one claim episode and persists
// it as a structured YAML header embedded in the shared workspace file. The
// header is parseable independent of the freeform body below it, and the body
// is never touched by header updates.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/baton-project/baton/pkg/errclass"
	"github.com/baton-project/baton/pkg/fsutil"
	"github.com/baton-project/baton/pkg/logging"
	"github.com/baton-project/baton/pkg/model"
)

// WorkspaceFileName is the shared workspace log within the .baton directory.
const WorkspaceFileName = "workspace.md"

// WorkspacePath returns the workspace file path under baseDir.
func WorkspacePath(baseDir string) string {
	return filepath.Join(baseDir, ".baton", WorkspaceFileName)
}

// Engine reads and writes session metadata against the workspace file.
// All read-modify-write sequences are serialized by an in-process mutex;
// cross-process exclusivity comes from the lease, by convention.
type Engine struct {
	mu  sync.Mutex
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a metadata engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateInitial returns zeroed metadata for a fresh claim episode.
func (e *Engine) CreateInitial(agentID, sessionID string) *model.SessionMetadata {
	now := e.now()
	return &model.SessionMetadata{
		Session: model.SessionInfo{
			AgentID:   agentID,
			SessionID: sessionID,
			Start:     now,
		},
		ToolUsage:         make(map[string]int),
		ActivityBreakdown: make(map[string]int),
	}
}

// Extract parses the metadata header out of the workspace file. A missing
// file, missing header, or unparseable header all return (nil, nil): losing
// analytics must never block a session.
func (e *Engine) Extract(path string) (*model.SessionMetadata, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errclass.ErrStorageIO.WithMessagef("read workspace: %v", err)
	}

	header, _, ok := splitFrontmatter(string(content))
	if !ok {
		return nil, nil
	}

	var meta model.SessionMetadata
	if err := yaml.Unmarshal([]byte(header), &meta); err != nil {
		logging.Warn("malformed workspace header treated as absent", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
		return nil, nil
	}
	return &meta, nil
}

// Update serializes metadata into the workspace header, replacing any
// previous header and preserving the freeform body byte for byte. A missing
// workspace file is created with an empty body.
func (e *Engine) Update(path string, meta *model.SessionMetadata) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	body := ""
	content, err := os.ReadFile(path)
	if err == nil {
		_, body, _ = splitFrontmatter(string(content))
	} else if !os.IsNotExist(err) {
		return errclass.ErrStorageIO.WithMessagef("read workspace: %v", err)
	}

	header, err := yaml.Marshal(meta)
	if err != nil {
		return errclass.ErrMetadataMalformed.WithMessagef("marshal metadata: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errclass.ErrStorageIO.WithMessagef("create workspace dir: %v", err)
	}
	out := joinFrontmatter(string(header), body)
	if err := fsutil.AtomicWrite(path, []byte(out), 0644); err != nil {
		return errclass.ErrStorageIO.WithMessagef("write workspace: %v", err)
	}
	return nil
}

// AddTask appends a new active task owned by this session.
func (e *Engine) AddTask(meta *model.SessionMetadata, title string) {
	meta.Tasks = append(meta.Tasks, model.Task{
		Title:     title,
		Status:    model.TaskActive,
		StartedAt: e.now(),
	})
}

// CompleteTask transitions the named task to completed and records its
// duration. Unknown titles are an error; completing twice is a no-op.
func (e *Engine) CompleteTask(meta *model.SessionMetadata, title string) error {
	t := findTask(meta, title)
	if t == nil {
		return fmt.Errorf("no task titled %q", title)
	}
	if t.Status == model.TaskCompleted {
		return nil
	}
	now := e.now()
	t.Status = model.TaskCompleted
	t.CompletedAt = &now
	t.DurationMinutes = CalculateDuration(t.StartedAt, now)
	return nil
}

// PauseTask transitions the named task to paused.
func (e *Engine) PauseTask(meta *model.SessionMetadata, title string) error {
	t := findTask(meta, title)
	if t == nil {
		return fmt.Errorf("no task titled %q", title)
	}
	if t.Status == model.TaskCompleted {
		return fmt.Errorf("task %q is already completed", title)
	}
	t.Status = model.TaskPaused
	return nil
}

func findTask(meta *model.SessionMetadata, title string) *model.Task {
	for i := range meta.Tasks {
		if meta.Tasks[i].Title == title {
			return &meta.Tasks[i]
		}
	}
	return nil
}

// MergeToolUsage folds a tracker flush into the metadata counters.
func MergeToolUsage(meta *model.SessionMetadata, usage, categories map[string]int) {
	if meta.ToolUsage == nil {
		meta.ToolUsage = make(map[string]int)
	}
	if meta.ActivityBreakdown == nil {
		meta.ActivityBreakdown = make(map[string]int)
	}
	for tool, n := range usage {
		meta.ToolUsage[tool] += n
	}
	for category, n := range categories {
		meta.ActivityBreakdown[category] += n
	}
}

// AccrueActive adds active minutes, never letting the active total pass the
// wall-clock span so far.
func (e *Engine) AccrueActive(meta *model.SessionMetadata, minutes int) {
	if minutes <= 0 {
		return
	}
	meta.Timing.ActiveMinutes += minutes
	elapsed := CalculateDuration(meta.Session.Start, e.now())
	if meta.Timing.ActiveMinutes > elapsed {
		meta.Timing.ActiveMinutes = elapsed
	}
}

// Finalize stamps the end of the session and computes the total duration.
// ActiveMinutes is clamped to TotalMinutes.
func (e *Engine) Finalize(meta *model.SessionMetadata) {
	now := e.now()
	meta.Session.End = &now
	meta.Timing.TotalMinutes = CalculateDuration(meta.Session.Start, now)
	if meta.Timing.ActiveMinutes > meta.Timing.TotalMinutes {
		meta.Timing.ActiveMinutes = meta.Timing.TotalMinutes
	}
}

// CalculateDuration returns the wall-clock difference in whole minutes,
// floor-rounded. A mis-ordered pair (clock skew) clamps to zero rather than
// going negative.
func CalculateDuration(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Minutes())
}

// GenerateSessionSummary formats a human-readable digest of the session.
// Pure formatting over the metadata fields.
func GenerateSessionSummary(meta *model.SessionMetadata) string {
	completed, open := meta.TaskCounts()

	var b strings.Builder
	fmt.Fprintf(&b, "Session %s (%s)\n", meta.Session.SessionID, meta.Session.AgentID)
	fmt.Fprintf(&b, "  Started: %s\n", meta.Session.Start.Format(time.RFC3339))
	if meta.Session.End != nil {
		fmt.Fprintf(&b, "  Ended: %s\n", meta.Session.End.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "  Duration: %dm total, %dm active\n", meta.Timing.TotalMinutes, meta.Timing.ActiveMinutes)
	fmt.Fprintf(&b, "  Tasks: %d completed, %d open\n", completed, open)
	fmt.Fprintf(&b, "  Tool calls: %d", meta.ToolCallTotal())
	return b.String()
}

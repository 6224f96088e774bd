package model

import "time"

// TaskStatus is the lifecycle state of a session task.
type TaskStatus string

const (
	TaskActive    TaskStatus = "active"
	TaskCompleted TaskStatus = "completed"
	TaskPaused    TaskStatus = "paused"
)

// Task is one unit of work tracked inside a session. A task is owned by the
// session that created it until it is explicitly transitioned.
type Task struct {
	Title           string     `yaml:"title" json:"title"`
	Status          TaskStatus `yaml:"status" json:"status"`
	StartedAt       time.Time  `yaml:"started_at" json:"started_at"`
	CompletedAt     *time.Time `yaml:"completed_at,omitempty" json:"completed_at,omitempty"`
	DurationMinutes int        `yaml:"duration_minutes" json:"duration_minutes"`
}

// SessionInfo records the identity and wall-clock bounds of one claim episode.
type SessionInfo struct {
	AgentID      string     `yaml:"agent_id" json:"agent_id"`
	SessionID    string     `yaml:"session_id" json:"session_id"`
	Start        time.Time  `yaml:"start" json:"start"`
	End          *time.Time `yaml:"end,omitempty" json:"end,omitempty"`
	LockAcquired time.Time  `yaml:"lock_acquired" json:"lock_acquired"`
	LockExpires  time.Time  `yaml:"lock_expires" json:"lock_expires"`
}

// Timing holds derived duration counters for a session.
// ActiveMinutes never exceeds TotalMinutes.
type Timing struct {
	TotalMinutes  int `yaml:"total_minutes" json:"total_minutes"`
	ActiveMinutes int `yaml:"active_minutes" json:"active_minutes"`
}

// SessionMetadata is the structured header embedded in the workspace file.
// It accumulates facts about one claim episode: timing, tasks, and per-tool
// invocation counts.
type SessionMetadata struct {
	Session           SessionInfo    `yaml:"session" json:"session"`
	Timing            Timing         `yaml:"timing" json:"timing"`
	Tasks             []Task         `yaml:"tasks,omitempty" json:"tasks,omitempty"`
	ToolUsage         map[string]int `yaml:"tool_usage,omitempty" json:"tool_usage,omitempty"`
	ActivityBreakdown map[string]int `yaml:"activity_breakdown,omitempty" json:"activity_breakdown,omitempty"`
}

// Clone returns an independent copy: mutating the original's tasks or usage
// maps never shows through the copy.
func (m *SessionMetadata) Clone() *SessionMetadata {
	out := *m
	if m.Tasks != nil {
		out.Tasks = make([]Task, len(m.Tasks))
		copy(out.Tasks, m.Tasks)
	}
	out.ToolUsage = cloneCounts(m.ToolUsage)
	out.ActivityBreakdown = cloneCounts(m.ActivityBreakdown)
	return &out
}

func cloneCounts(counts map[string]int) map[string]int {
	if counts == nil {
		return nil
	}
	out := make(map[string]int, len(counts))
	for k, v := range counts {
		out[k] = v
	}
	return out
}

// ToolCallTotal returns the sum of all recorded tool invocations.
func (m *SessionMetadata) ToolCallTotal() int {
	total := 0
	for _, n := range m.ToolUsage {
		total += n
	}
	return total
}

// TaskCounts returns the number of completed and non-completed tasks.
func (m *SessionMetadata) TaskCounts() (completed, open int) {
	for _, t := range m.Tasks {
		if t.Status == TaskCompleted {
			completed++
		} else {
			open++
		}
	}
	return completed, open
}

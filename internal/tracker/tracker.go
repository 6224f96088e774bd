// Package tracker counts tool invocations in memory during a session. It is
// disabled until a session is claimed, recording is non-blocking and never
// fails, and Flush atomically drains the counters for the metadata engine.
package tracker

import (
	"strings"
	"sync"
)

// Category buckets tools for the activity breakdown.
type Category string

const (
	CategoryRead  Category = "read"
	CategoryWrite Category = "write"
	CategoryExec  Category = "exec"
	CategoryOther Category = "other"
)

// categoryPrefixes maps tool-name prefixes to activity categories. Tools not
// matching any prefix count as "other".
var categoryPrefixes = []struct {
	prefix   string
	category Category
}{
	{"read", CategoryRead},
	{"list", CategoryRead},
	{"search", CategoryRead},
	{"write", CategoryWrite},
	{"edit", CategoryWrite},
	{"create", CategoryWrite},
	{"exec", CategoryExec},
	{"run", CategoryExec},
	{"shell", CategoryExec},
}

// Categorize returns the activity category for a tool name.
func Categorize(toolName string) Category {
	lower := strings.ToLower(toolName)
	for _, p := range categoryPrefixes {
		if strings.HasPrefix(lower, p.prefix) {
			return p.category
		}
	}
	return CategoryOther
}

// Tracker accumulates per-tool counters for the current session.
type Tracker struct {
	mu         sync.Mutex
	enabled    bool
	counts     map[string]int
	categories map[string]int
}

// New creates a disabled tracker with zeroed counters.
func New() *Tracker {
	return &Tracker{
		counts:     make(map[string]int),
		categories: make(map[string]int),
	}
}

// Enable turns on recording. Called when a session is claimed.
func (t *Tracker) Enable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = true
}

// Disable turns off recording. Counters already accumulated are kept until
// the next Flush.
func (t *Tracker) Disable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = false
}

// Enabled reports whether invocations are currently recorded.
func (t *Tracker) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// Record increments the counter for toolName. A no-op while disabled.
func (t *Tracker) Record(toolName string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	t.counts[toolName]++
	t.categories[string(Categorize(toolName))]++
}

// Flush atomically drains the counters, resetting them to zero. The returned
// maps are snapshots owned by the caller.
func (t *Tracker) Flush() (usage, categories map[string]int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	usage = t.counts
	categories = t.categories
	t.counts = make(map[string]int)
	t.categories = make(map[string]int)
	return usage, categories
}

// Pending reports whether any invocations await a flush.
func (t *Tracker) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.counts) > 0
}

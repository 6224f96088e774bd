// Package render defines the boundary between Baton's coordination core and
// whatever presentation layer consumes it. The core produces typed results;
// a renderer turns them into display strings. The core never depends on
// terminal capabilities.
package render

import (
	"fmt"
	"sort"
	"strings"
)

// Status classifies a result for display purposes.
type Status string

const (
	StatusOK       Status = "ok"
	StatusConflict Status = "conflict"
	StatusExpired  Status = "expired"
	StatusError    Status = "error"
	StatusInfo     Status = "info"
)

// Result is the structured payload handed to a renderer.
type Result struct {
	Status  Status
	Message string
	Details map[string]string
}

// Func turns a structured result into a display string.
type Func func(Result) string

// statusLabels is a plain enum-to-string lookup. Fancier presentations live
// entirely outside this module.
var statusLabels = map[Status]string{
	StatusOK:       "OK",
	StatusConflict: "CONFLICT",
	StatusExpired:  "EXPIRED",
	StatusError:    "ERROR",
	StatusInfo:     "INFO",
}

// Plain is the default renderer: a status label, the message, and sorted
// key: value detail lines.
func Plain(r Result) string {
	var b strings.Builder
	label, ok := statusLabels[r.Status]
	if !ok {
		label = strings.ToUpper(string(r.Status))
	}
	fmt.Fprintf(&b, "[%s] %s", label, r.Message)

	keys := make([]string, 0, len(r.Details))
	for k := range r.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %s", k, r.Details[k])
	}
	return b.String()
}

// Package baton provides a high-level library API for coordinating multiple
// agents over one shared workspace.
//
// This package is the primary integration point for agent harnesses. It wraps
// the internal lease, heartbeat, session, and tracking packages into a small
// public surface.
//
// # Recommended Usage Pattern
//
//	client, err := baton.Open(workspaceDir)
//	if err != nil { ... }
//
//	sess, err := client.Begin("planner-1", baton.BeginOptions{
//	    Purpose: "refactor auth module",
//	})
//	if errors.Is(err, errclass.ErrLockConflict) {
//	    // another agent holds the workspace; back off or force-claim
//	}
//	defer sess.Close()
//
//	sess.AddTask("split token validation")
//	sess.RecordTool("read_file")
//	...
//	sess.CompleteTask("split token validation")
//
// While a session is open a background heartbeat renews the lease. If
// ownership is lost (another agent force-claimed the workspace), the channel
// returned by Done is closed and the session stops persisting.
//
// Multiple Client instances for different workspaces are fully independent.
// Two sessions over the same workspace are exactly what the lease prevents.
package baton

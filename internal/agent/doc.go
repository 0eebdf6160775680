// Package agent defines the runtime abstraction for chat turns and
// manages runtime lifecycle across transports.
//
// # Runtime
//
// Runtime is what every transport talks to:
//
//	type Runtime interface {
//	    Invoke(ctx context.Context, prompt string) (string, error)
//	    InvokeStreaming(ctx context.Context, prompt string) (<-chan StreamEvent, error)
//	}
//
// The production implementation lives in the anthropic subpackage; tests
// substitute stubs.
//
// # Manager
//
// Manager owns runtime construction through a BuildFunc:
//
//	mgr := agent.NewManager(build, logger)
//	rt, err := mgr.Get(ctx, streaming)
//
// Synchronous turns share one cached runtime; streaming turns always get
// a fresh one so concurrent streams never interleave. Failed builds are
// never cached, so a transient configuration problem heals on the next
// request.
//
// # Stream Events
//
// StreamEvent carries incremental output: text, reasoning, and tool
// notifications, terminated by exactly one complete or error event.
package agent

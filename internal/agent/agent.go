// ABOUTME: Agent runtime abstraction and lifecycle management.
// ABOUTME: Caches a shared runtime for sync turns, builds fresh ones for streaming.

package agent

import (
	"context"
	"log/slog"
	"sync"
)

// EventType identifies the kind of a streaming event.
type EventType string

const (
	// EventText carries a chunk of assistant response text.
	EventText EventType = "text"
	// EventTool announces a tool invocation in progress.
	EventTool EventType = "tool"
	// EventReasoning carries a chunk of model thinking output.
	EventReasoning EventType = "reasoning"
	// EventComplete is the final event of a successful turn and carries
	// the full response text.
	EventComplete EventType = "complete"
	// EventError terminates the stream after a failure.
	EventError EventType = "error"
)

// StreamEvent is one unit of streaming output from a runtime. The event
// channel is closed after EventComplete or EventError.
type StreamEvent struct {
	Type       EventType
	Content    string
	ToolName   string
	ToolStatus string
	Error      string
}

// Runtime executes a single conversational turn against the model.
type Runtime interface {
	// Invoke runs a turn to completion and returns the full response text.
	Invoke(ctx context.Context, prompt string) (string, error)

	// InvokeStreaming runs a turn and emits events as the model produces
	// output. The returned channel is closed when the turn ends.
	InvokeStreaming(ctx context.Context, prompt string) (<-chan StreamEvent, error)
}

// BuildFunc constructs a runtime. Construction may perform network calls
// (tool discovery, parameter resolution) and can fail.
type BuildFunc func(ctx context.Context) (Runtime, error)

// Manager hands out runtimes. Synchronous turns share one cached runtime;
// streaming turns each get a fresh one so concurrent streams never share
// conversation state.
type Manager struct {
	build  BuildFunc
	logger *slog.Logger

	mu     sync.Mutex
	shared Runtime
}

// NewManager creates a Manager that constructs runtimes with build.
func NewManager(build BuildFunc, logger *slog.Logger) *Manager {
	return &Manager{
		build:  build,
		logger: logger.With("component", "agent-manager"),
	}
}

// Get returns a runtime for one turn. A failed build is never cached, so
// a later call retries once upstream configuration is fixed.
func (m *Manager) Get(ctx context.Context, streaming bool) (Runtime, error) {
	if streaming {
		return m.build(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shared != nil {
		return m.shared, nil
	}

	rt, err := m.build(ctx)
	if err != nil {
		return nil, err
	}
	m.shared = rt
	m.logger.Info("agent runtime initialized")
	return rt, nil
}

// Reset drops the cached runtime. The next sync turn rebuilds it.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shared = nil
}

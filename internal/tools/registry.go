// ABOUTME: Tool registry combining custom tools with discovered storefront tools
// ABOUTME: Rejects name collisions and resolves tool lookups for the agent runtime

package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Descriptor describes one capability exposed to the agent.
type Descriptor struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// Tool is a named capability the agent runtime may invoke mid-turn.
// Call returns the tool result as text; domain-level failures should be
// encoded in the result rather than returned as errors, so the agent can
// phrase a graceful reply.
type Tool interface {
	Descriptor() Descriptor
	Call(ctx context.Context, input json.RawMessage) (string, error)
}

// Registry holds the immutable tool set for one agent instance.
type Registry struct {
	tools []Tool
	index map[string]Tool
}

// NewRegistry builds a registry from the given tools.
// Duplicate tool names are a configuration error.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		index: make(map[string]Tool, len(tools)),
	}
	for _, t := range tools {
		name := t.Descriptor().Name
		if name == "" {
			return nil, fmt.Errorf("tool with empty name")
		}
		if _, exists := r.index[name]; exists {
			return nil, fmt.Errorf("duplicate tool name %q", name)
		}
		r.index[name] = t
		r.tools = append(r.tools, t)
	}
	return r, nil
}

// Descriptors returns the descriptors for every registered tool, in
// registration order.
func (r *Registry) Descriptors() []Descriptor {
	descs := make([]Descriptor, len(r.tools))
	for i, t := range r.tools {
		descs[i] = t.Descriptor()
	}
	return descs
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.tools))
	for i, t := range r.tools {
		names[i] = t.Descriptor().Name
	}
	return names
}

// Lookup returns the tool with the given name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.index[name]
	return t, ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }

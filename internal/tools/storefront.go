// ABOUTME: Tool adapter exposing discovered storefront MCP tools to the agent
// ABOUTME: Proxies Call through the storefront client's tools/call endpoint

package tools

import (
	"context"
	"encoding/json"

	"github.com/professormeta/tcg-agent/internal/storefront"
)

// storefrontCaller is the slice of the storefront client used by the adapter.
type storefrontCaller interface {
	CallTool(ctx context.Context, name string, args json.RawMessage) (string, error)
}

// StorefrontTool wraps one discovered storefront tool descriptor.
type StorefrontTool struct {
	info   storefront.ToolInfo
	caller storefrontCaller
}

// FromStorefront adapts every discovered storefront tool into a Tool.
func FromStorefront(client *storefront.Client, infos []storefront.ToolInfo) []Tool {
	adapted := make([]Tool, len(infos))
	for i, info := range infos {
		adapted[i] = &StorefrontTool{info: info, caller: client}
	}
	return adapted
}

func (t *StorefrontTool) Descriptor() Descriptor {
	return Descriptor{
		Name:        t.info.Name,
		Description: t.info.Description,
		InputSchema: t.info.InputSchema,
	}
}

func (t *StorefrontTool) Call(ctx context.Context, input json.RawMessage) (string, error) {
	return t.caller.CallTool(ctx, t.info.Name, input)
}

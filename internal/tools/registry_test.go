// ABOUTME: Tests for the tool registry and the storefront tool adapter.
// ABOUTME: Covers name collisions, lookup, and call proxying.

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/professormeta/tcg-agent/internal/storefront"
)

// fakeTool is a minimal Tool for registry tests.
type fakeTool struct {
	name   string
	result string
}

func (f *fakeTool) Descriptor() Descriptor {
	return Descriptor{Name: f.name, Description: "fake " + f.name}
}

func (f *fakeTool) Call(ctx context.Context, input json.RawMessage) (string, error) {
	return f.result, nil
}

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry(&fakeTool{name: "alpha"}, &fakeTool{name: "beta"})
	require.NoError(t, err)

	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"alpha", "beta"}, reg.Names())

	descs := reg.Descriptors()
	require.Len(t, descs, 2)
	assert.Equal(t, "alpha", descs[0].Name)
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(&fakeTool{name: "alpha"}, &fakeTool{name: "alpha"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNewRegistry_RejectsEmptyName(t *testing.T) {
	_, err := NewRegistry(&fakeTool{name: ""})
	assert.Error(t, err)
}

func TestRegistryLookup(t *testing.T) {
	reg, err := NewRegistry(&fakeTool{name: "alpha", result: "hello"})
	require.NoError(t, err)

	tool, ok := reg.Lookup("alpha")
	require.True(t, ok)

	out, err := tool.Call(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
}

// recordingCaller captures CallTool invocations.
type recordingCaller struct {
	gotName string
	gotArgs json.RawMessage
	result  string
	err     error
}

func (r *recordingCaller) CallTool(ctx context.Context, name string, args json.RawMessage) (string, error) {
	r.gotName = name
	r.gotArgs = args
	return r.result, r.err
}

func TestStorefrontTool_ProxiesCall(t *testing.T) {
	caller := &recordingCaller{result: "3 products found"}
	tool := &StorefrontTool{
		info:   storefront.ToolInfo{Name: "search_shop_catalog", Description: "Search catalog"},
		caller: caller,
	}

	desc := tool.Descriptor()
	assert.Equal(t, "search_shop_catalog", desc.Name)

	out, err := tool.Call(context.Background(), json.RawMessage(`{"query": "sleeves"}`))
	require.NoError(t, err)
	assert.Equal(t, "3 products found", out)
	assert.Equal(t, "search_shop_catalog", caller.gotName)
	assert.JSONEq(t, `{"query": "sleeves"}`, string(caller.gotArgs))
}

func TestStorefrontTool_PropagatesError(t *testing.T) {
	caller := &recordingCaller{err: errors.New("store unreachable")}
	tool := &StorefrontTool{
		info:   storefront.ToolInfo{Name: "manage_cart"},
		caller: caller,
	}

	_, err := tool.Call(context.Background(), nil)
	assert.ErrorContains(t, err, "store unreachable")
}

// ABOUTME: Tests for WebSocket message dispatch using a recording frame pusher.
// ABOUTME: Covers ping, status, chat turns, and malformed or unknown actions.

package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/professormeta/tcg-agent/internal/agent"
	"github.com/professormeta/tcg-agent/internal/store"
)

// recordingPusher captures every frame instead of writing to a socket.
type recordingPusher struct {
	frames  []map[string]any
	pushErr error
}

func (p *recordingPusher) push(ctx context.Context, frame map[string]any) error {
	if p.pushErr != nil {
		return p.pushErr
	}
	p.frames = append(p.frames, frame)
	return nil
}

func (p *recordingPusher) types() []string {
	var out []string
	for _, f := range p.frames {
		if t, ok := f["type"].(string); ok {
			out = append(out, t)
		}
	}
	return out
}

func TestDispatchSocketMessage_Ping(t *testing.T) {
	g, _ := newTestGateway(t, staticBuilder(&stubRuntime{}, nil))
	pusher := &recordingPusher{}

	err := g.dispatchSocketMessage(context.Background(), "conn-1", []byte(`{"action": "ping"}`), pusher)
	require.NoError(t, err)

	require.Len(t, pusher.frames, 1)
	frame := pusher.frames[0]
	assert.Equal(t, "pong", frame["type"])
	assert.Equal(t, "conn-1", frame["connectionId"])
	assert.NotEmpty(t, frame["timestamp"])
}

func TestDispatchSocketMessage_Status(t *testing.T) {
	clearBootstrapEnv(t)
	g, _ := newTestGateway(t, staticBuilder(&stubRuntime{}, nil))
	pusher := &recordingPusher{}

	err := g.dispatchSocketMessage(context.Background(), "conn-1", []byte(`{"action": "status"}`), pusher)
	require.NoError(t, err)

	require.Len(t, pusher.frames, 1)
	frame := pusher.frames[0]
	assert.Equal(t, "status", frame["type"])

	// The status action reports cached state and never dials out.
	status, ok := frame["status"].(map[string]any)
	require.True(t, ok)
	mcpServer := status["mcp_server"].(map[string]any)
	assert.Equal(t, "disconnected", mcpServer["status"])
}

func TestDispatchSocketMessage_InvalidJSON(t *testing.T) {
	g, _ := newTestGateway(t, staticBuilder(&stubRuntime{}, nil))
	pusher := &recordingPusher{}

	err := g.dispatchSocketMessage(context.Background(), "conn-1", []byte(`{not json`), pusher)
	require.NoError(t, err)

	require.Len(t, pusher.frames, 1)
	assert.Equal(t, "error", pusher.frames[0]["type"])
	assert.Equal(t, "invalid_message", pusher.frames[0]["error_type"])
}

func TestDispatchSocketMessage_EmptyMessage(t *testing.T) {
	g, _ := newTestGateway(t, staticBuilder(&stubRuntime{}, nil))
	pusher := &recordingPusher{}

	err := g.dispatchSocketMessage(context.Background(), "conn-1", []byte(`{"action": "message", "message": "   "}`), pusher)
	require.NoError(t, err)

	require.Len(t, pusher.frames, 1)
	assert.Equal(t, "error", pusher.frames[0]["type"])
	assert.Equal(t, "invalid_message", pusher.frames[0]["error_type"])
}

func TestDispatchSocketMessage_UnknownAction(t *testing.T) {
	g, _ := newTestGateway(t, staticBuilder(&stubRuntime{}, nil))
	pusher := &recordingPusher{}

	err := g.dispatchSocketMessage(context.Background(), "conn-1", []byte(`{"action": "teleport"}`), pusher)
	require.NoError(t, err)

	require.Len(t, pusher.frames, 1)
	frame := pusher.frames[0]
	assert.Equal(t, "error", frame["type"])
	assert.Equal(t, "unknown_action", frame["error_type"])
	assert.Equal(t, []string{"message", "ping", "status"}, frame["supported_actions"])
}

func TestDispatchSocketMessage_ChatTurn(t *testing.T) {
	rt := &stubRuntime{events: []agent.StreamEvent{
		{Type: agent.EventText, Content: "Hel"},
		{Type: agent.EventTool, ToolName: "get_competitive_decks", ToolStatus: "executing"},
		{Type: agent.EventText, Content: "lo"},
		{Type: agent.EventComplete, Content: "Hello"},
	}}
	g, _ := newTestGateway(t, staticBuilder(rt, nil))
	pusher := &recordingPusher{}

	err := g.dispatchSocketMessage(context.Background(), "conn-1", []byte(`{"action": "message", "message": "hi there"}`), pusher)
	require.NoError(t, err)

	assert.Equal(t, []string{"status", "text", "tool", "text", "agent_response", "complete"}, pusher.types())

	processing := pusher.frames[0]
	assert.Equal(t, "processing", processing["status"])

	response := pusher.frames[4]
	assert.Equal(t, "Hello", response["response"])
	assert.Equal(t, "ws-conn-1", response["session_id"])
	info, ok := response["service_info"].(serviceInfo)
	require.True(t, ok)
	assert.Equal(t, "WebSocket", info.Interface)
}

func TestDispatchSocketMessage_ChatTurnSessionAndCart(t *testing.T) {
	rt := &stubRuntime{events: []agent.StreamEvent{
		{Type: agent.EventComplete, Content: "done"},
	}}
	g, _ := newTestGateway(t, staticBuilder(rt, nil))
	pusher := &recordingPusher{}

	msg := `{"action": "message", "message": "checkout please", "session_id": "s-9", "cart_id": "cart-3"}`
	err := g.dispatchSocketMessage(context.Background(), "conn-1", []byte(msg), pusher)
	require.NoError(t, err)

	assert.Equal(t, "checkout please (Cart ID: cart-3)", rt.gotPrompt)

	last := pusher.frames[len(pusher.frames)-2]
	assert.Equal(t, "s-9", last["session_id"])
}

func TestDispatchSocketMessage_BuildFailure(t *testing.T) {
	g, _ := newTestGateway(t, staticBuilder(nil, assertableError("runtime unavailable")))
	pusher := &recordingPusher{}

	err := g.dispatchSocketMessage(context.Background(), "conn-1", []byte(`{"action": "message", "message": "hi"}`), pusher)
	require.NoError(t, err)

	types := pusher.types()
	require.NotEmpty(t, types)
	assert.Equal(t, "error", types[len(types)-1])
	assert.Equal(t, "agent_error", pusher.frames[len(pusher.frames)-1]["error_type"])
}

func TestDispatchSocketMessage_DeadConnection(t *testing.T) {
	g, _ := newTestGateway(t, staticBuilder(&stubRuntime{}, nil))
	pusher := &recordingPusher{pushErr: assertableError("connection closed")}

	err := g.dispatchSocketMessage(context.Background(), "conn-1", []byte(`{"action": "ping"}`), pusher)
	assert.Error(t, err)
}

type assertableError string

func (e assertableError) Error() string { return string(e) }

func TestWebSocketConnectDisconnectCleansRegistry(t *testing.T) {
	g, _ := newTestGateway(t, staticBuilder(&stubRuntime{}, nil))
	registry := g.store.(*store.MemStore)

	srv := httptest.NewServer(http.HandlerFunc(g.handleWebSocket))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)

	// A full ping round trip proves the server reached its read loop,
	// so the connection record is registered by now.
	require.NoError(t, wsjson.Write(ctx, conn, map[string]any{"action": "ping"}))
	var pong map[string]any
	require.NoError(t, wsjson.Read(ctx, conn, &pong))
	require.Equal(t, "pong", pong["type"])

	assert.Equal(t, 1, registry.ConnectionCount())

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))

	// Cleanup runs in the handler goroutine after the close frame lands.
	assert.Eventually(t, func() bool {
		return registry.ConnectionCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

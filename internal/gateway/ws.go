// ABOUTME: WebSocket transport with ping, status, and streaming message actions.
// ABOUTME: Tracks live connections in the store with a 24 hour TTL.

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/professormeta/tcg-agent/internal/agent"
	"github.com/professormeta/tcg-agent/internal/store"
)

// connectionTTL bounds how long a connection record stays in the registry
// if the disconnect cleanup never runs.
const connectionTTL = 24 * time.Hour

// wsInbound is a client frame. Both field spellings are accepted for
// session and cart identifiers.
type wsInbound struct {
	Action  string `json:"action"`
	Message string `json:"message"`

	SessionID  string `json:"session_id"`
	SessionID2 string `json:"sessionId"`
	CartID     string `json:"cart_id"`
	CartID2    string `json:"cartId"`
}

func (in *wsInbound) session() string {
	if in.SessionID != "" {
		return in.SessionID
	}
	return in.SessionID2
}

func (in *wsInbound) cart() string {
	if in.CartID != "" {
		return in.CartID
	}
	return in.CartID2
}

// framePusher sends one outbound frame. The WebSocket connection satisfies
// it in production; tests substitute a recorder.
type framePusher interface {
	push(ctx context.Context, frame map[string]any) error
}

type wsPusher struct {
	conn *websocket.Conn
}

func (p *wsPusher) push(ctx context.Context, frame map[string]any) error {
	return wsjson.Write(ctx, p.conn, frame)
}

// handleWebSocket handles GET /ws upgrade requests and runs the read loop
// until the client disconnects.
func (g *Gateway) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		g.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "connection closed")

	ctx := r.Context()
	connID := uuid.New().String()

	now := time.Now().UTC()
	if err := g.store.PutConnection(ctx, &store.Connection{
		ID:          connID,
		ConnectedAt: now,
		ExpiresAt:   now.Add(connectionTTL),
	}); err != nil {
		g.logger.Error("failed to register connection", "connection_id", connID, "error", err)
		conn.Close(websocket.StatusInternalError, "registration failed")
		return
	}
	g.logger.Info("websocket connected", "connection_id", connID)

	defer func() {
		// Cleanup uses a fresh context: the request context is already
		// cancelled when the client disconnects.
		cleanup, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := g.store.DeleteConnection(cleanup, connID); err != nil && !errors.Is(err, store.ErrNotFound) {
			g.logger.Warn("failed to deregister connection", "connection_id", connID, "error", err)
		}
		g.logger.Info("websocket disconnected", "connection_id", connID)
	}()

	pusher := &wsPusher{conn: conn}
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if ctx.Err() == nil {
				g.logger.Warn("websocket read failed", "connection_id", connID, "error", err)
			}
			return
		}

		if err := g.dispatchSocketMessage(ctx, connID, data, pusher); err != nil {
			g.logger.Warn("websocket write failed", "connection_id", connID, "error", err)
			return
		}
	}
}

// dispatchSocketMessage handles one inbound frame. The returned error means
// the connection is gone and the read loop should stop; protocol problems
// are reported to the client as error frames instead.
func (g *Gateway) dispatchSocketMessage(ctx context.Context, connID string, data []byte, push framePusher) error {
	var in wsInbound
	if err := json.Unmarshal(data, &in); err != nil {
		return push.push(ctx, g.wsError(connID, "invalid_message", fmt.Sprintf("message is not valid JSON: %v", err)))
	}
	if in.Action == "" {
		in.Action = "message"
	}

	switch in.Action {
	case "ping":
		return push.push(ctx, g.wsFrame(connID, map[string]any{"type": "pong"}))

	case "status":
		return push.push(ctx, g.wsFrame(connID, map[string]any{
			"type":   "status",
			"status": g.healthSnapshot(ctx, false),
		}))

	case "message":
		if strings.TrimSpace(in.Message) == "" {
			return push.push(ctx, g.wsError(connID, "invalid_message", "Message content is required for 'message' action"))
		}
		return g.runSocketTurn(ctx, connID, &in, push)

	default:
		frame := g.wsError(connID, "unknown_action", fmt.Sprintf("Unknown action: %s", in.Action))
		frame["supported_actions"] = []string{"message", "ping", "status"}
		return push.push(ctx, frame)
	}
}

// runSocketTurn streams one agent turn over the connection: a processing
// notice, incremental frames, then the full agent_response and a terminal
// complete frame.
func (g *Gateway) runSocketTurn(ctx context.Context, connID string, in *wsInbound, push framePusher) error {
	sessionID := in.session()
	if sessionID == "" {
		sessionID = "ws-" + connID
	}
	prompt := strings.TrimSpace(in.Message)
	if cart := in.cart(); cart != "" {
		prompt = fmt.Sprintf("%s (Cart ID: %s)", prompt, cart)
	}

	if err := push.push(ctx, g.wsFrame(connID, map[string]any{
		"type":    "status",
		"status":  "processing",
		"message": "Processing your request...",
	})); err != nil {
		return err
	}

	runtime, err := g.agents.Get(ctx, true)
	if err != nil {
		g.logger.Error("agent unavailable", "connection_id", connID, "error", err)
		return push.push(ctx, g.wsError(connID, "agent_error", fmt.Sprintf("Agent processing failed: %v", err)))
	}

	turnCtx, span := g.tracer.StartTurn(ctx, "websocket", sessionID)
	defer span.End()

	events, err := runtime.InvokeStreaming(turnCtx, prompt)
	if err != nil {
		return push.push(ctx, g.wsError(connID, "agent_error", fmt.Sprintf("Agent processing failed: %v", err)))
	}

	for ev := range events {
		var frame map[string]any
		switch ev.Type {
		case agent.EventText:
			frame = g.wsFrame(connID, map[string]any{"type": "text", "text": ev.Content})
		case agent.EventReasoning:
			frame = g.wsFrame(connID, map[string]any{"type": "reasoning", "text": ev.Content})
		case agent.EventTool:
			frame = g.wsFrame(connID, map[string]any{"type": "tool", "name": ev.ToolName, "status": ev.ToolStatus})
		case agent.EventComplete:
			response := g.wsFrame(connID, map[string]any{
				"type":         "agent_response",
				"response":     ev.Content,
				"session_id":   sessionID,
				"capabilities": g.currentCapabilities(),
				"service_info": serviceInfo{
					Name:      serviceName,
					Version:   serviceVersion,
					Interface: "WebSocket",
				},
			})
			if err := push.push(ctx, response); err != nil {
				return err
			}
			frame = g.wsFrame(connID, map[string]any{"type": "complete"})
		case agent.EventError:
			frame = g.wsError(connID, "agent_error", ev.Error)
		default:
			continue
		}

		if err := push.push(ctx, frame); err != nil {
			return err
		}
	}
	return nil
}

// wsFrame stamps a frame with the timestamp and connection identifier every
// outbound message carries.
func (g *Gateway) wsFrame(connID string, fields map[string]any) map[string]any {
	fields["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	fields["connectionId"] = connID
	return fields
}

func (g *Gateway) wsError(connID, errorType, message string) map[string]any {
	return g.wsFrame(connID, map[string]any{
		"type":       "error",
		"error":      message,
		"error_type": errorType,
	})
}

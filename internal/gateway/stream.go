// ABOUTME: SSE chat endpoint streaming agent output as it is produced.
// ABOUTME: Emits text, tool, and reasoning events followed by a terminal complete or error.

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/professormeta/tcg-agent/internal/agent"
	"github.com/professormeta/tcg-agent/internal/request"
)

// sseEvent pairs an SSE event name with its JSON payload.
type sseEvent struct {
	Event string
	Data  any
}

// handleChatStream handles POST /api/chat/stream.
func (g *Gateway) handleChatStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		g.sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	req, err := request.Normalize(body)
	if err != nil {
		g.writeChatError(w, err)
		return
	}

	// Fail fast before committing to the SSE content type.
	flusher, ok := w.(http.Flusher)
	if !ok {
		g.logger.Error("streaming not supported")
		g.sendJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	runtime, err := g.agents.Get(r.Context(), true)
	if err != nil {
		g.logger.Error("agent unavailable", "error", err)
		g.writeChatError(w, err)
		return
	}

	ctx, span := g.tracer.StartTurn(r.Context(), "sse", req.SessionID)
	defer span.End()

	events, err := runtime.InvokeStreaming(ctx, req.Prompt())
	if err != nil {
		g.writeChatError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	g.logger.Info("streaming chat started", "session_id", req.SessionID)
	g.streamEvents(ctx, w, flusher, req.SessionID, events)
}

// streamEvents forwards runtime events as SSE frames until the stream ends
// or the client goes away.
func (g *Gateway) streamEvents(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID string, events <-chan agent.StreamEvent) {
	for {
		select {
		case <-ctx.Done():
			g.writeSSEEvent(w, "error", map[string]string{"error": "request cancelled"})
			flusher.Flush()
			return

		case ev, ok := <-events:
			if !ok {
				return
			}

			frame := eventToSSE(ev, sessionID)
			g.writeSSEEvent(w, frame.Event, frame.Data)
			flusher.Flush()

			if ev.Type == agent.EventComplete || ev.Type == agent.EventError {
				return
			}
		}
	}
}

// eventToSSE maps a runtime event to its wire frame.
func eventToSSE(ev agent.StreamEvent, sessionID string) sseEvent {
	switch ev.Type {
	case agent.EventText:
		return sseEvent{Event: "text", Data: map[string]string{"text": ev.Content}}
	case agent.EventReasoning:
		return sseEvent{Event: "reasoning", Data: map[string]string{"text": ev.Content}}
	case agent.EventTool:
		return sseEvent{Event: "tool", Data: map[string]string{
			"name":   ev.ToolName,
			"status": ev.ToolStatus,
		}}
	case agent.EventComplete:
		return sseEvent{Event: "complete", Data: map[string]string{
			"response":  ev.Content,
			"sessionId": sessionID,
		}}
	case agent.EventError:
		return sseEvent{Event: "error", Data: map[string]string{"error": ev.Error}}
	default:
		return sseEvent{Event: "unknown", Data: map[string]string{"text": ev.Content}}
	}
}

// writeSSEEvent writes a single SSE frame in event/data format.
func (g *Gateway) writeSSEEvent(w io.Writer, event string, data any) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		g.logger.Error("failed to marshal SSE data", "error", err)
		return
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", dataJSON)
}

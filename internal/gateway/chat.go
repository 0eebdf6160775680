// ABOUTME: Synchronous chat endpoint returning a complete agent response.
// ABOUTME: Maps validation, configuration, and runtime failures to structured errors.

package gateway

import (
	"errors"
	"io"
	"net/http"

	"github.com/professormeta/tcg-agent/internal/bootstrap"
	"github.com/professormeta/tcg-agent/internal/request"
	"github.com/professormeta/tcg-agent/internal/storefront"
)

// chatResponse is the JSON body for a successful POST /api/chat.
type chatResponse struct {
	Response     string       `json:"response"`
	SessionID    string       `json:"sessionId"`
	Capabilities capabilities `json:"capabilities"`
	ServiceInfo  serviceInfo  `json:"service_info"`
}

// errorResponse is the JSON body for every chat error, with enough
// troubleshooting context that callers can self-serve.
type errorResponse struct {
	Error           string          `json:"error"`
	ErrorType       string          `json:"error_type"`
	Message         string          `json:"message"`
	Troubleshooting troubleshooting `json:"troubleshooting,omitempty"`
}

type troubleshooting struct {
	RequiredFields   []string          `json:"required_fields,omitempty"`
	ExampleRequest   map[string]string `json:"example_request,omitempty"`
	PossibleCauses   []string          `json:"possible_causes,omitempty"`
	AdminActions     []string          `json:"admin_actions,omitempty"`
	ImmediateActions []string          `json:"immediate_actions,omitempty"`
}

// handleChat handles POST /api/chat.
func (g *Gateway) handleChat(w http.ResponseWriter, r *http.Request) {
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
	g.logger.Info("processing chat request", "session_id", req.SessionID, "input_length", len(req.InputText))

	runtime, err := g.agents.Get(r.Context(), false)
	if err != nil {
		g.logger.Error("agent unavailable", "error", err)
		g.writeChatError(w, err)
		return
	}

	ctx, span := g.tracer.StartTurn(r.Context(), "http", req.SessionID)
	defer span.End()

	text, err := runtime.Invoke(ctx, req.Prompt())
	if err != nil {
		g.logger.Error("turn failed", "session_id", req.SessionID, "error", err)
		g.writeChatError(w, err)
		return
	}

	g.writeJSON(w, http.StatusOK, chatResponse{
		Response:     text,
		SessionID:    req.SessionID,
		Capabilities: g.currentCapabilities(),
		ServiceInfo: serviceInfo{
			Name:           serviceName,
			Version:        serviceVersion,
			MCPIntegration: mcpIntegration,
		},
	})
}

// writeChatError classifies err and writes the matching structured body.
// Validation errors are the caller's fault (400), unresolved configuration
// and tool discovery failures mean the service cannot work yet (503), and
// everything else is a 500.
func (g *Gateway) writeChatError(w http.ResponseWriter, err error) {
	var (
		validationErr *request.ValidationError
		configErr     *bootstrap.ConfigError
		discoveryErr  *storefront.DiscoveryError
	)

	switch {
	case errors.As(err, &validationErr):
		g.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:     "invalid_request",
			ErrorType: "request_validation_error",
			Message:   validationErr.Error(),
			Troubleshooting: troubleshooting{
				RequiredFields: []string{"input_text"},
				ExampleRequest: map[string]string{
					"input_text": "Show me a Red Luffy deck",
					"session_id": "optional-session-id",
				},
			},
		})

	case errors.As(err, &configErr), errors.As(err, &discoveryErr):
		g.writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error:     "service_unavailable",
			ErrorType: "configuration_error",
			Message:   "Service configuration error: " + err.Error(),
			Troubleshooting: troubleshooting{
				PossibleCauses: []string{
					"Missing configuration parameters for API credentials",
					"Storefront MCP endpoint unreachable",
					"Invalid configuration values",
				},
				AdminActions: []string{
					"Check stored configuration parameters",
					"Verify the storefront MCP endpoint is reachable",
					"Review server logs for detailed error information",
				},
			},
		})

	default:
		g.writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:     "internal_server_error",
			ErrorType: "unexpected_error",
			Message:   "An unexpected error occurred: " + err.Error(),
			Troubleshooting: troubleshooting{
				ImmediateActions: []string{
					"Check server logs for detailed error information",
					"Verify all service dependencies are operational",
					"Try the request again in a few moments",
				},
			},
		})
	}
}

// ABOUTME: Health endpoint reporting storefront connectivity and configuration state.
// ABOUTME: Always answers with a well-formed body, degraded rather than failing.

package gateway

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/professormeta/tcg-agent/internal/bootstrap"
)

// handleHealth handles GET /health and GET /api/health. An unreachable
// storefront degrades the status and flips the code to 503, but the body
// is always complete so monitors can see what exactly is broken.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		g.sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body := g.healthSnapshot(r.Context(), true)

	status := http.StatusOK
	if body["status"] != "healthy" {
		status = http.StatusServiceUnavailable
	}
	g.writeJSON(w, status, body)
}

// healthSnapshot builds the health body. When attemptDiscovery is set and
// no storefront connection is cached, one discovery attempt is made so the
// check reflects current reachability, not just past state.
func (g *Gateway) healthSnapshot(ctx context.Context, attemptDiscovery bool) map[string]any {
	mcpStatus := "disconnected"
	var mcpError string

	connected, domain, names := g.storefrontStatus()
	if connected {
		mcpStatus = "connected"
	} else if attemptDiscovery {
		settings, err := g.boot.Ensure(ctx)
		if err != nil {
			mcpStatus = "error"
			mcpError = err.Error()
		} else if client, infos, derr := g.ensureStorefront(ctx, settings); derr != nil {
			mcpStatus = "connection_failed"
			mcpError = derr.Error()
		} else {
			mcpStatus = "connected"
			domain = client.Domain()
			names = make([]string, len(infos))
			for i, t := range infos {
				names[i] = t.Name
			}
		}
	}
	if names == nil {
		names = []string{}
	}

	overall := "healthy"
	if mcpStatus == "error" || mcpStatus == "connection_failed" {
		overall = "degraded"
	}

	deckConfigured := os.Getenv(bootstrap.EnvDeckEndpoint) != ""
	observability := g.tracer.Enabled()
	if settings := g.boot.Resolved(); settings != nil {
		deckConfigured = settings.DeckAPIEndpoint != ""
	}

	return map[string]any{
		"status":  overall,
		"service": serviceName + " v" + serviceVersion,
		"capabilities": map[string]any{
			"deck_recommendations":    true,
			"shopify_mcp_integration": mcpStatus == "connected",
		},
		"mcp_server": map[string]any{
			"status":          mcpStatus,
			"shop_domain":     domain,
			"available_tools": names,
			"error":           mcpError,
		},
		"environment": map[string]any{
			"deck_api_configured":  deckConfigured,
			"observability_active": observability,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
}

// Package gateway orchestrates the tcg-agent server components.
//
// # Overview
//
// The gateway package is the central coordinator of the tcg-agent server.
// It owns and manages the major components: HTTP server, agent runtime
// manager, configuration bootstrap, storefront tool discovery, and the
// SQLite-backed parameter and connection store.
//
// # Gateway Struct
//
// The Gateway struct is the main entry point:
//
//	type Gateway struct {
//	    config     *config.Config
//	    store      store.Store
//	    boot       *bootstrap.Bootstrapper
//	    agents     *agent.Manager
//	    tracer     observability.Tracer
//	    httpServer *http.Server
//	    // ... cached storefront client and tools
//	}
//
// # HTTP API
//
// The gateway exposes these endpoints:
//
//   - POST /api/chat - Synchronous chat turn, complete JSON response
//   - POST /api/chat/stream - Streaming chat turn over SSE
//   - GET /ws - WebSocket transport with message, ping, and status actions
//   - GET /health - Health check including storefront connectivity
//   - GET /api/health - Alias for /health
//
// # Request Lifecycle
//
// Every chat turn follows the same path regardless of transport:
//
//  1. Normalize the inbound payload (internal/request)
//  2. Obtain an agent runtime from the Manager
//  3. Invoke the runtime with the user's prompt
//  4. Write the response in the transport's frame format
//
// Runtime construction is lazy. The first turn after startup triggers
// bootstrap resolution and storefront tool discovery; failures surface as
// 503 responses with troubleshooting detail rather than crashing the
// server, so a misconfigured deployment still answers health checks.
//
// # Error Responses
//
// Chat errors carry a stable classification:
//
//   - 400 invalid_request: the payload had no usable input text
//   - 503 service_unavailable: configuration or tool discovery failed
//   - 500 internal_server_error: the model call itself failed
//
// Each error body includes a troubleshooting section listing required
// fields, possible causes, or recommended actions.
//
// # Graceful Shutdown
//
// Shutdown() stops the HTTP server, flushes the tracer, and closes the
// store, collecting all errors rather than stopping at the first.
package gateway

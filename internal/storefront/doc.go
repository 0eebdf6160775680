// Package storefront discovers and calls Shopify Storefront MCP tools.
//
// The Client speaks JSON-RPC 2.0 over HTTPS to a store's /api/mcp
// endpoint. ListTools discovers what the store exposes (typically catalog
// search, cart updates, and policy FAQs); CallTool executes one and
// flattens the text content of the result.
//
// DiscoveryError classifies failures by kind (connection, timeout, HTTP
// status, malformed payload) so the gateway can report exactly what is
// broken in health checks and 503 responses.
//
// Simulate mode skips the network entirely and serves a standard tool
// set, for local development against stores without MCP enabled.
package storefront

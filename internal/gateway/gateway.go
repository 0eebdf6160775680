// ABOUTME: Gateway orchestrator that wires configuration, storage, tools, and the agent.
// ABOUTME: Owns the HTTP server exposing chat, streaming, WebSocket, and health endpoints.

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/professormeta/tcg-agent/internal/agent"
	anthropicrt "github.com/professormeta/tcg-agent/internal/agent/anthropic"
	"github.com/professormeta/tcg-agent/internal/bootstrap"
	"github.com/professormeta/tcg-agent/internal/config"
	"github.com/professormeta/tcg-agent/internal/deck"
	"github.com/professormeta/tcg-agent/internal/observability"
	"github.com/professormeta/tcg-agent/internal/store"
	"github.com/professormeta/tcg-agent/internal/storefront"
	"github.com/professormeta/tcg-agent/internal/tools"
)

const (
	serviceName    = "One Piece TCG Agent"
	serviceVersion = "2.0"
	mcpIntegration = "Shopify Storefront MCP Server"
)

// Gateway coordinates the server components: the parameter and connection
// store, configuration bootstrap, storefront tool discovery, and the agent
// runtime manager.
type Gateway struct {
	config *config.Config
	logger *slog.Logger

	store  store.Store
	boot   *bootstrap.Bootstrapper
	agents *agent.Manager
	tracer observability.Tracer

	httpServer *http.Server

	// mu guards the cached storefront client and its discovered tools.
	mu         sync.Mutex
	storefront *storefront.Client
	shopTools  []storefront.ToolInfo
}

// New creates a Gateway from configuration. Remote parameters are not
// resolved here; the first request (or Start) triggers bootstrap so a
// misconfigured deployment still serves health checks.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}

	g := &Gateway{
		config: cfg,
		logger: logger.With("component", "gateway"),
		store:  s,
		boot:   bootstrap.New(cfg, s, logger),
		tracer: observability.Disabled(),
	}
	g.agents = agent.NewManager(g.buildRuntime, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", g.handleHealth)
	mux.HandleFunc("/api/health", g.handleHealth)
	mux.HandleFunc("/api/chat", g.handleChat)
	mux.HandleFunc("/api/chat/stream", g.handleChatStream)
	mux.HandleFunc("/ws", g.handleWebSocket)

	g.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return g, nil
}

// Start resolves configuration, enables trace export when configured, and
// serves HTTP until ctx is done or Shutdown is called. A failed bootstrap
// is not fatal: requests retry it and report 503 until it succeeds.
func (g *Gateway) Start(ctx context.Context) error {
	settings, err := g.boot.Ensure(ctx)
	switch {
	case err != nil:
		g.logger.Warn("configuration incomplete at startup, continuing degraded", "error", err)
	case settings.ObservabilityEnabled():
		tracer, terr := observability.NewOTLP(ctx, settings.OTLPEndpoint, settings.OTLPAuthKey, g.logger)
		if terr != nil {
			g.logger.Warn("trace export unavailable", "error", terr)
		} else {
			g.tracer = tracer
		}
	}

	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", g.config.Server.HTTPAddr, err)
	}

	g.logger.Info("starting gateway", "http_addr", g.config.Server.HTTPAddr)
	if err := g.httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	if err := g.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	if err := g.tracer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
	}
	if err := g.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// buildRuntime assembles a fully wired agent runtime: resolved settings,
// storefront tool discovery, the deck lookup tool, and the model client.
func (g *Gateway) buildRuntime(ctx context.Context) (agent.Runtime, error) {
	settings, err := g.boot.Ensure(ctx)
	if err != nil {
		return nil, err
	}

	shopClient, shopTools, err := g.ensureStorefront(ctx, settings)
	if err != nil {
		return nil, err
	}

	extractor := anthropicrt.NewExtractor(g.config.Agent.ExtractorModel, g.logger)
	deckClient := deck.NewClient(settings.DeckAPIEndpoint, settings.DeckAPISecret, g.config.DeckAPI.Timeout, g.logger)
	deckTool := deck.NewTool(extractor, deckClient, g.logger)

	all := append([]tools.Tool{deckTool}, tools.FromStorefront(shopClient, shopTools)...)
	registry, err := tools.NewRegistry(all...)
	if err != nil {
		return nil, fmt.Errorf("building tool registry: %w", err)
	}

	return anthropicrt.NewRuntime(
		g.config.Agent.Model,
		int64(g.config.Agent.MaxTokens),
		agent.SystemPrompt,
		registry,
		g.logger,
	)
}

// ensureStorefront returns the cached storefront client and tool list,
// performing discovery on first use. Discovery failure is returned to the
// caller so the request surfaces a configuration error; nothing is cached.
func (g *Gateway) ensureStorefront(ctx context.Context, settings *bootstrap.Settings) (*storefront.Client, []storefront.ToolInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.storefront != nil {
		return g.storefront, g.shopTools, nil
	}

	client := storefront.New(settings.StorefrontDomain, g.config.Storefront.Timeout, g.config.Storefront.Simulate, g.logger)
	infos, err := client.ListTools(ctx)
	if err != nil {
		return nil, nil, err
	}

	g.storefront = client
	g.shopTools = infos
	g.logger.Info("storefront tools discovered", "count", len(infos), "domain", client.Domain())
	return client, infos, nil
}

// storefrontStatus reports the cached discovery state without triggering
// network calls.
func (g *Gateway) storefrontStatus() (connected bool, domain string, names []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.storefront == nil {
		return false, "", nil
	}
	names = make([]string, len(g.shopTools))
	for i, t := range g.shopTools {
		names[i] = t.Name
	}
	return true, g.storefront.Domain(), names
}

// capabilities summarizes what the service can currently do, included in
// every successful chat response.
type capabilities struct {
	DeckRecommendations bool     `json:"deck_recommendations"`
	ShopifyIntegration  bool     `json:"shopify_integration"`
	AvailableTools      []string `json:"available_tools"`
}

type serviceInfo struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	MCPIntegration string `json:"mcp_integration,omitempty"`
	Interface      string `json:"interface,omitempty"`
}

func (g *Gateway) currentCapabilities() capabilities {
	connected, _, names := g.storefrontStatus()
	if names == nil {
		names = []string{}
	}
	return capabilities{
		DeckRecommendations: true,
		ShopifyIntegration:  connected,
		AvailableTools:      names,
	}
}

// sendJSONError writes a minimal JSON error response.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON writes v with the given status.
func (g *Gateway) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.Error("failed to encode response", "error", err)
	}
}

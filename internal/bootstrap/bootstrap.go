// ABOUTME: Lazy configuration bootstrap resolving secrets into process-wide settings
// ABOUTME: Collects all missing required parameters in one pass and caches success

package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/professormeta/tcg-agent/internal/config"
	"github.com/professormeta/tcg-agent/internal/store"
)

// Environment variables that override parameter store resolution.
const (
	EnvDeckEndpoint = "COMPETITIVE_DECK_ENDPOINT"
	EnvDeckSecret   = "COMPETITIVE_DECK_SECRET"
	EnvStoreURL     = "SHOPIFY_STORE_URL"
	EnvOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTLPAuthKey  = "OTEL_EXPORTER_OTLP_AUTH_KEY"
)

// Settings holds the resolved process-wide configuration.
type Settings struct {
	DeckAPIEndpoint  string
	DeckAPISecret    string
	StorefrontDomain string

	// Optional; empty means trace export is disabled.
	OTLPEndpoint string
	OTLPAuthKey  string
}

// ObservabilityEnabled reports whether trace export credentials were resolved.
func (s *Settings) ObservabilityEnabled() bool {
	return s.OTLPEndpoint != ""
}

// ConfigError reports every required setting that could not be resolved.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("critical configuration missing: %s", strings.Join(e.Missing, "; "))
}

// Bootstrapper resolves settings from environment variables and the parameter
// store. Resolution runs at most once per process; concurrent callers block on
// the first resolution and share its result. Failed resolution is retried on
// the next call rather than cached.
type Bootstrapper struct {
	cfg    *config.Config
	params store.ParameterStore
	logger *slog.Logger

	mu       sync.Mutex
	settings *Settings
}

// New creates a Bootstrapper backed by the given parameter store.
func New(cfg *config.Config, params store.ParameterStore, logger *slog.Logger) *Bootstrapper {
	return &Bootstrapper{
		cfg:    cfg,
		params: params,
		logger: logger.With("component", "bootstrap"),
	}
}

// Ensure resolves all settings, returning cached settings after the first
// success. A *ConfigError lists every missing required setting at once.
func (b *Bootstrapper) Ensure(ctx context.Context) (*Settings, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.settings != nil {
		return b.settings, nil
	}

	settings := &Settings{}
	var missing []string

	settings.DeckAPIEndpoint = b.resolve(ctx, EnvDeckEndpoint, b.cfg.DeckAPI.EndpointParam, false, &missing,
		"deck API endpoint")
	settings.DeckAPISecret = b.resolve(ctx, EnvDeckSecret, b.cfg.DeckAPI.SecretParam, true, &missing,
		"deck API secret")

	storeURL := b.resolve(ctx, EnvStoreURL, b.cfg.Storefront.DomainParam, false, &missing,
		"storefront domain")
	settings.StorefrontDomain = normalizeDomain(storeURL)

	// Observability credentials are optional: absence disables the feature.
	settings.OTLPEndpoint = b.resolveOptional(ctx, EnvOTLPEndpoint, b.cfg.Observability.EndpointParam, false)
	settings.OTLPAuthKey = b.resolveOptional(ctx, EnvOTLPAuthKey, b.cfg.Observability.AuthKeyParam, true)
	if settings.OTLPEndpoint == "" {
		b.logger.Info("observability credentials not configured, trace export disabled")
	}

	if len(missing) > 0 {
		b.logger.Error("configuration bootstrap failed", "missing", missing)
		return nil, &ConfigError{Missing: missing}
	}

	b.settings = settings
	b.logger.Info("configuration bootstrap complete",
		"storefront_domain", settings.StorefrontDomain,
		"observability_enabled", settings.ObservabilityEnabled(),
	)
	return settings, nil
}

// Resolved returns the cached settings, or nil if no Ensure call has
// succeeded yet. It never triggers resolution.
func (b *Bootstrapper) Resolved() *Settings {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.settings
}

// resolve looks up a required setting: environment first, parameter store
// second. Failures are appended to missing instead of returned, so one Ensure
// call surfaces every gap.
func (b *Bootstrapper) resolve(ctx context.Context, envName, paramName string, decrypt bool, missing *[]string, label string) string {
	if v := os.Getenv(envName); v != "" {
		return v
	}

	v, err := b.params.GetParameter(ctx, paramName, decrypt)
	if err != nil {
		*missing = append(*missing, fmt.Sprintf("%s (parameter: %s): %v", label, paramName, err))
		return ""
	}
	if v == "" {
		*missing = append(*missing, fmt.Sprintf("%s (parameter: %s): empty value", label, paramName))
		return ""
	}
	return v
}

// resolveOptional looks up an optional setting; failure degrades to empty.
func (b *Bootstrapper) resolveOptional(ctx context.Context, envName, paramName string, decrypt bool) string {
	if v := os.Getenv(envName); v != "" {
		return v
	}

	v, err := b.params.GetParameter(ctx, paramName, decrypt)
	if err != nil {
		b.logger.Debug("optional parameter not resolved", "parameter", paramName, "error", err)
		return ""
	}
	return v
}

// normalizeDomain strips the URL scheme and trailing slashes from a
// configured store URL, leaving the bare domain.
func normalizeDomain(raw string) string {
	d := strings.TrimPrefix(raw, "https://")
	d = strings.TrimPrefix(d, "http://")
	return strings.TrimRight(d, "/")
}

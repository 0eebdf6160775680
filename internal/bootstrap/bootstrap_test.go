// ABOUTME: Tests for configuration bootstrap resolution, caching, and error collection.
// ABOUTME: Uses the in-memory store to control parameter availability.

package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/professormeta/tcg-agent/internal/config"
	"github.com/professormeta/tcg-agent/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// clearEnv removes every bootstrap environment override for the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{EnvDeckEndpoint, EnvDeckSecret, EnvStoreURL, EnvOTLPEndpoint, EnvOTLPAuthKey} {
		t.Setenv(name, "")
	}
}

func seedRequired(t *testing.T, s *store.MemStore, cfg *config.Config) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.PutParameter(ctx, &store.Parameter{Name: cfg.DeckAPI.EndpointParam, Value: "https://decks.example.com/api"}))
	require.NoError(t, s.PutParameter(ctx, &store.Parameter{Name: cfg.DeckAPI.SecretParam, Value: "deck-secret", Secret: true}))
	require.NoError(t, s.PutParameter(ctx, &store.Parameter{Name: cfg.Storefront.DomainParam, Value: "https://my-store.myshopify.com/"}))
}

func TestEnsure_ResolvesFromStore(t *testing.T) {
	clearEnv(t)
	cfg := config.Default()
	s := store.NewMemStore()
	seedRequired(t, s, cfg)

	b := New(cfg, s, testLogger())
	settings, err := b.Ensure(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "https://decks.example.com/api", settings.DeckAPIEndpoint)
	assert.Equal(t, "deck-secret", settings.DeckAPISecret)
	assert.Equal(t, "my-store.myshopify.com", settings.StorefrontDomain, "scheme and trailing slash are stripped")
	assert.False(t, settings.ObservabilityEnabled())
}

func TestEnsure_EnvOverridesStore(t *testing.T) {
	clearEnv(t)
	cfg := config.Default()
	s := store.NewMemStore()
	seedRequired(t, s, cfg)

	t.Setenv(EnvDeckEndpoint, "https://override.example.com")

	b := New(cfg, s, testLogger())
	settings, err := b.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://override.example.com", settings.DeckAPIEndpoint)
}

func TestEnsure_CollectsAllMissing(t *testing.T) {
	clearEnv(t)
	cfg := config.Default()
	b := New(cfg, store.NewMemStore(), testLogger())

	_, err := b.Ensure(context.Background())
	require.Error(t, err)

	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
	// One Ensure call reports every gap, not just the first one.
	assert.Len(t, configErr.Missing, 3)
}

func TestEnsure_CachesSuccessOnly(t *testing.T) {
	clearEnv(t)
	cfg := config.Default()
	s := store.NewMemStore()

	b := New(cfg, s, testLogger())

	// First attempt fails and must not be cached.
	_, err := b.Ensure(context.Background())
	require.Error(t, err)
	assert.Nil(t, b.Resolved())

	// After the parameters appear, the next attempt succeeds.
	seedRequired(t, s, cfg)
	settings, err := b.Ensure(context.Background())
	require.NoError(t, err)
	require.NotNil(t, settings)

	// Further calls hit the cache, not the store.
	callsAfterSuccess := s.GetParameterCalls
	again, err := b.Ensure(context.Background())
	require.NoError(t, err)
	assert.Same(t, settings, again)
	assert.Equal(t, callsAfterSuccess, s.GetParameterCalls)
	assert.Same(t, settings, b.Resolved())
}

func TestEnsure_ObservabilityOptional(t *testing.T) {
	clearEnv(t)
	cfg := config.Default()
	s := store.NewMemStore()
	seedRequired(t, s, cfg)

	t.Run("absent credentials disable tracing", func(t *testing.T) {
		b := New(cfg, s, testLogger())
		settings, err := b.Ensure(context.Background())
		require.NoError(t, err)
		assert.False(t, settings.ObservabilityEnabled())
		assert.Empty(t, settings.OTLPEndpoint)
	})

	t.Run("present credentials enable tracing", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, s.PutParameter(ctx, &store.Parameter{Name: cfg.Observability.EndpointParam, Value: "https://otlp.example.com"}))
		require.NoError(t, s.PutParameter(ctx, &store.Parameter{Name: cfg.Observability.AuthKeyParam, Value: "otlp-key", Secret: true}))

		b := New(cfg, s, testLogger())
		settings, err := b.Ensure(ctx)
		require.NoError(t, err)
		assert.True(t, settings.ObservabilityEnabled())
		assert.Equal(t, "otlp-key", settings.OTLPAuthKey)
	})
}

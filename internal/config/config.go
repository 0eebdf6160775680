// ABOUTME: Configuration loading and parsing for tcg-agent
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete tcg-agent configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Agent         AgentConfig         `yaml:"agent"`
	DeckAPI       DeckAPIConfig       `yaml:"deck_api"`
	Storefront    StorefrontConfig    `yaml:"storefront"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AgentConfig holds settings for the language-model runtime
type AgentConfig struct {
	Model          string `yaml:"model"`
	ExtractorModel string `yaml:"extractor_model"`
	MaxTokens      int64  `yaml:"max_tokens"`
}

// DeckAPIConfig names the parameters holding the deck API endpoint and secret
type DeckAPIConfig struct {
	EndpointParam string `yaml:"endpoint_param"`
	SecretParam   string `yaml:"secret_param"`

	Timeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout"`
}

// StorefrontConfig holds storefront MCP integration configuration
type StorefrontConfig struct {
	DomainParam string `yaml:"domain_param"`
	// Simulate skips the outbound tools/list call and uses the standard
	// storefront tool set. Intended for local development only.
	Simulate bool `yaml:"simulate"`

	Timeout time.Duration `yaml:"-"`

	TimeoutRaw string `yaml:"timeout"`
}

// ObservabilityConfig names the parameters holding optional OTLP trace export
// credentials. Missing parameters disable tracing rather than failing startup.
type ObservabilityConfig struct {
	EndpointParam string `yaml:"endpoint_param"`
	AuthKeyParam  string `yaml:"auth_key_param"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default parameter names, matching the production parameter hierarchy.
const (
	DefaultDeckEndpointParam = "/tcg-agent/production/deck-api/endpoint"
	DefaultDeckSecretParam   = "/tcg-agent/production/deck-api/secret"
	DefaultStoreDomainParam  = "/tcg-agent/production/shopify/store-url"
	DefaultOTLPEndpointParam = "/tcg-agent/production/observability/endpoint"
	DefaultOTLPAuthKeyParam  = "/tcg-agent/production/observability/auth-key"
)

// Default timing and model settings.
const (
	DefaultDeckTimeout             = 10 * time.Second
	DefaultStorefrontTimeout       = 30 * time.Second
	DefaultModel                   = "claude-3-7-sonnet-20250219"
	DefaultExtractorModel          = "claude-3-haiku-20240307"
	DefaultMaxTokens         int64 = 4096
)

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration with every optional field at its default,
// suitable for tests and for running without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Server.HTTPAddr = "localhost:8080"
	cfg.Database.Path = ":memory:"
	return cfg
}

func (c *Config) applyDefaults() {
	if c.DeckAPI.EndpointParam == "" {
		c.DeckAPI.EndpointParam = DefaultDeckEndpointParam
	}
	if c.DeckAPI.SecretParam == "" {
		c.DeckAPI.SecretParam = DefaultDeckSecretParam
	}
	if c.DeckAPI.Timeout == 0 {
		c.DeckAPI.Timeout = DefaultDeckTimeout
	}
	if c.Storefront.DomainParam == "" {
		c.Storefront.DomainParam = DefaultStoreDomainParam
	}
	if c.Storefront.Timeout == 0 {
		c.Storefront.Timeout = DefaultStorefrontTimeout
	}
	if c.Observability.EndpointParam == "" {
		c.Observability.EndpointParam = DefaultOTLPEndpointParam
	}
	if c.Observability.AuthKeyParam == "" {
		c.Observability.AuthKeyParam = DefaultOTLPAuthKeyParam
	}
	if c.Agent.Model == "" {
		c.Agent.Model = DefaultModel
	}
	if c.Agent.ExtractorModel == "" {
		c.Agent.ExtractorModel = DefaultExtractorModel
	}
	if c.Agent.MaxTokens == 0 {
		c.Agent.MaxTokens = DefaultMaxTokens
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.DeckAPI.TimeoutRaw != "" {
		cfg.DeckAPI.Timeout, err = time.ParseDuration(cfg.DeckAPI.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing deck_api.timeout %q: %w", cfg.DeckAPI.TimeoutRaw, err)
		}
	}

	if cfg.Storefront.TimeoutRaw != "" {
		cfg.Storefront.Timeout, err = time.ParseDuration(cfg.Storefront.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing storefront.timeout %q: %w", cfg.Storefront.TimeoutRaw, err)
		}
	}

	return nil
}

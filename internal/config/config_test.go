package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	clearEnvVars(t)

	// Set the required API keys for the default provider (gemini) and CORE.
	t.Setenv("METASEARCH_LLM_GEMINI_API_KEY", "test-gemini-key")
	t.Setenv("METASEARCH_SOURCES_CORE_API_KEY", "test-core-key")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Server defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)

	// Logging defaults
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	// Metrics defaults
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)

	// LLM defaults
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Gemini.Model)
	assert.Equal(t, "text-embedding-004", cfg.LLM.Gemini.EmbeddingModel)
	assert.Equal(t, "test-gemini-key", cfg.LLM.Gemini.APIKey)

	// Search defaults
	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.Equal(t, "15s", cfg.Search.SubQueryTimeout.String())

	// Sources defaults
	assert.True(t, cfg.Sources.ArXiv.Enabled)
	assert.Equal(t, "https://export.arxiv.org/api", cfg.Sources.ArXiv.BaseURL)
	assert.Equal(t, 3.0, cfg.Sources.ArXiv.RateLimit)
	assert.True(t, cfg.Sources.OpenAlex.Enabled)
	assert.True(t, cfg.Sources.CORE.Enabled)
	assert.Equal(t, "test-core-key", cfg.Sources.CORE.APIKey)

	// Kafka defaults
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "events.search_history", cfg.Kafka.Topic)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("METASEARCH_SERVER_HTTP_PORT", "8888")
	t.Setenv("METASEARCH_LOGGING_LEVEL", "debug")
	t.Setenv("METASEARCH_LLM_PROVIDER", "openai")
	t.Setenv("METASEARCH_LLM_OPENAI_API_KEY", "sk-test-override")
	t.Setenv("METASEARCH_SOURCES_CORE_API_KEY", "core-key")
	t.Setenv("METASEARCH_SEARCH_MAX_RESULTS", "25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test-override", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, 25, cfg.Search.MaxResults)
}

func TestLoad_MissingProviderKey(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("METASEARCH_LLM_PROVIDER", "openai")
	t.Setenv("METASEARCH_SOURCES_CORE_API_KEY", "core-key")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "METASEARCH_LLM_OPENAI_API_KEY")
}

func TestLoad_MissingCOREKey(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("METASEARCH_LLM_GEMINI_API_KEY", "gemini-key")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "METASEARCH_SOURCES_CORE_API_KEY")
}

func TestLoad_COREDisabledNeedsNoKey(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("METASEARCH_LLM_GEMINI_API_KEY", "gemini-key")
	t.Setenv("METASEARCH_SOURCES_CORE_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Sources.CORE.Enabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		modifyFunc  func(*Config)
		expectedErr string
	}{
		{
			name: "HTTP port zero",
			modifyFunc: func(c *Config) {
				c.Server.HTTPPort = 0
			},
			expectedErr: "invalid HTTP port: 0",
		},
		{
			name: "HTTP port too high",
			modifyFunc: func(c *Config) {
				c.Server.HTTPPort = 70000
			},
			expectedErr: "invalid HTTP port: 70000",
		},
		{
			name: "invalid log level",
			modifyFunc: func(c *Config) {
				c.Logging.Level = "verbose"
			},
			expectedErr: "invalid log level: verbose",
		},
		{
			name: "max results zero",
			modifyFunc: func(c *Config) {
				c.Search.MaxResults = 0
			},
			expectedErr: "search max_results must be positive",
		},
		{
			name: "sub-query timeout zero",
			modifyFunc: func(c *Config) {
				c.Search.SubQueryTimeout = 0
			},
			expectedErr: "search sub_query_timeout must be positive",
		},
		{
			name: "unsupported provider",
			modifyFunc: func(c *Config) {
				c.LLM.Provider = "anthropic"
			},
			expectedErr: "unsupported LLM provider",
		},
		{
			name: "kafka enabled without brokers",
			modifyFunc: func(c *Config) {
				c.Kafka.Enabled = true
				c.Kafka.Brokers = nil
			},
			expectedErr: "no brokers configured",
		},
		{
			name: "kafka enabled without topic",
			modifyFunc: func(c *Config) {
				c.Kafka.Enabled = true
				c.Kafka.Topic = ""
			},
			expectedErr: "no topic configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modifyFunc(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestValidate_ValidLogLevels(t *testing.T) {
	validLevels := []string{"trace", "debug", "info", "warn", "error", "fatal", "panic"}
	for _, level := range validLevels {
		t.Run("valid_"+level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logging.Level = level
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestHTTPAddress(t *testing.T) {
	cfg := ServerConfig{Host: "127.0.0.1", HTTPPort: 9000}
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTPAddress())
}

// clearEnvVars removes all METASEARCH_ prefixed environment variables
func clearEnvVars(t *testing.T) {
	t.Helper()
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "METASEARCH_") {
			key := env[:strings.Index(env, "=")]
			os.Unsetenv(key)
		}
	}
}

// validConfig returns a valid configuration for testing
func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			HTTPPort: 8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		LLM: LLMConfig{
			Provider: "gemini",
			Gemini: GeminiConfig{
				APIKey: "test-key",
			},
		},
		Search: SearchConfig{
			MaxResults:      10,
			SubQueryTimeout: 15 * time.Second,
		},
		Sources: SourcesConfig{
			ArXiv:    SourceConfig{Enabled: true},
			OpenAlex: SourceConfig{Enabled: true},
			CORE:     SourceConfig{Enabled: true, APIKey: "core-key"},
		},
		Kafka: KafkaConfig{
			Enabled: false,
			Brokers: []string{"localhost:9092"},
			Topic:   "events.search_history",
		},
	}
}

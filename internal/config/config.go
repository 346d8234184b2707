// Package config loads ronpa's settings from defaults, an optional
// config.toml, RONPA_* environment variables and command-line flags.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/abhisek/ronpa/internal/debate"
	"github.com/abhisek/ronpa/internal/llm"
)

// Config is the fully resolved configuration.
type Config struct {
	DBPath string
	Debug  bool
	LLM    llm.Config
	Server ServerConfig
	Coach  debate.Config
}

// ServerConfig configures `ronpa serve`.
type ServerConfig struct {
	Listen         string
	APIKey         string
	AllowedOrigins []string
	JSONLogs       bool
}

// FromViper resolves a Config from v. When no provider or credential is
// configured, the standard *_API_KEY environment variables are probed.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DBPath: v.GetString("db.path"),
		Debug:  v.GetBool("debug"),
		LLM: llm.Config{
			Provider: v.GetString("llm.provider"),
			Proxy: llm.ProxyConfig{
				URL:    v.GetString("llm.proxy.url"),
				APIKey: v.GetString("llm.proxy.api_key"),
				Model:  v.GetString("llm.proxy.model"),
			},
			Gemini: llm.GeminiConfig{
				APIKey:  v.GetString("llm.gemini.api_key"),
				Model:   v.GetString("llm.gemini.model"),
				BaseURL: v.GetString("llm.gemini.base_url"),
			},
			Anthropic: llm.AnthropicConfig{
				APIKey: v.GetString("llm.anthropic.api_key"),
				Model:  v.GetString("llm.anthropic.model"),
			},
			OpenAI: llm.OpenAIConfig{
				APIKey:  v.GetString("llm.openai.api_key"),
				Model:   v.GetString("llm.openai.model"),
				BaseURL: v.GetString("llm.openai.base_url"),
			},
			OpenRouter: llm.OpenRouterConfig{
				APIKey:  v.GetString("llm.openrouter.api_key"),
				Model:   v.GetString("llm.openrouter.model"),
				BaseURL: v.GetString("llm.openrouter.base_url"),
			},
			Retry: llm.RetryConfig{
				MaxAttempts: v.GetInt("llm.retry.max_attempts"),
				InitialWait: v.GetDuration("llm.retry.initial_wait"),
				MaxWait:     v.GetDuration("llm.retry.max_wait"),
				Multiplier:  v.GetFloat64("llm.retry.multiplier"),
			},
			Timeout: v.GetDuration("llm.timeout"),
		},
		Server: ServerConfig{
			Listen:         v.GetString("server.listen"),
			APIKey:         v.GetString("server.api_key"),
			AllowedOrigins: v.GetStringSlice("server.allowed_origins"),
			JSONLogs:       v.GetBool("server.json_logs"),
		},
		Coach: debate.Config{
			Model:       v.GetString("coach.model"),
			MaxTokens:   v.GetInt("coach.max_tokens"),
			Temperature: v.GetFloat64("coach.temperature"),
			CacheSize:   v.GetInt64("coach.cache_size"),
			CacheTTL:    v.GetDuration("coach.cache_ttl"),
		},
	}

	if !hasCredentials(cfg.LLM) {
		if found, ok := llm.DiscoverConfig(); ok {
			applyDiscovered(&cfg.LLM, found)
		}
	}
	if cfg.LLM.Gemini.APIKey == "" {
		cfg.LLM.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	if cfg.LLM.Timeout < 0 {
		return nil, fmt.Errorf("llm.timeout must not be negative, got %s", cfg.LLM.Timeout)
	}
	if cfg.Coach.CacheTTL < 0 {
		return nil, fmt.Errorf("coach.cache_ttl must not be negative, got %s", cfg.Coach.CacheTTL)
	}
	return cfg, nil
}

// Load is InitViper followed by FromViper.
func Load(path string) (*Config, error) {
	v, err := InitViper(path)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

func hasCredentials(c llm.Config) bool {
	return c.Provider != "" ||
		c.Proxy.URL != "" ||
		c.Gemini.APIKey != "" ||
		c.Anthropic.APIKey != "" ||
		c.OpenAI.APIKey != "" ||
		c.OpenRouter.APIKey != ""
}

// applyDiscovered takes the provider and key from found and keeps the rest
// of dst, so configured models and retry settings survive.
func applyDiscovered(dst *llm.Config, found llm.Config) {
	dst.Provider = found.Provider
	dst.Gemini.APIKey = found.Gemini.APIKey
	dst.Anthropic.APIKey = found.Anthropic.APIKey
	dst.OpenAI.APIKey = found.OpenAI.APIKey
	dst.OpenRouter.APIKey = found.OpenRouter.APIKey
}

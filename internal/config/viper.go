package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/abhisek/ronpa/internal/debate"
	"github.com/abhisek/ronpa/internal/llm"
)

// EnvPrefix prefixes every environment override, e.g. RONPA_LLM_PROXY_URL.
const EnvPrefix = "RONPA"

const defaultListen = ":8787"

// InitViper returns a viper instance with defaults registered, the config
// file read and environment overrides bound.
//
// path names an explicit config file; it must exist. When empty, config.toml
// is looked up in the user config dir (ronpa/) and the working directory,
// and a missing file is not an error.
//
// Precedence, highest first: bound flags, RONPA_* env, config file, defaults.
func InitViper(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "ronpa"))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if path != "" || !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setDefaults mirrors llm.DefaultConfig and debate.DefaultConfig so there is
// one source of truth for defaults. Keys without a default are still
// registered so AutomaticEnv resolves them.
func setDefaults(v *viper.Viper) {
	l := llm.DefaultConfig()
	c := debate.DefaultConfig()

	v.SetDefault("db.path", "")
	v.SetDefault("debug", false)

	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.proxy.url", "")
	v.SetDefault("llm.proxy.api_key", "")
	v.SetDefault("llm.proxy.model", l.Proxy.Model)
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", l.Gemini.Model)
	v.SetDefault("llm.gemini.base_url", "")
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", l.Anthropic.Model)
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", l.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.openrouter.api_key", "")
	v.SetDefault("llm.openrouter.model", l.OpenRouter.Model)
	v.SetDefault("llm.openrouter.base_url", "")
	v.SetDefault("llm.retry.max_attempts", l.Retry.MaxAttempts)
	v.SetDefault("llm.retry.initial_wait", l.Retry.InitialWait)
	v.SetDefault("llm.retry.max_wait", l.Retry.MaxWait)
	v.SetDefault("llm.retry.multiplier", l.Retry.Multiplier)
	v.SetDefault("llm.timeout", l.Timeout)

	v.SetDefault("server.listen", defaultListen)
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.json_logs", false)

	v.SetDefault("coach.model", c.Model)
	v.SetDefault("coach.max_tokens", c.MaxTokens)
	v.SetDefault("coach.temperature", c.Temperature)
	v.SetDefault("coach.cache_size", c.CacheSize)
	v.SetDefault("coach.cache_ttl", c.CacheTTL)
}

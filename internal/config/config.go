// Package config loads tutord configuration from a JSON file backend with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
)

type Config struct {
	Server ServerConfig
	Proxy  ProxyConfig
	Log    LogConfig
}

type ServerConfig struct {
	Port int
}

type ProxyConfig struct {
	BaseURL string
	APIKey  string
	// Models is the fallback candidate list, in preference order.
	Models []string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Proxy: ProxyConfig{
			BaseURL: "https://openrouter.ai/api/v1",
			Models: []string{
				"anthropic/claude-3-haiku",
				"anthropic/claude-3-sonnet",
				"openai/gpt-3.5-turbo",
				"google/gemini-pro",
			},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file backend at
// $XDG_CONFIG_HOME/tutord/config.json and applies TUTORD_* environment
// overrides. The OpenRouter API key is required; a missing key fails loading
// so the problem surfaces at startup rather than per-request.
func Load() (Config, error) {
	return loadWith(newFileBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// The plain variable name is accepted too, matching common deployment
	// environments.
	if cfg.Proxy.APIKey == "" {
		cfg.Proxy.APIKey = os.Getenv("OPENROUTER_API_KEY")
	}

	if cfg.Proxy.APIKey == "" {
		return Config{}, fmt.Errorf("missing required config: OpenRouter API key. " +
			"Set it via environment variable TUTORD_OPENROUTER_API_KEY or OPENROUTER_API_KEY")
	}

	if len(cfg.Proxy.Models) == 0 {
		return Config{}, fmt.Errorf("missing required config: at least one candidate model (proxy.models)")
	}

	return cfg, nil
}

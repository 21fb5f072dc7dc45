// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/glossary-engine/internal/secrets"
	"github.com/pdiddy/glossary-engine/pkg/types"
)

func setDefaults() {
	viper.SetDefault("serp.engine", "google")
	viper.SetDefault("serp.max_results", 5)
	viper.SetDefault("serp.timeout", 30*time.Second)
	viper.SetDefault("serp.user_agent", "glossary-engine/"+version)
	viper.SetDefault("serp.retry.max_attempts", 3)
	viper.SetDefault("serp.retry.backoff", "constant")
	viper.SetDefault("serp.retry.delay", 2*time.Second)
	viper.SetDefault("serp.retry.retry_on", []string{"connection"})

	viper.SetDefault("search_console.token_url", "https://accounts.google.com/o/oauth2/token")
	viper.SetDefault("search_console.row_limit", 10)
	viper.SetDefault("search_console.lookback_days", 7)
	viper.SetDefault("search_console.timeout", 30*time.Second)

	viper.SetDefault("generation.model", "gpt-4-turbo")
	viper.SetDefault("generation.timeout", 120*time.Second)
	viper.SetDefault("generation.prompt_style", string(types.StyleSERPInformed))
	viper.SetDefault("generation.max_sections", 12)

	viper.SetDefault("archive.dir", "archive")

	viper.SetDefault("server.addr", "127.0.0.1:8080")
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 4*time.Minute)
	viper.SetDefault("server.action_timeout", 3*time.Minute)
}

// bindConventionalEnv lets the vendor-standard variable names work alongside
// the GLOSSARY_ENGINE_ prefixed ones.
func bindConventionalEnv() {
	viper.BindEnv("serp.api_key", "GLOSSARY_ENGINE_SERP_API_KEY", "SERPAPI_API_KEY")
	viper.BindEnv("generation.api_key", "GLOSSARY_ENGINE_GENERATION_API_KEY", "OPENAI_API_KEY")
	viper.BindEnv("generation.base_url", "GLOSSARY_ENGINE_GENERATION_BASE_URL", "OPENAI_BASE_URL")
	viper.BindEnv("search_console.client_id", "GLOSSARY_ENGINE_SEARCH_CONSOLE_CLIENT_ID", "GOOGLE_CLIENT_ID")
	viper.BindEnv("search_console.client_secret", "GLOSSARY_ENGINE_SEARCH_CONSOLE_CLIENT_SECRET", "GOOGLE_CLIENT_SECRET")
	viper.BindEnv("search_console.refresh_token", "GLOSSARY_ENGINE_SEARCH_CONSOLE_REFRESH_TOKEN", "GOOGLE_REFRESH_TOKEN")
}

// loadConfig resolves the pipeline configuration from viper (flags, env,
// config file) with secret files as the fallback for credentials.
func loadConfig() (types.PipelineConfig, error) {
	cfg := types.PipelineConfig{
		SERP: types.SERPConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("serp.timeout"),
				UserAgent: viper.GetString("serp.user_agent"),
			},
			APIKey:     loadedSecrets.Or(secrets.SERPAPIKey, viper.GetString("serp.api_key")),
			Engine:     viper.GetString("serp.engine"),
			BaseURL:    viper.GetString("serp.base_url"),
			MaxResults: viper.GetInt("serp.max_results"),
			Retry: types.RetryConfig{
				MaxAttempts: viper.GetInt("serp.retry.max_attempts"),
				Backoff:     viper.GetString("serp.retry.backoff"),
				Delay:       viper.GetDuration("serp.retry.delay"),
				RetryOn:     viper.GetStringSlice("serp.retry.retry_on"),
			},
		},
		SearchConsole: types.SearchConsoleConfig{
			SiteURL:      viper.GetString("search_console.site_url"),
			ClientID:     loadedSecrets.Or(secrets.GoogleClientID, viper.GetString("search_console.client_id")),
			ClientSecret: loadedSecrets.Or(secrets.GoogleClientSecret, viper.GetString("search_console.client_secret")),
			RefreshToken: loadedSecrets.Or(secrets.GoogleRefreshToken, viper.GetString("search_console.refresh_token")),
			TokenURL:     viper.GetString("search_console.token_url"),
			Endpoint:     viper.GetString("search_console.endpoint"),
			RowLimit:     viper.GetInt("search_console.row_limit"),
			LookbackDays: viper.GetInt("search_console.lookback_days"),
			Timeout:      viper.GetDuration("search_console.timeout"),
		},
		Generation: types.GenerationConfig{
			AIConfig: types.AIConfig{
				Model:     viper.GetString("generation.model"),
				APIKey:    loadedSecrets.Or(secrets.OpenAIAPIKey, viper.GetString("generation.api_key")),
				BaseURL:   viper.GetString("generation.base_url"),
				MaxTokens: viper.GetInt("generation.max_tokens"),
				Timeout:   viper.GetDuration("generation.timeout"),
			},
			PromptStyle: types.PromptStyle(viper.GetString("generation.prompt_style")),
			Tone:        viper.GetString("generation.tone"),
			MaxSections: viper.GetInt("generation.max_sections"),
			Sections:    viper.GetStringSlice("generation.sections"),
		},
		Archive: types.ArchiveConfig{
			Dir: viper.GetString("archive.dir"),
		},
		Server: types.ServerConfig{
			Addr:          viper.GetString("server.addr"),
			ReadTimeout:   viper.GetDuration("server.read_timeout"),
			WriteTimeout:  viper.GetDuration("server.write_timeout"),
			ActionTimeout: viper.GetDuration("server.action_timeout"),
		},
	}
	if viper.IsSet("generation.temperature") {
		t := viper.GetFloat64("generation.temperature")
		cfg.Generation.Temperature = &t
	}

	switch cfg.Generation.PromptStyle {
	case types.StyleSERPInformed, types.StyleKeywordOnly:
	default:
		return cfg, fmt.Errorf("unknown prompt style %q: use %s or %s",
			cfg.Generation.PromptStyle, types.StyleSERPInformed, types.StyleKeywordOnly)
	}
	return cfg, nil
}

// newLogger builds the process logger. Logs go to stderr so command output
// on stdout stays clean.
func newLogger(level, format string) (*slog.Logger, error) {
	return newLoggerTo(os.Stderr, level, format)
}

func newLoggerTo(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("invalid log format %q: use text or json", format)
}

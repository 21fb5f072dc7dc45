package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero is replaced by a default;
	// requests are never left without a deadline.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "glossary-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RetryConfig describes the retry policy applied to search requests.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// Backoff is "constant" or "exponential" (default constant).
	Backoff string `json:"backoff" yaml:"backoff"`

	// Delay is the wait between attempts, or the first wait for exponential backoff (default 2s).
	Delay time.Duration `json:"delay" yaml:"delay"`

	// RetryOn lists the error classes worth another attempt:
	// connection, rate_limited, server (default connection).
	RetryOn []string `json:"retry_on" yaml:"retry_on"`
}

// SERPConfig holds settings for the SERP fetcher.
type SERPConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey authenticates against the search results service.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Engine selects the upstream engine (default "google").
	Engine string `json:"engine" yaml:"engine"`

	// BaseURL overrides the search endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxResults caps the retained organic results (default 5).
	MaxResults int `json:"max_results" yaml:"max_results"`

	Retry RetryConfig `json:"retry" yaml:"retry"`
}

// SearchConsoleConfig holds OAuth credentials and query settings for the
// Search Console top-queries lookup. The lookup is disabled when SiteURL is empty.
type SearchConsoleConfig struct {
	SiteURL      string `json:"site_url" yaml:"site_url"`
	ClientID     string `json:"client_id,omitempty" yaml:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty" yaml:"client_secret,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty" yaml:"refresh_token,omitempty"`

	// TokenURL is the OAuth token endpoint.
	TokenURL string `json:"token_url" yaml:"token_url"`

	// Endpoint overrides the Search Console API base URL.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// RowLimit caps returned rows (default 10).
	RowLimit int `json:"row_limit" yaml:"row_limit"`

	// LookbackDays sets the start of the date range (default 7).
	LookbackDays int `json:"lookback_days" yaml:"lookback_days"`

	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// Enabled reports whether a site is configured.
func (c SearchConsoleConfig) Enabled() bool { return c.SiteURL != "" }

// AIConfig holds settings for calls to the completion service.
type AIConfig struct {
	// Model is the model identifier (e.g. "gpt-4-turbo").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the completion API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL points at an OpenAI-compatible endpoint. Empty uses the default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxTokens limits the completion length. Zero leaves it to the service.
	MaxTokens int `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`

	// Temperature is sent when non-nil.
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`

	// Timeout bounds a single completion request (default 120s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// PromptStyle selects how outline prompts use SERP data.
type PromptStyle string

const (
	// StyleSERPInformed interpolates SERP titles and snippets when present.
	StyleSERPInformed PromptStyle = "serp-informed"
	// StyleKeywordOnly prompts from the keyword alone.
	StyleKeywordOnly PromptStyle = "keyword-only"
)

// GenerationConfig holds settings for outline and section generation.
type GenerationConfig struct {
	AIConfig `yaml:",inline"`

	// PromptStyle is serp-informed or keyword-only.
	PromptStyle PromptStyle `json:"prompt_style" yaml:"prompt_style"`

	// Tone is appended to the system instruction (e.g. "friendly and reassuring").
	Tone string `json:"tone,omitempty" yaml:"tone,omitempty"`

	// MaxSections caps the number of sections in an article (default 12).
	MaxSections int `json:"max_sections" yaml:"max_sections"`

	// Sections overrides DefaultSections for new articles.
	Sections []string `json:"sections,omitempty" yaml:"sections,omitempty"`
}

// ArchiveConfig holds settings for the article archive.
type ArchiveConfig struct {
	// Dir contains articles.db.
	Dir string `json:"dir" yaml:"dir"`
}

// ServerConfig holds settings for the web UI.
type ServerConfig struct {
	Addr         string        `json:"addr" yaml:"addr"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`

	// ActionTimeout bounds one user action, including every network call it makes.
	ActionTimeout time.Duration `json:"action_timeout" yaml:"action_timeout"`
}

// PipelineConfig groups all component configurations.
type PipelineConfig struct {
	SERP          SERPConfig          `json:"serp" yaml:"serp"`
	SearchConsole SearchConsoleConfig `json:"search_console" yaml:"search_console"`
	Generation    GenerationConfig    `json:"generation" yaml:"generation"`
	Archive       ArchiveConfig       `json:"archive" yaml:"archive"`
	Server        ServerConfig        `json:"server" yaml:"server"`
}

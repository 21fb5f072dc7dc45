// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/glossary-engine/internal/archive"
	"github.com/pdiddy/glossary-engine/internal/secrets"
	"github.com/pdiddy/glossary-engine/pkg/types"
)

func resetConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	setDefaults()
	bindConventionalEnv()
	loadedSecrets = secrets.Set{}
	for _, env := range []string{"SERPAPI_API_KEY", "OPENAI_API_KEY", "GLOSSARY_ENGINE_SERP_API_KEY", "GLOSSARY_ENGINE_GENERATION_API_KEY"} {
		t.Setenv(env, "")
	}
	t.Cleanup(func() {
		viper.Reset()
		loadedSecrets = nil
	})
}

func TestLoadConfigDefaults(t *testing.T) {
	resetConfig(t)

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "google", cfg.SERP.Engine)
	assert.Equal(t, 5, cfg.SERP.MaxResults)
	assert.Equal(t, 30*time.Second, cfg.SERP.Timeout)
	assert.Equal(t, 3, cfg.SERP.Retry.MaxAttempts)
	assert.Equal(t, "constant", cfg.SERP.Retry.Backoff)
	assert.Equal(t, 2*time.Second, cfg.SERP.Retry.Delay)
	assert.Equal(t, []string{"connection"}, cfg.SERP.Retry.RetryOn)

	assert.Equal(t, "gpt-4-turbo", cfg.Generation.Model)
	assert.Equal(t, types.StyleSERPInformed, cfg.Generation.PromptStyle)
	assert.Equal(t, 12, cfg.Generation.MaxSections)
	assert.Nil(t, cfg.Generation.Temperature)

	assert.Equal(t, 10, cfg.SearchConsole.RowLimit)
	assert.Equal(t, 7, cfg.SearchConsole.LookbackDays)
	assert.False(t, cfg.SearchConsole.Enabled())

	assert.Equal(t, "archive", cfg.Archive.Dir)
	assert.Equal(t, 3*time.Minute, cfg.Server.ActionTimeout)
}

func TestLoadConfigCredentialPrecedence(t *testing.T) {
	resetConfig(t)
	loadedSecrets = secrets.Set{
		secrets.SERPAPIKey:   "from-file",
		secrets.OpenAIAPIKey: "sk-file",
	}
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.SERP.APIKey)
	assert.Equal(t, "sk-env", cfg.Generation.APIKey, "environment wins over secret files")
}

func TestLoadConfigTemperatureAndStyle(t *testing.T) {
	resetConfig(t)
	viper.Set("generation.temperature", 0.3)
	viper.Set("generation.prompt_style", "keyword-only")

	cfg, err := loadConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg.Generation.Temperature)
	assert.InDelta(t, 0.3, *cfg.Generation.Temperature, 1e-9)
	assert.Equal(t, types.StyleKeywordOnly, cfg.Generation.PromptStyle)

	viper.Set("generation.prompt_style", "freeform")
	_, err = loadConfig()
	assert.ErrorContains(t, err, "unknown prompt style")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := newLoggerTo(&buf, "warn", "json")
	require.NoError(t, err)
	log.Info("hidden")
	log.Warn("shown", "keyword", "annuity")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"keyword":"annuity"`)

	_, err = newLoggerTo(&buf, "loud", "text")
	assert.Error(t, err)
	_, err = newLoggerTo(&buf, "info", "xml")
	assert.ErrorContains(t, err, "invalid log format")
}

func TestBuildPipelineWithoutCredentials(t *testing.T) {
	resetConfig(t)
	cfg, err := loadConfig()
	require.NoError(t, err)

	p, console, err := buildPipeline(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, console)

	s := p.NewSession("annuity")
	err = p.FetchSERP(context.Background(), s, "")
	assert.Equal(t, types.FailureUnknown, types.KindOf(err))
	assert.ErrorContains(t, err, "search service is not configured")
	assert.ErrorContains(t, err, "API key")

	err = p.GenerateOutline(context.Background(), s, "")
	assert.Equal(t, types.FailureUnknown, types.KindOf(err))
	assert.ErrorContains(t, err, "completion service is not configured")
}

func TestBuildPipelineDryRun(t *testing.T) {
	resetConfig(t)
	viper.Set("dry_run", true)
	cfg, err := loadConfig()
	require.NoError(t, err)

	p, _, err := buildPipeline(context.Background(), cfg)
	require.NoError(t, err)

	s := p.NewSession("required minimum distribution")
	require.NoError(t, p.GenerateOutline(context.Background(), s, ""))
	assert.Contains(t, s.Outline.Text, "# Dry run")
	assert.Contains(t, s.Outline.Text, "required minimum distribution")
}

func TestWriteArticle(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeArticle(&buf, "# Annuity\n\nA contract.", false))
	assert.Equal(t, "# Annuity\n\nA contract.\n", buf.String())

	buf.Reset()
	require.NoError(t, writeArticle(&buf, "# Annuity\n\nA contract.", true))
	assert.Contains(t, buf.String(), "<h1>Annuity</h1>")
	assert.Contains(t, buf.String(), "<p>A contract.</p>")
}

func TestFormatEntries(t *testing.T) {
	var buf bytes.Buffer
	formatEntries(nil, &buf)
	assert.Contains(t, buf.String(), "No archived articles.")

	buf.Reset()
	formatEntries([]archive.Entry{{
		ID:        "a1",
		Keyword:   "roth ira",
		Title:     "Roth IRA",
		UpdatedAt: time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC),
	}}, &buf)
	out := buf.String()
	assert.Contains(t, out, "KEYWORD")
	assert.Contains(t, out, "roth ira")
	assert.Contains(t, out, "2026-04-02 09:30")
}

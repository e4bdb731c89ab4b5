package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	assert.Equal(t, "0.0.0.0:8787", cfg.GetString("server.listen_address"))
	assert.Equal(t, []string{"*"}, cfg.GetStringSlice("server.cors_origins"))
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.GetString("groq.base_url"))
	assert.Equal(t, "compound-beta", cfg.GetString("groq.compound_model"))
	assert.Equal(t, "openai/gpt-oss-20b", cfg.GetString("groq.browser_model"))
	assert.Equal(t, "openai/gpt-oss-120b", cfg.GetString("groq.judge_model"))
	assert.InDelta(t, 0.2, cfg.GetFloat64("groq.temperature"), 1e-9)
	assert.Equal(t, 8, cfg.GetInt("jobs.concurrency"))
	assert.Equal(t, "memory", cfg.GetString("cache.type"))
	assert.True(t, cfg.GetBool("cache.enabled"))
}

func TestOverridesLayerOnDefaults(t *testing.T) {
	v := NewEmptyViper()
	v.Set("groq.api_key", "cli-key")
	v.Set("check.allowlist", []string{"@trusted.org"})
	cfg := NewFromViper(v)

	assert.Equal(t, "cli-key", cfg.GetString("groq.api_key"))
	assert.Equal(t, []string{"@trusted.org"}, cfg.GetStringSlice("check.allowlist"))
	// Untouched keys keep their defaults.
	assert.Equal(t, "compound-beta", cfg.GetString("groq.compound_model"))
	assert.Same(t, v, cfg.GetViper())
}

func TestGetDuration(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	ttl, err := cfg.GetDuration("cache.ttl")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, ttl)

	v := NewEmptyViper()
	v.Set("cache.ttl", "soon")
	_, err = NewFromViper(v).GetDuration("cache.ttl")
	assert.Error(t, err)
}

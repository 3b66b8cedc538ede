package main

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viperFromYAML(t *testing.T, doc string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(doc)))
	return v
}

func TestLoadAppConfig_Defaults(t *testing.T) {
	cfg, err := loadAppConfig(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 32000, cfg.Agent.MaxContextLength)
	assert.True(t, cfg.Agent.AutoCompressContext)
	assert.Equal(t, "us-east-1", cfg.Backend.Region)
	assert.Equal(t, 2, cfg.Retry.MaxRetries)
	assert.Nil(t, cfg.Tools.AllowedTools)
	assert.Empty(t, cfg.Backend.APIKey)

	_, ok := cfg.fastSettings()
	assert.False(t, ok)
}

func TestLoadAppConfig_FromFile(t *testing.T) {
	v := viperFromYAML(t, `
agent:
  max-context-length: 1000
  auto-compress-context: false
  region: eu-west-1
  profile: work
backend:
  model: main-model
  fast-model: fast-model
retry:
  max-retries: 5
  backoff-base: 500ms
tools:
  allowed-tools: ["read_*", "list_dir"]
  execution-timeout: 5s
profiles:
  work:
    api-key: work-key
`)
	cfg, err := loadAppConfig(v)
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Agent.MaxContextLength)
	assert.False(t, cfg.Agent.AutoCompressContext)
	assert.True(t, cfg.Agent.UseFastModelForContext)
	assert.Equal(t, "eu-west-1", cfg.Backend.Region)
	assert.Equal(t, "main-model", cfg.Backend.Model)
	assert.Equal(t, "work-key", cfg.Backend.APIKey)
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.BackoffBase)
	assert.Equal(t, []string{"read_*", "list_dir"}, cfg.Tools.AllowedTools)
	assert.Equal(t, 5*time.Second, cfg.Tools.ExecutionTimeout)

	fast, ok := cfg.fastSettings()
	require.True(t, ok)
	assert.Equal(t, "fast-model", fast.Model)
	assert.Equal(t, "work-key", fast.APIKey)
	assert.Equal(t, "main-model", cfg.Backend.Model)
}

func TestLoadAppConfig_APIKeyFallback(t *testing.T) {
	v := viperFromYAML(t, `
api-key: default-key
profiles:
  empty: {other: 1}
`)
	cfg, err := loadAppConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "default-key", cfg.Backend.APIKey)

	v.Set("agent.profile", "empty")
	cfg, err = loadAppConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "default-key", cfg.Backend.APIKey)

	v.Set("agent.profile", "missing")
	_, err = loadAppConfig(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown profile "missing"`)
}

func TestLoadAppConfig_Invalid(t *testing.T) {
	v := viperFromYAML(t, `
agent:
  max-context-length: 0
`)
	_, err := loadAppConfig(v)
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	l, err := parseLevel("")
	require.NoError(t, err)
	assert.Equal(t, "warn", l.String())

	l, err = parseLevel("trace")
	require.NoError(t, err)
	assert.Equal(t, "trace", l.String())

	_, err = parseLevel("loud")
	require.Error(t, err)
}

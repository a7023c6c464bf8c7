package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikibuilder/research"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsWithMockProvider(t *testing.T) {
	t.Setenv("WIKIBUILDER_LLM_PROVIDER", "mock")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, research.MaxSearches, cfg.Research.MaxSearches)
	assert.Equal(t, 5*time.Minute, cfg.Server.JobTimeout)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: openai
  model: gpt-4o-mini
  api_key: from-file
research:
  max_searches: 2
  enabled: false
server:
  addr: ":9000"
  job_timeout: 90s
wiki:
  strict_format: true
`)
	t.Setenv("WIKIBUILDER_SERVER_ADDR", ":9100")
	t.Setenv("WIKIBUILDER_SERVER_MAX_CONCURRENT_JOBS", "8")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "from-file", cfg.LLM.APIKey)
	assert.Equal(t, 2, cfg.Research.MaxSearches)
	assert.False(t, cfg.Research.Enabled)
	assert.True(t, cfg.Wiki.StrictFormat)
	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, 8, cfg.Server.MaxConcurrentJobs)
	assert.Equal(t, 90*time.Second, cfg.Server.JobTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadClampsMaxSearches(t *testing.T) {
	t.Setenv("WIKIBUILDER_LLM_PROVIDER", "mock")
	t.Setenv("WIKIBUILDER_RESEARCH_MAX_SEARCHES", "12")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, research.MaxSearchesLimit, cfg.Research.MaxSearches)
}

func TestLoadAPIKeyFallback(t *testing.T) {
	t.Setenv("WIKIBUILDER_LLM_PROVIDER", "openai")
	t.Setenv("WIKIBUILDER_LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.LLM.APIKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to stat config file")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKey = ""
	t.Setenv("OPENAI_API_KEY", "")
	assert.ErrorContains(t, cfg.Validate(), "llm.api_key is required")

	cfg.LLM.Provider = "deepseek"
	cfg.LLM.APIKey = "k"
	assert.ErrorContains(t, cfg.Validate(), "base_url")

	cfg.LLM.Provider = "llama"
	assert.ErrorContains(t, cfg.Validate(), "not supported")

	cfg = Default()
	cfg.LLM.Provider = "mock"
	cfg.Server.MaxConcurrentJobs = 0
	assert.ErrorContains(t, cfg.Validate(), "max_concurrent_jobs")
}

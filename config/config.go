// Package config loads wikibuilder settings.
//
// Precedence, highest first:
//  1. WIKIBUILDER_* environment variables (WIKIBUILDER_LLM_API_KEY -> llm.api_key)
//  2. the YAML config file
//  3. defaults from Default
//
// A .env file in the working directory is loaded into the environment first.
// OPENAI_API_KEY and GEMINI_API_KEY fill llm.api_key when it is still empty.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"wikibuilder/research"
)

const (
	envPrefix         = "WIKIBUILDER_"
	maxConfigFileSize = 1024 * 1024
)

type Config struct {
	LLM      LLMConfig      `koanf:"llm"`
	Research ResearchConfig `koanf:"research"`
	Wiki     WikiConfig     `koanf:"wiki"`
	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
}

type LLMConfig struct {
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
	APIKey   string `koanf:"api_key"`
	BaseURL  string `koanf:"base_url"`
}

type ResearchConfig struct {
	Enabled           bool          `koanf:"enabled"`
	MaxSearches       int           `koanf:"max_searches"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Timeout           time.Duration `koanf:"timeout"`
	UserAgent         string        `koanf:"user_agent"`
	Endpoint          string        `koanf:"endpoint"`
	ExcerptChars      int           `koanf:"excerpt_chars"`
	Thumbnails        bool          `koanf:"thumbnails"`
}

type WikiConfig struct {
	StrictFormat bool `koanf:"strict_format"`
}

type ServerConfig struct {
	Addr              string        `koanf:"addr"`
	MaxConcurrentJobs int           `koanf:"max_concurrent_jobs"`
	JobTimeout        time.Duration `koanf:"job_timeout"`
	AuditTimeout      time.Duration `koanf:"audit_timeout"`
	JobRetention      time.Duration `koanf:"job_retention"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o",
		},
		Research: ResearchConfig{
			Enabled:           true,
			MaxSearches:       research.MaxSearches,
			RequestsPerSecond: 1,
			Timeout:           15 * time.Second,
			UserAgent:         research.DefaultUserAgent,
			Endpoint:          research.DefaultSearchEndpoint,
			ExcerptChars:      2000,
			Thumbnails:        true,
		},
		Server: ServerConfig{
			Addr:              ":8080",
			MaxConcurrentJobs: 4,
			JobTimeout:        5 * time.Minute,
			AuditTimeout:      60 * time.Second,
			JobRetention:      time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads .env, the optional YAML file at path and the environment.
// An empty path skips the file; a non-empty path must exist.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// WIKIBUILDER_SERVER_MAX_CONCURRENT_JOBS -> server.max_concurrent_jobs
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		section, field, ok := strings.Cut(key, "_")
		if !ok {
			return key
		}
		return section + "." + field
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyKeyFallback()
	cfg.Research.MaxSearches = research.ClampSearches(cfg.Research.MaxSearches)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}
	return os.ReadFile(path)
}

func (c *Config) applyKeyFallback() {
	if c.LLM.APIKey != "" {
		return
	}
	switch c.LLM.Provider {
	case "openai":
		c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	case "gemini":
		c.LLM.APIKey = firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY"))
	case "deepseek":
		c.LLM.APIKey = os.Getenv("DEEPSEEK_API_KEY")
	}
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error
	switch c.LLM.Provider {
	case "mock":
	case "openai", "gemini", "deepseek":
		if c.LLM.APIKey == "" {
			errs = append(errs, fmt.Errorf("llm.api_key is required for provider %s", c.LLM.Provider))
		}
		if c.LLM.Model == "" {
			errs = append(errs, errors.New("llm.model is required"))
		}
		if c.LLM.Provider == "deepseek" && c.LLM.BaseURL == "" {
			errs = append(errs, errors.New("llm.base_url is required for provider deepseek"))
		}
	default:
		errs = append(errs, fmt.Errorf("llm provider %q not supported", c.LLM.Provider))
	}
	if c.Server.MaxConcurrentJobs <= 0 {
		errs = append(errs, errors.New("server.max_concurrent_jobs must be positive"))
	}
	if c.Server.JobTimeout <= 0 {
		errs = append(errs, errors.New("server.job_timeout must be positive"))
	}
	return errors.Join(errs...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

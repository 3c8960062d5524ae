package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "PMDA_PIPELINE_CONFIG"
	storePathEnv      = "PMDA_STORE_PATH"
	deepSeekAPIKeyEnv = "DEEPSEEK_API_KEY"
	deepSeekModelEnv  = "DEEPSEEK_MODEL"
	deepSeekEndpoint  = "DEEPSEEK_ENDPOINT"
)

// Config holds high-level settings required across the application.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Scraping  ScrapingConfig  `yaml:"scraping"`
	Sources   SourcesConfig   `yaml:"sources"`
	DeepSeek  DeepSeekConfig  `yaml:"deepseek"`
	Logging   LoggingConfig   `yaml:"logging"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// StoreConfig describes the embedded table store location.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ScrapingConfig bounds outbound HTTP traffic to the source sites.
type ScrapingConfig struct {
	RequestTimeoutSeconds int     `yaml:"requestTimeoutSeconds"`
	RateLimitDelaySeconds float64 `yaml:"rateLimitDelaySeconds"`
	UserAgent             string  `yaml:"userAgent"`
}

// RequestTimeout resolves the per-request timeout (default 30s).
func (s ScrapingConfig) RequestTimeout() time.Duration {
	if s.RequestTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// RateLimitDelay resolves the mandatory delay between requests (default 1s).
func (s ScrapingConfig) RateLimitDelay() time.Duration {
	if s.RateLimitDelaySeconds <= 0 {
		return time.Second
	}
	return time.Duration(s.RateLimitDelaySeconds * float64(time.Second))
}

// SourcesConfig carries the upstream document URLs.
type SourcesConfig struct {
	ApprovalsURL string `yaml:"approvalsUrl"`
	JaderURL     string `yaml:"jaderUrl"`
	JanURL       string `yaml:"janUrl"`
}

// DeepSeekConfig defines how to contact the translation fallback API. An
// empty APIKey disables the fallback path entirely.
type DeepSeekConfig struct {
	Endpoint              string  `yaml:"endpoint"`
	Model                 string  `yaml:"model"`
	APIKey                string  `yaml:"apiKey"`
	RequestTimeoutSeconds int     `yaml:"requestTimeoutSeconds"`
	MinDelaySeconds       float64 `yaml:"minDelaySeconds"`
	MaxConcurrent         int     `yaml:"maxConcurrent"`
}

// RequestTimeout resolves the per-call timeout (default 30s).
func (d DeepSeekConfig) RequestTimeout() time.Duration {
	if d.RequestTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(d.RequestTimeoutSeconds) * time.Second
}

// MinDelay resolves the mandatory delay between translation calls.
func (d DeepSeekConfig) MinDelay() time.Duration {
	if d.MinDelaySeconds <= 0 {
		return 0
	}
	return time.Duration(d.MinDelaySeconds * float64(time.Second))
}

// LoggingConfig selects verbosity and the optional structured file sink.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	JSONPath string `yaml:"jsonPath"`
}

// SchedulerConfig defines the periodic-refresh cadence for daemon mode.
type SchedulerConfig struct {
	RefreshIntervalHours int `yaml:"refreshIntervalHours"`
}

// Interval resolves the refresh interval (default 24h).
func (s SchedulerConfig) Interval() time.Duration {
	if s.RefreshIntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.RefreshIntervalHours) * time.Hour
}

// Load reads YAML configuration (if present) and applies environment
// overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(storePathEnv); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv(deepSeekAPIKeyEnv); v != "" {
		c.DeepSeek.APIKey = v
	}
	if v := os.Getenv(deepSeekModelEnv); v != "" {
		c.DeepSeek.Model = v
	}
	if v := os.Getenv(deepSeekEndpoint); v != "" {
		c.DeepSeek.Endpoint = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Store.Path != "" {
		base.Store = override.Store
	}

	if override.Scraping.RequestTimeoutSeconds > 0 {
		base.Scraping.RequestTimeoutSeconds = override.Scraping.RequestTimeoutSeconds
	}
	if override.Scraping.RateLimitDelaySeconds > 0 {
		base.Scraping.RateLimitDelaySeconds = override.Scraping.RateLimitDelaySeconds
	}
	if override.Scraping.UserAgent != "" {
		base.Scraping.UserAgent = override.Scraping.UserAgent
	}

	if override.Sources.ApprovalsURL != "" {
		base.Sources.ApprovalsURL = override.Sources.ApprovalsURL
	}
	if override.Sources.JaderURL != "" {
		base.Sources.JaderURL = override.Sources.JaderURL
	}
	if override.Sources.JanURL != "" {
		base.Sources.JanURL = override.Sources.JanURL
	}

	if override.DeepSeek.Endpoint != "" {
		base.DeepSeek.Endpoint = override.DeepSeek.Endpoint
	}
	if override.DeepSeek.Model != "" {
		base.DeepSeek.Model = override.DeepSeek.Model
	}
	if override.DeepSeek.APIKey != "" {
		base.DeepSeek.APIKey = override.DeepSeek.APIKey
	}
	if override.DeepSeek.RequestTimeoutSeconds > 0 {
		base.DeepSeek.RequestTimeoutSeconds = override.DeepSeek.RequestTimeoutSeconds
	}
	if override.DeepSeek.MinDelaySeconds > 0 {
		base.DeepSeek.MinDelaySeconds = override.DeepSeek.MinDelaySeconds
	}
	if override.DeepSeek.MaxConcurrent > 0 {
		base.DeepSeek.MaxConcurrent = override.DeepSeek.MaxConcurrent
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.JSONPath != "" {
		base.Logging.JSONPath = override.Logging.JSONPath
	}

	if override.Scheduler.RefreshIntervalHours > 0 {
		base.Scheduler.RefreshIntervalHours = override.Scheduler.RefreshIntervalHours
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Store: StoreConfig{Path: "pmda.db"},
		Scraping: ScrapingConfig{
			RequestTimeoutSeconds: 30,
			RateLimitDelaySeconds: 1.0,
			UserAgent:             "PmdaPipeline/1.0",
		},
		Sources: SourcesConfig{
			ApprovalsURL: "https://www.pmda.go.jp/review-services/drug-reviews/review-information/p-drugs/0001.html",
			JaderURL:     "https://www.pmda.go.jp/safety/info-services/drugs/adr-info/suspected-adr/0008.html",
			JanURL:       "https://www.nihs.go.jp/drug/jan_data_e.html",
		},
		DeepSeek: DeepSeekConfig{
			Endpoint:              "https://api.deepseek.com/chat/completions",
			Model:                 "deepseek-chat",
			APIKey:                "",
			RequestTimeoutSeconds: 30,
			MinDelaySeconds:       0,
			MaxConcurrent:         4,
		},
		Logging:   LoggingConfig{Level: "info", JSONPath: ""},
		Scheduler: SchedulerConfig{RefreshIntervalHours: 24},
	}
}

// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev     bool
	Version string
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"` // whole-request budget applied by middleware
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests"` // per client per window; 0 disables
	Window   time.Duration `yaml:"window"`
}

type DatabaseConfig struct {
	URL           string `yaml:"url"`
	MaxConns      int32  `yaml:"max_conns"`
	EncryptionKey string `yaml:"encryption_key"` // optional; seals job items at rest
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type BackendConfig struct {
	Provider        string        `yaml:"provider"` // openai | gemini | lexicon
	Fallback        string        `yaml:"fallback"` // optional secondary provider
	OpenAIKey       string        `yaml:"openai_key"`
	OpenAIBaseURL   string        `yaml:"openai_base_url"`
	GeminiKey       string        `yaml:"gemini_key"`
	GeminiURL       string        `yaml:"gemini_url"`
	Model           string        `yaml:"model"`
	GeminiModel     string        `yaml:"gemini_model"`
	MaxInputTokens  int           `yaml:"max_input_tokens"`
	ConcurrentLimit int           `yaml:"concurrent_limit"` // max concurrent backend calls
	RetryDelay      time.Duration `yaml:"retry_delay"`
}

type CacheConfig struct {
	TTL            time.Duration `yaml:"ttl"`
	MaxTTL         time.Duration `yaml:"max_ttl"`
	ComputeTimeout time.Duration `yaml:"compute_timeout"`
	MarkerTTL      time.Duration `yaml:"marker_ttl"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	SweepInterval  time.Duration `yaml:"sweep_interval"` // memory store only
}

type SyncConfig struct {
	ComputeDeadline time.Duration `yaml:"compute_deadline"`
	MaxTextLength   int           `yaml:"max_text_length"`
}

type JobsConfig struct {
	Workers         int           `yaml:"workers"`
	ItemConcurrency int           `yaml:"item_concurrency"`
	MaxItems        int           `yaml:"max_items"`
	MaxTextLength   int           `yaml:"max_text_length"`
	SweepInterval   time.Duration `yaml:"sweep_interval"`
	SubmittedGrace  time.Duration `yaml:"submitted_grace"`
	ProcessingLease time.Duration `yaml:"processing_lease"` // takeover of PROCESSING jobs with no recent write
}

type StoreConfig struct {
	Cache string `yaml:"cache"` // redis | memory
	Jobs  string `yaml:"jobs"`  // postgres | memory
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Backend   BackendConfig   `yaml:"backend"`
	Cache     CacheConfig     `yaml:"cache"`
	Sync      SyncConfig      `yaml:"sync"`
	Jobs      JobsConfig      `yaml:"jobs"`
	Store     StoreConfig     `yaml:"store"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

// Parse decodes YAML, applies defaults and validates.
func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	cfg.HTTP.ReadTimeout = orDuration(cfg.HTTP.ReadTimeout, 10*time.Second)
	cfg.HTTP.WriteTimeout = orDuration(cfg.HTTP.WriteTimeout, 30*time.Second)
	cfg.HTTP.RequestTimeout = orDuration(cfg.HTTP.RequestTimeout, 30*time.Second)
	cfg.RateLimit.Window = orDuration(cfg.RateLimit.Window, time.Minute)
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}

	cfg.Backend.Provider = strings.ToLower(strings.TrimSpace(cfg.Backend.Provider))
	cfg.Backend.Fallback = strings.ToLower(strings.TrimSpace(cfg.Backend.Fallback))
	if cfg.Backend.Provider == "" {
		cfg.Backend.Provider = "lexicon"
	}
	if cfg.Backend.Model == "" {
		cfg.Backend.Model = "gpt-4o-mini"
	}
	if cfg.Backend.GeminiModel == "" {
		cfg.Backend.GeminiModel = "gemini-2.0-flash"
	}
	if cfg.Backend.MaxInputTokens <= 0 {
		cfg.Backend.MaxInputTokens = 4096
	}
	if cfg.Backend.ConcurrentLimit <= 0 {
		cfg.Backend.ConcurrentLimit = 16
	}
	cfg.Backend.RetryDelay = orDuration(cfg.Backend.RetryDelay, 300*time.Millisecond)

	cfg.Cache.TTL = orDuration(cfg.Cache.TTL, 24*time.Hour)
	cfg.Cache.MaxTTL = orDuration(cfg.Cache.MaxTTL, 7*24*time.Hour)
	if cfg.Cache.TTL > cfg.Cache.MaxTTL {
		cfg.Cache.TTL = cfg.Cache.MaxTTL
	}
	cfg.Cache.ComputeTimeout = orDuration(cfg.Cache.ComputeTimeout, 30*time.Second)
	cfg.Cache.MarkerTTL = orDuration(cfg.Cache.MarkerTTL, cfg.Cache.ComputeTimeout+5*time.Second)
	cfg.Cache.PollInterval = orDuration(cfg.Cache.PollInterval, 50*time.Millisecond)
	cfg.Cache.SweepInterval = orDuration(cfg.Cache.SweepInterval, 10*time.Minute)

	cfg.Sync.ComputeDeadline = orDuration(cfg.Sync.ComputeDeadline, 800*time.Millisecond)
	if cfg.Sync.MaxTextLength <= 0 {
		cfg.Sync.MaxTextLength = 5000
	}

	if cfg.Jobs.Workers <= 0 {
		cfg.Jobs.Workers = 4
	}
	if cfg.Jobs.ItemConcurrency <= 0 {
		cfg.Jobs.ItemConcurrency = 8
	}
	if cfg.Jobs.MaxItems <= 0 {
		cfg.Jobs.MaxItems = 100
	}
	if cfg.Jobs.MaxTextLength <= 0 {
		cfg.Jobs.MaxTextLength = 1 << 20
	}
	cfg.Jobs.SweepInterval = orDuration(cfg.Jobs.SweepInterval, 5*time.Second)
	cfg.Jobs.SubmittedGrace = orDuration(cfg.Jobs.SubmittedGrace, 10*time.Second)
	cfg.Jobs.ProcessingLease = orDuration(cfg.Jobs.ProcessingLease, 2*time.Minute)
	if floor := cfg.Cache.ComputeTimeout + cfg.Backend.RetryDelay; cfg.Jobs.ProcessingLease <= floor {
		cfg.Jobs.ProcessingLease = 2 * floor
	}

	if cfg.Store.Cache == "" {
		cfg.Store.Cache = "redis"
	}
	if cfg.Store.Jobs == "" {
		cfg.Store.Jobs = "postgres"
	}
}

func validate(cfg *Config) error {
	switch cfg.Store.Cache {
	case "redis":
		if cfg.Redis.URL == "" {
			return errors.New("redis.url is required")
		}
	case "memory":
	default:
		return fmt.Errorf("store.cache: unknown driver %q", cfg.Store.Cache)
	}
	switch cfg.Store.Jobs {
	case "postgres":
		if cfg.Database.URL == "" {
			return errors.New("database.url is required")
		}
		if k := len(cfg.Database.EncryptionKey); k != 0 && k != 16 && k != 24 && k != 32 {
			return errors.New("database.encryption_key must be 16, 24, or 32 bytes")
		}
	case "memory":
	default:
		return fmt.Errorf("store.jobs: unknown driver %q", cfg.Store.Jobs)
	}
	for _, p := range []string{cfg.Backend.Provider, cfg.Backend.Fallback} {
		switch p {
		case "":
		case "openai":
			if cfg.Backend.OpenAIKey == "" {
				return errors.New("backend.openai_key is required for provider openai")
			}
		case "gemini":
			if cfg.Backend.GeminiKey == "" {
				return errors.New("backend.gemini_key is required for provider gemini")
			}
		case "lexicon":
		default:
			return fmt.Errorf("backend: unknown provider %q", p)
		}
	}
	if cfg.Auth.JWTSecret == "" && !cfg.Runtime.Dev {
		return errors.New("auth.jwt_secret is required outside dev mode")
	}
	return nil
}

func orDuration(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

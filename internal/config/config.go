// Package config loads service settings from defaults, an optional TOML
// file and PCADVISOR_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override. Sections are separated by
// a double underscore: PCADVISOR_GEMINI__API_KEY sets gemini.api_key.
const EnvPrefix = "PCADVISOR_"

// DefaultPaths are tried in order when no config file is given.
var DefaultPaths = []string{"./pcadvisor.toml", "$HOME/.pcadvisor.toml"}

type HTTP struct {
	Addr         string  `koanf:"addr"`
	AIRatePerSec float64 `koanf:"ai_rate_per_sec"`
	AIBurst      int     `koanf:"ai_burst"`
}

type Database struct {
	DSN string `koanf:"dsn"`
}

type Redis struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type Kafka struct {
	Brokers string `koanf:"brokers"` // comma separated
	GroupID string `koanf:"group_id"`
}

// BrokerList splits Brokers.
func (k Kafka) BrokerList() []string {
	var out []string
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

type Gemini struct {
	APIKey         string        `koanf:"api_key"`
	BaseURL        string        `koanf:"base_url"`
	Model          string        `koanf:"model"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	Timeout        time.Duration `koanf:"timeout"`
	RatePerSec     float64       `koanf:"rate_per_sec"`
}

type Reviews struct {
	Model     string `koanf:"model"`
	Schedule  string `koanf:"schedule"`
	BatchSize int    `koanf:"batch_size"`
}

type Catalog struct {
	JSONLDir      string `koanf:"jsonl_dir"`
	DigestCache   int    `koanf:"digest_cache"`
	RejectionsDir string `koanf:"rejections_dir"`
}

type Log struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

// Config is the full service configuration.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Redis    Redis    `koanf:"redis"`
	Kafka    Kafka    `koanf:"kafka"`
	Gemini   Gemini   `koanf:"gemini"`
	Reviews  Reviews  `koanf:"reviews"`
	Catalog  Catalog  `koanf:"catalog"`
	Log      Log      `koanf:"log"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"http.addr":              ":8080",
		"http.ai_rate_per_sec":   5.0,
		"http.ai_burst":          10,
		"redis.addr":             "localhost:6379",
		"kafka.group_id":         "pcadvisor",
		"gemini.base_url":        "https://generativelanguage.googleapis.com",
		"gemini.model":           "gemini-2.5-flash",
		"gemini.connect_timeout": "30s",
		"gemini.timeout":         "60s",
		"gemini.rate_per_sec":    0.0,
		"reviews.model":          "gemini-2.5-flash",
		"reviews.schedule":       "@every 1h",
		"reviews.batch_size":     20,
		"catalog.digest_cache":   4096,
		"catalog.rejections_dir": "./data/rejections",
		"log.level":              "info",
		"log.pretty":             false,
	}
}

// Load builds the configuration. A .env file in the working directory is
// applied to the process environment first when present. An explicit path
// must exist; otherwise the first readable default path is used, if any.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config %s: %w", path, err)
		}
	} else {
		for _, p := range DefaultPaths {
			p = os.ExpandEnv(p)
			if _, err := os.Stat(p); err != nil {
				continue
			}
			if err := k.Load(file.Provider(p), toml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config %s: %w", p, err)
			}
			break
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps PCADVISOR_GEMINI__API_KEY to gemini.api_key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if c.HTTP.AIRatePerSec < 0 || c.Gemini.RatePerSec < 0 {
		errs = append(errs, errors.New("rates must not be negative"))
	}
	if c.Gemini.Timeout <= 0 || c.Gemini.ConnectTimeout <= 0 {
		errs = append(errs, errors.New("gemini timeouts must be positive"))
	}
	if c.Reviews.BatchSize <= 0 {
		errs = append(errs, errors.New("reviews.batch_size must be positive"))
	}
	if c.Catalog.DigestCache <= 0 {
		errs = append(errs, errors.New("catalog.digest_cache must be positive"))
	}
	return errors.Join(errs...)
}

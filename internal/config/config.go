package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/form-scanner/internal/logger"
)

// Default configuration values.
const (
	DefaultServiceName      = "form-scanner"
	DefaultPort             = 8095
	DefaultProbeTimeout     = 3 * time.Second
	DefaultFetchTimeout     = 5 * time.Second
	DefaultMaxHTMLBytes     = 5 * 1024 * 1024
	DefaultMaxNeighborPages = 3
	DefaultDebounce         = 500 * time.Millisecond
	DefaultNeighborRPS      = 2.0
	DefaultUserAgent        = "NorthCloud-FormScanner/1.0"
	DefaultMaxRedirects     = 5
	DefaultStoreBackend     = StoreBackendMemory
	DefaultStoreTTL         = 7 * 24 * time.Hour
	DefaultRedisAddress     = "localhost:6379"
)

// Store backends.
const (
	StoreBackendMemory = "memory"
	StoreBackendRedis  = "redis"
)

// Config is the full form-scanner configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Logging logger.Config `yaml:"logging"`
	Scanner ScannerConfig `yaml:"scanner"`
	Fetcher FetcherConfig `yaml:"fetcher"`
	Store   StoreConfig   `yaml:"store"`
}

// ServiceConfig holds HTTP service settings.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Port    int    `env:"FORM_SCANNER_PORT" yaml:"port"`
	Debug   bool   `env:"APP_DEBUG" yaml:"debug"`
}

// ScannerConfig tunes extraction, validation and deep scanning.
type ScannerConfig struct {
	ProbeTimeout     time.Duration `env:"SCANNER_PROBE_TIMEOUT" yaml:"probe_timeout"`
	FetchTimeout     time.Duration `env:"SCANNER_FETCH_TIMEOUT" yaml:"fetch_timeout"`
	MaxHTMLBytes     int64         `env:"SCANNER_MAX_HTML_BYTES" yaml:"max_html_bytes"`
	MaxNeighborPages int           `env:"SCANNER_MAX_NEIGHBOR_PAGES" yaml:"max_neighbor_pages"`
	Debounce         time.Duration `env:"SCANNER_DEBOUNCE" yaml:"debounce"`
	NeighborRPS      float64       `env:"SCANNER_NEIGHBOR_RPS" yaml:"neighbor_rps"`
	UserAgent        string        `env:"SCANNER_USER_AGENT" yaml:"user_agent"`
}

// FetcherConfig controls the same-origin page fetcher.
type FetcherConfig struct {
	// AllowPrivateHosts disables the loopback/private-network gate. Tests only.
	AllowPrivateHosts bool `env:"FETCHER_ALLOW_PRIVATE_HOSTS" yaml:"allow_private_hosts"`
	RespectRobots     bool `env:"FETCHER_RESPECT_ROBOTS" yaml:"respect_robots"`
	MaxRedirects      int  `env:"FETCHER_MAX_REDIRECTS" yaml:"max_redirects"`
}

// StoreConfig selects where scan results are kept.
type StoreConfig struct {
	Backend string        `env:"STORE_BACKEND" yaml:"backend"`
	TTL     time.Duration `env:"STORE_TTL" yaml:"ttl"`
	Redis   RedisConfig   `yaml:"redis"`
}

// RedisConfig mirrors the shared redis client settings.
type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS" yaml:"address"`
	Password string `env:"REDIS_PASSWORD" yaml:"password"`
	DB       int    `env:"REDIS_DB" yaml:"db"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

func setDefaults(cfg *Config) {
	if cfg.Service.Name == "" {
		cfg.Service.Name = DefaultServiceName
	}
	if cfg.Service.Version == "" {
		cfg.Service.Version = "dev"
	}
	if cfg.Service.Port == 0 {
		cfg.Service.Port = DefaultPort
	}

	cfg.Logging.SetDefaults()
	setScannerDefaults(&cfg.Scanner)

	if cfg.Fetcher.MaxRedirects == 0 {
		cfg.Fetcher.MaxRedirects = DefaultMaxRedirects
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = DefaultStoreBackend
	}
	if cfg.Store.TTL == 0 {
		cfg.Store.TTL = DefaultStoreTTL
	}
	if cfg.Store.Redis.Address == "" {
		cfg.Store.Redis.Address = DefaultRedisAddress
	}
}

func setScannerDefaults(s *ScannerConfig) {
	if s.ProbeTimeout == 0 {
		s.ProbeTimeout = DefaultProbeTimeout
	}
	if s.FetchTimeout == 0 {
		s.FetchTimeout = DefaultFetchTimeout
	}
	if s.MaxHTMLBytes == 0 {
		s.MaxHTMLBytes = DefaultMaxHTMLBytes
	}
	if s.MaxNeighborPages == 0 {
		s.MaxNeighborPages = DefaultMaxNeighborPages
	}
	if s.Debounce == 0 {
		s.Debounce = DefaultDebounce
	}
	if s.NeighborRPS == 0 {
		s.NeighborRPS = DefaultNeighborRPS
	}
	if s.UserAgent == "" {
		s.UserAgent = DefaultUserAgent
	}
}

// Validate checks the configuration for values the scanner cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Service.Port <= 0 || c.Service.Port > 65535 {
		errs = append(errs, fmt.Errorf("service.port %d out of range", c.Service.Port))
	}
	if c.Scanner.ProbeTimeout < 0 || c.Scanner.FetchTimeout < 0 {
		errs = append(errs, errors.New("scanner timeouts must not be negative"))
	}
	if c.Scanner.MaxHTMLBytes < 0 {
		errs = append(errs, errors.New("scanner.max_html_bytes must not be negative"))
	}
	if c.Scanner.MaxNeighborPages < 0 {
		errs = append(errs, errors.New("scanner.max_neighbor_pages must not be negative"))
	}
	if c.Scanner.NeighborRPS < 0 {
		errs = append(errs, errors.New("scanner.neighbor_rps must not be negative"))
	}

	switch c.Store.Backend {
	case StoreBackendMemory:
	case StoreBackendRedis:
		if c.Store.Redis.Address == "" {
			errs = append(errs, errors.New("store.redis.address is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend %q: want %q or %q",
			c.Store.Backend, StoreBackendMemory, StoreBackendRedis))
	}

	return errors.Join(errs...)
}

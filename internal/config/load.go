package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envFiles are read in order. godotenv never overwrites a variable that is
// already set, so earlier files win over later ones and the real environment
// wins over both.
var envFiles = []string{".env.local", ".env"}

// Load reads the config at path, overlays the environment, applies defaults
// and validates the result. An empty path or a missing file is not an error:
// the scanner runs on defaults alone.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := readYAML(path, cfg); err != nil {
		return nil, err
	}

	if err := overlayEnv(cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// GetConfigPath returns CONFIG_PATH if set, otherwise fallback.
func GetConfigPath(fallback string) string {
	if p, ok := os.LookupEnv("CONFIG_PATH"); ok && p != "" {
		return p
	}
	return fallback
}

// loadDotEnv honours ENV_FILE as the single file to read when it is set.
func loadDotEnv() error {
	files := envFiles
	if only := os.Getenv("ENV_FILE"); only != "" {
		files = []string{only}
	}

	for _, name := range files {
		err := godotenv.Load(name)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

func readYAML(path string, cfg *Config) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

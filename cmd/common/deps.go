// Package common provides shared setup for the form-scanner commands.
package common

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/form-scanner/internal/config"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/logger"
)

// Viper keys bound to the root command's persistent flags.
const (
	KeyConfig       = "config"
	KeyDebug        = "debug"
	KeyLogLevel     = "log_level"
	KeyStoreBackend = "store_backend"
)

const defaultConfigPath = "config.yml"

// ErrConfigRequired is returned when CommandDeps has no config.
var ErrConfigRequired = errors.New("config is required")

// CommandDeps holds the dependencies every command needs.
type CommandDeps struct {
	Config *config.Config
	Logger logger.Logger
}

// Validate ensures all required dependencies are present.
func (d CommandDeps) Validate() error {
	if d.Config == nil {
		return ErrConfigRequired
	}
	return nil
}

// NewCommandDeps loads the configuration and builds the logger. Flag values
// bound in viper take precedence over the file and environment.
func NewCommandDeps() (CommandDeps, error) {
	path := viper.GetString(KeyConfig)
	if path == "" {
		path = config.GetConfigPath(defaultConfigPath)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return CommandDeps{}, fmt.Errorf("load config: %w", err)
	}
	ApplyFlagOverrides(cfg)
	if err = cfg.Validate(); err != nil {
		return CommandDeps{}, fmt.Errorf("validate config: %w", err)
	}

	cfg.Logging.Service = cfg.Service.Name
	log, err := logger.New(cfg.Logging)
	if err != nil {
		return CommandDeps{}, fmt.Errorf("create logger: %w", err)
	}
	logger.SetDefault(log)

	return CommandDeps{Config: cfg, Logger: log}, nil
}

// ApplyFlagOverrides copies flag values set in viper onto cfg.
func ApplyFlagOverrides(cfg *config.Config) {
	if viper.GetBool(KeyDebug) {
		cfg.Service.Debug = true
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
	}
	if level := viper.GetString(KeyLogLevel); level != "" {
		cfg.Logging.Level = level
	}
	if backend := viper.GetString(KeyStoreBackend); backend != "" {
		cfg.Store.Backend = backend
	}
}

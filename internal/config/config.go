// Package config loads benchmark configuration from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/viper"
)

// Manager handles loading configuration.
type Manager struct {
	config *Config
}

// NewManager creates a config manager and loads the initial config.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	defaults := DefaultConfig()
	viper.SetDefault("remote", defaults.Remote)
	viper.SetDefault("local", defaults.Local)
	viper.SetDefault("bench", defaults.Bench)
	viper.SetDefault("report", defaults.Report)

	// Environment variables with OCRBENCH_ prefix
	viper.SetEnvPrefix("OCRBENCH")
	viper.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.ocrbench")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration.
func (cm *Manager) Get() *Config {
	return cm.config
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	pattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	return pattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

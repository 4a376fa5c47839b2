package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"envdash.dev/envdash/pkg/logger"
)

// InitConfig initializes Viper configuration. It supports reading from config
// files (config.yaml) and environment variables.
func InitConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in current directory and /etc/envdash/
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/envdash/")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Environment variables
	viper.SetEnvPrefix("ENVDASH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configNotFoundErr viper.ConfigFileNotFoundError
		if errors.As(err, &configNotFoundErr) {
			// Config file not found; rely on env vars and defaults
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// GetLogger creates a slog.Logger for a service based on configuration.
func GetLogger(service string) *slog.Logger {
	return logger.New(&logger.Config{
		Service: service,
		Level:   logger.ParseLevel(viper.GetString("log.level")),
	})
}

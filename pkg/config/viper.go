// Package config is responsible for initializing the application's configuration.
// It uses the Viper library to read settings from a config file, environment
// variables, and command-line flags, providing a unified configuration system.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// InitConfig initializes the application's configuration using Viper.
// It sets up default values, defines configuration search paths, and enables
// reading from environment variables. This function is designed to be called
// once at application startup.
func InitConfig() {
	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/docfold/")
	viper.AddConfigPath("$HOME/.docfold")

	const defaultUA = "docfold/1.0 (+https://github.com/docfold/docfold)"
	viper.SetDefault("discovery.user_agent", defaultUA)
	viper.SetDefault("discovery.include", "")
	viper.SetDefault("discovery.exclude", "")
	viper.SetDefault("discovery.max_pages", 500)
	viper.SetDefault("discovery.fetch_timeout", "15s")
	viper.SetDefault("discovery.polite_delay", "300ms")

	viper.SetDefault("render.concurrency", 4)
	viper.SetDefault("render.timeout", "45s")
	viper.SetDefault("render.artifact_dir", "_build")

	viper.SetDefault("output.keep_artifacts", false)

	viper.SetDefault("log.development", false)

	viper.SetEnvPrefix("DOCFOLD") // e.g., DOCFOLD_RENDER_CONCURRENCY=8
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; defaults, env vars, and flags cover
	// every knob. Parse errors surface later through viper itself.
	_ = viper.ReadInConfig()
}

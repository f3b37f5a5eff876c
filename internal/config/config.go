// Package config loads lineloom settings from the config file, LINELOOM_*
// environment variables and command-line flags through viper.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joshharrison/lineloom/internal/heuristic"
	"github.com/joshharrison/lineloom/internal/improve"
	"github.com/joshharrison/lineloom/internal/logging"
	"github.com/joshharrison/lineloom/internal/planner"
	"github.com/joshharrison/lineloom/internal/state"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by viper.
const EnvPrefix = "LINELOOM"

// Config is the complete lineloom configuration.
type Config struct {
	Balance BalanceConfig `mapstructure:"balance"`
	Logging LoggingConfig `mapstructure:"logging"`
	Server  ServerConfig  `mapstructure:"server"`
	Claude  ClaudeConfig  `mapstructure:"claude"`
	State   StateConfig   `mapstructure:"state"`
}

// BalanceConfig holds the default options of a balance run.
type BalanceConfig struct {
	// Beat is the cycle time. Zero means it must be given per run.
	Beat      int    `mapstructure:"beat"`
	Heuristic string `mapstructure:"heuristic"`
	TieBreak  string `mapstructure:"tie_break"`
	Improve   bool   `mapstructure:"improve"`
	MaxRounds int    `mapstructure:"max_rounds"`
}

// LoggingConfig controls the structured run log.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"` // empty logs to stderr
}

// ServerConfig controls the HTTP service started by `lineloom serve`.
type ServerConfig struct {
	Addr                string `mapstructure:"addr"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
	MaxBodyBytes        int64  `mapstructure:"max_body_bytes"` // cap on an uploaded task table
}

// ClaudeConfig controls predecessor inference and plan explanations.
type ClaudeConfig struct {
	Model          string `mapstructure:"model"`
	PromptTemplate string `mapstructure:"prompt_template"`
}

// StateConfig controls where balance runs are recorded.
type StateConfig struct {
	Dir  string `mapstructure:"dir"`
	Save bool   `mapstructure:"save"` // record every balance run
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Balance: BalanceConfig{
			Beat:      0,
			Heuristic: heuristic.NameRPW,
			TieBreak:  string(heuristic.MaxTime),
			Improve:   false,
			MaxRounds: improve.DefaultMaxRounds,
		},
		Logging: LoggingConfig{
			Level: logging.LevelWarn,
			File:  "",
		},
		Server: ServerConfig{
			Addr:                ":8080",
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 60,
			MaxBodyBytes:        10 << 20,
		},
		Claude: ClaudeConfig{
			Model:          "",
			PromptTemplate: "",
		},
		State: StateConfig{
			Dir:  state.DefaultDir,
			Save: true,
		},
	}
}

// ReadTimeout returns the read timeout as a time.Duration.
func (c *ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the write timeout as a time.Duration.
func (c *ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// PlanConfig converts the balance settings into planner options.
func (c *BalanceConfig) PlanConfig() planner.PlanConfig {
	return planner.PlanConfig{
		Beat:      c.Beat,
		Heuristic: c.Heuristic,
		TieBreak:  c.TieBreak,
		Improve:   c.Improve,
		MaxRounds: c.MaxRounds,
	}
}

// SetDefaults registers default values with viper.
func SetDefaults() {
	defaults := Default()

	// Balance defaults
	viper.SetDefault("balance.beat", defaults.Balance.Beat)
	viper.SetDefault("balance.heuristic", defaults.Balance.Heuristic)
	viper.SetDefault("balance.tie_break", defaults.Balance.TieBreak)
	viper.SetDefault("balance.improve", defaults.Balance.Improve)
	viper.SetDefault("balance.max_rounds", defaults.Balance.MaxRounds)

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.file", defaults.Logging.File)

	// Server defaults
	viper.SetDefault("server.addr", defaults.Server.Addr)
	viper.SetDefault("server.read_timeout_seconds", defaults.Server.ReadTimeoutSeconds)
	viper.SetDefault("server.write_timeout_seconds", defaults.Server.WriteTimeoutSeconds)
	viper.SetDefault("server.max_body_bytes", defaults.Server.MaxBodyBytes)

	// Claude defaults
	viper.SetDefault("claude.model", defaults.Claude.Model)
	viper.SetDefault("claude.prompt_template", defaults.Claude.PromptTemplate)

	// State defaults
	viper.SetDefault("state.dir", defaults.State.Dir)
	viper.SetDefault("state.save", defaults.State.Save)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "lineloom")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lineloom"
	}
	return filepath.Join(home, ".config", "lineloom")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete Parley configuration
type Config struct {
	Debate  DebateConfig  `mapstructure:"debate"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// DebateConfig controls debate session behavior
type DebateConfig struct {
	// TurnPauseMs is the pause between a turn's completion and the next
	// turn's start, in milliseconds. Not zero, to avoid jarring
	// back-to-back turns.
	TurnPauseMs int `mapstructure:"turn_pause_ms"`
	// MaxRounds is the number of full roster rounds before a session
	// completes.
	MaxRounds int `mapstructure:"max_rounds"`
	// MaxConsecutiveFailures is the number of consecutive failed turns
	// after which a session transitions to failed.
	MaxConsecutiveFailures int `mapstructure:"max_consecutive_failures"`
}

// SyncConfig controls dual-stream synchronization for compare mode
type SyncConfig struct {
	// IntervalMs is the synchronized flush cadence in milliseconds
	IntervalMs int `mapstructure:"interval_ms"`
	// MaxBufferChars is the per-side force-flush threshold in characters
	MaxBufferChars int `mapstructure:"max_buffer_chars"`
	// StartDelayMs is the grace period after the start gate opens before
	// the first flush, in milliseconds
	StartDelayMs int `mapstructure:"start_delay_ms"`
	// StartTimeoutMs is the maximum wait for the second stream to start
	// before proceeding with only one, in milliseconds
	StartTimeoutMs int `mapstructure:"start_timeout_ms"`
}

// LoggingConfig controls structured logging
type LoggingConfig struct {
	// Level is the minimum log level: DEBUG, INFO, WARN, ERROR
	Level string `mapstructure:"level"`
	// Dir is the directory for the debate log file (empty = stderr)
	Dir string `mapstructure:"dir"`
}

// TurnPause returns the inter-turn pause as a duration.
func (c *DebateConfig) TurnPause() time.Duration {
	return time.Duration(c.TurnPauseMs) * time.Millisecond
}

// Interval returns the flush cadence as a duration.
func (c *SyncConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// StartDelay returns the post-gate grace period as a duration.
func (c *SyncConfig) StartDelay() time.Duration {
	return time.Duration(c.StartDelayMs) * time.Millisecond
}

// StartTimeout returns the single-sided start timeout as a duration.
func (c *SyncConfig) StartTimeout() time.Duration {
	return time.Duration(c.StartTimeoutMs) * time.Millisecond
}

// Default returns a Config populated with default values
func Default() *Config {
	return &Config{
		Debate: DebateConfig{
			TurnPauseMs:            1500,
			MaxRounds:              3,
			MaxConsecutiveFailures: 3,
		},
		Sync: SyncConfig{
			IntervalMs:     80,
			MaxBufferChars: 200,
			StartDelayMs:   150,
			StartTimeoutMs: 500,
		},
		Logging: LoggingConfig{
			Level: "INFO",
			Dir:   "",
		},
	}
}

// SetDefaults registers all default values with viper.
// Call before reading the config file so defaults are available even
// without one.
func SetDefaults() {
	defaults := Default()

	// Debate defaults
	viper.SetDefault("debate.turn_pause_ms", defaults.Debate.TurnPauseMs)
	viper.SetDefault("debate.max_rounds", defaults.Debate.MaxRounds)
	viper.SetDefault("debate.max_consecutive_failures", defaults.Debate.MaxConsecutiveFailures)

	// Sync defaults
	viper.SetDefault("sync.interval_ms", defaults.Sync.IntervalMs)
	viper.SetDefault("sync.max_buffer_chars", defaults.Sync.MaxBufferChars)
	viper.SetDefault("sync.start_delay_ms", defaults.Sync.StartDelayMs)
	viper.SetDefault("sync.start_timeout_ms", defaults.Sync.StartTimeoutMs)

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
}

// Load reads the configuration from viper into a Config struct and
// validates it.
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

// ConfigDir returns the directory where the config file is expected.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "parley")
}

package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Debate.TurnPauseMs != 1500 {
		t.Errorf("Debate.TurnPauseMs = %d, want 1500", cfg.Debate.TurnPauseMs)
	}
	if cfg.Debate.MaxRounds != 3 {
		t.Errorf("Debate.MaxRounds = %d, want 3", cfg.Debate.MaxRounds)
	}
	if cfg.Debate.MaxConsecutiveFailures != 3 {
		t.Errorf("Debate.MaxConsecutiveFailures = %d, want 3", cfg.Debate.MaxConsecutiveFailures)
	}
	if cfg.Sync.IntervalMs != 80 {
		t.Errorf("Sync.IntervalMs = %d, want 80", cfg.Sync.IntervalMs)
	}
	if cfg.Sync.MaxBufferChars != 200 {
		t.Errorf("Sync.MaxBufferChars = %d, want 200", cfg.Sync.MaxBufferChars)
	}
	if cfg.Sync.StartDelayMs != 150 {
		t.Errorf("Sync.StartDelayMs = %d, want 150", cfg.Sync.StartDelayMs)
	}
	if cfg.Sync.StartTimeoutMs != 500 {
		t.Errorf("Sync.StartTimeoutMs = %d, want 500", cfg.Sync.StartTimeoutMs)
	}

	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default() config should validate cleanly, got %v", errs)
	}
}

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("Load() with no overrides = %+v, want defaults %+v", cfg, Default())
	}
}

func TestLoad_Override(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()
	viper.Set("sync.interval_ms", 40)
	viper.Set("debate.max_rounds", 5)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Sync.IntervalMs != 40 {
		t.Errorf("Sync.IntervalMs = %d, want 40", cfg.Sync.IntervalMs)
	}
	if cfg.Debate.MaxRounds != 5 {
		t.Errorf("Debate.MaxRounds = %d, want 5", cfg.Debate.MaxRounds)
	}
}

func TestLoad_InvalidConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()
	viper.Set("sync.interval_ms", 0)
	viper.Set("logging.level", "LOUD")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail for invalid config")
	}
	if !strings.Contains(err.Error(), "sync.interval_ms") {
		t.Errorf("error should mention sync.interval_ms, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "logging.level") {
		t.Errorf("error should mention logging.level, got %q", err.Error())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		field   string
		wantErr bool
	}{
		{"valid", func(*Config) {}, "", false},
		{"negative turn pause", func(c *Config) { c.Debate.TurnPauseMs = -1 }, "debate.turn_pause_ms", true},
		{"zero rounds", func(c *Config) { c.Debate.MaxRounds = 0 }, "debate.max_rounds", true},
		{"zero failure ceiling", func(c *Config) { c.Debate.MaxConsecutiveFailures = 0 }, "debate.max_consecutive_failures", true},
		{"zero buffer", func(c *Config) { c.Sync.MaxBufferChars = 0 }, "sync.max_buffer_chars", true},
		{"negative start delay", func(c *Config) { c.Sync.StartDelayMs = -10 }, "sync.start_delay_ms", true},
		{"negative start timeout", func(c *Config) { c.Sync.StartTimeoutMs = -10 }, "sync.start_timeout_ms", true},
		{"lowercase level accepted", func(c *Config) { c.Logging.Level = "debug" }, "", false},
		{"bad level", func(c *Config) { c.Logging.Level = "TRACE" }, "logging.level", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()

			if !tt.wantErr {
				if len(errs) != 0 {
					t.Errorf("Validate() = %v, want no errors", errs)
				}
				return
			}
			if len(errs) == 0 {
				t.Fatal("Validate() returned no errors, want one")
			}
			found := false
			for _, e := range errs {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() errors %v missing field %q", errs, tt.field)
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	if cfg.Debate.TurnPause().Milliseconds() != 1500 {
		t.Errorf("TurnPause() = %v, want 1.5s", cfg.Debate.TurnPause())
	}
	if cfg.Sync.Interval().Milliseconds() != 80 {
		t.Errorf("Interval() = %v, want 80ms", cfg.Sync.Interval())
	}
	if cfg.Sync.StartDelay().Milliseconds() != 150 {
		t.Errorf("StartDelay() = %v, want 150ms", cfg.Sync.StartDelay())
	}
	if cfg.Sync.StartTimeout().Milliseconds() != 500 {
		t.Errorf("StartTimeout() = %v, want 500ms", cfg.Sync.StartTimeout())
	}
}

// File: internal/config/config.go
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"wallet.module/internal/constants"
	"wallet.module/internal/errors"
)

// Privacy holds the privacy-related switches. It is constructed once at
// load time and passed down by value; nothing in the module reads
// process-wide state for these flags.
type Privacy struct {
	RedactAddresses bool `mapstructure:"redact_addresses"`
	TelemetryOptOut bool `mapstructure:"telemetry_opt_out"`
}

// RateLimit configures one token bucket.
type RateLimit struct {
	Capacity        float64 `mapstructure:"capacity"`
	RefillPerSecond float64 `mapstructure:"refill_per_second"`
}

// Config defines the structure of the configuration file.
type Config struct {
	DataDir               string               `mapstructure:"data_dir"`
	SessionTimeoutMinutes int                  `mapstructure:"session_timeout_minutes"`
	CheckIntervalSeconds  int                  `mapstructure:"check_interval_seconds"`
	CacheTTLMinutes       int                  `mapstructure:"cache_ttl_minutes"`
	ClipboardClearSeconds int                  `mapstructure:"clipboard_clear_seconds"`
	RateLimits            map[string]RateLimit `mapstructure:"rate_limits"`
	Privacy               Privacy              `mapstructure:"privacy"`
}

// SessionTimeout returns the inactivity timeout as a duration.
func (c *Config) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutMinutes) * time.Minute
}

// CheckInterval returns the auto-lock monitor tick interval.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

// CacheTTL returns the decrypted-key cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// ClipboardClear returns how long exported secrets stay on the clipboard.
func (c *Config) ClipboardClear() time.Duration {
	return time.Duration(c.ClipboardClearSeconds) * time.Second
}

// WalletConfigPath returns the path of the encrypted wallet container.
func (c *Config) WalletConfigPath() string {
	return filepath.Join(c.DataDir, constants.WalletConfigFile)
}

// RateLimitsPath returns the path of the persisted rate-limiter state.
func (c *Config) RateLimitsPath() string {
	return filepath.Join(c.DataDir, constants.RateLimitsFile)
}

// AuditLogPath returns the path of the audit log.
func (c *Config) AuditLogPath() string {
	return filepath.Join(c.DataDir, constants.AuditLogFile)
}

// DefaultDataDir resolves the per-OS config directory for the wallet.
func DefaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "." + string(filepath.Separator) + "wallet.module"
	}
	return filepath.Join(base, "wallet.module")
}

// DefaultRateLimits returns the built-in bucket configuration.
func DefaultRateLimits() map[string]RateLimit {
	return map[string]RateLimit{
		constants.OpUnlockAttempt: {Capacity: 5, RefillPerSecond: 5.0 / 60.0},
		constants.OpExportAuth:    {Capacity: 5, RefillPerSecond: 5.0 / 60.0},
		constants.OpExportKey:     {Capacity: 3, RefillPerSecond: 3.0 / 3600.0},
	}
}

// Load reads the configuration from the per-OS config directory and
// environment variables, falling back to defaults. The returned value
// is owned by the caller; there is no package-level configuration state.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("session_timeout_minutes", 15)
	v.SetDefault("check_interval_seconds", 30)
	v.SetDefault("cache_ttl_minutes", 30)
	v.SetDefault("clipboard_clear_seconds", 30)
	v.SetDefault("rate_limits", map[string]RateLimit{})
	v.SetDefault("privacy.redact_addresses", false)
	v.SetDefault("privacy.telemetry_opt_out", true)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(DefaultDataDir())
	v.AddConfigPath(".")
	v.SetEnvPrefix("WALLET")
	v.AutomaticEnv()
	_ = v.BindEnv("data_dir", "WALLET_DATA_DIR")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.NewConfigLoadError(v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.NewConfigLoadError(v.ConfigFileUsed(), err)
	}

	// Built-in buckets apply wherever the file does not override them.
	defaults := DefaultRateLimits()
	if cfg.RateLimits == nil {
		cfg.RateLimits = map[string]RateLimit{}
	}
	for op, rl := range defaults {
		if _, ok := cfg.RateLimits[op]; !ok {
			cfg.RateLimits[op] = rl
		}
	}

	return &cfg, nil
}

// Save writes the configuration to the data directory.
func Save(cfg *Config) error {
	v := viper.New()
	v.Set("data_dir", cfg.DataDir)
	v.Set("session_timeout_minutes", cfg.SessionTimeoutMinutes)
	v.Set("check_interval_seconds", cfg.CheckIntervalSeconds)
	v.Set("cache_ttl_minutes", cfg.CacheTTLMinutes)
	v.Set("clipboard_clear_seconds", cfg.ClipboardClearSeconds)
	v.Set("rate_limits", cfg.RateLimits)
	v.Set("privacy", cfg.Privacy)

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return errors.NewConfigSaveError(cfg.DataDir, err)
	}
	path := filepath.Join(cfg.DataDir, "config.json")
	if err := v.WriteConfigAs(path); err != nil {
		return errors.NewConfigSaveError(path, err)
	}
	return nil
}

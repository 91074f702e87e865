// File: cmd/config.go
package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"wallet.module/internal/config"
	"wallet.module/internal/errors"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manages the application settings.",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Shows the effective configuration.",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("data_dir: %s\n", cfg.DataDir)
		fmt.Printf("session_timeout_minutes: %d\n", cfg.SessionTimeoutMinutes)
		fmt.Printf("check_interval_seconds: %d\n", cfg.CheckIntervalSeconds)
		fmt.Printf("cache_ttl_minutes: %d\n", cfg.CacheTTLMinutes)
		fmt.Printf("clipboard_clear_seconds: %d\n", cfg.ClipboardClearSeconds)
		for op, rl := range cfg.RateLimits {
			fmt.Printf("rate_limits.%s: capacity=%.0f refill=%.4f/s\n", op, rl.Capacity, rl.RefillPerSecond)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <KEY> <VALUE>",
	Short: "Sets a value for a configuration key.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToLower(args[0])
		value := args[1]

		switch key {
		case "data_dir":
			cfg.DataDir = value
		case "session_timeout_minutes", "check_interval_seconds",
			"cache_ttl_minutes", "clipboard_clear_seconds":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return errors.Newf(errors.ErrCodeConfigSave, "'%s' requires a positive integer", key)
			}
			switch key {
			case "session_timeout_minutes":
				cfg.SessionTimeoutMinutes = n
			case "check_interval_seconds":
				cfg.CheckIntervalSeconds = n
			case "cache_ttl_minutes":
				cfg.CacheTTLMinutes = n
			case "clipboard_clear_seconds":
				cfg.ClipboardClearSeconds = n
			}
		default:
			return errors.Newf(errors.ErrCodeConfigSave, "unknown configuration key '%s'", args[0])
		}

		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Printf("Configuration updated: %s = %s\n", args[0], value)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

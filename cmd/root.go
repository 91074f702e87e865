// File: cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"wallet.module/internal/audit"
	"wallet.module/internal/config"

	"github.com/spf13/cobra"
)

var cfg *config.Config

var programmaticMode bool

var rootCmd = &cobra.Command{
	Use:                   "wallet.module",
	Short:                 "A secure CLI wallet for Ethereum keys with encrypted storage.",
	DisableAutoGenTag:     true,
	DisableSuggestions:    false,
	DisableFlagsInUseLine: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Help()
		return nil
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %s", err.Error())
		}
		if err := audit.InitLogger(cfg.AuditLogPath()); err != nil {
			return fmt.Errorf("failed to initialize audit logger: %s", err.Error())
		}
		return nil
	},
}

func Execute() error {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	return rootCmd.Execute()
}

func init() {
	if os.Getenv("WALLET_MODULE_PROGRAMMATIC") == "1" {
		programmaticMode = true
	}
}

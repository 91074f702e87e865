// File: cmd/export.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"wallet.module/internal/constants"
	"wallet.module/internal/errors"
)

var exportCmd = &cobra.Command{
	Use:   "export <seed|key> <ADDRESS>",
	Short: "Exports a seed phrase or private key. Rate-limited and re-authenticated.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := args[0]
		address := args[1]

		var operation string
		switch kind {
		case "seed":
			operation = constants.AuthOpExportSeed
		case "key":
			operation = constants.AuthOpExportPrivateKey
		default:
			return errors.New(errors.ErrCodeInternal, fmt.Sprintf("unknown export kind '%s'", kind))
		}

		m, password, err := unlockedManagerWithPassword()
		if err != nil {
			return err
		}
		defer m.Close()

		token, err := m.Authenticate(operation, password)
		if err != nil {
			return err
		}

		var secret string
		if kind == "seed" {
			secret, err = m.ExportSeed(address, password, token)
		} else {
			secret, err = m.ExportPrivateKey(address, password, token)
		}
		if err != nil {
			return err
		}

		return printSecret(secret)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

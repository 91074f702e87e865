// File: cmd/backup.go
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wallet.module/internal/backup"
	"wallet.module/internal/colors"
	"wallet.module/internal/errors"
)

var backupCmd = &cobra.Command{
	Use:   "backup <FILE>",
	Short: "Writes an encrypted backup of the account metadata and keys.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath := args[0]

		if _, err := os.Stat(outPath); err == nil {
			if !askForConfirmation(colors.SafeColor(
				fmt.Sprintf("File '%s' already exists. Overwrite?", outPath),
				colors.Warning,
			)) {
				fmt.Println(colors.SafeColor("Cancelled.", colors.Info))
				return nil
			}
		}

		m, password, err := unlockedManagerWithPassword()
		if err != nil {
			return err
		}
		defer m.Close()

		container, err := m.CreateBackup(password)
		if err != nil {
			return err
		}

		doc, err := backup.Marshal(container)
		if err != nil {
			return err
		}
		if err := os.WriteFile(outPath, doc, 0600); err != nil {
			return errors.FromOSError(err, outPath)
		}

		fmt.Println(colors.SafeColor(
			fmt.Sprintf("Encrypted backup written to '%s'.", outPath),
			colors.Success,
		))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
}

// File: cmd/restore.go
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wallet.module/internal/backup"
	"wallet.module/internal/colors"
	"wallet.module/internal/errors"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <FILE>",
	Short: "Restores accounts from an encrypted backup file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := os.ReadFile(args[0])
		if err != nil {
			return errors.FromOSError(err, args[0])
		}

		container, err := backup.Unmarshal(doc)
		if err != nil {
			return err
		}

		m, password, err := unlockedManagerWithPassword()
		if err != nil {
			return err
		}
		defer m.Close()

		added, err := m.RestoreBackup(container, password)
		if err != nil {
			return err
		}

		fmt.Println(colors.SafeColor(
			fmt.Sprintf("Restore complete: %d account(s) added.", added),
			colors.Success,
		))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}

// File: cmd/passwd.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"wallet.module/internal/colors"
	"wallet.module/internal/errors"
)

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Changes the master password, re-encrypting the wallet container.",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openManager()
		if err != nil {
			return err
		}
		defer m.Close()

		oldPassword, err := askForSecretInput("Current master password")
		if err != nil {
			return err
		}
		newPassword, err := askForSecretInput("New master password")
		if err != nil {
			return err
		}
		confirm, err := askForSecretInput("Confirm new master password")
		if err != nil {
			return err
		}
		if newPassword != confirm {
			return errors.NewInvalidCredentialsError().WithDetails("passwords do not match")
		}
		if len(newPassword) < 8 {
			return errors.NewInvalidCredentialsError().WithDetails("master password must be at least 8 characters")
		}

		if err := m.ChangePassword(oldPassword, newPassword); err != nil {
			return err
		}

		fmt.Println(colors.SafeColor("Master password changed.", colors.Success))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(passwdCmd)
}

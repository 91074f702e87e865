// File: cmd/init.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"wallet.module/internal/colors"
	"wallet.module/internal/errors"
	"wallet.module/internal/walletconfig"
)

var initName string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initializes the encrypted wallet container.",
	RunE: func(cmd *cobra.Command, args []string) error {
		walletPath := cfg.WalletConfigPath()

		if walletconfig.Exists(walletPath) {
			fmt.Println(colors.SafeColor(
				fmt.Sprintf("Warning: wallet file '%s' already exists.", walletPath),
				colors.Warning,
			))
			if !askForConfirmation(colors.SafeColor(
				"Are you sure you want to overwrite it? ALL ACCOUNTS WILL BE LOST!",
				colors.Warning,
			)) {
				fmt.Println(colors.SafeColor("Cancelled.", colors.Info))
				return nil
			}
		}

		password, err := askForSecretInput("New master password")
		if err != nil {
			return err
		}
		confirm, err := askForSecretInput("Confirm master password")
		if err != nil {
			return err
		}
		if password != confirm {
			return errors.NewInvalidCredentialsError().WithDetails("passwords do not match")
		}
		if len(password) < 8 {
			return errors.NewInvalidCredentialsError().WithDetails("master password must be at least 8 characters")
		}

		wallet, err := walletconfig.New(initName, password)
		if err != nil {
			return err
		}
		if err := walletconfig.Save(wallet, walletPath); err != nil {
			return err
		}

		fmt.Println(colors.SafeColor(
			fmt.Sprintf("Wallet successfully initialized at '%s'.", walletPath),
			colors.Success,
		))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initName, "name", "main", "Display name for the wallet container.")
}

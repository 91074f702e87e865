// File: cmd/remove.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"wallet.module/internal/colors"
	"wallet.module/internal/constants"
)

var removeForce bool

var removeCmd = &cobra.Command{
	Use:   "remove <ADDRESS>",
	Short: "Removes an account and destroys its stored key material.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		address := args[0]

		if !removeForce && !askForConfirmation(colors.SafeColor(
			fmt.Sprintf("Remove account %s? Its keys will be destroyed.", address),
			colors.Warning,
		)) {
			fmt.Println(colors.SafeColor("Cancelled.", colors.Info))
			return nil
		}

		m, password, err := unlockedManagerWithPassword()
		if err != nil {
			return err
		}
		defer m.Close()

		token, err := m.Authenticate(constants.AuthOpRemoveAccount, password)
		if err != nil {
			return err
		}
		if err := m.RemoveAccount(address, token); err != nil {
			return err
		}

		fmt.Println(colors.SafeColor(
			fmt.Sprintf("Account %s removed.", address),
			colors.Success,
		))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
	removeCmd.Flags().BoolVarP(&removeForce, "force", "f", false, "Skip the confirmation prompt.")
}

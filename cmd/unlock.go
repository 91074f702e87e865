// File: cmd/unlock.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"wallet.module/internal/colors"
)

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Verifies the master password and reports the wallet state.",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := unlockedManager()
		if err != nil {
			return err
		}
		defer m.Close()

		list, err := m.ListAccounts()
		if err != nil {
			return err
		}

		fmt.Println(colors.SafeColor(
			fmt.Sprintf("Wallet unlocked. %d account(s) available.", len(list)),
			colors.Success,
		))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(unlockCmd)
}

// File: cmd/lock.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"wallet.module/internal/colors"
	"wallet.module/internal/security"
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Clears sensitive residue (clipboard) and confirms the locked state.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := security.ClearClipboard(); err != nil {
			fmt.Println(colors.SafeColor("Warning: could not clear the clipboard.", colors.Warning))
		}
		fmt.Println(colors.SafeColor("Wallet locked.", colors.Success))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lockCmd)
}

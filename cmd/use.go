// File: cmd/use.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"wallet.module/internal/colors"
)

var useCmd = &cobra.Command{
	Use:   "use <ADDRESS>",
	Short: "Selects the current account.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := unlockedManager()
		if err != nil {
			return err
		}
		defer m.Close()

		if err := m.SetCurrentAccount(args[0]); err != nil {
			return err
		}

		fmt.Println(colors.SafeColor(
			fmt.Sprintf("Current account set to %s.", args[0]),
			colors.Success,
		))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(useCmd)
}

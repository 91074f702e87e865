// File: cmd/list.go
package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"wallet.module/internal/colors"
)

var listJson bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the accounts in the wallet.",
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
		sort.Slice(list, func(i, j int) bool {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		})

		current, err := m.CurrentAccount()
		if err != nil {
			return err
		}

		if listJson {
			jsonData, err := json.MarshalIndent(list, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to generate JSON: %w", err)
			}
			fmt.Println(string(jsonData))
			return nil
		}

		if len(list) == 0 {
			fmt.Println(colors.SafeColor("No accounts yet. Run 'wallet.module create' to add one.", colors.Info))
			return nil
		}

		for _, account := range list {
			marker := "  "
			if current != nil && account.Address == current.Address {
				marker = colors.SafeColor("* ", colors.Cyan)
			}
			name := account.Name
			if name == "" {
				name = "(unnamed)"
			}
			kind := account.DerivationPath
			if account.IsHardware {
				kind = "hardware"
			}
			fmt.Printf("%s%s  %s  %s  tx:%d\n",
				marker,
				account.Address,
				colors.SafeColor(name, colors.Bold),
				colors.SafeColor(kind, colors.Dim),
				account.TransactionCount,
			)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJson, "json", false, "Output accounts in JSON format.")
}

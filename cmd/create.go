// File: cmd/create.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"wallet.module/internal/accounts"
	"wallet.module/internal/colors"
	"wallet.module/internal/errors"
	"wallet.module/internal/keys"
)

var createName string
var createPath string
var createWords int

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Creates a new HD account with a freshly generated seed phrase.",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, password, err := unlockedManagerWithPassword()
		if err != nil {
			return err
		}
		defer m.Close()

		cc := accounts.CreateConfig{
			Name:           createName,
			DerivationPath: createPath,
		}

		// The manager generates 12 words by default; a 24-word phrase
		// needs 256 bits of entropy supplied up front.
		switch createWords {
		case 12:
		case 24:
			cc.Mnemonic, err = keys.GenerateMnemonic(256)
			if err != nil {
				return err
			}
		default:
			return errors.New(errors.ErrCodeInternal, "seed phrase length must be 12 or 24 words")
		}

		account, mnemonic, err := m.CreateAccount(cc, password)
		if err != nil {
			return err
		}
		if mnemonic == "" {
			mnemonic = cc.Mnemonic
		}

		fmt.Println(colors.SafeColor(
			fmt.Sprintf("Account '%s' created: %s", account.Name, account.Address),
			colors.Success,
		))

		if mnemonic != "" {
			fmt.Println(colors.SafeColor(
				"Write down the seed phrase below. It is shown ONCE and never stored in plaintext.",
				colors.Warning,
			))
			if err := printSecret(mnemonic); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringVar(&createName, "name", "", "Display name for the account.")
	createCmd.Flags().StringVar(&createPath, "path", "", "Derivation path (defaults to m/44'/60'/0'/0/0).")
	createCmd.Flags().IntVar(&createWords, "words", 12, "Seed phrase length: 12 or 24 words.")
}

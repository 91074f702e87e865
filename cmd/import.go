// File: cmd/import.go
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wallet.module/internal/accounts"
	"wallet.module/internal/colors"
	"wallet.module/internal/errors"
	"wallet.module/internal/security"
)

var importName string
var importPath string
var importKeystoreFile string

var importCmd = &cobra.Command{
	Use:   "import <seed|key|keystore>",
	Short: "Imports an account from a seed phrase, raw private key or keystore file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := args[0]

		m, password, err := unlockedManagerWithPassword()
		if err != nil {
			return err
		}
		defer m.Close()

		var source accounts.ImportSource
		switch kind {
		case "seed":
			mnemonic, err := askForSecretInput("Seed phrase")
			if err != nil {
				return err
			}
			defer security.SecureClearBytes([]byte(mnemonic))
			source = accounts.SeedSource{
				Name:           importName,
				Mnemonic:       mnemonic,
				DerivationPath: importPath,
			}
		case "key":
			keyHex, err := askForSecretInput("Private key (hex)")
			if err != nil {
				return err
			}
			defer security.SecureClearBytes([]byte(keyHex))
			source = accounts.PrivateKeySource{
				Name:          importName,
				PrivateKeyHex: keyHex,
			}
		case "keystore":
			if importKeystoreFile == "" {
				return errors.New(errors.ErrCodeInternal, "keystore import requires --file")
			}
			doc, err := os.ReadFile(importKeystoreFile)
			if err != nil {
				return errors.FromOSError(err, importKeystoreFile)
			}
			ksPassword, err := askForSecretInput("Keystore password")
			if err != nil {
				return err
			}
			defer security.SecureClearBytes([]byte(ksPassword))
			source = accounts.KeystoreSource{
				Name:     importName,
				JSON:     doc,
				Password: ksPassword,
			}
		default:
			return errors.New(errors.ErrCodeInternal, fmt.Sprintf("unknown import kind '%s'", kind))
		}

		account, err := m.ImportAccount(source, password)
		if err != nil {
			return err
		}

		fmt.Println(colors.SafeColor(
			fmt.Sprintf("Account imported: %s", account.Address),
			colors.Success,
		))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importName, "name", "", "Display name for the account.")
	importCmd.Flags().StringVar(&importPath, "path", "", "Derivation path for seed imports.")
	importCmd.Flags().StringVar(&importKeystoreFile, "file", "", "Path to a keystore JSON file.")
}

// File: cmd/helpers.go
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"

	"wallet.module/internal/accounts"
	"wallet.module/internal/colors"
	"wallet.module/internal/errors"
	"wallet.module/internal/keychain"
	"wallet.module/internal/security"
	"wallet.module/internal/walletconfig"
)

// openManager loads the wallet container and wires up the account
// manager over the file keychain. The manager starts locked.
func openManager() (*accounts.Manager, error) {
	walletPath := cfg.WalletConfigPath()
	if !walletconfig.Exists(walletPath) {
		return nil, errors.New(errors.ErrCodeConfigLoad, "wallet is not initialized").
			WithDetails("run 'wallet.module init' first")
	}

	wallet, err := walletconfig.Load(walletPath)
	if err != nil {
		return nil, err
	}

	chain, err := keychain.NewFileKeychain(filepath.Join(cfg.DataDir, "keys"))
	if err != nil {
		return nil, err
	}

	return accounts.New(cfg, wallet, walletPath, chain)
}

// unlockedManager opens the manager and unlocks it with a prompted
// master password.
func unlockedManager() (*accounts.Manager, error) {
	m, err := openManager()
	if err != nil {
		return nil, err
	}

	password, err := askForSecretInput("Master password")
	if err != nil {
		return nil, err
	}
	defer security.SecureClearBytes([]byte(password))

	if err := m.Unlock(password); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

// unlockedManagerWithPassword is for commands that need the password
// again after unlocking (persistence, token minting).
func unlockedManagerWithPassword() (*accounts.Manager, string, error) {
	m, err := openManager()
	if err != nil {
		return nil, "", err
	}

	password, err := askForSecretInput("Master password")
	if err != nil {
		return nil, "", err
	}

	if err := m.Unlock(password); err != nil {
		m.Close()
		return nil, "", err
	}
	return m, password, nil
}

func askForInput(prompt string) (string, error) {
	fmt.Print(colors.SafeColor(prompt+": ", colors.Info))
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", errors.New(errors.ErrCodeInternal, "failed to read from stdin")
	}
	return strings.TrimSpace(input), nil
}

func askForSecretInput(prompt string) (string, error) {
	fmt.Print(colors.SafeColor(prompt+": ", colors.Info))

	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", errors.New(errors.ErrCodeInternal, "failed to read password from stdin")
	}
	fmt.Println() // New line after password input

	password := string(bytePassword)
	security.SecureClearBytes(bytePassword)

	return password, nil
}

func askForConfirmation(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// printSecret hands a secret to the user: raw on stdout in
// programmatic mode, otherwise through the self-clearing clipboard.
func printSecret(secret string) error {
	if programmaticMode {
		fmt.Print(secret)
		return nil
	}

	clearAfter := cfg.ClipboardClear()
	if err := security.CopyToClipboard(secret, clearAfter); err != nil {
		return err
	}
	fmt.Println(colors.SafeColor(
		fmt.Sprintf("✅ Secret copied to clipboard. It will be cleared in %.0f seconds.", clearAfter.Seconds()),
		colors.Success,
	))
	return nil
}

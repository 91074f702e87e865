// File: cmd/shares.go
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wallet.module/internal/backup"
	"wallet.module/internal/colors"
	"wallet.module/internal/constants"
	"wallet.module/internal/errors"
	"wallet.module/internal/security"
)

var sharesThreshold int
var sharesTotal int
var sharesOut string

var sharesCmd = &cobra.Command{
	Use:   "shares",
	Short: "Splits a seed phrase into recovery shares and reassembles it.",
}

var sharesSplitCmd = &cobra.Command{
	Use:   "split <ADDRESS>",
	Short: "Splits an account's seed phrase into threshold recovery shares.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, password, err := unlockedManagerWithPassword()
		if err != nil {
			return err
		}
		defer m.Close()

		token, err := m.Authenticate(constants.AuthOpExportSeed, password)
		if err != nil {
			return err
		}
		seed, err := m.ExportSeed(args[0], password, token)
		if err != nil {
			return err
		}
		secret := []byte(seed)
		defer security.SecureClearBytes(secret)

		shares, err := backup.SplitSecret(secret, sharesThreshold, sharesTotal)
		if err != nil {
			return err
		}

		for i, share := range shares {
			doc, err := backup.MarshalShares([]backup.Share{share})
			if err != nil {
				return err
			}
			path := fmt.Sprintf("%s-%d.json", sharesOut, i+1)
			if err := os.WriteFile(path, doc, 0600); err != nil {
				return errors.FromOSError(err, path)
			}
		}

		fmt.Println(colors.SafeColor(
			fmt.Sprintf("Wrote %d shares ('%s-1.json' … '%s-%d.json'). Any %d of them recover the seed.",
				len(shares), sharesOut, sharesOut, len(shares), sharesThreshold),
			colors.Success,
		))
		fmt.Println(colors.SafeColor(
			"Distribute the shares to separate locations. Fewer than the threshold reveal nothing.",
			colors.Warning,
		))
		return nil
	},
}

var sharesCombineCmd = &cobra.Command{
	Use:   "combine <FILE>...",
	Short: "Recovers a seed phrase from threshold recovery shares.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var shares []backup.Share
		for _, path := range args {
			doc, err := os.ReadFile(path)
			if err != nil {
				return errors.FromOSError(err, path)
			}
			parsed, err := backup.UnmarshalShares(doc)
			if err != nil {
				return err
			}
			shares = append(shares, parsed...)
		}

		secret, err := backup.CombineShares(shares)
		if err != nil {
			return err
		}
		defer security.SecureClearBytes(secret)

		return printSecret(string(secret))
	},
}

func init() {
	rootCmd.AddCommand(sharesCmd)
	sharesCmd.AddCommand(sharesSplitCmd)
	sharesCmd.AddCommand(sharesCombineCmd)

	sharesSplitCmd.Flags().IntVar(&sharesThreshold, "threshold", 3, "Minimum shares required for recovery.")
	sharesSplitCmd.Flags().IntVar(&sharesTotal, "total", 5, "Total shares to produce.")
	sharesSplitCmd.Flags().StringVar(&sharesOut, "out", "share", "Output file prefix.")
}

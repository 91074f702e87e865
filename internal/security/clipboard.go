// File: internal/security/clipboard.go
package security

import (
	"time"

	"github.com/atotto/clipboard"

	"wallet.module/internal/errors"
)

// CopyToClipboard places data on the system clipboard and schedules a
// clear after clearAfter. The clear only fires if the clipboard still
// holds the same data, so a later user copy is never clobbered.
func CopyToClipboard(data string, clearAfter time.Duration) error {
	if err := clipboard.WriteAll(data); err != nil {
		return errors.NewClipboardError(err)
	}

	if clearAfter > 0 {
		go func() {
			time.Sleep(clearAfter)
			current, err := clipboard.ReadAll()
			if err == nil && current == data {
				_ = clipboard.WriteAll("")
			}
		}()
	}

	return nil
}

// ClearClipboard immediately clears the clipboard (for shutdown cleanup)
func ClearClipboard() error {
	if err := clipboard.WriteAll(""); err != nil {
		return errors.NewClipboardError(err)
	}
	return nil
}

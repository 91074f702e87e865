// File: main.go
package main

import (
	"fmt"
	"os"

	"wallet.module/cmd"
	"wallet.module/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", errors.FormatForUser(err))
		os.Exit(1)
	}
}

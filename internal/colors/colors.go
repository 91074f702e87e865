// File: internal/colors/colors.go
package colors

import (
	"os"
)

// ANSI color codes
const (
	ResetCode  = "\033[0m"
	RedCode    = "\033[31m"
	GreenCode  = "\033[32m"
	YellowCode = "\033[33m"
	BlueCode   = "\033[34m"
	CyanCode   = "\033[36m"
	BoldCode   = "\033[1m"
	DimCode    = "\033[2m"
)

func Error(text string) string {
	return RedCode + text + ResetCode
}

func Success(text string) string {
	return GreenCode + text + ResetCode
}

func Warning(text string) string {
	return YellowCode + text + ResetCode
}

func Info(text string) string {
	return BlueCode + text + ResetCode
}

func Cyan(text string) string {
	return CyanCode + text + ResetCode
}

func Dim(text string) string {
	return DimCode + text + ResetCode
}

func Bold(text string) string {
	return BoldCode + text + ResetCode
}

// SupportsColors reports whether stdout is a terminal that should
// receive ANSI sequences. NO_COLOR always wins.
func SupportsColors() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// SafeColor applies the color only when the terminal supports it.
func SafeColor(text string, colorFunc func(string) string) string {
	if SupportsColors() {
		return colorFunc(text)
	}
	return text
}

// File: internal/audit/audit.go
package audit

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
)

var Logger *slog.Logger

// InitLogger initializes the logger for auditing purposes.
// The log file lives under the data directory with owner-only permissions.
func InitLogger(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}

	// Open or create the log file for appending.
	logFile, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}

	// Create a logger that writes JSON to the specified file.
	Logger = slog.New(slog.NewJSONHandler(logFile, nil))
	return nil
}

// InitDiscardLogger wires the audit logger to a discard handler.
// Used by tests and programmatic embedding where no file should be touched.
func InitDiscardLogger() {
	Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// NewCorrelationID returns a fresh correlation id for one logical operation.
func NewCorrelationID() string {
	return uuid.NewString()
}

// Event records one audit event. The detail string must already be
// sanitized by the caller; Event applies Sanitize again as a backstop.
func Event(correlationID, operation, detail string) {
	if Logger == nil {
		return
	}
	Logger.Info("audit",
		slog.String("correlation_id", correlationID),
		slog.String("operation", operation),
		slog.String("detail", Sanitize(detail)),
	)
}

// Failure records a failed operation with its error category only.
func Failure(correlationID, operation, errorCode string) {
	if Logger == nil {
		return
	}
	Logger.Warn("audit",
		slog.String("correlation_id", correlationID),
		slog.String("operation", operation),
		slog.String("error_code", errorCode),
	)
}

var (
	hexSecretPattern  = regexp.MustCompile(`(0x)?[0-9a-fA-F]{64,}`)
	mnemonicPattern   = regexp.MustCompile(`(?i)\b([a-z]+\s+){11,}[a-z]+\b`)
	base64LongPattern = regexp.MustCompile(`[A-Za-z0-9+/=]{48,}`)
)

// Sanitize redacts anything that looks like key material from a log line.
// Addresses (40 hex chars) survive; 64+ hex chars, long base64 runs and
// 12+ word sequences do not.
func Sanitize(detail string) string {
	out := hexSecretPattern.ReplaceAllString(detail, "[REDACTED]")
	out = mnemonicPattern.ReplaceAllString(out, "[REDACTED]")
	out = base64LongPattern.ReplaceAllString(out, "[REDACTED]")
	return out
}

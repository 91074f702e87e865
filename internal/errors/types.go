// File: internal/errors/types.go
package errors

import (
	"fmt"
	"log/slog"
)

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	// Credential and lock-state errors
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeWalletLocked       ErrorCode = "WALLET_LOCKED"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeRateLimitExceeded  ErrorCode = "RATE_LIMIT_EXCEEDED"

	// Key material errors
	ErrCodeInvalidSeedPhrase ErrorCode = "INVALID_SEED_PHRASE"
	ErrCodeInvalidPrivateKey ErrorCode = "INVALID_PRIVATE_KEY"
	ErrCodeKeyDerivation     ErrorCode = "KEY_DERIVATION_FAILED"

	// Codec errors
	ErrCodeEncryption      ErrorCode = "ENCRYPTION_FAILED"
	ErrCodeDecryption      ErrorCode = "DECRYPTION_FAILED"
	ErrCodeIntegrityCheck  ErrorCode = "INTEGRITY_CHECK_FAILED"
	ErrCodeKeystoreFormat  ErrorCode = "KEYSTORE_FORMAT_INVALID"
	ErrCodeBackupCorrupt   ErrorCode = "BACKUP_CORRUPT"
	ErrCodeShareThreshold  ErrorCode = "SHARE_THRESHOLD_NOT_MET"

	// Account errors
	ErrCodeAccountNotFound ErrorCode = "ACCOUNT_NOT_FOUND"
	ErrCodeAccountExists   ErrorCode = "ACCOUNT_EXISTS"

	// System errors
	ErrCodeConfigLoad    ErrorCode = "CONFIG_LOAD_FAILED"
	ErrCodeConfigSave    ErrorCode = "CONFIG_SAVE_FAILED"
	ErrCodeFileSystem    ErrorCode = "FILESYSTEM_ERROR"
	ErrCodeSerialization ErrorCode = "SERIALIZATION_FAILED"
	ErrCodeKeychain      ErrorCode = "KEYCHAIN_ERROR"
	ErrCodeClipboard     ErrorCode = "CLIPBOARD_ERROR"

	// Generic errors
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityInfo     ErrorSeverity = "INFO"
	SeverityWarning  ErrorSeverity = "WARNING"
	SeverityError    ErrorSeverity = "ERROR"
	SeverityCritical ErrorSeverity = "CRITICAL"
)

// WalletError represents a standardized error structure
type WalletError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Details  string                 `json:"details,omitempty"`
	Severity ErrorSeverity          `json:"severity"`
	Context  map[string]interface{} `json:"context,omitempty"`
	Cause    error                  `json:"-"` // Don't serialize the underlying error
}

// Error implements the error interface
func (e *WalletError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping
func (e *WalletError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches a specific code
func (e *WalletError) Is(target error) bool {
	if targetErr, ok := target.(*WalletError); ok {
		return e.Code == targetErr.Code
	}
	return false
}

// WithContext adds context information to the error
func (e *WalletError) WithContext(key string, value interface{}) *WalletError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the severity level
func (e *WalletError) WithSeverity(severity ErrorSeverity) *WalletError {
	e.Severity = severity
	return e
}

// WithDetails adds detailed information
func (e *WalletError) WithDetails(details string) *WalletError {
	e.Details = details
	return e
}

// ToSlogAttrs converts error context to slog attributes
func (e *WalletError) ToSlogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("error_code", string(e.Code)),
		slog.String("error_message", e.Message),
		slog.String("severity", string(e.Severity)),
	}

	if e.Details != "" {
		attrs = append(attrs, slog.String("details", e.Details))
	}

	if e.Cause != nil {
		attrs = append(attrs, slog.String("cause", e.Cause.Error()))
	}

	for key, value := range e.Context {
		attrs = append(attrs, slog.Any(fmt.Sprintf("ctx_%s", key), value))
	}

	return attrs
}

// New creates a new WalletError
func New(code ErrorCode, message string) *WalletError {
	return &WalletError{
		Code:     code,
		Message:  message,
		Severity: SeverityError,
		Context:  make(map[string]interface{}),
	}
}

// Newf creates a new WalletError with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *WalletError {
	return &WalletError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityError,
		Context:  make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with WalletError
func Wrap(code ErrorCode, message string, cause error) *WalletError {
	return &WalletError{
		Code:     code,
		Message:  message,
		Severity: SeverityError,
		Context:  make(map[string]interface{}),
		Cause:    cause,
	}
}

// Wrapf wraps an existing error with formatted message
func Wrapf(code ErrorCode, cause error, format string, args ...interface{}) *WalletError {
	return &WalletError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityError,
		Context:  make(map[string]interface{}),
		Cause:    cause,
	}
}

// IsCode checks if error has specific code
func IsCode(err error, code ErrorCode) bool {
	if wErr, ok := err.(*WalletError); ok {
		return wErr.Code == code
	}
	return false
}

// GetCode extracts error code from error
func GetCode(err error) ErrorCode {
	if wErr, ok := err.(*WalletError); ok {
		return wErr.Code
	}
	return ErrCodeInternal
}

// GetSeverity extracts severity from error
func GetSeverity(err error) ErrorSeverity {
	if wErr, ok := err.(*WalletError); ok {
		return wErr.Severity
	}
	return SeverityError
}

// FormatForUser renders an error for terminal output. Credential
// failures collapse to a generic message so the output never hints at
// which part of the check failed.
func FormatForUser(err error) string {
	wErr, ok := err.(*WalletError)
	if !ok {
		return err.Error()
	}

	switch wErr.Code {
	case ErrCodeInvalidCredentials:
		return "authentication failed"
	case ErrCodeTokenExpired:
		return "authorization expired, please re-authenticate"
	case ErrCodeRateLimitExceeded:
		if wait, ok := wErr.Context["wait_seconds"].(uint64); ok && wait > 0 {
			return fmt.Sprintf("too many attempts, try again in %d seconds", wait)
		}
		return "too many attempts, try again later"
	case ErrCodeWalletLocked:
		return "wallet is locked"
	}

	if wErr.Details != "" {
		return fmt.Sprintf("%s (%s)", wErr.Message, wErr.Details)
	}
	return wErr.Message
}

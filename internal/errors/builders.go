// File: internal/errors/builders.go
package errors

import (
	"fmt"
	"os"
)

// Credential Error Builders
func NewInvalidCredentialsError() *WalletError {
	return New(ErrCodeInvalidCredentials, "invalid credentials").
		WithSeverity(SeverityError)
}

func NewWalletLockedError() *WalletError {
	return New(ErrCodeWalletLocked, "wallet is locked").
		WithDetails("Unlock the wallet before performing this operation").
		WithSeverity(SeverityWarning)
}

func NewTokenExpiredError(operation string) *WalletError {
	return New(ErrCodeTokenExpired, "authentication token has expired").
		WithContext("operation", operation).
		WithSeverity(SeverityWarning)
}

func NewRateLimitExceededError(operation string, waitSeconds uint64) *WalletError {
	return Newf(ErrCodeRateLimitExceeded, "rate limit exceeded for operation '%s'", operation).
		WithDetails(fmt.Sprintf("retry in %d seconds", waitSeconds)).
		WithContext("operation", operation).
		WithContext("wait_seconds", waitSeconds).
		WithSeverity(SeverityWarning)
}

// Key Material Error Builders
func NewInvalidSeedPhraseError(reason string) *WalletError {
	return New(ErrCodeInvalidSeedPhrase, "invalid mnemonic phrase").
		WithDetails(reason).
		WithSeverity(SeverityError)
}

func NewInvalidPrivateKeyError(reason string) *WalletError {
	return New(ErrCodeInvalidPrivateKey, "invalid private key").
		WithDetails(reason).
		WithSeverity(SeverityError)
}

func NewKeyDerivationError(message string, cause error) *WalletError {
	return Wrap(ErrCodeKeyDerivation, message, cause).
		WithSeverity(SeverityError)
}

// Codec Error Builders
func NewEncryptionError(cause error) *WalletError {
	return Wrap(ErrCodeEncryption, "encryption failed", cause).
		WithSeverity(SeverityError)
}

func NewDecryptionError(cause error) *WalletError {
	return Wrap(ErrCodeDecryption, "decryption failed", cause).
		WithSeverity(SeverityError)
}

func NewIntegrityCheckError(subject string) *WalletError {
	return Newf(ErrCodeIntegrityCheck, "integrity check failed for %s", subject).
		WithDetails("the data has been corrupted or tampered with").
		WithContext("subject", subject).
		WithSeverity(SeverityCritical)
}

func NewKeystoreFormatError(field string, value interface{}) *WalletError {
	return Newf(ErrCodeKeystoreFormat, "unsupported keystore %s", field).
		WithContext("field", field).
		WithContext("value", value).
		WithSeverity(SeverityError)
}

func NewBackupCorruptError(cause error) *WalletError {
	return Wrap(ErrCodeBackupCorrupt, "backup data is corrupted", cause).
		WithSeverity(SeverityCritical)
}

func NewShareThresholdError(have, need int) *WalletError {
	return Newf(ErrCodeShareThreshold, "not enough shares to recover the secret").
		WithDetails(fmt.Sprintf("have %d shares, need at least %d", have, need)).
		WithContext("have", have).
		WithContext("need", need).
		WithSeverity(SeverityError)
}

// Account Error Builders
func NewAccountNotFoundError(address string) *WalletError {
	return Newf(ErrCodeAccountNotFound, "account '%s' not found", address).
		WithContext("address", address).
		WithSeverity(SeverityError)
}

func NewAccountExistsError(address string) *WalletError {
	return Newf(ErrCodeAccountExists, "account '%s' already exists", address).
		WithContext("address", address).
		WithSeverity(SeverityError)
}

// System Error Builders
func NewConfigLoadError(path string, cause error) *WalletError {
	return Wrap(ErrCodeConfigLoad, "failed to load configuration", cause).
		WithContext("config_path", path).
		WithSeverity(SeverityError)
}

func NewConfigSaveError(path string, cause error) *WalletError {
	return Wrap(ErrCodeConfigSave, "failed to save configuration", cause).
		WithContext("config_path", path).
		WithSeverity(SeverityError)
}

func NewFileSystemError(operation, path string, cause error) *WalletError {
	return Wrap(ErrCodeFileSystem, fmt.Sprintf("filesystem operation '%s' failed", operation), cause).
		WithContext("operation", operation).
		WithContext("path", path).
		WithSeverity(SeverityError)
}

func NewSerializationError(what string, cause error) *WalletError {
	return Wrap(ErrCodeSerialization, fmt.Sprintf("failed to serialize %s", what), cause).
		WithContext("what", what).
		WithSeverity(SeverityError)
}

func NewKeychainError(operation string, cause error) *WalletError {
	return Wrap(ErrCodeKeychain, fmt.Sprintf("keychain operation '%s' failed", operation), cause).
		WithContext("operation", operation).
		WithSeverity(SeverityError)
}

func NewClipboardError(cause error) *WalletError {
	return Wrap(ErrCodeClipboard, "clipboard operation failed", cause).
		WithSeverity(SeverityWarning)
}

// Error conversion helpers
func FromOSError(err error, path string) *WalletError {
	if err == nil {
		return nil
	}

	if os.IsNotExist(err) {
		return NewFileSystemError("access", path, err).
			WithDetails("file or directory does not exist")
	}

	if os.IsPermission(err) {
		return NewFileSystemError("access", path, err).
			WithDetails("permission denied")
	}

	return NewFileSystemError("unknown", path, err)
}

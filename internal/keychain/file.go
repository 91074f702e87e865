// File: internal/keychain/file.go
package keychain

import (
	"os"
	"path/filepath"
	"strings"

	"wallet.module/internal/constants"
	"wallet.module/internal/errors"
	"wallet.module/internal/keystore"
	"wallet.module/internal/security"
)

// FileKeychain stores secrets as owner-only files under a directory.
// Every entry is sealed with the wallet-file codec (PBKDF2 +
// AES-256-CTR + MAC) under a passphrase derived from the service name,
// so a disk read alone never yields key material; delete shreds the
// file before removal.
type FileKeychain struct {
	dir        string
	passphrase string
}

// NewFileKeychain ensures the backing directory exists with 0700.
func NewFileKeychain(dir string) (*FileKeychain, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.NewKeychainError("init", err)
	}
	return &FileKeychain{dir: dir, passphrase: constants.KeychainService}, nil
}

func (k *FileKeychain) path(ref KeyReference) (string, error) {
	// Reference ids are UUIDs; anything with a path separator is hostile.
	if ref.ID == "" || strings.ContainsAny(ref.ID, `/\`) || strings.Contains(ref.ID, "..") {
		return "", errors.NewKeychainError("resolve", nil).
			WithDetails("malformed key reference id")
	}
	return filepath.Join(k.dir, ref.ID+".key"), nil
}

func (k *FileKeychain) Store(ref KeyReference, secret []byte) error {
	path, err := k.path(ref)
	if err != nil {
		return err
	}

	wf, err := keystore.EncryptWalletFile(secret, k.passphrase)
	if err != nil {
		return errors.NewKeychainError("store", err)
	}
	doc, err := keystore.MarshalWalletFile(wf)
	if err != nil {
		return errors.NewKeychainError("store", err)
	}
	defer security.SecureClearBytes(doc)

	if err := os.WriteFile(path, doc, 0600); err != nil {
		return errors.NewKeychainError("store", err)
	}
	return nil
}

func (k *FileKeychain) Retrieve(ref KeyReference) ([]byte, error) {
	path, err := k.path(ref)
	if err != nil {
		return nil, err
	}
	doc, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewKeychainError("retrieve", err).
				WithDetails("no entry for this key reference")
		}
		return nil, errors.NewKeychainError("retrieve", err)
	}
	defer security.SecureClearBytes(doc)

	wf, err := keystore.UnmarshalWalletFile(doc)
	if err != nil {
		return nil, errors.NewKeychainError("retrieve", err).
			WithDetails("stored entry is corrupted")
	}
	secret, err := keystore.DecryptWalletFile(wf, k.passphrase)
	if err != nil {
		// The passphrase is fixed per backend, so a MAC failure here
		// means the entry was tampered with, not a wrong password.
		return nil, errors.NewKeychainError("retrieve", err).
			WithDetails("stored entry failed integrity verification")
	}
	return secret, nil
}

func (k *FileKeychain) Delete(ref KeyReference) error {
	path, err := k.path(ref)
	if err != nil {
		return err
	}
	if err := security.SecureFileDelete(path); err != nil {
		return errors.NewKeychainError("delete", err)
	}
	return nil
}

// File: internal/keystore/walletfile.go
package keystore

import (
	"crypto/aes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"golang.org/x/crypto/pbkdf2"

	"wallet.module/internal/constants"
	"wallet.module/internal/errors"
	"wallet.module/internal/security"
)

// WalletFile is the wallet's own encrypted-blob format, used for key
// material the wallet manages internally. It deliberately keeps a
// different MAC convention from the v3 codec: SHA-256 over the WHOLE
// derived key plus the ciphertext. The two conventions coexist for
// format compatibility and must never be unified.
type WalletFile struct {
	Version    int    `json:"version"`
	Ciphertext string `json:"ciphertext"`
	Salt       string `json:"salt"`
	IV         string `json:"iv"`
	Iterations int    `json:"iterations"`
	MAC        string `json:"mac"`
}

const walletFileVersion = 1

// EncryptWalletFile seals arbitrary plaintext with PBKDF2 + AES-256-CTR.
func EncryptWalletFile(plaintext []byte, password string) (*WalletFile, error) {
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.NewEncryptionError(err)
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, errors.NewEncryptionError(err)
	}

	derivedKey := pbkdf2.Key([]byte(password), salt, constants.PBKDF2Iterations, constants.DerivedKeyLength, sha256.New)
	defer security.SecureClearBytes(derivedKey)

	ciphertext, err := applyCTR(constants.CipherAES256CTR, derivedKey, iv, plaintext)
	if err != nil {
		return nil, err
	}

	mac := computeWalletFileMAC(derivedKey, ciphertext)

	return &WalletFile{
		Version:    walletFileVersion,
		Ciphertext: hex.EncodeToString(ciphertext),
		Salt:       hex.EncodeToString(salt),
		IV:         hex.EncodeToString(iv),
		Iterations: constants.PBKDF2Iterations,
		MAC:        hex.EncodeToString(mac),
	}, nil
}

// DecryptWalletFile verifies the MAC, then decrypts.
func DecryptWalletFile(wf *WalletFile, password string) ([]byte, error) {
	if wf.Version != walletFileVersion {
		return nil, errors.NewKeystoreFormatError("version", wf.Version)
	}
	if wf.Iterations < constants.MinPBKDF2Iterations {
		return nil, errors.NewKeystoreFormatError("iterations", wf.Iterations)
	}

	salt, err := hex.DecodeString(wf.Salt)
	if err != nil {
		return nil, errors.NewKeystoreFormatError("salt", "not valid hexadecimal")
	}
	iv, err := hex.DecodeString(wf.IV)
	if err != nil {
		return nil, errors.NewKeystoreFormatError("iv", "not valid hexadecimal")
	}
	ciphertext, err := hex.DecodeString(wf.Ciphertext)
	if err != nil {
		return nil, errors.NewKeystoreFormatError("ciphertext", "not valid hexadecimal")
	}
	expectedMAC, err := hex.DecodeString(wf.MAC)
	if err != nil {
		return nil, errors.NewKeystoreFormatError("mac", "not valid hexadecimal")
	}

	derivedKey := pbkdf2.Key([]byte(password), salt, wf.Iterations, constants.DerivedKeyLength, sha256.New)
	defer security.SecureClearBytes(derivedKey)

	mac := computeWalletFileMAC(derivedKey, ciphertext)
	if !hmac.Equal(mac, expectedMAC) {
		return nil, errors.NewInvalidCredentialsError().
			WithDetails("wallet file MAC verification failed")
	}

	return applyCTR(constants.CipherAES256CTR, derivedKey, iv, ciphertext)
}

// MarshalWalletFile renders the container as JSON.
func MarshalWalletFile(wf *WalletFile) ([]byte, error) {
	data, err := json.MarshalIndent(wf, "", "  ")
	if err != nil {
		return nil, errors.NewSerializationError("wallet file", err)
	}
	return data, nil
}

// UnmarshalWalletFile parses a wallet-file container.
func UnmarshalWalletFile(data []byte) (*WalletFile, error) {
	var wf WalletFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, errors.NewKeystoreFormatError("json", "not a valid wallet file")
	}
	return &wf, nil
}

func computeWalletFileMAC(derivedKey, ciphertext []byte) []byte {
	h := sha256.New()
	h.Write(derivedKey)
	h.Write(ciphertext)
	return h.Sum(nil)
}

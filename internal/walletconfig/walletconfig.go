// File: internal/walletconfig/walletconfig.go
//
// Wallet-level encrypted container. Account metadata and wallet
// settings are two independent AES-256-GCM ciphertexts, each keyed by
// its own Argon2id derivation; the master password is additionally
// bound to a verification hash with its own salt, never used as a key.
package walletconfig

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"wallet.module/internal/constants"
	"wallet.module/internal/errors"
	"wallet.module/internal/security"
)

// domainTag binds the integrity tag to this codec so a ciphertext can
// never be replayed into a different container format.
const domainTag = "wallet.module/config-v1"

const (
	configVersion    = 1
	algorithmVersion = 1
	nonceSize        = 12
	saltSize         = 32
)

// EncryptedData is one AES-256-GCM ciphertext with its derivation salt
// and a pre-decryption integrity tag. All binary fields are hex.
type EncryptedData struct {
	Ciphertext       string `json:"ciphertext"`
	Nonce            string `json:"nonce"`
	Salt             string `json:"salt"`
	HMAC             string `json:"hmac"`
	AlgorithmVersion int    `json:"algorithm_version"`
}

// EncryptionInfo holds the password-verification material. Its salt is
// distinct from both data salts.
type EncryptionInfo struct {
	VerificationSalt string `json:"verification_salt"`
	VerificationHash string `json:"verification_hash"`
	Algorithm        string `json:"algorithm"`
}

// WalletSettings is the decrypted form of the settings ciphertext.
type WalletSettings struct {
	SessionTimeoutMinutes int    `json:"session_timeout_minutes"`
	AutoLock              bool   `json:"auto_lock"`
	SecurityLevel         string `json:"security_level"`
}

// DefaultSettings returns the settings a fresh wallet starts with.
func DefaultSettings() WalletSettings {
	return WalletSettings{
		SessionTimeoutMinutes: 15,
		AutoLock:              true,
		SecurityLevel:         "standard",
	}
}

// WalletConfig is the whole-wallet encrypted container.
type WalletConfig struct {
	Version         int            `json:"version"`
	WalletID        string         `json:"wallet_id"`
	Name            string         `json:"name"`
	CreatedAt       time.Time      `json:"created_at"`
	AccountMetadata EncryptedData  `json:"account_metadata"`
	WalletSettings  EncryptedData  `json:"wallet_settings"`
	Encryption      EncryptionInfo `json:"encryption"`
}

func deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt,
		constants.Argon2Time, constants.Argon2Memory, constants.Argon2Threads, constants.Argon2KeyLen)
}

// integrityTag computes the pre-decryption tag over ciphertext, salt,
// nonce and the codec domain tag.
func integrityTag(ciphertext, salt, nonce []byte) []byte {
	h := sha256.New()
	h.Write(ciphertext)
	h.Write(salt)
	h.Write(nonce)
	h.Write([]byte(domainTag))
	return h.Sum(nil)
}

// encrypt seals plaintext under a freshly salted Argon2id key.
// A new salt and nonce are drawn on every call; pairs never repeat.
func encrypt(plaintext []byte, password string) (EncryptedData, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return EncryptedData{}, errors.NewEncryptionError(err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return EncryptedData{}, errors.NewEncryptionError(err)
	}

	key := deriveKey(password, salt)
	defer security.SecureClearBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return EncryptedData{}, errors.NewEncryptionError(err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return EncryptedData{}, errors.NewEncryptionError(err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)
	tag := integrityTag(ciphertext, salt, nonce)

	return EncryptedData{
		Ciphertext:       hex.EncodeToString(ciphertext),
		Nonce:            hex.EncodeToString(nonce),
		Salt:             hex.EncodeToString(salt),
		HMAC:             hex.EncodeToString(tag),
		AlgorithmVersion: algorithmVersion,
	}, nil
}

// decrypt verifies the integrity tag before the GCM call. GCM would
// catch tampering too, but the tag check runs before the expensive
// Argon2id derivation is wasted on re-encryption flows and yields the
// dedicated integrity category.
func decrypt(data EncryptedData, password string) ([]byte, error) {
	if data.AlgorithmVersion != algorithmVersion {
		return nil, errors.NewDecryptionError(nil).
			WithDetails("unsupported algorithm version").
			WithContext("algorithm_version", data.AlgorithmVersion)
	}

	ciphertext, err := hex.DecodeString(data.Ciphertext)
	if err != nil {
		return nil, errors.NewDecryptionError(err).WithDetails("ciphertext is not valid hexadecimal")
	}
	nonce, err := hex.DecodeString(data.Nonce)
	if err != nil {
		return nil, errors.NewDecryptionError(err).WithDetails("nonce is not valid hexadecimal")
	}
	salt, err := hex.DecodeString(data.Salt)
	if err != nil {
		return nil, errors.NewDecryptionError(err).WithDetails("salt is not valid hexadecimal")
	}
	expectedTag, err := hex.DecodeString(data.HMAC)
	if err != nil {
		return nil, errors.NewDecryptionError(err).WithDetails("integrity tag is not valid hexadecimal")
	}

	tag := integrityTag(ciphertext, salt, nonce)
	if subtle.ConstantTimeCompare(tag, expectedTag) != 1 {
		return nil, errors.NewIntegrityCheckError("wallet config data")
	}

	key := deriveKey(password, salt)
	defer security.SecureClearBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.NewDecryptionError(err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.NewDecryptionError(err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.NewInvalidCredentialsError().
			WithDetails("wallet config decryption failed")
	}
	return plaintext, nil
}

// New creates a wallet container from a master password: verification
// salt + hash, empty account metadata, default settings.
func New(name, password string) (*WalletConfig, error) {
	verificationSalt := make([]byte, saltSize)
	if _, err := rand.Read(verificationSalt); err != nil {
		return nil, errors.NewEncryptionError(err)
	}
	verificationHash := deriveKey(password, verificationSalt)

	metadata, err := encrypt([]byte("[]"), password)
	if err != nil {
		return nil, err
	}

	settingsJSON, err := json.Marshal(DefaultSettings())
	if err != nil {
		return nil, errors.NewSerializationError("wallet settings", err)
	}
	settings, err := encrypt(settingsJSON, password)
	if err != nil {
		return nil, err
	}

	return &WalletConfig{
		Version:         configVersion,
		WalletID:        uuid.NewString(),
		Name:            name,
		CreatedAt:       time.Now().UTC(),
		AccountMetadata: metadata,
		WalletSettings:  settings,
		Encryption: EncryptionInfo{
			VerificationSalt: hex.EncodeToString(verificationSalt),
			VerificationHash: hex.EncodeToString(verificationHash),
			Algorithm:        "argon2id",
		},
	}, nil
}

// VerifyMasterPassword recomputes the verification hash and compares
// by value.
func (w *WalletConfig) VerifyMasterPassword(password string) bool {
	salt, err := hex.DecodeString(w.Encryption.VerificationSalt)
	if err != nil {
		return false
	}
	expected, err := hex.DecodeString(w.Encryption.VerificationHash)
	if err != nil {
		return false
	}
	hash := deriveKey(password, salt)
	defer security.SecureClearBytes(hash)
	return subtle.ConstantTimeCompare(hash, expected) == 1
}

// DecryptAccountMetadata returns the account-metadata JSON payload.
func (w *WalletConfig) DecryptAccountMetadata(password string) ([]byte, error) {
	return decrypt(w.AccountMetadata, password)
}

// UpdateAccountMetadata re-encrypts the metadata payload with a fresh
// salt and nonce.
func (w *WalletConfig) UpdateAccountMetadata(payload []byte, password string) error {
	data, err := encrypt(payload, password)
	if err != nil {
		return err
	}
	w.AccountMetadata = data
	return nil
}

// DecryptWalletSettings returns the decrypted settings.
func (w *WalletConfig) DecryptWalletSettings(password string) (WalletSettings, error) {
	payload, err := decrypt(w.WalletSettings, password)
	if err != nil {
		return WalletSettings{}, err
	}
	var settings WalletSettings
	if err := json.Unmarshal(payload, &settings); err != nil {
		return WalletSettings{}, errors.NewSerializationError("wallet settings", err)
	}
	return settings, nil
}

// UpdateWalletSettings re-encrypts the settings with a fresh salt and nonce.
func (w *WalletConfig) UpdateWalletSettings(settings WalletSettings, password string) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return errors.NewSerializationError("wallet settings", err)
	}
	data, err := encrypt(payload, password)
	if err != nil {
		return err
	}
	w.WalletSettings = data
	return nil
}

// UpdateEncryptionInfo rotates the verification salt and hash for a
// password change. The data ciphertexts stay keyed by the old password;
// the caller re-encrypts them separately.
func (w *WalletConfig) UpdateEncryptionInfo(newPassword string) error {
	verificationSalt := make([]byte, saltSize)
	if _, err := rand.Read(verificationSalt); err != nil {
		return errors.NewEncryptionError(err)
	}
	verificationHash := deriveKey(newPassword, verificationSalt)
	defer security.SecureClearBytes(verificationHash)

	w.Encryption = EncryptionInfo{
		VerificationSalt: hex.EncodeToString(verificationSalt),
		VerificationHash: hex.EncodeToString(verificationHash),
		Algorithm:        "argon2id",
	}
	return nil
}

// ChangePassword rotates the verification material and re-encrypts both
// data ciphertexts under the new password in one step.
func (w *WalletConfig) ChangePassword(oldPassword, newPassword string) error {
	if !w.VerifyMasterPassword(oldPassword) {
		return errors.NewInvalidCredentialsError()
	}

	metadata, err := w.DecryptAccountMetadata(oldPassword)
	if err != nil {
		return err
	}
	defer security.SecureClearBytes(metadata)

	settingsPayload, err := decrypt(w.WalletSettings, oldPassword)
	if err != nil {
		return err
	}
	defer security.SecureClearBytes(settingsPayload)

	if err := w.UpdateEncryptionInfo(newPassword); err != nil {
		return err
	}
	if err := w.UpdateAccountMetadata(metadata, newPassword); err != nil {
		return err
	}

	data, err := encrypt(settingsPayload, newPassword)
	if err != nil {
		return err
	}
	w.WalletSettings = data
	return nil
}

// Marshal renders the container as JSON.
func (w *WalletConfig) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(w); err != nil {
		return nil, errors.NewSerializationError("wallet config", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal parses a container from JSON.
func Unmarshal(data []byte) (*WalletConfig, error) {
	var w WalletConfig
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, errors.NewSerializationError("wallet config", err)
	}
	if w.Version != configVersion {
		return nil, errors.New(errors.ErrCodeConfigLoad, "unsupported wallet config version").
			WithContext("version", w.Version)
	}
	return &w, nil
}

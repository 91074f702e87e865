// File: internal/backup/backup.go
//
// Portable encrypted backup container: Argon2id key derivation,
// AES-256-GCM, and an HMAC-SHA256 over the ciphertext keyed by the
// derived key. The HMAC is the authoritative gate: it is verified in
// constant time before any decryption, and its failure surfaces as a
// corruption error, distinct from a wrong-password failure.
package backup

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"wallet.module/internal/constants"
	"wallet.module/internal/errors"
	"wallet.module/internal/security"
)

const (
	containerVersion = 1
	nonceSize        = 12
	saltSize         = 32
)

// BackupContainer is the portable export. All binary fields are hex.
type BackupContainer struct {
	Version    int    `json:"version"`
	ID         string `json:"id"`
	Timestamp  int64  `json:"timestamp"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
	HMAC       string `json:"hmac"`
}

func deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt,
		constants.Argon2Time, constants.Argon2Memory, constants.Argon2Threads, constants.Argon2KeyLen)
}

func computeHMAC(key, ciphertext []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(ciphertext)
	return mac.Sum(nil)
}

// CreateEncryptedBackup seals an already-serialized payload into a
// container with a fresh random salt and nonce.
func CreateEncryptedBackup(payload []byte, password string) (*BackupContainer, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.NewEncryptionError(err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, errors.NewEncryptionError(err)
	}

	key := deriveKey(password, salt)
	defer security.SecureClearBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.NewEncryptionError(err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.NewEncryptionError(err)
	}

	ciphertext := gcm.Seal(nil, nonce, payload, nil)
	tag := computeHMAC(key, ciphertext)

	return &BackupContainer{
		Version:    containerVersion,
		ID:         uuid.NewString(),
		Timestamp:  time.Now().Unix(),
		Salt:       hex.EncodeToString(salt),
		Nonce:      hex.EncodeToString(nonce),
		Ciphertext: hex.EncodeToString(ciphertext),
		HMAC:       hex.EncodeToString(tag),
	}, nil
}

// RestoreFromBackup verifies the HMAC first, then decrypts. An HMAC
// mismatch means corruption or tampering; a GCM failure after a good
// HMAC means the password is wrong for the data key.
func RestoreFromBackup(container *BackupContainer, password string) ([]byte, error) {
	if container.Version != containerVersion {
		return nil, errors.NewBackupCorruptError(nil).
			WithDetails("unsupported backup version").
			WithContext("version", container.Version)
	}

	salt, err := hex.DecodeString(container.Salt)
	if err != nil {
		return nil, errors.NewBackupCorruptError(err).WithDetails("salt is not valid hexadecimal")
	}
	nonce, err := hex.DecodeString(container.Nonce)
	if err != nil {
		return nil, errors.NewBackupCorruptError(err).WithDetails("nonce is not valid hexadecimal")
	}
	ciphertext, err := hex.DecodeString(container.Ciphertext)
	if err != nil {
		return nil, errors.NewBackupCorruptError(err).WithDetails("ciphertext is not valid hexadecimal")
	}
	expectedTag, err := hex.DecodeString(container.HMAC)
	if err != nil {
		return nil, errors.NewBackupCorruptError(err).WithDetails("integrity tag is not valid hexadecimal")
	}

	key := deriveKey(password, salt)
	defer security.SecureClearBytes(key)

	tag := computeHMAC(key, ciphertext)
	if !hmac.Equal(tag, expectedTag) {
		return nil, errors.NewIntegrityCheckError("backup container")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.NewDecryptionError(err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.NewDecryptionError(err)
	}

	payload, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.NewInvalidCredentialsError().
			WithDetails("backup decryption failed")
	}
	return payload, nil
}

// Marshal renders the container as JSON.
func Marshal(container *BackupContainer) ([]byte, error) {
	data, err := json.MarshalIndent(container, "", "  ")
	if err != nil {
		return nil, errors.NewSerializationError("backup container", err)
	}
	return data, nil
}

// Unmarshal parses a container from JSON.
func Unmarshal(data []byte) (*BackupContainer, error) {
	var container BackupContainer
	if err := json.Unmarshal(data, &container); err != nil {
		return nil, errors.NewBackupCorruptError(err).
			WithDetails("not a valid backup document")
	}
	return &container, nil
}

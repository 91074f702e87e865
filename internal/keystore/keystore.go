// File: internal/keystore/keystore.go
//
// MetaMask / Web3 Secret Storage v3 codec. The file layout is bit-exact
// for interop: one JSON object per key, binary fields hex-encoded, MAC
// computed over the second half of the derived key plus the ciphertext.
package keystore

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
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"

	"wallet.module/internal/constants"
	"wallet.module/internal/errors"
	"wallet.module/internal/security"
)

// CipherParams holds the AES-CTR initialization vector.
type CipherParams struct {
	IV string `json:"iv"`
}

// KDFParams carries the parameters of whichever KDF the file uses.
// PBKDF2 uses Salt/DKLen/PRF/C; scrypt uses Salt/DKLen/N/R/P.
type KDFParams struct {
	Salt  string `json:"salt"`
	DKLen int    `json:"dklen"`
	PRF   string `json:"prf,omitempty"`
	C     int    `json:"c,omitempty"`
	N     int    `json:"n,omitempty"`
	R     int    `json:"r,omitempty"`
	P     int    `json:"p,omitempty"`
}

// CryptoSection is the crypto envelope inside a v3 keystore.
type CryptoSection struct {
	Cipher       string       `json:"cipher"`
	Ciphertext   string       `json:"ciphertext"`
	CipherParams CipherParams `json:"cipherparams"`
	KDF          string       `json:"kdf"`
	KDFParams    KDFParams    `json:"kdfparams"`
	MAC          string       `json:"mac"`
}

// Keystore is a v3-compatible single-key keystore file.
type Keystore struct {
	Version   int           `json:"version"`
	ID        string        `json:"id"`
	Address   string        `json:"address"`
	Crypto    CryptoSection `json:"crypto"`
	Timestamp int64         `json:"timestamp,omitempty"`
}

// EncryptOptions selects the KDF and cipher for a new keystore.
// Zero values mean PBKDF2 with the default iteration count and
// aes-128-ctr, matching the common MetaMask export.
type EncryptOptions struct {
	KDF        string
	Cipher     string
	Iterations int
}

// Encrypt seals a 32-byte private key into a v3 keystore.
func Encrypt(privateKey []byte, address, password string, opts EncryptOptions) (*Keystore, error) {
	if len(privateKey) != 32 {
		return nil, errors.NewInvalidPrivateKeyError("private key must be exactly 32 bytes")
	}

	if opts.KDF == "" {
		opts.KDF = constants.KdfPBKDF2
	}
	if opts.Cipher == "" {
		opts.Cipher = constants.CipherAES128CTR
	}
	if opts.Iterations == 0 {
		opts.Iterations = constants.PBKDF2Iterations
	}

	switch opts.Cipher {
	case constants.CipherAES128CTR, constants.CipherAES256CTR:
	default:
		return nil, errors.NewKeystoreFormatError("cipher", opts.Cipher)
	}

	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.NewEncryptionError(err)
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, errors.NewEncryptionError(err)
	}

	var derivedKey []byte
	var kdfParams KDFParams
	switch opts.KDF {
	case constants.KdfPBKDF2:
		if opts.Iterations < constants.MinPBKDF2Iterations {
			return nil, errors.NewKeystoreFormatError("kdf iterations", opts.Iterations).
				WithDetails("PBKDF2 iteration count below the supported minimum")
		}
		derivedKey = pbkdf2.Key([]byte(password), salt, opts.Iterations, constants.DerivedKeyLength, sha256.New)
		kdfParams = KDFParams{
			Salt:  hex.EncodeToString(salt),
			DKLen: constants.DerivedKeyLength,
			PRF:   constants.PBKDF2PRF,
			C:     opts.Iterations,
		}
	case constants.KdfScrypt:
		var err error
		derivedKey, err = scrypt.Key([]byte(password), salt, constants.ScryptN, constants.ScryptR, constants.ScryptP, constants.DerivedKeyLength)
		if err != nil {
			return nil, errors.NewEncryptionError(err)
		}
		kdfParams = KDFParams{
			Salt:  hex.EncodeToString(salt),
			DKLen: constants.DerivedKeyLength,
			N:     constants.ScryptN,
			R:     constants.ScryptR,
			P:     constants.ScryptP,
		}
	default:
		return nil, errors.NewKeystoreFormatError("kdf", opts.KDF)
	}
	defer security.SecureClearBytes(derivedKey)

	ciphertext, err := applyCTR(opts.Cipher, derivedKey, iv, privateKey)
	if err != nil {
		return nil, err
	}

	mac := computeMAC(derivedKey, ciphertext)

	return &Keystore{
		Version: constants.KeystoreVersion,
		ID:      uuid.NewString(),
		Address: address,
		Crypto: CryptoSection{
			Cipher:       opts.Cipher,
			Ciphertext:   hex.EncodeToString(ciphertext),
			CipherParams: CipherParams{IV: hex.EncodeToString(iv)},
			KDF:          opts.KDF,
			KDFParams:    kdfParams,
			MAC:          hex.EncodeToString(mac),
		},
		Timestamp: time.Now().Unix(),
	}, nil
}

// Decrypt recovers the private key from a v3 keystore. Unsupported
// version/cipher/kdf are rejected before any crypto runs; a MAC
// mismatch (the wrong-password signal in this format) is detected
// before decryption and never yields plaintext.
func Decrypt(ks *Keystore, password string) ([]byte, error) {
	if ks.Version != constants.KeystoreVersion {
		return nil, errors.NewKeystoreFormatError("version", ks.Version)
	}
	switch ks.Crypto.Cipher {
	case constants.CipherAES128CTR, constants.CipherAES256CTR:
	default:
		return nil, errors.NewKeystoreFormatError("cipher", ks.Crypto.Cipher)
	}

	salt, err := hex.DecodeString(ks.Crypto.KDFParams.Salt)
	if err != nil {
		return nil, errors.NewKeystoreFormatError("kdfparams.salt", ks.Crypto.KDFParams.Salt)
	}
	iv, err := hex.DecodeString(ks.Crypto.CipherParams.IV)
	if err != nil {
		return nil, errors.NewKeystoreFormatError("cipherparams.iv", ks.Crypto.CipherParams.IV)
	}
	ciphertext, err := hex.DecodeString(ks.Crypto.Ciphertext)
	if err != nil {
		return nil, errors.NewKeystoreFormatError("ciphertext", "not valid hexadecimal")
	}
	expectedMAC, err := hex.DecodeString(ks.Crypto.MAC)
	if err != nil {
		return nil, errors.NewKeystoreFormatError("mac", "not valid hexadecimal")
	}

	dkLen := ks.Crypto.KDFParams.DKLen
	if dkLen != constants.DerivedKeyLength {
		return nil, errors.NewKeystoreFormatError("kdfparams.dklen", dkLen)
	}

	var derivedKey []byte
	switch ks.Crypto.KDF {
	case constants.KdfPBKDF2:
		if ks.Crypto.KDFParams.PRF != constants.PBKDF2PRF {
			return nil, errors.NewKeystoreFormatError("kdfparams.prf", ks.Crypto.KDFParams.PRF)
		}
		if ks.Crypto.KDFParams.C <= 0 {
			return nil, errors.NewKeystoreFormatError("kdfparams.c", ks.Crypto.KDFParams.C)
		}
		derivedKey = pbkdf2.Key([]byte(password), salt, ks.Crypto.KDFParams.C, dkLen, sha256.New)
	case constants.KdfScrypt:
		derivedKey, err = scrypt.Key([]byte(password), salt, ks.Crypto.KDFParams.N, ks.Crypto.KDFParams.R, ks.Crypto.KDFParams.P, dkLen)
		if err != nil {
			return nil, errors.NewDecryptionError(err)
		}
	default:
		return nil, errors.NewKeystoreFormatError("kdf", ks.Crypto.KDF)
	}
	defer security.SecureClearBytes(derivedKey)

	mac := computeMAC(derivedKey, ciphertext)
	if !hmac.Equal(mac, expectedMAC) {
		return nil, errors.NewInvalidCredentialsError().
			WithDetails("keystore MAC verification failed")
	}

	plaintext, err := applyCTR(ks.Crypto.Cipher, derivedKey, iv, ciphertext)
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}

// Marshal renders the keystore as interop JSON.
func Marshal(ks *Keystore) ([]byte, error) {
	data, err := json.MarshalIndent(ks, "", "  ")
	if err != nil {
		return nil, errors.NewSerializationError("keystore", err)
	}
	return data, nil
}

// Unmarshal parses interop JSON into a keystore.
func Unmarshal(data []byte) (*Keystore, error) {
	var ks Keystore
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, errors.NewKeystoreFormatError("json", "not a valid keystore document")
	}
	return &ks, nil
}

// computeMAC follows the v3 convention: SHA-256 over the second half of
// the derived key and the ciphertext.
func computeMAC(derivedKey, ciphertext []byte) []byte {
	h := sha256.New()
	h.Write(derivedKey[16:32])
	h.Write(ciphertext)
	return h.Sum(nil)
}

// applyCTR runs AES-CTR in either direction. aes-128-ctr uses the first
// 16 bytes of the derived key, aes-256-ctr the full 32.
func applyCTR(cipherName string, derivedKey, iv, input []byte) ([]byte, error) {
	var key []byte
	switch cipherName {
	case constants.CipherAES128CTR:
		key = derivedKey[:16]
	case constants.CipherAES256CTR:
		key = derivedKey[:32]
	default:
		return nil, errors.NewKeystoreFormatError("cipher", cipherName)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.NewDecryptionError(err)
	}
	if len(iv) != aes.BlockSize {
		return nil, errors.NewKeystoreFormatError("cipherparams.iv", "must be 16 bytes")
	}

	out := make([]byte, len(input))
	cipher.NewCTR(block, iv).XORKeyStream(out, input)
	return out, nil
}

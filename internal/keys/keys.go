// File: internal/keys/keys.go
package keys

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
	"github.com/tyler-smith/go-bip39"

	"wallet.module/internal/constants"
	"wallet.module/internal/errors"
	"wallet.module/internal/security"
)

// DerivedAccount is the result of one derivation: a checksummed address
// plus the raw 32-byte signing key. Callers own the key bytes and must
// wipe them with security.SecureClearBytes when done.
type DerivedAccount struct {
	Address    string
	PrivateKey []byte
	Path       string
}

var privateKeyPattern = regexp.MustCompile(`^(0x)?[0-9a-fA-F]{64}$`)

// GenerateMnemonic creates a fresh BIP-39 phrase from 128 or 256 bits
// of entropy (12 or 24 words).
func GenerateMnemonic(bits int) (string, error) {
	if bits != 128 && bits != 256 {
		return "", errors.NewInvalidSeedPhraseError(
			fmt.Sprintf("entropy must be 128 or 256 bits, got %d", bits))
	}
	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", errors.NewKeyDerivationError("failed to generate entropy", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", errors.NewKeyDerivationError("failed to generate mnemonic", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic checks a phrase against the BIP-39 wordlist and checksum.
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}

// DeriveAccount derives one signing key from a mnemonic. Derivation is
// pure: the same mnemonic, passphrase and path always produce the same
// address. An empty path means the default m/44'/60'/0'/0/0.
func DeriveAccount(mnemonic, passphrase, path string) (*DerivedAccount, error) {
	if !ValidateMnemonic(mnemonic) {
		return nil, errors.NewInvalidSeedPhraseError("the phrase failed BIP-39 validation")
	}
	if path == "" {
		path = constants.DefaultDerivationPath
	}

	derivationPath, err := hdwallet.ParseDerivationPath(path)
	if err != nil {
		return nil, errors.NewKeyDerivationError("invalid derivation path", err).
			WithContext("path", path)
	}

	seed := bip39.NewSeed(mnemonic, passphrase)
	defer security.SecureClearBytes(seed)

	wallet, err := hdwallet.NewFromSeed(seed)
	if err != nil {
		return nil, errors.NewKeyDerivationError("failed to build HD wallet from seed", err)
	}

	account, err := wallet.Derive(derivationPath, false)
	if err != nil {
		return nil, errors.NewKeyDerivationError("failed to derive account", err).
			WithContext("path", path)
	}

	privateKey, err := wallet.PrivateKey(account)
	if err != nil {
		return nil, errors.NewKeyDerivationError("failed to extract private key", err)
	}

	address, err := addressFromPrivateKey(privateKey)
	if err != nil {
		return nil, err
	}

	return &DerivedAccount{
		Address:    address,
		PrivateKey: crypto.FromECDSA(privateKey),
		Path:       path,
	}, nil
}

// DeriveAccounts derives count accounts by appending /0../count-1 to the
// base path. Distinct indices always yield distinct addresses.
func DeriveAccounts(mnemonic, passphrase, basePath string, count int) ([]*DerivedAccount, error) {
	if count <= 0 {
		return nil, errors.NewKeyDerivationError("account count must be positive", nil)
	}
	if basePath == "" {
		basePath = constants.BaseDerivationPath
	}

	accounts := make([]*DerivedAccount, 0, count)
	for i := 0; i < count; i++ {
		path := fmt.Sprintf("%s/%d", basePath, i)
		account, err := DeriveAccount(mnemonic, passphrase, path)
		if err != nil {
			for _, a := range accounts {
				security.SecureClearBytes(a.PrivateKey)
			}
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// ValidatePrivateKey checks the hex format of a private key.
func ValidatePrivateKey(pk string) bool {
	return privateKeyPattern.MatchString(pk)
}

// ParsePrivateKey parses a 64-hex-character private key, with or without
// the 0x prefix. Rejects the zero key and any scalar at or above the
// secp256k1 group order.
func ParsePrivateKey(pk string) (*DerivedAccount, error) {
	if !ValidatePrivateKey(pk) {
		return nil, errors.NewInvalidPrivateKeyError("expected 64 hexadecimal characters")
	}

	cleanPk := strings.TrimPrefix(pk, "0x")
	keyBytes, err := hex.DecodeString(cleanPk)
	if err != nil {
		return nil, errors.NewInvalidPrivateKeyError("not valid hexadecimal")
	}
	defer security.SecureClearBytes(keyBytes)

	// ToECDSA rejects the zero key and scalars outside [1, N-1].
	privateKey, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		return nil, errors.NewInvalidPrivateKeyError("key is outside the valid secp256k1 range")
	}

	address, err := addressFromPrivateKey(privateKey)
	if err != nil {
		return nil, err
	}

	return &DerivedAccount{
		Address:    address,
		PrivateKey: crypto.FromECDSA(privateKey),
		Path:       "imported",
	}, nil
}

func addressFromPrivateKey(privateKey *ecdsa.PrivateKey) (string, error) {
	publicKey := privateKey.Public()
	publicKeyECDSA, ok := publicKey.(*ecdsa.PublicKey)
	if !ok {
		return "", errors.NewKeyDerivationError("error casting public key to ECDSA", nil)
	}
	return crypto.PubkeyToAddress(*publicKeyECDSA).Hex(), nil
}

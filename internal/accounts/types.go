// File: internal/accounts/types.go
package accounts

import (
	"time"

	"wallet.module/internal/constants"
	"wallet.module/internal/keychain"
)

// SecureAccount is one wallet account. It never holds raw key bytes,
// only references into the keychain collaborator.
type SecureAccount struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	Address          string                 `json:"address"`
	Key              keychain.KeyReference  `json:"key"`
	SeedKey          *keychain.KeyReference `json:"seed_key,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	IsHardware       bool                   `json:"is_hardware"`
	DerivationPath   string                 `json:"derivation_path"`
	Tags             []string               `json:"tags,omitempty"`
	LastUsed         time.Time              `json:"last_used"`
	TransactionCount uint64                 `json:"transaction_count"`
}

// clone returns a copy safe to hand to callers.
func (a *SecureAccount) clone() *SecureAccount {
	out := *a
	if a.SeedKey != nil {
		seedKey := *a.SeedKey
		out.SeedKey = &seedKey
	}
	if a.Tags != nil {
		out.Tags = append([]string(nil), a.Tags...)
	}
	return &out
}

// CreateConfig describes a new HD account. An empty Mnemonic means a
// fresh 12-word phrase is generated; an empty DerivationPath means the
// default Ethereum path.
type CreateConfig struct {
	Name           string
	Mnemonic       string
	Passphrase     string
	DerivationPath string
	Tags           []string
}

// ImportSource is a sealed union of the supported import variants.
type ImportSource interface {
	kind() string
}

// SeedSource imports from a BIP-39 mnemonic.
type SeedSource struct {
	Name           string
	Mnemonic       string
	Passphrase     string
	DerivationPath string
}

func (SeedSource) kind() string { return constants.ImportSourceSeed }

// PrivateKeySource imports a raw hex private key.
type PrivateKeySource struct {
	Name          string
	PrivateKeyHex string
}

func (PrivateKeySource) kind() string { return constants.ImportSourcePrivateKey }

// KeystoreSource imports a MetaMask v3 keystore document.
type KeystoreSource struct {
	Name     string
	JSON     []byte
	Password string
}

func (KeystoreSource) kind() string { return constants.ImportSourceKeystore }

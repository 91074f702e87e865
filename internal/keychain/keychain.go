// File: internal/keychain/keychain.go
//
// Keychain is the collaborator boundary behind which platform secret
// stores live. The core resolves key material only through this
// interface; OS-specific backends plug in from outside.
package keychain

import (
	"github.com/google/uuid"

	"wallet.module/internal/constants"
)

// KeyReference is an opaque handle to one keychain entry. It is safe to
// persist and log; it never contains key material.
type KeyReference struct {
	ID      string `json:"id"`
	Service string `json:"service"`
	Account string `json:"account"`
}

// NewKeyReference mints a reference for an account-scoped secret.
func NewKeyReference(account string) KeyReference {
	return KeyReference{
		ID:      uuid.NewString(),
		Service: constants.KeychainService,
		Account: account,
	}
}

// Keychain stores and resolves secrets by reference.
type Keychain interface {
	Store(ref KeyReference, secret []byte) error
	Retrieve(ref KeyReference) ([]byte, error)
	Delete(ref KeyReference) error
}

// File: internal/keychain/memory.go
package keychain

import (
	"sync"

	"wallet.module/internal/errors"
	"wallet.module/internal/security"
)

// MemoryKeychain is a volatile backend for tests and embedding.
type MemoryKeychain struct {
	mu      sync.Mutex
	secrets map[string]*security.SecureBuffer
}

func NewMemoryKeychain() *MemoryKeychain {
	return &MemoryKeychain{secrets: make(map[string]*security.SecureBuffer)}
}

func (k *MemoryKeychain) Store(ref KeyReference, secret []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if prev, ok := k.secrets[ref.ID]; ok {
		prev.Destroy()
	}
	k.secrets[ref.ID] = security.NewSecureBufferFrom(secret)
	return nil
}

func (k *MemoryKeychain) Retrieve(ref KeyReference) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	buf, ok := k.secrets[ref.ID]
	if !ok {
		return nil, errors.NewKeychainError("retrieve", nil).
			WithDetails("no entry for this key reference")
	}
	return buf.Bytes(), nil
}

func (k *MemoryKeychain) Delete(ref KeyReference) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if buf, ok := k.secrets[ref.ID]; ok {
		buf.Destroy()
		delete(k.secrets, ref.ID)
	}
	return nil
}

// Wipe destroys every stored secret.
func (k *MemoryKeychain) Wipe() {
	k.mu.Lock()
	defer k.mu.Unlock()

	for id, buf := range k.secrets {
		buf.Destroy()
		delete(k.secrets, id)
	}
}

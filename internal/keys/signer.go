// File: internal/keys/signer.go
package keys

import (
	"github.com/ethereum/go-ethereum/crypto"

	"wallet.module/internal/errors"
	"wallet.module/internal/security"
)

// Signer is the capability an external transaction/provider layer
// consumes: an address plus the ability to sign a 32-byte hash. The
// core never performs network I/O itself.
type Signer interface {
	Address() string
	SignHash(hash []byte) ([]byte, error)
	// Close releases any key material the signer holds.
	Close()
}

// SoftwareSigner signs with a private key held in a secure buffer.
type SoftwareSigner struct {
	address string
	key     *security.SecureBuffer
}

// NewSoftwareSigner copies the key into locked memory. The caller keeps
// ownership of privateKey and should wipe it.
func NewSoftwareSigner(address string, privateKey []byte) *SoftwareSigner {
	return &SoftwareSigner{
		address: address,
		key:     security.NewSecureBufferFrom(privateKey),
	}
}

func (s *SoftwareSigner) Address() string {
	return s.address
}

// SignHash produces a 65-byte [R || S || V] signature over a 32-byte hash.
func (s *SoftwareSigner) SignHash(hash []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, errors.NewInvalidPrivateKeyError("hash must be exactly 32 bytes").
			WithContext("hash_len", len(hash))
	}

	var sig []byte
	err := s.key.WithBytes(func(keyBytes []byte) error {
		if keyBytes == nil {
			return errors.NewKeyDerivationError("signer has been closed", nil)
		}
		privateKey, err := crypto.ToECDSA(keyBytes)
		if err != nil {
			return errors.NewInvalidPrivateKeyError("stored key is not a valid secp256k1 scalar")
		}
		sig, err = crypto.Sign(hash, privateKey)
		if err != nil {
			return errors.NewKeyDerivationError("signing failed", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sig, nil
}

func (s *SoftwareSigner) Close() {
	s.key.Destroy()
}

// HardwareSigner is the surface a hardware-backed account presents to
// the core: address and derivation path only. The USB/transport driver
// is an external collaborator; signing through it is out of scope here.
type HardwareSigner struct {
	address string
	path    string
}

func NewHardwareSigner(address, derivationPath string) *HardwareSigner {
	return &HardwareSigner{address: address, path: derivationPath}
}

func (s *HardwareSigner) Address() string {
	return s.address
}

// DerivationPath reports the path the device must derive before signing.
func (s *HardwareSigner) DerivationPath() string {
	return s.path
}

func (s *HardwareSigner) SignHash(hash []byte) ([]byte, error) {
	return nil, errors.New(errors.ErrCodeInternal, "hardware signing requires the device transport layer").
		WithContext("address", s.address)
}

func (s *HardwareSigner) Close() {}

// File: internal/keys/keys_test.go
package keys

import (
	"strings"
	"testing"

	"wallet.module/internal/errors"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// Address of the test mnemonic at m/44'/60'/0'/0/0.
const testAddress = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"

func TestDeriveAccountDeterminism(t *testing.T) {
	first, err := DeriveAccount(testMnemonic, "", "")
	if err != nil {
		t.Fatalf("DeriveAccount failed: %v", err)
	}
	second, err := DeriveAccount(testMnemonic, "", "")
	if err != nil {
		t.Fatalf("DeriveAccount failed: %v", err)
	}

	if first.Address != testAddress {
		t.Errorf("expected fixed address %s, got %s", testAddress, first.Address)
	}
	if first.Address != second.Address {
		t.Errorf("derivation is not deterministic: %s != %s", first.Address, second.Address)
	}
	if len(first.PrivateKey) != 32 {
		t.Errorf("expected 32-byte private key, got %d bytes", len(first.PrivateKey))
	}
}

func TestDeriveAccountDistinctPaths(t *testing.T) {
	a, err := DeriveAccount(testMnemonic, "", "m/44'/60'/0'/0/0")
	if err != nil {
		t.Fatalf("DeriveAccount failed: %v", err)
	}
	b, err := DeriveAccount(testMnemonic, "", "m/44'/60'/0'/0/1")
	if err != nil {
		t.Fatalf("DeriveAccount failed: %v", err)
	}
	if a.Address == b.Address {
		t.Errorf("different paths produced the same address %s", a.Address)
	}
}

func TestDeriveAccountPassphraseChangesAddress(t *testing.T) {
	plain, err := DeriveAccount(testMnemonic, "", "")
	if err != nil {
		t.Fatalf("DeriveAccount failed: %v", err)
	}
	withPassphrase, err := DeriveAccount(testMnemonic, "trezor", "")
	if err != nil {
		t.Fatalf("DeriveAccount failed: %v", err)
	}
	if plain.Address == withPassphrase.Address {
		t.Error("passphrase did not change the derived address")
	}
}

func TestDeriveAccountInvalidInputs(t *testing.T) {
	tests := []struct {
		name     string
		mnemonic string
		path     string
		wantCode errors.ErrorCode
	}{
		{"bad mnemonic", "not a real mnemonic phrase at all ok", "", errors.ErrCodeInvalidSeedPhrase},
		{"bad checksum", strings.Repeat("abandon ", 11) + "abandon", "", errors.ErrCodeInvalidSeedPhrase},
		{"bad path", testMnemonic, "m/44'/60'/x", errors.ErrCodeKeyDerivation},
		{"not a path", testMnemonic, "garbage", errors.ErrCodeKeyDerivation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveAccount(tt.mnemonic, "", tt.path)
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errors.GetCode(err); got != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, got)
			}
		})
	}
}

func TestDeriveAccountsDistinctIndices(t *testing.T) {
	accounts, err := DeriveAccounts(testMnemonic, "", "", 5)
	if err != nil {
		t.Fatalf("DeriveAccounts failed: %v", err)
	}
	if len(accounts) != 5 {
		t.Fatalf("expected 5 accounts, got %d", len(accounts))
	}

	seen := make(map[string]bool)
	for _, account := range accounts {
		if seen[account.Address] {
			t.Errorf("duplicate address %s across indices", account.Address)
		}
		seen[account.Address] = true
	}

	if accounts[0].Address != testAddress {
		t.Errorf("index 0 should match the default path address, got %s", accounts[0].Address)
	}
}

func TestGenerateMnemonic(t *testing.T) {
	tests := []struct {
		bits    int
		words   int
		wantErr bool
	}{
		{128, 12, false},
		{256, 24, false},
		{160, 0, true},
		{0, 0, true},
	}

	for _, tt := range tests {
		mnemonic, err := GenerateMnemonic(tt.bits)
		if tt.wantErr {
			if err == nil {
				t.Errorf("bits=%d: expected an error", tt.bits)
			}
			continue
		}
		if err != nil {
			t.Errorf("bits=%d: unexpected error: %v", tt.bits, err)
			continue
		}
		if got := len(strings.Fields(mnemonic)); got != tt.words {
			t.Errorf("bits=%d: expected %d words, got %d", tt.bits, tt.words, got)
		}
		if !ValidateMnemonic(mnemonic) {
			t.Errorf("bits=%d: generated mnemonic fails validation", tt.bits)
		}
	}
}

func TestParsePrivateKey(t *testing.T) {
	validKey := "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain hex", validKey, false},
		{"with 0x prefix", "0x" + validKey, false},
		{"too short", validKey[:62], true},
		{"too long", validKey + "ab", true},
		{"not hex", strings.Repeat("zz", 32), true},
		{"zero key", strings.Repeat("00", 32), true},
		{"at group order", "fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", true},
		{"above group order", strings.Repeat("ff", 32), true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account, err := ParsePrivateKey(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				if got := errors.GetCode(err); got != errors.ErrCodeInvalidPrivateKey {
					t.Errorf("expected INVALID_PRIVATE_KEY, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(account.PrivateKey) != 32 {
				t.Errorf("expected 32-byte key, got %d", len(account.PrivateKey))
			}
			if !strings.HasPrefix(account.Address, "0x") {
				t.Errorf("expected a checksummed address, got %q", account.Address)
			}
		})
	}
}

func TestParsePrivateKeyPrefixInsensitive(t *testing.T) {
	key := "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

	plain, err := ParsePrivateKey(key)
	if err != nil {
		t.Fatalf("ParsePrivateKey failed: %v", err)
	}
	prefixed, err := ParsePrivateKey("0x" + key)
	if err != nil {
		t.Fatalf("ParsePrivateKey failed: %v", err)
	}
	if plain.Address != prefixed.Address {
		t.Errorf("prefix changed the derived address: %s != %s", plain.Address, prefixed.Address)
	}
}

func TestSoftwareSigner(t *testing.T) {
	account, err := DeriveAccount(testMnemonic, "", "")
	if err != nil {
		t.Fatalf("DeriveAccount failed: %v", err)
	}

	signer := NewSoftwareSigner(account.Address, account.PrivateKey)
	defer signer.Close()

	if signer.Address() != account.Address {
		t.Errorf("signer address mismatch: %s != %s", signer.Address(), account.Address)
	}

	hash := make([]byte, 32)
	for i := range hash {
		hash[i] = byte(i)
	}

	sig, err := signer.SignHash(hash)
	if err != nil {
		t.Fatalf("SignHash failed: %v", err)
	}
	if len(sig) != 65 {
		t.Errorf("expected a 65-byte signature, got %d", len(sig))
	}

	if _, err := signer.SignHash(hash[:31]); err == nil {
		t.Error("expected an error for a short hash")
	}
}

func TestHardwareSignerSurface(t *testing.T) {
	signer := NewHardwareSigner(testAddress, "m/44'/60'/0'/0/0")
	if signer.Address() != testAddress {
		t.Errorf("unexpected address %s", signer.Address())
	}
	if signer.DerivationPath() != "m/44'/60'/0'/0/0" {
		t.Errorf("unexpected path %s", signer.DerivationPath())
	}
	if _, err := signer.SignHash(make([]byte, 32)); err == nil {
		t.Error("hardware signing without a device transport should fail")
	}
}

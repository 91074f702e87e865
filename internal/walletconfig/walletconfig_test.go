// File: internal/walletconfig/walletconfig_test.go
package walletconfig

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"path/filepath"
	"testing"

	"wallet.module/internal/errors"
)

const testPassword = "Sn0wMobile!2024"

func TestNewWalletVerifiesPassword(t *testing.T) {
	w, err := New("main", testPassword)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if !w.VerifyMasterPassword(testPassword) {
		t.Error("correct password must verify")
	}
	if w.VerifyMasterPassword("wrong") {
		t.Error("wrong password must not verify")
	}
	if w.WalletID == "" {
		t.Error("wallet id must be set")
	}
}

func TestFreshWalletHasEmptyAccountList(t *testing.T) {
	w, err := New("main", testPassword)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := w.DecryptAccountMetadata("wrong"); err == nil {
		t.Fatal("decrypting with the wrong password must fail")
	}

	payload, err := w.DecryptAccountMetadata(testPassword)
	if err != nil {
		t.Fatalf("DecryptAccountMetadata failed: %v", err)
	}

	var list []json.RawMessage
	if err := json.Unmarshal(payload, &list); err != nil {
		t.Fatalf("metadata payload is not a JSON list: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("fresh wallet should have no accounts, got %d", len(list))
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	w, err := New("main", testPassword)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	payload := []byte(`[{"name":"TestUser"}]`)
	if err := w.UpdateAccountMetadata(payload, testPassword); err != nil {
		t.Fatalf("UpdateAccountMetadata failed: %v", err)
	}

	decrypted, err := w.DecryptAccountMetadata(testPassword)
	if err != nil {
		t.Fatalf("DecryptAccountMetadata failed: %v", err)
	}
	if !bytes.Equal(decrypted, payload) {
		t.Errorf("round trip mismatch: %s != %s", decrypted, payload)
	}
}

func TestUpdateUsesFreshSaltAndNonce(t *testing.T) {
	w, err := New("main", testPassword)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	payload := []byte(`["same payload"]`)
	if err := w.UpdateAccountMetadata(payload, testPassword); err != nil {
		t.Fatalf("UpdateAccountMetadata failed: %v", err)
	}
	first := w.AccountMetadata

	if err := w.UpdateAccountMetadata(payload, testPassword); err != nil {
		t.Fatalf("UpdateAccountMetadata failed: %v", err)
	}
	second := w.AccountMetadata

	if first.Salt == second.Salt {
		t.Error("salt must be fresh on every update")
	}
	if first.Nonce == second.Nonce {
		t.Error("nonce must be fresh on every update")
	}
}

func TestVerificationSaltDistinctFromDataSalts(t *testing.T) {
	w, err := New("main", testPassword)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if w.Encryption.VerificationSalt == w.AccountMetadata.Salt {
		t.Error("verification salt must differ from the metadata salt")
	}
	if w.Encryption.VerificationSalt == w.WalletSettings.Salt {
		t.Error("verification salt must differ from the settings salt")
	}
	if w.AccountMetadata.Salt == w.WalletSettings.Salt {
		t.Error("the two data ciphertexts must use independent salts")
	}
}

func TestTamperedCiphertextFailsIntegrity(t *testing.T) {
	w, err := New("main", testPassword)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	raw, err := hex.DecodeString(w.AccountMetadata.Ciphertext)
	if err != nil {
		t.Fatalf("bad test fixture: %v", err)
	}
	raw[0] ^= 0x01
	w.AccountMetadata.Ciphertext = hex.EncodeToString(raw)

	_, err = w.DecryptAccountMetadata(testPassword)
	if err == nil {
		t.Fatal("tampered ciphertext must fail")
	}
	if got := errors.GetCode(err); got != errors.ErrCodeIntegrityCheck {
		t.Errorf("expected INTEGRITY_CHECK_FAILED, got %s", got)
	}
}

func TestDefaultSettingsRoundTrip(t *testing.T) {
	w, err := New("main", testPassword)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	settings, err := w.DecryptWalletSettings(testPassword)
	if err != nil {
		t.Fatalf("DecryptWalletSettings failed: %v", err)
	}
	if settings != DefaultSettings() {
		t.Errorf("fresh wallet should carry default settings, got %+v", settings)
	}

	settings.SessionTimeoutMinutes = 5
	settings.AutoLock = false
	if err := w.UpdateWalletSettings(settings, testPassword); err != nil {
		t.Fatalf("UpdateWalletSettings failed: %v", err)
	}

	reread, err := w.DecryptWalletSettings(testPassword)
	if err != nil {
		t.Fatalf("DecryptWalletSettings failed: %v", err)
	}
	if reread != settings {
		t.Errorf("settings round trip mismatch: %+v != %+v", reread, settings)
	}
}

func TestUpdateEncryptionInfoLeavesDataKeyed(t *testing.T) {
	w, err := New("main", testPassword)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	oldSalt := w.Encryption.VerificationSalt
	if err := w.UpdateEncryptionInfo("NewPassword!1"); err != nil {
		t.Fatalf("UpdateEncryptionInfo failed: %v", err)
	}

	if w.Encryption.VerificationSalt == oldSalt {
		t.Error("verification salt must rotate")
	}
	if !w.VerifyMasterPassword("NewPassword!1") {
		t.Error("new password must verify after rotation")
	}

	// The data ciphertexts are still keyed by the old password.
	if _, err := w.DecryptAccountMetadata(testPassword); err != nil {
		t.Errorf("old password must still decrypt the data: %v", err)
	}
}

func TestChangePasswordReEncryptsEverything(t *testing.T) {
	w, err := New("main", testPassword)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	payload := []byte(`["account"]`)
	if err := w.UpdateAccountMetadata(payload, testPassword); err != nil {
		t.Fatalf("UpdateAccountMetadata failed: %v", err)
	}

	if err := w.ChangePassword("wrong", "NewPassword!1"); err == nil {
		t.Fatal("password change with the wrong old password must fail")
	}
	if err := w.ChangePassword(testPassword, "NewPassword!1"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	decrypted, err := w.DecryptAccountMetadata("NewPassword!1")
	if err != nil {
		t.Fatalf("new password must decrypt the metadata: %v", err)
	}
	if !bytes.Equal(decrypted, payload) {
		t.Error("password change lost the metadata payload")
	}
	if _, err := w.DecryptAccountMetadata(testPassword); err == nil {
		t.Error("old password must no longer decrypt the metadata")
	}
	if _, err := w.DecryptWalletSettings("NewPassword!1"); err != nil {
		t.Errorf("new password must decrypt the settings: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	w, err := New("main", testPassword)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "wallet.json")
	if err := Save(w, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !Exists(path) {
		t.Fatal("wallet file should exist after save")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.WalletID != w.WalletID {
		t.Errorf("wallet id mismatch after reload: %s != %s", loaded.WalletID, w.WalletID)
	}
	if !loaded.VerifyMasterPassword(testPassword) {
		t.Error("reloaded wallet must verify the password")
	}
	if _, err := loaded.DecryptAccountMetadata(testPassword); err != nil {
		t.Errorf("reloaded wallet must decrypt metadata: %v", err)
	}
}

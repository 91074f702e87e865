// File: internal/accounts/manager_test.go
package accounts

import (
	"encoding/hex"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet.module/internal/audit"
	"wallet.module/internal/config"
	"wallet.module/internal/constants"
	"wallet.module/internal/errors"
	"wallet.module/internal/keychain"
	"wallet.module/internal/keystore"
	"wallet.module/internal/walletconfig"
)

const (
	testPassword = "Sn0wMobile!2024"
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testAddress  = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	audit.InitDiscardLogger()

	dir := t.TempDir()
	cfg := &config.Config{
		DataDir:               dir,
		SessionTimeoutMinutes: 15,
		CheckIntervalSeconds:  1,
		CacheTTLMinutes:       5,
		ClipboardClearSeconds: 1,
		RateLimits:            config.DefaultRateLimits(),
	}

	wallet, err := walletconfig.New("test", testPassword)
	require.NoError(t, err)

	walletPath := filepath.Join(dir, "wallet.json")
	require.NoError(t, walletconfig.Save(wallet, walletPath))

	m, err := New(cfg, wallet, walletPath, keychain.NewMemoryKeychain())
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func unlockedManager(t *testing.T) *Manager {
	t.Helper()
	m := newTestManager(t)
	require.NoError(t, m.Unlock(testPassword))
	return m
}

func TestManagerStartsLocked(t *testing.T) {
	m := newTestManager(t)
	assert.True(t, m.IsLocked())

	_, err := m.ListAccounts()
	assert.True(t, errors.IsCode(err, errors.ErrCodeWalletLocked))
}

func TestUnlockWrongPassword(t *testing.T) {
	m := newTestManager(t)

	err := m.Unlock("wrong")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCredentials))
	assert.True(t, m.IsLocked())
}

func TestUnlockAttemptsAreRateLimited(t *testing.T) {
	m := newTestManager(t)

	for i := 0; i < 5; i++ {
		_ = m.Unlock("wrong")
	}
	err := m.Unlock(testPassword)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRateLimitExceeded))
}

func TestCreateAccountGeneratesMnemonic(t *testing.T) {
	m := unlockedManager(t)

	account, mnemonic, err := m.CreateAccount(CreateConfig{Name: "primary"}, testPassword)
	require.NoError(t, err)

	assert.Len(t, strings.Fields(mnemonic), 12, "a generated phrase is returned exactly once")
	assert.Equal(t, "primary", account.Name)
	assert.Equal(t, constants.DefaultDerivationPath, account.DerivationPath)
	assert.NotEmpty(t, account.ID)
	assert.NotNil(t, account.SeedKey)
	assert.False(t, account.IsHardware)

	list, err := m.ListAccounts()
	require.NoError(t, err)
	assert.Len(t, list, 1)

	current, err := m.CurrentAccount()
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, account.Address, current.Address, "first account becomes current")
}

func TestCreateAccountFixedVector(t *testing.T) {
	m := unlockedManager(t)

	account, generated, err := m.CreateAccount(CreateConfig{Name: "fixed", Mnemonic: testMnemonic}, testPassword)
	require.NoError(t, err)
	assert.Empty(t, generated, "a supplied mnemonic is never echoed back")
	assert.Equal(t, testAddress, account.Address)
}

func TestCreateAccountRejectsDuplicates(t *testing.T) {
	m := unlockedManager(t)

	_, _, err := m.CreateAccount(CreateConfig{Name: "a", Mnemonic: testMnemonic}, testPassword)
	require.NoError(t, err)

	_, _, err = m.CreateAccount(CreateConfig{Name: "b", Mnemonic: testMnemonic}, testPassword)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAccountExists))
}

func TestCreateAccountWrongPassword(t *testing.T) {
	m := unlockedManager(t)

	_, _, err := m.CreateAccount(CreateConfig{Name: "x"}, "wrong")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCredentials))
}

func TestImportPrivateKey(t *testing.T) {
	m := unlockedManager(t)

	account, err := m.ImportAccount(PrivateKeySource{
		Name:          "imported",
		PrivateKeyHex: "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318",
	}, testPassword)
	require.NoError(t, err)
	assert.Equal(t, "imported", account.DerivationPath)
	assert.Nil(t, account.SeedKey, "a raw key import has no seed to export")
}

func TestImportSeedSource(t *testing.T) {
	m := unlockedManager(t)

	account, err := m.ImportAccount(SeedSource{Name: "hd", Mnemonic: testMnemonic}, testPassword)
	require.NoError(t, err)
	assert.Equal(t, testAddress, account.Address)
	assert.NotNil(t, account.SeedKey)
}

func TestImportKeystoreSource(t *testing.T) {
	m := unlockedManager(t)

	keyHex := "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	keyBytes, err := hex.DecodeString(keyHex)
	require.NoError(t, err)

	ks, err := keystore.Encrypt(keyBytes, "", "keystore-pw", keystore.EncryptOptions{
		Iterations: constants.MinPBKDF2Iterations,
	})
	require.NoError(t, err)
	doc, err := keystore.Marshal(ks)
	require.NoError(t, err)

	account, err := m.ImportAccount(KeystoreSource{Name: "mm", JSON: doc, Password: "keystore-pw"}, testPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, account.Address)

	// Wrong keystore password surfaces as invalid credentials, untouched state.
	_, err = m.ImportAccount(KeystoreSource{Name: "mm2", JSON: doc, Password: "nope"}, testPassword)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCredentials))
}

func TestImportInvalidSeedPhraseCategory(t *testing.T) {
	m := unlockedManager(t)

	_, err := m.ImportAccount(SeedSource{Name: "bad", Mnemonic: "definitely not a mnemonic"}, testPassword)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidSeedPhrase),
		"seed failures carry the seed category, not a generic one")

	_, err = m.ImportAccount(PrivateKeySource{Name: "bad", PrivateKeyHex: "zz"}, testPassword)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidPrivateKey))
}

func TestLockClearsCurrentAndUnlockRestoresIt(t *testing.T) {
	m := unlockedManager(t)

	account, _, err := m.CreateAccount(CreateConfig{Name: "a", Mnemonic: testMnemonic}, testPassword)
	require.NoError(t, err)
	require.NoError(t, m.SetCurrentAccount(account.Address))

	m.Lock()
	assert.True(t, m.IsLocked())
	_, err = m.CurrentAccount()
	assert.True(t, errors.IsCode(err, errors.ErrCodeWalletLocked))

	require.NoError(t, m.Unlock(testPassword))
	current, err := m.CurrentAccount()
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, account.Address, current.Address)
}

func TestMetadataSurvivesReload(t *testing.T) {
	m := unlockedManager(t)

	account, _, err := m.CreateAccount(CreateConfig{Name: "persisted", Mnemonic: testMnemonic}, testPassword)
	require.NoError(t, err)

	// A second manager over the same wallet file sees the account.
	wallet, err := walletconfig.Load(m.walletPath)
	require.NoError(t, err)

	cfg := &config.Config{
		DataDir:               filepath.Dir(m.walletPath),
		SessionTimeoutMinutes: 15,
		CheckIntervalSeconds:  1,
		CacheTTLMinutes:       5,
		RateLimits:            config.DefaultRateLimits(),
	}
	m2, err := New(cfg, wallet, m.walletPath, keychain.NewMemoryKeychain())
	require.NoError(t, err)
	defer m2.Close()

	require.NoError(t, m2.Unlock(testPassword))
	got, err := m2.GetAccount(account.Address)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Name)
}

func TestRemoveAccountRequiresToken(t *testing.T) {
	m := unlockedManager(t)

	account, _, err := m.CreateAccount(CreateConfig{Name: "a", Mnemonic: testMnemonic}, testPassword)
	require.NoError(t, err)

	err = m.RemoveAccount(account.Address, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCredentials))

	// A token for the wrong operation does not pass.
	exportToken, err := m.Authenticate(constants.AuthOpExportSeed, testPassword)
	require.NoError(t, err)
	err = m.RemoveAccount(account.Address, exportToken)
	require.Error(t, err)

	token, err := m.Authenticate(constants.AuthOpRemoveAccount, testPassword)
	require.NoError(t, err)
	require.NoError(t, m.RemoveAccount(account.Address, token))

	_, err = m.GetAccount(account.Address)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAccountNotFound))
}

func TestExportPrivateKeyGated(t *testing.T) {
	m := unlockedManager(t)

	keyHex := "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	account, err := m.ImportAccount(PrivateKeySource{Name: "x", PrivateKeyHex: keyHex}, testPassword)
	require.NoError(t, err)

	token, err := m.Authenticate(constants.AuthOpExportPrivateKey, testPassword)
	require.NoError(t, err)

	// Wrong password still fails even with a valid token.
	_, err = m.ExportPrivateKey(account.Address, "wrong", token)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCredentials))

	exported, err := m.ExportPrivateKey(account.Address, testPassword, token)
	require.NoError(t, err)
	assert.Equal(t, keyHex, exported)
}

func TestExportSeedGated(t *testing.T) {
	m := unlockedManager(t)

	account, err := m.ImportAccount(SeedSource{Name: "hd", Mnemonic: testMnemonic}, testPassword)
	require.NoError(t, err)

	token, err := m.Authenticate(constants.AuthOpExportSeed, testPassword)
	require.NoError(t, err)

	seed, err := m.ExportSeed(account.Address, testPassword, token)
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, seed)
}

func TestExportSeedUnavailableForRawImports(t *testing.T) {
	m := unlockedManager(t)

	account, err := m.ImportAccount(PrivateKeySource{
		Name:          "raw",
		PrivateKeyHex: "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318",
	}, testPassword)
	require.NoError(t, err)

	token, err := m.Authenticate(constants.AuthOpExportSeed, testPassword)
	require.NoError(t, err)

	_, err = m.ExportSeed(account.Address, testPassword, token)
	require.Error(t, err)
}

func TestSignerForSoftwareAccount(t *testing.T) {
	m := unlockedManager(t)

	account, _, err := m.CreateAccount(CreateConfig{Name: "a", Mnemonic: testMnemonic}, testPassword)
	require.NoError(t, err)

	signer, err := m.SignerFor(account.Address)
	require.NoError(t, err)
	defer signer.Close()

	assert.Equal(t, account.Address, signer.Address())

	hash := make([]byte, 32)
	sig, err := signer.SignHash(hash)
	require.NoError(t, err)
	assert.Len(t, sig, 65)
}

func TestBackupRestoreLifecycle(t *testing.T) {
	m := unlockedManager(t)

	account, _, err := m.CreateAccount(CreateConfig{Name: "TestUser", Mnemonic: testMnemonic}, testPassword)
	require.NoError(t, err)

	container, err := m.CreateBackup(testPassword)
	require.NoError(t, err)

	token, err := m.Authenticate(constants.AuthOpRemoveAccount, testPassword)
	require.NoError(t, err)
	require.NoError(t, m.RemoveAccount(account.Address, token))

	list, err := m.ListAccounts()
	require.NoError(t, err)
	require.Empty(t, list)

	added, err := m.RestoreBackup(container, testPassword)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	restored, err := m.GetAccount(account.Address)
	require.NoError(t, err)
	assert.Equal(t, "TestUser", restored.Name)

	// Wrong password never restores.
	_, err = m.RestoreBackup(container, "wrong")
	require.Error(t, err)
}

// gatedKeychain lets a test hold a Retrieve in flight while the wallet
// state changes underneath it.
type gatedKeychain struct {
	inner   keychain.Keychain
	armed   bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedKeychain) Store(ref keychain.KeyReference, secret []byte) error {
	return g.inner.Store(ref, secret)
}

func (g *gatedKeychain) Retrieve(ref keychain.KeyReference) ([]byte, error) {
	if g.armed {
		g.entered <- struct{}{}
		<-g.release
	}
	return g.inner.Retrieve(ref)
}

func (g *gatedKeychain) Delete(ref keychain.KeyReference) error {
	return g.inner.Delete(ref)
}

func TestExportInFlightAcrossLockFails(t *testing.T) {
	audit.InitDiscardLogger()

	dir := t.TempDir()
	cfg := &config.Config{
		DataDir:               dir,
		SessionTimeoutMinutes: 15,
		CheckIntervalSeconds:  1,
		CacheTTLMinutes:       5,
		RateLimits:            config.DefaultRateLimits(),
	}
	wallet, err := walletconfig.New("test", testPassword)
	require.NoError(t, err)
	walletPath := filepath.Join(dir, "wallet.json")
	require.NoError(t, walletconfig.Save(wallet, walletPath))

	gate := &gatedKeychain{
		inner:   keychain.NewMemoryKeychain(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	m, err := New(cfg, wallet, walletPath, gate)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Unlock(testPassword))
	account, _, err := m.CreateAccount(CreateConfig{Name: "a", Mnemonic: testMnemonic}, testPassword)
	require.NoError(t, err)
	token, err := m.Authenticate(constants.AuthOpExportPrivateKey, testPassword)
	require.NoError(t, err)

	// Block the export inside the keychain read, lock the wallet while
	// it waits, then let it finish.
	gate.armed = true
	type result struct {
		key string
		err error
	}
	done := make(chan result, 1)
	go func() {
		key, err := m.ExportPrivateKey(account.Address, testPassword, token)
		done <- result{key, err}
	}()

	<-gate.entered
	m.Lock()
	close(gate.release)

	res := <-done
	require.Error(t, res.err, "an export that straddles Lock must not complete")
	assert.True(t, errors.IsCode(res.err, errors.ErrCodeWalletLocked))
	assert.Empty(t, res.key)
	assert.Equal(t, 0, m.cache.Len(), "no key may be cached while the wallet is locked")
}

func TestChangePasswordRotatesAndRateLimits(t *testing.T) {
	m := unlockedManager(t)

	// Wrong old passwords draw from the same bucket as unlock attempts.
	for i := 0; i < 5; i++ {
		err := m.ChangePassword("wrong", "NewPassword!2024")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCredentials))
	}
	err := m.ChangePassword("wrong", "NewPassword!2024")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRateLimitExceeded),
		"guess 6 must be throttled like unlock attempt 6")

	// After the window refills a correct rotation goes through.
	m.RateLimiter().Reset(constants.OpUnlockAttempt)
	require.NoError(t, m.ChangePassword(testPassword, "NewPassword!2024"))

	m.Lock()
	err = m.Unlock(testPassword)
	require.Error(t, err, "the old password must stop working")
	require.NoError(t, m.Unlock("NewPassword!2024"))
}

func TestLockedOperationsShortCircuit(t *testing.T) {
	m := newTestManager(t)

	_, _, err := m.CreateAccount(CreateConfig{Name: "x"}, testPassword)
	assert.True(t, errors.IsCode(err, errors.ErrCodeWalletLocked))

	_, err = m.ImportAccount(SeedSource{Mnemonic: testMnemonic}, testPassword)
	assert.True(t, errors.IsCode(err, errors.ErrCodeWalletLocked))

	_, err = m.CreateBackup(testPassword)
	assert.True(t, errors.IsCode(err, errors.ErrCodeWalletLocked))

	_, err = m.Authenticate(constants.AuthOpExportSeed, testPassword)
	assert.True(t, errors.IsCode(err, errors.ErrCodeWalletLocked))
}

// File: internal/accounts/manager.go
//
// Account lifecycle manager: the single surface the CLI (or a GUI)
// calls into. It enforces lock state and authentication, then
// delegates to the derivation, codec, cache and keychain layers.
//
// Locking discipline: readers share the RWMutex, writers hold it only
// for the critical section. Key derivation, keychain I/O and metadata
// persistence happen outside the lock; every authenticated operation
// re-checks the lock flag once inside the critical section so a
// concurrent Lock cannot admit a stale-authorized operation.
package accounts

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"wallet.module/internal/audit"
	"wallet.module/internal/backup"
	"wallet.module/internal/config"
	"wallet.module/internal/constants"
	"wallet.module/internal/errors"
	"wallet.module/internal/keychain"
	"wallet.module/internal/keys"
	"wallet.module/internal/keystore"
	"wallet.module/internal/security"
	"wallet.module/internal/session"
	"wallet.module/internal/walletconfig"
)

// Manager orchestrates the account lifecycle over one wallet file.
type Manager struct {
	mu           sync.RWMutex
	accounts     map[string]*SecureAccount // keyed by lowercase address
	current      string
	savedCurrent string
	locked       bool
	password     *security.SecureBuffer // master password, held while unlocked

	wallet     *walletconfig.WalletConfig
	walletPath string
	chain      keychain.Keychain
	cache      *security.KeyCache
	session    *session.Manager
	limiter    *session.RateLimiter
	auth       *session.Authenticator
}

// New builds a manager over an existing wallet container. The wallet
// starts locked; Unlock loads the account metadata.
func New(cfg *config.Config, wallet *walletconfig.WalletConfig, walletPath string, chain keychain.Keychain) (*Manager, error) {
	limiter := session.NewRateLimiter(cfg.RateLimitsPath(), cfg.RateLimits)
	auth, err := session.NewAuthenticator(limiter)
	if err != nil {
		return nil, err
	}

	return &Manager{
		accounts:   make(map[string]*SecureAccount),
		locked:     true,
		wallet:     wallet,
		walletPath: walletPath,
		chain:      chain,
		cache:      security.NewKeyCache(cfg.CacheTTL()),
		session:    session.NewManager(cfg.SessionTimeout(), cfg.CheckInterval()),
		limiter:    limiter,
		auth:       auth,
	}, nil
}

// Session exposes the session manager for activity tracking.
func (m *Manager) Session() *session.Manager {
	return m.session
}

// RateLimiter exposes the limiter, mainly for status commands.
func (m *Manager) RateLimiter() *session.RateLimiter {
	return m.limiter
}

// StartAutoLock launches the background monitor; an inactivity timeout
// locks the wallet.
func (m *Manager) StartAutoLock(ctx context.Context) {
	m.session.StartMonitor(ctx, func() {
		m.Lock()
		audit.Event(audit.NewCorrelationID(), "auto_lock", "session timed out")
	})
}

// Close stops the monitor and wipes all cached key material.
func (m *Manager) Close() {
	m.session.StopMonitor()
	m.Lock()
}

// IsLocked reports the lock state.
func (m *Manager) IsLocked() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.locked
}

// Lock transitions to the locked state: the current-account reference
// and the retained password are cleared and every cached key is wiped.
// Effects are published under the write lock, so any later writer sees
// them.
func (m *Manager) Lock() {
	m.mu.Lock()
	if !m.locked {
		m.locked = true
		m.savedCurrent = m.current
		m.current = ""
		if m.password != nil {
			m.password.Destroy()
			m.password = nil
		}
	}
	m.mu.Unlock()

	m.cache.Clear()
	m.session.Deactivate()
}

// Unlock verifies the master password, loads the account metadata and
// restores the previously selected account. Attempts are rate limited
// and the bucket refills on success.
func (m *Manager) Unlock(password string) error {
	if err := m.limiter.Check(constants.OpUnlockAttempt); err != nil {
		return err
	}

	if !m.wallet.VerifyMasterPassword(password) {
		return errors.NewInvalidCredentialsError()
	}

	payload, err := m.wallet.DecryptAccountMetadata(password)
	if err != nil {
		return err
	}
	defer security.SecureClearBytes(payload)

	var list []*SecureAccount
	if err := json.Unmarshal(payload, &list); err != nil {
		return errors.NewSerializationError("account metadata", err)
	}

	m.mu.Lock()
	m.accounts = make(map[string]*SecureAccount, len(list))
	for _, account := range list {
		m.accounts[strings.ToLower(account.Address)] = account
	}
	m.locked = false
	if m.password != nil {
		m.password.Destroy()
	}
	m.password = security.NewSecureBufferFrom([]byte(password))
	if m.savedCurrent != "" {
		if _, ok := m.accounts[m.savedCurrent]; ok {
			m.current = m.savedCurrent
		}
		m.savedCurrent = ""
	}
	m.mu.Unlock()

	m.session.Reactivate()
	m.limiter.Reset(constants.OpUnlockAttempt)
	return nil
}

// ChangePassword rotates the master password and re-encrypts the
// wallet container. The old-password check draws from the same attempt
// bucket as Unlock, so password guessing is throttled on every surface.
func (m *Manager) ChangePassword(oldPassword, newPassword string) error {
	corrID := audit.NewCorrelationID()

	if err := m.limiter.Check(constants.OpUnlockAttempt); err != nil {
		return err
	}

	if err := m.wallet.ChangePassword(oldPassword, newPassword); err != nil {
		audit.Failure(corrID, "change_password", string(errors.GetCode(err)))
		return err
	}
	if err := walletconfig.Save(m.wallet, m.walletPath); err != nil {
		return err
	}
	m.limiter.Reset(constants.OpUnlockAttempt)

	m.mu.Lock()
	if !m.locked && m.password != nil {
		m.password.Destroy()
		m.password = security.NewSecureBufferFrom([]byte(newPassword))
	}
	m.mu.Unlock()

	audit.Event(corrID, "change_password", "master password rotated")
	return nil
}

// currentPassword returns a copy of the retained master password.
// Callers wipe the copy.
func (m *Manager) currentPassword() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.locked || m.password == nil {
		return nil, errors.NewWalletLockedError()
	}
	return m.password.Bytes(), nil
}

// requireUnlocked verifies the password against the container and the
// current lock state.
func (m *Manager) requireUnlocked(password string) error {
	if m.IsLocked() {
		return errors.NewWalletLockedError()
	}
	if !m.wallet.VerifyMasterPassword(password) {
		return errors.NewInvalidCredentialsError()
	}
	return nil
}

// persistMetadata re-encrypts the account list and saves the wallet
// file. Called outside the account lock with a point-in-time snapshot.
func (m *Manager) persistMetadata(list []*SecureAccount, password string) error {
	payload, err := json.Marshal(list)
	if err != nil {
		return errors.NewSerializationError("account metadata", err)
	}
	defer security.SecureClearBytes(payload)

	if err := m.wallet.UpdateAccountMetadata(payload, password); err != nil {
		return err
	}
	return walletconfig.Save(m.wallet, m.walletPath)
}

// snapshotLocked copies the account list. Caller holds at least RLock.
func (m *Manager) snapshotLocked() []*SecureAccount {
	list := make([]*SecureAccount, 0, len(m.accounts))
	for _, account := range m.accounts {
		list = append(list, account.clone())
	}
	return list
}

// insertAccount adds the account under the write lock, re-checking the
// lock flag, and returns a metadata snapshot for persistence.
func (m *Manager) insertAccount(account *SecureAccount) ([]*SecureAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.locked {
		return nil, errors.NewWalletLockedError()
	}
	key := strings.ToLower(account.Address)
	if _, exists := m.accounts[key]; exists {
		return nil, errors.NewAccountExistsError(account.Address)
	}
	m.accounts[key] = account
	if m.current == "" {
		m.current = key
	}
	return m.snapshotLocked(), nil
}

// CreateAccount derives a new HD account. When the config carries no
// mnemonic a fresh 12-word phrase is generated and returned exactly
// once; it is never persisted in plaintext.
func (m *Manager) CreateAccount(cc CreateConfig, password string) (*SecureAccount, string, error) {
	corrID := audit.NewCorrelationID()

	if err := m.requireUnlocked(password); err != nil {
		audit.Failure(corrID, "create_account", string(errors.GetCode(err)))
		return nil, "", err
	}
	m.session.RecordActivity()

	mnemonic := cc.Mnemonic
	generated := ""
	if mnemonic == "" {
		var err error
		mnemonic, err = keys.GenerateMnemonic(128)
		if err != nil {
			return nil, "", err
		}
		generated = mnemonic
	}

	path := cc.DerivationPath
	if path == "" {
		path = constants.DefaultDerivationPath
	}

	derived, err := keys.DeriveAccount(mnemonic, cc.Passphrase, path)
	if err != nil {
		audit.Failure(corrID, "create_account", string(errors.GetCode(err)))
		return nil, "", err
	}
	defer security.SecureClearBytes(derived.PrivateKey)

	account := &SecureAccount{
		ID:             uuid.NewString(),
		Name:           cc.Name,
		Address:        derived.Address,
		Key:            keychain.NewKeyReference(derived.Address),
		CreatedAt:      time.Now().UTC(),
		DerivationPath: path,
		Tags:           cc.Tags,
	}
	seedRef := keychain.NewKeyReference(derived.Address + "/seed")
	account.SeedKey = &seedRef

	// Keychain I/O stays outside the account lock.
	if err := m.chain.Store(account.Key, derived.PrivateKey); err != nil {
		return nil, "", err
	}
	if err := m.chain.Store(seedRef, []byte(mnemonic)); err != nil {
		_ = m.chain.Delete(account.Key)
		return nil, "", err
	}

	snapshot, err := m.insertAccount(account)
	if err != nil {
		_ = m.chain.Delete(account.Key)
		_ = m.chain.Delete(seedRef)
		return nil, "", err
	}

	if err := m.persistMetadata(snapshot, password); err != nil {
		return nil, "", err
	}

	audit.Event(corrID, "create_account", "account created: "+account.Address)
	return account.clone(), generated, nil
}

// ImportAccount dispatches on the source variant, derives or parses the
// key, stores it via the keychain and registers the account.
func (m *Manager) ImportAccount(source ImportSource, password string) (*SecureAccount, error) {
	corrID := audit.NewCorrelationID()

	if err := m.requireUnlocked(password); err != nil {
		audit.Failure(corrID, "import_account", string(errors.GetCode(err)))
		return nil, err
	}
	m.session.RecordActivity()

	var (
		name     string
		derived  *keys.DerivedAccount
		mnemonic string
		err      error
	)

	switch src := source.(type) {
	case SeedSource:
		name = src.Name
		mnemonic = src.Mnemonic
		derived, err = keys.DeriveAccount(src.Mnemonic, src.Passphrase, src.DerivationPath)
	case PrivateKeySource:
		name = src.Name
		derived, err = keys.ParsePrivateKey(src.PrivateKeyHex)
	case KeystoreSource:
		name = src.Name
		derived, err = importFromKeystore(src)
	default:
		return nil, errors.New(errors.ErrCodeInternal, "unknown import source")
	}
	if err != nil {
		audit.Failure(corrID, "import_account", string(errors.GetCode(err)))
		return nil, err
	}
	defer security.SecureClearBytes(derived.PrivateKey)

	account := &SecureAccount{
		ID:             uuid.NewString(),
		Name:           name,
		Address:        derived.Address,
		Key:            keychain.NewKeyReference(derived.Address),
		CreatedAt:      time.Now().UTC(),
		DerivationPath: derived.Path,
	}

	if err := m.chain.Store(account.Key, derived.PrivateKey); err != nil {
		return nil, err
	}
	if mnemonic != "" {
		seedRef := keychain.NewKeyReference(derived.Address + "/seed")
		if err := m.chain.Store(seedRef, []byte(mnemonic)); err != nil {
			_ = m.chain.Delete(account.Key)
			return nil, err
		}
		account.SeedKey = &seedRef
	}

	snapshot, err := m.insertAccount(account)
	if err != nil {
		_ = m.chain.Delete(account.Key)
		if account.SeedKey != nil {
			_ = m.chain.Delete(*account.SeedKey)
		}
		return nil, err
	}

	if err := m.persistMetadata(snapshot, password); err != nil {
		return nil, err
	}

	audit.Event(corrID, "import_account", "account imported ("+source.kind()+"): "+account.Address)
	return account.clone(), nil
}

func importFromKeystore(src KeystoreSource) (*keys.DerivedAccount, error) {
	ks, err := keystore.Unmarshal(src.JSON)
	if err != nil {
		return nil, err
	}
	keyBytes, err := keystore.Decrypt(ks, src.Password)
	if err != nil {
		return nil, err
	}
	defer security.SecureClearBytes(keyBytes)

	// Re-parse so the address comes from the key, not the file header.
	return keys.ParsePrivateKey(hex.EncodeToString(keyBytes))
}

// RemoveAccount deletes an account. It requires a non-expired token
// scoped to removal; the token gate and lock re-check both run before
// any state changes, so a rejected call never partially executes.
func (m *Manager) RemoveAccount(address string, token *session.AuthToken) error {
	corrID := audit.NewCorrelationID()

	if err := m.auth.ValidateToken(token, constants.AuthOpRemoveAccount); err != nil {
		audit.Failure(corrID, "remove_account", string(errors.GetCode(err)))
		return err
	}

	password, err := m.currentPassword()
	if err != nil {
		return err
	}
	defer security.SecureClearBytes(password)
	m.session.RecordActivity()

	key := strings.ToLower(address)

	m.mu.Lock()
	if m.locked {
		m.mu.Unlock()
		return errors.NewWalletLockedError()
	}
	account, ok := m.accounts[key]
	if !ok {
		m.mu.Unlock()
		return errors.NewAccountNotFoundError(address)
	}
	delete(m.accounts, key)
	if m.current == key {
		m.current = ""
	}
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.cache.Remove(account.Address)
	_ = m.chain.Delete(account.Key)
	if account.SeedKey != nil {
		_ = m.chain.Delete(*account.SeedKey)
	}

	if err := m.persistMetadata(snapshot, string(password)); err != nil {
		return err
	}

	audit.Event(corrID, "remove_account", "account removed: "+account.Address)
	return nil
}

// ListAccounts returns copies of every account.
func (m *Manager) ListAccounts() ([]*SecureAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.locked {
		return nil, errors.NewWalletLockedError()
	}
	m.session.RecordActivity()
	return m.snapshotLocked(), nil
}

// GetAccount returns a copy of one account by address.
func (m *Manager) GetAccount(address string) (*SecureAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.locked {
		return nil, errors.NewWalletLockedError()
	}
	account, ok := m.accounts[strings.ToLower(address)]
	if !ok {
		return nil, errors.NewAccountNotFoundError(address)
	}
	m.session.RecordActivity()
	return account.clone(), nil
}

// CurrentAccount returns the selected account, or nil when none is set.
func (m *Manager) CurrentAccount() (*SecureAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.locked {
		return nil, errors.NewWalletLockedError()
	}
	if m.current == "" {
		return nil, nil
	}
	return m.accounts[m.current].clone(), nil
}

// SetCurrentAccount selects an account by address.
func (m *Manager) SetCurrentAccount(address string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked {
		return errors.NewWalletLockedError()
	}
	key := strings.ToLower(address)
	if _, ok := m.accounts[key]; !ok {
		return errors.NewAccountNotFoundError(address)
	}
	m.current = key
	m.session.RecordActivity()
	return nil
}

// Authenticate verifies the master password and mints an auth token
// scoped to the given operation kind.
func (m *Manager) Authenticate(operation, password string) (*session.AuthToken, error) {
	if m.IsLocked() {
		return nil, errors.NewWalletLockedError()
	}
	return m.auth.Authenticate(operation, func() bool {
		return m.wallet.VerifyMasterPassword(password)
	})
}

// ExportSeed reveals the mnemonic behind a seed-derived account. Gated
// by password re-verification and a seed-scoped token.
func (m *Manager) ExportSeed(address, password string, token *session.AuthToken) (string, error) {
	corrID := audit.NewCorrelationID()

	if err := m.auth.ValidateToken(token, constants.AuthOpExportSeed); err != nil {
		audit.Failure(corrID, "export_seed", string(errors.GetCode(err)))
		return "", err
	}
	if err := m.requireUnlocked(password); err != nil {
		audit.Failure(corrID, "export_seed", string(errors.GetCode(err)))
		return "", err
	}

	account, err := m.GetAccount(address)
	if err != nil {
		return "", err
	}
	if account.SeedKey == nil {
		return "", errors.New(errors.ErrCodeAccountNotFound, "account has no seed phrase").
			WithContext("address", address)
	}

	secret, err := m.chain.Retrieve(*account.SeedKey)
	if err != nil {
		return "", err
	}

	// Same post-retrieval re-check as keyFor: a Lock that landed while
	// the keychain was being read must win.
	m.mu.RLock()
	locked := m.locked
	m.mu.RUnlock()
	if locked {
		security.SecureClearBytes(secret)
		return "", errors.NewWalletLockedError()
	}

	audit.Event(corrID, "export_seed", "seed exported for "+account.Address)
	return string(secret), nil
}

// ExportPrivateKey reveals an account's private key as hex. Gated by
// password re-verification and a key-scoped token.
func (m *Manager) ExportPrivateKey(address, password string, token *session.AuthToken) (string, error) {
	corrID := audit.NewCorrelationID()

	if err := m.auth.ValidateToken(token, constants.AuthOpExportPrivateKey); err != nil {
		audit.Failure(corrID, "export_private_key", string(errors.GetCode(err)))
		return "", err
	}
	if err := m.requireUnlocked(password); err != nil {
		audit.Failure(corrID, "export_private_key", string(errors.GetCode(err)))
		return "", err
	}

	keyBytes, err := m.keyFor(address)
	if err != nil {
		return "", err
	}
	defer security.SecureClearBytes(keyBytes)

	audit.Event(corrID, "export_private_key", "private key exported for "+address)
	return hex.EncodeToString(keyBytes), nil
}

// keyFor resolves an account's private key, preferring the cache.
func (m *Manager) keyFor(address string) ([]byte, error) {
	account, err := m.GetAccount(address)
	if err != nil {
		return nil, err
	}
	if account.IsHardware {
		return nil, errors.New(errors.ErrCodeKeychain, "hardware accounts hold no local key").
			WithContext("address", address)
	}

	if cached := m.cache.Get(account.Address); cached != nil {
		return cached, nil
	}

	keyBytes, err := m.chain.Retrieve(account.Key)
	if err != nil {
		return nil, err
	}

	// Keychain I/O ran outside the lock; a concurrent Lock may have
	// completed in the meantime. Re-check before the key escapes or is
	// cached — Lock clears the cache only after releasing the mutex, so
	// an entry put under this read lock is always covered by the wipe.
	m.mu.RLock()
	if m.locked {
		m.mu.RUnlock()
		security.SecureClearBytes(keyBytes)
		return nil, errors.NewWalletLockedError()
	}
	m.cache.Put(account.Address, keyBytes)
	m.mu.RUnlock()
	return keyBytes, nil
}

// SignerFor returns the signing capability for an account: a software
// signer over the cached key, or the hardware surface for device
// accounts. The external transaction layer consumes the result.
func (m *Manager) SignerFor(address string) (keys.Signer, error) {
	account, err := m.GetAccount(address)
	if err != nil {
		return nil, err
	}
	if account.IsHardware {
		return keys.NewHardwareSigner(account.Address, account.DerivationPath), nil
	}

	keyBytes, err := m.keyFor(address)
	if err != nil {
		return nil, err
	}
	defer security.SecureClearBytes(keyBytes)

	return keys.NewSoftwareSigner(account.Address, keyBytes), nil
}

// TouchAccount records account usage for metadata bookkeeping.
func (m *Manager) TouchAccount(address string) error {
	password, err := m.currentPassword()
	if err != nil {
		return err
	}
	defer security.SecureClearBytes(password)

	m.mu.Lock()
	if m.locked {
		m.mu.Unlock()
		return errors.NewWalletLockedError()
	}
	account, ok := m.accounts[strings.ToLower(address)]
	if !ok {
		m.mu.Unlock()
		return errors.NewAccountNotFoundError(address)
	}
	account.LastUsed = time.Now().UTC()
	account.TransactionCount++
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	return m.persistMetadata(snapshot, string(password))
}

// CreateBackup serializes the account list into an encrypted container.
func (m *Manager) CreateBackup(password string) (*backup.BackupContainer, error) {
	corrID := audit.NewCorrelationID()

	if err := m.requireUnlocked(password); err != nil {
		audit.Failure(corrID, "create_backup", string(errors.GetCode(err)))
		return nil, err
	}

	m.mu.RLock()
	snapshot := m.snapshotLocked()
	m.mu.RUnlock()

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, errors.NewSerializationError("account metadata", err)
	}
	defer security.SecureClearBytes(payload)

	container, err := backup.CreateEncryptedBackup(payload, password)
	if err != nil {
		return nil, err
	}

	audit.Event(corrID, "create_backup", "backup created")
	return container, nil
}

// RestoreBackup merges accounts from a backup container. Existing
// addresses are kept; restored entries reference keychain material
// that must be present on this machine for signing to work.
func (m *Manager) RestoreBackup(container *backup.BackupContainer, password string) (int, error) {
	corrID := audit.NewCorrelationID()

	if err := m.requireUnlocked(password); err != nil {
		audit.Failure(corrID, "restore_backup", string(errors.GetCode(err)))
		return 0, err
	}

	payload, err := backup.RestoreFromBackup(container, password)
	if err != nil {
		audit.Failure(corrID, "restore_backup", string(errors.GetCode(err)))
		return 0, err
	}
	defer security.SecureClearBytes(payload)

	var restored []*SecureAccount
	if err := json.Unmarshal(payload, &restored); err != nil {
		return 0, errors.NewBackupCorruptError(err).
			WithDetails("backup payload is not an account list")
	}

	m.mu.Lock()
	if m.locked {
		m.mu.Unlock()
		return 0, errors.NewWalletLockedError()
	}
	added := 0
	for _, account := range restored {
		key := strings.ToLower(account.Address)
		if _, exists := m.accounts[key]; exists {
			continue
		}
		m.accounts[key] = account
		added++
	}
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	if err := m.persistMetadata(snapshot, password); err != nil {
		return added, err
	}

	audit.Event(corrID, "restore_backup", "backup restored")
	return added, nil
}

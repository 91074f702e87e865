// File: internal/constants/constants.go
package constants

// Rate-limited operation names
const (
	OpUnlockAttempt = "unlock_attempt"
	OpExportAuth    = "export_auth"
	OpExportKey     = "export_op"
)

// Authenticated operation kinds for auth tokens
const (
	AuthOpExportSeed       = "export_seed"
	AuthOpExportPrivateKey = "export_private_key"
	AuthOpRemoveAccount    = "remove_account"
)

// Import source kinds
const (
	ImportSourceSeed       = "seed"
	ImportSourcePrivateKey = "private_key"
	ImportSourceKeystore   = "keystore"
)

// Argon2id parameters for the wallet-config and backup codecs
const (
	Argon2Memory  = 64 * 1024 // KiB
	Argon2Time    = 3
	Argon2Threads = 4
	Argon2KeyLen  = 32
)

// Keystore v3 parameters
const (
	KeystoreVersion     = 3
	KdfPBKDF2           = "pbkdf2"
	KdfScrypt           = "scrypt"
	CipherAES128CTR     = "aes-128-ctr"
	CipherAES256CTR     = "aes-256-ctr"
	PBKDF2Iterations    = 262144
	MinPBKDF2Iterations = 100000
	PBKDF2PRF           = "hmac-sha256"
	ScryptN             = 262144
	ScryptR             = 8
	ScryptP             = 1
	DerivedKeyLength    = 32
)

// Derivation paths
const (
	DefaultDerivationPath = "m/44'/60'/0'/0/0"
	BaseDerivationPath    = "m/44'/60'/0'/0"
)

// File names under the data directory
const (
	WalletConfigFile = "wallet.json"
	RateLimitsFile   = "rate_limits.json"
	AuditLogFile     = "audit.log"
)

// KeychainService is the service name stamped into every key reference.
const KeychainService = "wallet.module"

// File: internal/session/authenticator_test.go
package session

import (
	"path/filepath"
	"testing"
	"time"

	"wallet.module/internal/config"
	"wallet.module/internal/constants"
	"wallet.module/internal/errors"
)

func testAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rate_limits.json")
	limiter := NewRateLimiter(path, config.DefaultRateLimits())
	auth, err := NewAuthenticator(limiter)
	if err != nil {
		t.Fatalf("NewAuthenticator failed: %v", err)
	}
	return auth
}

func TestAuthenticateMintsScopedToken(t *testing.T) {
	auth := testAuthenticator(t)

	token, err := auth.Authenticate(constants.AuthOpRemoveAccount, func() bool { return true })
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	if token.ID == "" || token.Signature == "" {
		t.Error("token must carry an id and a signature")
	}
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 || ttl > TokenTTL {
		t.Errorf("token TTL out of range: %v", ttl)
	}

	if err := auth.ValidateToken(token, constants.AuthOpRemoveAccount); err != nil {
		t.Errorf("freshly minted token must validate: %v", err)
	}
}

func TestAuthenticateRejectsWrongPassword(t *testing.T) {
	auth := testAuthenticator(t)

	_, err := auth.Authenticate(constants.AuthOpExportSeed, func() bool { return false })
	if err == nil {
		t.Fatal("a failed password check must not mint a token")
	}
	if got := errors.GetCode(err); got != errors.ErrCodeInvalidCredentials {
		t.Errorf("expected INVALID_CREDENTIALS, got %s", got)
	}
}

func TestAuthenticateRateLimitsAttempts(t *testing.T) {
	auth := testAuthenticator(t)

	// The attempt bucket holds 5 tokens; failures consume them too.
	for i := 0; i < 5; i++ {
		_, _ = auth.Authenticate(constants.AuthOpRemoveAccount, func() bool { return false })
	}

	_, err := auth.Authenticate(constants.AuthOpRemoveAccount, func() bool { return true })
	if err == nil {
		t.Fatal("attempt 6 must be rate limited")
	}
	if got := errors.GetCode(err); got != errors.ErrCodeRateLimitExceeded {
		t.Errorf("expected RATE_LIMIT_EXCEEDED, got %s", got)
	}
}

func TestExportOperationsDrawFromExportBucket(t *testing.T) {
	auth := testAuthenticator(t)
	auth.limiter.Reset(constants.OpExportAuth)

	// The export bucket holds 3 tokens per hour.
	for i := 0; i < 3; i++ {
		auth.limiter.Reset(constants.OpExportAuth)
		if _, err := auth.Authenticate(constants.AuthOpExportPrivateKey, func() bool { return true }); err != nil {
			t.Fatalf("export %d should authenticate: %v", i+1, err)
		}
	}

	auth.limiter.Reset(constants.OpExportAuth)
	_, err := auth.Authenticate(constants.AuthOpExportPrivateKey, func() bool { return true })
	if err == nil {
		t.Fatal("export 4 within the hour must be rejected")
	}
	if got := errors.GetCode(err); got != errors.ErrCodeRateLimitExceeded {
		t.Errorf("expected RATE_LIMIT_EXCEEDED, got %s", got)
	}
}

func TestValidateTokenScope(t *testing.T) {
	auth := testAuthenticator(t)

	token, err := auth.Authenticate(constants.AuthOpExportSeed, func() bool { return true })
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	err = auth.ValidateToken(token, constants.AuthOpRemoveAccount)
	if err == nil {
		t.Fatal("a token must not validate for a different operation")
	}
	if got := errors.GetCode(err); got != errors.ErrCodeInvalidCredentials {
		t.Errorf("expected INVALID_CREDENTIALS, got %s", got)
	}
}

func TestValidateTokenExpiry(t *testing.T) {
	auth := testAuthenticator(t)

	token, err := auth.Authenticate(constants.AuthOpRemoveAccount, func() bool { return true })
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	// Backdate the expiry and re-sign so only the expiry check trips.
	token.ExpiresAt = time.Now().Add(-time.Second)
	token.Signature = auth.sign(token.ID, token.Operation, token.ExpiresAt)

	err = auth.ValidateToken(token, constants.AuthOpRemoveAccount)
	if err == nil {
		t.Fatal("an expired token must be rejected")
	}
	if got := errors.GetCode(err); got != errors.ErrCodeTokenExpired {
		t.Errorf("expected TOKEN_EXPIRED, got %s", got)
	}
}

func TestValidateTokenTamperedSignature(t *testing.T) {
	auth := testAuthenticator(t)

	token, err := auth.Authenticate(constants.AuthOpRemoveAccount, func() bool { return true })
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	token.ExpiresAt = token.ExpiresAt.Add(time.Hour) // forged extension
	if err := auth.ValidateToken(token, constants.AuthOpRemoveAccount); err == nil {
		t.Fatal("a token with a forged expiry must fail the signature check")
	}

	if err := auth.ValidateToken(nil, constants.AuthOpRemoveAccount); err == nil {
		t.Fatal("a nil token must be rejected")
	}
}
